package normalize

import "strings"

// MaxTags caps every standardized tag list.
const MaxTags = 5

type term struct {
	name     string
	variants []string
}

// Vocabulary is an ordered canonical tag table.
type Vocabulary struct {
	kind  string
	terms []term
}

// Kind names the vocabulary ("colors", "styles", "materials").
func (v Vocabulary) Kind() string { return v.kind }

// Colors, Styles and Materials are the enrichment vocabularies.
var (
	Colors = Vocabulary{kind: "colors", terms: []term{
		{"silver", []string{"silver", "stainless", "steel", "metallic", "chrome"}},
		{"gold", []string{"gold", "golden", "yellow gold", "brass"}},
		{"rose_gold", []string{"rose gold", "rose_gold", "pink gold", "copper", "rose"}},
		{"black", []string{"black", "dark", "charcoal"}},
		{"white", []string{"white", "light", "pearl", "ivory"}},
		{"blue", []string{"blue", "navy", "royal blue", "azure"}},
		{"red", []string{"red", "burgundy", "wine", "crimson"}},
		{"green", []string{"green", "olive", "emerald", "forest"}},
		{"brown", []string{"brown", "tan", "cognac", "bronze"}},
		{"gray", []string{"gray", "grey", "slate", "gunmetal"}},
	}}

	Styles = Vocabulary{kind: "styles", terms: []term{
		{"minimalistic", []string{"minimalistic", "minimal", "simple", "clean"}},
		{"luxury", []string{"luxury", "premium", "elegant", "sophisticated"}},
		{"sporty", []string{"sporty", "sport", "athletic", "racing", "diving"}},
		{"casual", []string{"casual", "everyday", "informal", "relaxed"}},
		{"formal", []string{"formal", "dress", "business", "professional"}},
		{"vintage", []string{"vintage", "retro", "classic", "heritage"}},
		{"modern", []string{"modern", "contemporary", "futuristic"}},
		{"smartwatch", []string{"smart", "digital", "fitness", "connected"}},
	}}

	Materials = Vocabulary{kind: "materials", terms: []term{
		{"leather", []string{"leather", "genuine leather", "cowhide"}},
		{"metal", []string{"metal", "steel", "stainless steel", "alloy"}},
		{"rubber", []string{"rubber", "silicone", "elastomer"}},
		{"ceramic", []string{"ceramic", "high-tech ceramic"}},
		{"titanium", []string{"titanium", "ti"}},
		{"fabric", []string{"fabric", "canvas", "nylon", "nato"}},
		{"gold", []string{"gold", "yellow gold", "white gold"}},
		{"silver", []string{"silver", "sterling silver"}},
	}}
)

// lookup returns the canonical name for a lower-cased item. Variants of two
// characters or fewer only match exactly.
func (v Vocabulary) lookup(item string) (string, bool) {
	for _, t := range v.terms {
		for _, variant := range t.variants {
			if item == variant {
				return t.name, true
			}
		}
	}
	for _, t := range v.terms {
		for _, variant := range t.variants {
			if len(variant) > 2 && strings.Contains(item, variant) {
				return t.name, true
			}
		}
	}
	return "", false
}

// Standardize maps raw tags onto canonical names. Unknown tags longer than
// two characters are kept lower-cased, shorter ones are dropped. The result
// is de-duplicated and capped at MaxTags.
func (v Vocabulary) Standardize(items []string) []string {
	out := make([]string, 0, MaxTags)
	seen := make(map[string]bool, len(items))
	for _, raw := range items {
		item := strings.ToLower(strings.TrimSpace(raw))
		if item == "" {
			continue
		}
		name, ok := v.lookup(item)
		if !ok {
			if len(item) <= 2 {
				continue
			}
			name = item
		}
		if seen[name] {
			continue
		}
		seen[name] = true
		out = append(out, name)
		if len(out) == MaxTags {
			break
		}
	}
	return out
}

// Belt types.
const (
	BeltLeather = "leather_belt"
	BeltChain   = "chain_belt"
	BeltMetal   = "metal_belt"
	BeltRubber  = "rubber_belt"
	BeltFabric  = "fabric_belt"
	BeltCeramic = "ceramic_belt"
	BeltMesh    = "mesh_belt"
	BeltHybrid  = "hybrid_belt"
	BeltRope    = "rope_belt"
)

var beltRules = []term{
	{BeltLeather, []string{"leather", "genuine leather", "cowhide", "crocodile", "alligator", "calfskin"}},
	{BeltChain, []string{"chain", "chainmail", "chain links", "linked chain"}},
	{BeltMetal, []string{"metal", "steel", "stainless steel", "bracelet", "metal bracelet", "steel bracelet"}},
	{BeltRubber, []string{"rubber", "silicone", "sport band", "elastomer"}},
	{BeltFabric, []string{"fabric", "nato", "canvas", "nylon", "textile", "cloth"}},
	{BeltCeramic, []string{"ceramic", "high-tech ceramic"}},
	{BeltMesh, []string{"mesh", "milanese", "metal mesh"}},
	{BeltHybrid, []string{"hybrid", "combination", "mixed"}},
	{BeltRope, []string{"rope", "braided", "cord"}},
}

// BeltType maps a free-text strap description onto a belt type. Canonical
// values pass through. Unknown text is snake-cased; empty input yields "".
func BeltType(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" || s == "unknown" {
		return ""
	}
	for _, r := range beltRules {
		if s == r.name {
			return s
		}
	}
	for _, r := range beltRules {
		for _, v := range r.variants {
			if strings.Contains(s, v) {
				return r.name
			}
		}
	}
	return strings.ReplaceAll(s, " ", "_")
}
