// Package normalize holds the canonical mapping tables shared by search and
// ingestion: the brand table, generic product nouns, the category_key closed
// set, and the color, style, material and belt vocabularies.
package normalize

import "strings"

// TableVersion identifies the revision of the mapping tables. Bump it when an
// entry changes so stored data can be re-standardized.
const TableVersion = 3

type brandEntry struct {
	alias string
	name  string
}

// brands maps user-facing brand words onto the obfuscated names the
// storefront stores. Order is significant: substring lookup returns the first
// entry that matches.
var brands = []brandEntry{
	{"fossil", "fossi_l"},
	{"tissot", "tisso_t"},
	{"armani", "arman_i"},
	{"tommy", "tomm_y"},
	{"tommy hilfiger", "tomm_y"},
	{"rolex", "role_x"},
	{"rado", "rad_o"},
	{"omega", "omeg_a"},
	{"patek", "Patek_Philippe"},
	{"patek philippe", "Patek_Philippe"},
	{"patek phillips", "Patek_Philippe"},
	{"hublot", "hublo_t"},
	{"cartier", "cartie_r"},
	{"ap", "Audemars"},
	{"audemars", "Audemars"},
	{"tag", "tag"},
	{"tag heuer", "tag"},
	{"tag huer", "tag"},
	{"mk", "mic"},
	{"michael kors", "mic"},
	{"alix", "alix"},
	{"naviforce", "naviforce"},
	{"reward", "reward"},
	{"ax", "ax"},
	{"armani exchange", "arman_i"},
}

var brandIndex = func() map[string]string {
	m := make(map[string]string, len(brands))
	for _, b := range brands {
		m[b.alias] = b.name
	}
	return m
}()

// Brand maps a brand word to its stored form. An exact alias match wins;
// otherwise the first alias contained in the token, or containing it, is
// used. Unknown tokens are returned trimmed but otherwise unchanged.
func Brand(token string) string {
	trimmed := strings.TrimSpace(token)
	key := strings.ToLower(trimmed)
	if key == "" {
		return trimmed
	}
	if name, ok := brandIndex[key]; ok {
		return name
	}
	for _, b := range brands {
		if strings.Contains(key, b.alias) || strings.Contains(b.alias, key) {
			return b.name
		}
	}
	return trimmed
}

// Brands returns the stored brand names in table order, without duplicates.
func Brands() []string {
	seen := make(map[string]bool, len(brands))
	out := make([]string, 0, len(brands))
	for _, b := range brands {
		if !seen[b.name] {
			seen[b.name] = true
			out = append(out, b.name)
		}
	}
	return out
}

var genericTypes = map[string]bool{
	"watch": true, "watches": true,
	"shoe": true, "shoes": true,
	"bag": true, "bags": true,
	"sunglass": true, "sunglasses": true,
}

// IsGenericType reports whether token is a bare product-type noun that
// rarely appears in product names.
func IsGenericType(token string) bool {
	return genericTypes[strings.ToLower(strings.TrimSpace(token))]
}
