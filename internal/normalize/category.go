package normalize

import "strings"

// Canonical category keys. Filtered search matches them exactly.
const (
	CategoryMensWatch         = "mens_watch"
	CategoryWomensWatch       = "womens_watch"
	CategoryMensSunglasses    = "mens_sunglasses"
	CategoryWomensSunglasses  = "womens_sunglasses"
	CategoryPremiumSunglasses = "premium_sunglasses"
	CategoryWallet            = "wallet"
	CategoryHandbag           = "handbag"
	CategoryMensShoes         = "mens_shoes"
	CategoryWomensShoes       = "womens_shoes"
	CategoryPremiumShoes      = "premium_shoes"
	CategoryLoafers           = "loafers"
	CategoryFlipFlops         = "flipflops"
	CategoryBracelet          = "bracelet"
)

var categories = []string{
	CategoryMensWatch,
	CategoryWomensWatch,
	CategoryMensSunglasses,
	CategoryWomensSunglasses,
	CategoryPremiumSunglasses,
	CategoryWallet,
	CategoryHandbag,
	CategoryMensShoes,
	CategoryWomensShoes,
	CategoryPremiumShoes,
	CategoryLoafers,
	CategoryFlipFlops,
	CategoryBracelet,
}

// Categories returns the closed set of category keys.
func Categories() []string {
	out := make([]string, len(categories))
	copy(out, categories)
	return out
}

// IsCategory reports whether key is a canonical category key.
func IsCategory(key string) bool {
	for _, c := range categories {
		if c == key {
			return true
		}
	}
	return false
}

type categoryRule struct {
	key     string
	phrases []string
}

// categoryRules is scanned in order; the first phrase found in the query wins.
var categoryRules = []categoryRule{
	{CategoryMensWatch, []string{"men watch", "mens watch", "gent watch", "boy watch"}},
	{CategoryWomensWatch, []string{"ladies watch", "womens watch", "women watch", "girl watch", "lady watch"}},
	{CategoryMensSunglasses, []string{"men sunglass", "mens sunglass", "men glass"}},
	{CategoryWomensSunglasses, []string{"ladies sunglass", "womens sunglass", "women sunglass"}},
	{CategoryWallet, []string{"wallet", "purse"}},
	{CategoryHandbag, []string{"bag", "handbag", "hand bag"}},
	{CategoryMensShoes, []string{"men shoe", "mens shoe", "gent shoe"}},
	{CategoryWomensShoes, []string{"ladies shoe", "womens shoe", "women shoe"}},
	{CategoryLoafers, []string{"loafer", "formal shoe"}},
	{CategoryFlipFlops, []string{"flipflop", "flip flop", "slipper"}},
	{CategoryBracelet, []string{"bracelet", "jewellery", "jewelry"}},
}

// DetectCategory infers a category key from free text. A watch query without
// a gender is not resolved: the caller has to ask which one.
func DetectCategory(query string) (string, bool) {
	q := strings.ToLower(query)
	for _, r := range categoryRules {
		for _, p := range r.phrases {
			if containsWordPrefix(q, p) {
				return r.key, true
			}
		}
	}
	return "", false
}

// containsWordPrefix reports whether phrase occurs in s starting at a word
// boundary, so "men watch" does not match inside "women watch".
func containsWordPrefix(s, phrase string) bool {
	for i := 0; i+len(phrase) <= len(s); {
		j := strings.Index(s[i:], phrase)
		if j < 0 {
			return false
		}
		at := i + j
		if at == 0 || !isLetter(s[at-1]) {
			return true
		}
		i = at + 1
	}
	return false
}

func isLetter(b byte) bool {
	return b >= 'a' && b <= 'z'
}
