package embedding

import (
	"strings"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
)

// SearchableText builds the lower-cased blob a product is embedded from.
// Price is left out so price refreshes never invalidate an embedding.
func SearchableText(p *domain.Product) string {
	parts := []string{
		p.Name,
		p.Brand,
		p.Category,
		p.Description,
		strings.Join(p.Colors, " "),
		strings.Join(p.Styles, " "),
		strings.Join(p.Materials, " "),
		strings.ReplaceAll(p.BeltType, "_", " "),
		strings.ReplaceAll(p.AICategory, "_", " "),
		p.GenderTarget,
	}

	kept := parts[:0]
	for _, s := range parts {
		if s = strings.TrimSpace(s); s != "" {
			kept = append(kept, s)
		}
	}
	return strings.ToLower(strings.Join(kept, " "))
}
