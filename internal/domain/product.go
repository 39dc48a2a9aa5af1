package domain

import (
	"time"
)

// Product is one catalog item. The external sync process owns every field
// except the search artifacts (SearchableText, Embedding, IndexedAt), which
// only index maintenance writes.
type Product struct {
	ID          string   `json:"id" bson:"-"`
	Name        string   `json:"name" bson:"name"`
	Brand       string   `json:"brand,omitempty" bson:"brand,omitempty"`
	Category    string   `json:"category,omitempty" bson:"category,omitempty"`
	CategoryKey string   `json:"category_key" bson:"category_key"`
	Price       Price    `json:"price" bson:"price"`
	URL         string   `json:"url" bson:"url"`
	ImageURLs   []string `json:"image_urls" bson:"image_urls"`

	// Enrichment, written by the AI-vision collaborator.
	Colors       []string `json:"colors,omitempty" bson:"colors,omitempty"`
	Styles       []string `json:"styles,omitempty" bson:"styles,omitempty"`
	Materials    []string `json:"materials,omitempty" bson:"materials,omitempty"`
	BeltType     string   `json:"belt_type,omitempty" bson:"belt_type,omitempty"`
	AICategory   string   `json:"ai_category,omitempty" bson:"ai_category,omitempty"`
	GenderTarget string   `json:"ai_gender_target,omitempty" bson:"ai_gender_target,omitempty"`
	Description  string   `json:"description,omitempty" bson:"description,omitempty"`

	SearchableText string     `json:"searchable_text,omitempty" bson:"searchable_text,omitempty"`
	Embedding      []float64  `json:"-" bson:"text_embedding,omitempty"`
	IndexedAt      *time.Time `json:"indexed_at,omitempty" bson:"indexed_at,omitempty"`
}

// PrimaryImage returns the first image reference, or "" when there is none.
func (p *Product) PrimaryImage() string {
	if len(p.ImageURLs) == 0 {
		return ""
	}
	return p.ImageURLs[0]
}

// Indexed reports whether the product carries an embedding and is therefore
// visible to vector search.
func (p *Product) Indexed() bool {
	return len(p.Embedding) > 0
}

// Gender targets written by the enrichment step.
const (
	GenderMens   = "mens"
	GenderWomens = "womens"
	GenderUnisex = "unisex"
)
