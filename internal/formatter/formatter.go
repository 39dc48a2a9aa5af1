// Package formatter turns ranked search results into the bounded list of
// image-and-caption items a chat turn delivers.
package formatter

import (
	"fmt"
	"strings"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
)

// Result caps.
const (
	ChatCap   = 3
	BrowseCap = 10
)

// Item is one deliverable product: exactly one image plus its caption.
type Item struct {
	ProductID   string `json:"product_id"`
	ImageURL    string `json:"image_url"`
	Caption     string `json:"caption"`
	ProductName string `json:"product_name"`
	Brand       string `json:"brand,omitempty"`
	Price       string `json:"price"`
	URL         string `json:"url"`
}

// Response is the formatted page. NoResults is set only when the search
// itself matched nothing; a page whose products all lack images has
// NoResults false and an empty Items list.
type Response struct {
	Items     []Item `json:"items"`
	NoResults bool   `json:"no_results"`
	Skipped   int    `json:"skipped"`
}

// Delivered returns how many items the page carries.
func (r Response) Delivered() int {
	return len(r.Items)
}

// Format keeps input order, drops products without images and stops after
// limit items. A non-positive limit uses ChatCap.
func Format(results []domain.SearchResult, limit int) Response {
	if limit <= 0 {
		limit = ChatCap
	}
	resp := Response{Items: make([]Item, 0, min(limit, len(results)))}
	if len(results) == 0 {
		resp.NoResults = true
		return resp
	}

	for i := range results {
		if len(resp.Items) == limit {
			break
		}
		r := &results[i]
		if len(r.ImageURLs) == 0 || strings.TrimSpace(r.ImageURLs[0]) == "" {
			resp.Skipped++
			continue
		}
		resp.Items = append(resp.Items, Item{
			ProductID:   r.ID,
			ImageURL:    r.ImageURLs[0],
			Caption:     Caption(r),
			ProductName: r.Name,
			Brand:       r.Brand,
			Price:       r.Price.String(),
			URL:         r.URL,
		})
	}
	return resp
}

// Caption renders the text sent with a product image.
func Caption(r *domain.SearchResult) string {
	var b strings.Builder
	if r.Brand != "" {
		fmt.Fprintf(&b, "*%s - %s*\n", r.Brand, r.Name)
	} else {
		fmt.Fprintf(&b, "*%s*\n", r.Name)
	}
	fmt.Fprintf(&b, "Price: ₹%s", r.Price.String())
	if r.URL != "" {
		fmt.Fprintf(&b, "\nShop: %s", r.URL)
	}
	if n := len(r.ImageURLs); n > 1 {
		fmt.Fprintf(&b, "\n%d images available", n)
	}
	return b.String()
}
