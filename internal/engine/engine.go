package engine

import (
	"context"
	"time"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
)

// Criteria is a keyword or range lookup. Every set condition is ANDed:
// each term must match the product name, CategoryKey must match exactly and
// the price must lie within the inclusive bounds.
type Criteria struct {
	Terms       []string
	CategoryKey string
	MinPrice    *float64
	MaxPrice    *float64
	Offset      int
	Limit       int
}

// IsUnscoped reports whether the criteria have neither terms nor a category.
// Such a lookup must not run; it would match the whole catalog.
func (c Criteria) IsUnscoped() bool {
	return len(c.Terms) == 0 && c.CategoryKey == ""
}

// VectorQuery is a nearest-neighbour lookup. Candidates nearest products are
// retrieved from a pool of NumCandidates, then Filters are applied and the
// result is truncated to Limit. Order is by descending score.
type VectorQuery struct {
	Vector        []float64
	NumCandidates int
	Candidates    int
	Filters       domain.SearchFilters
	Limit         int
}

// Catalog is the product store used by keyword and range search and by
// catalog ingestion.
type Catalog interface {
	// Find returns products matching c in store order, honouring Offset and Limit.
	Find(ctx context.Context, c Criteria) ([]domain.Product, error)

	// Count returns the number of products matching c, ignoring Offset and Limit.
	Count(ctx context.Context, c Criteria) (int64, error)

	// Get returns a product by id or apperrors.ErrNotFound.
	Get(ctx context.Context, id string) (*domain.Product, error)

	// Upsert inserts or replaces a product by id.
	Upsert(ctx context.Context, p *domain.Product) error

	// Delete removes a product by id. Deleting a missing product is not an error.
	Delete(ctx context.Context, id string) error
}

// VectorIndex is nearest-neighbour retrieval over product embeddings plus the
// maintenance operations of the batch indexer.
type VectorIndex interface {
	// VectorSearch returns scored products for q. Products without an
	// embedding are never returned.
	VectorSearch(ctx context.Context, q VectorQuery) ([]domain.SearchResult, error)

	// ListUnindexed returns up to limit products that have no embedding.
	ListUnindexed(ctx context.Context, limit int) ([]domain.Product, error)

	// SetEmbedding stores the searchable text and embedding of a product.
	SetEmbedding(ctx context.Context, id, text string, vector []float64, at time.Time) error

	// Stats reports embedding coverage.
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// Engine is a store that supports both lookup styles.
type Engine interface {
	Catalog
	VectorIndex
}
