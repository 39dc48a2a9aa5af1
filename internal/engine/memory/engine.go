package memory

import (
	"context"
	"math"
	"regexp"
	"slices"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/internal/engine"
	"github.com/AyushDoCode/WhatsappChatbot/internal/normalize"
	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
)

// Engine is an in-memory implementation of engine.Engine. Products keep
// their insertion order, which is the store order keyword search returns.
// Thread-safe via sync.RWMutex.
type Engine struct {
	mu       sync.RWMutex
	order    []string
	products map[string]*domain.Product
}

var _ engine.Engine = (*Engine)(nil)

// New creates a new in-memory engine.
func New() *Engine {
	return &Engine{
		products: make(map[string]*domain.Product),
	}
}

// Upsert inserts or replaces a product. A replaced product keeps its
// position. Products without an id get a generated one.
func (e *Engine) Upsert(_ context.Context, p *domain.Product) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.products[p.ID]; !ok {
		e.order = append(e.order, p.ID)
	}
	e.products[p.ID] = clone(p)
	return nil
}

// Get returns a copy of the product with the given id.
func (e *Engine) Get(_ context.Context, id string) (*domain.Product, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	p, ok := e.products[id]
	if !ok {
		return nil, apperrors.NotFound("product", id)
	}
	return clone(p), nil
}

// Delete removes a product by id.
func (e *Engine) Delete(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, ok := e.products[id]; !ok {
		return nil
	}
	delete(e.products, id)
	if i := slices.Index(e.order, id); i >= 0 {
		e.order = slices.Delete(e.order, i, i+1)
	}
	return nil
}

// Find returns the products matching c in insertion order.
func (e *Engine) Find(_ context.Context, c engine.Criteria) ([]domain.Product, error) {
	if c.IsUnscoped() {
		return []domain.Product{}, nil
	}
	m, err := newMatcher(c)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.Product, 0)
	skipped := 0
	for _, id := range e.order {
		p := e.products[id]
		if !m.matches(p) {
			continue
		}
		if skipped < c.Offset {
			skipped++
			continue
		}
		out = append(out, *clone(p))
		if c.Limit > 0 && len(out) == c.Limit {
			break
		}
	}
	return out, nil
}

// Count returns the number of products matching c.
func (e *Engine) Count(_ context.Context, c engine.Criteria) (int64, error) {
	if c.IsUnscoped() {
		return 0, nil
	}
	m, err := newMatcher(c)
	if err != nil {
		return 0, apperrors.InvalidInput(err.Error())
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	var n int64
	for _, id := range e.order {
		if m.matches(e.products[id]) {
			n++
		}
	}
	return n, nil
}

// VectorSearch scores every embedded product against q.Vector by cosine
// similarity, keeps the q.Candidates best, applies the filters and truncates
// to q.Limit. Ties keep insertion order. NumCandidates is ignored since the
// scan is exhaustive.
func (e *Engine) VectorSearch(_ context.Context, q engine.VectorQuery) ([]domain.SearchResult, error) {
	out := make([]domain.SearchResult, 0)
	if len(q.Vector) == 0 {
		return out, nil
	}

	e.mu.RLock()
	defer e.mu.RUnlock()

	type scored struct {
		p     *domain.Product
		score float64
	}
	hits := make([]scored, 0, len(e.order))
	for _, id := range e.order {
		p := e.products[id]
		if len(p.Embedding) != len(q.Vector) {
			continue
		}
		hits = append(hits, scored{p: p, score: similarity(q.Vector, p.Embedding)})
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].score > hits[j].score })

	candidates := q.Candidates
	if candidates <= 0 {
		candidates = q.Limit
	}
	if candidates > 0 && len(hits) > candidates {
		hits = hits[:candidates]
	}

	for _, h := range hits {
		if !matchesFilters(h.p, q.Filters) {
			continue
		}
		out = append(out, domain.NewSearchResult(clone(h.p), h.score))
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	return out, nil
}

// ListUnindexed returns up to limit products that have no embedding.
func (e *Engine) ListUnindexed(_ context.Context, limit int) ([]domain.Product, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make([]domain.Product, 0)
	for _, id := range e.order {
		p := e.products[id]
		if p.Indexed() {
			continue
		}
		out = append(out, *clone(p))
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// SetEmbedding stores the search artifacts of a product.
func (e *Engine) SetEmbedding(_ context.Context, id, text string, vector []float64, at time.Time) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	p, ok := e.products[id]
	if !ok {
		return apperrors.NotFound("product", id)
	}
	p.SearchableText = text
	p.Embedding = slices.Clone(vector)
	t := at.UTC()
	p.IndexedAt = &t
	return nil
}

// Stats reports how many products carry an embedding.
func (e *Engine) Stats(_ context.Context) (domain.IndexStats, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	var indexed int64
	for _, p := range e.products {
		if p.Indexed() {
			indexed++
		}
	}
	return domain.NewIndexStats(int64(len(e.products)), indexed), nil
}

// Len returns the number of stored products.
func (e *Engine) Len() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.order)
}

type matcher struct {
	terms    []*regexp.Regexp
	category string
	min, max *float64
}

func newMatcher(c engine.Criteria) (*matcher, error) {
	terms, err := normalize.CompileTerms(c.Terms)
	if err != nil {
		return nil, err
	}
	return &matcher{terms: terms, category: c.CategoryKey, min: c.MinPrice, max: c.MaxPrice}, nil
}

func (m *matcher) matches(p *domain.Product) bool {
	for _, re := range m.terms {
		if !re.MatchString(p.Name) {
			return false
		}
	}
	if m.category != "" && p.CategoryKey != m.category {
		return false
	}
	return p.Price.Within(m.min, m.max)
}

// matchesFilters applies hybrid post-filters: any shared color, brand
// substring, exact belt type, category and ai_category, and price bounds.
func matchesFilters(p *domain.Product, f domain.SearchFilters) bool {
	if len(f.Colors) > 0 && !slices.ContainsFunc(f.Colors, func(c string) bool { return slices.Contains(p.Colors, c) }) {
		return false
	}
	if f.Brand != "" && !strings.Contains(strings.ToLower(p.Brand), strings.ToLower(f.Brand)) {
		return false
	}
	if f.BeltType != "" && p.BeltType != f.BeltType {
		return false
	}
	if f.CategoryKey != "" && p.CategoryKey != f.CategoryKey {
		return false
	}
	if f.AICategory != "" && p.AICategory != f.AICategory {
		return false
	}
	return p.Price.Within(f.MinPrice, f.MaxPrice)
}

// similarity maps cosine similarity onto [0,1].
func similarity(a, b []float64) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	cos := dot / (math.Sqrt(na) * math.Sqrt(nb))
	return (1 + cos) / 2
}

func clone(p *domain.Product) *domain.Product {
	c := *p
	c.ImageURLs = slices.Clone(p.ImageURLs)
	c.Colors = slices.Clone(p.Colors)
	c.Styles = slices.Clone(p.Styles)
	c.Materials = slices.Clone(p.Materials)
	c.Embedding = slices.Clone(p.Embedding)
	if p.IndexedAt != nil {
		t := *p.IndexedAt
		c.IndexedAt = &t
	}
	return &c
}
