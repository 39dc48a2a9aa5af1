package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/internal/embedding"
	"github.com/AyushDoCode/WhatsappChatbot/internal/engine"
	"github.com/AyushDoCode/WhatsappChatbot/internal/normalize"
	"github.com/AyushDoCode/WhatsappChatbot/internal/session"
	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
)

// Defaults applied when a Config field is unset.
const (
	DefaultTimeout               = 20 * time.Second
	DefaultPoolSize              = 50
	DefaultVectorCandidates      = 100
	DefaultHybridCandidateFactor = 3
	DefaultVectorLimit           = 5
	DefaultMaxResults            = 10

	// minCandidateFactor is the smallest hybrid over-fetch that keeps
	// post-filtering from starving the result set.
	minCandidateFactor = 3
	maxNumCandidates   = 10000
)

// Config tunes the search paths.
type Config struct {
	// Timeout bounds every operation's store and embedding calls.
	Timeout time.Duration
	// PoolSize is the size of the result set a conversation pages through.
	PoolSize int
	// VectorCandidates is the minimum nearest-neighbour pool searched.
	VectorCandidates int
	// HybridCandidateFactor multiplies the limit of a filtered vector search.
	HybridCandidateFactor int
	// StaleAfter ages out pagination sessions. 0 never ages them.
	StaleAfter time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.PoolSize <= 0 {
		c.PoolSize = DefaultPoolSize
	}
	if c.VectorCandidates <= 0 {
		c.VectorCandidates = DefaultVectorCandidates
	}
	if c.HybridCandidateFactor < minCandidateFactor {
		c.HybridCandidateFactor = DefaultHybridCandidateFactor
	}
	return c
}

// SearchService implements keyword, range, vector and hybrid search and the
// pagination session bookkeeping.
type SearchService struct {
	catalog  engine.Catalog
	index    engine.VectorIndex
	embedder embedding.Embedder
	sessions session.Store
	cfg      Config
	logger   *slog.Logger
	now      func() time.Time
}

// NewSearchService creates a new search service.
func NewSearchService(
	catalog engine.Catalog,
	index engine.VectorIndex,
	embedder embedding.Embedder,
	sessions session.Store,
	cfg Config,
	logger *slog.Logger,
) *SearchService {
	return &SearchService{
		catalog:  catalog,
		index:    index,
		embedder: embedder,
		sessions: sessions,
		cfg:      cfg.withDefaults(),
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// PoolSize returns the size of a pageable result set.
func (s *SearchService) PoolSize() int {
	return s.cfg.PoolSize
}

// Search finds products whose name matches every normalized term of the
// query, optionally scoped by category and price. A query that yields no
// terms and names no category returns an empty result without touching the
// store.
func (s *SearchService) Search(ctx context.Context, q domain.KeywordQuery) (*domain.Results, error) {
	const kind = string(domain.KindKeyword)

	query := strings.TrimSpace(q.Query)
	category := strings.TrimSpace(q.CategoryKey)
	if category == "" && utf8.RuneCountInString(query) < 2 {
		return nil, s.reject(kind, apperrors.InvalidInput("query must contain at least 2 characters"))
	}
	if err := validateCategory(category); err != nil {
		return nil, s.reject(kind, err)
	}
	if err := validatePrices(q.MinPrice, q.MaxPrice); err != nil {
		return nil, s.reject(kind, err)
	}

	c := engine.Criteria{
		Terms:       normalize.Tokenize(query),
		CategoryKey: category,
		MinPrice:    q.MinPrice,
		MaxPrice:    q.MaxPrice,
	}
	res, err := s.find(ctx, kind, c, q.Offset, q.MaxResults)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "keyword search executed",
		slog.String("query", query),
		slog.Any("terms", c.Terms),
		slog.String("category_key", category),
		slog.Int("returned", len(res.Items)),
		slog.Int("total", res.Total),
	)
	return res, nil
}

// SearchRange returns products of a category whose price lies within the
// inclusive bounds. The category is required and never defaulted.
func (s *SearchService) SearchRange(ctx context.Context, q domain.RangeQuery) (*domain.Results, error) {
	const kind = string(domain.KindRange)

	category := strings.TrimSpace(q.CategoryKey)
	if utf8.RuneCountInString(category) < 2 {
		return nil, s.reject(kind, apperrors.CategoryRequired())
	}
	if err := validateCategory(category); err != nil {
		return nil, s.reject(kind, err)
	}
	if err := validatePrices(&q.MinPrice, &q.MaxPrice); err != nil {
		return nil, s.reject(kind, err)
	}

	c := engine.Criteria{
		CategoryKey: category,
		MinPrice:    domain.Float64(q.MinPrice),
		MaxPrice:    domain.Float64(q.MaxPrice),
	}
	res, err := s.find(ctx, kind, c, q.Offset, q.MaxResults)
	if err != nil {
		return nil, err
	}

	s.logger.DebugContext(ctx, "range search executed",
		slog.String("category_key", category),
		slog.Float64("min_price", q.MinPrice),
		slog.Float64("max_price", q.MaxPrice),
		slog.Int("returned", len(res.Items)),
		slog.Int("total", res.Total),
	)
	return res, nil
}

// find runs c against the catalog. The result set is the first PoolSize
// matches; offset and limit select a page within it, and an offset past
// the pool is rejected.
func (s *SearchService) find(ctx context.Context, kind string, c engine.Criteria, offset, limit int) (*domain.Results, error) {
	if offset < 0 {
		return nil, s.reject(kind, apperrors.InvalidInput("offset must not be negative"))
	}
	if offset >= s.cfg.PoolSize {
		return nil, s.reject(kind, apperrors.InvalidInput(fmt.Sprintf("offset must be below %d", s.cfg.PoolSize)))
	}
	if limit <= 0 {
		limit = DefaultMaxResults
	}
	limit = min(limit, s.cfg.PoolSize-offset)

	res := &domain.Results{Items: make([]domain.SearchResult, 0)}
	if c.IsUnscoped() {
		searchTotal.WithLabelValues(kind, outcomeNoMatch).Inc()
		return res, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	c.Offset, c.Limit = offset, limit
	products, err := s.catalog.Find(ctx, c)
	if err != nil {
		return nil, s.storeError(ctx, kind, err)
	}
	total, err := s.catalog.Count(ctx, c)
	if err != nil {
		return nil, s.storeError(ctx, kind, err)
	}

	for i := range products {
		res.Items = append(res.Items, domain.NewSearchResult(&products[i], 0))
	}
	res.Total = int(min(total, int64(s.cfg.PoolSize)))

	if res.Total == 0 {
		searchTotal.WithLabelValues(kind, outcomeNoMatch).Inc()
	} else {
		searchTotal.WithLabelValues(kind, outcomeFound).Inc()
	}
	return res, nil
}

// VectorSearch returns the limit products nearest to the query by cosine
// similarity. An unavailable embedding service or store degrades to an
// empty result; only a blank query is an error.
func (s *SearchService) VectorSearch(ctx context.Context, query string, limit int) ([]domain.SearchResult, error) {
	return degrade(s.vectorSearch(ctx, string(domain.KindVector), query, domain.SearchFilters{}, limit))
}

// HybridSearch is VectorSearch post-filtered by f. It retrieves
// HybridCandidateFactor times limit candidates, applies the filters and
// truncates to limit, keeping score order.
func (s *SearchService) HybridSearch(ctx context.Context, query string, f domain.SearchFilters, limit int) ([]domain.SearchResult, error) {
	return degrade(s.hybridSearch(ctx, query, f, limit))
}

func (s *SearchService) hybridSearch(ctx context.Context, query string, f domain.SearchFilters, limit int) ([]domain.SearchResult, error) {
	f, err := NormalizeFilters(f)
	if err != nil {
		return nil, s.reject(string(domain.KindHybrid), err)
	}
	return s.vectorSearch(ctx, string(domain.KindHybrid), query, f, limit)
}

// degrade turns an unavailable embedder or index into an empty result.
func degrade(results []domain.SearchResult, err error) ([]domain.SearchResult, error) {
	if errors.Is(err, apperrors.ErrServiceUnavail) {
		return make([]domain.SearchResult, 0), nil
	}
	return results, err
}

// vectorSearch reports an unavailable embedder or index as
// apperrors.Unavailable so callers that keep state can tell an outage from
// an empty ranking.
func (s *SearchService) vectorSearch(ctx context.Context, kind, query string, f domain.SearchFilters, limit int) ([]domain.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, s.reject(kind, apperrors.InvalidInput("query is required"))
	}
	if limit <= 0 {
		limit = DefaultVectorLimit
	}
	limit = min(limit, s.cfg.PoolSize)

	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		searchTotal.WithLabelValues(kind, outcomeDegraded).Inc()
		s.logger.WarnContext(ctx, "query embedding unavailable",
			slog.String("kind", kind),
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unavailable("embedding service", err)
	}

	candidates := limit
	if !f.IsEmpty() {
		candidates = limit * s.cfg.HybridCandidateFactor
	}
	results, err := s.index.VectorSearch(ctx, engine.VectorQuery{
		Vector:        vec,
		NumCandidates: s.numCandidates(candidates),
		Candidates:    candidates,
		Filters:       f,
		Limit:         limit,
	})
	if err != nil {
		searchTotal.WithLabelValues(kind, outcomeDegraded).Inc()
		s.logger.ErrorContext(ctx, "vector search failed",
			slog.String("kind", kind),
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return nil, apperrors.Unavailable("vector index", err)
	}

	if len(results) == 0 {
		searchTotal.WithLabelValues(kind, outcomeNoMatch).Inc()
	} else {
		searchTotal.WithLabelValues(kind, outcomeFound).Inc()
	}
	s.logger.DebugContext(ctx, "vector search executed",
		slog.String("kind", kind),
		slog.String("query", query),
		slog.Int("candidates", candidates),
		slog.Int("returned", len(results)),
	)
	return results, nil
}

// numCandidates sizes the approximate nearest-neighbour pool for k results.
func (s *SearchService) numCandidates(k int) int {
	return min(max(s.cfg.VectorCandidates, 10*k), maxNumCandidates)
}

// SavePagination overwrites the conversation's session.
func (s *SearchService) SavePagination(ctx context.Context, sess domain.PaginationSession) error {
	sess.ConversationID = strings.TrimSpace(sess.ConversationID)
	if err := sess.Validate(); err != nil {
		return apperrors.InvalidInput(err.Error())
	}
	sess.UpdatedAt = s.now()

	if err := s.sessions.Save(ctx, &sess); err != nil {
		return apperrors.Unavailable("session store", err)
	}
	return nil
}

// GetPagination returns the conversation's session. A missing or stale
// session yields apperrors.ErrNotFound.
func (s *SearchService) GetPagination(ctx context.Context, conversationID string) (*domain.PaginationSession, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, apperrors.InvalidInput("conversation id is required")
	}

	sess, err := s.sessions.Get(ctx, conversationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, err
		}
		return nil, apperrors.Unavailable("session store", err)
	}
	if sess.IsStale(s.now(), s.cfg.StaleAfter) {
		if err := s.sessions.Delete(ctx, conversationID); err != nil {
			s.logger.WarnContext(ctx, "failed to delete stale session",
				slog.String("conversation_id", conversationID),
				slog.String("error", err.Error()),
			)
		}
		return nil, apperrors.NotFound("search session", conversationID)
	}
	return sess, nil
}

// NormalizeFilters maps user-facing filter values onto stored tokens and
// rejects malformed bounds.
func NormalizeFilters(f domain.SearchFilters) (domain.SearchFilters, error) {
	if err := validatePrices(f.MinPrice, f.MaxPrice); err != nil {
		return f, err
	}
	f.CategoryKey = strings.TrimSpace(f.CategoryKey)
	if err := validateCategory(f.CategoryKey); err != nil {
		return f, err
	}
	if len(f.Colors) > 0 {
		f.Colors = normalize.Colors.Standardize(f.Colors)
	}
	if b := strings.TrimSpace(f.Brand); b != "" {
		f.Brand = normalize.Brand(strings.ToLower(b))
	}
	f.BeltType = normalize.BeltType(f.BeltType)
	f.AICategory = strings.ToLower(strings.TrimSpace(f.AICategory))
	return f, nil
}

func validateCategory(key string) error {
	if key != "" && !normalize.IsCategory(key) {
		return apperrors.InvalidInput(fmt.Sprintf("unknown category %q", key))
	}
	return nil
}

func validatePrices(minPrice, maxPrice *float64) error {
	if minPrice != nil && *minPrice < 0 {
		return apperrors.InvalidInput("min_price must not be negative")
	}
	if maxPrice != nil && *maxPrice < 0 {
		return apperrors.InvalidInput("max_price must not be negative")
	}
	if minPrice != nil && maxPrice != nil && *minPrice > *maxPrice {
		return apperrors.InvalidInput("min_price must not exceed max_price")
	}
	return nil
}

func (s *SearchService) reject(kind string, err error) error {
	searchTotal.WithLabelValues(kind, outcomeRejected).Inc()
	return err
}

// storeError keeps client errors and turns everything else into a retryable
// unavailability so driver details never reach the caller.
func (s *SearchService) storeError(ctx context.Context, kind string, err error) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Status < 500 {
		return s.reject(kind, err)
	}
	searchTotal.WithLabelValues(kind, outcomeError).Inc()
	s.logger.ErrorContext(ctx, "catalog query failed",
		slog.String("kind", kind),
		slog.String("error", err.Error()),
	)
	return apperrors.Unavailable("catalog", err)
}
