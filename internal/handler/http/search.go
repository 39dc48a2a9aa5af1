package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/internal/service"
	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/httputil"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/validator"
)

const maxBodyBytes = 1 << 20

// StatsSource reports embedding coverage of the catalog.
type StatsSource interface {
	Stats(ctx context.Context) (domain.IndexStats, error)
}

// SearchHandler handles HTTP requests for the stateless search endpoints.
type SearchHandler struct {
	service *service.SearchService
	stats   StatsSource
	logger  *slog.Logger
}

// NewSearchHandler creates a new search HTTP handler.
func NewSearchHandler(svc *service.SearchService, stats StatsSource, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		service: svc,
		stats:   stats,
		logger:  logger,
	}
}

// --- Request DTOs ---

// KeywordSearchRequest is the JSON request body for a keyword search.
type KeywordSearchRequest struct {
	Query       string   `json:"query" validate:"max=200"`
	MaxResults  int      `json:"max_results" validate:"omitempty,min=1,max=50"`
	Offset      int      `json:"offset" validate:"min=0"`
	CategoryKey string   `json:"category_key" validate:"omitempty,catkey"`
	MinPrice    *float64 `json:"min_price" validate:"omitempty,gte=0"`
	MaxPrice    *float64 `json:"max_price" validate:"omitempty,gte=0"`
}

// RangeSearchRequest is the JSON request body for a price range search.
// The category is checked by the service so a missing one reports
// CATEGORY_REQUIRED.
type RangeSearchRequest struct {
	CategoryKey string   `json:"category_key"`
	MinPrice    *float64 `json:"min_price" validate:"required,gte=0"`
	MaxPrice    *float64 `json:"max_price" validate:"required,gte=0"`
	MaxResults  int      `json:"max_results" validate:"omitempty,min=1,max=50"`
	Offset      int      `json:"offset" validate:"min=0"`
}

// VectorSearchRequest is the JSON request body for vector and hybrid search.
type VectorSearchRequest struct {
	Query   string               `json:"query" validate:"required,max=500"`
	Limit   int                  `json:"limit" validate:"omitempty,min=1,max=50"`
	Filters domain.SearchFilters `json:"filters"`
}

// SearchResponse is one page of keyword or range results.
type SearchResponse struct {
	Items      []domain.SearchResult `json:"items"`
	TotalFound int                   `json:"total_found"`
	Offset     int                   `json:"offset"`
	HasMore    bool                  `json:"has_more"`
}

func newSearchResponse(res *domain.Results, offset int) SearchResponse {
	return SearchResponse{
		Items:      res.Items,
		TotalFound: res.Total,
		Offset:     offset,
		HasMore:    offset+len(res.Items) < res.Total,
	}
}

// --- Handlers ---

// Search handles POST /api/v1/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req KeywordSearchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.Search(r.Context(), domain.KeywordQuery{
		Query:       req.Query,
		MaxResults:  req.MaxResults,
		Offset:      req.Offset,
		CategoryKey: req.CategoryKey,
		MinPrice:    req.MinPrice,
		MaxPrice:    req.MaxPrice,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if res.Total == 0 {
		httputil.WriteError(w, r, apperrors.NoMatch(req.Query), h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, newSearchResponse(res, req.Offset))
}

// SearchRange handles POST /api/v1/search/range
func (h *SearchHandler) SearchRange(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req RangeSearchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	res, err := h.service.SearchRange(r.Context(), domain.RangeQuery{
		CategoryKey: req.CategoryKey,
		MinPrice:    *req.MinPrice,
		MaxPrice:    *req.MaxPrice,
		MaxResults:  req.MaxResults,
		Offset:      req.Offset,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if res.Total == 0 {
		httputil.WriteError(w, r, apperrors.NoMatch(req.CategoryKey), h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, newSearchResponse(res, req.Offset))
}

// VectorSearch handles POST /api/v1/search/vector
func (h *SearchHandler) VectorSearch(w http.ResponseWriter, r *http.Request) {
	h.vector(w, r, func(ctx context.Context, req VectorSearchRequest) ([]domain.SearchResult, error) {
		return h.service.VectorSearch(ctx, req.Query, req.Limit)
	})
}

// HybridSearch handles POST /api/v1/search/hybrid
func (h *SearchHandler) HybridSearch(w http.ResponseWriter, r *http.Request) {
	h.vector(w, r, func(ctx context.Context, req VectorSearchRequest) ([]domain.SearchResult, error) {
		return h.service.HybridSearch(ctx, req.Query, req.Filters, req.Limit)
	})
}

func (h *SearchHandler) vector(
	w http.ResponseWriter,
	r *http.Request,
	run func(context.Context, VectorSearchRequest) ([]domain.SearchResult, error),
) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req VectorSearchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	results, err := run(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	if len(results) == 0 {
		httputil.WriteError(w, r, apperrors.NoMatch(req.Query), h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]any{
		"items": results,
		"count": len(results),
	})
}

// IndexStats handles GET /api/v1/index/stats
func (h *SearchHandler) IndexStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.stats.Stats(r.Context())
	if err != nil {
		httputil.WriteError(w, r, apperrors.Unavailable("vector index", err), h.logger)
		return
	}
	httputil.WriteData(w, http.StatusOK, stats)
}
