package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/internal/enhancer"
	"github.com/AyushDoCode/WhatsappChatbot/internal/formatter"
	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/pagination"
)

// Outcome tells the chat layer which reply to compose.
type Outcome string

// Page outcomes. Each one maps to a distinct user-visible message.
const (
	OutcomeFound          Outcome = "found"
	OutcomeNoMatch        Outcome = "no_match"
	OutcomeExhausted      Outcome = "exhausted"
	OutcomeNoActiveSearch Outcome = "no_active_search"
)

// Request starts a new search for a conversation.
type Request struct {
	Kind      domain.OperationKind `json:"kind"`
	Query     string               `json:"query"`
	Filters   domain.SearchFilters `json:"filters"`
	BatchSize int                  `json:"batch_size"`
}

// Page is one chat turn's worth of results plus the bookkeeping after it.
type Page struct {
	Outcome    Outcome              `json:"outcome"`
	Kind       domain.OperationKind `json:"kind,omitempty"`
	Query      string               `json:"query,omitempty"`
	Items      []formatter.Item     `json:"items"`
	Skipped    int                  `json:"skipped,omitempty"`
	TotalFound int                  `json:"total_found"`
	SentCount  int                  `json:"sent_count"`
	Remaining  int                  `json:"remaining"`
}

// Assistant runs searches on behalf of a conversation and pages through
// their results across turns.
type Assistant struct {
	search   *SearchService
	rewriter enhancer.Rewriter
	logger   *slog.Logger
}

// NewAssistant creates an assistant. A nil rewriter leaves queries as typed.
func NewAssistant(search *SearchService, rewriter enhancer.Rewriter, logger *slog.Logger) *Assistant {
	if rewriter == nil {
		rewriter = enhancer.Passthrough{}
	}
	return &Assistant{
		search:   search,
		rewriter: rewriter,
		logger:   logger,
	}
}

// Search runs a new search, shows its first batch and replaces the
// conversation's session. A search that matches nothing clears the session.
func (a *Assistant) Search(ctx context.Context, conversationID string, req Request) (*Page, error) {
	conversationID = strings.TrimSpace(conversationID)
	if conversationID == "" {
		return nil, apperrors.InvalidInput("conversation id is required")
	}
	if req.Kind == "" {
		req.Kind = domain.KindKeyword
	}
	if !req.Kind.Valid() {
		return nil, apperrors.InvalidInput("unknown search kind " + string(req.Kind))
	}

	query := strings.TrimSpace(req.Query)
	if req.Kind != domain.KindRange && query != "" {
		query = a.rewriter.Rewrite(ctx, query)
	}
	filters, err := scopeFilters(req.Kind, req.Filters)
	if err != nil {
		return nil, err
	}

	batch := clampBatch(req.BatchSize)
	items, total, err := a.fetch(ctx, req.Kind, query, filters, pagination.Window{Offset: 0, Limit: batch})
	if err != nil {
		return nil, err
	}

	if total == 0 {
		if err := a.search.sessions.Delete(ctx, conversationID); err != nil {
			a.logger.WarnContext(ctx, "failed to clear session",
				slog.String("conversation_id", conversationID),
				slog.String("error", err.Error()),
			)
		}
		return &Page{Outcome: OutcomeNoMatch, Kind: req.Kind, Query: query, Items: []formatter.Item{}}, nil
	}

	window := pagination.Next(0, batch, total)
	resp := formatter.Format(items, window.Limit)
	sent := advance(0, resp.Delivered(), window, total)

	a.save(ctx, domain.PaginationSession{
		ConversationID: conversationID,
		Kind:           req.Kind,
		Keyword:        query,
		Filters:        filters,
		TotalFound:     total,
		SentCount:      sent,
	})

	return &Page{
		Outcome:    OutcomeFound,
		Kind:       req.Kind,
		Query:      query,
		Items:      resp.Items,
		Skipped:    resp.Skipped,
		TotalFound: total,
		SentCount:  sent,
		Remaining:  pagination.Remaining(sent, total),
	}, nil
}

// ShowMore shows the next batch of the conversation's session. It never
// re-queries an exhausted session.
func (a *Assistant) ShowMore(ctx context.Context, conversationID string, batchSize int) (*Page, error) {
	sess, err := a.search.GetPagination(ctx, conversationID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			showMoreTotal.WithLabelValues(string(OutcomeNoActiveSearch)).Inc()
			return &Page{Outcome: OutcomeNoActiveSearch, Items: []formatter.Item{}}, nil
		}
		return nil, err
	}
	kind := sess.Kind
	if kind == "" {
		kind = domain.KindKeyword
	}

	if sess.Exhausted() {
		showMoreTotal.WithLabelValues(string(OutcomeExhausted)).Inc()
		return exhaustedPage(sess, kind), nil
	}

	window := pagination.Next(sess.SentCount, clampBatch(batchSize), sess.TotalFound)
	items, _, err := a.fetch(ctx, kind, sess.Keyword, sess.Filters, window)
	if err != nil {
		// The session is left as is so the same page can be retried.
		return nil, err
	}

	// The catalog shrank since the search ran.
	if len(items) == 0 {
		sess.SentCount = sess.TotalFound
		a.save(ctx, *sess)
		showMoreTotal.WithLabelValues(string(OutcomeExhausted)).Inc()
		return exhaustedPage(sess, kind), nil
	}

	resp := formatter.Format(items, window.Limit)
	sess.SentCount = advance(sess.SentCount, resp.Delivered(), window, sess.TotalFound)
	a.save(ctx, *sess)

	showMoreTotal.WithLabelValues(string(OutcomeFound)).Inc()
	a.logger.DebugContext(ctx, "show more served",
		slog.String("conversation_id", sess.ConversationID),
		slog.Int("offset", window.Offset),
		slog.Int("delivered", resp.Delivered()),
		slog.Int("sent_count", sess.SentCount),
		slog.Int("total_found", sess.TotalFound),
	)

	return &Page{
		Outcome:    OutcomeFound,
		Kind:       kind,
		Query:      sess.Keyword,
		Items:      resp.Items,
		Skipped:    resp.Skipped,
		TotalFound: sess.TotalFound,
		SentCount:  sess.SentCount,
		Remaining:  sess.Remaining(),
	}, nil
}

// fetch returns the results inside w and the size of the whole result set.
// Vector paths rank the full pool and slice it, so every page comes from the
// same ordering. An unavailable embedder or index is returned as an error
// rather than an empty page.
func (a *Assistant) fetch(ctx context.Context, kind domain.OperationKind, query string, f domain.SearchFilters, w pagination.Window) ([]domain.SearchResult, int, error) {
	switch kind {
	case domain.KindKeyword:
		res, err := a.search.Search(ctx, domain.KeywordQuery{
			Query:       query,
			MaxResults:  w.Limit,
			Offset:      w.Offset,
			CategoryKey: f.CategoryKey,
			MinPrice:    f.MinPrice,
			MaxPrice:    f.MaxPrice,
		})
		if err != nil {
			return nil, 0, err
		}
		return res.Items, res.Total, nil

	case domain.KindRange:
		if f.MaxPrice == nil {
			return nil, 0, apperrors.InvalidInput("max_price is required for a range search")
		}
		q := domain.RangeQuery{
			CategoryKey: f.CategoryKey,
			MaxPrice:    *f.MaxPrice,
			MaxResults:  w.Limit,
			Offset:      w.Offset,
		}
		if f.MinPrice != nil {
			q.MinPrice = *f.MinPrice
		}
		res, err := a.search.SearchRange(ctx, q)
		if err != nil {
			return nil, 0, err
		}
		return res.Items, res.Total, nil

	default:
		var (
			all []domain.SearchResult
			err error
		)
		if kind == domain.KindHybrid {
			all, err = a.search.hybridSearch(ctx, query, f, a.search.PoolSize())
		} else {
			all, err = a.search.vectorSearch(ctx, string(domain.KindVector), query, domain.SearchFilters{}, a.search.PoolSize())
		}
		if err != nil {
			return nil, 0, err
		}
		if w.Offset >= len(all) {
			return []domain.SearchResult{}, len(all), nil
		}
		return all[w.Offset:min(w.End(), len(all))], len(all), nil
	}
}

// scopeFilters keeps only the filters kind actually applies, so the stored
// session describes the query that ran.
func scopeFilters(kind domain.OperationKind, f domain.SearchFilters) (domain.SearchFilters, error) {
	switch kind {
	case domain.KindHybrid:
		return NormalizeFilters(f)
	case domain.KindVector:
		return domain.SearchFilters{}, nil
	default:
		return domain.SearchFilters{
			CategoryKey: strings.TrimSpace(f.CategoryKey),
			MinPrice:    f.MinPrice,
			MaxPrice:    f.MaxPrice,
		}, nil
	}
}

// save stores the session. Failures are logged; the page already computed
// still reaches the user.
func (a *Assistant) save(ctx context.Context, sess domain.PaginationSession) {
	if err := a.search.SavePagination(ctx, sess); err != nil {
		a.logger.WarnContext(ctx, "failed to save search session",
			slog.String("conversation_id", sess.ConversationID),
			slog.String("error", err.Error()),
		)
	}
}

// advance returns the new sent count after a page delivered n items from w.
// A window whose products were all undeliverable still moves past them so
// the conversation cannot get stuck.
func advance(sent, n int, w pagination.Window, total int) int {
	if n == 0 && !w.Empty() {
		n = w.Limit
	}
	return min(sent+n, total)
}

func clampBatch(n int) int {
	if n <= 0 {
		return pagination.DefaultBatchSize
	}
	return min(n, pagination.MaxBatchSize)
}

func exhaustedPage(sess *domain.PaginationSession, kind domain.OperationKind) *Page {
	return &Page{
		Outcome:    OutcomeExhausted,
		Kind:       kind,
		Query:      sess.Keyword,
		Items:      []formatter.Item{},
		TotalFound: sess.TotalFound,
		SentCount:  sess.SentCount,
		Remaining:  0,
	}
}
