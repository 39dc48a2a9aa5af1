package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/AyushDoCode/WhatsappChatbot/internal/delivery"
	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/internal/service"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/httputil"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/pagination"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/validator"
)

// ConversationHandler handles the chat-facing endpoints that keep a
// pagination session per conversation.
type ConversationHandler struct {
	search     *service.SearchService
	assistant  *service.Assistant
	dispatcher *delivery.Dispatcher
	batchSize  int
	logger     *slog.Logger
}

// NewConversationHandler creates a new conversation HTTP handler. A nil
// dispatcher disables delivery; pages are only returned in the response.
func NewConversationHandler(
	search *service.SearchService,
	assistant *service.Assistant,
	dispatcher *delivery.Dispatcher,
	batchSize int,
	logger *slog.Logger,
) *ConversationHandler {
	if batchSize <= 0 {
		batchSize = pagination.DefaultBatchSize
	}
	return &ConversationHandler{
		search:     search,
		assistant:  assistant,
		dispatcher: dispatcher,
		batchSize:  batchSize,
		logger:     logger,
	}
}

// --- Request DTOs ---

// ConversationSearchRequest starts a new search for a conversation.
type ConversationSearchRequest struct {
	Kind      domain.OperationKind `json:"kind" validate:"omitempty,oneof=keyword range vector hybrid"`
	Query     string               `json:"query" validate:"max=500"`
	Filters   domain.SearchFilters `json:"filters"`
	BatchSize int                  `json:"batch_size" validate:"omitempty,min=1,max=50"`
	DeliverTo string               `json:"deliver_to" validate:"omitempty,min=10,max=20"`
}

// ShowMoreRequest asks for the next batch of the active search.
type ShowMoreRequest struct {
	BatchSize int    `json:"batch_size" validate:"omitempty,min=1,max=50"`
	DeliverTo string `json:"deliver_to" validate:"omitempty,min=10,max=20"`
}

// SavePaginationRequest overwrites a conversation's session.
type SavePaginationRequest struct {
	Kind       domain.OperationKind `json:"kind" validate:"omitempty,oneof=keyword range vector hybrid"`
	Keyword    string               `json:"keyword" validate:"max=500"`
	Filters    domain.SearchFilters `json:"filters"`
	TotalFound int                  `json:"total_found" validate:"min=0"`
	SentCount  int                  `json:"sent_count" validate:"min=0"`
}

// PageResponse is a page plus, when requested, what delivery managed to send.
type PageResponse struct {
	*service.Page
	Delivery *delivery.Report `json:"delivery,omitempty"`
}

// --- Handlers ---

// Search handles POST /api/v1/conversations/{id}/search
func (h *ConversationHandler) Search(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.RequireParam(w, "conversation id", chi.URLParam(r, "id"))
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req ConversationSearchRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if req.BatchSize == 0 {
		req.BatchSize = h.batchSize
	}

	page, err := h.assistant.Search(r.Context(), id, service.Request{
		Kind:      req.Kind,
		Query:     req.Query,
		Filters:   req.Filters,
		BatchSize: req.BatchSize,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, h.respond(r, req.DeliverTo, page))
}

// ShowMore handles POST /api/v1/conversations/{id}/more
func (h *ConversationHandler) ShowMore(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.RequireParam(w, "conversation id", chi.URLParam(r, "id"))
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req ShowMoreRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}
	if req.BatchSize == 0 {
		req.BatchSize = pagination.BatchSizeFromRequest(r, h.batchSize)
	}

	page, err := h.assistant.ShowMore(r.Context(), id, req.BatchSize)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, h.respond(r, req.DeliverTo, page))
}

// GetPagination handles GET /api/v1/conversations/{id}/pagination
func (h *ConversationHandler) GetPagination(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.RequireParam(w, "conversation id", chi.URLParam(r, "id"))
	if !ok {
		return
	}

	sess, err := h.search.GetPagination(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, sess)
}

// SavePagination handles PUT /api/v1/conversations/{id}/pagination
func (h *ConversationHandler) SavePagination(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.RequireParam(w, "conversation id", chi.URLParam(r, "id"))
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	var req SavePaginationRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	err := h.search.SavePagination(r.Context(), domain.PaginationSession{
		ConversationID: id,
		Kind:           req.Kind,
		Keyword:        req.Keyword,
		Filters:        req.Filters,
		TotalFound:     req.TotalFound,
		SentCount:      req.SentCount,
	})
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteData(w, http.StatusOK, map[string]string{"conversation_id": id, "status": "saved"})
}

func (h *ConversationHandler) respond(r *http.Request, to string, page *service.Page) PageResponse {
	resp := PageResponse{Page: page}
	if to == "" || h.dispatcher == nil {
		return resp
	}
	report := h.dispatcher.Deliver(r.Context(), to, page)
	resp.Delivery = &report
	return resp
}
