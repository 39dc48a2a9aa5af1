package httputil

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/logger"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/validator"
)

func decode(t *testing.T, rec *httptest.ResponseRecorder) Response {
	t.Helper()
	var resp Response
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestWriteData_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteData(rec, http.StatusOK, map[string]int{"total": 3})

	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"data":{"total":3}}`, rec.Body.String())
}

func TestWriteError_NoMatch(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)

	WriteError(rec, req, apperrors.NoMatch("fossil"), logger.Discard())

	assert.Equal(t, http.StatusNotFound, rec.Code)
	resp := decode(t, rec)
	require.NotNil(t, resp.Error)
	assert.Equal(t, "NO_MATCH", resp.Error.Code)
	assert.False(t, resp.Error.Retryable)
}

func TestWriteError_UnavailableIsRetryableAndHidesCause(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)

	err := apperrors.Unavailable("catalog store", errors.New("connection refused 10.0.0.4:27017"))
	WriteError(rec, req, err, logger.Discard())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "SERVICE_UNAVAILABLE", resp.Error.Code)
	assert.True(t, resp.Error.Retryable)
	assert.NotContains(t, resp.Error.Message, "10.0.0.4")
}

func TestWriteError_DeadlineExceeded(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/range", nil)

	WriteError(rec, req, fmt.Errorf("find: %w", context.DeadlineExceeded), logger.Discard())

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "SERVICE_UNAVAILABLE", decode(t, rec).Error.Code)
}

func TestWriteError_UnknownErrorIsInternal(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	WriteError(rec, req, errors.New("mongo: cursor id 42 not found"), logger.Discard())

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "INTERNAL_ERROR", resp.Error.Code)
	assert.NotContains(t, resp.Error.Message, "cursor")
}

func TestWriteError_IncludesRequestID(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/x", nil)
	req = req.WithContext(logger.WithCorrelationID(req.Context(), "corr-1"))

	WriteError(rec, req, apperrors.CategoryRequired(), nil)

	resp := decode(t, rec)
	assert.Equal(t, "CATEGORY_REQUIRED", resp.Error.Code)
	assert.Equal(t, "corr-1", resp.Error.RequestID)
}

func TestWriteValidationError_Fields(t *testing.T) {
	type body struct {
		Query string `validate:"required"`
	}
	rec := httptest.NewRecorder()
	WriteValidationError(rec, validator.Validate(body{}))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "VALIDATION_ERROR", resp.Error.Code)
	assert.Equal(t, "is required", resp.Error.Fields["Query"])
}

func TestRequireParam(t *testing.T) {
	rec := httptest.NewRecorder()
	v, ok := RequireParam(rec, "conversation id", "  ")
	assert.False(t, ok)
	assert.Empty(t, v)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	v, ok = RequireParam(httptest.NewRecorder(), "conversation id", " 9198 ")
	assert.True(t, ok)
	assert.Equal(t, "9198", v)
}
