package httpclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/logger"
)

func fastConfig(retries int) Config {
	return Config{
		Timeout:         2 * time.Second,
		MaxRetries:      retries,
		RetryWaitMin:    time.Millisecond,
		RetryWaitMax:    5 * time.Millisecond,
		MaxConnsPerHost: 4,
	}
}

func TestClient_RetriesPostWithReplayedBody(t *testing.T) {
	var calls atomic.Int32
	var lastBody atomic.Value
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		lastBody.Store(string(b))
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	req, err := NewJSONRequest(context.Background(), http.MethodPost, server.URL, map[string]string{"number": "9198"})
	require.NoError(t, err)

	resp, err := New(fastConfig(2)).Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.EqualValues(t, 3, calls.Load())
	assert.JSONEq(t, `{"number":"9198"}`, lastBody.Load().(string))
}

func TestClient_ReturnsLast5xxWhenRetriesExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	resp, err := New(fastConfig(1)).Do(context.Background(), req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestClient_NoRetryOnCanceledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := New(fastConfig(3)).Do(ctx, req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestCircuitBreaker_TripsOn5xx(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	cfg := DefaultCircuitBreakerConfig("test-trip")
	cfg.MinRequests = 3
	cb := NewCircuitBreakerClient(New(fastConfig(0)), cfg, logger.Discard())

	for i := 0; i < 3; i++ {
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		_, err := cb.Do(context.Background(), req)
		require.Error(t, err)
	}
	assert.Equal(t, gobreaker.StateOpen, cb.State())

	req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
	_, err := cb.Do(context.Background(), req)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestCircuitBreaker_4xxDoesNotTrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	cfg := DefaultCircuitBreakerConfig("test-4xx")
	cfg.MinRequests = 2
	cb := NewCircuitBreakerClient(New(fastConfig(0)), cfg, logger.Discard())

	for i := 0; i < 4; i++ {
		req, _ := http.NewRequest(http.MethodGet, server.URL, nil)
		resp, err := cb.Do(context.Background(), req)
		require.NoError(t, err)
		_ = resp.Body.Close()
	}
	assert.Equal(t, gobreaker.StateClosed, cb.State())
}

func response(status int, body string) *http.Response {
	return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}
}

func TestParseResponseError(t *testing.T) {
	err := ParseResponseError(response(http.StatusBadRequest, `{"error":{"message":"invalid number"}}`), "evolution")
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	assert.Contains(t, err.Error(), "invalid number")

	err = ParseResponseError(response(http.StatusTooManyRequests, `{"error":"slow down"}`), "embeddings")
	assert.True(t, apperrors.IsRetryable(err))

	err = ParseResponseError(response(http.StatusNotFound, `{"message":["instance not found"]}`), "evolution")
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))

	err = ParseResponseError(response(http.StatusForbidden, "nope"), "evolution")
	assert.Contains(t, err.Error(), "403: nope")
}

func TestIsClientError(t *testing.T) {
	assert.True(t, IsClientError(404))
	assert.False(t, IsClientError(500))
}
