package middleware

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyushDoCode/WhatsappChatbot/pkg/logger"
)

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestRecovery_ReturnsEnvelope(t *testing.T) {
	h := Recovery(logger.Discard())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("nil map")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, rec.Body.String(), `"code":"INTERNAL_ERROR"`)
}

func TestRequestLogging_PropagatesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	l := logger.NewWithWriter("test", "info", &buf)

	var seen string
	h := RequestLogging(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logger.CorrelationIDFromContext(r.Context())
		w.WriteHeader(http.StatusTeapot)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/index/stats", nil)
	req.Header.Set(CorrelationHeader, "corr-9")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "corr-9", seen)
	assert.Equal(t, "corr-9", rec.Header().Get(CorrelationHeader))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "corr-9", line["correlation_id"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])
}

func TestRequestLogging_GeneratesCorrelationID(t *testing.T) {
	rec := httptest.NewRecorder()
	RequestLogging(logger.Discard())(okHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Len(t, rec.Header().Get(CorrelationHeader), 36)
}

func TestConversationScope_SetsConversationID(t *testing.T) {
	var seen string
	r := chi.NewRouter()
	r.Route("/conversations/{id}", func(r chi.Router) {
		r.Use(ConversationScope("id"))
		r.Post("/more", func(w http.ResponseWriter, r *http.Request) {
			seen = logger.ConversationIDFromContext(r.Context())
		})
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/conversations/919812345678/more", nil))
	assert.Equal(t, "919812345678", seen)
}

func TestRateLimit_PerConversation(t *testing.T) {
	r := chi.NewRouter()
	r.Route("/conversations/{id}", func(r chi.Router) {
		r.Use(ConversationScope("id"))
		r.Use(RateLimit(0.001, 2, logger.Discard()))
		r.Post("/more", okHandler().ServeHTTP)
	})

	send := func(id string) int {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/conversations/"+id+"/more", nil))
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusOK, send("a"))
	assert.Equal(t, http.StatusTooManyRequests, send("a"))
	assert.Equal(t, http.StatusOK, send("b"))
}

func TestRateLimit_FallsBackToClientIP(t *testing.T) {
	h := RateLimit(0.001, 1, logger.Discard())(okHandler())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Contains(t, rec.Body.String(), "RATE_LIMITED")
}

func TestLimiterStore_EvictsIdleKeys(t *testing.T) {
	s := newLimiterStore(1, 1, time.Minute)
	now := time.Now()
	s.nowFunc = func() time.Time { return now }

	s.get("a")
	s.get("b")
	assert.Equal(t, 2, s.len())

	now = now.Add(2 * time.Minute)
	s.get("c")
	assert.Equal(t, 1, s.len())
}

func TestClientIP(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	assert.Equal(t, "192.0.2.10", clientIP(req))

	req.Header.Set("X-Real-IP", "198.51.100.3")
	assert.Equal(t, "198.51.100.3", clientIP(req))
}

func TestPrometheusMetrics_PassesThrough(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics("test"))
	r.Get("/x", okHandler().ServeHTTP)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
