package delivery

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/httpclient"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/logger"
)

type captured struct {
	path   string
	apikey string
	body   map[string]any
}

func evolutionServer(t *testing.T, status int) (*httptest.Server, *[]captured) {
	t.Helper()
	var calls []captured
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c := captured{path: r.URL.Path, apikey: r.Header.Get("apikey")}
		_ = json.NewDecoder(r.Body).Decode(&c.body)
		calls = append(calls, c)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status >= 400 {
			_, _ = w.Write([]byte(`{"message":"number not on whatsapp"}`))
			return
		}
		_, _ = w.Write([]byte(`{"key":{"id":"msg-1"}}`))
	}))
	t.Cleanup(srv.Close)
	return srv, &calls
}

func newTestSender(srv *httptest.Server) *EvolutionSender {
	cfg := httpclient.DefaultConfig()
	cfg.MaxRetries = 0
	return newEvolutionSender(httpclient.New(cfg), EvolutionConfig{
		BaseURL:  srv.URL + "/",
		APIKey:   "secret",
		Instance: "watchvine",
	}, logger.Discard())
}

func TestEvolutionSender_SendMedia(t *testing.T) {
	srv, calls := evolutionServer(t, http.StatusCreated)
	s := newTestSender(srv)

	err := s.SendMedia(context.Background(), "+91 98765-43210", Media{URL: "https://cdn.example/a.jpg", Caption: "*Role_x*"})
	require.NoError(t, err)
	require.Len(t, *calls, 1)

	c := (*calls)[0]
	assert.Equal(t, "/message/sendMedia/watchvine", c.path)
	assert.Equal(t, "secret", c.apikey)
	assert.Equal(t, map[string]any{
		"number":    "919876543210",
		"mediatype": "image",
		"media":     "https://cdn.example/a.jpg",
		"caption":   "*Role_x*",
	}, c.body)
}

func TestEvolutionSender_SendText(t *testing.T) {
	srv, calls := evolutionServer(t, http.StatusOK)
	s := newTestSender(srv)

	require.NoError(t, s.SendText(context.Background(), "9876543210", "hello"))
	c := (*calls)[0]
	assert.Equal(t, "/message/sendText/watchvine", c.path)
	assert.Equal(t, map[string]any{"number": "919876543210", "text": "hello"}, c.body)
}

func TestEvolutionSender_ClientError(t *testing.T) {
	srv, _ := evolutionServer(t, http.StatusBadRequest)
	s := newTestSender(srv)

	err := s.SendText(context.Background(), "919876543210", "hello")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
	assert.Contains(t, err.Error(), "number not on whatsapp")
}

func TestEvolutionSender_ServerError(t *testing.T) {
	srv, _ := evolutionServer(t, http.StatusBadGateway)
	s := newTestSender(srv)

	err := s.SendText(context.Background(), "919876543210", "hello")
	assert.ErrorIs(t, err, apperrors.ErrServiceUnavail)
}

func TestEvolutionSender_EmptyMediaURL(t *testing.T) {
	srv, calls := evolutionServer(t, http.StatusOK)
	s := newTestSender(srv)

	assert.Error(t, s.SendMedia(context.Background(), "919876543210", Media{URL: " "}))
	assert.Empty(t, *calls)
}

func TestCleanNumber(t *testing.T) {
	tests := map[string]string{
		"9876543210":      "919876543210",
		"+91 98765 43210": "919876543210",
		"+1-555-123-4567": "15551234567",
		"919876543210":    "919876543210",
	}
	for in, want := range tests {
		assert.Equal(t, want, CleanNumber(in), in)
	}
}
