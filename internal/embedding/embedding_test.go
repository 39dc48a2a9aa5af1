package embedding

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/logger"
)

func embeddingsServer(t *testing.T, status int, vector []float64) (*httptest.Server, *map[string]any) {
	t.Helper()
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/embeddings", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		_ = json.NewDecoder(r.Body).Decode(&got)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status != http.StatusOK {
			_, _ = w.Write([]byte(`{"error":{"message":"quota exceeded","type":"server_error"}}`))
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"model":  "text-embedding-004",
			"data": []map[string]any{
				{"object": "embedding", "index": 0, "embedding": vector},
			},
			"usage": map[string]any{"prompt_tokens": 2, "total_tokens": 2},
		})
	}))
	t.Cleanup(srv.Close)
	return srv, &got
}

func newTestClient(srv *httptest.Server, dims int) *Client {
	return NewClient(Config{
		BaseURL:    srv.URL + "/v1/",
		APIKey:     "test-key",
		Model:      "text-embedding-004",
		Dimensions: dims,
	}, logger.Discard())
}

func TestClient_Embed_Success(t *testing.T) {
	srv, body := embeddingsServer(t, http.StatusOK, []float64{0.1, 0.2, 0.3})
	c := newTestClient(srv, 3)

	vec, err := c.Embed(context.Background(), "  blue diver watch ")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2, 0.3}, vec)
	assert.Equal(t, "blue diver watch", (*body)["input"])
	assert.Equal(t, "text-embedding-004", (*body)["model"])
	assert.Equal(t, float64(3), (*body)["dimensions"])
}

func TestClient_Embed_DimensionMismatch(t *testing.T) {
	srv, _ := embeddingsServer(t, http.StatusOK, []float64{0.1, 0.2})
	c := newTestClient(srv, 3)

	_, err := c.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, ErrNoVector)
}

func TestClient_Embed_EmptyVector(t *testing.T) {
	srv, _ := embeddingsServer(t, http.StatusOK, []float64{})
	c := newTestClient(srv, 0)

	_, err := c.Embed(context.Background(), "text")
	assert.ErrorIs(t, err, ErrNoVector)
}

func TestClient_Embed_ServerError(t *testing.T) {
	srv, _ := embeddingsServer(t, http.StatusInternalServerError, nil)
	c := newTestClient(srv, 3)

	_, err := c.Embed(context.Background(), "text")
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrNoVector))
}

func TestClient_Embed_BlankTextSkipsRequest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Error("unexpected request")
	}))
	defer srv.Close()

	_, err := newTestClient(srv, 3).Embed(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrNoVector)
}

func TestFake_Deterministic(t *testing.T) {
	f := NewFake(16)
	a, err := f.Embed(context.Background(), "Blue Diver")
	require.NoError(t, err)
	b, err := f.Embed(context.Background(), "blue diver")
	require.NoError(t, err)
	assert.Equal(t, a, b)
	assert.Len(t, a, 16)
	assert.Equal(t, 2, f.Calls())
}

func TestFake_FailureModes(t *testing.T) {
	f := NewFake(8)
	boom := errors.New("boom")

	f.FailWith(boom)
	_, err := f.Embed(context.Background(), "x y")
	assert.ErrorIs(t, err, boom)

	f.FailWith(nil)
	f.ReturnEmpty(true)
	_, err = f.Embed(context.Background(), "x y")
	assert.ErrorIs(t, err, ErrNoVector)

	f.ReturnEmpty(false)
	_, err = f.Embed(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoVector)
}

func TestSearchableText(t *testing.T) {
	p := &domain.Product{
		Name:         "Role_x Submariner",
		Brand:        "role_x",
		Category:     "Mens Watch",
		Colors:       []string{"black", "silver"},
		Styles:       []string{"luxury"},
		BeltType:     "metal_belt",
		AICategory:   "diver_watch",
		GenderTarget: "mens",
		Price:        domain.ParsePrice("2500"),
	}
	assert.Equal(t, "role_x submariner role_x mens watch black silver luxury metal belt diver watch mens", SearchableText(p))
}

func TestSearchableText_PriceIndependent(t *testing.T) {
	a := &domain.Product{Name: "Classic", Price: domain.NumericPrice(100)}
	b := &domain.Product{Name: "Classic", Price: domain.NumericPrice(250)}
	assert.Equal(t, SearchableText(a), SearchableText(b))
	assert.Equal(t, "", SearchableText(&domain.Product{}))
}
