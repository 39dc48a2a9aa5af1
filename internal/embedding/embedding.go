// Package embedding turns product and query text into dense vectors through
// an OpenAI-compatible embeddings endpoint.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ErrNoVector is returned when the service produced no usable vector.
var ErrNoVector = errors.New("embedding: no vector returned")

var embeddingRequests = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "embedding_requests_total",
		Help: "Total number of embedding requests by outcome",
	},
	[]string{"outcome"},
)

// Embedder maps text to a fixed-length vector. Identical text yields the
// same vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Config holds the embeddings endpoint settings.
type Config struct {
	BaseURL    string
	APIKey     string
	Model      string
	Dimensions int
	Timeout    time.Duration
	MaxRetries int
}

// Client is an Embedder backed by the embeddings API.
type Client struct {
	api        openai.Client
	model      string
	dimensions int
	timeout    time.Duration
	logger     *slog.Logger
}

// NewClient creates an embeddings client.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		api:        openai.NewClient(opts...),
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
		timeout:    cfg.Timeout,
		logger:     logger,
	}
}

// Dimensions returns the configured vector length, 0 when unset.
func (c *Client) Dimensions() int {
	return c.dimensions
}

// Embed returns the vector for text. Blank text yields ErrNoVector without a
// request.
func (c *Client) Embed(ctx context.Context, text string) ([]float64, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoVector
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	params := openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfString: openai.String(text)},
		Model: openai.EmbeddingModel(c.model),
	}
	if c.dimensions > 0 {
		params.Dimensions = openai.Int(int64(c.dimensions))
	}

	resp, err := c.api.Embeddings.New(ctx, params)
	if err != nil {
		embeddingRequests.WithLabelValues("error").Inc()
		return nil, fmt.Errorf("embedding request: %w", err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		embeddingRequests.WithLabelValues("empty").Inc()
		return nil, ErrNoVector
	}

	vec := resp.Data[0].Embedding
	if c.dimensions > 0 && len(vec) != c.dimensions {
		embeddingRequests.WithLabelValues("dimension_mismatch").Inc()
		c.logger.Warn("embedding dimension mismatch",
			slog.Int("expected", c.dimensions),
			slog.Int("got", len(vec)),
		)
		return nil, fmt.Errorf("%w: expected %d dimensions, got %d", ErrNoVector, c.dimensions, len(vec))
	}

	embeddingRequests.WithLabelValues("ok").Inc()
	return vec, nil
}

// Ping reports whether the embeddings endpoint answers.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Embed(ctx, "ping")
	return err
}
