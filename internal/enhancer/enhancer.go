// Package enhancer rewrites informal or multilingual chat text into a short
// canonical catalog query before it reaches search.
package enhancer

import (
	"context"
	"log/slog"
	"strings"
	"time"

	openai "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

const systemPrompt = `You turn customer chat messages for a watch and accessories store into a short English product search phrase.
Reply with the phrase only: no quotes, no punctuation, no explanation.
Keep brand names as written. Keep colors, materials and gender words.
Examples:
"bhai koi rolex dikhao" -> rolex watch
"ladies ke liye gold watch hai kya" -> womens gold watch
"show me some leather belt watches for men" -> mens leather belt watch`

// maxRewriteLen bounds an accepted rewrite; longer replies are treated as
// the model ignoring its instructions.
const maxRewriteLen = 80

// Rewriter maps a user query to a canonical search phrase. It never fails:
// on any problem the original query is returned.
type Rewriter interface {
	Rewrite(ctx context.Context, query string) string
}

// Passthrough is the disabled Rewriter.
type Passthrough struct{}

// Rewrite returns query trimmed.
func (Passthrough) Rewrite(_ context.Context, query string) string {
	return strings.TrimSpace(query)
}

// Config holds the chat completion endpoint settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
	MaxRetries  int
}

// Client is a Rewriter backed by a chat completion API.
type Client struct {
	api         openai.Client
	model       string
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

// NewClient creates a chat-backed rewriter.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Client{
		api:         openai.NewClient(opts...),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger,
	}
}

// Rewrite asks the model for a canonical phrase.
func (c *Client) Rewrite(ctx context.Context, query string) string {
	query = strings.TrimSpace(query)
	if query == "" {
		return query
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(query),
		},
		Temperature: openai.Float(c.temperature),
	})
	if err != nil {
		c.logger.WarnContext(ctx, "query rewrite failed, using original",
			slog.String("query", query),
			slog.String("error", err.Error()),
		)
		return query
	}
	if len(resp.Choices) == 0 {
		return query
	}

	rewritten := clean(resp.Choices[0].Message.Content)
	if rewritten == "" || len(rewritten) > maxRewriteLen {
		return query
	}
	c.logger.DebugContext(ctx, "query rewritten",
		slog.String("query", query),
		slog.String("rewritten", rewritten),
	)
	return rewritten
}

// clean keeps the first line of a reply, without surrounding quotes or
// trailing punctuation.
func clean(reply string) string {
	reply = strings.TrimSpace(reply)
	if i := strings.IndexByte(reply, '\n'); i >= 0 {
		reply = reply[:i]
	}
	reply = strings.Trim(reply, " \t\"'`.!?")
	return strings.Join(strings.Fields(reply), " ")
}
