package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/AyushDoCode/WhatsappChatbot/pkg/httpclient"
)

// EvolutionConfig holds the Evolution API connection settings.
type EvolutionConfig struct {
	BaseURL    string
	APIKey     string
	Instance   string
	Timeout    time.Duration
	MaxRetries int
}

// EvolutionSender sends WhatsApp messages through an Evolution API instance.
type EvolutionSender struct {
	client   httpclient.Doer
	baseURL  string
	apiKey   string
	instance string
	logger   *slog.Logger
}

// NewEvolutionSender creates a sender with retries and a circuit breaker.
func NewEvolutionSender(cfg EvolutionConfig, logger *slog.Logger) *EvolutionSender {
	hc := httpclient.DefaultConfig()
	if cfg.Timeout > 0 {
		hc.Timeout = cfg.Timeout
	}
	if cfg.MaxRetries > 0 {
		hc.MaxRetries = cfg.MaxRetries
	}
	cb := httpclient.NewCircuitBreakerClient(httpclient.New(hc), httpclient.DefaultCircuitBreakerConfig("evolution-api"), logger)
	return newEvolutionSender(cb, cfg, logger)
}

func newEvolutionSender(client httpclient.Doer, cfg EvolutionConfig, logger *slog.Logger) *EvolutionSender {
	return &EvolutionSender{
		client:   client,
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		instance: cfg.Instance,
		logger:   logger,
	}
}

// Name returns the name of this sender.
func (s *EvolutionSender) Name() string {
	return "evolution"
}

type sendTextRequest struct {
	Number string `json:"number"`
	Text   string `json:"text"`
}

type sendMediaRequest struct {
	Number    string `json:"number"`
	MediaType string `json:"mediatype"`
	Media     string `json:"media"`
	Caption   string `json:"caption"`
}

// SendText sends a plain text message.
func (s *EvolutionSender) SendText(ctx context.Context, to, text string) error {
	return s.post(ctx, "sendText", sendTextRequest{Number: CleanNumber(to), Text: text})
}

// SendMedia sends an image by URL with a caption.
func (s *EvolutionSender) SendMedia(ctx context.Context, to string, m Media) error {
	if strings.TrimSpace(m.URL) == "" {
		return fmt.Errorf("send media to %s: empty image url", to)
	}
	return s.post(ctx, "sendMedia", sendMediaRequest{
		Number:    CleanNumber(to),
		MediaType: "image",
		Media:     m.URL,
		Caption:   m.Caption,
	})
}

func (s *EvolutionSender) post(ctx context.Context, method string, body any) error {
	url := fmt.Sprintf("%s/message/%s/%s", s.baseURL, method, s.instance)
	req, err := httpclient.NewJSONRequest(ctx, http.MethodPost, url, body)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.apiKey)

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("evolution %s: %w", method, err)
	}
	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return httpclient.ParseResponseError(resp, "evolution api")
	}
	_ = resp.Body.Close()

	s.logger.DebugContext(ctx, "message sent", slog.String("method", method))
	return nil
}

// CleanNumber strips formatting from a phone number and adds the 91 country
// code to bare 10-digit numbers.
func CleanNumber(n string) string {
	n = strings.NewReplacer("+", "", "-", "", " ", "").Replace(n)
	if len(n) == 10 {
		n = "91" + n
	}
	return n
}
