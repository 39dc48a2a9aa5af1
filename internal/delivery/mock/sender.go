package mock

import (
	"context"
	"log/slog"
	"sync"

	"github.com/AyushDoCode/WhatsappChatbot/internal/delivery"
)

// Message is one recorded send. Media is nil for text messages.
type Message struct {
	To    string
	Text  string
	Media *delivery.Media
}

// Sender records every message and logs it instead of sending. Used when no
// messaging API is configured and in tests.
type Sender struct {
	mu       sync.Mutex
	messages []Message
	failOn   map[string]error
	logger   *slog.Logger
}

// NewSender creates a recording sender.
func NewSender(logger *slog.Logger) *Sender {
	return &Sender{logger: logger, failOn: make(map[string]error)}
}

// Name returns the name of this sender.
func (s *Sender) Name() string {
	return "mock"
}

// FailMedia makes SendMedia fail with err for the given image url.
func (s *Sender) FailMedia(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failOn[url] = err
}

// SendText records a text message.
func (s *Sender) SendText(ctx context.Context, to, text string) error {
	s.mu.Lock()
	s.messages = append(s.messages, Message{To: to, Text: text})
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "mock sender: text sent", slog.String("to", to), slog.String("text", text))
	return nil
}

// SendMedia records an image message.
func (s *Sender) SendMedia(ctx context.Context, to string, m delivery.Media) error {
	s.mu.Lock()
	if err := s.failOn[m.URL]; err != nil {
		s.mu.Unlock()
		return err
	}
	s.messages = append(s.messages, Message{To: to, Media: &m})
	s.mu.Unlock()

	s.logger.InfoContext(ctx, "mock sender: media sent", slog.String("to", to), slog.String("url", m.URL))
	return nil
}

// Messages returns a copy of everything sent so far.
func (s *Sender) Messages() []Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Message, len(s.messages))
	copy(out, s.messages)
	return out
}
