// Package delivery sends formatted search pages to a WhatsApp recipient.
package delivery

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/AyushDoCode/WhatsappChatbot/internal/service"
)

// Media is one image message.
type Media struct {
	URL     string
	Caption string
}

// Sender delivers messages over one channel.
type Sender interface {
	Name() string
	SendText(ctx context.Context, to, text string) error
	SendMedia(ctx context.Context, to string, m Media) error
}

// Report counts what a Deliver call managed to send.
type Report struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Dispatcher turns pages into messages.
type Dispatcher struct {
	sender Sender
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over sender.
func NewDispatcher(sender Sender, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{sender: sender, logger: logger}
}

// Deliver sends every item of page as an image with its caption, followed by
// a text telling the user what comes next. A failed item does not stop the
// rest; the page's bookkeeping is not changed by delivery failures.
func (d *Dispatcher) Deliver(ctx context.Context, to string, page *service.Page) Report {
	var r Report
	for _, it := range page.Items {
		if err := d.sender.SendMedia(ctx, to, Media{URL: it.ImageURL, Caption: it.Caption}); err != nil {
			r.Failed++
			d.logger.WarnContext(ctx, "failed to deliver product image",
				slog.String("sender", d.sender.Name()),
				slog.String("product_id", it.ProductID),
				slog.String("error", err.Error()),
			)
			continue
		}
		r.Sent++
	}

	if text := Summary(page); text != "" {
		if err := d.sender.SendText(ctx, to, text); err != nil {
			r.Failed++
			d.logger.WarnContext(ctx, "failed to deliver summary",
				slog.String("sender", d.sender.Name()),
				slog.String("error", err.Error()),
			)
		} else {
			r.Sent++
		}
	}

	d.logger.InfoContext(ctx, "page delivered",
		slog.String("sender", d.sender.Name()),
		slog.String("outcome", string(page.Outcome)),
		slog.Int("sent", r.Sent),
		slog.Int("failed", r.Failed),
	)
	return r
}

// Summary is the text that follows a page. Each outcome gets its own message.
func Summary(page *service.Page) string {
	subject := strings.TrimSpace(page.Query)
	switch page.Outcome {
	case service.OutcomeNoMatch:
		if subject == "" {
			return "Sorry, no products found 😔"
		}
		return fmt.Sprintf("Sorry, no products found for '%s' 😔\n\nTry another keyword!", subject)
	case service.OutcomeExhausted:
		if subject == "" {
			return fmt.Sprintf("😔 Sorry, you've seen all %d products we have!", page.TotalFound)
		}
		return fmt.Sprintf("😔 Sorry, you've seen all %d %s products we have!", page.TotalFound, subject)
	case service.OutcomeNoActiveSearch:
		return "Tell me what you are looking for and I will show you some products!"
	case service.OutcomeFound:
		if page.Remaining > 0 {
			return fmt.Sprintf("Showing %d of %d. Reply \"more\" to see %d more.", page.SentCount, page.TotalFound, page.Remaining)
		}
		if len(page.Items) == 0 {
			return "Sorry, couldn't retrieve product images 😔"
		}
		return ""
	default:
		return ""
	}
}
