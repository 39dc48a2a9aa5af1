package event

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/internal/service"
	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
	pkgkafka "github.com/AyushDoCode/WhatsappChatbot/pkg/kafka"
)

// ProductUpsertedData is the payload of a product.upserted event: the
// scraped product plus any enrichment fields.
type ProductUpsertedData = service.UpsertInput

// ProductDeletedData is the payload of a product.deleted event.
type ProductDeletedData struct {
	ID string `json:"id"`
}

// ProductWriter applies catalog changes. Satisfied by *service.CatalogService.
type ProductWriter interface {
	Upsert(ctx context.Context, in service.UpsertInput) (*domain.Product, error)
	Delete(ctx context.Context, id string) error
}

// Consumer applies catalog sync events to the product store.
type Consumer struct {
	products ProductWriter
	logger   *slog.Logger
}

// NewConsumer creates a new catalog event consumer.
func NewConsumer(products ProductWriter, logger *slog.Logger) *Consumer {
	return &Consumer{
		products: products,
		logger:   logger,
	}
}

// Topics returns the topics Register subscribes to.
func (c *Consumer) Topics() []string {
	return []string{TopicProductUpserted, TopicProductDeleted}
}

// Register wires the handlers into a Kafka consumer.
func (c *Consumer) Register(kc *pkgkafka.Consumer) {
	kc.Handle(TopicProductUpserted, c.Handle)
	kc.Handle(TopicProductDeleted, c.Handle)
}

// Handle processes a Kafka event based on its type. Events that can never
// succeed are logged and dropped so they are not retried.
func (c *Consumer) Handle(ctx context.Context, event *pkgkafka.Event) error {
	var err error
	switch event.EventType {
	case TopicProductUpserted:
		err = c.handleProductUpserted(ctx, event)
	case TopicProductDeleted:
		err = c.handleProductDeleted(ctx, event)
	default:
		c.logger.WarnContext(ctx, "unknown event type received",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
		)
		return nil
	}

	if errors.Is(err, apperrors.ErrInvalidInput) {
		c.logger.WarnContext(ctx, "dropping invalid catalog event",
			slog.String("event_type", event.EventType),
			slog.String("event_id", event.EventID),
			slog.String("error", err.Error()),
		)
		return nil
	}
	return err
}

func (c *Consumer) handleProductUpserted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductUpsertedData
	if err := event.UnmarshalData(&data); err != nil {
		return apperrors.InvalidInput(fmt.Sprintf("unmarshal product.upserted data: %v", err))
	}
	if data.ID == "" {
		data.ID = event.AggregateID
	}

	p, err := c.products.Upsert(ctx, data)
	if err != nil {
		return fmt.Errorf("upsert product from event: %w", err)
	}

	c.logger.InfoContext(ctx, "applied product upsert event",
		slog.String("product_id", p.ID),
		slog.String("event_id", event.EventID),
	)
	return nil
}

func (c *Consumer) handleProductDeleted(ctx context.Context, event *pkgkafka.Event) error {
	var data ProductDeletedData
	if len(event.Data) > 0 {
		if err := event.UnmarshalData(&data); err != nil {
			return apperrors.InvalidInput(fmt.Sprintf("unmarshal product.deleted data: %v", err))
		}
	}
	if data.ID == "" {
		data.ID = event.AggregateID
	}

	if err := c.products.Delete(ctx, data.ID); err != nil {
		return fmt.Errorf("delete product from event: %w", err)
	}

	c.logger.InfoContext(ctx, "applied product delete event",
		slog.String("product_id", data.ID),
		slog.String("event_id", event.EventID),
	)
	return nil
}
