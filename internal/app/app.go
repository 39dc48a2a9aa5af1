package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/AyushDoCode/WhatsappChatbot/internal/config"
	"github.com/AyushDoCode/WhatsappChatbot/internal/delivery"
	"github.com/AyushDoCode/WhatsappChatbot/internal/delivery/mock"
	"github.com/AyushDoCode/WhatsappChatbot/internal/event"
	handler "github.com/AyushDoCode/WhatsappChatbot/internal/handler/http"
	pkgkafka "github.com/AyushDoCode/WhatsappChatbot/pkg/kafka"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/tracing"
)

// Version is stamped at build time.
var Version = "dev"

// App wires together all dependencies and runs the catalog search service.
type App struct {
	cfg        *config.Config
	logger     *slog.Logger
	components *Components
	consumer   *pkgkafka.Consumer
	httpServer *http.Server
	tracerStop func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	tracerStop, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    ServiceName,
		ServiceVersion: Version,
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.TracingEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	components, err := Build(ctx, cfg, logger)
	if err != nil {
		_ = tracerStop(context.Background())
		return nil, err
	}

	// Catalog sync events.
	var consumer *pkgkafka.Consumer
	if cfg.KafkaEnabled {
		eventConsumer := event.NewConsumer(components.Products, logger)
		consumer = pkgkafka.NewConsumer(pkgkafka.ConsumerConfig{
			Brokers:  cfg.KafkaBrokers,
			GroupID:  cfg.KafkaGroupID,
			Topics:   eventConsumer.Topics(),
			MinBytes: 1,
			MaxBytes: 10e6, // 10 MB
		}, logger)
		eventConsumer.Register(consumer)
		logger.Info("kafka consumer initialized",
			slog.Any("brokers", cfg.KafkaBrokers),
			slog.Any("topics", eventConsumer.Topics()),
		)
	}

	// Message delivery.
	var sender delivery.Sender
	if cfg.DeliveryBaseURL != "" {
		sender = delivery.NewEvolutionSender(delivery.EvolutionConfig{
			BaseURL:  cfg.DeliveryBaseURL,
			APIKey:   cfg.DeliveryAPIKey,
			Instance: cfg.DeliveryInstance,
		}, logger)
	} else {
		sender = mock.NewSender(logger)
	}
	logger.Info("delivery sender initialized", slog.String("sender", sender.Name()))

	// HTTP router.
	router := handler.NewRouter(
		handler.NewSearchHandler(components.Search, components.Indexer, logger),
		handler.NewConversationHandler(
			components.Search,
			components.Assistant,
			delivery.NewDispatcher(sender, logger),
			cfg.BatchSize,
			logger,
		),
		components.Health,
		handler.RouterConfig{
			RateLimitRPS:   cfg.RateLimitRPS,
			RateLimitBurst: cfg.RateLimitBurst,
			Timeout:        cfg.SearchTimeout + 5*time.Second,
			Tracing:        cfg.TracingEnabled,
		},
		logger,
	)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.SearchTimeout + 10*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &App{
		cfg:        cfg,
		logger:     logger,
		components: components,
		consumer:   consumer,
		httpServer: httpServer,
		tracerStop: tracerStop,
	}, nil
}

// Handler returns the HTTP handler, for tests.
func (a *App) Handler() http.Handler {
	return a.httpServer.Handler
}

// Run starts the HTTP server and Kafka consumer, blocking until the context is canceled.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	if a.consumer != nil {
		go func() {
			if err := a.consumer.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	// Start HTTP server.
	go func() {
		a.logger.Info("starting HTTP server",
			slog.String("addr", a.httpServer.Addr),
		)
		if err := a.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		_ = a.Shutdown()
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	// Graceful HTTP server shutdown with a 10-second deadline.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if a.consumer != nil {
		if err := a.consumer.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.components.Close(shutdownCtx); err != nil {
		a.logger.Error("store close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	if err := a.tracerStop(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
