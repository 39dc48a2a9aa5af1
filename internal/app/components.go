package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/AyushDoCode/WhatsappChatbot/internal/config"
	"github.com/AyushDoCode/WhatsappChatbot/internal/embedding"
	"github.com/AyushDoCode/WhatsappChatbot/internal/engine"
	"github.com/AyushDoCode/WhatsappChatbot/internal/engine/memory"
	mongoengine "github.com/AyushDoCode/WhatsappChatbot/internal/engine/mongo"
	"github.com/AyushDoCode/WhatsappChatbot/internal/enhancer"
	"github.com/AyushDoCode/WhatsappChatbot/internal/indexer"
	"github.com/AyushDoCode/WhatsappChatbot/internal/service"
	"github.com/AyushDoCode/WhatsappChatbot/internal/session"
	sessionredis "github.com/AyushDoCode/WhatsappChatbot/internal/session/redis"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/database"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/health"
	pkgkafka "github.com/AyushDoCode/WhatsappChatbot/pkg/kafka"
)

// ServiceName identifies this service in logs, metrics and connection names.
const ServiceName = "catalog-search"

// Components are the wired domain services shared by the HTTP server and the
// operator CLI.
type Components struct {
	Engine    engine.Engine
	Embedder  embedding.Embedder
	Search    *service.SearchService
	Assistant *service.Assistant
	Products  *service.CatalogService
	Indexer   *indexer.Indexer
	Health    *health.Handler

	// Producer is nil unless Kafka is enabled.
	Producer *pkgkafka.Producer

	closers []namedCloser
}

type namedCloser struct {
	name  string
	close func(context.Context) error
}

// Build connects the stores and wires the domain services per cfg.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Components, error) {
	c := &Components{Health: health.NewHandler()}

	database.SetSlowOperationLogging(time.Duration(cfg.SlowQueryThreshMs)*time.Millisecond, logger)

	if err := c.initCatalog(ctx, cfg, logger); err != nil {
		return nil, c.abort(err)
	}
	sessions, err := c.initSessions(ctx, cfg, logger)
	if err != nil {
		return nil, c.abort(err)
	}

	var publisher pkgkafka.Publisher
	if cfg.KafkaEnabled {
		c.Producer = pkgkafka.NewProducer(pkgkafka.ProducerConfig{Brokers: cfg.KafkaBrokers}, logger)
		publisher = c.Producer
		c.closers = append(c.closers, namedCloser{"kafka producer", func(context.Context) error { return c.Producer.Close() }})
		c.Health.RegisterOptional("kafka", func(ctx context.Context) error {
			return pkgkafka.PingBrokers(ctx, cfg.KafkaBrokers)
		})
	}

	var rewriter enhancer.Rewriter = enhancer.Passthrough{}
	if cfg.EnhancerEnabled {
		rewriter = enhancer.NewClient(enhancer.Config{
			BaseURL:    cfg.EnhancerBaseURL,
			APIKey:     cfg.EnhancerAPIKey,
			Model:      cfg.EnhancerModel,
			Timeout:    5 * time.Second,
			MaxRetries: 1,
		}, logger)
		logger.Info("query enhancer enabled", slog.String("model", cfg.EnhancerModel))
	}

	c.Search = service.NewSearchService(c.Engine, c.Engine, c.Embedder, sessions, service.Config{
		Timeout:               cfg.SearchTimeout,
		PoolSize:              cfg.SearchPoolSize,
		VectorCandidates:      cfg.VectorCandidates,
		HybridCandidateFactor: cfg.HybridCandidateFactor,
		StaleAfter:            cfg.SessionStaleAfter,
	}, logger)
	c.Assistant = service.NewAssistant(c.Search, rewriter, logger)
	c.Products = service.NewCatalogService(c.Engine, logger)
	c.Indexer = indexer.New(c.Engine, c.Embedder, publisher, indexer.Config{
		ItemDelay:  cfg.IndexItemDelay,
		BatchDelay: cfg.IndexBatchDelay,
		BatchSize:  cfg.IndexBatchSize,
		MaxItems:   cfg.IndexMaxItems,
	}, logger)

	return c, nil
}

func (c *Components) initCatalog(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.CatalogBackend == config.BackendMemory {
		c.Engine = memory.New()
		c.Embedder = embedding.NewFake(cfg.EmbeddingDimensions)
		logger.Info("in-memory catalog initialized")
		return nil
	}

	client, err := database.NewMongoClient(ctx, database.MongoConfig{
		URI:            cfg.MongoURI,
		Database:       cfg.MongoDatabase,
		AppName:        ServiceName,
		MaxPoolSize:    cfg.MongoMaxPoolSize,
		ConnectTimeout: cfg.ConnectTimeout,
	}, logger)
	if err != nil {
		return fmt.Errorf("connect to mongodb: %w", err)
	}
	c.closers = append(c.closers, namedCloser{"mongodb", client.Disconnect})
	c.Health.Register("mongodb", database.MongoPinger(client))

	eng := mongoengine.New(client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection), cfg.MongoVectorIndex, logger)
	if cfg.MongoEnsureIndex {
		if err := eng.EnsureIndexes(ctx, cfg.EmbeddingDimensions); err != nil {
			return fmt.Errorf("ensure catalog indexes: %w", err)
		}
	}
	c.Engine = eng
	logger.Info("mongodb catalog initialized",
		slog.String("database", cfg.MongoDatabase),
		slog.String("collection", cfg.MongoCollection),
		slog.String("vector_index", cfg.MongoVectorIndex),
	)

	if cfg.EmbeddingAPIKey == "" {
		logger.Warn("EMBEDDING_API_KEY not set, using offline embeddings")
		c.Embedder = embedding.NewFake(cfg.EmbeddingDimensions)
		return nil
	}
	embedClient := embedding.NewClient(embedding.Config{
		BaseURL:    cfg.EmbeddingBaseURL,
		APIKey:     cfg.EmbeddingAPIKey,
		Model:      cfg.EmbeddingModel,
		Dimensions: cfg.EmbeddingDimensions,
		Timeout:    10 * time.Second,
		MaxRetries: 2,
	}, logger)
	c.Health.RegisterOptional("embeddings", embedClient.Ping)
	c.Embedder = embedClient
	return nil
}

func (c *Components) initSessions(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Store, error) {
	if cfg.SessionBackend == config.BackendMemory {
		logger.Info("in-memory session store initialized")
		return session.NewMemoryStore(), nil
	}

	client, err := database.NewRedisClient(ctx, database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	c.closers = append(c.closers, namedCloser{"redis", func(context.Context) error { return client.Close() }})
	c.Health.Register("redis", database.RedisPinger(client))

	logger.Info("redis session store initialized",
		slog.String("addr", fmt.Sprintf("%s:%d", cfg.RedisHost, cfg.RedisPort)),
		slog.Duration("ttl", cfg.SessionStaleAfter),
	)
	return sessionredis.NewStore(client, cfg.SessionStaleAfter), nil
}

// Close releases every connection in reverse order of creation.
func (c *Components) Close(ctx context.Context) error {
	var errs []error
	for i := len(c.closers) - 1; i >= 0; i-- {
		if err := c.closers[i].close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("close %s: %w", c.closers[i].name, err))
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

func (c *Components) abort(err error) error {
	if cerr := c.Close(context.Background()); cerr != nil {
		return errors.Join(err, cerr)
	}
	return err
}
