package config

import (
	"fmt"
	"net/url"
	"time"

	pkgconfig "github.com/AyushDoCode/WhatsappChatbot/pkg/config"
)

// Backends.
const (
	BackendMongo  = "mongo"
	BackendRedis  = "redis"
	BackendMemory = "memory"
)

// Config holds all configuration for the catalog search service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"HTTP_PORT" envDefault:"8001"`

	// Catalog store (mongo or memory)
	CatalogBackend    string        `env:"CATALOG_BACKEND" envDefault:"mongo"`
	MongoURI          string        `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase     string        `env:"MONGO_DATABASE" envDefault:"watchvine_refined"`
	MongoCollection   string        `env:"MONGO_COLLECTION" envDefault:"products"`
	MongoVectorIndex  string        `env:"MONGO_VECTOR_INDEX" envDefault:"vector_index"`
	MongoMaxPoolSize  uint64        `env:"MONGO_MAX_POOL_SIZE" envDefault:"50"`
	MongoEnsureIndex  bool          `env:"MONGO_ENSURE_INDEXES" envDefault:"false"`
	SlowQueryThreshMs int           `env:"LOG_SLOW_QUERY_MS" envDefault:"500"`
	ConnectTimeout    time.Duration `env:"CONNECT_TIMEOUT" envDefault:"10s"`

	// Pagination sessions (redis or memory)
	SessionBackend    string        `env:"SESSION_BACKEND" envDefault:"redis"`
	RedisHost         string        `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort         int           `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword     string        `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB           int           `env:"REDIS_DB" envDefault:"0"`
	SessionStaleAfter time.Duration `env:"SESSION_STALE_AFTER" envDefault:"30m"`

	// Embeddings (OpenAI-compatible)
	EmbeddingBaseURL    string `env:"EMBEDDING_BASE_URL" envDefault:"https://generativelanguage.googleapis.com/v1beta/openai/"`
	EmbeddingAPIKey     string `env:"EMBEDDING_API_KEY"`
	EmbeddingModel      string `env:"EMBEDDING_MODEL" envDefault:"text-embedding-004"`
	EmbeddingDimensions int    `env:"EMBEDDING_DIMENSIONS" envDefault:"768"`

	// Query rewriting
	EnhancerEnabled bool   `env:"ENHANCER_ENABLED" envDefault:"false"`
	EnhancerBaseURL string `env:"ENHANCER_BASE_URL"`
	EnhancerAPIKey  string `env:"ENHANCER_API_KEY"`
	EnhancerModel   string `env:"ENHANCER_MODEL" envDefault:"gemini-2.0-flash"`

	// Search tuning
	SearchTimeout         time.Duration `env:"SEARCH_TIMEOUT" envDefault:"20s"`
	SearchPoolSize        int           `env:"SEARCH_POOL_SIZE" envDefault:"50"`
	VectorCandidates      int           `env:"VECTOR_CANDIDATES" envDefault:"100"`
	HybridCandidateFactor int           `env:"HYBRID_CANDIDATE_FACTOR" envDefault:"3"`
	BatchSize             int           `env:"BATCH_SIZE" envDefault:"10"`

	// Batch indexer
	IndexItemDelay  time.Duration `env:"INDEX_ITEM_DELAY" envDefault:"100ms"`
	IndexBatchDelay time.Duration `env:"INDEX_BATCH_DELAY" envDefault:"1s"`
	IndexBatchSize  int           `env:"INDEX_BATCH_SIZE" envDefault:"50"`
	IndexMaxItems   int           `env:"INDEX_MAX_ITEMS" envDefault:"0"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`
	KafkaGroupID string   `env:"KAFKA_GROUP_ID" envDefault:"catalog-search"`

	// WhatsApp delivery (Evolution API). An empty base URL logs instead of sending.
	DeliveryBaseURL  string `env:"DELIVERY_BASE_URL"`
	DeliveryAPIKey   string `env:"DELIVERY_API_KEY"`
	DeliveryInstance string `env:"DELIVERY_INSTANCE" envDefault:"watchvine"`

	// Rate limiting
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"20"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"40"`

	// OpenTelemetry
	TracingEnabled bool    `env:"TRACING_ENABLED" envDefault:"false"`
	OTLPEndpoint   string  `env:"OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load catalog search config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	switch c.CatalogBackend {
	case BackendMongo:
		if c.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required")
		}
		if c.MongoDatabase == "" || c.MongoCollection == "" {
			return fmt.Errorf("MONGO_DATABASE and MONGO_COLLECTION are required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("CATALOG_BACKEND must be %q or %q, got %q", BackendMongo, BackendMemory, c.CatalogBackend)
	}
	switch c.SessionBackend {
	case BackendRedis:
		if c.RedisHost == "" {
			return fmt.Errorf("REDIS_HOST is required")
		}
	case BackendMemory:
	default:
		return fmt.Errorf("SESSION_BACKEND must be %q or %q, got %q", BackendRedis, BackendMemory, c.SessionBackend)
	}
	if c.SessionStaleAfter < 0 {
		return fmt.Errorf("SESSION_STALE_AFTER must not be negative")
	}
	if c.EmbeddingDimensions < 0 {
		return fmt.Errorf("EMBEDDING_DIMENSIONS must not be negative, got %d", c.EmbeddingDimensions)
	}

	for name, v := range map[string]int{
		"SEARCH_POOL_SIZE":  c.SearchPoolSize,
		"VECTOR_CANDIDATES": c.VectorCandidates,
		"BATCH_SIZE":        c.BatchSize,
		"INDEX_BATCH_SIZE":  c.IndexBatchSize,
	} {
		if v <= 0 {
			return fmt.Errorf("%s must be positive, got %d", name, v)
		}
	}
	if c.SearchTimeout <= 0 {
		return fmt.Errorf("SEARCH_TIMEOUT must be positive")
	}
	if c.HybridCandidateFactor < 3 {
		return fmt.Errorf("HYBRID_CANDIDATE_FACTOR must be at least 3, got %d", c.HybridCandidateFactor)
	}
	if c.SearchPoolSize < c.BatchSize {
		return fmt.Errorf("SEARCH_POOL_SIZE (%d) must not be smaller than BATCH_SIZE (%d)", c.SearchPoolSize, c.BatchSize)
	}
	if c.IndexMaxItems < 0 {
		return fmt.Errorf("INDEX_MAX_ITEMS must not be negative, got %d", c.IndexMaxItems)
	}
	if c.IndexItemDelay < 0 || c.IndexBatchDelay < 0 {
		return fmt.Errorf("INDEX_ITEM_DELAY and INDEX_BATCH_DELAY must not be negative")
	}

	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.DeliveryBaseURL != "" {
		if _, err := url.ParseRequestURI(c.DeliveryBaseURL); err != nil {
			return fmt.Errorf("DELIVERY_BASE_URL is not a valid URL: %w", err)
		}
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	return nil
}
