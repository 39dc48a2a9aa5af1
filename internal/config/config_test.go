package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, 8001, cfg.HTTPPort)
	assert.Equal(t, BackendMongo, cfg.CatalogBackend)
	assert.Equal(t, "watchvine_refined", cfg.MongoDatabase)
	assert.Equal(t, "products", cfg.MongoCollection)
	assert.Equal(t, "vector_index", cfg.MongoVectorIndex)
	assert.Equal(t, BackendRedis, cfg.SessionBackend)
	assert.Equal(t, 30*time.Minute, cfg.SessionStaleAfter)
	assert.Equal(t, "text-embedding-004", cfg.EmbeddingModel)
	assert.Equal(t, 768, cfg.EmbeddingDimensions)
	assert.Equal(t, 20*time.Second, cfg.SearchTimeout)
	assert.Equal(t, 50, cfg.SearchPoolSize)
	assert.Equal(t, 100, cfg.VectorCandidates)
	assert.Equal(t, 3, cfg.HybridCandidateFactor)
	assert.Equal(t, 10, cfg.BatchSize)
	assert.Equal(t, 100*time.Millisecond, cfg.IndexItemDelay)
	assert.Equal(t, time.Second, cfg.IndexBatchDelay)
	assert.Equal(t, 50, cfg.IndexBatchSize)
	assert.False(t, cfg.KafkaEnabled)
	assert.False(t, cfg.EnhancerEnabled)
}

func TestLoad_MemoryBackends(t *testing.T) {
	t.Setenv("CATALOG_BACKEND", "memory")
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("SESSION_STALE_AFTER", "0s")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, BackendMemory, cfg.CatalogBackend)
	assert.Equal(t, BackendMemory, cfg.SessionBackend)
	assert.Zero(t, cfg.SessionStaleAfter)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		envs map[string]string
		want string
	}{
		{"port", map[string]string{"HTTP_PORT": "0"}, "invalid HTTP port"},
		{"catalog backend", map[string]string{"CATALOG_BACKEND": "elasticsearch"}, "CATALOG_BACKEND must be"},
		{"session backend", map[string]string{"SESSION_BACKEND": "memcached"}, "SESSION_BACKEND must be"},
		{"pool size", map[string]string{"SEARCH_POOL_SIZE": "0"}, "SEARCH_POOL_SIZE must be positive"},
		{"batch size", map[string]string{"BATCH_SIZE": "-1"}, "BATCH_SIZE must be positive"},
		{"candidate factor", map[string]string{"HYBRID_CANDIDATE_FACTOR": "2"}, "HYBRID_CANDIDATE_FACTOR must be at least 3"},
		{"pool below batch", map[string]string{"SEARCH_POOL_SIZE": "5", "BATCH_SIZE": "10"}, "must not be smaller than BATCH_SIZE"},
		{"stale after", map[string]string{"SESSION_STALE_AFTER": "-1m"}, "SESSION_STALE_AFTER"},
		{"delivery url", map[string]string{"DELIVERY_BASE_URL": "not a url"}, "DELIVERY_BASE_URL"},
		{"sample rate", map[string]string{"OTEL_SAMPLE_RATE": "2.0"}, "OTEL_SAMPLE_RATE must be between 0.0 and 1.0"},
		{"unparsable", map[string]string{"SEARCH_TIMEOUT": "soon"}, "load catalog search config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envs {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			assert.Nil(t, cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoad_KafkaBrokers(t *testing.T) {
	t.Setenv("KAFKA_ENABLED", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load()

	require.NoError(t, err)
	assert.True(t, cfg.KafkaEnabled)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}
