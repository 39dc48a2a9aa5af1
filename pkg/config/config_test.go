package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Port       int           `env:"TEST_CFG_PORT" envDefault:"8001"`
	Database   string        `env:"TEST_CFG_DATABASE" envDefault:"watchvine_refined"`
	StaleAfter time.Duration `env:"TEST_CFG_STALE_AFTER" envDefault:"30m"`
	Brokers    []string      `env:"TEST_CFG_BROKERS" envSeparator:"," envDefault:"localhost:9092"`
}

func TestLoad_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "watchvine_refined", cfg.Database)
	assert.Equal(t, 30*time.Minute, cfg.StaleAfter)
	assert.Equal(t, []string{"localhost:9092"}, cfg.Brokers)
}

func TestLoad_FromEnvVars(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "9090")
	t.Setenv("TEST_CFG_STALE_AFTER", "0s")
	t.Setenv("TEST_CFG_BROKERS", "k1:9092,k2:9092")

	var cfg testConfig
	require.NoError(t, Load(&cfg))

	assert.Equal(t, 9090, cfg.Port)
	assert.Zero(t, cfg.StaleAfter)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
}

func TestLoad_InvalidValue(t *testing.T) {
	t.Setenv("TEST_CFG_PORT", "not-a-number")

	var cfg testConfig
	err := Load(&cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse config")
}

func TestLoadDotEnv_MissingFileIgnored(t *testing.T) {
	assert.NoError(t, LoadDotEnv(filepath.Join(t.TempDir(), "absent.env")))
}

func TestLoadDotEnv_DoesNotOverrideEnvironment(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.env")
	require.NoError(t, os.WriteFile(path, []byte("TEST_CFG_DATABASE=from_file\nTEST_CFG_PORT=7000\n"), 0o600))
	t.Setenv("TEST_CFG_PORT", "9999")
	t.Cleanup(func() { _ = os.Unsetenv("TEST_CFG_DATABASE") })

	require.NoError(t, LoadDotEnv(path))

	var cfg testConfig
	require.NoError(t, Load(&cfg))
	assert.Equal(t, "from_file", cfg.Database)
	assert.Equal(t, 9999, cfg.Port)
}
