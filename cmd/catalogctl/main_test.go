package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AyushDoCode/WhatsappChatbot/internal/app"
	"github.com/AyushDoCode/WhatsappChatbot/internal/config"
	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/internal/service"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/logger"
)

// seededBuild returns a build func handing out one shared in-memory
// catalog holding n mens watches.
func seededBuild(t *testing.T, n int) buildFunc {
	t.Helper()
	t.Setenv("CATALOG_BACKEND", "memory")
	t.Setenv("SESSION_BACKEND", "memory")
	t.Setenv("EMBEDDING_DIMENSIONS", "32")
	t.Setenv("INDEX_ITEM_DELAY", "0s")
	t.Setenv("INDEX_BATCH_DELAY", "0s")

	cfg, err := config.Load()
	require.NoError(t, err)
	ctx := context.Background()
	comps, err := app.Build(ctx, cfg, logger.Discard())
	require.NoError(t, err)

	for i := 0; i < n; i++ {
		_, err := comps.Products.Upsert(ctx, service.UpsertInput{
			ID:          fmt.Sprintf("w%02d", i),
			Name:        fmt.Sprintf("Classic Watch %02d", i),
			CategoryKey: "mens_watch",
			Price:       domain.NumericPrice(1000 + float64(i)),
			ImageURLs:   []string{"https://cdn.example/w.jpg"},
		})
		require.NoError(t, err)
	}

	return func(context.Context, *config.Config, *slog.Logger) (*app.Components, error) {
		return comps, nil
	}
}

func run(t *testing.T, build buildFunc, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, build)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--env-file", "testdata/missing.env", "--log-level", "error"}, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestIndexThenStats(t *testing.T) {
	build := seededBuild(t, 3)

	out, err := run(t, build, "stats", "--json")
	require.NoError(t, err)
	var stats domain.IndexStats
	require.NoError(t, json.Unmarshal([]byte(out), &stats))
	assert.Equal(t, int64(3), stats.Total)
	assert.Zero(t, stats.Indexed)

	out, err = run(t, build, "index")
	require.NoError(t, err)
	assert.Contains(t, out, "indexed:   3")
	assert.Contains(t, out, "coverage:  3/3 (100.00%)")

	out, err = run(t, build, "stats")
	require.NoError(t, err)
	assert.Contains(t, out, "coverage:         100.00%")
}

func TestSearch_Keyword(t *testing.T) {
	build := seededBuild(t, 12)

	out, err := run(t, build, "search", "classic", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "w00")
	assert.Contains(t, out, "5 of 12")
	assert.NotContains(t, out, "w05")
}

func TestSearch_RangeNeedsBounds(t *testing.T) {
	build := seededBuild(t, 1)

	_, err := run(t, build, "search", "--kind", "range", "--category", "mens_watch", "--min", "10")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--min and --max")

	out, err := run(t, build, "search", "--kind", "range", "--category", "mens_watch", "--min", "0", "--max", "5000", "--json")
	require.NoError(t, err)
	assert.Contains(t, out, `"total_found": 1`)
}

func TestSearch_UnknownKind(t *testing.T) {
	build := seededBuild(t, 1)

	_, err := run(t, build, "search", "classic", "--kind", "fuzzy")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown search kind")
}

func TestSearch_NoResults(t *testing.T) {
	build := seededBuild(t, 2)

	out, err := run(t, build, "search", "zodiac")
	require.NoError(t, err)
	assert.Contains(t, out, "no products found")
}

func TestImport_ArrayFile(t *testing.T) {
	build := seededBuild(t, 0)
	path := filepath.Join(t.TempDir(), "products.json")
	require.NoError(t, os.WriteFile(path, []byte(`[
		{"id":"a1","name":"Fossi_l Grant","category":"Mens Watch","price":"1499","image_urls":["https://cdn.example/a1.jpg"]},
		{"id":"a2","name":"Leather Wallet","category_key":"wallet","price":799},
		{"id":"","name":"No Id"}
	]`), 0o600))

	out, err := run(t, build, "import", path)
	require.NoError(t, err)
	assert.Contains(t, out, "stored:  2")
	assert.Contains(t, out, "skipped: 1")

	out, err = run(t, build, "search", "fossil", "--category", "mens_watch")
	require.NoError(t, err)
	assert.Contains(t, out, "a1")
}

func TestDecodeProducts_Stream(t *testing.T) {
	var got []string
	err := decodeProducts(strings.NewReader("{\"id\":\"x\"}\n{\"id\":\"y\"}\n"), func(p service.UpsertInput) error {
		got = append(got, p.ID)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"x", "y"}, got)

	require.NoError(t, decodeProducts(strings.NewReader("  \n"), func(service.UpsertInput) error {
		t.Fatal("unexpected product")
		return nil
	}))

	assert.Error(t, decodeProducts(strings.NewReader("[{\"id\":"), func(service.UpsertInput) error { return nil }))
}
