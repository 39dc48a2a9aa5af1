package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/internal/embedding"
	"github.com/AyushDoCode/WhatsappChatbot/internal/engine"
	"github.com/AyushDoCode/WhatsappChatbot/internal/engine/memory"
	"github.com/AyushDoCode/WhatsappChatbot/internal/session"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/logger"
)

const testDims = 32

type fixture struct {
	svc      *SearchService
	eng      *memory.Engine
	catalog  *countingCatalog
	embedder *embedding.Fake
	sessions *session.MemoryStore
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	eng := memory.New()
	counting := &countingCatalog{Catalog: eng}
	fake := embedding.NewFake(testDims)
	sessions := session.NewMemoryStore()
	svc := NewSearchService(counting, eng, fake, sessions, Config{StaleAfter: 30 * time.Minute}, logger.Discard())
	return &fixture{svc: svc, eng: eng, catalog: counting, embedder: fake, sessions: sessions}
}

// add inserts a product with one image unless images are given explicitly.
func (f *fixture) add(t *testing.T, p domain.Product) {
	t.Helper()
	if p.ImageURLs == nil {
		p.ImageURLs = []string{"https://cdn.example/" + p.ID + ".jpg"}
	}
	require.NoError(t, f.eng.Upsert(context.Background(), &p))
}

// embedAll indexes every product the way the batch indexer does.
func (f *fixture) embedAll(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	pending, err := f.eng.ListUnindexed(ctx, 0)
	require.NoError(t, err)
	for i := range pending {
		text := embedding.SearchableText(&pending[i])
		vec, err := f.embedder.Embed(ctx, text)
		require.NoError(t, err)
		require.NoError(t, f.eng.SetEmbedding(ctx, pending[i].ID, text, vec, time.Now()))
	}
}

func watch(id, name, category string, price float64) domain.Product {
	return domain.Product{ID: id, Name: name, CategoryKey: category, Price: domain.NumericPrice(price)}
}

// seedMensWatches adds n mens watches named "Classic Watch <i>".
func (f *fixture) seedMensWatches(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		f.add(t, watch(fmt.Sprintf("w%02d", i), fmt.Sprintf("Classic Watch %02d", i), "mens_watch", 1000+float64(i)))
	}
}

func ids(results []domain.SearchResult) []string {
	out := make([]string, 0, len(results))
	for _, r := range results {
		out = append(out, r.ID)
	}
	return out
}

type countingCatalog struct {
	engine.Catalog
	mu    sync.Mutex
	finds int
	err   error
	block bool
}

func (c *countingCatalog) Find(ctx context.Context, cr engine.Criteria) ([]domain.Product, error) {
	c.mu.Lock()
	c.finds++
	err, block := c.err, c.block
	c.mu.Unlock()

	if block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if err != nil {
		return nil, err
	}
	return c.Catalog.Find(ctx, cr)
}

func (c *countingCatalog) findCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.finds
}

type failingSessions struct {
	session.Store
	saveErr error
	getErr  error
}

func (s *failingSessions) Save(ctx context.Context, sess *domain.PaginationSession) error {
	if s.saveErr != nil {
		return s.saveErr
	}
	return s.Store.Save(ctx, sess)
}

func (s *failingSessions) Get(ctx context.Context, id string) (*domain.PaginationSession, error) {
	if s.getErr != nil {
		return nil, s.getErr
	}
	return s.Store.Get(ctx, id)
}

type stubRewriter map[string]string

func (r stubRewriter) Rewrite(_ context.Context, q string) string {
	if out, ok := r[q]; ok {
		return out
	}
	return q
}
