// Package indexer is the batch job that embeds products lacking a vector.
// Requests to the embedding service are rate bounded: a fixed delay between
// items and a longer pause between batches.
package indexer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"golang.org/x/time/rate"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/internal/embedding"
	"github.com/AyushDoCode/WhatsappChatbot/internal/engine"
	"github.com/AyushDoCode/WhatsappChatbot/internal/event"
	pkgkafka "github.com/AyushDoCode/WhatsappChatbot/pkg/kafka"
)

var (
	indexedItems = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_index_items_total",
			Help: "Products processed by the indexer by outcome",
		},
		[]string{"outcome"},
	)
	indexCoverage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "catalog_index_coverage_percent",
			Help: "Percentage of catalog products carrying an embedding",
		},
	)
)

// Config bounds the indexer's request rate.
type Config struct {
	ItemDelay  time.Duration
	BatchDelay time.Duration
	BatchSize  int
	// MaxItems stops the run after this many products. 0 means no limit.
	MaxItems int
}

// DefaultConfig returns the production pacing.
func DefaultConfig() Config {
	return Config{
		ItemDelay:  100 * time.Millisecond,
		BatchDelay: time.Second,
		BatchSize:  50,
	}
}

// Report summarizes one run.
type Report struct {
	Processed int               `json:"processed"`
	Indexed   int               `json:"indexed"`
	Failed    int               `json:"failed"`
	Skipped   int               `json:"skipped"`
	Batches   int               `json:"batches"`
	Duration  time.Duration     `json:"duration"`
	Stats     domain.IndexStats `json:"stats"`
}

// Indexer embeds unindexed products.
type Indexer struct {
	index     engine.VectorIndex
	embedder  embedding.Embedder
	publisher pkgkafka.Publisher
	limiter   *rate.Limiter
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

// New creates an indexer. publisher may be nil when events are disabled.
func New(index engine.VectorIndex, embedder embedding.Embedder, publisher pkgkafka.Publisher, cfg Config, logger *slog.Logger) *Indexer {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultConfig().BatchSize
	}
	limit := rate.Inf
	if cfg.ItemDelay > 0 {
		limit = rate.Every(cfg.ItemDelay)
	}
	return &Indexer{
		index:     index,
		embedder:  embedder,
		publisher: publisher,
		limiter:   rate.NewLimiter(limit, 1),
		cfg:       cfg,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Run indexes batches until no unattempted product lacks an embedding, the
// item limit is hit or ctx is canceled. Products that fail are attempted
// once per run.
func (ix *Indexer) Run(ctx context.Context) (Report, error) {
	start := time.Now()
	var report Report
	attempted := make(map[string]bool)

	ix.logger.InfoContext(ctx, "indexing started",
		slog.Int("batch_size", ix.cfg.BatchSize),
		slog.Duration("item_delay", ix.cfg.ItemDelay),
	)

	for {
		batch, err := ix.index.ListUnindexed(ctx, ix.cfg.BatchSize+len(attempted))
		if err != nil {
			report.Duration = time.Since(start)
			return report, fmt.Errorf("list unindexed products: %w", err)
		}

		pending := batch[:0]
		for _, p := range batch {
			if !attempted[p.ID] {
				pending = append(pending, p)
			}
		}
		if len(pending) == 0 {
			break
		}
		if len(pending) > ix.cfg.BatchSize {
			pending = pending[:ix.cfg.BatchSize]
		}

		if report.Batches > 0 {
			if err := sleep(ctx, ix.cfg.BatchDelay); err != nil {
				report.Duration = time.Since(start)
				return report, err
			}
		}
		report.Batches++

		for i := range pending {
			if ix.cfg.MaxItems > 0 && report.Processed >= ix.cfg.MaxItems {
				return ix.finish(ctx, report, start)
			}
			if err := ix.limiter.Wait(ctx); err != nil {
				report.Duration = time.Since(start)
				return report, err
			}
			p := &pending[i]
			attempted[p.ID] = true
			report.Processed++
			ix.indexOne(ctx, p, &report)
		}

		ix.logger.InfoContext(ctx, "batch indexed",
			slog.Int("batch", report.Batches),
			slog.Int("indexed", report.Indexed),
			slog.Int("failed", report.Failed),
		)
	}

	return ix.finish(ctx, report, start)
}

func (ix *Indexer) indexOne(ctx context.Context, p *domain.Product, report *Report) {
	text := embedding.SearchableText(p)
	if text == "" {
		report.Skipped++
		indexedItems.WithLabelValues("skipped").Inc()
		return
	}

	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		report.Failed++
		indexedItems.WithLabelValues("failed").Inc()
		ix.logger.WarnContext(ctx, "embedding failed",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	at := ix.now()
	if err := ix.index.SetEmbedding(ctx, p.ID, text, vec, at); err != nil {
		report.Failed++
		indexedItems.WithLabelValues("failed").Inc()
		ix.logger.WarnContext(ctx, "storing embedding failed",
			slog.String("product_id", p.ID),
			slog.String("error", err.Error()),
		)
		return
	}
	report.Indexed++
	indexedItems.WithLabelValues("indexed").Inc()
	ix.publishIndexed(ctx, p.ID, len(vec), at)
}

func (ix *Indexer) publishIndexed(ctx context.Context, id string, dims int, at time.Time) {
	if ix.publisher == nil {
		return
	}
	evt, err := pkgkafka.NewEvent(event.TopicProductIndexed, id, event.Source, event.ProductIndexedData{
		ID:         id,
		Dimensions: dims,
		IndexedAt:  at.Format(time.RFC3339),
	})
	if err == nil {
		err = ix.publisher.Publish(ctx, event.TopicProductIndexed, evt)
	}
	if err != nil {
		ix.logger.WarnContext(ctx, "publish product.indexed failed",
			slog.String("product_id", id),
			slog.String("error", err.Error()),
		)
	}
}

func (ix *Indexer) finish(ctx context.Context, report Report, start time.Time) (Report, error) {
	report.Duration = time.Since(start)
	stats, err := ix.Stats(ctx)
	if err != nil {
		return report, err
	}
	report.Stats = stats

	ix.logger.InfoContext(ctx, "indexing finished",
		slog.Int("processed", report.Processed),
		slog.Int("indexed", report.Indexed),
		slog.Int("failed", report.Failed),
		slog.Float64("coverage", stats.Percentage),
		slog.Duration("duration", report.Duration),
	)
	return report, nil
}

// Stats reports embedding coverage and refreshes the coverage gauge.
func (ix *Indexer) Stats(ctx context.Context) (domain.IndexStats, error) {
	stats, err := ix.index.Stats(ctx)
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("index stats: %w", err)
	}
	indexCoverage.Set(stats.Percentage)
	return stats, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsCanceled reports whether err ended a run early because ctx was done.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
