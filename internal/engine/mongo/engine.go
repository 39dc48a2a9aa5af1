package mongo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/internal/engine"
	"github.com/AyushDoCode/WhatsappChatbot/pkg/database"
	apperrors "github.com/AyushDoCode/WhatsappChatbot/pkg/errors"
)

// DefaultVectorIndex is the Atlas vector index name used when none is configured.
const DefaultVectorIndex = "vector_index"

const dbSystem = "mongodb"

// Engine is a MongoDB-backed implementation of engine.Engine. Keyword and
// range search run as filtered finds; vector search uses Atlas $vectorSearch.
type Engine struct {
	coll        *mongo.Collection
	vectorIndex string
	logger      *slog.Logger
}

var _ engine.Engine = (*Engine)(nil)

// New creates an engine over the products collection.
func New(coll *mongo.Collection, vectorIndex string, logger *slog.Logger) *Engine {
	if vectorIndex == "" {
		vectorIndex = DefaultVectorIndex
	}
	return &Engine{coll: coll, vectorIndex: vectorIndex, logger: logger}
}

// EnsureIndexes creates the secondary indexes used by filtered search and,
// when dimensions is positive, the vector search index. An existing vector
// index is left untouched.
func (e *Engine) EnsureIndexes(ctx context.Context, dimensions int) error {
	_, err := e.coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: fieldCategory, Value: 1}}},
		{Keys: bson.D{{Key: "brand", Value: 1}}},
		{Keys: bson.D{{Key: "colors", Value: 1}}},
		{Keys: bson.D{{Key: "indexed_at", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("create indexes: %w", err)
	}
	if dimensions <= 0 {
		return nil
	}

	_, err = e.coll.SearchIndexes().CreateOne(ctx, mongo.SearchIndexModel{
		Definition: vectorIndexDefinition(dimensions),
		Options:    options.SearchIndexes().SetName(e.vectorIndex).SetType("vectorSearch"),
	})
	if err != nil {
		// Self-managed deployments have no search indexes; vector search then
		// degrades to empty results.
		e.logger.Warn("vector index not created",
			slog.String("index", e.vectorIndex),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Find returns the products matching c in natural order.
func (e *Engine) Find(ctx context.Context, c engine.Criteria) (_ []domain.Product, err error) {
	if c.IsUnscoped() {
		return []domain.Product{}, nil
	}
	ctx, end := database.TraceOperation(ctx, dbSystem, e.coll.Name(), "find")
	defer func() { end(err) }()

	opts := options.Find().SetProjection(resultProjection)
	if c.Offset > 0 {
		opts.SetSkip(int64(c.Offset))
	}
	if c.Limit > 0 {
		opts.SetLimit(int64(c.Limit))
	}

	cur, err := e.coll.Find(ctx, criteriaFilter(c), opts)
	if err != nil {
		return nil, fmt.Errorf("find products: %w", err)
	}
	return decodeProducts(ctx, cur)
}

// Count returns the number of products matching c.
func (e *Engine) Count(ctx context.Context, c engine.Criteria) (_ int64, err error) {
	if c.IsUnscoped() {
		return 0, nil
	}
	ctx, end := database.TraceOperation(ctx, dbSystem, e.coll.Name(), "count")
	defer func() { end(err) }()

	n, err := e.coll.CountDocuments(ctx, criteriaFilter(c))
	if err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return n, nil
}

// Get returns a product by id.
func (e *Engine) Get(ctx context.Context, id string) (_ *domain.Product, err error) {
	ctx, end := database.TraceOperation(ctx, dbSystem, e.coll.Name(), "get")
	defer func() { end(err) }()

	var doc productDoc
	err = e.coll.FindOne(ctx, bson.D{{Key: "_id", Value: docID(id)}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, apperrors.NotFound("product", id)
	}
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	p := doc.product()
	return &p, nil
}

// Upsert replaces the whole product document, inserting it when missing.
func (e *Engine) Upsert(ctx context.Context, p *domain.Product) (err error) {
	if p.ID == "" {
		p.ID = primitive.NewObjectID().Hex()
	}
	ctx, end := database.TraceOperation(ctx, dbSystem, e.coll.Name(), "upsert")
	defer func() { end(err) }()

	doc := newProductDoc(p)
	_, err = e.coll.ReplaceOne(ctx, bson.D{{Key: "_id", Value: doc.ID}}, doc, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert product: %w", err)
	}
	return nil
}

// Delete removes a product by id.
func (e *Engine) Delete(ctx context.Context, id string) (err error) {
	ctx, end := database.TraceOperation(ctx, dbSystem, e.coll.Name(), "delete")
	defer func() { end(err) }()

	if _, err = e.coll.DeleteOne(ctx, bson.D{{Key: "_id", Value: docID(id)}}); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}

// VectorSearch runs the $vectorSearch pipeline for q.
func (e *Engine) VectorSearch(ctx context.Context, q engine.VectorQuery) (_ []domain.SearchResult, err error) {
	out := make([]domain.SearchResult, 0)
	if len(q.Vector) == 0 || q.Limit <= 0 {
		return out, nil
	}
	ctx, end := database.TraceOperation(ctx, dbSystem, e.coll.Name(), "aggregate.vector")
	defer func() { end(err) }()

	cur, err := e.coll.Aggregate(ctx, vectorPipeline(e.vectorIndex, q))
	if err != nil {
		return nil, fmt.Errorf("vector search: %w", err)
	}
	defer func() { _ = cur.Close(ctx) }()

	for cur.Next(ctx) {
		var doc resultDoc
		if err = cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode vector result: %w", err)
		}
		out = append(out, doc.result())
	}
	if err = cur.Err(); err != nil {
		return nil, fmt.Errorf("vector search cursor: %w", err)
	}
	return out, nil
}

// ListUnindexed returns up to limit products without an embedding.
func (e *Engine) ListUnindexed(ctx context.Context, limit int) (_ []domain.Product, err error) {
	ctx, end := database.TraceOperation(ctx, dbSystem, e.coll.Name(), "find.unindexed")
	defer func() { end(err) }()

	opts := options.Find()
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}
	cur, err := e.coll.Find(ctx, bson.D{{Key: fieldEmbedding, Value: bson.D{{Key: "$exists", Value: false}}}}, opts)
	if err != nil {
		return nil, fmt.Errorf("list unindexed: %w", err)
	}
	return decodeProducts(ctx, cur)
}

// SetEmbedding writes the searchable text, embedding and indexing time.
func (e *Engine) SetEmbedding(ctx context.Context, id, text string, vector []float64, at time.Time) (err error) {
	ctx, end := database.TraceOperation(ctx, dbSystem, e.coll.Name(), "update.embedding")
	defer func() { end(err) }()

	res, err := e.coll.UpdateOne(ctx,
		bson.D{{Key: "_id", Value: docID(id)}},
		bson.D{{Key: "$set", Value: bson.D{
			{Key: fieldEmbedding, Value: vector},
			{Key: "searchable_text", Value: text},
			{Key: "indexed_at", Value: at.UTC()},
		}}},
	)
	if err != nil {
		return fmt.Errorf("set embedding: %w", err)
	}
	if res.MatchedCount == 0 {
		return apperrors.NotFound("product", id)
	}
	return nil
}

// Stats counts all products and those with an embedding.
func (e *Engine) Stats(ctx context.Context) (_ domain.IndexStats, err error) {
	ctx, end := database.TraceOperation(ctx, dbSystem, e.coll.Name(), "count.stats")
	defer func() { end(err) }()

	total, err := e.coll.CountDocuments(ctx, bson.D{})
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("count products: %w", err)
	}
	indexed, err := e.coll.CountDocuments(ctx, bson.D{{Key: fieldEmbedding, Value: bson.D{{Key: "$exists", Value: true}}}})
	if err != nil {
		return domain.IndexStats{}, fmt.Errorf("count indexed products: %w", err)
	}
	return domain.NewIndexStats(total, indexed), nil
}

func decodeProducts(ctx context.Context, cur *mongo.Cursor) ([]domain.Product, error) {
	defer func() { _ = cur.Close(ctx) }()

	out := make([]domain.Product, 0)
	for cur.Next(ctx) {
		var doc productDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode product: %w", err)
		}
		out = append(out, doc.product())
	}
	if err := cur.Err(); err != nil {
		return nil, fmt.Errorf("product cursor: %w", err)
	}
	return out, nil
}
