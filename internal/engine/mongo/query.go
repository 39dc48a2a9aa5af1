package mongo

import (
	"regexp"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
	"github.com/AyushDoCode/WhatsappChatbot/internal/engine"
	"github.com/AyushDoCode/WhatsappChatbot/internal/normalize"
)

const (
	fieldName      = "name"
	fieldCategory  = "category_key"
	fieldPrice     = "price"
	fieldEmbedding = "text_embedding"
)

// resultProjection lists the fields returned by every search.
var resultProjection = bson.D{
	{Key: "name", Value: 1},
	{Key: "brand", Value: 1},
	{Key: "price", Value: 1},
	{Key: "image_urls", Value: 1},
	{Key: "url", Value: 1},
	{Key: "category", Value: 1},
	{Key: "category_key", Value: 1},
	{Key: "colors", Value: 1},
	{Key: "styles", Value: 1},
	{Key: "materials", Value: 1},
	{Key: "belt_type", Value: 1},
	{Key: "ai_category", Value: 1},
	{Key: "ai_gender_target", Value: 1},
	{Key: "description", Value: 1},
}

// numericPrice coerces the text-or-number price to a double. Values that do
// not parse become null instead of failing the query.
var numericPrice = bson.D{{Key: "$convert", Value: bson.D{
	{Key: "input", Value: "$" + fieldPrice},
	{Key: "to", Value: "double"},
	{Key: "onError", Value: nil},
	{Key: "onNull", Value: nil},
}}}

// priceCondition returns an $expr bounding the coerced price, or nil when
// neither bound is set. Products whose price does not parse never match.
func priceCondition(minPrice, maxPrice *float64) bson.D {
	if minPrice == nil && maxPrice == nil {
		return nil
	}
	conds := bson.A{bson.D{{Key: "$ne", Value: bson.A{numericPrice, nil}}}}
	if minPrice != nil {
		conds = append(conds, bson.D{{Key: "$gte", Value: bson.A{numericPrice, *minPrice}}})
	}
	if maxPrice != nil {
		conds = append(conds, bson.D{{Key: "$lte", Value: bson.A{numericPrice, *maxPrice}}})
	}
	return bson.D{{Key: "$expr", Value: bson.D{{Key: "$and", Value: conds}}}}
}

func regexCondition(field, pattern string) bson.D {
	return bson.D{{Key: field, Value: bson.D{
		{Key: "$regex", Value: pattern},
		{Key: "$options", Value: "i"},
	}}}
}

// criteriaFilter builds the conjunctive keyword/range filter.
func criteriaFilter(c engine.Criteria) bson.D {
	conds := make(bson.A, 0, len(c.Terms)+2)
	for _, t := range c.Terms {
		conds = append(conds, regexCondition(fieldName, normalize.TermPattern(t)))
	}
	if c.CategoryKey != "" {
		conds = append(conds, bson.D{{Key: fieldCategory, Value: c.CategoryKey}})
	}
	if pc := priceCondition(c.MinPrice, c.MaxPrice); pc != nil {
		conds = append(conds, pc)
	}
	return and(conds)
}

// filtersMatch builds the hybrid post-filter, or nil when f is empty.
func filtersMatch(f domain.SearchFilters) bson.D {
	conds := bson.A{}
	if len(f.Colors) > 0 {
		conds = append(conds, bson.D{{Key: "colors", Value: bson.D{{Key: "$in", Value: f.Colors}}}})
	}
	if f.Brand != "" {
		conds = append(conds, regexCondition("brand", regexp.QuoteMeta(f.Brand)))
	}
	if f.BeltType != "" {
		conds = append(conds, bson.D{{Key: "belt_type", Value: f.BeltType}})
	}
	if f.CategoryKey != "" {
		conds = append(conds, bson.D{{Key: fieldCategory, Value: f.CategoryKey}})
	}
	if f.AICategory != "" {
		conds = append(conds, bson.D{{Key: "ai_category", Value: f.AICategory}})
	}
	if pc := priceCondition(f.MinPrice, f.MaxPrice); pc != nil {
		conds = append(conds, pc)
	}
	if len(conds) == 0 {
		return nil
	}
	return and(conds)
}

func and(conds bson.A) bson.D {
	switch len(conds) {
	case 0:
		return bson.D{}
	case 1:
		return conds[0].(bson.D)
	default:
		return bson.D{{Key: "$and", Value: conds}}
	}
}

// vectorPipeline builds the $vectorSearch aggregation: nearest neighbours,
// optional post-filter, projection with the similarity score, final limit.
func vectorPipeline(index string, q engine.VectorQuery) mongo.Pipeline {
	candidates := q.Candidates
	if candidates < q.Limit {
		candidates = q.Limit
	}
	numCandidates := q.NumCandidates
	if numCandidates < candidates {
		numCandidates = candidates
	}

	pipeline := mongo.Pipeline{
		{{Key: "$vectorSearch", Value: bson.D{
			{Key: "index", Value: index},
			{Key: "path", Value: fieldEmbedding},
			{Key: "queryVector", Value: q.Vector},
			{Key: "numCandidates", Value: numCandidates},
			{Key: "limit", Value: candidates},
		}}},
	}
	if m := filtersMatch(q.Filters); m != nil {
		pipeline = append(pipeline, bson.D{{Key: "$match", Value: m}})
	}

	project := make(bson.D, 0, len(resultProjection)+1)
	project = append(project, resultProjection...)
	project = append(project, bson.E{Key: "score", Value: bson.D{{Key: "$meta", Value: "vectorSearchScore"}}})

	return append(pipeline,
		bson.D{{Key: "$project", Value: project}},
		bson.D{{Key: "$limit", Value: q.Limit}},
	)
}

// vectorIndexDefinition is the Atlas vector index over product embeddings,
// with the post-filter fields declared as filters.
func vectorIndexDefinition(dimensions int) bson.D {
	return bson.D{{Key: "fields", Value: bson.A{
		bson.D{
			{Key: "type", Value: "vector"},
			{Key: "path", Value: fieldEmbedding},
			{Key: "numDimensions", Value: dimensions},
			{Key: "similarity", Value: "cosine"},
		},
		bson.D{{Key: "type", Value: "filter"}, {Key: "path", Value: fieldCategory}},
		bson.D{{Key: "type", Value: "filter"}, {Key: "path", Value: "brand"}},
	}}}
}
