package mongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/AyushDoCode/WhatsappChatbot/internal/domain"
)

// productDoc is the stored shape of a product. The scraper writes ObjectID
// keys while older imports used plain strings, so _id is kept untyped.
type productDoc struct {
	ID             any `bson:"_id,omitempty"`
	domain.Product `bson:",inline"`
}

// resultDoc is one row of a vector search aggregation.
type resultDoc struct {
	ID             any `bson:"_id"`
	domain.Product `bson:",inline"`
	Score          float64 `bson:"score"`
}

func (d *productDoc) product() domain.Product {
	p := d.Product
	p.ID = idString(d.ID)
	return p
}

func (d *resultDoc) result() domain.SearchResult {
	p := d.Product
	p.ID = idString(d.ID)
	return domain.NewSearchResult(&p, d.Score)
}

func newProductDoc(p *domain.Product) productDoc {
	return productDoc{ID: docID(p.ID), Product: *p}
}

// docID converts an id string back to the key type it was read from.
func docID(id string) any {
	if oid, err := primitive.ObjectIDFromHex(id); err == nil {
		return oid
	}
	return id
}

func idString(v any) string {
	switch id := v.(type) {
	case nil:
		return ""
	case primitive.ObjectID:
		return id.Hex()
	case string:
		return id
	default:
		return fmt.Sprint(id)
	}
}
