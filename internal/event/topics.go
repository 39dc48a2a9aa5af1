package event

import pkgkafka "github.com/AyushDoCode/WhatsappChatbot/pkg/kafka"

// Catalog topics. Each topic carries one event type named like the topic.
var (
	TopicProductUpserted = pkgkafka.Topic("catalog", "product", "upserted")
	TopicProductDeleted  = pkgkafka.Topic("catalog", "product", "deleted")
	TopicProductIndexed  = pkgkafka.Topic("catalog", "product", "indexed")
)

// Source identifies this service in produced envelopes.
const Source = "catalog-search"

// ProductIndexedData is the payload of a product.indexed event.
type ProductIndexedData struct {
	ID         string `json:"id"`
	Dimensions int    `json:"dimensions"`
	IndexedAt  string `json:"indexed_at"`
}
