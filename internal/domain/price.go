package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/bsontype"
)

// Price is a catalog price as stored by the scraper: either text such as
// "1234.00" or a number. Raw keeps the stored text so it round-trips
// unchanged. Valid is false when the value cannot be coerced to a number;
// such products never satisfy a price bound.
type Price struct {
	Raw   string
	Value float64
	Valid bool
}

// ParsePrice coerces stored text the way the catalog store does: the whole
// string must be a finite decimal number.
func ParsePrice(raw string) Price {
	p := Price{Raw: raw}
	v, err := strconv.ParseFloat(raw, 64)
	if err == nil && !math.IsInf(v, 0) && !math.IsNaN(v) {
		p.Value = v
		p.Valid = true
	}
	return p
}

// NumericPrice builds a price stored as a number.
func NumericPrice(v float64) Price {
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return Price{}
	}
	return Price{Value: v, Valid: true}
}

// Within reports whether the price satisfies the optional inclusive bounds.
// An invalid price satisfies no bound, but passes when both bounds are nil.
func (p Price) Within(minPrice, maxPrice *float64) bool {
	if minPrice == nil && maxPrice == nil {
		return true
	}
	if !p.Valid {
		return false
	}
	if minPrice != nil && p.Value < *minPrice {
		return false
	}
	if maxPrice != nil && p.Value > *maxPrice {
		return false
	}
	return true
}

// String renders the price for captions.
func (p Price) String() string {
	switch {
	case p.Raw != "":
		return p.Raw
	case p.Valid:
		return strconv.FormatFloat(p.Value, 'f', -1, 64)
	default:
		return "N/A"
	}
}

// MarshalJSON writes the stored text, the number, or null.
func (p Price) MarshalJSON() ([]byte, error) {
	switch {
	case p.Raw != "":
		return json.Marshal(p.Raw)
	case p.Valid:
		return json.Marshal(p.Value)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts a string, a number, or null.
func (p *Price) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*p = Price{}
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("price: %w", err)
		}
		*p = ParsePrice(s)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("price: %w", err)
	}
	*p = NumericPrice(v)
	return nil
}

// MarshalBSONValue stores text prices as strings and numeric prices as doubles.
func (p Price) MarshalBSONValue() (bsontype.Type, []byte, error) {
	switch {
	case p.Raw != "":
		return bson.MarshalValue(p.Raw)
	case p.Valid:
		return bson.MarshalValue(p.Value)
	default:
		return bson.TypeNull, nil, nil
	}
}

// UnmarshalBSONValue decodes any scalar the scraper may have written.
func (p *Price) UnmarshalBSONValue(t bsontype.Type, data []byte) error {
	rv := bson.RawValue{Type: t, Value: data}
	switch t {
	case bson.TypeString:
		*p = ParsePrice(rv.StringValue())
	case bson.TypeDouble:
		*p = NumericPrice(rv.Double())
	case bson.TypeInt32:
		*p = NumericPrice(float64(rv.Int32()))
	case bson.TypeInt64:
		*p = NumericPrice(float64(rv.Int64()))
	case bson.TypeDecimal128:
		*p = ParsePrice(rv.Decimal128().String())
		p.Raw = ""
	case bson.TypeNull, bson.TypeUndefined:
		*p = Price{}
	default:
		*p = Price{Raw: rv.String()}
	}
	return nil
}
