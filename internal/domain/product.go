package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"time"
)

// Product represents a catalog item that can be swapped or used as a swap candidate
type Product struct {
	ID           string     `json:"id"`
	SKU          string     `json:"sku"`
	Name         string     `json:"name"`
	Category     string     `json:"category"`
	Price        float64    `json:"price"`
	RetailerID   string     `json:"retailer_id"`
	Availability bool       `json:"availability"`
	Attributes   Attributes `json:"attributes"`
	Embedding    []float64  `json:"embedding,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Summary returns the compact product view attached to suggestions
func (p *Product) Summary() ProductSummary {
	return ProductSummary{
		ID:         p.ID,
		SKU:        p.SKU,
		Name:       p.Name,
		Category:   p.Category,
		Price:      p.Price,
		RetailerID: p.RetailerID,
	}
}

// ProductSummary is the product shape returned inside suggestions
type ProductSummary struct {
	ID         string  `json:"id"`
	SKU        string  `json:"sku"`
	Name       string  `json:"name"`
	Category   string  `json:"category"`
	Price      float64 `json:"price"`
	RetailerID string  `json:"retailer_id"`
}

// ProductFilter narrows catalog queries.
// Nil Categories means any category; nil price bounds mean unbounded.
type ProductFilter struct {
	ExcludeID     string
	AvailableOnly bool
	Categories    []string
	MinPrice      *float64
	MaxPrice      *float64
	HasEmbedding  bool
	Offset        int
	Limit         int
}

// AttributeKind tags the variant held by an AttributeValue
type AttributeKind uint8

const (
	AttributeNull AttributeKind = iota
	AttributeString
	AttributeNumber
	AttributeBool
)

// AttributeValue is a scalar attribute value: string, number or bool.
// The zero value is null.
type AttributeValue struct {
	Kind AttributeKind
	Str  string
	Num  float64
	Bool bool
}

// StringValue wraps a string attribute
func StringValue(s string) AttributeValue {
	return AttributeValue{Kind: AttributeString, Str: s}
}

// NumberValue wraps a numeric attribute
func NumberValue(n float64) AttributeValue {
	return AttributeValue{Kind: AttributeNumber, Num: n}
}

// BoolValue wraps a boolean attribute
func BoolValue(b bool) AttributeValue {
	return AttributeValue{Kind: AttributeBool, Bool: b}
}

// IsNull reports whether the value is null
func (v AttributeValue) IsNull() bool {
	return v.Kind == AttributeNull
}

// Equal reports whether two values hold the same kind and value.
// Kinds never coerce: true does not equal 1 and "16" does not equal 16,
// so a rule on {"refurbished": 1} will not match a product with
// "refurbished": true. Numbers compare as float64. Null equals only null.
func (v AttributeValue) Equal(other AttributeValue) bool {
	if v.Kind != other.Kind {
		return false
	}
	switch v.Kind {
	case AttributeString:
		return v.Str == other.Str
	case AttributeNumber:
		return v.Num == other.Num
	case AttributeBool:
		return v.Bool == other.Bool
	default:
		return true
	}
}

// Interface returns the value as a plain Go value (nil, string, float64 or bool)
func (v AttributeValue) Interface() any {
	switch v.Kind {
	case AttributeString:
		return v.Str
	case AttributeNumber:
		return v.Num
	case AttributeBool:
		return v.Bool
	default:
		return nil
	}
}

// String renders the value for prompts and embedding text
func (v AttributeValue) String() string {
	switch v.Kind {
	case AttributeString:
		return v.Str
	case AttributeNumber:
		return strconv.FormatFloat(v.Num, 'f', -1, 64)
	case AttributeBool:
		return strconv.FormatBool(v.Bool)
	default:
		return "null"
	}
}

// MarshalJSON encodes the value as a plain JSON scalar
func (v AttributeValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}

// UnmarshalJSON accepts a JSON scalar; arrays and objects are rejected
func (v *AttributeValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*v = AttributeValue{}
		return nil
	}

	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*v = StringValue(s)
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return err
		}
		*v = BoolValue(b)
	case '[', '{':
		return fmt.Errorf("attribute value must be a scalar, got %s", data)
	default:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return err
		}
		*v = NumberValue(n)
	}
	return nil
}

// Attributes is the open attribute bag of a product
type Attributes map[string]AttributeValue

// Value returns the attribute or null when the key is missing
func (a Attributes) Value(key string) AttributeValue {
	if a == nil {
		return AttributeValue{}
	}
	return a[key]
}

// Has reports whether the key is present
func (a Attributes) Has(key string) bool {
	_, ok := a[key]
	return ok
}

// ToMap converts the attributes to plain Go values
func (a Attributes) ToMap() map[string]any {
	out := make(map[string]any, len(a))
	for k, v := range a {
		out[k] = v.Interface()
	}
	return out
}
