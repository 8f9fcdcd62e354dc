package domain

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"time"
)

// SwapRule is a deterministic swap strategy.
// Conditions gate which products the rule applies to; TargetCriteria gate
// which products qualify as replacements.
type SwapRule struct {
	ID              string         `json:"id"`
	Name            string         `json:"name"`
	Description     string         `json:"description"`
	Priority        int            `json:"priority"`
	Active          bool           `json:"active"`
	Conditions      Conditions     `json:"conditions"`
	TargetCriteria  TargetCriteria `json:"target_criteria"`
	AutoSwapEnabled bool           `json:"auto_swap_enabled"`
	Version         int            `json:"version"`
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

// CategorySet is a category constraint: either a single category or a list
type CategorySet struct {
	Values []string
	Single bool
}

// Contains reports whether category satisfies the constraint
func (c CategorySet) Contains(category string) bool {
	for _, v := range c.Values {
		if v == category {
			return true
		}
	}
	return false
}

// MarshalJSON emits a string for a single category, a list otherwise
func (c CategorySet) MarshalJSON() ([]byte, error) {
	if c.Single && len(c.Values) == 1 {
		return json.Marshal(c.Values[0])
	}
	if c.Values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(c.Values)
}

// UnmarshalJSON accepts a string or a list of strings
func (c *CategorySet) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		*c = CategorySet{Values: []string{single}, Single: true}
		return nil
	}
	var list []string
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*c = CategorySet{Values: list}
	return nil
}

// PriceRange is an inclusive price window; nil bounds are open
type PriceRange struct {
	Min *float64 `json:"min,omitempty"`
	Max *float64 `json:"max,omitempty"`
}

// Bounds returns the effective bounds: min defaults to 0, max to +Inf
func (r PriceRange) Bounds() (float64, float64) {
	lo, hi := 0.0, math.Inf(1)
	if r.Min != nil {
		lo = *r.Min
	}
	if r.Max != nil {
		hi = *r.Max
	}
	return lo, hi
}

// Contains reports whether price lies in the window
func (r PriceRange) Contains(price float64) bool {
	lo, hi := r.Bounds()
	return lo <= price && price <= hi
}

// Conditions is the set of constraints a product must meet for a rule to apply.
// Decoding never fails: keys with the wrong shape are recorded in Malformed
// and a malformed value matches nothing.
type Conditions struct {
	Category     *CategorySet
	PriceRange   *PriceRange
	Availability *bool
	Attributes   Attributes
	Expression   string
	Malformed    []string

	raw map[string]json.RawMessage
}

// IsMalformed reports whether any key failed to decode
func (c Conditions) IsMalformed() bool {
	return len(c.Malformed) > 0
}

// IsEmpty reports whether the conditions impose no constraint
func (c Conditions) IsEmpty() bool {
	return c.Category == nil && c.PriceRange == nil && c.Availability == nil &&
		len(c.Attributes) == 0 && c.Expression == "" && !c.IsMalformed()
}

// UnmarshalJSON decodes leniently
func (c *Conditions) UnmarshalJSON(data []byte) error {
	*c = Conditions{}
	raw, ok := decodeObject(data)
	if !ok {
		c.Malformed = []string{"$"}
		return nil
	}
	c.raw = raw

	for _, key := range sortedKeys(raw) {
		value := raw[key]
		if isJSONNull(value) {
			continue
		}
		var err error
		switch key {
		case "category":
			var cs CategorySet
			if err = json.Unmarshal(value, &cs); err == nil {
				c.Category = &cs
			}
		case "price_range":
			var pr PriceRange
			if err = json.Unmarshal(value, &pr); err == nil {
				c.PriceRange = &pr
			}
		case "availability":
			var b bool
			if err = json.Unmarshal(value, &b); err == nil {
				c.Availability = &b
			}
		case "attributes":
			var attrs Attributes
			if err = json.Unmarshal(value, &attrs); err == nil {
				c.Attributes = attrs
			}
		case "expression":
			var expr string
			if err = json.Unmarshal(value, &expr); err == nil {
				c.Expression = expr
			}
		}
		if err != nil {
			c.Malformed = append(c.Malformed, key)
		}
	}
	return nil
}

// MarshalJSON re-emits the decoded document so malformed keys survive storage
func (c Conditions) MarshalJSON() ([]byte, error) {
	if c.raw != nil {
		return json.Marshal(c.raw)
	}
	out := map[string]any{}
	if c.Category != nil {
		out["category"] = c.Category
	}
	if c.PriceRange != nil {
		out["price_range"] = c.PriceRange
	}
	if c.Availability != nil {
		out["availability"] = *c.Availability
	}
	if len(c.Attributes) > 0 {
		out["attributes"] = c.Attributes
	}
	if c.Expression != "" {
		out["expression"] = c.Expression
	}
	return json.Marshal(out)
}

// TargetCriteria is the set of constraints a replacement must meet; decoded like Conditions
type TargetCriteria struct {
	Category       *CategorySet
	PriceRange     *PriceRange
	MaxPriceDiff   *float64
	SameAttributes []string
	Malformed      []string

	raw map[string]json.RawMessage
}

// IsMalformed reports whether any key failed to decode
func (t TargetCriteria) IsMalformed() bool {
	return len(t.Malformed) > 0
}

// UnmarshalJSON decodes leniently
func (t *TargetCriteria) UnmarshalJSON(data []byte) error {
	*t = TargetCriteria{}
	raw, ok := decodeObject(data)
	if !ok {
		t.Malformed = []string{"$"}
		return nil
	}
	t.raw = raw

	for _, key := range sortedKeys(raw) {
		value := raw[key]
		if isJSONNull(value) {
			continue
		}
		var err error
		switch key {
		case "category":
			var cs CategorySet
			if err = json.Unmarshal(value, &cs); err == nil {
				t.Category = &cs
			}
		case "price_range":
			var pr PriceRange
			if err = json.Unmarshal(value, &pr); err == nil {
				t.PriceRange = &pr
			}
		case "max_price_diff":
			var d float64
			if err = json.Unmarshal(value, &d); err == nil {
				t.MaxPriceDiff = &d
			}
		case "same_attributes":
			var keys []string
			if err = json.Unmarshal(value, &keys); err == nil {
				t.SameAttributes = keys
			}
		}
		if err != nil {
			t.Malformed = append(t.Malformed, key)
		}
	}
	return nil
}

// MarshalJSON re-emits the decoded document so malformed keys survive storage
func (t TargetCriteria) MarshalJSON() ([]byte, error) {
	if t.raw != nil {
		return json.Marshal(t.raw)
	}
	out := map[string]any{}
	if t.Category != nil {
		out["category"] = t.Category
	}
	if t.PriceRange != nil {
		out["price_range"] = t.PriceRange
	}
	if t.MaxPriceDiff != nil {
		out["max_price_diff"] = *t.MaxPriceDiff
	}
	if t.SameAttributes != nil {
		out["same_attributes"] = t.SameAttributes
	}
	return json.Marshal(out)
}

func decodeObject(data []byte) (map[string]json.RawMessage, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || isJSONNull(data) {
		return map[string]json.RawMessage{}, true
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, false
	}
	if raw == nil {
		raw = map[string]json.RawMessage{}
	}
	return raw, true
}

func isJSONNull(data json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(data), []byte("null"))
}

func sortedKeys(m map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
