package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttributeValueEqual(t *testing.T) {
	tests := []struct {
		name string
		a, b AttributeValue
		want bool
	}{
		{"same string", StringValue("red"), StringValue("red"), true},
		{"different string", StringValue("red"), StringValue("blue"), false},
		{"int and float number", NumberValue(16), NumberValue(16.0), true},
		{"number vs string", NumberValue(16), StringValue("16"), false},
		{"bool vs number", BoolValue(true), NumberValue(1), false},
		{"number vs bool", NumberValue(1), BoolValue(true), false},
		{"false vs zero", BoolValue(false), NumberValue(0), false},
		{"null vs value", AttributeValue{}, StringValue(""), false},
		{"null vs null", AttributeValue{}, AttributeValue{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Equal(tt.b); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAttributesJSON(t *testing.T) {
	var attrs Attributes
	err := json.Unmarshal([]byte(`{"ram": 16, "brand": "acme", "refurb": false, "note": null}`), &attrs)
	require.NoError(t, err)

	assert.Equal(t, NumberValue(16), attrs["ram"])
	assert.Equal(t, StringValue("acme"), attrs["brand"])
	assert.Equal(t, BoolValue(false), attrs["refurb"])
	assert.True(t, attrs["note"].IsNull())
	assert.True(t, attrs.Value("missing").IsNull())

	data, err := json.Marshal(attrs)
	require.NoError(t, err)
	assert.JSONEq(t, `{"ram": 16, "brand": "acme", "refurb": false, "note": null}`, string(data))

	var bad Attributes
	assert.Error(t, json.Unmarshal([]byte(`{"tags": ["a"]}`), &bad))
}

func TestAttributeValueString(t *testing.T) {
	assert.Equal(t, "16", NumberValue(16).String())
	assert.Equal(t, "2.5", NumberValue(2.5).String())
	assert.Equal(t, "true", BoolValue(true).String())
	assert.Equal(t, "acme", StringValue("acme").String())
}
