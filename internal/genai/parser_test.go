package genai

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milo-interpreter/internal/common/errors"
)

func TestParseJSON(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected map[string]interface{}
	}{
		{
			name:     "bare object",
			raw:      `{"intent":"command"}`,
			expected: map[string]interface{}{"intent": "command"},
		},
		{
			name:     "json fence",
			raw:      "```json\n{\"intent\": \"greeting\"}\n```",
			expected: map[string]interface{}{"intent": "greeting"},
		},
		{
			name:     "bare fence",
			raw:      "```\n{\"intent\": \"question\"}\n```",
			expected: map[string]interface{}{"intent": "question"},
		},
		{
			name:     "single line fence",
			raw:      "```json {\"action\":\"query_balance\"}```",
			expected: map[string]interface{}{"action": "query_balance"},
		},
		{
			name:     "surrounding whitespace",
			raw:      "\n\n   {\"a\": 1}   \n",
			expected: map[string]interface{}{"a": json.Number("1")},
		},
		{
			name:     "long number keeps its digits",
			raw:      `{"amount": 1234567890.123456789}`,
			expected: map[string]interface{}{"amount": json.Number("1234567890.123456789")},
		},
		{
			name:     "prose around object",
			raw:      "Sure! Here is the result: {\"action\":\"swap\",\"note\":\"use {braces}\"} Let me know.",
			expected: map[string]interface{}{"action": "swap", "note": "use {braces}"},
		},
		{
			name: "nested object in prose",
			raw:  "Result:\n{\"a\": {\"b\": \"c\\\"}\"}}\ntrailing",
			expected: map[string]interface{}{
				"a": map[string]interface{}{"b": "c\"}"},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseJSON(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestParseJSON_Malformed(t *testing.T) {
	for _, raw := range []string{
		"",
		"```json\n```",
		"I cannot help with that.",
		"{\"unterminated\": ",
		"null",
		"[1, 2, 3]",
	} {
		t.Run(raw, func(t *testing.T) {
			_, err := ParseJSON(raw)
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrMalformedResponse)
			assert.Equal(t, errors.ErrCodeMalformedResponse, errors.CodeOf(err))
		})
	}
}

func TestParseInto_Struct(t *testing.T) {
	var out struct {
		Intent string `json:"intent"`
	}
	require.NoError(t, ParseInto("```json\n{\"intent\":\"command\"}\n```", &out))
	assert.Equal(t, "command", out.Intent)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, StripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, StripFences("```JSON\n{\"a\":1}```"))
	assert.Equal(t, `{"a":1}`, StripFences(`{"a":1}`))
	assert.Equal(t, "hello", StripFences("  hello  "))
}

func TestStringField(t *testing.T) {
	obj := map[string]interface{}{
		"s":    "5",
		"n":    float64(5),
		"f":    2.5,
		"num":  json.Number("0.1234567890123456789"),
		"nil":  nil,
		"bool": true,
	}

	v, ok := StringField(obj, "s")
	assert.True(t, ok)
	assert.Equal(t, "5", v)

	v, ok = StringField(obj, "n")
	assert.True(t, ok)
	assert.Equal(t, "5", v)

	v, ok = StringField(obj, "f")
	assert.True(t, ok)
	assert.Equal(t, "2.5", v)

	v, ok = StringField(obj, "num")
	assert.True(t, ok)
	assert.Equal(t, "0.1234567890123456789", v)

	for _, key := range []string{"nil", "bool", "missing"} {
		_, ok = StringField(obj, key)
		assert.False(t, ok, key)
	}
}
