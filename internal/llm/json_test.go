package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
		ok   bool
	}{
		{
			name: "bare object",
			raw:  `{"a":1}`,
			want: `{"a":1}`,
			ok:   true,
		},
		{
			name: "markdown fence",
			raw:  "Here you go:\n```json\n{\"a\": 1}\n```\nLet me know!",
			want: `{"a": 1}`,
			ok:   true,
		},
		{
			name: "nested objects",
			raw:  `prose {"a":{"b":{"c":2}},"d":3} trailing`,
			want: `{"a":{"b":{"c":2}},"d":3}`,
			ok:   true,
		},
		{
			name: "braces inside strings",
			raw:  `{"desc":"2x4 {treated}","n":1}`,
			want: `{"desc":"2x4 {treated}","n":1}`,
			ok:   true,
		},
		{
			name: "escaped quote inside string",
			raw:  `{"desc":"say \"hi\" {","n":1}`,
			want: `{"desc":"say \"hi\" {","n":1}`,
			ok:   true,
		},
		{
			name: "no object",
			raw:  "I could not find any relevant data in this document.",
			ok:   false,
		},
		{
			name: "unbalanced",
			raw:  `{"a": 1`,
			ok:   false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ExtractJSON(tt.raw)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.Equal(t, tt.want, string(got))
			}
		})
	}
}

func TestParseInto(t *testing.T) {
	type payload struct {
		Type       string  `json:"type"`
		Confidence float32 `json:"confidence"`
	}
	schema := BuildClassifierSchema()

	t.Run("valid payload", func(t *testing.T) {
		out := ParseInto[payload](schema, `The document is {"type":"insurance_scope","confidence":0.95} as requested.`)
		require.True(t, out.Parsed)
		assert.Equal(t, "insurance_scope", out.Value.Type)
		assert.InDelta(t, 0.95, out.Value.Confidence, 0.001)
	})

	t.Run("no json degrades to fallback", func(t *testing.T) {
		out := ParseInto[payload](schema, "no structured content here")
		require.False(t, out.Parsed)
		assert.NotEmpty(t, out.Reason)
		assert.Zero(t, out.Value)
	})

	t.Run("schema violation degrades to fallback", func(t *testing.T) {
		out := ParseInto[payload](schema, `{"type":"recipe"}`)
		require.False(t, out.Parsed)
		assert.Contains(t, out.Reason, "schema validation")
	})

	t.Run("quoted numbers are coerced", func(t *testing.T) {
		out := ParseInto[payload](schema, `{"type":"other","confidence":"0.8"}`)
		require.True(t, out.Parsed)
		assert.InDelta(t, 0.8, out.Value.Confidence, 0.001)
	})
}

func TestCoerceNumericFields(t *testing.T) {
	in := []byte(`{"total_rcv":"15000","description":"75 squares of shingles","pj_4":"3","nested":{"rcv":"99.5"}}`)
	out, err := CoerceNumericFields(in)
	require.NoError(t, err)

	s := string(out)
	assert.Contains(t, s, `"total_rcv":15000`)
	assert.Contains(t, s, `"pj_4":3`)
	assert.Contains(t, s, `"rcv":99.5`)
	// Non-numeric keys keep their string values even when they contain digits.
	assert.Contains(t, s, `"description":"75 squares of shingles"`)
}
