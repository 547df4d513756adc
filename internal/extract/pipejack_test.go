package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofscope/roofscope/internal/llm"
)

func cannedInvoker(response string) llm.Invoker {
	return llm.InvokerFunc(func(_ context.Context, _, _ string) (string, error) {
		return response, nil
	})
}

func TestExpectedJackRange(t *testing.T) {
	tests := []struct {
		area     float64
		wantMin  int
		wantMax  int
	}{
		{area: 2000, wantMin: 2, wantMax: 7},
		{area: 1000, wantMin: 2, wantMax: 4},
		{area: 3500, wantMin: 3, wantMax: 8},
		{area: 9000, wantMin: 9, wantMax: 9}, // ceiling clamps below the floor, floor wins
		{area: 100, wantMin: 2, wantMax: 2},
	}
	for _, tt := range tests {
		min, max := ExpectedJackRange(tt.area)
		assert.Equal(t, tt.wantMin, min, "min for area %.0f", tt.area)
		assert.Equal(t, tt.wantMax, max, "max for area %.0f", tt.area)
	}
}

func TestPipeJackExtract_TotalAlwaysRecomputed(t *testing.T) {
	// The capability reports a wrong total; local arithmetic wins.
	e := NewPipeJackExtractor(cannedInvoker(
		`{"pj_3in1":2,"pj_4":1,"other_items":[{"description":"chimney cricket boot","quantity":3}],"total_count":99,"confidence":0.9}`,
	), nil)

	res, err := e.Extract(context.Background(), "scope text", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 6, res.TotalCount)
	assert.InDelta(t, 0.9, res.Confidence, 0.001)
	assert.Empty(t, res.ValidationNotes)
}

func TestPipeJackExtract_BelowRangePenalty(t *testing.T) {
	e := NewPipeJackExtractor(cannedInvoker(`{"pj_3in1":1,"confidence":1.0}`), nil)

	area := 2000.0
	res, err := e.Extract(context.Background(), "scope text", &area, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.TotalCount)
	assert.InDelta(t, 0.8, res.Confidence, 0.001)
	require.NotEmpty(t, res.ValidationNotes)
	assert.Contains(t, res.ValidationNotes[0], "at least 2")
}

func TestPipeJackExtract_AboveRangePenalty(t *testing.T) {
	e := NewPipeJackExtractor(cannedInvoker(`{"pj_3in1":8,"confidence":1.0}`), nil)

	area := 2000.0
	res, err := e.Extract(context.Background(), "scope text", &area, nil)
	require.NoError(t, err)
	assert.Equal(t, 8, res.TotalCount)
	assert.InDelta(t, 0.9, res.Confidence, 0.001)
	require.NotEmpty(t, res.ValidationNotes)
	assert.Contains(t, res.ValidationNotes[0], "at most 7")
}

func TestPipeJackExtract_StructureDeficitCompounds(t *testing.T) {
	// One jack on a 2000 sq ft roof with three structures triggers both the
	// below-range and the structure-coverage penalties.
	e := NewPipeJackExtractor(cannedInvoker(`{"pj_universal":1,"confidence":1.0}`), nil)

	area := 2000.0
	structures := 3
	res, err := e.Extract(context.Background(), "scope text", &area, &structures)
	require.NoError(t, err)
	assert.InDelta(t, 0.8*0.85, res.Confidence, 0.001)
	assert.Len(t, res.ValidationNotes, 2)
}

func TestPipeJackExtract_UnusableOutputFallsBack(t *testing.T) {
	e := NewPipeJackExtractor(cannedInvoker("I see no pipe jacks mentioned."), nil)

	res, err := e.Extract(context.Background(), "scope text", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 0, res.TotalCount)
	assert.InDelta(t, FallbackConfidence, res.Confidence, 0.001)
	require.NotEmpty(t, res.ValidationNotes)
	assert.Contains(t, res.ValidationNotes[0], "unusable")
}

func TestPipeJackExtract_MissingConfidenceDefaults(t *testing.T) {
	e := NewPipeJackExtractor(cannedInvoker(`{"pj_4":3}`), nil)

	res, err := e.Extract(context.Background(), "scope text", nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, DefaultConfidence, res.Confidence, 0.001)
}
