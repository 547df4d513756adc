package extract

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/roofscope/roofscope/internal/entity"
	"github.com/roofscope/roofscope/internal/llm"
)

// PipeJackExtractor counts pipe-jack flashings against a strict enumerated
// schema and sanity-checks the total against roof geometry.
type PipeJackExtractor struct {
	invoker llm.Invoker
	logger  *slog.Logger
}

func NewPipeJackExtractor(invoker llm.Invoker, logger *slog.Logger) *PipeJackExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &PipeJackExtractor{invoker: invoker, logger: logger}
}

// MinJacksPerStructure is the floor for the aerial cross-check: every
// detected building needs at least this many roof penetrations.
const MinJacksPerStructure = 2

// ExpectedJackRange derives the plausible pipe-jack count window from roof
// area in square feet. Residential plumbing codes put one stack per wet wall;
// the bounds scale with area with fixed floors/ceilings.
func ExpectedJackRange(roofArea float64) (min, max int) {
	min = int(math.Max(2, math.Floor(roofArea/1000)))
	max = int(math.Min(8, math.Ceil(roofArea/300)))
	if max < min {
		max = min
	}
	return min, max
}

// Extract delegates to the capability and post-processes. The result is
// always fully populated and arithmetically consistent: missing fields
// default to zero and TotalCount is recomputed locally. roofAreaHint and
// structureCount, when present, drive cross-validation that degrades
// confidence but never fails the extraction.
func (e *PipeJackExtractor) Extract(ctx context.Context, text string, roofAreaHint *float64, structureCount *int) (entity.PipeJackResult, error) {
	schema := llm.BuildPipeJackSchema()
	outcome, err := invokeAndParse[entity.PipeJackResult](
		ctx, e.invoker, e.logger, "extract.pipejacks",
		llm.PipeJackSystemPrompt, text, llm.ExtractorTextLimit, schema,
	)
	if err != nil {
		return entity.PipeJackResult{}, err
	}

	result := outcome.Value
	if !outcome.Parsed {
		result = entity.PipeJackResult{
			Confidence:      FallbackConfidence,
			ValidationNotes: []string{"extraction output unusable: " + outcome.Reason},
		}
		result.RecomputeTotal()
		return result, nil
	}
	if result.Confidence == 0 {
		result.Confidence = DefaultConfidence
	}
	result.RecomputeTotal()

	if roofAreaHint != nil && *roofAreaHint > 0 {
		e.checkExpectedRange(&result, *roofAreaHint)
	}
	if structureCount != nil && *structureCount > 0 {
		e.checkStructureCoverage(&result, *structureCount)
	}

	e.logger.Debug("extract.pipejacks.ok",
		"total", result.TotalCount,
		"confidence", result.Confidence,
		"notes", len(result.ValidationNotes),
	)
	return result, nil
}

func (e *PipeJackExtractor) checkExpectedRange(r *entity.PipeJackResult, roofArea float64) {
	min, max := ExpectedJackRange(roofArea)
	switch {
	case r.TotalCount < min:
		r.ValidationNotes = append(r.ValidationNotes, fmt.Sprintf(
			"found %d pipe jacks; a %.0f sq ft roof usually has at least %d", r.TotalCount, roofArea, min))
		r.Confidence = penalizeBelowJackRange(r.Confidence)
	case r.TotalCount > max:
		r.ValidationNotes = append(r.ValidationNotes, fmt.Sprintf(
			"found %d pipe jacks; a %.0f sq ft roof usually has at most %d", r.TotalCount, roofArea, max))
		r.Confidence = penalizeAboveJackRange(r.Confidence)
	}
}

func (e *PipeJackExtractor) checkStructureCoverage(r *entity.PipeJackResult, structures int) {
	required := structures * MinJacksPerStructure
	if r.TotalCount < required {
		r.ValidationNotes = append(r.ValidationNotes, fmt.Sprintf(
			"found %d pipe jacks across %d structures; expected at least %d", r.TotalCount, structures, required))
		r.Confidence = penalizeStructureDeficit(r.Confidence)
	}
}
