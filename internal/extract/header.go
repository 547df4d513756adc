package extract

import (
	"context"
	"log/slog"

	"github.com/roofscope/roofscope/internal/entity"
	"github.com/roofscope/roofscope/internal/llm"
)

// HeaderExtraction is the header extractor's combined output.
type HeaderExtraction struct {
	Header       entity.HeaderResult     `json:"header"`
	Measurements entity.RoofMeasurements `json:"measurements"`
	Confidence   float32                 `json:"confidence"`
}

// HeaderExtractor pulls claim metadata and roof measurements. A thin
// schema-constrained delegation; unusable output falls back to empty
// structures at FallbackConfidence.
type HeaderExtractor struct {
	invoker llm.Invoker
	logger  *slog.Logger
}

func NewHeaderExtractor(invoker llm.Invoker, logger *slog.Logger) *HeaderExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &HeaderExtractor{invoker: invoker, logger: logger}
}

func (e *HeaderExtractor) Extract(ctx context.Context, text string) (HeaderExtraction, error) {
	schema := llm.BuildHeaderSchema()
	outcome, err := invokeAndParse[HeaderExtraction](
		ctx, e.invoker, e.logger, "extract.header",
		llm.HeaderSystemPrompt, text, llm.ExtractorTextLimit, schema,
	)
	if err != nil {
		return HeaderExtraction{}, err
	}
	if !outcome.Parsed {
		return HeaderExtraction{Confidence: FallbackConfidence}, nil
	}

	result := outcome.Value
	if result.Confidence == 0 {
		result.Confidence = DefaultConfidence
	}
	clampMeasurements(&result.Measurements)
	return result, nil
}

// clampMeasurements zeroes negative lengths. The schema already forbids them,
// but the lenient parse path can admit coerced values.
func clampMeasurements(m *entity.RoofMeasurements) {
	for _, v := range []*float64{
		&m.TotalArea, &m.Perimeter, &m.RidgeLength, &m.HipLength,
		&m.ValleyLength, &m.EaveLength, &m.RakeLength,
	} {
		if *v < 0 {
			*v = 0
		}
	}
}
