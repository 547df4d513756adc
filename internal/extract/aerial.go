package extract

import (
	"context"
	"log/slog"

	"github.com/roofscope/roofscope/internal/entity"
	"github.com/roofscope/roofscope/internal/llm"
)

// AerialExtractor parses third-party roof measurement reports. Unusable
// output falls back to a fully-zeroed structure tagged complexity "unknown"
// and the hinted provider.
type AerialExtractor struct {
	invoker llm.Invoker
	logger  *slog.Logger
}

func NewAerialExtractor(invoker llm.Invoker, logger *slog.Logger) *AerialExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &AerialExtractor{invoker: invoker, logger: logger}
}

// Extract runs the aerial schema. providerHint comes from the classifier's
// subtype; it seeds the fallback when the report itself is unreadable.
func (e *AerialExtractor) Extract(ctx context.Context, text, providerHint string) (entity.AerialExtraction, error) {
	schema := llm.BuildAerialSchema()
	outcome, err := invokeAndParse[entity.AerialExtraction](
		ctx, e.invoker, e.logger, "extract.aerial",
		llm.AerialSystemPrompt, text, llm.ExtractorTextLimit, schema,
	)
	if err != nil {
		return entity.AerialExtraction{}, err
	}
	if !outcome.Parsed {
		return entity.AerialExtraction{
			Provider:       normalizeProvider(providerHint),
			RoofComplexity: entity.ComplexityUnknown,
			Confidence:     FallbackConfidence,
		}, nil
	}

	result := outcome.Value
	if result.Provider == "" {
		result.Provider = normalizeProvider(providerHint)
	}
	if result.RoofComplexity == "" {
		result.RoofComplexity = entity.ComplexityUnknown
	}
	if result.Confidence == 0 {
		result.Confidence = DefaultConfidence
	}

	e.logger.Debug("extract.aerial.ok",
		"provider", result.Provider,
		"total_area", result.TotalArea,
		"facets", result.FacetCount,
		"complexity", result.RoofComplexity,
	)
	return result, nil
}

func normalizeProvider(hint string) entity.AerialProvider {
	switch entity.AerialProvider(hint) {
	case entity.AerialEagleView, entity.AerialHover, entity.AerialGAFQuickM, entity.AerialRoofr:
		return entity.AerialProvider(hint)
	}
	return entity.AerialOther
}
