package extract

import (
	"context"
	"log/slog"

	"github.com/roofscope/roofscope/constants"
	"github.com/roofscope/roofscope/internal/entity"
	"github.com/roofscope/roofscope/internal/llm"
)

// MaterialsExtraction is the materials/financial extractor's combined output.
type MaterialsExtraction struct {
	Materials  []entity.MaterialItem      `json:"materials"`
	Financial  entity.FinancialSummary    `json:"financial"`
	LineItems  []entity.InsuranceLineItem `json:"line_items"`
	Confidence float32                    `json:"confidence"`
}

// MaterialsExtractor pulls the materials list, financial summary, and priced
// line items. Unusable output falls back to empty structures at
// FallbackConfidence.
type MaterialsExtractor struct {
	invoker llm.Invoker
	logger  *slog.Logger
}

func NewMaterialsExtractor(invoker llm.Invoker, logger *slog.Logger) *MaterialsExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaterialsExtractor{invoker: invoker, logger: logger}
}

func (e *MaterialsExtractor) Extract(ctx context.Context, text string) (MaterialsExtraction, error) {
	schema := llm.BuildMaterialsSchema()
	outcome, err := invokeAndParse[MaterialsExtraction](
		ctx, e.invoker, e.logger, "extract.materials",
		llm.MaterialsSystemPrompt, text, llm.ExtractorTextLimit, schema,
	)
	if err != nil {
		return MaterialsExtraction{}, err
	}
	if !outcome.Parsed {
		return MaterialsExtraction{Confidence: FallbackConfidence}, nil
	}

	result := outcome.Value
	if result.Confidence == 0 {
		result.Confidence = DefaultConfidence
	}

	for i := range result.Materials {
		normalizeMaterial(&result.Materials[i])
	}
	for i := range result.LineItems {
		normalizeMaterial(&result.LineItems[i].MaterialItem)
	}

	e.logger.Debug("extract.materials.ok",
		"materials", len(result.Materials),
		"line_items", len(result.LineItems),
		"total_rcv", result.Financial.TotalRCV,
	)
	return result, nil
}

// normalizeMaterial canonicalizes the category and unit so catalog matching
// sees a consistent taxonomy regardless of document wording.
func normalizeMaterial(m *entity.MaterialItem) {
	if cat, ok := constants.CanonicalizeCategory(m.Category); ok {
		m.Category = string(cat)
	}
	m.Unit = string(constants.NormalizeUnit(m.Unit))
	if m.Quantity < 0 {
		m.Quantity = 0
	}
}
