package extract

import (
	"context"
	"log/slog"

	"github.com/roofscope/roofscope/constants"
	"github.com/roofscope/roofscope/internal/llm"
)

// Classification is the classifier verdict. Subtype is the carrier name for
// insurance documents and the provider name for aerial reports.
type Classification struct {
	Type    constants.DocumentType
	Subtype string
}

// Classifier determines document type/subtype from raw OCR text, driving
// which extractors run.
type Classifier struct {
	invoker llm.Invoker
	logger  *slog.Logger
}

func NewClassifier(invoker llm.Invoker, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{invoker: invoker, logger: logger}
}

type classifierPayload struct {
	Type       string  `json:"type"`
	Subtype    string  `json:"subtype"`
	Confidence float32 `json:"confidence"`
}

// Classify inspects a bounded prefix of the text. It never fails the
// document: unusable capability output degrades to {type: other}, and only a
// transport error propagates.
func (c *Classifier) Classify(ctx context.Context, text string) (Classification, error) {
	schema := llm.BuildClassifierSchema()
	outcome, err := invokeAndParse[classifierPayload](
		ctx, c.invoker, c.logger, "classify",
		llm.ClassifierSystemPrompt, text, llm.ClassifierPrefixLimit, schema,
	)
	if err != nil {
		return Classification{}, err
	}
	if !outcome.Parsed {
		return Classification{Type: constants.DocTypeOther}, nil
	}

	docType := constants.DocumentType(outcome.Value.Type)
	switch docType {
	case constants.DocTypeInsuranceScope, constants.DocTypeSupplement,
		constants.DocTypeAerialReport, constants.DocTypePhoto, constants.DocTypeOther:
	default:
		c.logger.Warn("classify.unknown_type", "type", outcome.Value.Type)
		docType = constants.DocTypeOther
	}

	c.logger.Debug("classify.ok", "type", docType, "subtype", outcome.Value.Subtype)
	return Classification{Type: docType, Subtype: outcome.Value.Subtype}, nil
}
