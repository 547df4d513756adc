package extract

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/roofscope/roofscope/internal/entity"
	"github.com/roofscope/roofscope/internal/llm"
)

// VentExtractor counts ventilation components, computes net free area, and
// judges intake/exhaust balance.
type VentExtractor struct {
	invoker llm.Invoker
	logger  *slog.Logger
}

func NewVentExtractor(invoker llm.Invoker, logger *slog.Logger) *VentExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &VentExtractor{invoker: invoker, logger: logger}
}

// RequiredNFA is the 1:300 balanced-ventilation rule: one square foot of net
// free area per 300 square feet of attic floor, returned in square inches.
func RequiredNFA(roofArea float64) float64 {
	return (roofArea / 300) * 144
}

// nfaSufficiencyRatio is the fraction of required NFA below which the
// extractor flags insufficiency. Informational only; no confidence penalty.
const nfaSufficiencyRatio = 0.8

// ridgeOverrunRatio flags extracted ridge vent footage exceeding this
// fraction of the measured ridge length.
const ridgeOverrunRatio = 1.1

// Extract delegates to the capability and post-processes: derived totals and
// NFA are recomputed locally, then checked against the optional ridge-length
// and roof-area hints.
func (e *VentExtractor) Extract(ctx context.Context, text string, ridgeLengthHint, roofAreaHint *float64) (entity.VentResult, error) {
	schema := llm.BuildVentSchema()
	outcome, err := invokeAndParse[entity.VentResult](
		ctx, e.invoker, e.logger, "extract.vents",
		llm.VentSystemPrompt, text, llm.ExtractorTextLimit, schema,
	)
	if err != nil {
		return entity.VentResult{}, err
	}

	result := outcome.Value
	if !outcome.Parsed {
		result = entity.VentResult{
			Confidence:      FallbackConfidence,
			ValidationNotes: []string{"extraction output unusable: " + outcome.Reason},
		}
		result.RecomputeDerived()
		return result, nil
	}
	if result.Confidence == 0 {
		result.Confidence = DefaultConfidence
	}
	result.RecomputeDerived()

	if roofAreaHint != nil && *roofAreaHint > 0 {
		e.checkNFASufficiency(&result, *roofAreaHint)
	}
	if ridgeLengthHint != nil && *ridgeLengthHint > 0 {
		e.checkRidgeOverrun(&result, *ridgeLengthHint)
	}
	e.determineBalance(&result)

	e.logger.Debug("extract.vents.ok",
		"exhaust", result.TotalExhaust,
		"intake", result.TotalIntake,
		"nfa", result.NFA,
		"balanced", result.IsBalanced,
		"confidence", result.Confidence,
	)
	return result, nil
}

func (e *VentExtractor) checkNFASufficiency(r *entity.VentResult, roofArea float64) {
	required := RequiredNFA(roofArea)
	if required <= 0 {
		return
	}
	if r.NFA < required*nfaSufficiencyRatio {
		r.ValidationNotes = append(r.ValidationNotes, fmt.Sprintf(
			"net free area %.0f sq in is below %.0f%% of the %.0f sq in required for %.0f sq ft (1:300 rule)",
			r.NFA, nfaSufficiencyRatio*100, required, roofArea))
	}
}

func (e *VentExtractor) checkRidgeOverrun(r *entity.VentResult, ridgeLength float64) {
	if float64(r.RidgeVent) > ridgeLength*ridgeOverrunRatio {
		r.ValidationNotes = append(r.ValidationNotes, fmt.Sprintf(
			"extracted %d LF of ridge vent but the roof only has %.0f LF of ridge", r.RidgeVent, ridgeLength))
		r.Confidence = penalizeRidgeOverrun(r.Confidence)
	}
}

// determineBalance applies the balance rule set: ridge systems are assumed
// self-balancing; otherwise intake/exhaust must sit within a 0.5-2.0 ratio.
func (e *VentExtractor) determineBalance(r *entity.VentResult) {
	switch {
	case r.RidgeVent > 0:
		r.IsBalanced = true
	case r.TotalIntake > 0 && r.TotalExhaust > 0:
		ratio := float64(r.TotalIntake) / float64(r.TotalExhaust)
		r.IsBalanced = ratio >= 0.5 && ratio <= 2.0
	default:
		r.IsBalanced = false
		if r.TotalExhaust > 0 && r.TotalIntake == 0 {
			r.ValidationNotes = append(r.ValidationNotes, "no intake detected; exhaust ventilation present without intake")
		}
	}
}
