package pipeline

import (
	"fmt"
	"strings"

	"github.com/roofscope/roofscope/internal/entity"
	"github.com/roofscope/roofscope/internal/pricing"
)

// LowConfidenceThreshold triggers a review warning when the overall insurance
// confidence falls below it.
const LowConfidenceThreshold float32 = 0.7

// ValidateInsurance checks a combined insurance extraction. The financial
// summary is the load-bearing field: a missing or zero total RCV invalidates
// the extraction regardless of confidence. Extractor validation notes carry
// over as warnings, and measured quantities generate cross-check suggestions.
func ValidateInsurance(ext *entity.InsuranceExtraction, wasteFactor float64) ValidationResult {
	var v ValidationResult

	if ext.Financial.TotalRCV == 0 {
		v.Errors = append(v.Errors, "financial summary is missing a total RCV")
	}
	v.Warnings = append(v.Warnings, ext.PipeJacks.ValidationNotes...)
	v.Warnings = append(v.Warnings, ext.Ventilation.ValidationNotes...)
	if ext.Confidence.Overall < LowConfidenceThreshold {
		v.Warnings = append(v.Warnings,
			fmt.Sprintf("overall extraction confidence %.2f is below %.2f, manual review recommended",
				ext.Confidence.Overall, LowConfidenceThreshold))
	}
	v.Suggestions = quantitySuggestions(ext, wasteFactor)

	v.IsValid = len(v.Errors) == 0
	return v
}

// ValidateAerial checks an aerial report extraction. Total area is required;
// a missing slope breakdown is only a warning.
func ValidateAerial(ext *entity.AerialExtraction) ValidationResult {
	var v ValidationResult

	if ext.TotalArea == 0 {
		v.Errors = append(v.Errors, "aerial report is missing a total roof area")
	}
	if len(ext.Slopes) == 0 {
		v.Warnings = append(v.Warnings, "no slope breakdown found")
	}

	v.IsValid = len(v.Errors) == 0
	return v
}

// quantitySuggestions compares the extracted materials list against
// measurement-derived expectations and suggests materials the scope appears to
// be missing. Informational only.
func quantitySuggestions(ext *entity.InsuranceExtraction, wasteFactor float64) []string {
	expected := pricing.EstimateQuantities(ext.Measurements, wasteFactor)
	if len(expected) == 0 {
		return nil
	}

	present := make(map[string]bool, len(ext.Materials))
	for _, m := range ext.Materials {
		present[strings.ToLower(m.Category)] = true
	}
	for _, li := range ext.LineItems {
		present[strings.ToLower(li.Category)] = true
	}

	var suggestions []string
	for _, eq := range expected {
		if present[strings.ToLower(eq.Category)] {
			continue
		}
		suggestions = append(suggestions,
			fmt.Sprintf("measurements suggest ~%d %s of %s but the scope lists none (%s)",
				eq.Quantity, eq.Unit, eq.Category, eq.Basis))
	}
	return suggestions
}
