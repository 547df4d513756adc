package pipeline

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roofscope/roofscope/internal/entity"
)

func validInsurance() *entity.InsuranceExtraction {
	ext := &entity.InsuranceExtraction{}
	ext.Financial.TotalRCV = 15000
	ext.Confidence = entity.ConfidenceMap{Header: 0.9, PipeJacks: 0.9, Ventilation: 0.9, Financial: 0.9}
	ext.Confidence.RecomputeOverall()
	return ext
}

func TestValidateInsurance_Valid(t *testing.T) {
	v := ValidateInsurance(validInsurance(), 0.10)
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Errors)
	assert.Empty(t, v.Warnings)
}

func TestValidateInsurance_MissingRCV(t *testing.T) {
	ext := validInsurance()
	ext.Financial.TotalRCV = 0

	v := ValidateInsurance(ext, 0.10)
	assert.False(t, v.IsValid)
	require.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0], "total RCV")
}

func TestValidateInsurance_NotesBecomeWarnings(t *testing.T) {
	ext := validInsurance()
	ext.PipeJacks.ValidationNotes = []string{"pipe jack count 1 below expected minimum"}
	ext.Ventilation.ValidationNotes = []string{"ridge vent length exceeds measured ridge"}

	v := ValidateInsurance(ext, 0.10)
	assert.True(t, v.IsValid, "notes are advisory, not errors")
	assert.Len(t, v.Warnings, 2)
}

func TestValidateInsurance_LowConfidence(t *testing.T) {
	ext := validInsurance()
	ext.Confidence = entity.ConfidenceMap{Header: 0.5, PipeJacks: 0.5, Ventilation: 0.5, Financial: 0.5}
	ext.Confidence.RecomputeOverall()

	v := ValidateInsurance(ext, 0.10)
	assert.True(t, v.IsValid)
	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "manual review")
}

func TestValidateInsurance_QuantitySuggestions(t *testing.T) {
	ext := validInsurance()
	ext.Measurements = entity.RoofMeasurements{TotalArea: 2000, EaveLength: 120}
	ext.LineItems = []entity.InsuranceLineItem{
		{MaterialItem: entity.MaterialItem{Category: "shingles", Description: "laminate shingles", Quantity: 66, Unit: "BD"}, RCV: 9000},
	}

	v := ValidateInsurance(ext, 0.10)
	assert.True(t, v.IsValid)
	require.NotEmpty(t, v.Suggestions)

	joined := strings.Join(v.Suggestions, "\n")
	assert.NotContains(t, joined, "of shingles", "listed category should not be suggested")
	assert.Contains(t, joined, "underlayment")
	assert.Contains(t, joined, "starter")
}

func TestValidateInsurance_NoMeasurementsNoSuggestions(t *testing.T) {
	v := ValidateInsurance(validInsurance(), 0.10)
	assert.Empty(t, v.Suggestions)
}

func TestValidateAerial(t *testing.T) {
	good := &entity.AerialExtraction{
		TotalArea: 2400,
		Slopes:    []entity.Slope{{Pitch: "6/12", Area: 2400}},
	}
	v := ValidateAerial(good)
	assert.True(t, v.IsValid)
	assert.Empty(t, v.Warnings)

	noSlopes := &entity.AerialExtraction{TotalArea: 2400}
	v = ValidateAerial(noSlopes)
	assert.True(t, v.IsValid)
	require.Len(t, v.Warnings, 1)
	assert.Contains(t, v.Warnings[0], "slope")

	zeroArea := &entity.AerialExtraction{}
	v = ValidateAerial(zeroArea)
	assert.False(t, v.IsValid)
	require.Len(t, v.Errors, 1)
	assert.Contains(t, v.Errors[0], "total roof area")
}
