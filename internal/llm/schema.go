package llm

import "github.com/roofscope/roofscope/constants"

// Schema builders, one per extraction. Returned as generic maps (draft 2020-12
// subset) so they can be embedded in prompts and used locally to validate.
// Counters carry no "required" entries on purpose: a missing field defaults to
// zero at unmarshal time rather than failing the document.

func countProp() map[string]any {
	return map[string]any{"type": "integer", "minimum": 0}
}

func lengthProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0}
}

func confidenceProp() map[string]any {
	return map[string]any{"type": "number", "minimum": 0.0, "maximum": 1.0}
}

func openItemsProp() map[string]any {
	return map[string]any{
		"type": "array",
		"items": map[string]any{
			"type": "object",
			"properties": map[string]any{
				"description": map[string]any{"type": "string", "minLength": 1},
				"quantity":    countProp(),
			},
			"required": []string{"description", "quantity"},
		},
	}
}

// BuildClassifierSchema constrains the document classifier output.
func BuildClassifierSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"type": map[string]any{
				"type": "string",
				"enum": []string{
					string(constants.DocTypeInsuranceScope),
					string(constants.DocTypeSupplement),
					string(constants.DocTypeAerialReport),
					string(constants.DocTypePhoto),
					string(constants.DocTypeOther),
				},
			},
			"subtype":    map[string]any{"type": "string"},
			"confidence": confidenceProp(),
		},
		"required": []string{"type"},
	}
}

// BuildHeaderSchema constrains the header/measurements extraction.
func BuildHeaderSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"header": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"customer_name": map[string]any{"type": "string"},
					"carrier":       map[string]any{"type": "string"},
					"policy_number": map[string]any{"type": "string"},
					"claim_number":  map[string]any{"type": "string"},
					"date_of_loss":  map[string]any{"type": "string", "pattern": `^\d{4}-\d{2}-\d{2}$`},
				},
			},
			"measurements": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"total_area":    lengthProp(),
					"perimeter":     lengthProp(),
					"ridge_length":  lengthProp(),
					"hip_length":    lengthProp(),
					"valley_length": lengthProp(),
					"eave_length":   lengthProp(),
					"rake_length":   lengthProp(),
				},
			},
			"confidence": confidenceProp(),
		},
	}
}

// BuildPipeJackSchema constrains the pipe-jack extraction to the ten named
// categories plus an open list.
func BuildPipeJackSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			constants.PipeJack3in1:      countProp(),
			constants.PipeJackUniversal: countProp(),
			constants.PipeJack4:         countProp(),
			constants.PipeJack5:         countProp(),
			constants.PipeJack6:         countProp(),
			constants.PipeJack8:         countProp(),
			constants.PipeJackSplit:     countProp(),
			constants.PipeJackLead:      countProp(),
			constants.PipeJackGooseSm:   countProp(),
			constants.PipeJackGooseLg:   countProp(),
			"other_items":               openItemsProp(),
			"confidence":                confidenceProp(),
		},
	}
}

// BuildVentSchema constrains the ventilation extraction. Ridge vent is linear
// feet, not a count.
func BuildVentSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			constants.VentTurtle:     countProp(),
			constants.VentRidge:      countProp(),
			constants.VentIntake:     countProp(),
			constants.VentOffRidge:   countProp(),
			constants.VentBroan4:     countProp(),
			constants.VentBroan6:     countProp(),
			constants.VentPower:      countProp(),
			constants.VentGable:      countProp(),
			constants.VentWhirlybird: countProp(),
			constants.VentHVAC:       countProp(),
			"other_items":            openItemsProp(),
			"confidence":             confidenceProp(),
		},
	}
}

// BuildMaterialsSchema constrains the materials/financial extraction.
func BuildMaterialsSchema() map[string]any {
	materialItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category":    map[string]any{"type": "string", "enum": constants.MaterialCategories()},
			"subcategory": map[string]any{"type": "string"},
			"description": map[string]any{"type": "string", "minLength": 1},
			"quantity":    lengthProp(),
			"unit":        map[string]any{"type": "string"},
		},
		"required": []string{"category", "description", "quantity", "unit"},
	}

	lineItem := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"category":     map[string]any{"type": "string"},
			"subcategory":  map[string]any{"type": "string"},
			"description":  map[string]any{"type": "string", "minLength": 1},
			"quantity":     lengthProp(),
			"unit":         map[string]any{"type": "string"},
			"rcv":          lengthProp(),
			"acv":          lengthProp(),
			"depreciation": lengthProp(),
		},
		"required": []string{"description", "rcv"},
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"materials":  map[string]any{"type": "array", "items": materialItem},
			"line_items": map[string]any{"type": "array", "items": lineItem},
			"financial": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"total_rcv":  lengthProp(),
					"total_acv":  lengthProp(),
					"subtotal":   lengthProp(),
					"tax":        lengthProp(),
					"deductible": lengthProp(),
				},
			},
			"confidence": confidenceProp(),
		},
	}
}

// BuildAerialSchema constrains the aerial-report extraction.
func BuildAerialSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"provider": map[string]any{
				"type": "string",
				"enum": []string{"eagleview", "hover", "gaf_quickmeasure", "roofr", "other"},
			},
			"report_id":     map[string]any{"type": "string"},
			"total_area":    lengthProp(),
			"perimeter":     lengthProp(),
			"ridge_length":  lengthProp(),
			"hip_length":    lengthProp(),
			"valley_length": lengthProp(),
			"eave_length":   lengthProp(),
			"rake_length":   lengthProp(),
			"slopes": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"pitch":      map[string]any{"type": "string"},
						"area":       lengthProp(),
						"percentage": lengthProp(),
					},
					"required": []string{"pitch", "area"},
				},
			},
			"structures": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name": map[string]any{"type": "string"},
						"area": lengthProp(),
					},
					"required": []string{"name"},
				},
			},
			"facet_count": countProp(),
			"roof_complexity": map[string]any{
				"type": "string",
				"enum": []string{"simple", "moderate", "complex", "unknown"},
			},
			"confidence": confidenceProp(),
		},
	}
}
