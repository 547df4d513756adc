package constants

import "strings"

// Pipe jack categories tracked by the extractor. These are the stable keys
// used in extraction payloads and the product catalog.
const (
	PipeJack3in1      = "pj_3in1"       // adjustable 3-in-1 boot
	PipeJackUniversal = "pj_universal"  // generic 1"-4"
	PipeJack4         = "pj_4"          // 4" specific
	PipeJack5         = "pj_5"          // 5" specific
	PipeJack6         = "pj_6"          // 6" specific
	PipeJack8         = "pj_8"          // 8" specific
	PipeJackSplit     = "pj_split_boot" // retrofit split boot
	PipeJackLead      = "pj_lead"
	PipeJackGooseSm   = "pj_goose_small"
	PipeJackGooseLg   = "pj_goose_large"
)

// Vent categories tracked by the extractor. Ridge vent is measured in linear
// feet, everything else is a count.
const (
	VentTurtle     = "vent_turtle"
	VentRidge      = "vent_ridge"
	VentIntake     = "vent_intake"
	VentOffRidge   = "vent_off_ridge"
	VentBroan4     = "vent_broan_4"
	VentBroan6     = "vent_broan_6"
	VentPower      = "vent_power"
	VentGable      = "vent_gable"
	VentWhirlybird = "vent_whirlybird"
	VentHVAC       = "vent_hvac"
)

// MaterialCategory is the coarse product taxonomy used for catalog matching.
type MaterialCategory string

const (
	CatShingles     MaterialCategory = "shingles"
	CatUnderlayment MaterialCategory = "underlayment"
	CatStarter      MaterialCategory = "starter"
	CatHipRidge     MaterialCategory = "hip_ridge"
	CatDripEdge     MaterialCategory = "drip_edge"
	CatIceWater     MaterialCategory = "ice_water"
	CatValleyMetal  MaterialCategory = "valley_metal"
	CatPipeJack     MaterialCategory = "pipe_jack"
	CatVentilation  MaterialCategory = "ventilation"
	CatFasteners    MaterialCategory = "fasteners"
	CatFlashing     MaterialCategory = "flashing"
	CatLabor        MaterialCategory = "labor"
	CatOther        MaterialCategory = "other"
)

var allCategories = []MaterialCategory{
	CatShingles,
	CatUnderlayment,
	CatStarter,
	CatHipRidge,
	CatDripEdge,
	CatIceWater,
	CatValleyMetal,
	CatPipeJack,
	CatVentilation,
	CatFasteners,
	CatFlashing,
	CatLabor,
	CatOther,
}

// MaterialCategories returns the taxonomy as strings, for schema enums.
func MaterialCategories() []string {
	result := make([]string, len(allCategories))
	for i, cat := range allCategories {
		result[i] = string(cat)
	}
	return result
}

// CanonicalizeCategory maps free-form category text onto the taxonomy.
func CanonicalizeCategory(input string) (MaterialCategory, bool) {
	if input == "" {
		return CatOther, false
	}

	normalized := strings.ToLower(strings.TrimSpace(input))

	synonyms := map[string]MaterialCategory{
		"shingle":        CatShingles,
		"felt":           CatUnderlayment,
		"synthetic felt": CatUnderlayment,
		"ridge cap":      CatHipRidge,
		"hip and ridge":  CatHipRidge,
		"hip & ridge":    CatHipRidge,
		"ice and water":  CatIceWater,
		"ice & water":    CatIceWater,
		"pipe flashing":  CatPipeJack,
		"pipe boot":      CatPipeJack,
		"vent":           CatVentilation,
		"vents":          CatVentilation,
		"nails":          CatFasteners,
		"coil nails":     CatFasteners,
	}

	if cat, ok := synonyms[normalized]; ok {
		return cat, true
	}

	for _, cat := range allCategories {
		if normalized == strings.ReplaceAll(string(cat), "_", " ") || normalized == string(cat) {
			return cat, true
		}
	}

	return CatOther, false
}

// LaborKeywords partition line items into labor vs. material by substring
// match against the description (case-insensitive).
var LaborKeywords = []string{
	"labor", "install", "remove", "tear", "r&r", "replace", "repair", "detach", "reset",
}
