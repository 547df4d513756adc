package entity

// AerialProvider identifies the measurement vendor that produced a report.
type AerialProvider string

const (
	AerialEagleView  AerialProvider = "eagleview"
	AerialHover      AerialProvider = "hover"
	AerialGAFQuickM  AerialProvider = "gaf_quickmeasure"
	AerialRoofr      AerialProvider = "roofr"
	AerialOther      AerialProvider = "other"
)

// RoofComplexity is the categorical difficulty label from an aerial report.
type RoofComplexity string

const (
	ComplexitySimple   RoofComplexity = "simple"
	ComplexityModerate RoofComplexity = "moderate"
	ComplexityComplex  RoofComplexity = "complex"
	ComplexityUnknown  RoofComplexity = "unknown"
)

// Slope is one pitch bucket from an aerial report's slope breakdown.
type Slope struct {
	Pitch      string  `json:"pitch"` // e.g. "6/12"
	Area       float64 `json:"area"`
	Percentage float64 `json:"percentage"`
}

// Structure is one detected building in an aerial report.
type Structure struct {
	Name string  `json:"name"`
	Area float64 `json:"area"`
}

// AerialExtraction is the structured payload of an aerial measurement report.
// All lengths/areas are non-negative; zero means "not reported".
type AerialExtraction struct {
	Provider     AerialProvider `json:"provider"`
	ReportID     *string        `json:"report_id,omitempty"`
	TotalArea    float64        `json:"total_area"`
	Perimeter    float64        `json:"perimeter"`
	RidgeLength  float64        `json:"ridge_length"`
	HipLength    float64        `json:"hip_length"`
	ValleyLength float64        `json:"valley_length"`
	EaveLength   float64        `json:"eave_length"`
	RakeLength   float64        `json:"rake_length"`
	Slopes       []Slope        `json:"slopes,omitempty"`
	Structures   []Structure    `json:"structures,omitempty"`
	FacetCount   int            `json:"facet_count"`
	RoofComplexity RoofComplexity `json:"roof_complexity"`
	Confidence   float32        `json:"confidence"`
}
