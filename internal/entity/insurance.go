package entity

// HeaderResult holds customer/policy metadata from an insurance scope. All
// fields are optional; insurance carriers are inconsistent about what appears
// on page one.
type HeaderResult struct {
	CustomerName *string `json:"customer_name,omitempty"`
	Carrier      *string `json:"carrier,omitempty"`
	PolicyNumber *string `json:"policy_number,omitempty"`
	ClaimNumber  *string `json:"claim_number,omitempty"`
	DateOfLoss   *string `json:"date_of_loss,omitempty"` // YYYY-MM-DD
}

// RoofMeasurements holds roof geometry in square feet / linear feet. Each
// value is non-negative; zero means "not found".
type RoofMeasurements struct {
	TotalArea   float64 `json:"total_area"`
	Perimeter   float64 `json:"perimeter"`
	RidgeLength float64 `json:"ridge_length"`
	HipLength   float64 `json:"hip_length"`
	ValleyLength float64 `json:"valley_length"`
	EaveLength  float64 `json:"eave_length"`
	RakeLength  float64 `json:"rake_length"`
}

// OpenItem is an extracted line the schema's named counters don't cover.
type OpenItem struct {
	Description string `json:"description"`
	Quantity    int    `json:"quantity"`
}

// PipeJackResult holds the ten named pipe-jack counters plus an open list.
// TotalCount is always recomputed locally, never taken from the extraction
// capability.
type PipeJackResult struct {
	ThreeInOne     int `json:"pj_3in1"`
	Universal      int `json:"pj_universal"`
	FourInch       int `json:"pj_4"`
	FiveInch       int `json:"pj_5"`
	SixInch        int `json:"pj_6"`
	EightInch      int `json:"pj_8"`
	SplitBoot      int `json:"pj_split_boot"`
	Lead           int `json:"pj_lead"`
	GooseNeckSmall int `json:"pj_goose_small"`
	GooseNeckLarge int `json:"pj_goose_large"`

	OtherItems []OpenItem `json:"other_items,omitempty"`

	TotalCount      int      `json:"total_count"`
	Confidence      float32  `json:"confidence"`
	ValidationNotes []string `json:"validation_notes,omitempty"`
}

// RecomputeTotal overwrites TotalCount with the sum of the named counters and
// the open list.
func (r *PipeJackResult) RecomputeTotal() {
	total := r.ThreeInOne + r.Universal + r.FourInch + r.FiveInch + r.SixInch +
		r.EightInch + r.SplitBoot + r.Lead + r.GooseNeckSmall + r.GooseNeckLarge
	for _, item := range r.OtherItems {
		total += item.Quantity
	}
	r.TotalCount = total
}

// VentResult holds the named ventilation counters plus an open list. RidgeVent
// is linear feet; everything else is a count. Derived fields are recomputed
// locally from the counters.
type VentResult struct {
	TurtleVent  int `json:"vent_turtle"`
	RidgeVent   int `json:"vent_ridge"` // linear feet
	IntakeVent  int `json:"vent_intake"`
	OffRidge    int `json:"vent_off_ridge"`
	Broan4      int `json:"vent_broan_4"`
	Broan6      int `json:"vent_broan_6"`
	PowerVent   int `json:"vent_power"`
	GableVent   int `json:"vent_gable"`
	Whirlybird  int `json:"vent_whirlybird"`
	HVACVent    int `json:"vent_hvac"`

	OtherItems []OpenItem `json:"other_items,omitempty"`

	TotalExhaust    int      `json:"total_exhaust"`
	TotalIntake     int      `json:"total_intake"`
	NFA             float64  `json:"nfa"` // square inches
	IsBalanced      bool     `json:"is_balanced"`
	Confidence      float32  `json:"confidence"`
	ValidationNotes []string `json:"validation_notes,omitempty"`
}

// Net free area per component, in square inches. Ridge vent is per linear foot.
const (
	NFARidgePerFoot = 18.0
	NFATurtle       = 50.0
	NFABroan4       = 28.0
	NFABroan6       = 50.0
)

// RecomputeDerived recalculates exhaust/intake totals and NFA from the named
// counters. Balance determination lives in the vent extractor because it also
// emits validation notes.
func (v *VentResult) RecomputeDerived() {
	v.TotalExhaust = v.TurtleVent + v.OffRidge + v.Broan4 + v.Broan6 + v.PowerVent + v.Whirlybird
	v.TotalIntake = v.IntakeVent
	v.NFA = float64(v.RidgeVent)*NFARidgePerFoot +
		float64(v.TurtleVent)*NFATurtle +
		float64(v.Broan4)*NFABroan4 +
		float64(v.Broan6)*NFABroan6
}

// MaterialItem is a material quantity extracted from the document.
type MaterialItem struct {
	Category    string  `json:"category"`
	Subcategory *string `json:"subcategory,omitempty"`
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Unit        string  `json:"unit"`
}

// InsuranceLineItem is a material item with insurance financials attached.
type InsuranceLineItem struct {
	MaterialItem
	RCV          float64  `json:"rcv"`
	ACV          *float64 `json:"acv,omitempty"`
	Depreciation *float64 `json:"depreciation,omitempty"`
}

// FinancialSummary holds the claim-level totals. TotalRCV is the load-bearing
// field for downstream profitability.
type FinancialSummary struct {
	TotalRCV   float64  `json:"total_rcv"`
	TotalACV   float64  `json:"total_acv"`
	Subtotal   *float64 `json:"subtotal,omitempty"`
	Tax        *float64 `json:"tax,omitempty"`
	Deductible *float64 `json:"deductible,omitempty"`
}

// ConfidenceMap carries per-sub-extraction confidence scores. Overall is the
// arithmetic mean of exactly the four component scores.
type ConfidenceMap struct {
	Header      float32 `json:"header"`
	PipeJacks   float32 `json:"pipe_jacks"`
	Ventilation float32 `json:"ventilation"`
	Financial   float32 `json:"financial"`
	Overall     float32 `json:"overall"`
}

// RecomputeOverall overwrites Overall with the mean of the four components.
func (c *ConfidenceMap) RecomputeOverall() {
	c.Overall = (c.Header + c.PipeJacks + c.Ventilation + c.Financial) / 4
}

// InsuranceExtraction is the combined result of the four insurance
// sub-extractions over one document.
type InsuranceExtraction struct {
	Header       HeaderResult        `json:"header"`
	Measurements RoofMeasurements    `json:"measurements"`
	PipeJacks    PipeJackResult      `json:"pipe_jacks"`
	Ventilation  VentResult          `json:"ventilation"`
	Materials    []MaterialItem      `json:"materials,omitempty"`
	Financial    FinancialSummary    `json:"financial"`
	LineItems    []InsuranceLineItem `json:"line_items,omitempty"`
	Confidence   ConfidenceMap       `json:"confidence"`
}
