package constants

import "strings"

// DocumentType is the classified kind of an uploaded document.
type DocumentType string

const (
	DocTypeInsuranceScope DocumentType = "insurance_scope"
	DocTypeSupplement     DocumentType = "supplement"
	DocTypeAerialReport   DocumentType = "aerial_report"
	DocTypePhoto          DocumentType = "photo"
	DocTypeOther          DocumentType = "other"
)

// IsInsurance reports whether the type carries an insurance scope payload.
func (t DocumentType) IsInsurance() bool {
	return t == DocTypeInsuranceScope || t == DocTypeSupplement
}

// Content formats for the OCR stage.
const (
	PDF   = "PDF"
	IMAGE = "IMAGE"
	TEXT  = "TEXT"
)

// ImageConfidenceThreshold flags image OCR results below this confidence for
// manual review.
const ImageConfidenceThreshold float32 = 0.60

// MapMIMEToFormat maps a MIME type to one of the OCR formats. Returns "" for
// unsupported types.
func MapMIMEToFormat(mime string) string {
	m := strings.ToLower(strings.TrimSpace(mime))
	switch {
	case m == "application/pdf":
		return PDF
	case strings.HasPrefix(m, "image/"):
		return IMAGE
	case strings.HasPrefix(m, "text/"), m == "application/json":
		return TEXT
	}
	return ""
}

// Unit is a line-item quantity unit.
type Unit string

const (
	UnitSquare   Unit = "SQ" // roofing square, 100 sq ft
	UnitSqFoot   Unit = "SF"
	UnitLinFoot  Unit = "LF"
	UnitEach     Unit = "EA"
	UnitHour     Unit = "HR"
	UnitRoll     Unit = "RL"
	UnitBundle   Unit = "BD"
)

// NormalizeUnit canonicalizes common unit spellings from extracted documents.
func NormalizeUnit(input string) Unit {
	switch strings.ToUpper(strings.TrimSpace(input)) {
	case "SQ", "SQUARE", "SQUARES":
		return UnitSquare
	case "SF", "SQFT", "SQ FT", "SQ.FT.":
		return UnitSqFoot
	case "LF", "LNFT", "LIN FT", "LIN.FT.":
		return UnitLinFoot
	case "HR", "HOUR", "HOURS", "MAN-HOUR":
		return UnitHour
	case "RL", "ROLL", "ROLLS":
		return UnitRoll
	case "BD", "BDL", "BUNDLE", "BUNDLES":
		return UnitBundle
	default:
		return UnitEach
	}
}

// IsLaborUnit reports whether a raw unit string denotes billed labor time.
func IsLaborUnit(input string) bool {
	switch strings.ToLower(strings.TrimSpace(input)) {
	case "hr", "hour", "man-hour":
		return true
	}
	return false
}
