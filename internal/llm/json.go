package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
)

// ExtractJSON locates the first balanced {...} span in a model response.
// Models wrap JSON in prose or markdown fences often enough that this is a
// first-class contract, not a recovery hack. Returns false when no balanced
// object exists.
func ExtractJSON(raw string) ([]byte, bool) {
	start := -1
	depth := 0
	inString := false
	escaped := false

	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if start == -1 {
			if c == '{' {
				start = i
				depth = 1
			}
			continue
		}
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return []byte(raw[start : i+1]), true
				}
			}
		}
	}
	return nil, false
}

// Outcome is a tagged parse result: either a fully-populated value or an
// explicit fallback with the reason extraction degraded. It never carries an
// error; malformed capability output is a defined state, not a failure.
type Outcome[T any] struct {
	Value  T
	Parsed bool
	Reason string
}

// Parsed wraps a successfully parsed value.
func Parsed[T any](v T) Outcome[T] {
	return Outcome[T]{Value: v, Parsed: true}
}

// Fallback wraps the type's zero value with the degradation reason.
func Fallback[T any](format string, args ...any) Outcome[T] {
	return Outcome[T]{Reason: fmt.Sprintf(format, args...)}
}

// ParseInto extracts the first JSON object from a raw model response,
// validates it against schemaMap, and unmarshals into T. Any missing field
// defaults to its zero value via ordinary unmarshalling. Validation failures
// get one lenient retry after numeric coercion (models quote numbers).
func ParseInto[T any](schemaMap map[string]any, raw string) Outcome[T] {
	doc, ok := ExtractJSON(raw)
	if !ok {
		return Fallback[T]("no JSON object in response")
	}

	if err := ValidateJSONAgainstSchema(schemaMap, doc); err != nil {
		cleaned, cErr := CoerceNumericFields(doc)
		if cErr != nil {
			return Fallback[T]("schema validation: %v", err)
		}
		if vErr := ValidateJSONAgainstSchema(schemaMap, cleaned); vErr != nil {
			return Fallback[T]("schema validation: %v", err)
		}
		doc = cleaned
	}

	var out T
	if err := json.Unmarshal(doc, &out); err != nil {
		return Fallback[T]("unmarshal: %v", err)
	}
	return Parsed(out)
}

// numericKeys are fields that must be numbers across all extraction schemas.
// Values under these keys arriving as digit strings are coerced; everything
// else is left alone so legitimately-numeric descriptions survive.
var numericKeys = map[string]struct{}{
	"total_area": {}, "perimeter": {}, "ridge_length": {}, "hip_length": {},
	"valley_length": {}, "eave_length": {}, "rake_length": {},
	"quantity": {}, "rcv": {}, "acv": {}, "depreciation": {},
	"total_rcv": {}, "total_acv": {}, "subtotal": {}, "tax": {}, "deductible": {},
	"confidence": {}, "area": {}, "percentage": {}, "facet_count": {},
	"pj_3in1": {}, "pj_universal": {}, "pj_4": {}, "pj_5": {}, "pj_6": {}, "pj_8": {},
	"pj_split_boot": {}, "pj_lead": {}, "pj_goose_small": {}, "pj_goose_large": {},
	"vent_turtle": {}, "vent_ridge": {}, "vent_intake": {}, "vent_off_ridge": {},
	"vent_broan_4": {}, "vent_broan_6": {}, "vent_power": {}, "vent_gable": {},
	"vent_whirlybird": {}, "vent_hvac": {},
}

var reNumeric = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// CoerceNumericFields rewrites digit strings under known numeric keys into
// JSON numbers, recursively through objects and arrays.
func CoerceNumericFields(doc []byte) ([]byte, error) {
	var m map[string]any
	if err := json.Unmarshal(doc, &m); err != nil {
		return nil, fmt.Errorf("coerce: decode: %w", err)
	}
	coerceMap(m)
	out, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("coerce: encode: %w", err)
	}
	return out, nil
}

func coerceMap(m map[string]any) {
	for k, v := range m {
		switch t := v.(type) {
		case string:
			if _, numeric := numericKeys[k]; numeric && reNumeric.MatchString(t) {
				if f, err := strconv.ParseFloat(t, 64); err == nil {
					m[k] = f
				}
			}
		case map[string]any:
			coerceMap(t)
		case []any:
			for _, item := range t {
				if sub, ok := item.(map[string]any); ok {
					coerceMap(sub)
				}
			}
		}
	}
}
