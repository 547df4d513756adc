package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ClassifierPrefixLimit bounds how much OCR text the classifier sees. Long
// documents front-load the identifying content; the cap is a cost/latency
// trade-off, not an accuracy bug.
const ClassifierPrefixLimit = 4000

// ExtractorTextLimit bounds the text each domain extractor sees.
const ExtractorTextLimit = 12000

// System prompts per extraction. Terse, schema-first, never-null rules follow
// the same playbook everywhere.

const ClassifierSystemPrompt = "You are a roofing document classifier. Classify the document as one of: " +
	"insurance_scope (an insurance carrier's claim scope/estimate with RCV line items), " +
	"supplement (a contractor-submitted supplement to an existing claim), " +
	"aerial_report (a third-party roof measurement report, e.g. EagleView or Hover), " +
	"photo (a photo caption sheet or inspection photo log), or other. " +
	"For insurance documents set subtype to the carrier name; for aerial reports set subtype to the provider name. " +
	"Return ONLY JSON matching the provided JSON Schema. Never output null; omit unknown fields."

const HeaderSystemPrompt = "You are an insurance claim parser for roofing contractors. " +
	"Extract the claim header (customer, carrier, policy number, claim number, date of loss as YYYY-MM-DD) " +
	"and any roof measurements (total area and perimeter in square feet / feet; ridge, hip, valley, eave, rake lengths in linear feet). " +
	"Report measurements exactly as printed; do not estimate missing ones. " +
	"Include a confidence between 0 and 1 for how certain you are overall. " +
	"Return ONLY JSON matching the provided JSON Schema. Never output null; omit unknown fields."

const PipeJackSystemPrompt = "You are a roofing scope parser counting pipe jacks (pipe flashings). " +
	"Count each line item mentioning pipe jacks, pipe flashings, pipe boots, split boots, lead jacks, or goose necks, " +
	"and bucket them into the schema's named categories by diameter and style. " +
	"Anything that does not fit a named category goes in other_items with its description and quantity. " +
	"Count only roof penetrations; ignore gutters and siding. " +
	"Include a confidence between 0 and 1. " +
	"Return ONLY JSON matching the provided JSON Schema. Omit fields you cannot find; never output null."

const VentSystemPrompt = "You are a roofing scope parser counting ventilation components. " +
	"Bucket each ventilation line item into the schema's named categories: " +
	"vent_ridge is LINEAR FEET of ridge vent, all other categories are unit counts. " +
	"Broan sizes refer to 4-inch and 6-inch wall caps. " +
	"Anything that does not fit goes in other_items. " +
	"Include a confidence between 0 and 1. " +
	"Return ONLY JSON matching the provided JSON Schema. Omit fields you cannot find; never output null."

const MaterialsSystemPrompt = "You are an insurance claim parser for roofing contractors. " +
	"Extract: (1) materials: every material line with category, description, quantity, and unit (SQ, SF, LF, or EA); " +
	"(2) line_items: every priced line with its RCV and, when printed, ACV and depreciation; " +
	"(3) financial: the claim totals: total RCV, total ACV, and the deductible when printed. " +
	"Copy amounts exactly as printed, without currency symbols or thousands separators. " +
	"Include a confidence between 0 and 1. " +
	"Return ONLY JSON matching the provided JSON Schema. Omit fields you cannot find; never output null."

const AerialSystemPrompt = "You are an aerial roof measurement report parser. " +
	"Extract the provider, report id, total area, perimeter, edge lengths (ridge, hip, valley, eave, rake), " +
	"the slope breakdown (pitch like 6/12, area, percentage), detected structures, facet count, " +
	"and the roof complexity label (simple, moderate, or complex). " +
	"Return ONLY JSON matching the provided JSON Schema. Omit fields you cannot find; never output null."

// BuildUserContent packages the bounded document text with the JSON schema the
// response must satisfy.
func BuildUserContent(text string, limit int, schemaMap map[string]any) string {
	if limit > 0 && len(text) > limit {
		text = text[:limit]
	}

	var b strings.Builder
	b.WriteString("Document text:\n")
	b.WriteString(text)
	b.WriteString("\n\nJSON Schema:\n")
	b.WriteString(mustJSON(schemaMap))
	b.WriteString("\n\nReturn ONLY JSON that matches the schema above.")
	return b.String()
}

func mustJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
