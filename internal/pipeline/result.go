package pipeline

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/roofscope/roofscope/constants"
)

// ValidationResult is the validator verdict over one extraction. Warnings and
// suggestions never affect validity; only errors do.
type ValidationResult struct {
	IsValid     bool     `json:"is_valid"`
	Errors      []string `json:"errors,omitempty"`
	Warnings    []string `json:"warnings,omitempty"`
	Suggestions []string `json:"suggestions,omitempty"`
}

// ProcessResult is the pipeline's structured outcome for one document run.
// Failures are reported here rather than as Go errors so callers always get
// the document id and a stable envelope.
type ProcessResult struct {
	Success      bool                    `json:"success"`
	DocumentID   uuid.UUID               `json:"document_id"`
	DocumentType *constants.DocumentType `json:"document_type,omitempty"`
	Extraction   json.RawMessage         `json:"extraction,omitempty"`
	Validation   *ValidationResult       `json:"validation,omitempty"`
	Error        string                  `json:"error,omitempty"`
}
