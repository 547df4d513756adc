package entity

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/roofscope/roofscope/constants"
)

// Document represents an uploaded file for data transfer between layers. It is
// owned exclusively by the pipeline while status is "processing" and read-only
// afterward, except for reprocessing which resets it to "pending".
type Document struct {
	ID             uuid.UUID                `json:"id"`
	OrganizationID uuid.UUID                `json:"organization_id"`
	JobID          uuid.UUID                `json:"job_id"`
	StorageKey     string                   `json:"storage_key"`
	FileName       string                   `json:"file_name"`
	MimeType       string                   `json:"mime_type"`
	SizeBytes      int64                    `json:"size_bytes"`
	Status         constants.DocumentStatus `json:"status"`

	// OCR stage outputs, persisted as soon as they are available.
	RawText       *string  `json:"raw_text,omitempty"`
	OCRProvider   *string  `json:"ocr_provider,omitempty"`
	OCRConfidence *float32 `json:"ocr_confidence,omitempty"`
	NeedsReview   bool     `json:"needs_review"`

	// Classification outputs.
	DocType    *constants.DocumentType `json:"doc_type,omitempty"`
	DocSubtype *string                 `json:"doc_subtype,omitempty"`

	// Final extraction payload, opaque to storage and typed by the pipeline.
	ExtractedData    json.RawMessage `json:"extracted_data,omitempty"`
	ValidationErrors []string        `json:"validation_errors,omitempty"`
	ProcessingError  *string         `json:"processing_error,omitempty"`

	CreatedAt   time.Time  `json:"created_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty"`
}

// Job represents a roofing job (one property/claim) that documents belong to.
// Financial rollups are overwritten by each successful insurance extraction.
type Job struct {
	ID             uuid.UUID       `json:"id"`
	OrganizationID uuid.UUID       `json:"organization_id"`
	Name           string          `json:"name"`
	TotalRCV       *float64        `json:"total_rcv,omitempty"`
	TotalACV       *float64        `json:"total_acv,omitempty"`
	Deductible     *float64        `json:"deductible,omitempty"`
	LineItems      json.RawMessage `json:"line_items,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}
