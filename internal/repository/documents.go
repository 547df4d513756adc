package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roofscope/roofscope/constants"
	"github.com/roofscope/roofscope/internal/common"
	"github.com/roofscope/roofscope/internal/entity"
)

// DocumentRepository is the pipeline's view of document persistence. Every
// read is scoped by organization id; a document belonging to another tenant
// reads as not found.
type DocumentRepository interface {
	Create(ctx context.Context, doc *entity.Document) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*entity.Document, error)
	// MarkProcessing transitions pending/completed/failed -> processing and
	// reports whether this caller won the transition. A false return means
	// another run owns the document right now.
	MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error)
	SaveOCR(ctx context.Context, id uuid.UUID, text, provider string, confidence float32, needsReview bool) error
	SaveClassification(ctx context.Context, id uuid.UUID, docType constants.DocumentType, subtype string) error
	Complete(ctx context.Context, id uuid.UUID, payload json.RawMessage, validationErrors []string) error
	Fail(ctx context.Context, id uuid.UUID, message string) error
	// ResetForReprocess clears prior results and returns the document to
	// pending. Refused while the document is processing.
	ResetForReprocess(ctx context.Context, orgID, id uuid.UUID) error
}

type documentRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewDocumentRepository(db *DB, logger *slog.Logger) DocumentRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &documentRepo{db: db, logger: logger}
}

func (r *documentRepo) Create(ctx context.Context, doc *entity.Document) error {
	if doc.ID == uuid.Nil {
		doc.ID = uuid.New()
	}
	if doc.Status == "" {
		doc.Status = constants.DocStatusPending
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO documents (id, organization_id, job_id, storage_key, file_name, mime_type, size_bytes, status, needs_review, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`),
		doc.ID.String(), doc.OrganizationID.String(), doc.JobID.String(),
		doc.StorageKey, doc.FileName, doc.MimeType, doc.SizeBytes,
		string(doc.Status), doc.NeedsReview, doc.CreatedAt,
	)
	if err != nil {
		r.logger.Error("documents.create.failed", "document_id", doc.ID, "error", err)
		return common.WrapError(err, "create document")
	}
	return nil
}

const documentColumns = `id, organization_id, job_id, storage_key, file_name, mime_type, size_bytes, status,
	raw_text, ocr_provider, ocr_confidence, needs_review, doc_type, doc_subtype,
	extracted_data, validation_errors, processing_error, created_at, processed_at`

func (r *documentRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*entity.Document, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT `+documentColumns+` FROM documents WHERE id = ? AND organization_id = ?`),
		id.String(), orgID.String(),
	)
	doc, err := scanDocument(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("DOCUMENT_NOT_FOUND", "document not found", common.ErrNotFound)
	}
	if err != nil {
		r.logger.Error("documents.get.failed", "document_id", id, "error", err)
		return nil, common.WrapError(err, "get document")
	}
	return doc, nil
}

func (r *documentRepo) MarkProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE documents SET status = ? WHERE id = ? AND status != ?`),
		string(constants.DocStatusProcessing), id.String(), string(constants.DocStatusProcessing),
	)
	if err != nil {
		return false, common.WrapError(err, "mark processing")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, common.WrapError(err, "mark processing")
	}
	return n > 0, nil
}

func (r *documentRepo) SaveOCR(ctx context.Context, id uuid.UUID, text, provider string, confidence float32, needsReview bool) error {
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE documents SET raw_text = ?, ocr_provider = ?, ocr_confidence = ?, needs_review = ? WHERE id = ?`),
		text, provider, confidence, needsReview, id.String(),
	)
	if err != nil {
		r.logger.Error("documents.save_ocr.failed", "document_id", id, "error", err)
		return common.WrapError(err, "save ocr result")
	}
	return nil
}

func (r *documentRepo) SaveClassification(ctx context.Context, id uuid.UUID, docType constants.DocumentType, subtype string) error {
	var sub any
	if subtype != "" {
		sub = subtype
	}
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE documents SET doc_type = ?, doc_subtype = ? WHERE id = ?`),
		string(docType), sub, id.String(),
	)
	if err != nil {
		r.logger.Error("documents.save_classification.failed", "document_id", id, "error", err)
		return common.WrapError(err, "save classification")
	}
	return nil
}

func (r *documentRepo) Complete(ctx context.Context, id uuid.UUID, payload json.RawMessage, validationErrors []string) error {
	var payloadVal, errsVal any
	if len(payload) > 0 {
		payloadVal = string(payload)
	}
	if len(validationErrors) > 0 {
		b, err := json.Marshal(validationErrors)
		if err != nil {
			return common.WrapError(err, "encode validation errors")
		}
		errsVal = string(b)
	}
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE documents SET status = ?, extracted_data = ?, validation_errors = ?, processing_error = NULL, processed_at = ? WHERE id = ?`),
		string(constants.DocStatusCompleted), payloadVal, errsVal, time.Now().UTC(), id.String(),
	)
	if err != nil {
		r.logger.Error("documents.complete.failed", "document_id", id, "error", err)
		return common.WrapError(err, "complete document")
	}
	r.logger.Info("documents.completed", "document_id", id, "validation_errors", len(validationErrors))
	return nil
}

func (r *documentRepo) Fail(ctx context.Context, id uuid.UUID, message string) error {
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE documents SET status = ?, processing_error = ?, processed_at = ? WHERE id = ?`),
		string(constants.DocStatusFailed), message, time.Now().UTC(), id.String(),
	)
	if err != nil {
		r.logger.Error("documents.fail.failed", "document_id", id, "error", err)
		return common.WrapError(err, "fail document")
	}
	r.logger.Warn("documents.failed", "document_id", id, "error", message)
	return nil
}

func (r *documentRepo) ResetForReprocess(ctx context.Context, orgID, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE documents SET status = ?, raw_text = NULL, ocr_provider = NULL, ocr_confidence = NULL,
			needs_review = FALSE, doc_type = NULL, doc_subtype = NULL,
			extracted_data = NULL, validation_errors = NULL, processing_error = NULL, processed_at = NULL
		 WHERE id = ? AND organization_id = ? AND status != ?`),
		string(constants.DocStatusPending), id.String(), orgID.String(), string(constants.DocStatusProcessing),
	)
	if err != nil {
		return common.WrapError(err, "reset document")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(err, "reset document")
	}
	if n == 0 {
		// Either the document doesn't exist for this org or it is mid-run.
		if _, getErr := r.GetByID(ctx, orgID, id); getErr != nil {
			return getErr
		}
		return common.NewAppError("DOCUMENT_BUSY", "document is currently processing", common.ErrConflict)
	}
	return nil
}

// scanner matches both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(row scanner) (*entity.Document, error) {
	var (
		doc                        entity.Document
		idStr, orgStr, jobStr      string
		status                     string
		rawText, provider          sql.NullString
		confidence                 sql.NullFloat64
		docType, docSubtype        sql.NullString
		extracted, validationErrs  sql.NullString
		processingError            sql.NullString
		processedAt                sql.NullTime
	)
	err := row.Scan(
		&idStr, &orgStr, &jobStr, &doc.StorageKey, &doc.FileName, &doc.MimeType, &doc.SizeBytes, &status,
		&rawText, &provider, &confidence, &doc.NeedsReview, &docType, &docSubtype,
		&extracted, &validationErrs, &processingError, &doc.CreatedAt, &processedAt,
	)
	if err != nil {
		return nil, err
	}

	if doc.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if doc.OrganizationID, err = uuid.Parse(orgStr); err != nil {
		return nil, err
	}
	if doc.JobID, err = uuid.Parse(jobStr); err != nil {
		return nil, err
	}
	doc.Status = constants.DocumentStatus(status)

	if rawText.Valid {
		doc.RawText = &rawText.String
	}
	if provider.Valid {
		doc.OCRProvider = &provider.String
	}
	if confidence.Valid {
		c := float32(confidence.Float64)
		doc.OCRConfidence = &c
	}
	if docType.Valid {
		t := constants.DocumentType(docType.String)
		doc.DocType = &t
	}
	if docSubtype.Valid {
		doc.DocSubtype = &docSubtype.String
	}
	if extracted.Valid {
		doc.ExtractedData = json.RawMessage(extracted.String)
	}
	if validationErrs.Valid {
		if err := json.Unmarshal([]byte(validationErrs.String), &doc.ValidationErrors); err != nil {
			return nil, err
		}
	}
	if processingError.Valid {
		doc.ProcessingError = &processingError.String
	}
	if processedAt.Valid {
		doc.ProcessedAt = &processedAt.Time
	}
	return &doc, nil
}
