package repository

import (
	"context"
	"fmt"
)

// Migrate applies the schema idempotently. Types stay on the common subset
// that Postgres and SQLite both accept.
func Migrate(ctx context.Context, db *DB) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS jobs (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			name TEXT NOT NULL,
			total_rcv DOUBLE PRECISION,
			total_acv DOUBLE PRECISION,
			deductible DOUBLE PRECISION,
			line_items TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS documents (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			job_id TEXT NOT NULL,
			storage_key TEXT NOT NULL,
			file_name TEXT NOT NULL,
			mime_type TEXT NOT NULL,
			size_bytes BIGINT NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			raw_text TEXT,
			ocr_provider TEXT,
			ocr_confidence REAL,
			needs_review BOOLEAN NOT NULL DEFAULT FALSE,
			doc_type TEXT,
			doc_subtype TEXT,
			extracted_data TEXT,
			validation_errors TEXT,
			processing_error TEXT,
			created_at TIMESTAMP NOT NULL,
			processed_at TIMESTAMP
		)`,
		`CREATE INDEX IF NOT EXISTS idx_documents_org_job ON documents (organization_id, job_id)`,
		`CREATE TABLE IF NOT EXISTS document_analyses (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			payload TEXT NOT NULL,
			is_valid BOOLEAN NOT NULL,
			warnings TEXT,
			created_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_analyses_document ON document_analyses (document_id)`,
		`CREATE TABLE IF NOT EXISTS products (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			subcategory TEXT,
			manufacturer_sku TEXT,
			unit TEXT NOT NULL,
			prices TEXT,
			active BOOLEAN NOT NULL DEFAULT TRUE,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS supplier_configs (
			organization_id TEXT NOT NULL,
			supplier TEXT NOT NULL,
			enabled BOOLEAN NOT NULL DEFAULT TRUE,
			account_number TEXT,
			PRIMARY KEY (organization_id, supplier)
		)`,
		`CREATE TABLE IF NOT EXISTS estimates (
			id TEXT PRIMARY KEY,
			organization_id TEXT NOT NULL,
			job_id TEXT,
			status TEXT NOT NULL,
			result TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
	}

	for _, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}
