package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roofscope/roofscope/internal/common"
)

// AnalysisKind distinguishes the typed payloads stored per document.
type AnalysisKind string

const (
	AnalysisInsurance AnalysisKind = "insurance"
	AnalysisAerial    AnalysisKind = "aerial"
)

// Analysis is one typed extraction result row. The payload is the JSON
// encoding of entity.InsuranceExtraction or entity.AerialExtraction.
type Analysis struct {
	ID         uuid.UUID       `json:"id"`
	DocumentID uuid.UUID       `json:"document_id"`
	Kind       AnalysisKind    `json:"kind"`
	Payload    json.RawMessage `json:"payload"`
	IsValid    bool            `json:"is_valid"`
	Warnings   []string        `json:"warnings,omitempty"`
	CreatedAt  time.Time       `json:"created_at"`
}

// AnalysisRepository stores per-document extraction results. A reprocessed
// document appends a new row rather than overwriting, so history survives.
type AnalysisRepository interface {
	Save(ctx context.Context, a *Analysis) error
	LatestForDocument(ctx context.Context, documentID uuid.UUID, kind AnalysisKind) (*Analysis, error)
	// LatestForJob returns the newest analysis of the given kind across all of
	// the job's documents. Used to feed aerial measurements into insurance
	// cross-checks.
	LatestForJob(ctx context.Context, jobID uuid.UUID, kind AnalysisKind) (*Analysis, error)
}

type analysisRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewAnalysisRepository(db *DB, logger *slog.Logger) AnalysisRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &analysisRepo{db: db, logger: logger}
}

func (r *analysisRepo) Save(ctx context.Context, a *Analysis) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	if a.CreatedAt.IsZero() {
		a.CreatedAt = time.Now().UTC()
	}
	var warningsVal any
	if len(a.Warnings) > 0 {
		b, err := json.Marshal(a.Warnings)
		if err != nil {
			return common.WrapError(err, "encode warnings")
		}
		warningsVal = string(b)
	}
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO document_analyses (id, document_id, kind, payload, is_valid, warnings, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		a.ID.String(), a.DocumentID.String(), string(a.Kind), string(a.Payload), a.IsValid, warningsVal, a.CreatedAt,
	)
	if err != nil {
		r.logger.Error("analyses.save.failed", "document_id", a.DocumentID, "kind", a.Kind, "error", err)
		return common.WrapError(err, "save analysis")
	}
	return nil
}

func (r *analysisRepo) LatestForDocument(ctx context.Context, documentID uuid.UUID, kind AnalysisKind) (*Analysis, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT id, document_id, kind, payload, is_valid, warnings, created_at
		 FROM document_analyses WHERE document_id = ? AND kind = ?
		 ORDER BY created_at DESC LIMIT 1`),
		documentID.String(), string(kind),
	)
	return r.scanAnalysis(row)
}

func (r *analysisRepo) LatestForJob(ctx context.Context, jobID uuid.UUID, kind AnalysisKind) (*Analysis, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT a.id, a.document_id, a.kind, a.payload, a.is_valid, a.warnings, a.created_at
		 FROM document_analyses a
		 JOIN documents d ON d.id = a.document_id
		 WHERE d.job_id = ? AND a.kind = ?
		 ORDER BY a.created_at DESC LIMIT 1`),
		jobID.String(), string(kind),
	)
	return r.scanAnalysis(row)
}

func (r *analysisRepo) scanAnalysis(row *sql.Row) (*Analysis, error) {
	var (
		a            Analysis
		idStr, docID string
		kindStr      string
		payload      string
		warnings     sql.NullString
	)
	err := row.Scan(&idStr, &docID, &kindStr, &payload, &a.IsValid, &warnings, &a.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("ANALYSIS_NOT_FOUND", "no analysis for document", common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "get analysis")
	}
	if a.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if a.DocumentID, err = uuid.Parse(docID); err != nil {
		return nil, err
	}
	a.Kind = AnalysisKind(kindStr)
	a.Payload = json.RawMessage(payload)
	if warnings.Valid {
		if err := json.Unmarshal([]byte(warnings.String), &a.Warnings); err != nil {
			return nil, err
		}
	}
	return &a, nil
}
