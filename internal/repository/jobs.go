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
	"github.com/roofscope/roofscope/internal/entity"
)

// JobRepository persists roofing jobs and their financial rollups.
type JobRepository interface {
	Create(ctx context.Context, job *entity.Job) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*entity.Job, error)
	// UpdateFinancials overwrites the job's claim rollups. Called after each
	// successful insurance extraction, last writer wins.
	UpdateFinancials(ctx context.Context, id uuid.UUID, totalRCV, totalACV, deductible *float64, lineItems json.RawMessage) error
}

type jobRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewJobRepository(db *DB, logger *slog.Logger) JobRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &jobRepo{db: db, logger: logger}
}

func (r *jobRepo) Create(ctx context.Context, job *entity.Job) error {
	if job.ID == uuid.Nil {
		job.ID = uuid.New()
	}
	now := time.Now().UTC()
	if job.CreatedAt.IsZero() {
		job.CreatedAt = now
	}
	job.UpdatedAt = now
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO jobs (id, organization_id, name, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`),
		job.ID.String(), job.OrganizationID.String(), job.Name, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("jobs.create.failed", "job_id", job.ID, "error", err)
		return common.WrapError(err, "create job")
	}
	return nil
}

func (r *jobRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*entity.Job, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT id, organization_id, name, total_rcv, total_acv, deductible, line_items, created_at, updated_at
		 FROM jobs WHERE id = ? AND organization_id = ?`),
		id.String(), orgID.String(),
	)

	var (
		job          entity.Job
		idStr, org   string
		rcv, acv, de sql.NullFloat64
		items        sql.NullString
	)
	err := row.Scan(&idStr, &org, &job.Name, &rcv, &acv, &de, &items, &job.CreatedAt, &job.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("JOB_NOT_FOUND", "job not found", common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "get job")
	}
	if job.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if job.OrganizationID, err = uuid.Parse(org); err != nil {
		return nil, err
	}
	if rcv.Valid {
		job.TotalRCV = &rcv.Float64
	}
	if acv.Valid {
		job.TotalACV = &acv.Float64
	}
	if de.Valid {
		job.Deductible = &de.Float64
	}
	if items.Valid {
		job.LineItems = json.RawMessage(items.String)
	}
	return &job, nil
}

func (r *jobRepo) UpdateFinancials(ctx context.Context, id uuid.UUID, totalRCV, totalACV, deductible *float64, lineItems json.RawMessage) error {
	var itemsVal any
	if len(lineItems) > 0 {
		itemsVal = string(lineItems)
	}
	_, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE jobs SET total_rcv = ?, total_acv = ?, deductible = ?, line_items = ?, updated_at = ? WHERE id = ?`),
		nullableFloat(totalRCV), nullableFloat(totalACV), nullableFloat(deductible), itemsVal, time.Now().UTC(), id.String(),
	)
	if err != nil {
		r.logger.Error("jobs.update_financials.failed", "job_id", id, "error", err)
		return common.WrapError(err, "update job financials")
	}
	return nil
}

func nullableFloat(f *float64) any {
	if f == nil {
		return nil
	}
	return *f
}
