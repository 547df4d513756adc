package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/roofscope/roofscope/constants"
	"github.com/roofscope/roofscope/internal/common"
	"github.com/roofscope/roofscope/internal/entity"
)

// EstimateRepository persists calculated estimates. The result payload is
// immutable; only the status column moves, and only along the allowed
// transitions.
type EstimateRepository interface {
	Create(ctx context.Context, est *entity.Estimate) error
	GetByID(ctx context.Context, orgID, id uuid.UUID) (*entity.Estimate, error)
	UpdateStatus(ctx context.Context, orgID, id uuid.UUID, to constants.EstimateStatus) error
}

type estimateRepo struct {
	db     *DB
	logger *slog.Logger
}

func NewEstimateRepository(db *DB, logger *slog.Logger) EstimateRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &estimateRepo{db: db, logger: logger}
}

func (r *estimateRepo) Create(ctx context.Context, est *entity.Estimate) error {
	if est.ID == uuid.Nil {
		est.ID = uuid.New()
	}
	if est.Status == "" {
		est.Status = constants.EstimateDraft
	}
	now := time.Now().UTC()
	if est.CreatedAt.IsZero() {
		est.CreatedAt = now
	}
	est.UpdatedAt = now

	result, err := json.Marshal(est.Result)
	if err != nil {
		return common.WrapError(err, "encode estimate result")
	}
	var jobID any
	if est.JobID != nil {
		jobID = est.JobID.String()
	}
	_, err = r.db.ExecContext(ctx, r.db.rebind(
		`INSERT INTO estimates (id, organization_id, job_id, status, result, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`),
		est.ID.String(), est.OrganizationID.String(), jobID, string(est.Status), string(result), est.CreatedAt, est.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("estimates.create.failed", "estimate_id", est.ID, "error", err)
		return common.WrapError(err, "create estimate")
	}
	return nil
}

func (r *estimateRepo) GetByID(ctx context.Context, orgID, id uuid.UUID) (*entity.Estimate, error) {
	row := r.db.QueryRowContext(ctx, r.db.rebind(
		`SELECT id, organization_id, job_id, status, result, created_at, updated_at
		 FROM estimates WHERE id = ? AND organization_id = ?`),
		id.String(), orgID.String(),
	)

	var (
		est         entity.Estimate
		idStr, org  string
		jobID       sql.NullString
		status      string
		result      string
	)
	err := row.Scan(&idStr, &org, &jobID, &status, &result, &est.CreatedAt, &est.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, common.NewAppError("ESTIMATE_NOT_FOUND", "estimate not found", common.ErrNotFound)
	}
	if err != nil {
		return nil, common.WrapError(err, "get estimate")
	}
	if est.ID, err = uuid.Parse(idStr); err != nil {
		return nil, err
	}
	if est.OrganizationID, err = uuid.Parse(org); err != nil {
		return nil, err
	}
	if jobID.Valid {
		jid, err := uuid.Parse(jobID.String)
		if err != nil {
			return nil, err
		}
		est.JobID = &jid
	}
	est.Status = constants.EstimateStatus(status)
	if err := json.Unmarshal([]byte(result), &est.Result); err != nil {
		return nil, common.WrapError(err, "decode estimate result")
	}
	return &est, nil
}

func (r *estimateRepo) UpdateStatus(ctx context.Context, orgID, id uuid.UUID, to constants.EstimateStatus) error {
	est, err := r.GetByID(ctx, orgID, id)
	if err != nil {
		return err
	}
	if !constants.CanTransitionEstimate(est.Status, to) {
		return common.NewAppError("INVALID_TRANSITION",
			fmt.Sprintf("cannot move estimate from %s to %s", est.Status, to),
			common.ErrInvalidInput)
	}
	// Guard the from-status in the WHERE clause so a concurrent transition
	// cannot slip through between the read and the write.
	res, err := r.db.ExecContext(ctx, r.db.rebind(
		`UPDATE estimates SET status = ?, updated_at = ? WHERE id = ? AND organization_id = ? AND status = ?`),
		string(to), time.Now().UTC(), id.String(), orgID.String(), string(est.Status),
	)
	if err != nil {
		r.logger.Error("estimates.update_status.failed", "estimate_id", id, "error", err)
		return common.WrapError(err, "update estimate status")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return common.WrapError(err, "update estimate status")
	}
	if n == 0 {
		return common.NewAppError("ESTIMATE_CONFLICT", "estimate status changed concurrently", common.ErrConflict)
	}
	r.logger.Info("estimates.status_changed", "estimate_id", id, "from", est.Status, "to", to)
	return nil
}
