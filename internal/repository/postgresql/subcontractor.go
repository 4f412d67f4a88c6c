package postgresql

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/subcontractor"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

type assignmentRepository struct {
	db *database.DB
}

func NewAssignmentRepository(db *database.DB) subcontractor.AssignmentRepository {
	return &assignmentRepository{db: db}
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string, businessID string) (subcontractor.Assignment, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, business_id, project_id, subcontractor_name, subcontractor_email, status,
			   final_amount, daily_delay_penalties, completion_delay_penalties,
			   completion_verified, verified_by, verified_at,
			   holdback_released, holdback_released_at,
			   payment_processed, payment_processed_at, net_payment_amount,
			   created_at, updated_at
		FROM subcontractor_assignments
		WHERE id = $1 AND business_id = $2
	`

	var a subcontractor.Assignment
	err := q.QueryRow(ctx, query, id, businessID).Scan(
		&a.ID, &a.BusinessID, &a.ProjectID, &a.SubcontractorName, &a.SubcontractorEmail, &a.Status,
		&a.FinalAmount, &a.DailyDelayPenalties, &a.CompletionDelayPenalties,
		&a.CompletionVerified, &a.VerifiedBy, &a.VerifiedAt,
		&a.HoldbackReleased, &a.HoldbackReleasedAt,
		&a.PaymentProcessed, &a.PaymentProcessedAt, &a.NetPaymentAmount,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return subcontractor.Assignment{}, subcontractor.ErrAssignmentNotFound
		}
		return subcontractor.Assignment{}, eris.Wrap(err, "failed to get subcontractor assignment")
	}

	return a, nil
}

// ========== GUARDED TRANSITIONS ==========

func (r *assignmentRepository) MarkVerified(ctx context.Context, id string, businessID string, verifierID string, at time.Time) error {
	query := `
		UPDATE subcontractor_assignments
		SET completion_verified = true, verified_by = $3, verified_at = $4, updated_at = NOW()
		WHERE id = $1 AND business_id = $2 AND status = 'completed' AND completion_verified = false
	`
	return r.execGuarded(ctx, "verify", query, id, businessID, verifierID, at)
}

func (r *assignmentRepository) MarkHoldbackReleased(ctx context.Context, id string, businessID string, at time.Time) error {
	query := `
		UPDATE subcontractor_assignments
		SET holdback_released = true, holdback_released_at = $3, updated_at = NOW()
		WHERE id = $1 AND business_id = $2 AND completion_verified = true AND holdback_released = false
	`
	return r.execGuarded(ctx, "release holdback", query, id, businessID, at)
}

func (r *assignmentRepository) MarkPaymentProcessed(ctx context.Context, id string, businessID string, netAmount decimal.Decimal, at time.Time) error {
	query := `
		UPDATE subcontractor_assignments
		SET payment_processed = true, payment_processed_at = $4, net_payment_amount = $3, updated_at = NOW()
		WHERE id = $1 AND business_id = $2 AND completion_verified = true AND payment_processed = false
	`
	return r.execGuarded(ctx, "process payment", query, id, businessID, netAmount, at)
}

func (r *assignmentRepository) execGuarded(ctx context.Context, action string, query string, args ...interface{}) error {
	q := GetQuerier(ctx, r.db)

	tag, err := q.Exec(ctx, query, args...)
	if err != nil {
		return eris.Wrapf(err, "failed to %s subcontractor assignment", action)
	}
	if tag.RowsAffected() == 0 {
		return subcontractor.ErrAssignmentStateChanged
	}
	return nil
}
