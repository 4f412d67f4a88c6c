package subcontractor

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// AssignmentRepository defines data access for subcontractor assignments.
// Mark* methods only update rows still in the expected prior state and return
// ErrAssignmentStateChanged otherwise.
type AssignmentRepository interface {
	GetByID(ctx context.Context, id string, businessID string) (Assignment, error)
	MarkVerified(ctx context.Context, id string, businessID string, verifierID string, at time.Time) error
	MarkHoldbackReleased(ctx context.Context, id string, businessID string, at time.Time) error
	MarkPaymentProcessed(ctx context.Context, id string, businessID string, netAmount decimal.Decimal, at time.Time) error
}
