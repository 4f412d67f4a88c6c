package postgresql

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/subcontractor"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAssignmentRepository_GetByIDNotFound(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery("FROM subcontractor_assignments").
		WithArgs("asg-1", "biz-1").
		WillReturnError(pgx.ErrNoRows)

	_, err := NewAssignmentRepository(db).GetByID(context.Background(), "asg-1", "biz-1")
	assert.ErrorIs(t, err, subcontractor.ErrAssignmentNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepository_MarkVerified(t *testing.T) {
	mock, db := newMockDB(t)
	at := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE subcontractor_assignments").
		WithArgs("asg-1", "biz-1", "manager-1", at).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := NewAssignmentRepository(db).MarkVerified(context.Background(), "asg-1", "biz-1", "manager-1", at)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepository_GuardedTransitionsRejectStaleState(t *testing.T) {
	at := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

	tests := []struct {
		name  string
		query string
		args  []interface{}
		call  func(r subcontractor.AssignmentRepository) error
	}{
		{
			name:  "verify",
			query: "completion_verified = false",
			args:  []interface{}{"asg-1", "biz-1", "manager-1", at},
			call: func(r subcontractor.AssignmentRepository) error {
				return r.MarkVerified(context.Background(), "asg-1", "biz-1", "manager-1", at)
			},
		},
		{
			name:  "release holdback",
			query: "holdback_released = false",
			args:  []interface{}{"asg-1", "biz-1", at},
			call: func(r subcontractor.AssignmentRepository) error {
				return r.MarkHoldbackReleased(context.Background(), "asg-1", "biz-1", at)
			},
		},
		{
			name:  "process payment",
			query: "payment_processed = false",
			args:  []interface{}{"asg-1", "biz-1", decimal.NewFromInt(850), at},
			call: func(r subcontractor.AssignmentRepository) error {
				return r.MarkPaymentProcessed(context.Background(), "asg-1", "biz-1", decimal.NewFromInt(850), at)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mock, db := newMockDB(t)
			mock.ExpectExec(tt.query).
				WithArgs(tt.args...).
				WillReturnResult(pgxmock.NewResult("UPDATE", 0))

			err := tt.call(NewAssignmentRepository(db))
			assert.ErrorIs(t, err, subcontractor.ErrAssignmentStateChanged)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestAssignmentRepository_MarkPaymentProcessedFailure(t *testing.T) {
	mock, db := newMockDB(t)
	at := time.Date(2024, 4, 2, 10, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE subcontractor_assignments").
		WithArgs("asg-1", "biz-1", decimal.NewFromInt(1), at).
		WillReturnError(fmt.Errorf("check constraint violated"))

	err := NewAssignmentRepository(db).MarkPaymentProcessed(context.Background(), "asg-1", "biz-1", decimal.NewFromInt(1), at)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check constraint violated")
	assert.NotErrorIs(t, err, subcontractor.ErrAssignmentStateChanged)
	assert.NoError(t, mock.ExpectationsWereMet())
}
