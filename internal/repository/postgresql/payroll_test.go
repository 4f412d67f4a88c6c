package postgresql

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var runColumnNames = []string{
	"id", "business_id", "start_date", "end_date", "pay_schedule", "run_date", "status",
	"total_gross_pay", "total_employees", "processed_count", "failed_count", "failures",
	"failure_reason", "created_by", "completed_at", "created_at", "updated_at",
}

func runRow(rows *pgxmock.Rows, id string, status string) *pgxmock.Rows {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	return rows.AddRow(
		id, "biz-1", start, end, "bi-weekly", now, status,
		"410.00", 3, 2, 1, []byte(`[{"worker_id":"w3","worker_email":"cy@example.com","stage":"calculate","reason":"negative rate"}]`),
		(*string)(nil), (*string)(nil), &now, now, now,
	)
}

func sampleRun() payroll.Run {
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)
	return payroll.Run{
		ID:            uuid.NewString(),
		BusinessID:    uuid.NewString(),
		StartDate:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC),
		PaySchedule:   payroll.PayScheduleBiWeekly,
		RunDate:       now,
		Status:        payroll.RunStatusProcessing,
		TotalGrossPay: decimal.Zero,
	}
}

// ========== RUNS ==========

func TestPayrollRepository_CreateRun(t *testing.T) {
	mock, db := newMockDB(t)
	run := sampleRun()
	created := time.Date(2024, 3, 15, 9, 0, 1, 0, time.UTC)

	mock.ExpectQuery("INSERT INTO payroll_runs").
		WithArgs(run.ID, run.BusinessID, run.StartDate, run.EndDate, "bi-weekly", run.RunDate, "processing", run.TotalGrossPay, run.CreatedBy).
		WillReturnRows(pgxmock.NewRows([]string{"created_at", "updated_at"}).AddRow(created, created))

	got, err := NewPayrollRepository(db).CreateRun(context.Background(), run)
	require.NoError(t, err)

	assert.Equal(t, created, got.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func createRunArgs(run payroll.Run) []interface{} {
	return []interface{}{
		run.ID, run.BusinessID, run.StartDate, run.EndDate, string(run.PaySchedule), run.RunDate,
		string(run.Status), run.TotalGrossPay, run.CreatedBy,
	}
}

func TestPayrollRepository_CreateRunAlreadyProcessing(t *testing.T) {
	mock, db := newMockDB(t)
	run := sampleRun()

	mock.ExpectQuery("INSERT INTO payroll_runs").
		WithArgs(createRunArgs(run)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: constraintRunProcessing})

	_, err := NewPayrollRepository(db).CreateRun(context.Background(), run)
	assert.ErrorIs(t, err, payroll.ErrPayrollRunInProgress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepository_CreateRunOtherUniqueViolation(t *testing.T) {
	mock, db := newMockDB(t)
	run := sampleRun()

	mock.ExpectQuery("INSERT INTO payroll_runs").
		WithArgs(createRunArgs(run)...).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "payroll_runs_pkey"})

	_, err := NewPayrollRepository(db).CreateRun(context.Background(), run)
	require.Error(t, err)
	assert.NotErrorIs(t, err, payroll.ErrPayrollRunInProgress)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepository_GetRunByID(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery("FROM payroll_runs").
		WithArgs("run-1", "biz-1").
		WillReturnRows(runRow(pgxmock.NewRows(runColumnNames), "run-1", "partial"))

	got, err := NewPayrollRepository(db).GetRunByID(context.Background(), "run-1", "biz-1")
	require.NoError(t, err)

	assert.Equal(t, payroll.RunStatusPartial, got.Status)
	assert.Equal(t, payroll.PayScheduleBiWeekly, got.PaySchedule)
	assert.True(t, decimal.NewFromInt(410).Equal(got.TotalGrossPay))
	assert.Equal(t, 3, got.TotalEmployees)
	require.Len(t, got.Failures, 1)
	assert.Equal(t, payroll.StageCalculate, got.Failures[0].Stage)
	assert.NotNil(t, got.CompletedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepository_GetRunByIDNotFound(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectQuery("FROM payroll_runs").
		WithArgs("run-1", "biz-1").
		WillReturnError(pgx.ErrNoRows)

	_, err := NewPayrollRepository(db).GetRunByID(context.Background(), "run-1", "biz-1")
	assert.ErrorIs(t, err, payroll.ErrPayrollRunNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepository_ListRunsWithStatus(t *testing.T) {
	mock, db := newMockDB(t)
	status := "partial"

	mock.ExpectQuery("SELECT COUNT").
		WithArgs("biz-1", "partial").
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(int64(21)))
	rows := pgxmock.NewRows(runColumnNames)
	runRow(rows, "run-1", "partial")
	mock.ExpectQuery("ORDER BY run_date DESC").
		WithArgs("biz-1", "partial", 20, 20).
		WillReturnRows(rows)

	runs, total, err := NewPayrollRepository(db).ListRuns(context.Background(), "biz-1", payroll.RunFilter{
		Status: &status,
		Page:   2,
		Limit:  20,
	})
	require.NoError(t, err)

	assert.EqualValues(t, 21, total)
	assert.Len(t, runs, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func finalizedRun() payroll.Run {
	run := sampleRun()
	completed := time.Date(2024, 3, 15, 9, 5, 0, 0, time.UTC)
	run.Status = payroll.RunStatusCompleted
	run.TotalGrossPay = decimal.RequireFromString("410.00")
	run.TotalEmployees = 2
	run.ProcessedCount = 2
	run.CompletedAt = &completed
	return run
}

func finalizeArgs(run payroll.Run) []interface{} {
	return []interface{}{
		run.ID, run.BusinessID, string(run.Status), run.TotalGrossPay, run.TotalEmployees,
		run.ProcessedCount, run.FailedCount, []byte("[]"), run.FailureReason, run.CompletedAt,
	}
}

func TestPayrollRepository_FinalizeRun(t *testing.T) {
	mock, db := newMockDB(t)
	run := finalizedRun()

	mock.ExpectExec("status = 'processing'").
		WithArgs(finalizeArgs(run)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, NewPayrollRepository(db).FinalizeRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepository_FinalizeRunNotProcessing(t *testing.T) {
	mock, db := newMockDB(t)
	run := finalizedRun()

	mock.ExpectExec("status = 'processing'").
		WithArgs(finalizeArgs(run)...).
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := NewPayrollRepository(db).FinalizeRun(context.Background(), run)
	assert.ErrorIs(t, err, payroll.ErrPayrollRunNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepository_FinalizeRunFailure(t *testing.T) {
	mock, db := newMockDB(t)
	run := finalizedRun()

	mock.ExpectExec("UPDATE payroll_runs").
		WithArgs(finalizeArgs(run)...).
		WillReturnError(fmt.Errorf("connection reset"))

	err := NewPayrollRepository(db).FinalizeRun(context.Background(), run)
	require.Error(t, err)
	assert.NotErrorIs(t, err, payroll.ErrPayrollRunNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepository_TouchRun(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectExec("SET updated_at = NOW").
		WithArgs("run-1", "biz-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	assert.NoError(t, NewPayrollRepository(db).TouchRun(context.Background(), "run-1", "biz-1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepository_TouchRunNotProcessing(t *testing.T) {
	mock, db := newMockDB(t)

	mock.ExpectExec("SET updated_at = NOW").
		WithArgs("run-1", "biz-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	err := NewPayrollRepository(db).TouchRun(context.Background(), "run-1", "biz-1")
	assert.ErrorIs(t, err, payroll.ErrPayrollRunNotPending)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepository_FailStaleRuns(t *testing.T) {
	mock, db := newMockDB(t)
	cutoff := time.Date(2024, 3, 15, 8, 30, 0, 0, time.UTC)

	mock.ExpectExec("updated_at < ").
		WithArgs(cutoff, "abandoned").
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))

	n, err := NewPayrollRepository(db).FailStaleRuns(context.Background(), cutoff, "abandoned")
	require.NoError(t, err)
	assert.EqualValues(t, 2, n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ========== RECORDS ==========

func sampleRecords(run payroll.Run, n int) []payroll.Record {
	records := make([]payroll.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, payroll.Record{
			ID:          uuid.NewString(),
			RunID:       run.ID,
			BusinessID:  run.BusinessID,
			WorkerID:    uuid.NewString(),
			WorkerEmail: fmt.Sprintf("w%d@example.com", i),
			PaymentType: "hourly",
			GrossPay:    decimal.RequireFromString("160.25"),
			NetPay:      decimal.RequireFromString("160.25"),
			CreatedAt:   run.RunDate,
		})
	}
	return records
}

func TestPayrollRepository_BulkCreateRecords(t *testing.T) {
	mock, db := newMockDB(t)
	records := sampleRecords(sampleRun(), 2)

	mock.ExpectBegin()
	mock.ExpectCopyFrom(pgx.Identifier{"payroll_records"}, recordColumns).WillReturnResult(2)
	mock.ExpectCommit()

	assert.NoError(t, NewPayrollRepository(db).BulkCreateRecords(context.Background(), records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepository_BulkCreateRecordsRollsBack(t *testing.T) {
	mock, db := newMockDB(t)
	records := sampleRecords(sampleRun(), 2)

	mock.ExpectBegin()
	mock.ExpectCopyFrom(pgx.Identifier{"payroll_records"}, recordColumns).WillReturnError(fmt.Errorf("duplicate key"))
	mock.ExpectRollback()

	err := NewPayrollRepository(db).BulkCreateRecords(context.Background(), records)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPayrollRepository_BulkCreateRecordsInvalidID(t *testing.T) {
	_, db := newMockDB(t)
	records := sampleRecords(sampleRun(), 1)
	records[0].WorkerID = "not-a-uuid"

	err := NewPayrollRepository(db).BulkCreateRecords(context.Background(), records)
	assert.Error(t, err)
}

func TestPayrollRepository_CreateRecord(t *testing.T) {
	mock, db := newMockDB(t)
	rec := sampleRecords(sampleRun(), 1)[0]

	mock.ExpectExec("INSERT INTO payroll_records").
		WithArgs(
			rec.ID, rec.RunID, rec.BusinessID, rec.WorkerID, rec.WorkerEmail, rec.WorkerName,
			rec.PaymentType, rec.GrossPay, rec.TotalHours, rec.TotalMileage, rec.MileagePay,
			rec.CommissionEarned, rec.NetPay, pgxmock.AnyArg(), rec.CreatedAt,
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	assert.NoError(t, NewPayrollRepository(db).CreateRecord(context.Background(), rec))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNumeric(t *testing.T) {
	n := numeric(decimal.RequireFromString("160.25"))

	assert.True(t, n.Valid)
	assert.EqualValues(t, 16025, n.Int.Int64())
	assert.EqualValues(t, -2, n.Exp)
}
