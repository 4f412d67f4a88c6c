package postgresql

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
)

const constraintRunProcessing = "uk_payroll_runs_processing"

var recordColumns = []string{
	"id", "run_id", "business_id", "worker_id", "worker_email", "worker_name", "payment_type",
	"gross_pay", "total_hours", "total_mileage", "mileage_pay", "commission_earned", "net_pay",
	"calculation_details", "created_at",
}

type payrollRepository struct {
	db *database.DB
}

func NewPayrollRepository(db *database.DB) payroll.PayrollRepository {
	return &payrollRepository{db: db}
}

// ========== RUNS ==========

func (r *payrollRepository) CreateRun(ctx context.Context, run payroll.Run) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO payroll_runs (
			id, business_id, start_date, end_date, pay_schedule, run_date, status,
			total_gross_pay, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`

	err := q.QueryRow(ctx, query,
		run.ID, run.BusinessID, run.StartDate, run.EndDate, string(run.PaySchedule), run.RunDate,
		string(run.Status), run.TotalGrossPay, run.CreatedBy,
	).Scan(&run.CreatedAt, &run.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, constraintRunProcessing) {
			return payroll.Run{}, payroll.ErrPayrollRunInProgress
		}
		return payroll.Run{}, eris.Wrap(err, "failed to create payroll run")
	}

	return run, nil
}

const runColumns = `
	id, business_id, start_date, end_date, pay_schedule, run_date, status,
	total_gross_pay, total_employees, processed_count, failed_count, failures,
	failure_reason, created_by, completed_at, created_at, updated_at
`

func scanRun(row pgx.Row) (payroll.Run, error) {
	var run payroll.Run
	var failures []byte
	if err := row.Scan(
		&run.ID, &run.BusinessID, &run.StartDate, &run.EndDate, &run.PaySchedule, &run.RunDate, &run.Status,
		&run.TotalGrossPay, &run.TotalEmployees, &run.ProcessedCount, &run.FailedCount, &failures,
		&run.FailureReason, &run.CreatedBy, &run.CompletedAt, &run.CreatedAt, &run.UpdatedAt,
	); err != nil {
		return payroll.Run{}, err
	}
	if len(failures) > 0 {
		if err := json.Unmarshal(failures, &run.Failures); err != nil {
			return payroll.Run{}, eris.Wrap(err, "failed to decode run failures")
		}
	}
	return run, nil
}

func (r *payrollRepository) GetRunByID(ctx context.Context, id string, businessID string) (payroll.Run, error) {
	q := GetQuerier(ctx, r.db)

	query := `SELECT ` + runColumns + ` FROM payroll_runs WHERE id = $1 AND business_id = $2`

	run, err := scanRun(q.QueryRow(ctx, query, id, businessID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return payroll.Run{}, payroll.ErrPayrollRunNotFound
		}
		return payroll.Run{}, eris.Wrap(err, "failed to get payroll run")
	}

	return run, nil
}

func (r *payrollRepository) ListRuns(ctx context.Context, businessID string, filter payroll.RunFilter) ([]payroll.Run, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := "WHERE business_id = $1"
	args := []interface{}{businessID}
	if filter.Status != nil {
		args = append(args, *filter.Status)
		where += fmt.Sprintf(" AND status = $%d", len(args))
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM payroll_runs "+where, args...).Scan(&total); err != nil {
		return nil, 0, eris.Wrap(err, "failed to count payroll runs")
	}

	offset := (filter.Page - 1) * filter.Limit
	args = append(args, filter.Limit, offset)
	query := fmt.Sprintf(`SELECT %s FROM payroll_runs %s ORDER BY run_date DESC, id DESC LIMIT $%d OFFSET $%d`,
		runColumns, where, len(args)-1, len(args))

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, eris.Wrap(err, "failed to list payroll runs")
	}
	defer rows.Close()

	var runs []payroll.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, 0, eris.Wrap(err, "failed to scan payroll run")
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, eris.Wrap(err, "failed to iterate payroll runs")
	}

	return runs, total, nil
}

func (r *payrollRepository) FinalizeRun(ctx context.Context, run payroll.Run) error {
	q := GetQuerier(ctx, r.db)

	failures, err := json.Marshal(nonNilFailures(run.Failures))
	if err != nil {
		return eris.Wrap(err, "failed to encode run failures")
	}

	query := `
		UPDATE payroll_runs SET
			status = $3, total_gross_pay = $4, total_employees = $5,
			processed_count = $6, failed_count = $7, failures = $8,
			failure_reason = $9, completed_at = $10, updated_at = NOW()
		WHERE id = $1 AND business_id = $2 AND status = 'processing'
	`

	tag, err := q.Exec(ctx, query,
		run.ID, run.BusinessID, string(run.Status), run.TotalGrossPay, run.TotalEmployees,
		run.ProcessedCount, run.FailedCount, failures, run.FailureReason, run.CompletedAt,
	)
	if err != nil {
		return eris.Wrap(err, "failed to finalize payroll run")
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollRunNotPending
	}

	return nil
}

func (r *payrollRepository) TouchRun(ctx context.Context, id string, businessID string) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_runs SET updated_at = NOW()
		WHERE id = $1 AND business_id = $2 AND status = 'processing'
	`

	tag, err := q.Exec(ctx, query, id, businessID)
	if err != nil {
		return eris.Wrap(err, "failed to touch payroll run")
	}
	if tag.RowsAffected() == 0 {
		return payroll.ErrPayrollRunNotPending
	}

	return nil
}

func (r *payrollRepository) FailStaleRuns(ctx context.Context, cutoff time.Time, reason string) (int64, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE payroll_runs
		SET status = 'failed', failure_reason = $2, completed_at = NOW(), updated_at = NOW()
		WHERE status = 'processing' AND updated_at < $1
	`

	tag, err := q.Exec(ctx, query, cutoff, reason)
	if err != nil {
		return 0, eris.Wrap(err, "failed to fail stale payroll runs")
	}

	return tag.RowsAffected(), nil
}

func nonNilFailures(f []payroll.WorkerFailure) []payroll.WorkerFailure {
	if f == nil {
		return []payroll.WorkerFailure{}
	}
	return f
}

// ========== RECORDS ==========

// BulkCreateRecords writes all records with COPY inside one transaction.
// Either every record is stored or none is.
func (r *payrollRepository) BulkCreateRecords(ctx context.Context, records []payroll.Record) error {
	if len(records) == 0 {
		return nil
	}

	rows := make([][]interface{}, 0, len(records))
	for _, rec := range records {
		row, err := copyRow(rec)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return WithTransaction(ctx, r.db, func(txCtx context.Context) error {
		tx, ok := txFromContext(txCtx)
		if !ok {
			return eris.New("bulk insert requires a transaction")
		}

		n, err := tx.CopyFrom(txCtx, pgx.Identifier{"payroll_records"}, recordColumns, pgx.CopyFromRows(rows))
		if err != nil {
			return eris.Wrap(err, "failed to copy payroll records")
		}
		if n != int64(len(records)) {
			return eris.Errorf("copied %d of %d payroll records", n, len(records))
		}
		return nil
	})
}

func (r *payrollRepository) CreateRecord(ctx context.Context, record payroll.Record) error {
	q := GetQuerier(ctx, r.db)

	details, err := json.Marshal(record.CalculationDetails)
	if err != nil {
		return eris.Wrap(err, "failed to encode calculation details")
	}

	query := `
		INSERT INTO payroll_records (
			id, run_id, business_id, worker_id, worker_email, worker_name, payment_type,
			gross_pay, total_hours, total_mileage, mileage_pay, commission_earned, net_pay,
			calculation_details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = q.Exec(ctx, query,
		record.ID, record.RunID, record.BusinessID, record.WorkerID, record.WorkerEmail, record.WorkerName,
		record.PaymentType, record.GrossPay, record.TotalHours, record.TotalMileage, record.MileagePay,
		record.CommissionEarned, record.NetPay, details, record.CreatedAt,
	)
	if err != nil {
		return eris.Wrapf(err, "failed to create payroll record for worker %s", record.WorkerID)
	}

	return nil
}

func (r *payrollRepository) ListRecordsByRun(ctx context.Context, runID string, businessID string) ([]payroll.Record, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, run_id, business_id, worker_id, worker_email, worker_name, payment_type,
			   gross_pay, total_hours, total_mileage, mileage_pay, commission_earned, net_pay,
			   calculation_details, created_at
		FROM payroll_records
		WHERE run_id = $1 AND business_id = $2
		ORDER BY worker_email
	`

	rows, err := q.Query(ctx, query, runID, businessID)
	if err != nil {
		return nil, eris.Wrap(err, "failed to list payroll records")
	}
	defer rows.Close()

	var records []payroll.Record
	for rows.Next() {
		var rec payroll.Record
		var details []byte
		if err := rows.Scan(
			&rec.ID, &rec.RunID, &rec.BusinessID, &rec.WorkerID, &rec.WorkerEmail, &rec.WorkerName, &rec.PaymentType,
			&rec.GrossPay, &rec.TotalHours, &rec.TotalMileage, &rec.MileagePay, &rec.CommissionEarned, &rec.NetPay,
			&details, &rec.CreatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "failed to scan payroll record")
		}
		if err := json.Unmarshal(details, &rec.CalculationDetails); err != nil {
			return nil, eris.Wrap(err, "failed to decode calculation details")
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to iterate payroll records")
	}

	return records, nil
}

// copyRow converts a record into binary COPY values.
func copyRow(rec payroll.Record) ([]interface{}, error) {
	details, err := json.Marshal(rec.CalculationDetails)
	if err != nil {
		return nil, eris.Wrap(err, "failed to encode calculation details")
	}

	ids := make([]pgtype.UUID, 4)
	for i, s := range []string{rec.ID, rec.RunID, rec.BusinessID, rec.WorkerID} {
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, eris.Wrapf(err, "invalid uuid %q in payroll record", s)
		}
		ids[i] = pgtype.UUID{Bytes: u, Valid: true}
	}

	return []interface{}{
		ids[0], ids[1], ids[2], ids[3], rec.WorkerEmail, rec.WorkerName, rec.PaymentType,
		numeric(rec.GrossPay), numeric(rec.TotalHours), numeric(rec.TotalMileage), numeric(rec.MileagePay),
		numeric(rec.CommissionEarned), numeric(rec.NetPay), details, rec.CreatedAt,
	}, nil
}

func numeric(d decimal.Decimal) pgtype.Numeric {
	return pgtype.Numeric{Int: d.Coefficient(), Exp: d.Exponent(), Valid: true}
}
