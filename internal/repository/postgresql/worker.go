package postgresql

import (
	"context"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/worker"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/database"
	"github.com/rotisserie/eris"
)

type workerRepository struct {
	db *database.DB
}

func NewWorkerRepository(db *database.DB) worker.WorkerRepository {
	return &workerRepository{db: db}
}

func (r *workerRepository) ListByBusiness(ctx context.Context, businessID string) ([]worker.Worker, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, business_id, email, full_name, payment_type,
			   hourly_rate, salary_amount, commission_rate, bonus_rate, mileage_rate,
			   is_active, created_at, updated_at
		FROM workers
		WHERE business_id = $1 AND is_active = true
		ORDER BY email
	`

	rows, err := q.Query(ctx, query, businessID)
	if err != nil {
		return nil, eris.Wrap(err, "failed to list workers")
	}
	defer rows.Close()

	var workers []worker.Worker
	for rows.Next() {
		var w worker.Worker
		if err := rows.Scan(
			&w.ID, &w.BusinessID, &w.Email, &w.FullName, &w.PaymentType,
			&w.HourlyRate, &w.SalaryAmount, &w.CommissionRate, &w.BonusRate, &w.MileageRate,
			&w.IsActive, &w.CreatedAt, &w.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "failed to scan worker")
		}
		workers = append(workers, w)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to iterate workers")
	}

	return workers, nil
}
