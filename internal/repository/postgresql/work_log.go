package postgresql

import (
	"context"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/worklog"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/database"
	"github.com/rotisserie/eris"
)

type workLogRepository struct {
	db *database.DB
}

func NewWorkLogRepository(db *database.DB) worklog.WorkLogRepository {
	return &workLogRepository{db: db}
}

func (r *workLogRepository) ListByPeriod(ctx context.Context, businessID string, from, to time.Time) ([]worklog.Entry, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, business_id, worker_email, project_id, start_time, end_time,
			   total_mileage, notes, created_at, updated_at
		FROM work_logs
		WHERE business_id = $1 AND start_time >= $2 AND start_time < $3
		ORDER BY start_time
	`

	rows, err := q.Query(ctx, query, businessID, from, to)
	if err != nil {
		return nil, eris.Wrap(err, "failed to list work logs")
	}
	defer rows.Close()

	var entries []worklog.Entry
	for rows.Next() {
		var e worklog.Entry
		if err := rows.Scan(
			&e.ID, &e.BusinessID, &e.WorkerEmail, &e.ProjectID, &e.StartTime, &e.EndTime,
			&e.TotalMileage, &e.Notes, &e.CreatedAt, &e.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "failed to scan work log")
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to iterate work logs")
	}

	return entries, nil
}
