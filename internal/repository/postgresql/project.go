package postgresql

import (
	"context"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/project"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/database"
	"github.com/rotisserie/eris"
)

type projectRepository struct {
	db *database.DB
}

func NewProjectRepository(db *database.DB) project.ProjectRepository {
	return &projectRepository{db: db}
}

func (r *projectRepository) ListCompletedInPeriod(ctx context.Context, businessID string, from, to time.Time) ([]project.Project, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, business_id, name, status, actual_cost, assigned_to, completed_at,
			   created_at, updated_at
		FROM projects
		WHERE business_id = $1 AND status = $2
		  AND completed_at >= $3 AND completed_at < $4
		ORDER BY completed_at
	`

	rows, err := q.Query(ctx, query, businessID, project.StatusCompleted, from, to)
	if err != nil {
		return nil, eris.Wrap(err, "failed to list completed projects")
	}
	defer rows.Close()

	var projects []project.Project
	for rows.Next() {
		var p project.Project
		if err := rows.Scan(
			&p.ID, &p.BusinessID, &p.Name, &p.Status, &p.ActualCost, &p.AssignedTo, &p.CompletedAt,
			&p.CreatedAt, &p.UpdatedAt,
		); err != nil {
			return nil, eris.Wrap(err, "failed to scan project")
		}
		projects = append(projects, p)
	}
	if err := rows.Err(); err != nil {
		return nil, eris.Wrap(err, "failed to iterate projects")
	}

	return projects, nil
}
