package project

import (
	"context"
	"time"
)

type ProjectRepository interface {
	// ListCompletedInPeriod returns completed projects with completed_at in [from, to).
	ListCompletedInPeriod(ctx context.Context, businessID string, from, to time.Time) ([]Project, error)
}
