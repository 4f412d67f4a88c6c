package worklog

import (
	"context"
	"time"
)

type WorkLogRepository interface {
	// ListByPeriod returns entries whose start time falls in [from, to).
	ListByPeriod(ctx context.Context, businessID string, from, to time.Time) ([]Entry, error)
}
