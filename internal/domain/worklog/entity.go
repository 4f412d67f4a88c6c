package worklog

import (
	"time"

	"github.com/shopspring/decimal"
)

var secondsPerHour = decimal.NewFromInt(3600)

// Entry is one clock-in/clock-out interval a worker logged against a project.
type Entry struct {
	ID           string
	BusinessID   string
	WorkerEmail  string
	ProjectID    *string
	StartTime    time.Time
	EndTime      *time.Time
	TotalMileage decimal.Decimal
	Notes        *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DurationHours is end minus start in hours, nil while the entry is open.
// An end time before the start time is treated as open.
func (e Entry) DurationHours() *decimal.Decimal {
	if e.EndTime == nil || e.EndTime.Before(e.StartTime) {
		return nil
	}
	seconds := int64(e.EndTime.Sub(e.StartTime) / time.Second)
	hours := decimal.NewFromInt(seconds).Div(secondsPerHour)
	return &hours
}

func (e Entry) IsOpen() bool {
	return e.DurationHours() == nil
}
