package payroll

import (
	"context"
	"time"
)

// PayrollRepository defines data access methods for payroll runs and records.
// All methods include businessID parameter to prevent cross-tenant data access.
type PayrollRepository interface {
	// Runs
	CreateRun(ctx context.Context, run Run) (Run, error)
	GetRunByID(ctx context.Context, id string, businessID string) (Run, error)
	ListRuns(ctx context.Context, businessID string, filter RunFilter) ([]Run, int64, error)
	// FinalizeRun writes the terminal status and totals of a run still in processing.
	FinalizeRun(ctx context.Context, run Run) error
	// TouchRun refreshes the heartbeat of a run still in processing.
	TouchRun(ctx context.Context, id string, businessID string) error
	// FailStaleRuns fails every processing run whose last heartbeat is before cutoff, across tenants.
	FailStaleRuns(ctx context.Context, cutoff time.Time, reason string) (int64, error)

	// Records
	BulkCreateRecords(ctx context.Context, records []Record) error
	CreateRecord(ctx context.Context, record Record) error
	ListRecordsByRun(ctx context.Context, runID string, businessID string) ([]Record, error)
}

// EventPublisher delivers run lifecycle events to downstream consumers.
type EventPublisher interface {
	PublishRunFinished(ctx context.Context, event RunFinishedEvent) error
}
