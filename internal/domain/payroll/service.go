package payroll

import "context"

type PayrollService interface {
	// RunPayroll computes and persists one record per roster worker for the period.
	// On a failed run the returned response still describes the run.
	RunPayroll(ctx context.Context, businessID string, actorID string, req RunPayrollRequest) (RunResponse, error)

	GetRun(ctx context.Context, businessID string, id string) (RunResponse, error)
	ListRuns(ctx context.Context, businessID string, filter RunFilter) (ListRunResponse, error)
	ListRunRecords(ctx context.Context, businessID string, runID string) ([]RecordResponse, error)
	ExportRun(ctx context.Context, businessID string, runID string) (ExportFile, error)
}
