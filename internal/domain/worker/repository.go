package worker

import "context"

type WorkerRepository interface {
	// ListByBusiness returns the active roster of a business.
	ListByBusiness(ctx context.Context, businessID string) ([]Worker, error)
}
