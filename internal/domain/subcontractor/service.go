package subcontractor

import "context"

type SettlementService interface {
	GetSettlement(ctx context.Context, businessID string, assignmentID string) (SettlementResponse, error)
	VerifyCompletion(ctx context.Context, businessID string, assignmentID string, verifierID string) (SettlementResponse, error)
	ReleaseHoldback(ctx context.Context, businessID string, assignmentID string) (SettlementResponse, error)
	// ProcessPayment requires verified completion; it does not require the holdback release.
	ProcessPayment(ctx context.Context, businessID string, assignmentID string) (SettlementResponse, error)
}
