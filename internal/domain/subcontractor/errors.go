package subcontractor

import "errors"

var (
	ErrAssignmentNotFound      = errors.New("subcontractor assignment not found")
	ErrAssignmentNotCompleted  = errors.New("subcontractor assignment is not completed")
	ErrAlreadyVerified         = errors.New("completion already verified")
	ErrCompletionNotVerified   = errors.New("completion must be verified first")
	ErrHoldbackAlreadyReleased = errors.New("holdback already released")
	ErrPaymentAlreadyProcessed = errors.New("payment already processed")
	ErrAssignmentStateChanged  = errors.New("subcontractor assignment was modified concurrently")
	ErrVerifierRequired        = errors.New("verifier identity is required")
)
