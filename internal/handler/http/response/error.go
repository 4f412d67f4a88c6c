package response

import (
	"errors"
	"net/http"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/subcontractor"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/user"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/validator"
	"go.uber.org/zap"
)

// HandleError maps domain errors to HTTP responses
func HandleError(w http.ResponseWriter, err error) {
	// Check if it's a validation error
	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		ValidationError(w, validationErrs.ToMap())
		return
	}

	switch {
	// Auth errors
	case errors.Is(err, user.ErrInvalidToken),
		errors.Is(err, user.ErrUserIDRequired),
		errors.Is(err, user.ErrInvalidRole):
		Unauthorized(w, err.Error())
	case errors.Is(err, user.ErrBusinessIDRequired):
		Forbidden(w, "Business membership required")
	case errors.Is(err, user.ErrInsufficientPermissions):
		Forbidden(w, err.Error())

	// Payroll domain errors
	case errors.Is(err, payroll.ErrPayrollRunNotFound):
		NotFound(w, "Payroll run not found")
	case errors.Is(err, payroll.ErrPayrollRunInProgress):
		Conflict(w, "A payroll run for this period is already in progress")
	case errors.Is(err, payroll.ErrPayrollRunNotPending):
		Conflict(w, "Payroll run is no longer processing")
	case errors.Is(err, payroll.ErrInvalidPaySchedule),
		errors.Is(err, payroll.ErrInvalidPeriod):
		BadRequest(w, err.Error(), nil)
	case errors.Is(err, payroll.ErrDataUnavailable):
		ServiceUnavailable(w, "Payroll input data is unavailable, try again later")

	// Settings errors
	case errors.Is(err, business.ErrSettingsNotFound):
		NotFound(w, "Business settings not found")

	// Subcontractor errors
	case errors.Is(err, subcontractor.ErrAssignmentNotFound):
		NotFound(w, "Subcontractor assignment not found")
	case errors.Is(err, subcontractor.ErrAssignmentNotCompleted):
		Conflict(w, "Assignment must be completed before verification")
	case errors.Is(err, subcontractor.ErrAlreadyVerified):
		Conflict(w, "Completion already verified")
	case errors.Is(err, subcontractor.ErrCompletionNotVerified):
		Conflict(w, "Completion must be verified first")
	case errors.Is(err, subcontractor.ErrHoldbackAlreadyReleased):
		Conflict(w, "Holdback already released")
	case errors.Is(err, subcontractor.ErrPaymentAlreadyProcessed):
		Conflict(w, "Payment already processed")
	case errors.Is(err, subcontractor.ErrAssignmentStateChanged):
		Conflict(w, "Assignment was modified concurrently, reload and retry")
	case errors.Is(err, subcontractor.ErrVerifierRequired):
		BadRequest(w, "Verifier identity is required", nil)

	// Default
	default:
		zap.L().Error("unhandled error", zap.Error(err))
		InternalServerError(w, "An unexpected error occurred")
	}
}
