package payroll

import (
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ========== RUN DTOs ==========

type RunPayrollRequest struct {
	StartDate   string  `json:"start_date"`
	EndDate     string  `json:"end_date"`
	PaySchedule *string `json:"pay_schedule,omitempty"` // Empty = business default
}

func (r *RunPayrollRequest) Validate() error {
	var errs validator.ValidationErrors

	start, startOK := validator.IsValidDate(r.StartDate)
	if !startOK {
		errs = append(errs, validator.ValidationError{Field: "start_date", Message: "must be a date in YYYY-MM-DD format"})
	}
	end, endOK := validator.IsValidDate(r.EndDate)
	if !endOK {
		errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must be a date in YYYY-MM-DD format"})
	}
	if startOK && endOK {
		if end.Before(start) {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "must not be before start_date"})
		} else if end.Sub(start) > 366*24*time.Hour {
			errs = append(errs, validator.ValidationError{Field: "end_date", Message: "period must not exceed one year"})
		}
	}
	if r.PaySchedule != nil && !PaySchedule(*r.PaySchedule).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "pay_schedule", Message: "must be 'weekly', 'bi-weekly' or 'monthly'"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Dates returns the parsed start and end dates. Call after Validate.
func (r *RunPayrollRequest) Dates() (time.Time, time.Time) {
	start, _ := time.Parse(dateLayout, r.StartDate)
	end, _ := time.Parse(dateLayout, r.EndDate)
	return start, end
}

type RunResponse struct {
	ID             string          `json:"id"`
	BusinessID     string          `json:"business_id"`
	StartDate      string          `json:"start_date"`
	EndDate        string          `json:"end_date"`
	PaySchedule    string          `json:"pay_schedule"`
	RunDate        string          `json:"run_date"`
	Status         string          `json:"status"`
	TotalGrossPay  decimal.Decimal `json:"total_gross_pay"`
	TotalEmployees int             `json:"total_employees"`
	ProcessedCount int             `json:"processed_count"`
	FailedCount    int             `json:"failed_count"`
	Failures       []WorkerFailure `json:"failures,omitempty"`
	FailureReason  *string         `json:"failure_reason,omitempty"`
	CompletedAt    *string         `json:"completed_at,omitempty"`
}

type RunFilter struct {
	Status *string `json:"status,omitempty"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

func (f *RunFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Status != nil {
		switch RunStatus(*f.Status) {
		case RunStatusProcessing, RunStatusCompleted, RunStatusPartial, RunStatusFailed:
		default:
			errs = append(errs, validator.ValidationError{Field: "status", Message: "must be one of processing, completed, partial, failed"})
		}
	}
	if f.Limit > 100 {
		errs = append(errs, validator.ValidationError{Field: "limit", Message: "must not exceed 100"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

type ListRunResponse struct {
	Data       []RunResponse `json:"data"`
	TotalCount int64         `json:"total_count"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
}

// ========== RECORD DTOs ==========

type RecordResponse struct {
	ID                 string             `json:"id"`
	RunID              string             `json:"run_id"`
	WorkerID           string             `json:"worker_id"`
	WorkerEmail        string             `json:"worker_email"`
	WorkerName         string             `json:"worker_name"`
	PaymentType        string             `json:"payment_type"`
	GrossPay           decimal.Decimal    `json:"gross_pay"`
	TotalHours         decimal.Decimal    `json:"total_hours"`
	TotalMileage       decimal.Decimal    `json:"total_mileage"`
	MileagePay         decimal.Decimal    `json:"mileage_pay"`
	CommissionEarned   decimal.Decimal    `json:"commission_earned"`
	NetPay             decimal.Decimal    `json:"net_pay"`
	CalculationDetails CalculationDetails `json:"calculation_details"`
}

// ExportFile is a rendered run export.
type ExportFile struct {
	Filename    string
	ContentType string
	Content     []byte
}
