package business

import (
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type SettingsResponse struct {
	ID                              string          `json:"id,omitempty"`
	BusinessID                      string          `json:"business_id"`
	SubcontractorHoldbackPercentage decimal.Decimal `json:"subcontractor_holdback_percentage"`
	PaySchedule                     string          `json:"pay_schedule"`
}

type UpdateSettingsRequest struct {
	SubcontractorHoldbackPercentage *decimal.Decimal `json:"subcontractor_holdback_percentage,omitempty"`
	PaySchedule                     *string          `json:"pay_schedule,omitempty"`
}

var hundred = decimal.NewFromInt(100)

func (r *UpdateSettingsRequest) Validate() error {
	var errs validator.ValidationErrors

	if r.SubcontractorHoldbackPercentage != nil {
		pct := *r.SubcontractorHoldbackPercentage
		if pct.IsNegative() || pct.GreaterThan(hundred) {
			errs = append(errs, validator.ValidationError{Field: "subcontractor_holdback_percentage", Message: "must be between 0 and 100"})
		}
	}
	if r.PaySchedule != nil && !payroll.PaySchedule(*r.PaySchedule).IsValid() {
		errs = append(errs, validator.ValidationError{Field: "pay_schedule", Message: "must be 'weekly', 'bi-weekly' or 'monthly'"})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
