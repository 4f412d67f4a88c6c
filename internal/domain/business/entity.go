package business

import (
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	"github.com/shopspring/decimal"
)

// DefaultHoldbackPercentage applies when a business has not configured one.
var DefaultHoldbackPercentage = decimal.NewFromInt(10)

// Settings - tenant level configuration
type Settings struct {
	ID                              string
	BusinessID                      string
	SubcontractorHoldbackPercentage decimal.Decimal
	PaySchedule                     payroll.PaySchedule
	CreatedAt                       time.Time
	UpdatedAt                       time.Time
}

// DefaultSettings returns the settings used when none are stored.
func DefaultSettings(businessID string) Settings {
	return Settings{
		BusinessID:                      businessID,
		SubcontractorHoldbackPercentage: DefaultHoldbackPercentage,
		PaySchedule:                     payroll.PayScheduleBiWeekly,
	}
}
