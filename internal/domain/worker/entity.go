package worker

import (
	"time"

	"github.com/shopspring/decimal"
)

type PaymentType string

const (
	PaymentTypeHourly      PaymentType = "hourly"
	PaymentTypeSalary      PaymentType = "salary"
	PaymentTypeCommission  PaymentType = "commission"
	PaymentTypePieceRate   PaymentType = "piece_rate"
	PaymentTypeMileage     PaymentType = "mileage"
	PaymentTypeMileagePlus PaymentType = "mileage_plus"
)

// PaymentTypes lists every supported compensation type.
var PaymentTypes = []PaymentType{
	PaymentTypeHourly,
	PaymentTypeSalary,
	PaymentTypeCommission,
	PaymentTypePieceRate,
	PaymentTypeMileage,
	PaymentTypeMileagePlus,
}

// Worker is a member of a business roster. Only the rate fields used by
// PaymentType are read during payroll; the rest are ignored.
type Worker struct {
	ID             string
	BusinessID     string
	Email          string
	FullName       string
	PaymentType    PaymentType
	HourlyRate     decimal.NullDecimal
	SalaryAmount   decimal.NullDecimal
	CommissionRate decimal.NullDecimal
	BonusRate      decimal.NullDecimal
	MileageRate    decimal.NullDecimal
	IsActive       bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
