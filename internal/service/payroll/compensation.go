package payroll

import (
	"fmt"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/worker"
	"github.com/shopspring/decimal"
)

const (
	rateHourly     = "hourly_rate"
	rateSalary     = "salary_amount"
	rateCommission = "commission_rate"
	rateBonus      = "bonus_rate"
	rateMileage    = "mileage_rate"
)

// Inputs is everything a compensation scheme may consume for one worker.
type Inputs struct {
	Work    WorkAggregate
	Revenue RevenueAggregate
	Period  payroll.Period
}

// GrossPay is the outcome of one worker's calculation.
type GrossPay struct {
	Gross            decimal.Decimal
	MileagePay       decimal.Decimal
	CommissionEarned decimal.Decimal
	Details          payroll.CalculationDetails
}

// Scheme is a compensation rule. The set of implementations is closed to this package.
type Scheme interface {
	apply(in Inputs, r *rateReader) (schemePay, error)
}

type schemePay struct {
	gross      decimal.Decimal
	mileagePay decimal.Decimal
	commission decimal.Decimal
	formula    string
}

type HourlyScheme struct {
	HourlyRate decimal.NullDecimal
}

// PieceRateScheme pays hours at hourly plus bonus rate. Despite the name it is not per unit.
type PieceRateScheme struct {
	HourlyRate decimal.NullDecimal
	BonusRate  decimal.NullDecimal
}

type MileageScheme struct {
	MileageRate decimal.NullDecimal
}

// MileagePlusScheme adds the bonus rate once as a flat amount.
type MileagePlusScheme struct {
	HourlyRate  decimal.NullDecimal
	MileageRate decimal.NullDecimal
	BonusRate   decimal.NullDecimal
}

type SalaryScheme struct {
	SalaryAmount decimal.NullDecimal
}

type CommissionScheme struct {
	CommissionRate decimal.NullDecimal
}

// UnknownScheme pays nothing and flags the record for review.
type UnknownScheme struct {
	PaymentType worker.PaymentType
}

// ResolveScheme maps the worker's payment type to its compensation rule.
func ResolveScheme(w worker.Worker) Scheme {
	switch w.PaymentType {
	case worker.PaymentTypeHourly:
		return HourlyScheme{HourlyRate: w.HourlyRate}
	case worker.PaymentTypePieceRate:
		return PieceRateScheme{HourlyRate: w.HourlyRate, BonusRate: w.BonusRate}
	case worker.PaymentTypeMileage:
		return MileageScheme{MileageRate: w.MileageRate}
	case worker.PaymentTypeMileagePlus:
		return MileagePlusScheme{HourlyRate: w.HourlyRate, MileageRate: w.MileageRate, BonusRate: w.BonusRate}
	case worker.PaymentTypeSalary:
		return SalaryScheme{SalaryAmount: w.SalaryAmount}
	case worker.PaymentTypeCommission:
		return CommissionScheme{CommissionRate: w.CommissionRate}
	}
	return UnknownScheme{PaymentType: w.PaymentType}
}

func (s HourlyScheme) apply(in Inputs, r *rateReader) (schemePay, error) {
	rate := r.read(rateHourly, s.HourlyRate)
	return schemePay{
		gross:   in.Work.TotalHours.Mul(rate),
		formula: "total_hours * hourly_rate",
	}, r.err
}

func (s PieceRateScheme) apply(in Inputs, r *rateReader) (schemePay, error) {
	hourly := r.read(rateHourly, s.HourlyRate)
	bonus := r.read(rateBonus, s.BonusRate)
	return schemePay{
		gross:   in.Work.TotalHours.Mul(hourly.Add(bonus)),
		formula: "total_hours * (hourly_rate + bonus_rate)",
	}, r.err
}

func (s MileageScheme) apply(in Inputs, r *rateReader) (schemePay, error) {
	rate := r.read(rateMileage, s.MileageRate)
	mileagePay := in.Work.TotalMileage.Mul(rate)
	return schemePay{
		gross:      mileagePay,
		mileagePay: mileagePay,
		formula:    "total_mileage * mileage_rate",
	}, r.err
}

func (s MileagePlusScheme) apply(in Inputs, r *rateReader) (schemePay, error) {
	hourly := r.read(rateHourly, s.HourlyRate)
	mileage := r.read(rateMileage, s.MileageRate)
	bonus := r.read(rateBonus, s.BonusRate)
	mileagePay := in.Work.TotalMileage.Mul(mileage)
	return schemePay{
		gross:      in.Work.TotalHours.Mul(hourly).Add(mileagePay).Add(bonus),
		mileagePay: mileagePay,
		formula:    "total_hours * hourly_rate + total_mileage * mileage_rate + bonus_rate",
	}, r.err
}

func (s SalaryScheme) apply(in Inputs, r *rateReader) (schemePay, error) {
	amount := r.read(rateSalary, s.SalaryAmount)
	if r.err != nil {
		return schemePay{}, r.err
	}
	periods, ok := in.Period.Schedule.PeriodsPerYear()
	if !ok {
		return schemePay{}, fmt.Errorf("%w: %q", payroll.ErrInvalidPaySchedule, in.Period.Schedule)
	}
	r.details.PeriodsPerYear = periods
	return schemePay{
		gross:   amount.Div(decimal.NewFromInt(int64(periods))),
		formula: "salary_amount / periods_per_year",
	}, nil
}

func (s CommissionScheme) apply(in Inputs, r *rateReader) (schemePay, error) {
	rate := r.read(rateCommission, s.CommissionRate)
	commission := in.Revenue.Revenue.Mul(rate)
	return schemePay{
		gross:      commission,
		commission: commission,
		formula:    "revenue * commission_rate",
	}, r.err
}

func (s UnknownScheme) apply(in Inputs, r *rateReader) (schemePay, error) {
	r.details.UnknownPaymentType = true
	return schemePay{
		gross:   decimal.Zero,
		formula: "unknown payment type: no pay",
	}, nil
}

// rateReader records every rate a scheme consumes into the calculation details.
type rateReader struct {
	details *payroll.CalculationDetails
	err     error
}

func (r *rateReader) read(name string, v decimal.NullDecimal) decimal.Decimal {
	if !v.Valid {
		r.details.MissingRates = append(r.details.MissingRates, name)
		r.details.Rates[name] = decimal.Zero
		return decimal.Zero
	}
	if v.Decimal.IsNegative() && r.err == nil {
		r.err = fmt.Errorf("%w: %s is %s", payroll.ErrNegativeRate, name, v.Decimal.String())
	}
	r.details.Rates[name] = v.Decimal
	return v.Decimal
}

// ComputeGrossPay applies the worker's compensation scheme to the aggregates.
// It has no side effects; the same inputs always produce the same result.
func ComputeGrossPay(w worker.Worker, in Inputs) (GrossPay, error) {
	details := payroll.CalculationDetails{
		PaymentType:  string(w.PaymentType),
		Rates:        make(map[string]decimal.Decimal),
		TotalHours:   in.Work.TotalHours,
		TotalMileage: in.Work.TotalMileage,
		Revenue:      in.Revenue.Revenue,
		WorkLogCount: in.Work.EntryCount,
		OpenWorkLogs: in.Work.OpenEntries,
		ProjectCount: in.Revenue.ProjectCount,
		PaySchedule:  string(in.Period.Schedule),
		PeriodStart:  in.Period.Start.Format(dateLayout),
		PeriodEnd:    in.Period.End.Format(dateLayout),
	}

	r := &rateReader{details: &details}
	pay, err := ResolveScheme(w).apply(in, r)
	if err != nil {
		return GrossPay{}, err
	}
	details.Formula = pay.formula

	return GrossPay{
		Gross:            roundMoney(pay.gross),
		MileagePay:       roundMoney(pay.mileagePay),
		CommissionEarned: roundMoney(pay.commission),
		Details:          details,
	}, nil
}

func roundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
