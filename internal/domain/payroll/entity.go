package payroll

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaySchedule enum
type PaySchedule string

const (
	PayScheduleWeekly   PaySchedule = "weekly"
	PayScheduleBiWeekly PaySchedule = "bi-weekly"
	PayScheduleMonthly  PaySchedule = "monthly"
)

// PeriodsPerYear returns how many pay periods of this schedule fit in a year.
func (s PaySchedule) PeriodsPerYear() (int, bool) {
	switch s {
	case PayScheduleWeekly:
		return 52, true
	case PayScheduleBiWeekly:
		return 26, true
	case PayScheduleMonthly:
		return 12, true
	}
	return 0, false
}

func (s PaySchedule) IsValid() bool {
	_, ok := s.PeriodsPerYear()
	return ok
}

// Period is a closed date range [Start, End] over which a run aggregates activity.
// Start and End are UTC midnights.
type Period struct {
	Start    time.Time
	End      time.Time
	Schedule PaySchedule
}

func NewPeriod(start, end time.Time, schedule PaySchedule) Period {
	return Period{
		Start:    truncateDay(start),
		End:      truncateDay(end),
		Schedule: schedule,
	}
}

// Contains reports whether t falls on any day between Start and End inclusive.
func (p Period) Contains(t time.Time) bool {
	t = t.UTC()
	return !t.Before(p.Start) && t.Before(p.EndExclusive())
}

// EndExclusive is the first instant after the period.
func (p Period) EndExclusive() time.Time {
	return p.End.AddDate(0, 0, 1)
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// RunStatus enum
type RunStatus string

const (
	RunStatusProcessing RunStatus = "processing"
	RunStatusCompleted  RunStatus = "completed"
	RunStatusPartial    RunStatus = "partial"
	RunStatusFailed     RunStatus = "failed"
)

func (s RunStatus) IsTerminal() bool {
	return s == RunStatusCompleted || s == RunStatusPartial || s == RunStatusFailed
}

// Failure stages
const (
	StageCalculate = "calculate"
	StagePersist   = "persist"
)

// WorkerFailure describes a worker whose record could not be produced in a run.
type WorkerFailure struct {
	WorkerID    string `json:"worker_id"`
	WorkerEmail string `json:"worker_email"`
	Stage       string `json:"stage"`
	Reason      string `json:"reason"`
}

// Run - one payroll invocation for a pay period
type Run struct {
	ID             string
	BusinessID     string
	StartDate      time.Time
	EndDate        time.Time
	PaySchedule    PaySchedule
	RunDate        time.Time
	Status         RunStatus
	TotalGrossPay  decimal.Decimal
	TotalEmployees int
	ProcessedCount int
	FailedCount    int
	Failures       []WorkerFailure
	FailureReason  *string
	CreatedBy      *string
	CompletedAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (r Run) Period() Period {
	return NewPeriod(r.StartDate, r.EndDate, r.PaySchedule)
}

// Record - computed pay for one worker in one run
type Record struct {
	ID                 string
	RunID              string
	BusinessID         string
	WorkerID           string
	WorkerEmail        string
	WorkerName         string
	PaymentType        string
	GrossPay           decimal.Decimal
	TotalHours         decimal.Decimal
	TotalMileage       decimal.Decimal
	MileagePay         decimal.Decimal
	CommissionEarned   decimal.Decimal
	NetPay             decimal.Decimal
	CalculationDetails CalculationDetails
	CreatedAt          time.Time
}

// CalculationDetails is the audit trail of every input consumed for a record.
type CalculationDetails struct {
	PaymentType        string                     `json:"payment_type"`
	Formula            string                     `json:"formula"`
	Rates              map[string]decimal.Decimal `json:"rates"`
	MissingRates       []string                   `json:"missing_rates,omitempty"`
	TotalHours         decimal.Decimal            `json:"total_hours"`
	TotalMileage       decimal.Decimal            `json:"total_mileage"`
	Revenue            decimal.Decimal            `json:"revenue"`
	WorkLogCount       int                        `json:"work_log_count"`
	OpenWorkLogs       int                        `json:"open_work_logs"`
	ProjectCount       int                        `json:"project_count"`
	PaySchedule        string                     `json:"pay_schedule"`
	PeriodsPerYear     int                        `json:"periods_per_year,omitempty"`
	PeriodStart        string                     `json:"period_start"`
	PeriodEnd          string                     `json:"period_end"`
	UnknownPaymentType bool                       `json:"unknown_payment_type,omitempty"`
	DeductionsApplied  bool                       `json:"deductions_applied"`
}

// RunFinishedEvent is published once a run reaches a terminal status.
type RunFinishedEvent struct {
	RunID          string    `json:"run_id"`
	BusinessID     string    `json:"business_id"`
	Status         RunStatus `json:"status"`
	StartDate      string    `json:"start_date"`
	EndDate        string    `json:"end_date"`
	TotalGrossPay  string    `json:"total_gross_pay"`
	TotalEmployees int       `json:"total_employees"`
	FailedCount    int       `json:"failed_count"`
	FinishedAt     time.Time `json:"finished_at"`
}
