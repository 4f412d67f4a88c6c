package payroll

import "errors"

var (
	ErrPayrollRunNotFound   = errors.New("payroll run not found")
	ErrPayrollRunInProgress = errors.New("a payroll run for this period is already in progress")
	ErrPayrollRunFailed     = errors.New("payroll run failed")
	ErrPayrollRunNotPending = errors.New("payroll run is no longer processing")
	ErrDataUnavailable      = errors.New("payroll source data unavailable")
	ErrInvalidPaySchedule   = errors.New("invalid pay schedule")
	ErrInvalidPeriod        = errors.New("invalid payroll period")
	ErrNegativeRate         = errors.New("compensation rate must be non-negative")
)
