package cron

import (
	"context"
	"time"
)

// StaleRunReaper fails payroll runs stuck in processing.
type StaleRunReaper interface {
	ReapStaleRuns(ctx context.Context, maxAge time.Duration) (int64, error)
}

type PayrollJobs struct {
	reaper StaleRunReaper
	maxAge time.Duration
}

func NewPayrollJobs(reaper StaleRunReaper, maxAge time.Duration) *PayrollJobs {
	return &PayrollJobs{reaper: reaper, maxAge: maxAge}
}

func (j *PayrollJobs) RegisterJobs(scheduler *Scheduler, interval time.Duration) {
	scheduler.AddJob("fail_stale_payroll_runs", interval, j.FailStaleRuns)
}

// FailStaleRuns releases periods held by runs whose process died mid run.
func (j *PayrollJobs) FailStaleRuns(ctx context.Context) error {
	_, err := j.reaper.ReapStaleRuns(ctx, j.maxAge)
	return err
}
