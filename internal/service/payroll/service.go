package payroll

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/project"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/worker"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/worklog"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/export"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/validator"
	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const dateLayout = "2006-01-02"

const (
	defaultPage  = 1
	defaultLimit = 20
)

// heartbeatEvery is how many row by row inserts run between heartbeats.
const heartbeatEvery = 50

type PayrollServiceImpl struct {
	payrollRepo  payroll.PayrollRepository
	workerRepo   worker.WorkerRepository
	workLogRepo  worklog.WorkLogRepository
	projectRepo  project.ProjectRepository
	settingsRepo business.SettingsRepository
	publisher    payroll.EventPublisher
	logger       *zap.Logger
	guard        *runGuard
	now          func() time.Time
}

func NewPayrollService(
	payrollRepo payroll.PayrollRepository,
	workerRepo worker.WorkerRepository,
	workLogRepo worklog.WorkLogRepository,
	projectRepo project.ProjectRepository,
	settingsRepo business.SettingsRepository,
	publisher payroll.EventPublisher,
	logger *zap.Logger,
) *PayrollServiceImpl {
	if logger == nil {
		logger = zap.L()
	}
	return &PayrollServiceImpl{
		payrollRepo:  payrollRepo,
		workerRepo:   workerRepo,
		workLogRepo:  workLogRepo,
		projectRepo:  projectRepo,
		settingsRepo: settingsRepo,
		publisher:    publisher,
		logger:       logger.Named("payroll"),
		guard:        newRunGuard(),
		now:          time.Now,
	}
}

var _ payroll.PayrollService = (*PayrollServiceImpl)(nil)

// ========== RUN ==========

func (s *PayrollServiceImpl) RunPayroll(ctx context.Context, businessID string, actorID string, req payroll.RunPayrollRequest) (payroll.RunResponse, error) {
	if err := req.Validate(); err != nil {
		return payroll.RunResponse{}, err
	}

	schedule, err := s.resolveSchedule(ctx, businessID, req.PaySchedule)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	start, end := req.Dates()
	period := payroll.NewPeriod(start, end, schedule)

	release, ok := s.guard.acquire(keyFor(businessID, period))
	if !ok {
		return payroll.RunResponse{}, payroll.ErrPayrollRunInProgress
	}
	defer release()

	// The pipeline is not cancellable once started.
	ctx = context.WithoutCancel(ctx)

	now := s.now().UTC()
	run := payroll.Run{
		ID:            uuid.Must(uuid.NewV7()).String(),
		BusinessID:    businessID,
		StartDate:     period.Start,
		EndDate:       period.End,
		PaySchedule:   schedule,
		RunDate:       now,
		Status:        payroll.RunStatusProcessing,
		TotalGrossPay: decimal.Zero,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if actorID != "" {
		run.CreatedBy = &actorID
	}

	run, err = s.payrollRepo.CreateRun(ctx, run)
	if err != nil {
		return payroll.RunResponse{}, err
	}

	log := s.logger.With(
		zap.String("business_id", businessID),
		zap.String("run_id", run.ID),
		zap.String("start_date", period.Start.Format(dateLayout)),
		zap.String("end_date", period.End.Format(dateLayout)),
	)
	log.Info("payroll run started", zap.String("pay_schedule", string(schedule)))

	roster, entries, projects, err := s.fetchInputs(ctx, businessID, period)
	if err != nil {
		log.Error("payroll input fetch failed", zap.Error(err))
		reason := err.Error()
		outcome := run
		outcome.Status = payroll.RunStatusFailed
		outcome.FailureReason = &reason
		stored, ferr := s.finalize(ctx, log, run, outcome)
		if ferr != nil {
			log.Error("failed to finalize payroll run", zap.Error(ferr))
		} else {
			s.publish(ctx, log, stored)
		}
		return toRunResponse(stored), fmt.Errorf("%w: %s", payroll.ErrDataUnavailable, reason)
	}
	if err := s.heartbeat(ctx, log, run); err != nil {
		log.Error("payroll run taken over before writing records", zap.Error(err))
		return toRunResponse(s.storedRun(ctx, log, run)), err
	}

	records, failures := s.calculate(run, period, roster, entries, projects)
	for _, f := range failures {
		log.Warn("worker calculation failed", zap.String("worker_id", f.WorkerID), zap.String("reason", f.Reason))
	}

	persisted, persistFailures, err := s.persist(ctx, log, run, records)
	if err != nil {
		log.Error("payroll run taken over while writing records", zap.Error(err), zap.Int("persisted", len(persisted)))
		return toRunResponse(s.storedRun(ctx, log, run)), err
	}
	failures = append(failures, persistFailures...)

	total := decimal.Zero
	for _, r := range persisted {
		total = total.Add(r.GrossPay)
	}

	// The response only reports this outcome once the store has accepted it.
	outcome := run
	outcome.TotalEmployees = len(roster)
	outcome.TotalGrossPay = total
	outcome.ProcessedCount = len(persisted)
	outcome.FailedCount = len(failures)
	outcome.Failures = failures
	outcome.Status = finalStatus(len(roster), len(persisted), len(failures))
	if outcome.Status == payroll.RunStatusFailed {
		reason := "no payroll records could be produced"
		outcome.FailureReason = &reason
	}

	run, err = s.finalize(ctx, log, run, outcome)
	if err != nil {
		log.Error("failed to finalize payroll run", zap.Error(err))
		return toRunResponse(run), err
	}

	log.Info("payroll run finished",
		zap.String("status", string(run.Status)),
		zap.Int("total_employees", run.TotalEmployees),
		zap.Int("processed", run.ProcessedCount),
		zap.Int("failed", run.FailedCount),
		zap.String("total_gross_pay", run.TotalGrossPay.StringFixed(2)),
	)
	s.publish(ctx, log, run)

	if run.Status == payroll.RunStatusFailed {
		return toRunResponse(run), payroll.ErrPayrollRunFailed
	}
	return toRunResponse(run), nil
}

func (s *PayrollServiceImpl) resolveSchedule(ctx context.Context, businessID string, requested *string) (payroll.PaySchedule, error) {
	if requested != nil {
		return payroll.PaySchedule(*requested), nil
	}

	settings, err := s.settingsRepo.Get(ctx, businessID)
	if errors.Is(err, business.ErrSettingsNotFound) {
		return business.DefaultSettings(businessID).PaySchedule, nil
	}
	if err != nil {
		return "", fmt.Errorf("%w: business settings: %s", payroll.ErrDataUnavailable, err.Error())
	}
	if !settings.PaySchedule.IsValid() {
		return "", fmt.Errorf("%w: %q", payroll.ErrInvalidPaySchedule, settings.PaySchedule)
	}
	return settings.PaySchedule, nil
}

// fetchInputs loads the roster, work logs and projects concurrently. Any
// failure aborts the whole set.
func (s *PayrollServiceImpl) fetchInputs(ctx context.Context, businessID string, period payroll.Period) ([]worker.Worker, []worklog.Entry, []project.Project, error) {
	var (
		roster   []worker.Worker
		entries  []worklog.Entry
		projects []project.Project
	)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		result, err := s.workerRepo.ListByBusiness(gCtx, businessID)
		if err != nil {
			return eris.Wrap(err, "fetch roster")
		}
		roster = result
		return nil
	})

	g.Go(func() error {
		result, err := s.workLogRepo.ListByPeriod(gCtx, businessID, period.Start, period.EndExclusive())
		if err != nil {
			return eris.Wrap(err, "fetch work logs")
		}
		entries = result
		return nil
	})

	g.Go(func() error {
		result, err := s.projectRepo.ListCompletedInPeriod(gCtx, businessID, period.Start, period.EndExclusive())
		if err != nil {
			return eris.Wrap(err, "fetch projects")
		}
		projects = result
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, nil, err
	}
	return roster, entries, projects, nil
}

func (s *PayrollServiceImpl) calculate(run payroll.Run, period payroll.Period, roster []worker.Worker, entries []worklog.Entry, projects []project.Project) ([]payroll.Record, []payroll.WorkerFailure) {
	records := make([]payroll.Record, 0, len(roster))
	var failures []payroll.WorkerFailure

	for _, w := range roster {
		in := Inputs{
			Work:    AggregateWorkLogs(w.Email, period, entries),
			Revenue: AggregateRevenue(w.Email, period, projects),
			Period:  period,
		}

		pay, err := ComputeGrossPay(w, in)
		if err != nil {
			failures = append(failures, payroll.WorkerFailure{
				WorkerID:    w.ID,
				WorkerEmail: w.Email,
				Stage:       payroll.StageCalculate,
				Reason:      err.Error(),
			})
			continue
		}

		records = append(records, payroll.Record{
			ID:                 uuid.Must(uuid.NewV7()).String(),
			RunID:              run.ID,
			BusinessID:         run.BusinessID,
			WorkerID:           w.ID,
			WorkerEmail:        strings.TrimSpace(w.Email),
			WorkerName:         w.FullName,
			PaymentType:        string(w.PaymentType),
			GrossPay:           pay.Gross,
			TotalHours:         in.Work.TotalHours,
			TotalMileage:       in.Work.TotalMileage,
			MileagePay:         pay.MileagePay,
			CommissionEarned:   pay.CommissionEarned,
			NetPay:             pay.Gross,
			CalculationDetails: pay.Details,
			CreatedAt:          run.RunDate,
		})
	}

	return records, failures
}

// persist writes all records in one batch and falls back to row by row
// inserts when the batch is rejected. It stops with ErrPayrollRunNotPending
// once the run no longer owns its period.
func (s *PayrollServiceImpl) persist(ctx context.Context, log *zap.Logger, run payroll.Run, records []payroll.Record) ([]payroll.Record, []payroll.WorkerFailure, error) {
	if len(records) == 0 {
		return nil, nil, nil
	}

	err := s.payrollRepo.BulkCreateRecords(ctx, records)
	if err == nil {
		return records, nil, nil
	}
	log.Warn("bulk record insert failed, retrying per record", zap.Error(err), zap.Int("records", len(records)))

	persisted := make([]payroll.Record, 0, len(records))
	var failures []payroll.WorkerFailure
	for i, r := range records {
		if i > 0 && i%heartbeatEvery == 0 {
			if err := s.heartbeat(ctx, log, run); err != nil {
				return persisted, failures, err
			}
		}
		if err := s.payrollRepo.CreateRecord(ctx, r); err != nil {
			failures = append(failures, payroll.WorkerFailure{
				WorkerID:    r.WorkerID,
				WorkerEmail: r.WorkerEmail,
				Stage:       payroll.StagePersist,
				Reason:      err.Error(),
			})
			log.Warn("record insert failed", zap.String("worker_id", r.WorkerID), zap.Error(err))
			continue
		}
		persisted = append(persisted, r)
	}
	return persisted, failures, nil
}

func finalStatus(rosterSize, persisted, failed int) payroll.RunStatus {
	switch {
	case failed == 0:
		return payroll.RunStatusCompleted
	case persisted == 0 && rosterSize > 0:
		return payroll.RunStatusFailed
	default:
		return payroll.RunStatusPartial
	}
}

// finalize writes outcome as the terminal state of run. When the write fails
// it returns the run as the store holds it instead of the outcome.
func (s *PayrollServiceImpl) finalize(ctx context.Context, log *zap.Logger, run payroll.Run, outcome payroll.Run) (payroll.Run, error) {
	now := s.now().UTC()
	outcome.CompletedAt = &now
	outcome.UpdatedAt = now
	if err := s.payrollRepo.FinalizeRun(ctx, outcome); err != nil {
		return s.storedRun(ctx, log, run), err
	}
	return outcome, nil
}

// storedRun reloads run, falling back to the last state this process wrote.
func (s *PayrollServiceImpl) storedRun(ctx context.Context, log *zap.Logger, run payroll.Run) payroll.Run {
	stored, err := s.payrollRepo.GetRunByID(ctx, run.ID, run.BusinessID)
	if err != nil {
		log.Warn("failed to reload payroll run", zap.Error(err))
		return run
	}
	return stored
}

// heartbeat marks run as alive so the stale run reaper leaves it alone.
// Only a lost run is reported; other errors are logged.
func (s *PayrollServiceImpl) heartbeat(ctx context.Context, log *zap.Logger, run payroll.Run) error {
	err := s.payrollRepo.TouchRun(ctx, run.ID, run.BusinessID)
	if errors.Is(err, payroll.ErrPayrollRunNotPending) {
		return err
	}
	if err != nil {
		log.Warn("payroll run heartbeat failed", zap.Error(err))
	}
	return nil
}

func (s *PayrollServiceImpl) publish(ctx context.Context, log *zap.Logger, run payroll.Run) {
	if s.publisher == nil {
		return
	}
	finishedAt := s.now().UTC()
	if run.CompletedAt != nil {
		finishedAt = *run.CompletedAt
	}
	event := payroll.RunFinishedEvent{
		RunID:          run.ID,
		BusinessID:     run.BusinessID,
		Status:         run.Status,
		StartDate:      run.StartDate.Format(dateLayout),
		EndDate:        run.EndDate.Format(dateLayout),
		TotalGrossPay:  run.TotalGrossPay.StringFixed(2),
		TotalEmployees: run.TotalEmployees,
		FailedCount:    run.FailedCount,
		FinishedAt:     finishedAt,
	}
	if err := s.publisher.PublishRunFinished(ctx, event); err != nil {
		log.Warn("failed to publish run finished event", zap.Error(err))
	}
}

// ReapStaleRuns fails processing runs without a heartbeat for longer than maxAge.
func (s *PayrollServiceImpl) ReapStaleRuns(ctx context.Context, maxAge time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-maxAge)
	n, err := s.payrollRepo.FailStaleRuns(ctx, cutoff, "abandoned: run did not finish within "+maxAge.String())
	if err != nil {
		return 0, err
	}
	if n > 0 {
		s.logger.Warn("failed stale payroll runs", zap.Int64("count", n), zap.Time("cutoff", cutoff))
	}
	return n, nil
}

// ========== READ ==========

// loadRun rejects malformed ids before they reach the uuid column.
func (s *PayrollServiceImpl) loadRun(ctx context.Context, businessID string, id string) (payroll.Run, error) {
	if !validator.IsValidUUID(id) {
		return payroll.Run{}, payroll.ErrPayrollRunNotFound
	}
	return s.payrollRepo.GetRunByID(ctx, id, businessID)
}

func (s *PayrollServiceImpl) GetRun(ctx context.Context, businessID string, id string) (payroll.RunResponse, error) {
	run, err := s.loadRun(ctx, businessID, id)
	if err != nil {
		return payroll.RunResponse{}, err
	}
	return toRunResponse(run), nil
}

func (s *PayrollServiceImpl) ListRuns(ctx context.Context, businessID string, filter payroll.RunFilter) (payroll.ListRunResponse, error) {
	if err := filter.Validate(); err != nil {
		return payroll.ListRunResponse{}, err
	}
	if filter.Page < 1 {
		filter.Page = defaultPage
	}
	if filter.Limit < 1 {
		filter.Limit = defaultLimit
	}

	runs, total, err := s.payrollRepo.ListRuns(ctx, businessID, filter)
	if err != nil {
		return payroll.ListRunResponse{}, err
	}

	data := make([]payroll.RunResponse, 0, len(runs))
	for _, r := range runs {
		data = append(data, toRunResponse(r))
	}

	return payroll.ListRunResponse{
		Data:       data,
		TotalCount: total,
		Page:       filter.Page,
		Limit:      filter.Limit,
	}, nil
}

func (s *PayrollServiceImpl) ListRunRecords(ctx context.Context, businessID string, runID string) ([]payroll.RecordResponse, error) {
	// Ensures the run belongs to the business before listing.
	if _, err := s.loadRun(ctx, businessID, runID); err != nil {
		return nil, err
	}

	records, err := s.payrollRepo.ListRecordsByRun(ctx, runID, businessID)
	if err != nil {
		return nil, err
	}

	result := make([]payroll.RecordResponse, 0, len(records))
	for _, r := range records {
		result = append(result, toRecordResponse(r))
	}
	return result, nil
}

func (s *PayrollServiceImpl) ExportRun(ctx context.Context, businessID string, runID string) (payroll.ExportFile, error) {
	run, err := s.loadRun(ctx, businessID, runID)
	if err != nil {
		return payroll.ExportFile{}, err
	}
	if !run.Status.IsTerminal() {
		return payroll.ExportFile{}, payroll.ErrPayrollRunInProgress
	}

	records, err := s.payrollRepo.ListRecordsByRun(ctx, runID, businessID)
	if err != nil {
		return payroll.ExportFile{}, err
	}

	content, err := export.RunWorkbook(run, records)
	if err != nil {
		return payroll.ExportFile{}, err
	}

	return payroll.ExportFile{
		Filename:    fmt.Sprintf("payroll_%s_%s.xlsx", run.StartDate.Format(dateLayout), run.EndDate.Format(dateLayout)),
		ContentType: export.XLSXContentType,
		Content:     content,
	}, nil
}

// ========== MAPPING ==========

func toRunResponse(r payroll.Run) payroll.RunResponse {
	resp := payroll.RunResponse{
		ID:             r.ID,
		BusinessID:     r.BusinessID,
		StartDate:      r.StartDate.Format(dateLayout),
		EndDate:        r.EndDate.Format(dateLayout),
		PaySchedule:    string(r.PaySchedule),
		RunDate:        r.RunDate.Format(time.RFC3339),
		Status:         string(r.Status),
		TotalGrossPay:  r.TotalGrossPay,
		TotalEmployees: r.TotalEmployees,
		ProcessedCount: r.ProcessedCount,
		FailedCount:    r.FailedCount,
		Failures:       r.Failures,
		FailureReason:  r.FailureReason,
	}
	if r.CompletedAt != nil {
		str := r.CompletedAt.Format(time.RFC3339)
		resp.CompletedAt = &str
	}
	return resp
}

func toRecordResponse(r payroll.Record) payroll.RecordResponse {
	return payroll.RecordResponse{
		ID:                 r.ID,
		RunID:              r.RunID,
		WorkerID:           r.WorkerID,
		WorkerEmail:        r.WorkerEmail,
		WorkerName:         r.WorkerName,
		PaymentType:        r.PaymentType,
		GrossPay:           r.GrossPay,
		TotalHours:         r.TotalHours,
		TotalMileage:       r.TotalMileage,
		MileagePay:         r.MileagePay,
		CommissionEarned:   r.CommissionEarned,
		NetPay:             r.NetPay,
		CalculationDetails: r.CalculationDetails,
	}
}
