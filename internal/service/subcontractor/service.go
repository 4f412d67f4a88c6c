package subcontractor

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/subcontractor"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/validator"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SettlementServiceImpl struct {
	assignmentRepo subcontractor.AssignmentRepository
	settingsRepo   business.SettingsRepository
	logger         *zap.Logger
	now            func() time.Time
}

func NewSettlementService(
	assignmentRepo subcontractor.AssignmentRepository,
	settingsRepo business.SettingsRepository,
	logger *zap.Logger,
) *SettlementServiceImpl {
	if logger == nil {
		logger = zap.L()
	}
	return &SettlementServiceImpl{
		assignmentRepo: assignmentRepo,
		settingsRepo:   settingsRepo,
		logger:         logger.Named("settlement"),
		now:            time.Now,
	}
}

var _ subcontractor.SettlementService = (*SettlementServiceImpl)(nil)

func (s *SettlementServiceImpl) GetSettlement(ctx context.Context, businessID string, assignmentID string) (subcontractor.SettlementResponse, error) {
	a, err := s.assignmentRepo.GetByID(ctx, assignmentID, businessID)
	if err != nil {
		return subcontractor.SettlementResponse{}, err
	}
	return s.respond(ctx, businessID, a)
}

// ========== GATING ==========

func (s *SettlementServiceImpl) VerifyCompletion(ctx context.Context, businessID string, assignmentID string, verifierID string) (subcontractor.SettlementResponse, error) {
	if validator.IsEmpty(verifierID) {
		return subcontractor.SettlementResponse{}, subcontractor.ErrVerifierRequired
	}

	a, err := s.assignmentRepo.GetByID(ctx, assignmentID, businessID)
	if err != nil {
		return subcontractor.SettlementResponse{}, err
	}
	if a.Status != subcontractor.AssignmentStatusCompleted {
		return subcontractor.SettlementResponse{}, subcontractor.ErrAssignmentNotCompleted
	}
	if a.CompletionVerified {
		return subcontractor.SettlementResponse{}, subcontractor.ErrAlreadyVerified
	}

	now := s.now().UTC()
	if err := s.assignmentRepo.MarkVerified(ctx, assignmentID, businessID, verifierID, now); err != nil {
		return subcontractor.SettlementResponse{}, err
	}
	a.CompletionVerified = true
	a.VerifiedBy = &verifierID
	a.VerifiedAt = &now

	s.logger.Info("assignment completion verified",
		zap.String("business_id", businessID),
		zap.String("assignment_id", assignmentID),
		zap.String("verified_by", verifierID),
	)
	return s.respond(ctx, businessID, a)
}

func (s *SettlementServiceImpl) ReleaseHoldback(ctx context.Context, businessID string, assignmentID string) (subcontractor.SettlementResponse, error) {
	a, err := s.assignmentRepo.GetByID(ctx, assignmentID, businessID)
	if err != nil {
		return subcontractor.SettlementResponse{}, err
	}
	if !a.CompletionVerified {
		return subcontractor.SettlementResponse{}, subcontractor.ErrCompletionNotVerified
	}
	if a.HoldbackReleased {
		return subcontractor.SettlementResponse{}, subcontractor.ErrHoldbackAlreadyReleased
	}

	now := s.now().UTC()
	if err := s.assignmentRepo.MarkHoldbackReleased(ctx, assignmentID, businessID, now); err != nil {
		return subcontractor.SettlementResponse{}, err
	}
	a.HoldbackReleased = true
	a.HoldbackReleasedAt = &now

	s.logger.Info("assignment holdback released",
		zap.String("business_id", businessID),
		zap.String("assignment_id", assignmentID),
	)
	return s.respond(ctx, businessID, a)
}

func (s *SettlementServiceImpl) ProcessPayment(ctx context.Context, businessID string, assignmentID string) (subcontractor.SettlementResponse, error) {
	a, err := s.assignmentRepo.GetByID(ctx, assignmentID, businessID)
	if err != nil {
		return subcontractor.SettlementResponse{}, err
	}
	if !a.CompletionVerified {
		return subcontractor.SettlementResponse{}, subcontractor.ErrCompletionNotVerified
	}
	if a.PaymentProcessed {
		return subcontractor.SettlementResponse{}, subcontractor.ErrPaymentAlreadyProcessed
	}

	pct, err := s.holdbackPercentage(ctx, businessID)
	if err != nil {
		return subcontractor.SettlementResponse{}, err
	}
	settlement := CalculateNetPayment(a.FinalAmount, a.DailyDelayPenalties, a.CompletionDelayPenalties, pct)

	now := s.now().UTC()
	if err := s.assignmentRepo.MarkPaymentProcessed(ctx, assignmentID, businessID, settlement.NetPayment, now); err != nil {
		return subcontractor.SettlementResponse{}, err
	}
	a.PaymentProcessed = true
	a.PaymentProcessedAt = &now
	a.NetPaymentAmount = decimal.NewNullDecimal(settlement.NetPayment)

	s.logger.Info("assignment payment processed",
		zap.String("business_id", businessID),
		zap.String("assignment_id", assignmentID),
		zap.String("net_payment", settlement.NetPayment.StringFixed(2)),
		zap.Bool("holdback_released", a.HoldbackReleased),
	)
	return toSettlementResponse(a, settlement), nil
}

// ========== HELPERS ==========

func (s *SettlementServiceImpl) holdbackPercentage(ctx context.Context, businessID string) (decimal.Decimal, error) {
	settings, err := s.settingsRepo.Get(ctx, businessID)
	if errors.Is(err, business.ErrSettingsNotFound) {
		return business.DefaultHoldbackPercentage, nil
	}
	if err != nil {
		return decimal.Decimal{}, err
	}
	return settings.SubcontractorHoldbackPercentage, nil
}

func (s *SettlementServiceImpl) respond(ctx context.Context, businessID string, a subcontractor.Assignment) (subcontractor.SettlementResponse, error) {
	pct, err := s.holdbackPercentage(ctx, businessID)
	if err != nil {
		return subcontractor.SettlementResponse{}, err
	}
	return toSettlementResponse(a, CalculateNetPayment(a.FinalAmount, a.DailyDelayPenalties, a.CompletionDelayPenalties, pct)), nil
}

func toSettlementResponse(a subcontractor.Assignment, st subcontractor.Settlement) subcontractor.SettlementResponse {
	resp := subcontractor.SettlementResponse{
		AssignmentID:             a.ID,
		ProjectID:                a.ProjectID,
		SubcontractorName:        a.SubcontractorName,
		Status:                   string(a.Status),
		FinalAmount:              st.FinalAmount,
		DailyDelayPenalties:      a.DailyDelayPenalties,
		CompletionDelayPenalties: a.CompletionDelayPenalties,
		TotalPenalties:           st.TotalPenalties,
		HoldbackPercentage:       st.HoldbackPercentage,
		HoldbackAmount:           st.HoldbackAmount,
		NetPayment:               st.NetPayment,
		CompletionVerified:       a.CompletionVerified,
		VerifiedBy:               a.VerifiedBy,
		HoldbackReleased:         a.HoldbackReleased,
		PaymentProcessed:         a.PaymentProcessed,
	}
	if a.VerifiedAt != nil {
		str := a.VerifiedAt.Format(time.RFC3339)
		resp.VerifiedAt = &str
	}
	if a.PaymentProcessedAt != nil {
		str := a.PaymentProcessedAt.Format(time.RFC3339)
		resp.PaymentProcessedAt = &str
	}
	// Once paid, the stored amount wins over a recomputation with current settings.
	if a.NetPaymentAmount.Valid {
		paid := a.NetPaymentAmount.Decimal
		resp.PaidAmount = &paid
	}
	return resp
}
