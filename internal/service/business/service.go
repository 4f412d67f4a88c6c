package business

import (
	"context"
	"errors"
	"time"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/payroll"
)

type SettingsServiceImpl struct {
	settingsRepo business.SettingsRepository
}

func NewSettingsService(settingsRepo business.SettingsRepository) business.SettingsService {
	return &SettingsServiceImpl{settingsRepo: settingsRepo}
}

func (s *SettingsServiceImpl) GetSettings(ctx context.Context, businessID string) (business.SettingsResponse, error) {
	settings, err := s.current(ctx, businessID)
	if err != nil {
		return business.SettingsResponse{}, err
	}
	return toSettingsResponse(settings), nil
}

func (s *SettingsServiceImpl) UpdateSettings(ctx context.Context, businessID string, req business.UpdateSettingsRequest) (business.SettingsResponse, error) {
	if err := req.Validate(); err != nil {
		return business.SettingsResponse{}, err
	}

	current, err := s.current(ctx, businessID)
	if err != nil {
		return business.SettingsResponse{}, err
	}

	// Apply updates
	if req.SubcontractorHoldbackPercentage != nil {
		current.SubcontractorHoldbackPercentage = *req.SubcontractorHoldbackPercentage
	}
	if req.PaySchedule != nil {
		current.PaySchedule = payroll.PaySchedule(*req.PaySchedule)
	}
	current.UpdatedAt = time.Now().UTC()

	updated, err := s.settingsRepo.Upsert(ctx, current)
	if err != nil {
		return business.SettingsResponse{}, err
	}
	return toSettingsResponse(updated), nil
}

// current returns stored settings or the defaults when none exist.
func (s *SettingsServiceImpl) current(ctx context.Context, businessID string) (business.Settings, error) {
	settings, err := s.settingsRepo.Get(ctx, businessID)
	if errors.Is(err, business.ErrSettingsNotFound) {
		return business.DefaultSettings(businessID), nil
	}
	if err != nil {
		return business.Settings{}, err
	}
	return settings, nil
}

func toSettingsResponse(s business.Settings) business.SettingsResponse {
	return business.SettingsResponse{
		ID:                              s.ID,
		BusinessID:                      s.BusinessID,
		SubcontractorHoldbackPercentage: s.SubcontractorHoldbackPercentage,
		PaySchedule:                     string(s.PaySchedule),
	}
}
