package business

import "context"

type SettingsService interface {
	GetSettings(ctx context.Context, businessID string) (SettingsResponse, error)
	UpdateSettings(ctx context.Context, businessID string, req UpdateSettingsRequest) (SettingsResponse, error)
}
