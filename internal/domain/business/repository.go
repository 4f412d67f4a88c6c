package business

import "context"

type SettingsRepository interface {
	Get(ctx context.Context, businessID string) (Settings, error)
	Upsert(ctx context.Context, settings Settings) (Settings, error)
}
