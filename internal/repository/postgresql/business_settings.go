package postgresql

import (
	"context"
	"errors"

	"github.com/cmlabs-hris/contractor-backend-go/internal/domain/business"
	"github.com/cmlabs-hris/contractor-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

type settingsRepository struct {
	db *database.DB
}

func NewSettingsRepository(db *database.DB) business.SettingsRepository {
	return &settingsRepository{db: db}
}

func (r *settingsRepository) Get(ctx context.Context, businessID string) (business.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, business_id, subcontractor_holdback_percentage, pay_schedule, created_at, updated_at
		FROM business_settings
		WHERE business_id = $1
	`

	var s business.Settings
	err := q.QueryRow(ctx, query, businessID).Scan(
		&s.ID, &s.BusinessID, &s.SubcontractorHoldbackPercentage, &s.PaySchedule, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return business.Settings{}, business.ErrSettingsNotFound
		}
		return business.Settings{}, eris.Wrap(err, "failed to get business settings")
	}

	return s, nil
}

func (r *settingsRepository) Upsert(ctx context.Context, settings business.Settings) (business.Settings, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		INSERT INTO business_settings (business_id, subcontractor_holdback_percentage, pay_schedule)
		VALUES ($1, $2, $3)
		ON CONFLICT (business_id) DO UPDATE SET
			subcontractor_holdback_percentage = EXCLUDED.subcontractor_holdback_percentage,
			pay_schedule = EXCLUDED.pay_schedule,
			updated_at = NOW()
		RETURNING id, business_id, subcontractor_holdback_percentage, pay_schedule, created_at, updated_at
	`

	var s business.Settings
	err := q.QueryRow(ctx, query,
		settings.BusinessID, settings.SubcontractorHoldbackPercentage, string(settings.PaySchedule),
	).Scan(
		&s.ID, &s.BusinessID, &s.SubcontractorHoldbackPercentage, &s.PaySchedule, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return business.Settings{}, eris.Wrap(err, "failed to upsert business settings")
	}

	return s, nil
}
