package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

type settingsRepository struct {
	db  *DB
	log zerolog.Logger
}

var _ ports.SettingsRepository = (*settingsRepository)(nil) // Ensure compliance

// NewSettingsRepository creates the repository for the singleton settings row.
func NewSettingsRepository(db *DB, baseLogger *zerolog.Logger) ports.SettingsRepository {
	return &settingsRepository{
		db:  db,
		log: baseLogger.With().Str("component", "settings_repo").Logger(),
	}
}

const settingsQueryCols = `
	key, policy_text, policy_button, welcome_photo, welcome_text,
	welcome_button_newbie, welcome_button_experienced, newbie_cta_text,
	newbie_cta_button, payment_text, payment_price, payment_currency,
	payment_duration, admin_telegram_id, updated_at
`

func scanSettings(row pgx.Row) (*domain.BotSettings, error) {
	var s domain.BotSettings
	err := row.Scan(
		&s.Key,
		&s.PolicyText,
		&s.PolicyButton,
		&s.WelcomePhoto,
		&s.WelcomeText,
		&s.WelcomeButtonNewbie,
		&s.WelcomeButtonExperienced,
		&s.NewbieCtaText,
		&s.NewbieCtaButton,
		&s.PaymentText,
		&s.PaymentPrice,
		&s.PaymentCurrency,
		&s.PaymentDuration,
		&s.AdminTelegramID,
		&s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// Get loads the settings, creating the default row on first use.
func (r *settingsRepository) Get(ctx context.Context) (*domain.BotSettings, error) {
	query := `SELECT ` + settingsQueryCols + ` FROM bot_settings WHERE key = $1`

	settings, err := scanSettings(r.db.pool.QueryRow(ctx, query, domain.SettingsKey))
	if err == nil {
		return settings, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		r.log.Error().Err(err).Msg("Failed to scan settings row")
		return nil, err
	}

	defaults := domain.DefaultSettings()
	if err := r.Save(ctx, defaults); err != nil {
		return nil, err
	}
	r.log.Info().Msg("Created default bot settings row")
	return defaults, nil
}

// Save upserts the singleton settings row.
func (r *settingsRepository) Save(ctx context.Context, settings *domain.BotSettings) error {
	query := `
		INSERT INTO bot_settings (
			key, policy_text, policy_button, welcome_photo, welcome_text,
			welcome_button_newbie, welcome_button_experienced, newbie_cta_text,
			newbie_cta_button, payment_text, payment_price, payment_currency,
			payment_duration, admin_telegram_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		ON CONFLICT (key) DO UPDATE SET
			policy_text = EXCLUDED.policy_text,
			policy_button = EXCLUDED.policy_button,
			welcome_photo = EXCLUDED.welcome_photo,
			welcome_text = EXCLUDED.welcome_text,
			welcome_button_newbie = EXCLUDED.welcome_button_newbie,
			welcome_button_experienced = EXCLUDED.welcome_button_experienced,
			newbie_cta_text = EXCLUDED.newbie_cta_text,
			newbie_cta_button = EXCLUDED.newbie_cta_button,
			payment_text = EXCLUDED.payment_text,
			payment_price = EXCLUDED.payment_price,
			payment_currency = EXCLUDED.payment_currency,
			payment_duration = EXCLUDED.payment_duration,
			admin_telegram_id = EXCLUDED.admin_telegram_id,
			updated_at = NOW()
	`
	_, err := r.db.pool.Exec(ctx, query,
		settings.Key,
		settings.PolicyText,
		settings.PolicyButton,
		settings.WelcomePhoto,
		settings.WelcomeText,
		settings.WelcomeButtonNewbie,
		settings.WelcomeButtonExperienced,
		settings.NewbieCtaText,
		settings.NewbieCtaButton,
		settings.PaymentText,
		settings.PaymentPrice,
		settings.PaymentCurrency,
		settings.PaymentDuration,
		settings.AdminTelegramID,
	)
	if err != nil {
		r.log.Error().Err(err).Msg("Failed to save settings")
	}
	return err
}
