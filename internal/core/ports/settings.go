package ports

import (
	"context"

	"coursebot/internal/core/domain"
)

// SettingsRepository stores the singleton bot settings row.
type SettingsRepository interface {
	// Get loads the settings, creating the default row on first use.
	Get(ctx context.Context) (*domain.BotSettings, error)
	Save(ctx context.Context, settings *domain.BotSettings) error
}
