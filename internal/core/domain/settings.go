package domain

import "time"

// SettingsKey is the primary key of the single bot settings row.
const SettingsKey = "main"

// BotSettings is the admin-editable copy and payment defaults.
// A single row keyed SettingsKey; missing fields fall back to
// the defaults below or to config values.
type BotSettings struct {
	Key                      string
	PolicyText               *string
	PolicyButton             string
	WelcomePhoto             *string
	WelcomeText              *string
	WelcomeButtonNewbie      string
	WelcomeButtonExperienced string
	NewbieCtaText            string
	NewbieCtaButton          string
	PaymentText              *string
	PaymentPrice             *int
	PaymentCurrency          *string
	PaymentDuration          *int // days
	AdminTelegramID          *int64
	UpdatedAt                time.Time
}

// DefaultSettings returns the settings row the bot starts with.
func DefaultSettings() *BotSettings {
	return &BotSettings{
		Key:                      SettingsKey,
		PolicyButton:             "Я согласен",
		WelcomeButtonNewbie:      "🙋 Я новичок",
		WelcomeButtonExperienced: "🎨 Уже рисую",
		NewbieCtaText:            "🚀 Готовы пойти дальше? Присоединяйтесь к проекту!",
		NewbieCtaButton:          "🚀 Хочу в проект",
	}
}

// ResolvePrice returns the effective price given the config default.
func (s *BotSettings) ResolvePrice(def int) int {
	if s != nil && s.PaymentPrice != nil {
		return *s.PaymentPrice
	}
	return def
}

// ResolveCurrency returns the effective currency given the config default.
func (s *BotSettings) ResolveCurrency(def string) string {
	if s != nil && s.PaymentCurrency != nil && *s.PaymentCurrency != "" {
		return *s.PaymentCurrency
	}
	return def
}

// ResolveDuration returns the effective duration in days given the config default.
func (s *BotSettings) ResolveDuration(def int) int {
	if s != nil && s.PaymentDuration != nil && *s.PaymentDuration > 0 {
		return *s.PaymentDuration
	}
	return def
}
