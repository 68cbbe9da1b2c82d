package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"coursebot/internal/bot"
	"coursebot/internal/bot/messages"
	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

// Shared screens used from more than one handler.

// sendWelcome shows the onboarding question, with the welcome photo
// when the admin configured one.
func sendWelcome(ctx context.Context, deps *bot.Deps, chatID int64) error {
	settings := loadSettings(ctx, deps)

	text := messages.WelcomeFallbackText
	if settings.WelcomeText != nil && *settings.WelcomeText != "" {
		text = *settings.WelcomeText
	}

	buttons := [][]ports.Button{
		{{Text: settings.WelcomeButtonNewbie, Data: "select_newbie_yes"}},
		{{Text: settings.WelcomeButtonExperienced, Data: "select_newbie_no"}},
	}

	if settings.WelcomePhoto != nil && *settings.WelcomePhoto != "" {
		return deps.Client.SendPhoto(ctx, ports.SendPhotoParams{
			ChatID:    chatID,
			Photo:     *settings.WelcomePhoto,
			Caption:   text,
			ParseMode: "Markdown",
			ReplyMarkup: &ports.ReplyMarkup{
				IsInline: true,
				Buttons:  buttons,
			},
		})
	}

	return deps.Client.SendMessage(ctx, messages.NewBuilder(chatID).
		WithText(text).
		WithInlineButtons(buttons).
		Build())
}

// sendPaymentScreen lists the active payment methods as buttons.
func sendPaymentScreen(ctx context.Context, deps *bot.Deps, chatID int64) error {
	settings := loadSettings(ctx, deps)

	price := settings.ResolvePrice(deps.Cfg.Payment.Price)
	currency := settings.ResolveCurrency(deps.Cfg.Payment.Currency)

	text := messages.PaymentFallbackText
	if settings.PaymentText != nil && *settings.PaymentText != "" {
		text = *settings.PaymentText
	}
	text = messages.SubstitutePrice(text, price, currency)

	methods, err := deps.Methods.ListActive(ctx)
	if err != nil {
		return err
	}

	var buttons [][]ports.Button
	for _, method := range methods {
		label := method.ButtonText
		if label == "" {
			label = method.Name
		}
		buttons = append(buttons, []ports.Button{
			{Text: label, Data: "pay_" + method.ID.String()},
		})
	}

	builder := messages.NewBuilder(chatID).WithText(text)
	if len(buttons) > 0 {
		builder = builder.WithInlineButtons(buttons)
	}
	return deps.Client.SendMessage(ctx, builder.Build())
}

// sendTimeChooser offers the hourly delivery slots.
func sendTimeChooser(ctx context.Context, deps *bot.Deps, chatID int64) error {
	slots := []string{"08:00", "09:00", "10:00", "12:00", "15:00", "18:00", "20:00", "21:00"}

	var buttons [][]ports.Button
	var row []ports.Button
	for i, slot := range slots {
		row = append(row, ports.Button{Text: slot, Data: "time_" + slot})
		if (i+1)%4 == 0 || i == len(slots)-1 {
			buttons = append(buttons, row)
			row = nil
		}
	}

	return deps.Client.SendMessage(ctx, messages.NewBuilder(chatID).
		WithText(messages.ChooseTimeText).
		WithInlineButtons(buttons).
		Build())
}

// loadSettings returns the settings row, falling back to defaults so
// screens stay usable when the database hiccups.
func loadSettings(ctx context.Context, deps *bot.Deps) *domain.BotSettings {
	settings, err := deps.Settings.Get(ctx)
	if err != nil || settings == nil {
		return domain.DefaultSettings()
	}
	return settings
}

// answerCallback is a best-effort spinner stop.
func answerCallback(ctx context.Context, deps *bot.Deps, update *ports.BotUpdate, text string, alert bool) {
	if update.CallbackQueryID == "" {
		return
	}
	_ = deps.Client.AnswerCallbackQuery(ctx, ports.AnswerCallbackParams{
		CallbackQueryID: update.CallbackQueryID,
		Text:            text,
		ShowAlert:       alert,
	})
}

// requireUser loads the user behind an update, nudging to /start when
// they have never registered.
func requireUser(ctx context.Context, deps *bot.Deps, update *ports.BotUpdate, log zerolog.Logger) (*domain.User, error) {
	user, err := deps.Users.GetByTelegramID(ctx, update.UserID)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load user")
		sendError(ctx, deps, update.ChatID)
		return nil, err
	}
	if user == nil {
		_ = deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(messages.StartFirstText).
			Build())
		return nil, nil
	}
	if err := deps.Users.TouchActivity(ctx, user.ID); err != nil {
		log.Warn().Err(err).Msg("Failed to touch activity")
	}
	return user, nil
}

// sendError is a helper to send a generic error
func sendError(ctx context.Context, deps *bot.Deps, chatID int64) {
	_ = deps.Client.SendMessage(ctx, messages.NewBuilder(chatID).
		WithText(messages.InternalErrorText).
		Build())
}

// parseSuffixID extracts the uuid after a callback prefix.
func parseSuffixID(data, prefix string) (uuid.UUID, bool) {
	if len(data) <= len(prefix) {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(data[len(prefix):])
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
