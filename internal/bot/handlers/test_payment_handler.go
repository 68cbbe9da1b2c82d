package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"coursebot/internal/bot"
	"coursebot/internal/bot/messages"
	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

func init() {
	bot.RegisterCommand(NewTestPaymentHandler)
	bot.RegisterCallback(NewTestPaymentCallbackHandler)
}

// testPaymentHandler drives the provider flow end to end without real
// money: create a pending subscription, then simulate the provider
// callback. Available in dev mode and to the admin.
type testPaymentHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewTestPaymentHandler creates the /test_payment command handler.
func NewTestPaymentHandler(deps *bot.Deps) ports.CommandHandler {
	return &testPaymentHandler{
		log:  deps.Log.With().Str("component", "test_payment_handler").Logger(),
		deps: deps,
	}
}

func (h *testPaymentHandler) Command() string {
	return "test_payment"
}

func (h *testPaymentHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	if !allowTestFlow(h.deps, update.UserID) {
		return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(messages.AdminOnlyText).
			Build())
	}

	user, err := requireUser(ctx, h.deps, update, ctxLogger)
	if err != nil || user == nil {
		return err
	}

	return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
		WithText("🧪 Тестовая оплата. Выберите провайдера:").
		WithInlineButtons([][]ports.Button{
			{{Text: "Kaspi", Data: "test_pay_" + domain.ProviderKaspi}},
			{{Text: "ЮKassa", Data: "test_pay_" + domain.ProviderYukassa}},
			{{Text: "Prodamus", Data: "test_pay_" + domain.ProviderProdamus}},
		}).
		Build())
}

// testPaymentCallbackHandler serves test_pay_<provider>,
// test_ok_<uuid> and test_fail_<uuid>.
type testPaymentCallbackHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewTestPaymentCallbackHandler creates the test flow callback handler.
func NewTestPaymentCallbackHandler(deps *bot.Deps) ports.CallbackHandler {
	return &testPaymentCallbackHandler{
		log:  deps.Log.With().Str("component", "test_payment_callback_handler").Logger(),
		deps: deps,
	}
}

func (h *testPaymentCallbackHandler) Prefix() string {
	return "test_"
}

func (h *testPaymentCallbackHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	if !allowTestFlow(h.deps, update.UserID) {
		answerCallback(ctx, h.deps, update, messages.AdminOnlyText, true)
		return nil
	}

	user, err := requireUser(ctx, h.deps, update, ctxLogger)
	if err != nil || user == nil {
		return err
	}
	data := *update.CallbackData

	switch {
	case strings.HasPrefix(data, "test_pay_"):
		provider := strings.TrimPrefix(data, "test_pay_")
		sub, link, err := h.deps.Ledger.CreatePending(ctx, user.ID, provider)
		if err != nil {
			ctxLogger.Error().Err(err).Str("provider", provider).Msg("Failed to create test subscription")
			answerCallback(ctx, h.deps, update, messages.InternalErrorText, true)
			return err
		}
		answerCallback(ctx, h.deps, update, "", false)

		text := fmt.Sprintf("🧪 Создана тестовая подписка `%s` (%s).", sub.ID, provider)
		if link != "" {
			text += "\nСсылка: " + link
		}
		return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(text).
			WithInlineButtons([][]ports.Button{
				{
					{Text: "✅ Успех", Data: "test_ok_" + sub.ID.String()},
					{Text: "❌ Отказ", Data: "test_fail_" + sub.ID.String()},
				},
			}).
			WithDisablePreview().
			Build())

	case strings.HasPrefix(data, "test_ok_"):
		subID, ok := parseSuffixID(data, "test_ok_")
		if !ok {
			answerCallback(ctx, h.deps, update, messages.InternalErrorText, true)
			return nil
		}
		sub, err := h.deps.Ledger.Confirm(ctx, subID, fmt.Sprintf("TEST-%s", subID))
		if err != nil {
			ctxLogger.Error().Err(err).Msg("Failed to confirm test subscription")
			answerCallback(ctx, h.deps, update, messages.InternalErrorText, true)
			return err
		}
		answerCallback(ctx, h.deps, update, "✅", false)
		return h.deps.Bus.Publish(ctx, ports.TopicPaymentSucceeded, ports.PaymentOutcome{
			SubscriptionID: sub.ID,
			UserID:         user.ID,
			ChatID:         user.TelegramID,
		})

	case strings.HasPrefix(data, "test_fail_"):
		subID, ok := parseSuffixID(data, "test_fail_")
		if !ok {
			answerCallback(ctx, h.deps, update, messages.InternalErrorText, true)
			return nil
		}
		sub, err := h.deps.Ledger.CheckStatus(ctx, subID)
		if err != nil {
			ctxLogger.Error().Err(err).Msg("Failed to fail test subscription")
			answerCallback(ctx, h.deps, update, messages.InternalErrorText, true)
			return err
		}
		answerCallback(ctx, h.deps, update, "❌", false)
		return h.deps.Bus.Publish(ctx, ports.TopicPaymentFailed, ports.PaymentOutcome{
			SubscriptionID: sub.ID,
			UserID:         user.ID,
			ChatID:         user.TelegramID,
		})
	}
	return nil
}

// allowTestFlow gates the simulation behind dev mode or the admin.
func allowTestFlow(deps *bot.Deps, telegramID int64) bool {
	if deps.Cfg.IsDev() {
		return true
	}
	return deps.Cfg.Bot.AdminID != 0 && telegramID == deps.Cfg.Bot.AdminID
}
