package handlers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"coursebot/internal/bot"
	"coursebot/internal/bot/messages"
	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

func init() {
	bot.RegisterCallback(NewPayHandler)
	bot.RegisterCallback(NewPaymentActionHandler)
}

// payHandler opens a payment request for the chosen method
// (pay_<method uuid> buttons).
type payHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewPayHandler creates the method selection handler.
func NewPayHandler(deps *bot.Deps) ports.CallbackHandler {
	return &payHandler{
		log:  deps.Log.With().Str("component", "pay_handler").Logger(),
		deps: deps,
	}
}

func (h *payHandler) Prefix() string {
	return "pay_"
}

func (h *payHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	user, err := requireUser(ctx, h.deps, update, ctxLogger)
	if err != nil || user == nil {
		return err
	}

	methodID, ok := parseSuffixID(*update.CallbackData, "pay_")
	if !ok {
		answerCallback(ctx, h.deps, update, messages.InternalErrorText, true)
		return nil
	}

	req, created, err := h.deps.Broker.EnsurePending(ctx, user, methodID)
	if err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to open payment request")
		sendError(ctx, h.deps, update.ChatID)
		return err
	}
	answerCallback(ctx, h.deps, update, "", false)

	if !created {
		return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(messages.PaymentAlreadyPendingText).
			Build())
	}

	// Alert the admin once per request.
	h.notifyAdmin(ctx, ctxLogger, req, user)

	buttons := [][]ports.Button{}
	if req.PaymentURL != "" {
		buttons = append(buttons, []ports.Button{{Text: "💳 Перейти к оплате", URL: req.PaymentURL}})
	}
	buttons = append(buttons, []ports.Button{
		{Text: "✅ Я оплатил", Data: "payment_check"},
		{Text: "❌ Отменить", Data: "payment_decline"},
	})

	return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
		WithText(fmt.Sprintf(messages.PaymentRequestOpenedText, req.MethodName, req.Price, req.Currency)).
		WithInlineButtons(buttons).
		WithDisablePreview().
		Build())
}

// notifyAdmin is best-effort: a failed alert never blocks the user.
func (h *payHandler) notifyAdmin(ctx context.Context, log zerolog.Logger, req *domain.PaymentRequest, user *domain.User) {
	if req.AdminNotified {
		return
	}

	adminID := h.deps.Cfg.Bot.AdminID
	if settings := loadSettings(ctx, h.deps); settings.AdminTelegramID != nil {
		adminID = *settings.AdminTelegramID
	}
	if adminID == 0 {
		return
	}

	if err := h.deps.Notifier.AdminPaymentRequest(ctx, adminID, req, user); err != nil {
		log.Error().Err(err).Msg("Failed to alert admin about payment request")
		return
	}
	if err := h.deps.Broker.MarkNotified(ctx, req.ID); err != nil {
		log.Warn().Err(err).Msg("Failed to mark request as notified")
	}
}

// paymentActionHandler serves the buttons under an open request
// (payment_check / payment_decline).
type paymentActionHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewPaymentActionHandler creates the request action handler.
func NewPaymentActionHandler(deps *bot.Deps) ports.CallbackHandler {
	return &paymentActionHandler{
		log:  deps.Log.With().Str("component", "payment_action_handler").Logger(),
		deps: deps,
	}
}

func (h *paymentActionHandler) Prefix() string {
	return "payment_"
}

func (h *paymentActionHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	user, err := requireUser(ctx, h.deps, update, ctxLogger)
	if err != nil || user == nil {
		return err
	}
	answerCallback(ctx, h.deps, update, "", false)

	switch *update.CallbackData {
	case "payment_check":
		return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(messages.PaymentCheckText).
			Build())

	case "payment_decline":
		req, err := h.deps.Broker.PendingForUser(ctx, user.ID)
		if err != nil {
			ctxLogger.Error().Err(err).Msg("Failed to load pending request")
			sendError(ctx, h.deps, update.ChatID)
			return err
		}
		if req != nil {
			if _, err := h.deps.Broker.Cancel(ctx, req.ID); err != nil {
				ctxLogger.Error().Err(err).Msg("Failed to cancel request")
			}
		}
		return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(messages.PaymentDeclinedText).
			Build())
	}
	return nil
}
