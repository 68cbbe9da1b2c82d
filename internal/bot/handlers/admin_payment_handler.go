package handlers

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"coursebot/internal/bot"
	"coursebot/internal/bot/messages"
	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

func init() {
	bot.RegisterCallback(NewConfirmPaymentHandler)
	bot.RegisterCallback(NewRejectPaymentHandler)
}

// adminPaymentHandler is the shared base of the in-chat confirm and
// reject buttons under an admin alert.
type adminPaymentHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// isAdmin checks the sender against the configured admin. The settings
// row can move the admin chat without a restart.
func (h *adminPaymentHandler) isAdmin(ctx context.Context, telegramID int64) bool {
	adminID := h.deps.Cfg.Bot.AdminID
	if settings := loadSettings(ctx, h.deps); settings.AdminTelegramID != nil {
		adminID = *settings.AdminTelegramID
	}
	return adminID != 0 && telegramID == adminID
}

// actor names the admin in the audit columns.
func actor(update *ports.BotUpdate) string {
	if update.Username != nil {
		return *update.Username
	}
	return "admin"
}

// confirmPaymentHandler grants access when the admin confirms a
// payment request (confirm_payment_<uuid>).
type confirmPaymentHandler struct {
	adminPaymentHandler
}

// NewConfirmPaymentHandler creates the in-chat confirm handler.
func NewConfirmPaymentHandler(deps *bot.Deps) ports.CallbackHandler {
	return &confirmPaymentHandler{adminPaymentHandler{
		log:  deps.Log.With().Str("component", "confirm_payment_handler").Logger(),
		deps: deps,
	}}
}

func (h *confirmPaymentHandler) Prefix() string {
	return "confirm_payment_"
}

func (h *confirmPaymentHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	if !h.isAdmin(ctx, update.UserID) {
		answerCallback(ctx, h.deps, update, messages.AdminOnlyText, true)
		return nil
	}

	reqID, ok := parseSuffixID(*update.CallbackData, "confirm_payment_")
	if !ok {
		answerCallback(ctx, h.deps, update, messages.InternalErrorText, true)
		return nil
	}

	req, err := h.deps.Broker.Confirm(ctx, reqID, actor(update))
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		answerCallback(ctx, h.deps, update, messages.RequestAlreadyProcessedText, true)
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		answerCallback(ctx, h.deps, update, messages.RequestAlreadyProcessedText, true)
		return nil
	}
	if err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to confirm payment request")
		answerCallback(ctx, h.deps, update, messages.InternalErrorText, true)
		return err
	}

	user, err := h.deps.Users.GetByID(ctx, req.UserID)
	if err != nil || user == nil {
		ctxLogger.Error().Err(err).Str("request_id", reqID.String()).Msg("Confirmed request has no user")
		return err
	}

	settings := loadSettings(ctx, h.deps)
	days := settings.ResolveDuration(h.deps.Cfg.Payment.DurationDays)

	sub, err := h.deps.Ledger.CreateManual(ctx, user.ID, days)
	if err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to grant subscription for confirmed request")
		answerCallback(ctx, h.deps, update, messages.InternalErrorText, true)
		return err
	}

	if err := h.deps.Bus.Publish(ctx, ports.TopicManualGrant, ports.ManualGrant{
		SubscriptionID: sub.ID,
		UserID:         user.ID,
		ChatID:         user.TelegramID,
		DurationDays:   days,
	}); err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to publish manual grant")
	}

	answerCallback(ctx, h.deps, update, "✅ Оплата подтверждена", false)
	ctxLogger.Info().
		Str("request_id", reqID.String()).
		Str("subscription_id", sub.ID.String()).
		Msg("Payment request confirmed from chat")
	return nil
}

// rejectPaymentHandler closes a request without granting access
// (reject_payment_<uuid>).
type rejectPaymentHandler struct {
	adminPaymentHandler
}

// NewRejectPaymentHandler creates the in-chat reject handler.
func NewRejectPaymentHandler(deps *bot.Deps) ports.CallbackHandler {
	return &rejectPaymentHandler{adminPaymentHandler{
		log:  deps.Log.With().Str("component", "reject_payment_handler").Logger(),
		deps: deps,
	}}
}

func (h *rejectPaymentHandler) Prefix() string {
	return "reject_payment_"
}

func (h *rejectPaymentHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	if !h.isAdmin(ctx, update.UserID) {
		answerCallback(ctx, h.deps, update, messages.AdminOnlyText, true)
		return nil
	}

	reqID, ok := parseSuffixID(*update.CallbackData, "reject_payment_")
	if !ok {
		answerCallback(ctx, h.deps, update, messages.InternalErrorText, true)
		return nil
	}

	req, err := h.deps.Broker.Reject(ctx, reqID, actor(update))
	if errors.Is(err, domain.ErrAlreadyProcessed) || errors.Is(err, domain.ErrNotFound) {
		answerCallback(ctx, h.deps, update, messages.RequestAlreadyProcessedText, true)
		return nil
	}
	if err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to reject payment request")
		answerCallback(ctx, h.deps, update, messages.InternalErrorText, true)
		return err
	}

	// Tell the user, best-effort.
	if user, err := h.deps.Users.GetByID(ctx, req.UserID); err == nil && user != nil {
		_ = h.deps.Client.SendMessage(ctx, messages.NewBuilder(user.TelegramID).
			WithText(messages.PaymentRejectedText).
			Build())
	}

	answerCallback(ctx, h.deps, update, "❌ Заявка отклонена", false)
	ctxLogger.Info().Str("request_id", reqID.String()).Msg("Payment request rejected from chat")
	return nil
}
