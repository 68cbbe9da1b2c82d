package handlers

import (
	"context"

	"github.com/rs/zerolog"

	"coursebot/internal/bot"
	"coursebot/internal/bot/messages"
	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

func init() {
	bot.RegisterCommand(NewResetHandler)
}

// resetHandler is the plugin for the /reset command. It rewinds the
// user to the very beginning of the funnel. Subscriptions are left
// alone, paid access survives a reset.
type resetHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewResetHandler creates a new handler for the /reset command.
func NewResetHandler(deps *bot.Deps) ports.CommandHandler {
	return &resetHandler{
		log:  deps.Log.With().Str("component", "reset_handler").Logger(),
		deps: deps,
	}
}

func (h *resetHandler) Command() string {
	return "reset"
}

func (h *resetHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	user, err := requireUser(ctx, h.deps, update, ctxLogger)
	if err != nil || user == nil {
		return err
	}

	user.AcceptedPolicy = false
	user.IsNewbie = nil
	user.Status = domain.StatusNew
	user.CurrentLessonDay = 0
	user.PreferredTime = nil

	if err := h.deps.Users.Update(ctx, user); err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to reset user")
		sendError(ctx, h.deps, update.ChatID)
		return err
	}
	if err := h.deps.Sessions.Clear(ctx, update.UserID); err != nil {
		ctxLogger.Warn().Err(err).Msg("Failed to clear session")
	}

	ctxLogger.Info().Str("user_id", user.ID.String()).Msg("User progress reset")
	return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
		WithText(messages.ResetDoneText).
		Build())
}
