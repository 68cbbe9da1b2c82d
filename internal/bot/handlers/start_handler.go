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

func init() {
	bot.RegisterCommand(NewStartHandler)
	bot.RegisterCallback(NewPolicyHandler)
}

// startHandler is the plugin for the /start command.
type startHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewStartHandler creates a new handler for the /start command.
func NewStartHandler(deps *bot.Deps) ports.CommandHandler {
	return &startHandler{
		log:  deps.Log.With().Str("component", "start_handler").Logger(),
		deps: deps,
	}
}

// Command returns the command string (without the "/")
func (h *startHandler) Command() string {
	return "start"
}

// Handle runs the onboarding funnel: policy consent first, then the
// newbie question, then the menu for everyone who finished both.
func (h *startHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()
	ctx = ctxLogger.WithContext(ctx)

	user, err := h.deps.Users.GetByTelegramID(ctx, update.UserID)
	if err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to get user from repository")
		sendError(ctx, h.deps, update.ChatID)
		return err
	}

	if user == nil {
		user = &domain.User{
			ID:         uuid.New(),
			TelegramID: update.UserID,
			Username:   update.Username,
			FirstName:  update.FirstName,
			LastName:   update.LastName,
			Status:     domain.StatusNew,
		}
		if err := h.deps.Users.Create(ctx, user); err != nil {
			ctxLogger.Error().Err(err).Msg("Failed to create new user")
			sendError(ctx, h.deps, update.ChatID)
			return err
		}
		ctxLogger.Info().Str("user_id", user.ID.String()).Msg("New user created")
	} else if err := h.deps.Users.TouchActivity(ctx, user.ID); err != nil {
		ctxLogger.Warn().Err(err).Msg("Failed to touch activity")
	}

	if !user.AcceptedPolicy {
		return h.sendPolicy(ctx, update.ChatID)
	}
	if user.IsNewbie == nil {
		return sendWelcome(ctx, h.deps, update.ChatID)
	}

	return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
		WithText(messages.MenuText).
		WithInlineButtons(menuButtons()).
		Build())
}

// sendPolicy shows the consent screen with the accept button.
func (h *startHandler) sendPolicy(ctx context.Context, chatID int64) error {
	settings := loadSettings(ctx, h.deps)

	text := messages.PolicyFallbackText
	if settings.PolicyText != nil && *settings.PolicyText != "" {
		text = *settings.PolicyText
	}

	return h.deps.Client.SendMessage(ctx, messages.NewBuilder(chatID).
		WithText(text).
		WithInlineButtons([][]ports.Button{
			{{Text: settings.PolicyButton, Data: "accept_policy"}},
		}).
		Build())
}

// policyHandler handles the accept_policy button.
type policyHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewPolicyHandler creates the policy consent callback handler.
func NewPolicyHandler(deps *bot.Deps) ports.CallbackHandler {
	return &policyHandler{
		log:  deps.Log.With().Str("component", "policy_handler").Logger(),
		deps: deps,
	}
}

func (h *policyHandler) Prefix() string {
	return "accept_policy"
}

func (h *policyHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	user, err := requireUser(ctx, h.deps, update, ctxLogger)
	if err != nil || user == nil {
		return err
	}

	if !user.AcceptedPolicy {
		user.AcceptedPolicy = true
		if err := h.deps.Users.Update(ctx, user); err != nil {
			ctxLogger.Error().Err(err).Msg("Failed to save policy consent")
			sendError(ctx, h.deps, update.ChatID)
			return err
		}
		ctxLogger.Info().Str("user_id", user.ID.String()).Msg("Policy accepted")
	}

	answerCallback(ctx, h.deps, update, "", false)
	if user.IsNewbie == nil {
		return sendWelcome(ctx, h.deps, update.ChatID)
	}
	return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
		WithText(messages.MenuText).
		WithInlineButtons(menuButtons()).
		Build())
}
