package handlers

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"coursebot/internal/bot"
	"coursebot/internal/bot/messages"
	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

func init() {
	bot.RegisterCallback(NewNewbieHandler)
	bot.RegisterCallback(NewJoinProjectHandler)
}

// newbieHandler handles the onboarding answer buttons
// (select_newbie_yes / select_newbie_no).
type newbieHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewNewbieHandler creates the onboarding answer handler.
func NewNewbieHandler(deps *bot.Deps) ports.CallbackHandler {
	return &newbieHandler{
		log:  deps.Log.With().Str("component", "newbie_handler").Logger(),
		deps: deps,
	}
}

func (h *newbieHandler) Prefix() string {
	return "select_newbie_"
}

func (h *newbieHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	user, err := requireUser(ctx, h.deps, update, ctxLogger)
	if err != nil || user == nil {
		return err
	}

	// The answer only counts after consent.
	if !user.AcceptedPolicy {
		answerCallback(ctx, h.deps, update, messages.StartFirstText, true)
		return nil
	}

	isNewbie := strings.HasSuffix(*update.CallbackData, "_yes")
	user.IsNewbie = &isNewbie
	if isNewbie && user.Status == domain.StatusNew {
		user.Status = domain.StatusTrial
	}
	if err := h.deps.Users.Update(ctx, user); err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to save onboarding answer")
		sendError(ctx, h.deps, update.ChatID)
		return err
	}
	answerCallback(ctx, h.deps, update, "", false)
	ctxLogger.Info().Bool("is_newbie", isNewbie).Msg("Onboarding answer saved")

	if !isNewbie {
		// Experienced artists go straight to the subscription offer.
		return sendPaymentScreen(ctx, h.deps, update.ChatID)
	}

	// Newbies get the free lesson right away.
	if err := h.sendFreeLesson(ctx, user, update.ChatID); err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to deliver free lesson")
	}

	settings := loadSettings(ctx, h.deps)
	if err := h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
		WithText(settings.NewbieCtaText).
		WithInlineButtons([][]ports.Button{
			{{Text: settings.NewbieCtaButton, Data: "want_to_join_project"}},
		}).
		Build()); err != nil {
		return err
	}

	return sendTimeChooser(ctx, h.deps, update.ChatID)
}

// sendFreeLesson delivers the first free lesson and moves the lesson
// pointer past it.
func (h *newbieHandler) sendFreeLesson(ctx context.Context, user *domain.User, chatID int64) error {
	lessons, err := h.deps.Lessons.ListByType(ctx, domain.LessonFree)
	if err != nil {
		return err
	}
	if len(lessons) == 0 {
		return nil
	}

	lesson := lessons[0]
	if err := h.deps.Notifier.SendLesson(ctx, chatID, lesson); err != nil {
		return err
	}
	if lesson.PracticeText != nil && *lesson.PracticeText != "" {
		if err := h.deps.Sessions.SetStep(ctx, user.TelegramID, ports.StepAwaitingDrawing); err != nil {
			h.log.Warn().Err(err).Int64("user_id", user.TelegramID).Msg("Failed to set session step")
		}
	}
	return h.deps.Users.SetLessonDay(ctx, user.ID, lesson.LessonNumber)
}

// joinProjectHandler handles the CTA under the free lesson.
type joinProjectHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewJoinProjectHandler creates the project CTA handler.
func NewJoinProjectHandler(deps *bot.Deps) ports.CallbackHandler {
	return &joinProjectHandler{
		log:  deps.Log.With().Str("component", "join_project_handler").Logger(),
		deps: deps,
	}
}

func (h *joinProjectHandler) Prefix() string {
	return "want_to_join_project"
}

func (h *joinProjectHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	user, err := requireUser(ctx, h.deps, update, ctxLogger)
	if err != nil || user == nil {
		return err
	}

	answerCallback(ctx, h.deps, update, "", false)
	return sendPaymentScreen(ctx, h.deps, update.ChatID)
}
