package handlers

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"coursebot/internal/bot"
	"coursebot/internal/bot/messages"
	"coursebot/internal/core/ports"
)

func init() {
	bot.RegisterCommand(NewMenuHandler)
	bot.RegisterCallback(NewMenuCallbackHandler)
	bot.RegisterCallback(NewTimeHandler)
}

// menuButtons is the main menu keyboard.
func menuButtons() [][]ports.Button {
	return [][]ports.Button{
		{{Text: messages.MenuMyLessons, Data: "menu_lessons"}},
		{{Text: messages.MenuChangeTime, Data: "menu_time"}},
		{{Text: messages.MenuAboutCourse, Data: "menu_about"}},
		{{Text: messages.MenuSubscription, Data: "menu_subscription"}},
	}
}

// menuHandler is the plugin for the /menu command.
type menuHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewMenuHandler creates a new handler for the /menu command.
func NewMenuHandler(deps *bot.Deps) ports.CommandHandler {
	return &menuHandler{
		log:  deps.Log.With().Str("component", "menu_handler").Logger(),
		deps: deps,
	}
}

func (h *menuHandler) Command() string {
	return "menu"
}

func (h *menuHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	user, err := requireUser(ctx, h.deps, update, ctxLogger)
	if err != nil || user == nil {
		return err
	}

	// The main menu is for subscribers, everyone else lands on the
	// payment offer.
	sub, err := h.deps.Ledger.ActiveForUser(ctx, user.ID)
	if err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to load subscription")
		sendError(ctx, h.deps, update.ChatID)
		return err
	}
	if sub == nil {
		if err := h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(messages.NoSubscriptionText).
			Build()); err != nil {
			return err
		}
		return sendPaymentScreen(ctx, h.deps, update.ChatID)
	}

	return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
		WithText(messages.MenuText).
		WithInlineButtons(menuButtons()).
		Build())
}

// menuCallbackHandler serves the menu sections.
type menuCallbackHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewMenuCallbackHandler creates the menu sections handler.
func NewMenuCallbackHandler(deps *bot.Deps) ports.CallbackHandler {
	return &menuCallbackHandler{
		log:  deps.Log.With().Str("component", "menu_callback_handler").Logger(),
		deps: deps,
	}
}

func (h *menuCallbackHandler) Prefix() string {
	return "menu_"
}

func (h *menuCallbackHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	user, err := requireUser(ctx, h.deps, update, ctxLogger)
	if err != nil || user == nil {
		return err
	}
	answerCallback(ctx, h.deps, update, "", false)

	// Same gate as /menu: no live subscription, no menu sections.
	sub, err := h.deps.Ledger.ActiveForUser(ctx, user.ID)
	if err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to load subscription")
		sendError(ctx, h.deps, update.ChatID)
		return err
	}
	if sub == nil {
		if err := h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(messages.NoSubscriptionText).
			Build()); err != nil {
			return err
		}
		return sendPaymentScreen(ctx, h.deps, update.ChatID)
	}

	switch *update.CallbackData {
	case "menu_lessons":
		total, err := h.deps.Lessons.Count(ctx)
		if err != nil {
			ctxLogger.Error().Err(err).Msg("Failed to count lessons")
			sendError(ctx, h.deps, update.ChatID)
			return err
		}
		text := fmt.Sprintf("📚 Вы на уроке %d из %d.\nСледующий урок придёт в выбранное время.", user.CurrentLessonDay, total)
		if user.CurrentLessonDay == 0 {
			text = "📚 Вы ещё не начали курс. Первый урок придёт в выбранное время."
		}
		return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).WithText(text).Build())

	case "menu_time":
		if err := h.deps.Sessions.SetStep(ctx, update.UserID, ports.StepChoosingTime); err != nil {
			ctxLogger.Warn().Err(err).Msg("Failed to set session step")
		}
		return sendTimeChooser(ctx, h.deps, update.ChatID)

	case "menu_about":
		return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(messages.AboutCourseText).
			Build())

	case "menu_subscription":
		return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(fmt.Sprintf(messages.SubscriptionActiveText, sub.EndDate.Format("02.01.2006"))).
			Build())

	default:
		return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(messages.MenuText).
			WithInlineButtons(menuButtons()).
			Build())
	}
}

// timeHandler stores the preferred delivery slot (time_HH:MM buttons).
type timeHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewTimeHandler creates the delivery slot handler.
func NewTimeHandler(deps *bot.Deps) ports.CallbackHandler {
	return &timeHandler{
		log:  deps.Log.With().Str("component", "time_handler").Logger(),
		deps: deps,
	}
}

func (h *timeHandler) Prefix() string {
	return "time_"
}

func (h *timeHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	user, err := requireUser(ctx, h.deps, update, ctxLogger)
	if err != nil || user == nil {
		return err
	}

	slot := (*update.CallbackData)[len("time_"):]
	user.PreferredTime = &slot
	if err := h.deps.Users.Update(ctx, user); err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to save preferred time")
		sendError(ctx, h.deps, update.ChatID)
		return err
	}
	// Only the chooser step is cleared. An open practice assignment
	// survives a time change.
	if step, err := h.deps.Sessions.Step(ctx, update.UserID); err != nil {
		ctxLogger.Warn().Err(err).Msg("Failed to read session step")
	} else if step == ports.StepChoosingTime {
		if err := h.deps.Sessions.Clear(ctx, update.UserID); err != nil {
			ctxLogger.Warn().Err(err).Msg("Failed to clear session")
		}
	}

	answerCallback(ctx, h.deps, update, "", false)
	ctxLogger.Info().Str("slot", slot).Msg("Preferred time saved")
	return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
		WithText(fmt.Sprintf(messages.TimeSavedText, slot)).
		Build())
}
