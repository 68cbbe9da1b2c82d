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
	bot.RegisterMedia(NewDrawingHandler)
}

// drawingHandler stores practice submissions. Every photo or document
// lands against the user's current lesson.
type drawingHandler struct {
	log  zerolog.Logger
	deps *bot.Deps
}

// NewDrawingHandler creates the practice submission handler.
func NewDrawingHandler(deps *bot.Deps) ports.MediaHandler {
	return &drawingHandler{
		log:  deps.Log.With().Str("component", "drawing_handler").Logger(),
		deps: deps,
	}
}

func (h *drawingHandler) Handle(ctx context.Context, update *ports.BotUpdate) error {
	ctxLogger := h.log.With().Int64("user_id", update.UserID).Logger()

	user, err := requireUser(ctx, h.deps, update, ctxLogger)
	if err != nil || user == nil {
		return err
	}

	// Only accept media while a practice assignment is open. An
	// unreadable session store degrades to accepting, losing a drawing
	// is worse than taking a stray photo.
	step, err := h.deps.Sessions.Step(ctx, update.UserID)
	if err != nil {
		ctxLogger.Warn().Err(err).Msg("Failed to read session step")
	} else if step != ports.StepAwaitingDrawing {
		return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(messages.DrawingUnexpectedText).
			Build())
	}

	// Submissions attach to the last delivered lesson.
	lessonNumber := user.CurrentLessonDay
	if lessonNumber < 1 {
		lessonNumber = 1
	}
	lesson, err := h.deps.Lessons.GetByNumber(ctx, lessonNumber)
	if err != nil {
		ctxLogger.Error().Err(err).Int("lesson", lessonNumber).Msg("Failed to load current lesson")
		sendError(ctx, h.deps, update.ChatID)
		return err
	}
	if lesson == nil {
		return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(messages.DrawingNoAccessText).
			Build())
	}

	allowed, err := h.deps.Access.CanAccess(ctx, user, lesson)
	if err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to check lesson access")
		sendError(ctx, h.deps, update.ChatID)
		return err
	}
	if !allowed {
		return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
			WithText(messages.DrawingNoAccessText).
			Build())
	}

	drawing := &domain.Drawing{
		ID:       uuid.New(),
		UserID:   user.ID,
		LessonID: lesson.ID,
		FileID:   update.PhotoFileID,
	}
	if drawing.FileID == "" {
		drawing.FileID = update.DocumentFileID
		if update.DocumentName != "" {
			name := update.DocumentName
			drawing.FileName = &name
		}
	}

	if err := h.deps.Drawings.Create(ctx, drawing); err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to save drawing")
		sendError(ctx, h.deps, update.ChatID)
		return err
	}
	if err := h.deps.Sessions.Clear(ctx, update.UserID); err != nil {
		ctxLogger.Warn().Err(err).Msg("Failed to clear session")
	}

	ctxLogger.Info().
		Str("drawing_id", drawing.ID.String()).
		Int("lesson", lesson.LessonNumber).
		Msg("Drawing saved")
	return h.deps.Client.SendMessage(ctx, messages.NewBuilder(update.ChatID).
		WithText(messages.DrawingSavedText).
		Build())
}
