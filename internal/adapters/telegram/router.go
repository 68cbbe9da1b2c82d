package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"coursebot/internal/core/ports"
)

// Router is the "Bot Facade." It holds all "plugins"
// and routes incoming updates to the correct handler.
type Router struct {
	log              zerolog.Logger
	botClient        ports.BotClientPort
	commandHandlers  map[string]ports.CommandHandler
	callbackHandlers map[string]ports.CallbackHandler
	mediaHandler     ports.MediaHandler
}

// NewRouter creates a new bot facade/router.
func NewRouter(
	botClient ports.BotClientPort,
	baseLogger *zerolog.Logger,
) *Router {
	return &Router{
		log:              baseLogger.With().Str("component", "tg_router").Logger(),
		botClient:        botClient,
		commandHandlers:  make(map[string]ports.CommandHandler),
		callbackHandlers: make(map[string]ports.CallbackHandler),
	}
}

// RegisterCommandHandler adds a "plugin" to the router.
func (r *Router) RegisterCommandHandler(handler ports.CommandHandler) {
	cmd := handler.Command()
	r.commandHandlers[cmd] = handler
	r.log.Info().Str("command", cmd).Msg("Registered new command handler")
}

// RegisterCallbackHandler adds a "plugin" to the router.
func (r *Router) RegisterCallbackHandler(handler ports.CallbackHandler) {
	prefix := handler.Prefix()
	r.callbackHandlers[prefix] = handler
	r.log.Info().Str("prefix", prefix).Msg("Registered new callback handler")
}

// SetMediaHandler registers the single handler for photo and document
// uploads (practice submissions).
func (r *Router) SetMediaHandler(handler ports.MediaHandler) {
	r.mediaHandler = handler
}

// HandleUpdate is the main entry point for a new update from Telegram.
func (r *Router) HandleUpdate(ctx context.Context, update *tgbotapi.Update) {
	// 1. Convert to our generic BotUpdate
	botUpdate, isSupported := r.parseUpdate(update)
	if !isSupported {
		r.log.Warn().Interface("update", update).Msg("Received unsupported update type")
		return
	}

	// 2. Add logger context
	ctxLogger := r.log.With().
		Int64("user_id", botUpdate.UserID).
		Int64("chat_id", botUpdate.ChatID).
		Logger()
	ctx = ctxLogger.WithContext(ctx)

	// 3. Route commands first
	if botUpdate.Command != "" {
		if handler, ok := r.commandHandlers[botUpdate.Command]; ok {
			ctxLogger.Info().Str("handler", botUpdate.Command).Msg("Routing to command handler")
			if err := handler.Handle(ctx, botUpdate); err != nil {
				ctxLogger.Error().Err(err).Msg("Command handler failed")
			}
			return
		}
		// Don't warn, fall through
	}

	// 4. Route callbacks next. Longest matching prefix wins, so
	// "payment_check" is not swallowed by a "pay" handler.
	if botUpdate.CallbackData != nil {
		var best ports.CallbackHandler
		bestLen := -1
		for prefix, handler := range r.callbackHandlers {
			if strings.HasPrefix(*botUpdate.CallbackData, prefix) && len(prefix) > bestLen {
				best = handler
				bestLen = len(prefix)
			}
		}
		if best != nil {
			ctxLogger.Info().Str("handler", best.Prefix()).Str("data", *botUpdate.CallbackData).Msg("Routing to callback handler")
			if err := best.Handle(ctx, botUpdate); err != nil {
				ctxLogger.Error().Err(err).Msg("Callback handler failed")
			}
			return
		}
		ctxLogger.Warn().Str("data", *botUpdate.CallbackData).Msg("No callback handler found")
		return
	}

	// 5. Uploaded files go to the media handler.
	if botUpdate.HasMedia() {
		if r.mediaHandler != nil {
			ctxLogger.Info().Msg("Routing to media handler")
			if err := r.mediaHandler.Handle(ctx, botUpdate); err != nil {
				ctxLogger.Error().Err(err).Msg("Media handler failed")
			}
			return
		}
		ctxLogger.Info().Msg("Received media with no handler")
		return
	}

	// 6. Plain text outside any flow: nudge toward the menu.
	if err := r.botClient.SendMessage(ctx, ports.SendMessageParams{
		ChatID: botUpdate.ChatID,
		Text:   "Используйте /menu для навигации по курсу.",
	}); err != nil {
		ctxLogger.Error().Err(err).Msg("Failed to send fallback message")
	}
}

// parseUpdate converts a tgbotapi.Update into our internal, simplified struct.
func (r *Router) parseUpdate(update *tgbotapi.Update) (*ports.BotUpdate, bool) {
	if update.CallbackQuery != nil {
		// This is a Callback
		cb := update.CallbackQuery
		bu := &ports.BotUpdate{
			MessageID:       cb.Message.MessageID,
			ChatID:          cb.Message.Chat.ID,
			UserID:          cb.From.ID,
			CallbackData:    &cb.Data,
			CallbackQueryID: cb.ID,
		}
		fillIdentity(bu, cb.From)
		return bu, true
	}

	if update.Message != nil {
		// This is a Message
		msg := update.Message
		bu := &ports.BotUpdate{
			MessageID: msg.MessageID,
			ChatID:    msg.Chat.ID,
			UserID:    msg.From.ID,
			Text:      msg.Text,
			Command:   msg.Command(),
		}
		fillIdentity(bu, msg.From)

		// Telegram sends several photo sizes, the last is the largest.
		if len(msg.Photo) > 0 {
			bu.PhotoFileID = msg.Photo[len(msg.Photo)-1].FileID
		}
		if msg.Document != nil {
			bu.DocumentFileID = msg.Document.FileID
			bu.DocumentName = msg.Document.FileName
		}
		return bu, true
	}

	return nil, false // Unsupported update
}

// fillIdentity copies optional profile fields from the sender.
func fillIdentity(bu *ports.BotUpdate, from *tgbotapi.User) {
	if from == nil {
		return
	}
	if from.UserName != "" {
		username := from.UserName
		bu.Username = &username
	}
	if from.FirstName != "" {
		firstName := from.FirstName
		bu.FirstName = &firstName
	}
	if from.LastName != "" {
		lastName := from.LastName
		bu.LastName = &lastName
	}
}
