package ports

import (
	"context"
)

// --- Bot Message Structures ---

// Button represents a single button in a keyboard.
type Button struct {
	Text string
	Data string // For callbacks
	URL  string // For URL buttons
}

// ReplyMarkup represents any kind of keyboard markup.
type ReplyMarkup struct {
	Buttons  [][]Button
	IsInline bool // Differentiates between Inline and Reply keyboards
}

// SendMessageParams holds all possible options for sending a text message.
type SendMessageParams struct {
	ChatID         int64
	Text           string
	ParseMode      string // e.g., "Markdown" or "HTML"
	ReplyMarkup    *ReplyMarkup
	DisablePreview bool
}

// SendPhotoParams sends a photo by URL, local path or Telegram file ID.
type SendPhotoParams struct {
	ChatID      int64
	Photo       string
	Caption     string
	ParseMode   string
	ReplyMarkup *ReplyMarkup
}

// SendVideoParams sends a video by URL or local path.
// ProtectContent forbids forwarding and saving on the client.
type SendVideoParams struct {
	ChatID         int64
	Video          string
	Caption        string
	ProtectContent bool
}

// EditMessageParams edits the text (and keyboard) of an existing message.
type EditMessageParams struct {
	ChatID      int64
	MessageID   int
	Text        string
	ParseMode   string
	ReplyMarkup *ReplyMarkup
}

// AnswerCallbackParams answers a callback query (stops the button spinner).
type AnswerCallbackParams struct {
	CallbackQueryID string
	Text            string
	ShowAlert       bool
}

// --- Bot Client Port (Outbound) ---

// BotClientPort defines the interface for *sending* messages.
// This is the "Adapter" our core logic will call.
type BotClientPort interface {
	SendMessage(ctx context.Context, params SendMessageParams) error
	SendPhoto(ctx context.Context, params SendPhotoParams) error
	SendVideo(ctx context.Context, params SendVideoParams) error
	EditMessageText(ctx context.Context, params EditMessageParams) error
	AnswerCallbackQuery(ctx context.Context, params AnswerCallbackParams) error
	SetMenuCommands(ctx context.Context) error
}

// --- Bot Handler Port (Inbound) ---

// BotUpdate represents a simplified, generic update.
type BotUpdate struct {
	MessageID       int
	ChatID          int64
	UserID          int64
	Username        *string
	FirstName       *string
	LastName        *string
	Text            string
	Command         string
	CallbackData    *string
	CallbackQueryID string
	// Set when the update carries an uploaded file.
	PhotoFileID    string
	DocumentFileID string
	DocumentName   string
}

// HasMedia reports whether the update carries an uploaded file.
func (u *BotUpdate) HasMedia() bool {
	return u.PhotoFileID != "" || u.DocumentFileID != ""
}

// CommandHandler defines the "plugin" interface for handling bot commands.
type CommandHandler interface {
	// Command returns the command string (e.g., "start")
	Command() string
	// Handle processes the update.
	Handle(ctx context.Context, update *BotUpdate) error
}

// CallbackHandler defines the interface for handling callback queries.
type CallbackHandler interface {
	// Prefix returns the prefix for the callback (e.g., "pay_")
	Prefix() string
	// Handle processes the callback.
	Handle(ctx context.Context, update *BotUpdate) error
}

// MediaHandler handles photo/document uploads (practice submissions).
type MediaHandler interface {
	Handle(ctx context.Context, update *BotUpdate) error
}
