package telegram

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"

	"coursebot/internal/core/ports"
)

// tgClient implements the BotClientPort.
type tgClient struct {
	api *tgbotapi.BotAPI
	log zerolog.Logger
}

var _ ports.BotClientPort = (*tgClient)(nil) // Ensure compliance

// NewClient creates a new Telegram client adapter.
func NewClient(api *tgbotapi.BotAPI, baseLogger *zerolog.Logger) ports.BotClientPort {
	log := baseLogger.With().Str("component", "tg_client").Logger()
	return &tgClient{api: api, log: log}
}

// SendMessage translates our params into a tgbotapi message.
func (c *tgClient) SendMessage(ctx context.Context, params ports.SendMessageParams) error {
	msg := tgbotapi.NewMessage(params.ChatID, params.Text)
	msg.ParseMode = params.ParseMode
	msg.DisableWebPagePreview = params.DisablePreview

	if params.ReplyMarkup != nil {
		if params.ReplyMarkup.IsInline {
			msg.ReplyMarkup = c.buildInlineKeyboard(params.ReplyMarkup.Buttons)
		} else {
			msg.ReplyMarkup = c.buildReplyKeyboard(params.ReplyMarkup.Buttons)
		}
	}

	if _, err := c.api.Send(msg); err != nil {
		c.log.Error().Err(err).Int64("chat_id", params.ChatID).Msg("Failed to send message")
		return err
	}
	return nil
}

// SendPhoto sends a photo by URL, local file path or Telegram file ID.
func (c *tgClient) SendPhoto(ctx context.Context, params ports.SendPhotoParams) error {
	msg := tgbotapi.NewPhoto(params.ChatID, photoFile(params.Photo))
	msg.Caption = params.Caption
	msg.ParseMode = params.ParseMode

	if params.ReplyMarkup != nil && params.ReplyMarkup.IsInline {
		msg.ReplyMarkup = c.buildInlineKeyboard(params.ReplyMarkup.Buttons)
	}

	if _, err := c.api.Send(msg); err != nil {
		c.log.Error().Err(err).Int64("chat_id", params.ChatID).Msg("Failed to send photo")
		return err
	}
	return nil
}

// SendVideo sends a video by URL, local file path or Telegram file ID.
// Premium content goes out with protect_content so clients cannot
// forward or save it. The request is assembled by hand because the
// pinned library predates that Bot API field.
func (c *tgClient) SendVideo(ctx context.Context, params ports.SendVideoParams) error {
	p, upload := videoRequest(params)

	var err error
	if upload != nil {
		_, err = c.api.UploadFiles("sendVideo", p, []tgbotapi.RequestFile{*upload})
	} else {
		_, err = c.api.MakeRequest("sendVideo", p)
	}
	if err != nil {
		c.log.Error().Err(err).Int64("chat_id", params.ChatID).Msg("Failed to send video")
		return err
	}
	return nil
}

// videoRequest builds the raw sendVideo params. Local files come back
// as a separate upload part, URLs and file IDs ride in the params.
func videoRequest(params ports.SendVideoParams) (tgbotapi.Params, *tgbotapi.RequestFile) {
	p := tgbotapi.Params{}
	p.AddNonZero64("chat_id", params.ChatID)
	p.AddNonEmpty("caption", params.Caption)
	p.AddBool("protect_content", params.ProtectContent)

	ref := params.Video
	if strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "./") {
		return p, &tgbotapi.RequestFile{Name: "video", Data: tgbotapi.FilePath(ref)}
	}
	p["video"] = ref
	return p, nil
}

// photoFile picks the right tgbotapi file type for a string reference.
func photoFile(ref string) tgbotapi.RequestFileData {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tgbotapi.FileURL(ref)
	}
	if strings.HasPrefix(ref, "/") || strings.HasPrefix(ref, "./") {
		return tgbotapi.FilePath(ref)
	}
	return tgbotapi.FileID(ref)
}

// buildInlineKeyboard is a helper to create the inline keyboard.
func (c *tgClient) buildInlineKeyboard(buttons [][]ports.Button) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for _, buttonRow := range buttons {
		var row []tgbotapi.InlineKeyboardButton
		for _, btn := range buttonRow {
			if btn.URL != "" {
				row = append(row, tgbotapi.NewInlineKeyboardButtonURL(btn.Text, btn.URL))
			} else {
				row = append(row, tgbotapi.NewInlineKeyboardButtonData(btn.Text, btn.Data))
			}
		}
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

// buildReplyKeyboard is a helper to create the reply (non-inline) keyboard.
func (c *tgClient) buildReplyKeyboard(buttons [][]ports.Button) tgbotapi.ReplyKeyboardMarkup {
	var rows [][]tgbotapi.KeyboardButton
	for _, buttonRow := range buttons {
		var row []tgbotapi.KeyboardButton
		for _, btn := range buttonRow {
			row = append(row, tgbotapi.NewKeyboardButton(btn.Text))
		}
		rows = append(rows, row)
	}

	markup := tgbotapi.NewReplyKeyboard(rows...)
	markup.ResizeKeyboard = true
	markup.OneTimeKeyboard = true // Keyboard hides after one use
	return markup
}

// SetMenuCommands sets the bot's /menu commands.
func (c *tgClient) SetMenuCommands(ctx context.Context) error {
	commands := []tgbotapi.BotCommand{
		{Command: "start", Description: "Начать работу с ботом"},
		{Command: "menu", Description: "Главное меню"},
		{Command: "reset", Description: "Сбросить прогресс"},
	}

	config := tgbotapi.NewSetMyCommands(commands...)
	if _, err := c.api.Request(config); err != nil {
		c.log.Error().Err(err).Msg("Failed to set menu commands")
		return err
	}
	return nil
}

// EditMessageText edits an existing message (usually for inline keyboards).
func (c *tgClient) EditMessageText(ctx context.Context, params ports.EditMessageParams) error {
	msg := tgbotapi.NewEditMessageText(
		params.ChatID,
		params.MessageID,
		params.Text,
	)
	msg.ParseMode = params.ParseMode

	if params.ReplyMarkup != nil && params.ReplyMarkup.IsInline {
		inlineMarkup := c.buildInlineKeyboard(params.ReplyMarkup.Buttons)
		msg.ReplyMarkup = &inlineMarkup
	}

	if _, err := c.api.Send(msg); err != nil {
		c.log.Error().Err(err).
			Int64("chat_id", params.ChatID).
			Int("message_id", params.MessageID).
			Msg("Failed to edit message text")
		return err
	}
	return nil
}

// AnswerCallbackQuery sends a response to a callback query (stops the spinner)
func (c *tgClient) AnswerCallbackQuery(ctx context.Context, params ports.AnswerCallbackParams) error {
	callbackConfig := tgbotapi.NewCallback(params.CallbackQueryID, params.Text)
	callbackConfig.ShowAlert = params.ShowAlert

	if _, err := c.api.Request(callbackConfig); err != nil {
		c.log.Error().Err(err).
			Str("callback_query_id", params.CallbackQueryID).
			Msg("Failed to answer callback query")
		return err
	}
	return nil
}
