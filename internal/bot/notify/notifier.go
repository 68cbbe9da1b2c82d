package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"coursebot/internal/bot/messages"
	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

// notifier implements ports.Notifier over the bot client.
type notifier struct {
	client ports.BotClientPort
	log    zerolog.Logger
}

var _ ports.Notifier = (*notifier)(nil) // Ensure compliance

// NewNotifier creates the outbound notification sender.
func NewNotifier(client ports.BotClientPort, baseLogger *zerolog.Logger) ports.Notifier {
	return &notifier{
		client: client,
		log:    baseLogger.With().Str("component", "notifier").Logger(),
	}
}

func (n *notifier) PaymentSuccess(ctx context.Context, chatID int64) error {
	return n.client.SendMessage(ctx, messages.NewBuilder(chatID).
		WithText(messages.PaymentSuccessText).
		Build())
}

func (n *notifier) PaymentFailed(ctx context.Context, chatID int64) error {
	return n.client.SendMessage(ctx, messages.NewBuilder(chatID).
		WithText(messages.PaymentFailedText).
		Build())
}

func (n *notifier) ManualGrant(ctx context.Context, chatID int64, days int) error {
	return n.client.SendMessage(ctx, messages.NewBuilder(chatID).
		WithText(fmt.Sprintf(messages.ManualGrantText, days)).
		Build())
}

func (n *notifier) Reengage(ctx context.Context, chatID int64) error {
	return n.client.SendMessage(ctx, messages.NewBuilder(chatID).
		WithText(messages.ReengagementText).
		Build())
}

// SendLesson delivers a full lesson: the intro message, then each
// video, then the practice assignment. Premium video files go out
// protected from forwarding.
func (n *notifier) SendLesson(ctx context.Context, chatID int64, lesson *domain.Lesson) error {
	caption := messages.LessonCaption(lesson.LessonNumber, deref(lesson.Title), deref(lesson.Description))
	if err := n.client.SendMessage(ctx, messages.NewBuilder(chatID).WithText(caption).Build()); err != nil {
		return err
	}

	protect := lesson.Type == domain.LessonPremium

	if len(lesson.Videos) > 0 {
		for _, video := range lesson.Videos {
			if err := n.sendVideo(ctx, chatID, video.Title, video.VideoURL, protect); err != nil {
				n.log.Error().Err(err).
					Int64("chat_id", chatID).
					Int("lesson", lesson.LessonNumber).
					Str("video", video.Title).
					Msg("Failed to send lesson video")
			}
		}
	} else {
		// Legacy single-video lessons: the preview first, then the
		// full video, whichever of the two are present.
		for _, url := range []string{deref(lesson.PreviewVideoURL), deref(lesson.FullVideoURL)} {
			if url == "" {
				continue
			}
			if err := n.sendVideo(ctx, chatID, "", url, protect); err != nil {
				n.log.Error().Err(err).
					Int64("chat_id", chatID).
					Int("lesson", lesson.LessonNumber).
					Msg("Failed to send lesson video")
			}
		}
	}

	if practice := deref(lesson.PracticeText); practice != "" {
		return n.client.SendMessage(ctx, messages.NewBuilder(chatID).
			WithText(messages.PracticeCaption(practice)).
			Build())
	}
	return nil
}

// AdminPaymentRequest alerts the admin about a new payment request
// with inline confirm and reject buttons.
func (n *notifier) AdminPaymentRequest(ctx context.Context, adminChatID int64, req *domain.PaymentRequest, user *domain.User) error {
	text := messages.AdminPaymentAlert(user.DisplayName(), user.TelegramID, req.MethodName, req.Price, req.Currency)
	return n.client.SendMessage(ctx, messages.NewBuilder(adminChatID).
		WithText(text).
		WithInlineButtons([][]ports.Button{
			{
				{Text: "✅ Подтвердить", Data: "confirm_payment_" + req.ID.String()},
				{Text: "❌ Отклонить", Data: "reject_payment_" + req.ID.String()},
			},
		}).
		Build())
}

// sendVideo picks the right transport for a video reference. Links to
// hosting platforms cannot be re-uploaded, they go out as plain
// messages, everything else is sent as a native video.
func (n *notifier) sendVideo(ctx context.Context, chatID int64, title, url string, protect bool) error {
	if isExternalLink(url) {
		text := url
		if title != "" {
			text = fmt.Sprintf("🎬 *%s*\n%s", title, url)
		}
		return n.client.SendMessage(ctx, messages.NewBuilder(chatID).WithText(text).Build())
	}
	return n.client.SendVideo(ctx, ports.SendVideoParams{
		ChatID:         chatID,
		Video:          url,
		Caption:        title,
		ProtectContent: protect,
	})
}

func isExternalLink(url string) bool {
	return strings.Contains(url, "youtube.com") ||
		strings.Contains(url, "youtu.be") ||
		strings.Contains(url, "vimeo.com") ||
		strings.Contains(url, "rutube.ru")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
