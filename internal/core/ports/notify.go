package ports

import (
	"context"

	"coursebot/internal/core/domain"
)

// Notifier is the outbound notification gateway. Implementations send
// through the bot client; callers treat failures as non-fatal.
type Notifier interface {
	PaymentSuccess(ctx context.Context, chatID int64) error
	PaymentFailed(ctx context.Context, chatID int64) error
	ManualGrant(ctx context.Context, chatID int64, days int) error

	// SendLesson delivers the lesson intro, its videos (with the legacy
	// single-field fallback) and the practice text.
	SendLesson(ctx context.Context, chatID int64, lesson *domain.Lesson) error

	// Reengage nudges a user who has been idle for a while.
	Reengage(ctx context.Context, chatID int64) error

	// AdminPaymentRequest alerts the admin about a new payment request,
	// with inline confirm/reject buttons.
	AdminPaymentRequest(ctx context.Context, adminChatID int64, req *domain.PaymentRequest, user *domain.User) error
}
