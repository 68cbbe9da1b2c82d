package ports

import "github.com/google/uuid"

// PaymentOutcome is the payload of TopicPaymentSucceeded and
// TopicPaymentFailed. ChatID is the user's Telegram chat.
type PaymentOutcome struct {
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
	ChatID         int64
}

// ManualGrant is the payload of TopicManualGrant.
type ManualGrant struct {
	SubscriptionID uuid.UUID
	UserID         uuid.UUID
	ChatID         int64
	DurationDays   int
}
