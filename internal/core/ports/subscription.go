package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"coursebot/internal/core/domain"
)

// SubscriptionRepository is the persistence port for subscriptions.
// Lookups return nil, nil when nothing matches.
type SubscriptionRepository interface {
	Create(ctx context.Context, sub *domain.Subscription) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error)

	// ActiveForUser returns the user's completed, unexpired,
	// not-deleted subscription, if any.
	ActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Subscription, error)
	ListActive(ctx context.Context, now time.Time) ([]*domain.Subscription, error)
	// ListOverdue returns completed subscriptions whose end_date has
	// passed and whose owner has not been flipped to EXPIRED yet, so a
	// second sweep in a row returns nothing.
	ListOverdue(ctx context.Context, now time.Time) ([]*domain.Subscription, error)

	// ConfirmTx marks the subscription completed and the owning user
	// ACTIVE inside a single transaction.
	ConfirmTx(ctx context.Context, id uuid.UUID, paymentID string, start, end time.Time) error
	// CreateCompletedTx inserts an already-completed subscription and
	// marks the owning user ACTIVE inside a single transaction.
	CreateCompletedTx(ctx context.Context, sub *domain.Subscription) error

	MarkFailed(ctx context.Context, id uuid.UUID) error
	SetPaymentID(ctx context.Context, id uuid.UUID, paymentID string) error
	SoftDelete(ctx context.Context, id uuid.UUID) error

	// Stats aggregates completed subscriptions for the admin panel.
	Stats(ctx context.Context, now time.Time) (*SubscriptionStats, error)
}

// SubscriptionStats is the aggregate block shown on the admin dashboard.
type SubscriptionStats struct {
	TotalCompleted int
	TotalRevenue   int
	ActiveCount    int
	MonthlyRevenue int
}
