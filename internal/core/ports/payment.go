package ports

import (
	"context"

	"github.com/google/uuid"

	"coursebot/internal/core/domain"
)

// PaymentRequestRepository is the persistence port for manual payment
// requests. Lookups return nil, nil when nothing matches.
type PaymentRequestRepository interface {
	Create(ctx context.Context, req *domain.PaymentRequest) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRequest, error)
	// PendingForUser returns the user's single pending, not-deleted request.
	PendingForUser(ctx context.Context, userID uuid.UUID) (*domain.PaymentRequest, error)
	ListPending(ctx context.Context) ([]*domain.PaymentRequest, error)
	List(ctx context.Context) ([]*domain.PaymentRequest, error)

	// MarkNotified flags that the admin alert for this request went out.
	MarkNotified(ctx context.Context, id uuid.UUID) error

	// Transition moves a request from pending to a terminal status with a
	// conditional update. It returns domain.ErrAlreadyProcessed when the
	// request already left pending and domain.ErrNotFound when it does
	// not exist. The updated row is returned on success.
	Transition(ctx context.Context, id uuid.UUID, to domain.PaymentRequestStatus, actor *string) (*domain.PaymentRequest, error)

	SoftDelete(ctx context.Context, id uuid.UUID) error
	CountConfirmed(ctx context.Context) (int, error)
}

// PaymentMethodRepository manages the admin-configured payment buttons.
type PaymentMethodRepository interface {
	ListActive(ctx context.Context) ([]*domain.PaymentMethod, error)
	List(ctx context.Context) ([]*domain.PaymentMethod, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentMethod, error)
	Create(ctx context.Context, method *domain.PaymentMethod) error
	Update(ctx context.Context, method *domain.PaymentMethod) error
	Delete(ctx context.Context, id uuid.UUID) error
}
