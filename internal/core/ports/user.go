package ports

import (
	"context"
	"time"

	"github.com/google/uuid"

	"coursebot/internal/core/domain"
)

// UserRepository is the persistence port for course users.
// Lookups return nil, nil when the user does not exist.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByTelegramID(ctx context.Context, telegramID int64) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	List(ctx context.Context) ([]*domain.User, error)

	// SetStatus updates only the lifecycle status.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.UserStatus) error
	// SetLessonDay updates only the delivery pointer.
	SetLessonDay(ctx context.Context, id uuid.UUID, day int) error
	// TouchActivity bumps last_activity_at to now.
	TouchActivity(ctx context.Context, id uuid.UUID) error

	// ListBySlot returns ACTIVE and TRIAL users whose preferred_time
	// equals the given HH:00 slot.
	ListBySlot(ctx context.Context, slot string) ([]*domain.User, error)
	// ListInactiveSince returns ACTIVE and TRIAL users whose
	// last_activity_at is before the cutoff.
	ListInactiveSince(ctx context.Context, cutoff time.Time) ([]*domain.User, error)

	CountByStatus(ctx context.Context) (map[domain.UserStatus]int, error)
}
