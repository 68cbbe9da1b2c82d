package ports

import (
	"context"

	"github.com/google/uuid"

	"coursebot/internal/core/domain"
)

// DrawingRepository is the persistence port for practice submissions.
type DrawingRepository interface {
	Create(ctx context.Context, drawing *domain.Drawing) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Drawing, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Drawing, error)
	ListUncommented(ctx context.Context) ([]*domain.Drawing, error)
	// ListPage returns one page plus the total row count.
	ListPage(ctx context.Context, limit, offset int) ([]*domain.Drawing, int, error)
	// AddComment records admin feedback on a submission.
	AddComment(ctx context.Context, id uuid.UUID, comment, admin string) error
	Count(ctx context.Context) (int, error)
}
