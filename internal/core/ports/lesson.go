package ports

import (
	"context"

	"github.com/google/uuid"

	"coursebot/internal/core/domain"
)

// LessonRepository is the persistence port for lessons and their videos.
// Lookups return nil, nil when the lesson does not exist.
type LessonRepository interface {
	// GetByNumber loads a lesson with its videos, ordered by sort_order.
	GetByNumber(ctx context.Context, number int) (*domain.Lesson, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Lesson, error)
	ListActive(ctx context.Context) ([]*domain.Lesson, error)
	ListByType(ctx context.Context, t domain.LessonType) ([]*domain.Lesson, error)
	List(ctx context.Context) ([]*domain.Lesson, error)

	// Create inserts the lesson and its videos.
	// A duplicate lesson_number fails with domain.ErrDuplicateLesson.
	Create(ctx context.Context, lesson *domain.Lesson) error
	// Update rewrites the lesson row and replaces its video list.
	Update(ctx context.Context, lesson *domain.Lesson) error
	// Deactivate soft-disables a lesson without losing history.
	Deactivate(ctx context.Context, id uuid.UUID) error

	Count(ctx context.Context) (int, error)
}
