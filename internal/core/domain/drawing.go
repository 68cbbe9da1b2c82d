package domain

import (
	"time"

	"github.com/google/uuid"
)

// Drawing is a practice submission a user uploaded for a lesson.
// FileID is the Telegram file identifier, we never download the bytes.
type Drawing struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	LessonID    uuid.UUID
	FileID      string
	FileName    *string
	Comment     *string
	CommentedBy *string
	CommentedAt *time.Time
	CreatedAt   time.Time
}
