package domain

import (
	"time"

	"github.com/google/uuid"
)

// LessonType gates who may receive a lesson.
type LessonType string

const (
	LessonIntro   LessonType = "INTRO"   // teaser content, never auto-delivered
	LessonFree    LessonType = "FREE"    // available to newbies on trial
	LessonPremium LessonType = "PREMIUM" // requires an active subscription
	LessonFinal   LessonType = "FINAL"   // closing content, never auto-delivered
)

// Lesson is one unit of the course, keyed by its unique LessonNumber.
type Lesson struct {
	ID           uuid.UUID
	LessonNumber int
	Type         LessonType
	Title        *string
	Description  *string
	// Legacy single-video fields, used only when Videos is empty.
	PreviewVideoURL *string
	FullVideoURL    *string
	PracticeText    *string
	SortOrder       int
	IsActive        bool
	Videos          []LessonVideo
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// LessonVideo is one ordered video attached to a lesson.
type LessonVideo struct {
	ID        uuid.UUID
	LessonID  uuid.UUID
	Title     string
	VideoURL  string
	SortOrder int
}
