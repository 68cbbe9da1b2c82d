package domain

import (
	"time"

	"github.com/google/uuid"
)

// UserStatus tracks where a user is in the course lifecycle.
type UserStatus string

const (
	StatusNew     UserStatus = "NEW"     // registered, not yet onboarded
	StatusTrial   UserStatus = "TRIAL"   // newbie on the free lessons
	StatusActive  UserStatus = "ACTIVE"  // has a paid subscription
	StatusExpired UserStatus = "EXPIRED" // subscription ran out
)

// User is a Telegram user of the course bot.
type User struct {
	ID               uuid.UUID
	TelegramID       int64
	Username         *string
	FirstName        *string
	LastName         *string
	IsNewbie         *bool // nil until the user answers the onboarding question
	AcceptedPolicy   bool
	Status           UserStatus
	CurrentLessonDay int // number of the last lesson delivered, 0 = none yet
	PreferredTime    *string
	LastActivityAt   time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DisplayName returns the best human-readable name we have for the user.
func (u *User) DisplayName() string {
	if u.FirstName != nil && *u.FirstName != "" {
		return *u.FirstName
	}
	if u.Username != nil && *u.Username != "" {
		return "@" + *u.Username
	}
	return "user"
}
