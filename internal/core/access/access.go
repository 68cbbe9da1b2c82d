package access

import (
	"context"
	"time"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

// CanView is the access rule for lesson delivery. It is evaluated
// against the instant passed in, never cached:
//   - FREE lessons go to self-declared newbies,
//   - PREMIUM lessons require a live subscription,
//   - INTRO and FINAL content is never auto-delivered.
func CanView(user *domain.User, lesson *domain.Lesson, sub *domain.Subscription, now time.Time) bool {
	if user == nil || lesson == nil {
		return false
	}

	switch lesson.Type {
	case domain.LessonFree:
		return user.IsNewbie != nil && *user.IsNewbie
	case domain.LessonPremium:
		return sub.IsActiveAt(now)
	default:
		return false
	}
}

// Checker loads the subscription for callers that only hold a user.
type Checker struct {
	subs ports.SubscriptionRepository
	now  func() time.Time
}

// NewChecker creates an access checker over the subscription store.
func NewChecker(subs ports.SubscriptionRepository) *Checker {
	return &Checker{subs: subs, now: time.Now}
}

// CanAccess evaluates CanView with the user's current subscription.
func (c *Checker) CanAccess(ctx context.Context, user *domain.User, lesson *domain.Lesson) (bool, error) {
	if user == nil || lesson == nil {
		return false, nil
	}

	now := c.now()
	// FREE needs no subscription lookup.
	if lesson.Type == domain.LessonFree {
		return CanView(user, lesson, nil, now), nil
	}

	sub, err := c.subs.ActiveForUser(ctx, user.ID, now)
	if err != nil {
		return false, err
	}
	return CanView(user, lesson, sub, now), nil
}

// WithClock overrides the time source, for tests.
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	return c
}
