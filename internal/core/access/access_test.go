package access

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

func boolPtr(b bool) *bool { return &b }

func makeUser(newbie *bool, status domain.UserStatus) *domain.User {
	return &domain.User{
		ID:         uuid.New(),
		TelegramID: 100,
		IsNewbie:   newbie,
		Status:     status,
	}
}

func makeLesson(t domain.LessonType) *domain.Lesson {
	return &domain.Lesson{
		ID:           uuid.New(),
		LessonNumber: 1,
		Type:         t,
		IsActive:     true,
	}
}

func makeSub(end time.Time) *domain.Subscription {
	start := end.AddDate(0, 0, -30)
	return &domain.Subscription{
		ID:        uuid.New(),
		Status:    domain.SubscriptionCompleted,
		StartDate: &start,
		EndDate:   &end,
	}
}

func TestCanView_FreeLesson(t *testing.T) {
	now := time.Now()
	lesson := makeLesson(domain.LessonFree)

	assert.True(t, CanView(makeUser(boolPtr(true), domain.StatusTrial), lesson, nil, now))
	assert.False(t, CanView(makeUser(boolPtr(false), domain.StatusNew), lesson, nil, now))
	// Unanswered onboarding question means no free access
	assert.False(t, CanView(makeUser(nil, domain.StatusNew), lesson, nil, now))
}

func TestCanView_PremiumLesson_Boundary(t *testing.T) {
	now := time.Now()
	user := makeUser(boolPtr(false), domain.StatusActive)
	lesson := makeLesson(domain.LessonPremium)

	// Ends one second from now: still in
	assert.True(t, CanView(user, lesson, makeSub(now.Add(time.Second)), now))
	// Ends exactly now: still in (end_date >= now)
	assert.True(t, CanView(user, lesson, makeSub(now), now))
	// Ended one second ago: out
	assert.False(t, CanView(user, lesson, makeSub(now.Add(-time.Second)), now))
}

func TestCanView_PremiumLesson_SubscriptionStates(t *testing.T) {
	now := time.Now()
	user := makeUser(boolPtr(true), domain.StatusActive)
	lesson := makeLesson(domain.LessonPremium)

	// No subscription at all
	assert.False(t, CanView(user, lesson, nil, now))

	// Pending subscription grants nothing
	pending := makeSub(now.Add(24 * time.Hour))
	pending.Status = domain.SubscriptionPending
	assert.False(t, CanView(user, lesson, pending, now))

	// Soft-deleted subscription grants nothing
	deleted := makeSub(now.Add(24 * time.Hour))
	deletedAt := now
	deleted.DeletedAt = &deletedAt
	assert.False(t, CanView(user, lesson, deleted, now))

	// Being a newbie does not substitute for a subscription
	assert.False(t, CanView(makeUser(boolPtr(true), domain.StatusTrial), lesson, nil, now))
}

// fixedSubs hands back the same subscription regardless of the query
// instant, so tests can see which clock the checker actually used.
type fixedSubs struct {
	sub *domain.Subscription
}

func (f *fixedSubs) Create(ctx context.Context, sub *domain.Subscription) error { return nil }
func (f *fixedSubs) GetByID(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	return f.sub, nil
}
func (f *fixedSubs) ActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.Subscription, error) {
	if f.sub == nil || !f.sub.IsActiveAt(now) {
		return nil, nil
	}
	return f.sub, nil
}
func (f *fixedSubs) ListActive(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	return nil, nil
}
func (f *fixedSubs) ListOverdue(ctx context.Context, now time.Time) ([]*domain.Subscription, error) {
	return nil, nil
}
func (f *fixedSubs) ConfirmTx(ctx context.Context, id uuid.UUID, paymentID string, start, end time.Time) error {
	return nil
}
func (f *fixedSubs) CreateCompletedTx(ctx context.Context, sub *domain.Subscription) error {
	return nil
}
func (f *fixedSubs) MarkFailed(ctx context.Context, id uuid.UUID) error               { return nil }
func (f *fixedSubs) SetPaymentID(ctx context.Context, id uuid.UUID, pid string) error { return nil }
func (f *fixedSubs) SoftDelete(ctx context.Context, id uuid.UUID) error               { return nil }
func (f *fixedSubs) Stats(ctx context.Context, now time.Time) (*ports.SubscriptionStats, error) {
	return nil, nil
}

func TestChecker_UsesInjectedClock(t *testing.T) {
	ctx := context.Background()
	user := makeUser(boolPtr(false), domain.StatusActive)
	lesson := makeLesson(domain.LessonPremium)

	end := time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC)
	repo := &fixedSubs{sub: makeSub(end)}

	// Before the end date the lesson opens, after it the same checker
	// over the same row denies. Wall clock never enters the decision.
	checker := NewChecker(repo).WithClock(func() time.Time {
		return end.AddDate(0, 0, -5)
	})
	allowed, err := checker.CanAccess(ctx, user, lesson)
	assert.NoError(t, err)
	assert.True(t, allowed)

	checker = NewChecker(repo).WithClock(func() time.Time {
		return end.AddDate(0, 0, 5)
	})
	allowed, err = checker.CanAccess(ctx, user, lesson)
	assert.NoError(t, err)
	assert.False(t, allowed)
}

func TestCanView_IntroAndFinalNeverDelivered(t *testing.T) {
	now := time.Now()
	user := makeUser(boolPtr(true), domain.StatusActive)
	sub := makeSub(now.Add(24 * time.Hour))

	assert.False(t, CanView(user, makeLesson(domain.LessonIntro), sub, now))
	assert.False(t, CanView(user, makeLesson(domain.LessonFinal), sub, now))
}
