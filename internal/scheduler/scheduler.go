package scheduler

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"coursebot/internal/core/access"
	"coursebot/internal/core/domain"
	"coursebot/internal/core/ledger"
	"coursebot/internal/core/ports"
)

const (
	lessonTickInterval = 15 * time.Minute
	// Delivery only happens on the on-the-hour tick. Later ticks in
	// the same hour are skipped, so a lesson cannot go out twice.
	deliveryWindowMinutes = 15

	expiryHour         = 3
	reminderWeekday    = time.Monday
	reminderHour       = 10
	inactivityDuration = 7 * 24 * time.Hour
)

// Scheduler drives the timed flows: hourly lesson delivery, the daily
// expiry sweep and the weekly re-engagement nudge.
type Scheduler struct {
	users    ports.UserRepository
	lessons  ports.LessonRepository
	ledger   *ledger.Service
	notifier ports.Notifier
	sessions ports.SessionStore
	now      func() time.Time
	log      zerolog.Logger
}

// New creates the scheduler.
func New(
	users ports.UserRepository,
	lessons ports.LessonRepository,
	ledgerSvc *ledger.Service,
	notifier ports.Notifier,
	sessions ports.SessionStore,
	baseLogger *zerolog.Logger,
) *Scheduler {
	return &Scheduler{
		users:    users,
		lessons:  lessons,
		ledger:   ledgerSvc,
		notifier: notifier,
		sessions: sessions,
		now:      time.Now,
		log:      baseLogger.With().Str("component", "scheduler").Logger(),
	}
}

// Run blocks until the context is cancelled.
func (s *Scheduler) Run(ctx context.Context) {
	lessonTicker := time.NewTicker(lessonTickInterval)
	hourlyTicker := time.NewTicker(time.Hour)
	defer lessonTicker.Stop()
	defer hourlyTicker.Stop()

	s.log.Info().Msg("Scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.log.Info().Msg("Scheduler stopped")
			return
		case <-lessonTicker.C:
			s.DistributeLessons(ctx, s.now())
		case <-hourlyTicker.C:
			now := s.now()
			if now.Hour() == expiryHour {
				s.ExpireSubscriptions(ctx)
			}
			if now.Weekday() == reminderWeekday && now.Hour() == reminderHour {
				s.RemindInactive(ctx, now)
			}
		}
	}
}

// DistributeLessons sends the next lesson to every user whose slot
// matches the current hour.
func (s *Scheduler) DistributeLessons(ctx context.Context, now time.Time) {
	if now.Minute() >= deliveryWindowMinutes {
		return
	}

	slot := now.Format("15") + ":00"
	users, err := s.users.ListBySlot(ctx, slot)
	if err != nil {
		s.log.Error().Err(err).Str("slot", slot).Msg("Failed to list users for slot")
		return
	}
	if len(users) == 0 {
		return
	}
	s.log.Info().Str("slot", slot).Int("users", len(users)).Msg("Distributing lessons")

	for _, user := range users {
		if err := s.deliverNext(ctx, user, now); err != nil {
			s.log.Error().Err(err).
				Str("user_id", user.ID.String()).
				Msg("Failed to deliver lesson")
		}
	}
}

// deliverNext sends the lesson after the user's pointer and advances
// it. Users without a live subscription are skipped outright, the drip
// only runs for paying users. A missing or inaccessible next lesson
// leaves the pointer alone, the user simply gets nothing this hour.
func (s *Scheduler) deliverNext(ctx context.Context, user *domain.User, now time.Time) error {
	sub, err := s.ledger.ActiveForUser(ctx, user.ID)
	if err != nil {
		return err
	}
	if sub == nil {
		return nil
	}

	next := user.CurrentLessonDay + 1

	lesson, err := s.lessons.GetByNumber(ctx, next)
	if err != nil {
		return err
	}
	if lesson == nil || !lesson.IsActive {
		return nil
	}

	// Access is re-checked at the tick instant with the subscription
	// already in hand.
	if !access.CanView(user, lesson, sub, now) {
		return nil
	}

	if err := s.notifier.SendLesson(ctx, user.TelegramID, lesson); err != nil {
		return err
	}
	s.log.Info().
		Str("user_id", user.ID.String()).
		Int("lesson", next).
		Msg("Lesson delivered")

	if lesson.PracticeText != nil && *lesson.PracticeText != "" {
		if err := s.sessions.SetStep(ctx, user.TelegramID, ports.StepAwaitingDrawing); err != nil {
			s.log.Warn().Err(err).
				Str("user_id", user.ID.String()).
				Msg("Failed to set session step")
		}
	}

	return s.users.SetLessonDay(ctx, user.ID, next)
}

// ExpireSubscriptions runs the daily expiry sweep.
func (s *Scheduler) ExpireSubscriptions(ctx context.Context) {
	expired, err := s.ledger.ExpireOverdue(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Expiry sweep failed")
		return
	}
	if len(expired) > 0 {
		s.log.Info().Int("count", len(expired)).Msg("Expiry sweep finished")
	}
}

// RemindInactive nudges users who have not touched the bot for a week.
func (s *Scheduler) RemindInactive(ctx context.Context, now time.Time) {
	cutoff := now.Add(-inactivityDuration)
	users, err := s.users.ListInactiveSince(ctx, cutoff)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list inactive users")
		return
	}

	for _, user := range users {
		if err := s.notifier.Reengage(ctx, user.TelegramID); err != nil {
			s.log.Error().Err(err).
				Str("user_id", user.ID.String()).
				Msg("Failed to send re-engagement message")
		}
	}
	if len(users) > 0 {
		s.log.Info().Int("count", len(users)).Msg("Re-engagement reminders sent")
	}
}

// WithClock overrides the time source, for tests.
func (s *Scheduler) WithClock(now func() time.Time) *Scheduler {
	s.now = now
	return s
}
