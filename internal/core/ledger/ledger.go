package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

// ErrInvalidDuration is returned when a manual grant asks for a
// non-positive number of days.
var ErrInvalidDuration = errors.New("duration must be a positive number of days")

// LinkProvider creates an outbound payment link for a pending
// subscription. Implementations never fail: on provider errors they
// return a deterministic fallback URL and an empty payment ID.
type LinkProvider interface {
	CreateLink(ctx context.Context, sub *domain.Subscription, user *domain.User) (url string, paymentID string)
}

// Defaults are the config-level pricing values, overridable per call
// by the settings row.
type Defaults struct {
	Price        int
	Currency     string
	DurationDays int
}

// Service owns the subscription lifecycle: pending -> completed/failed,
// manual grants, expiry sweeps and soft deletes.
type Service struct {
	subs      ports.SubscriptionRepository
	users     ports.UserRepository
	settings  ports.SettingsRepository
	providers map[string]LinkProvider
	defaults  Defaults
	now       func() time.Time
	log       zerolog.Logger
}

// NewService creates the subscription ledger.
func NewService(
	subs ports.SubscriptionRepository,
	users ports.UserRepository,
	settings ports.SettingsRepository,
	providers map[string]LinkProvider,
	defaults Defaults,
	baseLogger *zerolog.Logger,
) *Service {
	return &Service{
		subs:      subs,
		users:     users,
		settings:  settings,
		providers: providers,
		defaults:  defaults,
		now:       time.Now,
		log:       baseLogger.With().Str("component", "ledger").Logger(),
	}
}

// CreatePending opens a pending subscription with the current price
// snapshot and asks the provider for a payment link. Link creation is
// best-effort: the subscription exists either way.
func (s *Service) CreatePending(ctx context.Context, userID uuid.UUID, provider string) (*domain.Subscription, string, error) {
	if !domain.KnownProvider(provider) {
		return nil, "", fmt.Errorf("unknown payment provider: %s", provider)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, "", err
	}
	if user == nil {
		return nil, "", domain.ErrNotFound
	}

	price, currency, _ := s.resolvePricing(ctx)
	sub := &domain.Subscription{
		ID:       uuid.New(),
		UserID:   userID,
		Status:   domain.SubscriptionPending,
		Price:    price,
		Currency: currency,
		Provider: provider,
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, "", err
	}
	s.log.Info().
		Str("subscription_id", sub.ID.String()).
		Str("provider", provider).
		Int("price", price).
		Msg("Pending subscription created")

	var link string
	if p, ok := s.providers[provider]; ok {
		url, paymentID := p.CreateLink(ctx, sub, user)
		link = url
		if paymentID != "" {
			if err := s.subs.SetPaymentID(ctx, sub.ID, paymentID); err != nil {
				s.log.Error().Err(err).Str("subscription_id", sub.ID.String()).Msg("Failed to store payment id")
			} else {
				sub.PaymentID = &paymentID
			}
		}
	}
	return sub, link, nil
}

// Confirm completes a pending subscription and activates its owner in
// one transaction. Confirming an already-completed subscription is a
// no-op that returns the current row, so replayed webhooks cannot
// extend access.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, paymentID string) (*domain.Subscription, error) {
	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	if sub.Status == domain.SubscriptionCompleted {
		s.log.Info().Str("subscription_id", id.String()).Msg("Confirm on completed subscription, ignoring")
		return sub, nil
	}

	_, _, duration := s.resolvePricing(ctx)
	start := s.now()
	end := start.AddDate(0, 0, duration)

	if err := s.subs.ConfirmTx(ctx, id, paymentID, start, end); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("subscription_id", id.String()).
		Time("end_date", end).
		Msg("Subscription confirmed")

	return s.subs.GetByID(ctx, id)
}

// CheckStatus resolves a subscription after a failure or cancel signal:
// a still-pending subscription is marked failed, anything else is
// returned untouched.
func (s *Service) CheckStatus(ctx context.Context, id uuid.UUID) (*domain.Subscription, error) {
	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}
	if sub.Status != domain.SubscriptionPending {
		return sub, nil
	}

	if err := s.subs.MarkFailed(ctx, id); err != nil {
		return nil, err
	}
	s.log.Info().Str("subscription_id", id.String()).Msg("Pending subscription marked failed")
	return s.subs.GetByID(ctx, id)
}

// CreateManual grants access without a payment, for the admin panel
// and chat-confirmed payment requests.
func (s *Service) CreateManual(ctx context.Context, userID uuid.UUID, durationDays int) (*domain.Subscription, error) {
	if durationDays <= 0 {
		return nil, ErrInvalidDuration
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	_, currency, _ := s.resolvePricing(ctx)
	start := s.now()
	end := start.AddDate(0, 0, durationDays)
	paymentID := fmt.Sprintf("MANUAL-%d", start.UnixMilli())

	sub := &domain.Subscription{
		ID:        uuid.New(),
		UserID:    userID,
		Status:    domain.SubscriptionCompleted,
		Price:     0,
		Currency:  currency,
		Provider:  domain.ProviderManual,
		PaymentID: &paymentID,
		StartDate: &start,
		EndDate:   &end,
	}
	if err := s.subs.CreateCompletedTx(ctx, sub); err != nil {
		return nil, err
	}
	s.log.Info().
		Str("subscription_id", sub.ID.String()).
		Str("user_id", userID.String()).
		Int("days", durationDays).
		Msg("Manual subscription granted")
	return sub, nil
}

// ListActive returns all live subscriptions.
func (s *Service) ListActive(ctx context.Context) ([]*domain.Subscription, error) {
	return s.subs.ListActive(ctx, s.now())
}

// ActiveForUser returns the user's live subscription, if any.
func (s *Service) ActiveForUser(ctx context.Context, userID uuid.UUID) (*domain.Subscription, error) {
	return s.subs.ActiveForUser(ctx, userID, s.now())
}

// ExpireOverdue flips owners of ended subscriptions to EXPIRED and
// returns the affected subscriptions. A second sweep right after finds
// nothing, the repository filters already-expired owners out.
func (s *Service) ExpireOverdue(ctx context.Context) ([]*domain.Subscription, error) {
	overdue, err := s.subs.ListOverdue(ctx, s.now())
	if err != nil {
		return nil, err
	}

	for _, sub := range overdue {
		if err := s.users.SetStatus(ctx, sub.UserID, domain.StatusExpired); err != nil {
			s.log.Error().Err(err).Str("user_id", sub.UserID.String()).Msg("Failed to expire user")
		}
	}
	if len(overdue) > 0 {
		s.log.Info().Int("count", len(overdue)).Msg("Expired overdue subscriptions")
	}
	return overdue, nil
}

// SoftDelete hides a subscription from access checks without deleting history.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return s.subs.SoftDelete(ctx, id)
}

// Stats aggregates completed subscriptions for the admin dashboard.
func (s *Service) Stats(ctx context.Context) (*ports.SubscriptionStats, error) {
	return s.subs.Stats(ctx, s.now())
}

// WithClock overrides the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// resolvePricing applies the settings-row overrides on top of the
// config defaults. Settings read failures fall back to the defaults.
func (s *Service) resolvePricing(ctx context.Context) (price int, currency string, durationDays int) {
	settings, err := s.settings.Get(ctx)
	if err != nil {
		s.log.Warn().Err(err).Msg("Failed to load settings, using config defaults")
		return s.defaults.Price, s.defaults.Currency, s.defaults.DurationDays
	}
	return settings.ResolvePrice(s.defaults.Price),
		settings.ResolveCurrency(s.defaults.Currency),
		settings.ResolveDuration(s.defaults.DurationDays)
}
