package broker

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

// Defaults are the config-level pricing values used when neither the
// payment method nor the settings row carries an override.
type Defaults struct {
	Price    int
	Currency string
}

// Service brokers manual payment requests: a user picks a payment
// method, a pending request is opened, and an admin later confirms or
// rejects it from chat or the panel. One pending request per user.
type Service struct {
	reqs     ports.PaymentRequestRepository
	methods  ports.PaymentMethodRepository
	settings ports.SettingsRepository
	locker   ports.Locker
	defaults Defaults
	log      zerolog.Logger
}

// NewService creates the payment request broker.
func NewService(
	reqs ports.PaymentRequestRepository,
	methods ports.PaymentMethodRepository,
	settings ports.SettingsRepository,
	locker ports.Locker,
	defaults Defaults,
	baseLogger *zerolog.Logger,
) *Service {
	return &Service{
		reqs:     reqs,
		methods:  methods,
		settings: settings,
		locker:   locker,
		defaults: defaults,
		log:      baseLogger.With().Str("component", "payment_broker").Logger(),
	}
}

// EnsurePending returns the user's pending request, creating one from
// the chosen method if none exists. The bool reports whether a new
// request was created. Repeated taps on the payment button collapse
// into the single existing request.
func (s *Service) EnsurePending(ctx context.Context, user *domain.User, methodID uuid.UUID) (*domain.PaymentRequest, bool, error) {
	if user == nil {
		return nil, false, domain.ErrNotFound
	}

	lockKey := "payment_request:" + user.ID.String()
	acquired, err := s.locker.Acquire(ctx, lockKey, 10*time.Second)
	if err != nil {
		s.log.Warn().Err(err).Msg("Lock acquire failed, continuing without it")
	}
	if acquired {
		defer func() {
			if err := s.locker.Release(context.Background(), lockKey); err != nil {
				s.log.Warn().Err(err).Msg("Lock release failed")
			}
		}()
	}

	existing, err := s.reqs.PendingForUser(ctx, user.ID)
	if err != nil {
		return nil, false, err
	}
	if existing != nil {
		return existing, false, nil
	}

	method, err := s.methods.GetByID(ctx, methodID)
	if err != nil {
		return nil, false, err
	}
	if method == nil {
		return nil, false, domain.ErrNotFound
	}

	price, currency := s.resolvePricing(ctx, method)
	req := &domain.PaymentRequest{
		ID:              uuid.New(),
		UserID:          user.ID,
		PaymentMethodID: method.ID,
		MethodName:      method.Name,
		PaymentURL:      strings.ReplaceAll(method.PaymentURL, "{price}", strconv.Itoa(price)),
		Price:           price,
		Currency:        currency,
		Status:          domain.PaymentRequestPending,
	}
	if err := s.reqs.Create(ctx, req); err != nil {
		// A concurrent tap may have won the race, the partial unique
		// index allows only one pending row per user.
		if raced, lookupErr := s.reqs.PendingForUser(ctx, user.ID); lookupErr == nil && raced != nil {
			return raced, false, nil
		}
		return nil, false, err
	}

	s.log.Info().
		Str("request_id", req.ID.String()).
		Str("user_id", user.ID.String()).
		Str("method", method.Name).
		Int("price", price).
		Msg("Payment request opened")
	return req, true, nil
}

// MarkNotified records that the admin alert for the request went out,
// so repeated taps do not ping the admin again.
func (s *Service) MarkNotified(ctx context.Context, id uuid.UUID) error {
	return s.reqs.MarkNotified(ctx, id)
}

// Confirm moves a pending request to confirmed on behalf of the actor.
// Requests already out of pending come back as domain.ErrAlreadyProcessed
// together with their current row.
func (s *Service) Confirm(ctx context.Context, id uuid.UUID, actor string) (*domain.PaymentRequest, error) {
	req, err := s.reqs.Transition(ctx, id, domain.PaymentRequestConfirmed, &actor)
	if err != nil {
		return req, err
	}
	s.log.Info().
		Str("request_id", id.String()).
		Str("actor", actor).
		Msg("Payment request confirmed")
	return req, nil
}

// Reject moves a pending request to rejected on behalf of the actor.
func (s *Service) Reject(ctx context.Context, id uuid.UUID, actor string) (*domain.PaymentRequest, error) {
	req, err := s.reqs.Transition(ctx, id, domain.PaymentRequestRejected, &actor)
	if err != nil {
		return req, err
	}
	s.log.Info().
		Str("request_id", id.String()).
		Str("actor", actor).
		Msg("Payment request rejected")
	return req, nil
}

// Cancel closes a pending request on the user's own initiative.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*domain.PaymentRequest, error) {
	req, err := s.reqs.Transition(ctx, id, domain.PaymentRequestCancelled, nil)
	if err != nil {
		return req, err
	}
	s.log.Info().Str("request_id", id.String()).Msg("Payment request cancelled")
	return req, nil
}

// PendingForUser returns the user's open request, if any.
func (s *Service) PendingForUser(ctx context.Context, userID uuid.UUID) (*domain.PaymentRequest, error) {
	return s.reqs.PendingForUser(ctx, userID)
}

// ListPending returns all open requests, oldest first.
func (s *Service) ListPending(ctx context.Context) ([]*domain.PaymentRequest, error) {
	return s.reqs.ListPending(ctx)
}

// List returns the full request history for the admin panel.
func (s *Service) List(ctx context.Context) ([]*domain.PaymentRequest, error) {
	return s.reqs.List(ctx)
}

// GetByID returns a single request, nil when it does not exist.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*domain.PaymentRequest, error) {
	return s.reqs.GetByID(ctx, id)
}

// SoftDelete hides a request from the panel without deleting history.
func (s *Service) SoftDelete(ctx context.Context, id uuid.UUID) error {
	return s.reqs.SoftDelete(ctx, id)
}

// CountConfirmed is the confirmed-requests total for the dashboard.
func (s *Service) CountConfirmed(ctx context.Context) (int, error) {
	return s.reqs.CountConfirmed(ctx)
}

// resolvePricing snapshots the price for a new request: the method's
// own override wins, then the settings row, then the config defaults.
func (s *Service) resolvePricing(ctx context.Context, method *domain.PaymentMethod) (int, string) {
	price := s.defaults.Price
	currency := s.defaults.Currency

	if settings, err := s.settings.Get(ctx); err == nil {
		price = settings.ResolvePrice(price)
		currency = settings.ResolveCurrency(currency)
	} else {
		s.log.Warn().Err(err).Msg("Failed to load settings, using config defaults")
	}

	if method.Price != nil {
		price = *method.Price
	}
	if method.Currency != nil {
		currency = *method.Currency
	}
	return price, currency
}
