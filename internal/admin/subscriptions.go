package admin

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ledger"
	"coursebot/internal/core/ports"
)

type subscriptionResponse struct {
	ID        string  `json:"id"`
	UserID    string  `json:"user_id"`
	Status    string  `json:"status"`
	Price     int     `json:"price"`
	Currency  string  `json:"currency"`
	Provider  string  `json:"provider"`
	PaymentID *string `json:"payment_id"`
	StartDate *string `json:"start_date"`
	EndDate   *string `json:"end_date"`
}

func toSubscriptionResponse(sub *domain.Subscription) subscriptionResponse {
	resp := subscriptionResponse{
		ID:        sub.ID.String(),
		UserID:    sub.UserID.String(),
		Status:    string(sub.Status),
		Price:     sub.Price,
		Currency:  sub.Currency,
		Provider:  sub.Provider,
		PaymentID: sub.PaymentID,
	}
	if sub.StartDate != nil {
		v := sub.StartDate.Format(time.RFC3339)
		resp.StartDate = &v
	}
	if sub.EndDate != nil {
		v := sub.EndDate.Format(time.RFC3339)
		resp.EndDate = &v
	}
	return resp
}

func (s *Server) handleListSubscriptions(c *fiber.Ctx) error {
	subs, err := s.deps.Ledger.ListActive(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list subscriptions")
	}

	out := make([]subscriptionResponse, 0, len(subs))
	for _, sub := range subs {
		out = append(out, toSubscriptionResponse(sub))
	}
	return c.JSON(out)
}

// handleManualSubscription grants paid access from the panel.
func (s *Server) handleManualSubscription(c *fiber.Ctx) error {
	var payload struct {
		UserID       string `json:"user_id"`
		DurationDays int    `json:"duration_days"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	userID, err := uuid.Parse(payload.UserID)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid user id")
	}

	ctx := c.UserContext()
	sub, err := s.deps.Ledger.CreateManual(ctx, userID, payload.DurationDays)
	if err != nil {
		if errors.Is(err, ledger.ErrInvalidDuration) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "user not found")
		}
		s.log.Error().Err(err).Msg("Failed to create manual subscription")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create subscription")
	}

	if user, err := s.deps.Users.GetByID(ctx, userID); err == nil && user != nil {
		if err := s.deps.Bus.Publish(ctx, ports.TopicManualGrant, ports.ManualGrant{
			SubscriptionID: sub.ID,
			UserID:         userID,
			ChatID:         user.TelegramID,
			DurationDays:   payload.DurationDays,
		}); err != nil {
			s.log.Error().Err(err).Msg("Failed to publish manual grant")
		}
	}

	return c.Status(fiber.StatusCreated).JSON(toSubscriptionResponse(sub))
}

func (s *Server) handleDeleteSubscription(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid subscription id")
	}

	if err := s.deps.Ledger.SoftDelete(c.UserContext(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "subscription not found")
		}
		s.log.Error().Err(err).Msg("Failed to delete subscription")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to delete subscription")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
