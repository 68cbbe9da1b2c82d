package admin

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

// Providers retry until they see a 2xx, so the webhook handlers answer
// 200 even for payloads we cannot act on and log the reason instead.

type kaspiWebhookPayload struct {
	OrderID   string `json:"order_id"`
	Status    string `json:"status"`
	PaymentID string `json:"payment_id"`
}

func (s *Server) handleKaspiWebhook(c *fiber.Ctx) error {
	var payload kaspiWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		s.log.Warn().Err(err).Msg("Unreadable kaspi webhook")
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	switch payload.Status {
	case "success", "completed":
		return s.settleSuccess(c, "kaspi", payload.OrderID, payload.PaymentID)
	case "failed", "cancelled":
		return s.settleFailure(c, "kaspi", payload.OrderID)
	default:
		s.log.Warn().Str("status", payload.Status).Msg("Unknown kaspi webhook status")
		return c.JSON(fiber.Map{"status": "ignored"})
	}
}

type prodamusWebhookPayload struct {
	OrderID       string `json:"order_id"`
	PaymentStatus string `json:"payment_status"`
	PaymentID     string `json:"payment_id"`
}

func (s *Server) handleProdamusWebhook(c *fiber.Ctx) error {
	var payload prodamusWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		s.log.Warn().Err(err).Msg("Unreadable prodamus webhook")
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	switch payload.PaymentStatus {
	case "success", "paid":
		return s.settleSuccess(c, "prodamus", payload.OrderID, payload.PaymentID)
	case "failed", "cancelled":
		return s.settleFailure(c, "prodamus", payload.OrderID)
	default:
		s.log.Warn().Str("status", payload.PaymentStatus).Msg("Unknown prodamus webhook status")
		return c.JSON(fiber.Map{"status": "ignored"})
	}
}

type yookassaWebhookPayload struct {
	Event  string `json:"event"`
	Object struct {
		ID       string `json:"id"`
		Status   string `json:"status"`
		Metadata struct {
			SubscriptionID string `json:"subscription_id"`
		} `json:"metadata"`
	} `json:"object"`
}

func (s *Server) handleYookassaWebhook(c *fiber.Ctx) error {
	var payload yookassaWebhookPayload
	if err := c.BodyParser(&payload); err != nil {
		s.log.Warn().Err(err).Msg("Unreadable yookassa webhook")
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	switch payload.Event {
	case "payment.succeeded":
		return s.settleSuccess(c, "yukassa", payload.Object.Metadata.SubscriptionID, payload.Object.ID)
	case "payment.canceled":
		return s.settleFailure(c, "yukassa", payload.Object.Metadata.SubscriptionID)
	default:
		s.log.Warn().Str("event", payload.Event).Msg("Unknown yookassa webhook event")
		return c.JSON(fiber.Map{"status": "ignored"})
	}
}

// handleTestSuccess simulates a provider success callback from the
// panel, running the exact settlement path the webhooks run.
func (s *Server) handleTestSuccess(c *fiber.Ctx) error {
	provider := c.Params("provider")
	if !domain.KnownProvider(provider) {
		return fiber.NewError(fiber.StatusBadRequest, "unknown provider")
	}

	var payload struct {
		SubscriptionID string `json:"subscription_id"`
	}
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if _, err := uuid.Parse(payload.SubscriptionID); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid subscription id")
	}
	return s.settleSuccess(c, provider, payload.SubscriptionID, "TEST-"+payload.SubscriptionID)
}

func (s *Server) settleSuccess(c *fiber.Ctx, provider, orderID, paymentID string) error {
	log := s.log.With().Str("provider", provider).Str("order_id", orderID).Logger()

	subID, err := uuid.Parse(orderID)
	if err != nil {
		log.Warn().Msg("Webhook order id is not a subscription id")
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	ctx := c.UserContext()
	sub, err := s.deps.Ledger.Confirm(ctx, subID, paymentID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Msg("Webhook for unknown subscription")
		return c.JSON(fiber.Map{"status": "ignored"})
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to confirm subscription from webhook")
		return c.JSON(fiber.Map{"status": "error"})
	}

	if user, err := s.deps.Users.GetByID(ctx, sub.UserID); err == nil && user != nil {
		if err := s.deps.Bus.Publish(ctx, ports.TopicPaymentSucceeded, ports.PaymentOutcome{
			SubscriptionID: sub.ID,
			UserID:         user.ID,
			ChatID:         user.TelegramID,
		}); err != nil {
			log.Error().Err(err).Msg("Failed to publish payment success")
		}
	}

	log.Info().Msg("Webhook payment settled")
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *Server) settleFailure(c *fiber.Ctx, provider, orderID string) error {
	log := s.log.With().Str("provider", provider).Str("order_id", orderID).Logger()

	subID, err := uuid.Parse(orderID)
	if err != nil {
		log.Warn().Msg("Webhook order id is not a subscription id")
		return c.JSON(fiber.Map{"status": "ignored"})
	}

	ctx := c.UserContext()
	sub, err := s.deps.Ledger.CheckStatus(ctx, subID)
	if errors.Is(err, domain.ErrNotFound) {
		log.Warn().Msg("Webhook for unknown subscription")
		return c.JSON(fiber.Map{"status": "ignored"})
	}
	if err != nil {
		log.Error().Err(err).Msg("Failed to resolve subscription from webhook")
		return c.JSON(fiber.Map{"status": "error"})
	}

	if sub.Status == domain.SubscriptionFailed {
		if user, err := s.deps.Users.GetByID(ctx, sub.UserID); err == nil && user != nil {
			if err := s.deps.Bus.Publish(ctx, ports.TopicPaymentFailed, ports.PaymentOutcome{
				SubscriptionID: sub.ID,
				UserID:         user.ID,
				ChatID:         user.TelegramID,
			}); err != nil {
				log.Error().Err(err).Msg("Failed to publish payment failure")
			}
		}
	}

	log.Info().Str("status", string(sub.Status)).Msg("Webhook failure processed")
	return c.JSON(fiber.Map{"status": "ok"})
}
