package admin

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ports"
)

type paymentRequestResponse struct {
	ID            string  `json:"id"`
	UserID        string  `json:"user_id"`
	MethodName    string  `json:"method_name"`
	PaymentURL    string  `json:"payment_url"`
	Price         int     `json:"price"`
	Currency      string  `json:"currency"`
	Status        string  `json:"status"`
	AdminNotified bool    `json:"admin_notified"`
	ConfirmedBy   *string `json:"confirmed_by"`
	ConfirmedAt   *string `json:"confirmed_at"`
	CreatedAt     string  `json:"created_at"`
}

func toPaymentRequestResponse(req *domain.PaymentRequest) paymentRequestResponse {
	resp := paymentRequestResponse{
		ID:            req.ID.String(),
		UserID:        req.UserID.String(),
		MethodName:    req.MethodName,
		PaymentURL:    req.PaymentURL,
		Price:         req.Price,
		Currency:      req.Currency,
		Status:        string(req.Status),
		AdminNotified: req.AdminNotified,
		ConfirmedBy:   req.ConfirmedBy,
		CreatedAt:     req.CreatedAt.Format(time.RFC3339),
	}
	if req.ConfirmedAt != nil {
		at := req.ConfirmedAt.Format(time.RFC3339)
		resp.ConfirmedAt = &at
	}
	return resp
}

func (s *Server) handleListPaymentRequests(c *fiber.Ctx) error {
	reqs, err := s.deps.Broker.List(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list payment requests")
	}
	return c.JSON(toPaymentRequestResponses(reqs))
}

func (s *Server) handleListPendingRequests(c *fiber.Ctx) error {
	reqs, err := s.deps.Broker.ListPending(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list payment requests")
	}
	return c.JSON(toPaymentRequestResponses(reqs))
}

func toPaymentRequestResponses(reqs []*domain.PaymentRequest) []paymentRequestResponse {
	out := make([]paymentRequestResponse, 0, len(reqs))
	for _, req := range reqs {
		out = append(out, toPaymentRequestResponse(req))
	}
	return out
}

// handleConfirmRequest is the panel version of the in-chat confirm
// button: close the request, grant the subscription, notify the user.
func (s *Server) handleConfirmRequest(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request id")
	}

	var payload struct {
		Admin string `json:"admin"`
	}
	_ = c.BodyParser(&payload)
	if payload.Admin == "" {
		payload.Admin = "admin"
	}

	ctx := c.UserContext()
	req, err := s.deps.Broker.Confirm(ctx, id, payload.Admin)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "request already processed",
			"request": toPaymentRequestResponse(req),
		})
	}
	if errors.Is(err, domain.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "request not found")
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to confirm payment request")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to confirm request")
	}

	user, err := s.deps.Users.GetByID(ctx, req.UserID)
	if err != nil || user == nil {
		s.log.Error().Err(err).Str("request_id", id.String()).Msg("Confirmed request has no user")
		return fiber.NewError(fiber.StatusInternalServerError, "request user not found")
	}

	settings, err := s.deps.Settings.Get(ctx)
	days := s.deps.Cfg.Payment.DurationDays
	if err == nil && settings != nil {
		days = settings.ResolveDuration(days)
	}

	sub, err := s.deps.Ledger.CreateManual(ctx, user.ID, days)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to grant subscription for confirmed request")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to grant subscription")
	}

	if err := s.deps.Bus.Publish(ctx, ports.TopicManualGrant, ports.ManualGrant{
		SubscriptionID: sub.ID,
		UserID:         user.ID,
		ChatID:         user.TelegramID,
		DurationDays:   days,
	}); err != nil {
		s.log.Error().Err(err).Msg("Failed to publish manual grant")
	}

	return c.JSON(fiber.Map{
		"request":      toPaymentRequestResponse(req),
		"subscription": toSubscriptionResponse(sub),
	})
}

func (s *Server) handleRejectRequest(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request id")
	}

	var payload struct {
		Admin string `json:"admin"`
	}
	_ = c.BodyParser(&payload)
	if payload.Admin == "" {
		payload.Admin = "admin"
	}

	req, err := s.deps.Broker.Reject(c.UserContext(), id, payload.Admin)
	if errors.Is(err, domain.ErrAlreadyProcessed) {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error":   "request already processed",
			"request": toPaymentRequestResponse(req),
		})
	}
	if errors.Is(err, domain.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "request not found")
	}
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to reject payment request")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to reject request")
	}
	return c.JSON(toPaymentRequestResponse(req))
}

// handleNotifyRequest resends the admin chat alert for a pending request.
func (s *Server) handleNotifyRequest(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request id")
	}

	ctx := c.UserContext()
	req, err := s.deps.Broker.GetByID(ctx, id)
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to load request")
	}
	if req == nil {
		return fiber.NewError(fiber.StatusNotFound, "request not found")
	}
	if req.Status != domain.PaymentRequestPending {
		return fiber.NewError(fiber.StatusConflict, "request is not pending")
	}

	user, err := s.deps.Users.GetByID(ctx, req.UserID)
	if err != nil || user == nil {
		return fiber.NewError(fiber.StatusInternalServerError, "request user not found")
	}

	adminID := s.deps.Cfg.Bot.AdminID
	if settings, err := s.deps.Settings.Get(ctx); err == nil && settings != nil && settings.AdminTelegramID != nil {
		adminID = *settings.AdminTelegramID
	}
	if adminID == 0 {
		return fiber.NewError(fiber.StatusConflict, "no admin chat configured")
	}

	if err := s.deps.Notifier.AdminPaymentRequest(ctx, adminID, req, user); err != nil {
		s.log.Error().Err(err).Msg("Failed to resend admin payment alert")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to notify admin")
	}
	if err := s.deps.Broker.MarkNotified(ctx, req.ID); err != nil {
		s.log.Warn().Err(err).Msg("Failed to mark request as notified")
	}
	return c.JSON(toPaymentRequestResponse(req))
}

func (s *Server) handleDeleteRequest(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request id")
	}

	if err := s.deps.Broker.SoftDelete(c.UserContext(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "request not found")
		}
		s.log.Error().Err(err).Msg("Failed to delete payment request")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to delete request")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
