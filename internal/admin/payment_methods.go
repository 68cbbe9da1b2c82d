package admin

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"coursebot/internal/core/domain"
)

type paymentMethodPayload struct {
	Name       string  `json:"name"`
	PaymentURL string  `json:"payment_url"`
	ButtonText string  `json:"button_text"`
	Price      *int    `json:"price"`
	Currency   *string `json:"currency"`
	IsActive   *bool   `json:"is_active"`
	SortOrder  int     `json:"sort_order"`
}

type paymentMethodResponse struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	PaymentURL string  `json:"payment_url"`
	ButtonText string  `json:"button_text"`
	Price      *int    `json:"price"`
	Currency   *string `json:"currency"`
	IsActive   bool    `json:"is_active"`
	SortOrder  int     `json:"sort_order"`
}

func toPaymentMethodResponse(m *domain.PaymentMethod) paymentMethodResponse {
	return paymentMethodResponse{
		ID:         m.ID.String(),
		Name:       m.Name,
		PaymentURL: m.PaymentURL,
		ButtonText: m.ButtonText,
		Price:      m.Price,
		Currency:   m.Currency,
		IsActive:   m.IsActive,
		SortOrder:  m.SortOrder,
	}
}

func (p *paymentMethodPayload) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if p.Price != nil && *p.Price < 0 {
		return errors.New("price must not be negative")
	}
	return nil
}

func (p *paymentMethodPayload) toDomain(id uuid.UUID) *domain.PaymentMethod {
	method := &domain.PaymentMethod{
		ID:         id,
		Name:       p.Name,
		PaymentURL: p.PaymentURL,
		ButtonText: p.ButtonText,
		Price:      p.Price,
		Currency:   p.Currency,
		IsActive:   true,
		SortOrder:  p.SortOrder,
	}
	if p.IsActive != nil {
		method.IsActive = *p.IsActive
	}
	return method
}

func (s *Server) handleListMethods(c *fiber.Ctx) error {
	methods, err := s.deps.Methods.List(c.UserContext())
	if err != nil {
		return fiber.NewError(fiber.StatusInternalServerError, "failed to list payment methods")
	}

	out := make([]paymentMethodResponse, 0, len(methods))
	for _, m := range methods {
		out = append(out, toPaymentMethodResponse(m))
	}
	return c.JSON(out)
}

func (s *Server) handleCreateMethod(c *fiber.Ctx) error {
	var payload paymentMethodPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := payload.validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	method := payload.toDomain(uuid.New())
	if err := s.deps.Methods.Create(c.UserContext(), method); err != nil {
		s.log.Error().Err(err).Msg("Failed to create payment method")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to create payment method")
	}
	return c.Status(fiber.StatusCreated).JSON(toPaymentMethodResponse(method))
}

func (s *Server) handleUpdateMethod(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid method id")
	}

	var payload paymentMethodPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if err := payload.validate(); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	method := payload.toDomain(id)
	if err := s.deps.Methods.Update(c.UserContext(), method); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "payment method not found")
		}
		s.log.Error().Err(err).Msg("Failed to update payment method")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to update payment method")
	}
	return c.JSON(toPaymentMethodResponse(method))
}

func (s *Server) handleDeleteMethod(c *fiber.Ctx) error {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid method id")
	}

	if err := s.deps.Methods.Delete(c.UserContext(), id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "payment method not found")
		}
		s.log.Error().Err(err).Msg("Failed to delete payment method")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to delete payment method")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
