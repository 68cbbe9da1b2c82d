package admin

import (
	"github.com/gofiber/fiber/v2"

	"coursebot/internal/core/domain"
)

type welcomeSettingsPayload struct {
	PolicyText               *string `json:"policy_text"`
	PolicyButton             *string `json:"policy_button"`
	WelcomePhoto             *string `json:"welcome_photo"`
	WelcomeText              *string `json:"welcome_text"`
	WelcomeButtonNewbie      *string `json:"welcome_button_newbie"`
	WelcomeButtonExperienced *string `json:"welcome_button_experienced"`
	NewbieCtaText            *string `json:"newbie_cta_text"`
	NewbieCtaButton          *string `json:"newbie_cta_button"`
}

type paymentSettingsPayload struct {
	PaymentText     *string `json:"payment_text"`
	PaymentPrice    *int    `json:"payment_price"`
	PaymentCurrency *string `json:"payment_currency"`
	PaymentDuration *int    `json:"payment_duration"`
	AdminTelegramID *int64  `json:"admin_telegram_id"`
}

func (s *Server) loadSettings(c *fiber.Ctx) (*domain.BotSettings, error) {
	settings, err := s.deps.Settings.Get(c.UserContext())
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load settings")
		return nil, fiber.NewError(fiber.StatusInternalServerError, "failed to load settings")
	}
	if settings == nil {
		settings = domain.DefaultSettings()
	}
	return settings, nil
}

func (s *Server) handleGetWelcomeSettings(c *fiber.Ctx) error {
	settings, err := s.loadSettings(c)
	if err != nil {
		return err
	}
	return c.JSON(welcomeSettingsPayload{
		PolicyText:               settings.PolicyText,
		PolicyButton:             &settings.PolicyButton,
		WelcomePhoto:             settings.WelcomePhoto,
		WelcomeText:              settings.WelcomeText,
		WelcomeButtonNewbie:      &settings.WelcomeButtonNewbie,
		WelcomeButtonExperienced: &settings.WelcomeButtonExperienced,
		NewbieCtaText:            &settings.NewbieCtaText,
		NewbieCtaButton:          &settings.NewbieCtaButton,
	})
}

// handlePutWelcomeSettings applies only the fields present in the body,
// so the panel can update one screen without resending everything.
func (s *Server) handlePutWelcomeSettings(c *fiber.Ctx) error {
	var payload welcomeSettingsPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}

	settings, err := s.loadSettings(c)
	if err != nil {
		return err
	}

	if payload.PolicyText != nil {
		settings.PolicyText = payload.PolicyText
	}
	if payload.PolicyButton != nil {
		settings.PolicyButton = *payload.PolicyButton
	}
	if payload.WelcomePhoto != nil {
		settings.WelcomePhoto = payload.WelcomePhoto
	}
	if payload.WelcomeText != nil {
		settings.WelcomeText = payload.WelcomeText
	}
	if payload.WelcomeButtonNewbie != nil {
		settings.WelcomeButtonNewbie = *payload.WelcomeButtonNewbie
	}
	if payload.WelcomeButtonExperienced != nil {
		settings.WelcomeButtonExperienced = *payload.WelcomeButtonExperienced
	}
	if payload.NewbieCtaText != nil {
		settings.NewbieCtaText = *payload.NewbieCtaText
	}
	if payload.NewbieCtaButton != nil {
		settings.NewbieCtaButton = *payload.NewbieCtaButton
	}

	if err := s.deps.Settings.Save(c.UserContext(), settings); err != nil {
		s.log.Error().Err(err).Msg("Failed to save welcome settings")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save settings")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) handleGetPaymentSettings(c *fiber.Ctx) error {
	settings, err := s.loadSettings(c)
	if err != nil {
		return err
	}
	return c.JSON(paymentSettingsPayload{
		PaymentText:     settings.PaymentText,
		PaymentPrice:    settings.PaymentPrice,
		PaymentCurrency: settings.PaymentCurrency,
		PaymentDuration: settings.PaymentDuration,
		AdminTelegramID: settings.AdminTelegramID,
	})
}

func (s *Server) handlePutPaymentSettings(c *fiber.Ctx) error {
	var payload paymentSettingsPayload
	if err := c.BodyParser(&payload); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid body")
	}
	if payload.PaymentPrice != nil && *payload.PaymentPrice < 0 {
		return fiber.NewError(fiber.StatusBadRequest, "payment_price must not be negative")
	}
	if payload.PaymentDuration != nil && *payload.PaymentDuration < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "payment_duration must be positive")
	}

	settings, err := s.loadSettings(c)
	if err != nil {
		return err
	}

	if payload.PaymentText != nil {
		settings.PaymentText = payload.PaymentText
	}
	if payload.PaymentPrice != nil {
		settings.PaymentPrice = payload.PaymentPrice
	}
	if payload.PaymentCurrency != nil {
		settings.PaymentCurrency = payload.PaymentCurrency
	}
	if payload.PaymentDuration != nil {
		settings.PaymentDuration = payload.PaymentDuration
	}
	if payload.AdminTelegramID != nil {
		settings.AdminTelegramID = payload.AdminTelegramID
	}

	if err := s.deps.Settings.Save(c.UserContext(), settings); err != nil {
		s.log.Error().Err(err).Msg("Failed to save payment settings")
		return fiber.NewError(fiber.StatusInternalServerError, "failed to save settings")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
