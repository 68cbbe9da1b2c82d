package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"coursebot/internal/core/domain"
	"coursebot/internal/shared/config"
)

const yookassaAPIURL = "https://api.yookassa.ru/v3/payments"

// yookassa creates YooKassa payments through the v3 API. The
// subscription id doubles as the Idempotence-Key, so retried link
// requests for the same subscription land on the same payment.
type yookassa struct {
	shopID    string
	secretKey string
	returnURL string
	apiURL    string
	client    *http.Client
	log       zerolog.Logger
}

func newYookassa(cfg config.ProviderConfig, returnURL string, client *http.Client, baseLogger *zerolog.Logger) *yookassa {
	return &yookassa{
		shopID:    cfg.YukassaShopID,
		secretKey: cfg.YukassaSecretKey,
		returnURL: returnURL,
		apiURL:    yookassaAPIURL,
		client:    client,
		log:       baseLogger.With().Str("component", "yookassa_provider").Logger(),
	}
}

type yookassaAmount struct {
	Value    string `json:"value"`
	Currency string `json:"currency"`
}

type yookassaCreateRequest struct {
	Amount       yookassaAmount `json:"amount"`
	Capture      bool           `json:"capture"`
	Confirmation struct {
		Type      string `json:"type"`
		ReturnURL string `json:"return_url"`
	} `json:"confirmation"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata"`
}

type yookassaCreateResponse struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	Confirmation struct {
		ConfirmationURL string `json:"confirmation_url"`
	} `json:"confirmation"`
}

func (y *yookassa) CreateLink(ctx context.Context, sub *domain.Subscription, user *domain.User) (string, string) {
	if y.shopID != "" && y.secretKey != "" {
		body := yookassaCreateRequest{
			Amount:      yookassaAmount{Value: fmt.Sprintf("%d.00", sub.Price), Currency: sub.Currency},
			Capture:     true,
			Description: "Подписка на курс рисования",
			Metadata:    map[string]string{"subscription_id": sub.ID.String()},
		}
		body.Confirmation.Type = "redirect"
		body.Confirmation.ReturnURL = y.returnURL

		var resp yookassaCreateResponse
		err := postJSON(ctx, y.client, y.apiURL, map[string]string{
			"Authorization":   basicAuth(y.shopID, y.secretKey),
			"Idempotence-Key": sub.ID.String(),
		}, body, &resp)
		if err == nil && resp.Confirmation.ConfirmationURL != "" {
			return resp.Confirmation.ConfirmationURL, resp.ID
		}
		y.log.Warn().Err(err).Str("subscription_id", sub.ID.String()).Msg("YooKassa API failed, using fallback link")
	}

	return "https://yookassa.ru/", fallbackPaymentID("YUKASSA")
}
