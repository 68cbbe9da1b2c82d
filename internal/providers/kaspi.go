package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"coursebot/internal/core/domain"
	"coursebot/internal/shared/config"
)

const kaspiAPIURL = "https://api.kaspi.kz/pay/v1/payments"

// kaspi creates Kaspi Pay payment links. When the API is unreachable or
// unconfigured it falls back to a prefilled kaspi.kz/pay URL.
type kaspi struct {
	merchantID string
	secret     string
	apiURL     string
	client     *http.Client
	log        zerolog.Logger
}

func newKaspi(cfg config.ProviderConfig, client *http.Client, baseLogger *zerolog.Logger) *kaspi {
	return &kaspi{
		merchantID: cfg.KaspiMerchantID,
		secret:     cfg.KaspiMerchantSecret,
		apiURL:     kaspiAPIURL,
		client:     client,
		log:        baseLogger.With().Str("component", "kaspi_provider").Logger(),
	}
}

type kaspiCreateRequest struct {
	MerchantID  string `json:"merchant_id"`
	Amount      int    `json:"amount"`
	Currency    string `json:"currency"`
	OrderID     string `json:"order_id"`
	Description string `json:"description"`
}

type kaspiCreateResponse struct {
	PaymentID  string `json:"payment_id"`
	PaymentURL string `json:"payment_url"`
}

func (k *kaspi) CreateLink(ctx context.Context, sub *domain.Subscription, user *domain.User) (string, string) {
	if k.merchantID != "" && k.secret != "" {
		var resp kaspiCreateResponse
		err := postJSON(ctx, k.client, k.apiURL, map[string]string{
			"Authorization": "Bearer " + k.secret,
		}, kaspiCreateRequest{
			MerchantID:  k.merchantID,
			Amount:      sub.Price,
			Currency:    sub.Currency,
			OrderID:     sub.ID.String(),
			Description: fmt.Sprintf("Подписка на курс рисования для %s", user.DisplayName()),
		}, &resp)
		if err == nil && resp.PaymentURL != "" {
			return resp.PaymentURL, resp.PaymentID
		}
		k.log.Warn().Err(err).Str("subscription_id", sub.ID.String()).Msg("Kaspi API failed, using fallback link")
	}

	q := url.Values{}
	q.Set("merchant", k.merchantID)
	q.Set("amount", fmt.Sprintf("%d", sub.Price))
	q.Set("order", sub.ID.String())
	return "https://kaspi.kz/pay?" + q.Encode(), fallbackPaymentID("KASPI")
}
