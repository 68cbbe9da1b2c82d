package providers

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/zerolog"

	"coursebot/internal/core/domain"
	"coursebot/internal/shared/config"
)

// prodamus creates Prodamus payment links against the project's own
// pay.prodamus.ru subdomain.
type prodamus struct {
	apiKey    string
	projectID string
	client    *http.Client
	log       zerolog.Logger
}

func newProdamus(cfg config.ProviderConfig, client *http.Client, baseLogger *zerolog.Logger) *prodamus {
	return &prodamus{
		apiKey:    cfg.ProdamusAPIKey,
		projectID: cfg.ProdamusProjectID,
		client:    client,
		log:       baseLogger.With().Str("component", "prodamus_provider").Logger(),
	}
}

type prodamusCreateRequest struct {
	OrderID       string `json:"order_id"`
	Amount        int    `json:"amount"`
	Currency      string `json:"currency"`
	Description   string `json:"description"`
	CustomerExtra string `json:"customer_extra"`
}

type prodamusCreateResponse struct {
	PaymentID  string `json:"payment_id"`
	PaymentURL string `json:"payment_url"`
}

func (p *prodamus) CreateLink(ctx context.Context, sub *domain.Subscription, user *domain.User) (string, string) {
	base := fmt.Sprintf("https://%s.pay.prodamus.ru", p.projectID)

	if p.apiKey != "" && p.projectID != "" {
		var resp prodamusCreateResponse
		err := postJSON(ctx, p.client, base+"/api/orders/create", map[string]string{
			"Authorization": "Bearer " + p.apiKey,
		}, prodamusCreateRequest{
			OrderID:       sub.ID.String(),
			Amount:        sub.Price,
			Currency:      sub.Currency,
			Description:   "Подписка на курс рисования",
			CustomerExtra: user.DisplayName(),
		}, &resp)
		if err == nil && resp.PaymentURL != "" {
			return resp.PaymentURL, resp.PaymentID
		}
		p.log.Warn().Err(err).Str("subscription_id", sub.ID.String()).Msg("Prodamus API failed, using fallback link")
	}

	return base + "/", fallbackPaymentID("PRODAMUS")
}
