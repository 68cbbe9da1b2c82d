package providers

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"coursebot/internal/core/domain"
	"coursebot/internal/core/ledger"
	"coursebot/internal/shared/config"
)

const requestTimeout = 10 * time.Second

// New builds the provider registry from config. Providers with missing
// credentials are still registered, they just always hand out their
// fallback link. botUsername becomes the post-payment return target.
func New(cfg config.ProviderConfig, botUsername string, baseLogger *zerolog.Logger) map[string]ledger.LinkProvider {
	client := &http.Client{Timeout: requestTimeout}
	returnURL := "https://t.me/" + botUsername
	return map[string]ledger.LinkProvider{
		domain.ProviderKaspi:    newKaspi(cfg, client, baseLogger),
		domain.ProviderYukassa:  newYookassa(cfg, returnURL, client, baseLogger),
		domain.ProviderProdamus: newProdamus(cfg, client, baseLogger),
	}
}

// basicAuth renders an HTTP basic Authorization header value.
func basicAuth(user, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(user+":"+password))
}

// postJSON sends a JSON body and decodes a JSON response into out.
// Non-2xx statuses are errors.
func postJSON(ctx context.Context, client *http.Client, url string, headers map[string]string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to encode request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// fallbackPaymentID stamps a provider-prefixed synthetic payment id
// used when the provider API did not hand one out.
func fallbackPaymentID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, time.Now().UnixMilli())
}
