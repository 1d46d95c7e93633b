// Package billing contains the HTTP adapter for the remote billing
// endpoints (subscription status, checkout and portal sessions). They are
// deployed as edge functions next to the identity provider and
// authenticated with the session's access token.
package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"carebridge-backend-go/internal/core"
	"carebridge-backend-go/internal/models"
)

// HTTPClientConfig contains options for creating an HTTPClient.
type HTTPClientConfig struct {
	// BaseURL is the functions root, e.g. "https://xyz.supabase.co/functions/v1".
	BaseURL string
	// APIKey is sent as the "apikey" header on every request.
	APIKey string
	// HTTPClient defaults to a client with a 30s timeout when nil.
	HTTPClient *http.Client
}

// HTTPClient implements core.BillingClient against the remote functions.
type HTTPClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewHTTPClient creates an HTTPClient.
func NewHTTPClient(cfg HTTPClientConfig, logger *zap.Logger) (*HTTPClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("billing: BaseURL is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &HTTPClient{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

var _ core.BillingClient = (*HTTPClient)(nil)

// SubscriptionStatus invokes the check-subscription function.
func (c *HTTPClient) SubscriptionStatus(ctx context.Context, accessToken string) (*models.SubscriptionStatus, error) {
	var status models.SubscriptionStatus
	if err := c.invoke(ctx, "/check-subscription", accessToken, nil, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// CreateCheckoutSession invokes the create-checkout function and returns
// the redirect URL.
func (c *HTTPClient) CreateCheckoutSession(ctx context.Context, accessToken, priceID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	body := map[string]string{"priceId": priceID}
	if err := c.invoke(ctx, "/create-checkout", accessToken, body, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("billing: checkout response contained no url")
	}
	return out.URL, nil
}

// CreatePortalSession invokes the customer-portal function and returns
// the redirect URL.
func (c *HTTPClient) CreatePortalSession(ctx context.Context, accessToken string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.invoke(ctx, "/customer-portal", accessToken, nil, &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("billing: portal response contained no url")
	}
	return out.URL, nil
}

func (c *HTTPClient) invoke(ctx context.Context, path, accessToken string, body interface{}, out interface{}) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request body: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("apikey", c.apiKey)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("billing endpoint unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		var payload struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(raw, &payload)
		reason := payload.Error
		if reason == "" {
			reason = http.StatusText(resp.StatusCode)
		}
		c.logger.Warn("billing endpoint rejected request",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.String("reason", reason))
		return fmt.Errorf("billing endpoint: %s", reason)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode billing response: %w", err)
	}
	return nil
}
