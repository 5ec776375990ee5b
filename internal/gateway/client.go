// Package gateway is the client for the hosted checkout provider: the
// availability probe, the order-create endpoint, and the verify endpoint.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"apcc-pipeline/internal/common/config"
	commonhttp "apcc-pipeline/internal/common/http"
	"apcc-pipeline/internal/models"

	"github.com/google/uuid"
)

type Client struct {
	keyID        string
	keySecret    string
	baseURL      string
	checkoutPath string
	currency     string
	httpClient   *commonhttp.Client
}

func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{
		keyID:        cfg.KeyID,
		keySecret:    cfg.KeySecret,
		baseURL:      cfg.BaseURL,
		checkoutPath: cfg.CheckoutPath,
		currency:     cfg.Currency,
		httpClient:   commonhttp.NewClient(config.GetDuration(cfg.Timeout)),
	}
}

// Currency returns the configured settlement currency.
func (c *Client) Currency() string {
	return c.currency
}

// KeyID returns the publishable key the checkout session is opened with.
func (c *Client) KeyID() string {
	return c.keyID
}

// EnsureCheckout probes the hosted checkout script. The orchestrator calls
// this once per process and caches success, the way the reference page
// injected checkout.js a single time.
func (c *Client) EnsureCheckout(ctx context.Context) error {
	url := c.baseURL + c.checkoutPath

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("checkout script unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("checkout script unavailable (status %d)", resp.StatusCode)
	}
	return nil
}

type createOrderRequest struct {
	Amount   int64  `json:"amount"` // paise
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

// CreateOrder registers an order for the given amount in paise. The
// response must carry an order id; a success status without one is treated
// as a malformed response and fails the call.
func (c *Client) CreateOrder(ctx context.Context, amountPaise int64) (*models.Order, error) {
	url := c.baseURL + "/orders"

	payload := createOrderRequest{
		Amount:   amountPaise,
		Currency: c.currency,
		Receipt:  "rcpt_" + uuid.New().String(),
	}

	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf("failed to create order (status %d): %s", resp.StatusCode, string(body))
	}

	var order models.Order
	if err := json.Unmarshal(body, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	if order.ID == "" {
		return nil, fmt.Errorf("order-create response missing id: %s", string(body))
	}

	return &order, nil
}

type verifyResponse struct {
	Success bool `json:"success"`
}

// VerifyPayment forwards the checkout success callback to the verify
// endpoint. The payload travels verbatim: a signature or identifier
// mismatch must fail server-side, never be corrected here.
func (c *Client) VerifyPayment(ctx context.Context, rawCallback []byte) (bool, error) {
	url := c.baseURL + "/verify-payment"

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(rawCallback))
	if err != nil {
		return false, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return false, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("verify failed (status %d): %s", resp.StatusCode, string(body))
	}

	var result verifyResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return false, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return result.Success, nil
}
