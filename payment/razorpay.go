// Package payment talks to the Razorpay orders API and verifies the
// signatures it returns to the checkout page.
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/juju/errors"
)

const defaultBaseURL = "https://api.razorpay.com"

// Order is the gateway's order descriptor, passed through to the client unchanged.
type Order map[string]any

// OrderRequest is the body of a create-order call. Amount is in minor units.
type OrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// Gateway creates remote payment orders.
type Gateway interface {
	CreateOrder(ctx context.Context, req OrderRequest) (Order, error)
}

// ClientConfig configures the Razorpay client.
type ClientConfig struct {
	KeyID     string
	KeySecret string
	BaseURL   string
	Timeout   time.Duration
}

// Client is a Gateway backed by the Razorpay REST API.
type Client struct {
	httpClient *http.Client
	keyID      string
	keySecret  string
	baseURL    string
}

// NewClient creates a Razorpay client.
func NewClient(cfg ClientConfig) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 15 * time.Second
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		baseURL:    baseURL,
	}
}

// CreateOrder calls POST /v1/orders.
func (c *Client) CreateOrder(ctx context.Context, body OrderRequest) (Order, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, errors.Annotate(err, "marshal order request")
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(payload))
	if err != nil {
		return nil, errors.Annotate(err, "build order request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, errors.Annotate(err, "razorpay order request failed")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, errors.Annotate(err, "read razorpay response")
	}
	if resp.StatusCode >= 300 {
		return nil, errors.Errorf("razorpay order request returned %d: %s", resp.StatusCode, gatewayMessage(data))
	}

	var order Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, errors.Annotate(err, "decode razorpay order")
	}
	return order, nil
}

func gatewayMessage(data []byte) string {
	var body struct {
		Error struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	}
	if err := json.Unmarshal(data, &body); err == nil && body.Error.Description != "" {
		return fmt.Sprintf("%s (%s)", body.Error.Description, body.Error.Code)
	}
	return strings.TrimSpace(string(data))
}

// MinorUnits converts a rupee amount into paise, rounding to the nearest unit.
func MinorUnits(amount float64) int64 {
	if amount < 0 {
		return -MinorUnits(-amount)
	}
	return int64(amount*100 + 0.5)
}
