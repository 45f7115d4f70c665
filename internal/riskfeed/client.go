// Package riskfeed is the client for an external risk service: an HTTP API
// for the current survival status and balance pushes, plus a WebSocket
// stream of live status updates. Callers wrap the HTTP methods in a
// resilient adapter; this package performs no retries of its own.
package riskfeed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"agent-control-plane/internal/domain"
)

// DefaultTimeout is the HTTP client timeout.
const DefaultTimeout = 10 * time.Second

// statusPayload is the wire form of a survival status.
type statusPayload struct {
	Mode               string  `json:"mode"`
	PnLPercent         float64 `json:"pnl_percent"`
	MaxAllocationPct   float64 `json:"max_allocation_pct"`
	RiskMultiplier     float64 `json:"risk_multiplier"`
	CanOpenNewPosition bool    `json:"can_open_new_position"`
	MaxLeverage        float64 `json:"max_leverage"`
	StartBalance       float64 `json:"start_balance"`
	CurrentBalance     float64 `json:"current_balance"`
	TransitionMs       int64   `json:"transition_ms"`
}

func (p *statusPayload) toDomain() *domain.SurvivalStatus {
	return &domain.SurvivalStatus{
		Mode:               domain.SurvivalMode(p.Mode),
		PnLPercent:         p.PnLPercent,
		MaxAllocationPct:   p.MaxAllocationPct,
		RiskMultiplier:     p.RiskMultiplier,
		CanOpenNewPosition: p.CanOpenNewPosition,
		MaxLeverage:        p.MaxLeverage,
		StartBalance:       p.StartBalance,
		CurrentBalance:     p.CurrentBalance,
		TransitionMs:       p.TransitionMs,
	}
}

// Client talks to the risk service HTTP API.
type Client struct {
	endpoint string
	wallet   string
	client   *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.client.Timeout = d
	}
}

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) {
		c.client = client
	}
}

// NewClient creates a risk service client for one wallet.
func NewClient(endpoint, walletAddress string, opts ...ClientOption) *Client {
	c := &Client{
		endpoint: endpoint,
		wallet:   walletAddress,
		client:   &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// FetchStatus retrieves the authoritative survival status for the wallet.
func (c *Client) FetchStatus(ctx context.Context) (*domain.SurvivalStatus, error) {
	url := fmt.Sprintf("%s/v1/wallets/%s/status", c.endpoint, c.wallet)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("fetch status: HTTP %d: %s", resp.StatusCode, body)
	}

	var payload statusPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode status: %w", err)
	}
	return payload.toDomain(), nil
}

// PushBalance reports a balance observation to the risk service.
func (c *Client) PushBalance(ctx context.Context, balance float64) error {
	body, err := json.Marshal(map[string]float64{"balance": balance})
	if err != nil {
		return fmt.Errorf("encode balance: %w", err)
	}

	url := fmt.Sprintf("%s/v1/wallets/%s/balance", c.endpoint, c.wallet)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("push balance: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusAccepted {
		return fmt.Errorf("push balance: HTTP %d", resp.StatusCode)
	}
	return nil
}
