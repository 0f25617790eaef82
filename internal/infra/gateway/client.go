// internal/infra/gateway/client.go
package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	mintapp "storefront/internal/application/mint"
)

// Client talks to a gatekeeper network issuer over HTTP: it requests a
// gateway token for a wallet and polls the issuance status until the
// token is active (or the caller gives up via ctx).
type Client struct {
	BaseURL string
	Network string
	HTTP    *http.Client

	// PollInterval is how often the issuance status is re-read.
	PollInterval time.Duration
}

var _ mintapp.GatewayTokenSource = (*Client)(nil)

func NewClient(baseURL, network string) *Client {
	return &Client{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		Network:      network,
		HTTP:         &http.Client{Timeout: 12 * time.Second},
		PollInterval: 2 * time.Second,
	}
}

type tokenStatusResponse struct {
	State string `json:"state"`
}

// RequestToken implements mintapp.GatewayTokenSource. The returned
// channel emits status transitions and closes when the token is active
// or the context ends.
func (c *Client) RequestToken(ctx context.Context, wallet string) (<-chan mintapp.GatewayStatus, error) {
	if c == nil || c.BaseURL == "" {
		return nil, fmt.Errorf("gateway: base URL not configured")
	}

	if err := c.requestIssuance(ctx, wallet); err != nil {
		return nil, err
	}

	out := make(chan mintapp.GatewayStatus, 4)
	go func() {
		defer close(out)

		ticker := time.NewTicker(c.pollInterval())
		defer ticker.Stop()

		last := mintapp.GatewayNotRequested
		out <- last

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			status, err := c.readStatus(ctx, wallet)
			if err != nil {
				log.Printf("[gateway] status poll failed wallet=%s: %v", wallet, err)
				continue
			}
			if status == last {
				continue
			}
			last = status
			out <- status
			if status == mintapp.GatewayActive {
				return
			}
		}
	}()
	return out, nil
}

func (c *Client) requestIssuance(ctx context.Context, wallet string) error {
	body := strings.NewReader(fmt.Sprintf(`{"wallet":%q,"network":%q}`, wallet, c.Network))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/v1/token", body)
	if err != nil {
		return fmt.Errorf("gateway: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("gateway: request token: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode >= 300 {
		return fmt.Errorf("gateway: request token: status %d", res.StatusCode)
	}
	return nil
}

func (c *Client) readStatus(ctx context.Context, wallet string) (mintapp.GatewayStatus, error) {
	endpoint := fmt.Sprintf("%s/v1/token/%s?network=%s", c.BaseURL, url.PathEscape(wallet), url.QueryEscape(c.Network))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return mintapp.GatewayUnknown, fmt.Errorf("gateway: build status request: %w", err)
	}

	res, err := c.HTTP.Do(req)
	if err != nil {
		return mintapp.GatewayUnknown, fmt.Errorf("gateway: read status: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode == http.StatusNotFound {
		return mintapp.GatewayNotRequested, nil
	}
	if res.StatusCode >= 300 {
		return mintapp.GatewayUnknown, fmt.Errorf("gateway: read status: status %d", res.StatusCode)
	}

	var parsed tokenStatusResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return mintapp.GatewayUnknown, fmt.Errorf("gateway: decode status: %w", err)
	}

	switch strings.ToLower(parsed.State) {
	case "active":
		return mintapp.GatewayActive, nil
	case "refresh-required", "expired":
		return mintapp.GatewayRefreshRequired, nil
	case "not-requested", "pending":
		return mintapp.GatewayNotRequested, nil
	default:
		return mintapp.GatewayUnknown, nil
	}
}

func (c *Client) pollInterval() time.Duration {
	if c.PollInterval > 0 {
		return c.PollInterval
	}
	return 2 * time.Second
}
