package payment

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Client tanya payment gateway apakah sebuah payment reference sukses.
// Internals gateway bukan urusan service ini.
type Client struct {
	BaseURL string
	HTTP    *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 5 * time.Second},
	}
}

type confirmResp struct {
	Succeeded bool `json:"succeeded"`
}

func (c *Client) Confirm(ctx context.Context, paymentRef string) (bool, error) {
	url := fmt.Sprintf("%s/payments/%s", c.BaseURL, paymentRef)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, err
	}
	resp, err := c.HTTP.Do(req)
	if err != nil {
		return false, fmt.Errorf("payment gateway: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		return false, fmt.Errorf("payment gateway: status %d", resp.StatusCode)
	}
	var body confirmResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return false, fmt.Errorf("payment gateway: %w", err)
	}
	return body.Succeeded, nil
}
