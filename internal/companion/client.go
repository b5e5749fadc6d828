// Package companion mirrors the timer onto an optional desk companion device
// that shows an animation for the current activity.
package companion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Status is what the device reports about itself.
type Status struct {
	Status           string `json:"status"`
	Animation        string `json:"animation"`
	Task             string `json:"task"`
	Uptime           int64  `json:"uptime"`
	ConnectedDevices int    `json:"connectedDevices"`
	IP               string `json:"ip"`
}

type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient accepts a bare host ("tabbie.local") or a full URL.
func NewClient(baseURL string, timeout time.Duration) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL != "" && !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{baseURL: baseURL, httpClient: &http.Client{Timeout: timeout}}
}

func (c *Client) Status(ctx context.Context) (*Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/status", nil)
	if err != nil {
		return nil, fmt.Errorf("build status request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("companion status: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("companion status: unexpected status %d", resp.StatusCode)
	}
	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return nil, fmt.Errorf("decode companion status: %w", err)
	}
	return &status, nil
}

type animationRequest struct {
	Animation string `json:"animation"`
	Task      string `json:"task"`
}

func (c *Client) SendAnimation(ctx context.Context, animation, task string) error {
	body, err := json.Marshal(animationRequest{Animation: animation, Task: task})
	if err != nil {
		return fmt.Errorf("encode animation: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/animation", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build animation request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send animation: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("send animation: unexpected status %d", resp.StatusCode)
	}
	return nil
}
