package dashboard

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"focusboard/backend/internal/model"
	"focusboard/backend/internal/timer"
)

const DefaultClientTimeout = 10 * time.Second

// Client calls the timer API on behalf of one signed-in user.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: DefaultClientTimeout},
	}
}

type apiError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var apiErr apiError
		raw, _ := io.ReadAll(resp.Body)
		if json.Unmarshal(raw, &apiErr) == nil && apiErr.Error.Code != "" {
			return fmt.Errorf("%s: %s", apiErr.Error.Code, apiErr.Error.Message)
		}
		return fmt.Errorf("API error %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

type stateResponse struct {
	State timer.Snapshot `json:"state"`
}

// State fetches the refreshed timer state.
func (c *Client) State(ctx context.Context) (timer.Snapshot, error) {
	var resp stateResponse
	err := c.do(ctx, http.MethodGet, "/api/timer/state", nil, &resp)
	return resp.State, err
}

// Action posts one body-less timer action such as "pause" or "next".
func (c *Client) Action(ctx context.Context, action string) (timer.Snapshot, error) {
	var resp stateResponse
	err := c.do(ctx, http.MethodPost, "/api/timer/"+action, nil, &resp)
	return resp.State, err
}

func (c *Client) Start(ctx context.Context, taskID string) (timer.Snapshot, error) {
	var resp stateResponse
	err := c.do(ctx, http.MethodPost, "/api/timer/start", map[string]string{"taskId": taskID}, &resp)
	return resp.State, err
}

func (c *Client) Tasks(ctx context.Context) ([]model.Task, error) {
	var resp struct {
		Tasks []model.Task `json:"tasks"`
	}
	err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &resp)
	return resp.Tasks, err
}
