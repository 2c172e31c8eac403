// Package client is a Go client for the task tracker API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/taskflow/task-tracker-api/internal/board"
	"github.com/taskflow/task-tracker-api/internal/constants"
	"github.com/taskflow/task-tracker-api/internal/dto"
)

var (
	ErrNotSignedIn  = errors.New("not signed in")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx response decoded from the API error envelope.
type APIError struct {
	StatusCode int    `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d %s: %s", e.StatusCode, e.Code, e.Message)
}

// Unwrap lets callers match a 401 with errors.Is(err, ErrUnauthorized).
func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusUnauthorized {
		return ErrUnauthorized
	}
	return nil
}

type Client struct {
	baseURL    string
	httpClient *http.Client
	session    *Session
	logger     *slog.Logger
}

type Option func(*Client)

// WithHTTPClient replaces the default client with a 30s timeout.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger sets the logger used by KeepAlive.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) { c.logger = logger }
}

// New creates a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		session:    &Session{},
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Session exposes the client's session.
func (c *Client) Session() *Session {
	return c.session
}

// Login signs in and stores the issued token in the session.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.LoginResponse, error) {
	var resp dto.LoginResponse
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp, false); err != nil {
		return nil, err
	}
	c.session.Set(resp.AccessToken)
	return &resp, nil
}

// Status re-validates the session token.
func (c *Client) Status(ctx context.Context) (*dto.AuthStatusResponse, error) {
	var resp dto.AuthStatusResponse
	if err := c.do(ctx, http.MethodGet, "/auth/status", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Logout revokes the token server-side and clears the session either way.
func (c *Client) Logout(ctx context.Context) error {
	defer c.session.Clear()
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil, true)
}

// ListTasks fetches one page of visible tasks.
func (c *Client) ListTasks(ctx context.Context, page, limit int) (*dto.TaskListResponse, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))

	var resp dto.TaskListResponse
	if err := c.do(ctx, http.MethodGet, "/tasks?"+q.Encode(), nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateTask creates a task. Fields follow the POST /tasks body.
func (c *Client) CreateTask(ctx context.Context, task map[string]interface{}) (*dto.TaskDTO, error) {
	var resp dto.TaskDTO
	if err := c.do(ctx, http.MethodPost, "/tasks", task, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateTask sends a partial update.
func (c *Client) UpdateTask(ctx context.Context, id uint64, changes map[string]interface{}) (*dto.TaskDTO, error) {
	var resp dto.TaskDTO
	if err := c.do(ctx, http.MethodPatch, fmt.Sprintf("/tasks/%d", id), changes, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Board fetches the three-column board.
func (c *Client) Board(ctx context.Context) (*dto.BoardDTO, error) {
	var resp dto.BoardDTO
	if err := c.do(ctx, http.MethodGet, "/tasks/board", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats fetches the task analytics.
func (c *Client) Stats(ctx context.Context) (*board.Stats, error) {
	var resp board.Stats
	if err := c.do(ctx, http.MethodGet, "/tasks/stats", nil, &resp, true); err != nil {
		return nil, err
	}
	return &resp, nil
}

// KeepAlive re-validates the session every interval until ctx is done.
// A rejected token clears the session; transport errors are only logged.
func (c *Client) KeepAlive(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = constants.KeepAliveDefault
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if c.session.Token() == "" {
				continue
			}
			if _, err := c.Status(ctx); err != nil && ctx.Err() == nil {
				c.logger.WarnContext(ctx, "session check failed", "error", err)
			}
		}
	}
}

func (c *Client) do(ctx context.Context, method, path string, body, out interface{}, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authenticated {
		token := c.session.Token()
		if token == "" {
			return ErrNotSignedIn
		}
		req.Header.Set("Authorization", constants.BearerPrefix+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		c.session.Clear()
	}
	if resp.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.NewDecoder(resp.Body).Decode(apiErr); err != nil {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
