// Package client is a typed HTTP client for the taktplan REST API.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/taktplan/internal"
	"github.com/frahmantamala/taktplan/internal/auth"
	"github.com/frahmantamala/taktplan/internal/task"
	"github.com/frahmantamala/taktplan/internal/user"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

type Client struct {
	baseURL string
	http    *http.Client

	mu    sync.RWMutex
	token string
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// New builds a client for baseURL, e.g. http://localhost:3001. Outgoing
// requests carry the active trace context.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		http: &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

func (c *Client) SetToken(token string) {
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()
}

func (c *Client) Register(ctx context.Context, dto auth.RegisterDTO) (*auth.Account, error) {
	var out auth.Account
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", dto, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login stores the issued token on the client for subsequent calls.
func (c *Client) Login(ctx context.Context, email, password string) (*auth.AuthTokens, error) {
	var out auth.AuthTokens
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", auth.LoginDTO{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	c.SetToken(out.Token)
	return &out, nil
}

func (c *Client) Logout(ctx context.Context) error {
	if err := c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil); err != nil {
		return err
	}
	c.SetToken("")
	return nil
}

func (c *Client) Me(ctx context.Context) (*user.User, error) {
	var out user.User
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context) ([]*user.User, error) {
	var out []*user.User
	if err := c.do(ctx, http.MethodGet, "/api/users", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) ChangeRole(ctx context.Context, id int64, role internal.Role) (*user.User, error) {
	var out user.User
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/admin/users/%d/role", id), user.ChangeRoleDTO{Role: string(role)}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListTasks(ctx context.Context) ([]*task.Task, error) {
	var out []*task.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) MyTasks(ctx context.Context) ([]*task.Task, error) {
	var out []*task.Task
	if err := c.do(ctx, http.MethodGet, "/api/tasks/my-tasks", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) GetTask(ctx context.Context, id int64) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/api/tasks/%d", id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTask(ctx context.Context, dto task.CreateTaskDTO) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPost, "/api/tasks", dto, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTask(ctx context.Context, id int64, dto task.UpdateTaskDTO) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPut, fmt.Sprintf("/api/tasks/%d", id), dto, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateTaskStatus sends a status-only sparse update.
func (c *Client) UpdateTaskStatus(ctx context.Context, id int64, status task.Status) (*task.Task, error) {
	return c.UpdateTask(ctx, id, task.UpdateTaskDTO{Status: task.Some(status)})
}

func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/api/tasks/%d", id), nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return decodeError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeError rebuilds the server's AppError so callers can use errors.Is
// against the sentinels in package internal.
func decodeError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))

	var envelope struct {
		Error struct {
			Type    internal.ErrorType `json:"type"`
			Code    internal.ErrorCode `json:"code"`
			Message string             `json:"message"`
			Details json.RawMessage    `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil || envelope.Error.Code == "" {
		return &internal.AppError{
			Type:       internal.ErrorTypeInternal,
			Code:       internal.ErrorCode(fmt.Sprintf("HTTP_%d", resp.StatusCode)),
			Message:    strings.TrimSpace(string(raw)),
			StatusCode: resp.StatusCode,
		}
	}

	appErr := &internal.AppError{
		Type:       envelope.Error.Type,
		Code:       envelope.Error.Code,
		Message:    envelope.Error.Message,
		StatusCode: resp.StatusCode,
	}
	if len(envelope.Error.Details) > 0 {
		var details internal.ValidationErrors
		if json.Unmarshal(envelope.Error.Details, &details) == nil && len(details.Errors) > 0 {
			appErr.Details = details
		}
	}
	return appErr
}
