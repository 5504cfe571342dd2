// Package api is the HTTP client for the assistant backend. It owns bearer
// token attachment and request/stream timeouts; it never touches local
// session state.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/oykum/carelink-go/internal/config"
	"github.com/oykum/carelink-go/internal/profile"
)

// AuthResponse is the reply to login and signup calls.
type AuthResponse struct {
	Message string `json:"message"`
	UserID  string `json:"user_id"`
	Token   string `json:"token"`
}

// ChatResponse is the reply to a non-streaming chat call.
type ChatResponse struct {
	Response    string `json:"response"`
	SessionID   string `json:"session_id"`
	SupportsTTS bool   `json:"supports_tts"`
}

type chatRequest struct {
	Message string `json:"message"`
	Stream  bool   `json:"stream"`
}

// Client is a client for the assistant backend API.
type Client struct {
	baseURL       string
	token         string
	client        *http.Client
	streamTimeout time.Duration
}

// NewClient creates a new Client. The stream timeout is the hard ceiling on
// total stream duration; request timeouts cover everything else.
func NewClient(cfg config.ServerConfig, streamTimeout time.Duration) *Client {
	requestTimeout := time.Duration(cfg.RequestTimeoutSeconds) * time.Second
	if requestTimeout <= 0 {
		requestTimeout = 30 * time.Second
	}
	if streamTimeout <= 0 {
		streamTimeout = 120 * time.Second
	}
	return &Client{
		baseURL:       strings.TrimRight(cfg.BaseURL, "/"),
		client:        &http.Client{Timeout: requestTimeout},
		streamTimeout: streamTimeout,
	}
}

// SetToken installs the bearer token attached to authenticated calls.
func (c *Client) SetToken(token string) {
	c.token = token
}

// Authenticated reports whether a bearer token is held.
func (c *Client) Authenticated() bool {
	return c.token != ""
}

// do performs one JSON request/response round trip. out may be nil when the
// response body is irrelevant.
func (c *Client) do(ctx context.Context, method, path string, in, out any, authed bool) error {
	if authed && c.token == "" {
		return ErrUnauthenticated
	}

	var body io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return err
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if authed {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(resp.Body)
		return errorFromResponse(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// Signup creates an account and returns the issued token.
func (c *Client) Signup(ctx context.Context, req profile.SignupRequest) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/signup", req, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	in := map[string]string{"email": email, "password": password}
	var out AuthResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out, false); err != nil {
		return nil, err
	}
	return &out, nil
}

// Profile fetches the authenticated user's health record.
func (c *Client) Profile(ctx context.Context) (*profile.Profile, error) {
	var out profile.Profile
	if err := c.do(ctx, http.MethodGet, "/auth/profile", nil, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateProfile applies a validated partial update and returns the new record.
func (c *Client) UpdateProfile(ctx context.Context, req profile.UpdateRequest) (*profile.Profile, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	var out profile.Profile
	if err := c.do(ctx, http.MethodPut, "/auth/update-profile", req, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// ChangePassword replaces the account password.
func (c *Client) ChangePassword(ctx context.Context, oldPassword, newPassword string) error {
	in := map[string]string{"old_password": oldPassword, "new_password": newPassword}
	return c.do(ctx, http.MethodPut, "/auth/change-password", in, nil, true)
}

// Send performs one non-streaming chat call.
func (c *Client) Send(ctx context.Context, message string) (*ChatResponse, error) {
	var out ChatResponse
	if err := c.do(ctx, http.MethodPost, "/chat/", chatRequest{Message: message}, &out, true); err != nil {
		return nil, err
	}
	return &out, nil
}

// DeleteSession asks the backend to forget a conversation. Callers remove the
// local session regardless of the outcome.
func (c *Client) DeleteSession(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodDelete, "/chat/session/"+sessionID, nil, nil, true)
}
