// Package api is the HTTP client for the RapidKeys race service.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rapidkeys/rapidkeys/internal/model"
)

// Client talks to the race service's REST API. The token is attached as
// a bearer credential when set.
type Client struct {
	BaseURL string
	Token   string

	http *http.Client
}

// New builds a client for the given base URL.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL: baseURL,
		Token:   token,
		http:    &http.Client{Timeout: 10 * time.Second},
	}
}

// APIError is a non-2xx response from the service.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("server returned %d: %s", e.Status, e.Detail)
	}
	return fmt.Sprintf("server returned %d", e.Status)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.BaseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() {
		if cerr := resp.Body.Close(); cerr != nil {
			// Best-effort close.
			_ = cerr
		}
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var payload struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
			// Non-JSON error body, keep just the status.
			_ = err
		}
		return &APIError{Status: resp.StatusCode, Detail: payload.Detail}
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// Session is the credential returned by signup and login.
type Session struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Signup registers a new account and returns its first session.
func (c *Client) Signup(ctx context.Context, username, email, password string) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/signup", map[string]string{
		"username": username,
		"email":    email,
		"password": password,
	}, &out)
	return out, err
}

// Login authenticates and returns a fresh session.
func (c *Client) Login(ctx context.Context, username, password string) (Session, error) {
	var out Session
	err := c.do(ctx, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"username": username,
		"password": password,
	}, &out)
	return out, err
}

// CheckUsername reports whether the username is still available.
func (c *Client) CheckUsername(ctx context.Context, username string) (bool, error) {
	var out struct {
		Available bool `json:"available"`
	}
	path := "/api/v1/auth/username-check?username=" + url.QueryEscape(username)
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return false, err
	}
	return out.Available, nil
}

// CreateRoom creates a race room and returns its code.
func (c *Client) CreateRoom(ctx context.Context, settings model.Settings) (string, error) {
	var out struct {
		Code string `json:"code"`
	}
	err := c.do(ctx, http.MethodPost, "/api/v1/multiplayer/create-room", map[string]model.Settings{
		"settings": settings,
	}, &out)
	return out.Code, err
}

// GetRoom fetches a room snapshot.
func (c *Client) GetRoom(ctx context.Context, code string) (model.Room, error) {
	var out model.Room
	err := c.do(ctx, http.MethodGet, "/api/v1/multiplayer/room/"+url.PathEscape(code), nil, &out)
	return out, err
}

// ActiveRooms lists joinable rooms.
func (c *Client) ActiveRooms(ctx context.Context) ([]model.RoomSummary, error) {
	var out []model.RoomSummary
	err := c.do(ctx, http.MethodGet, "/api/v1/multiplayer/active-rooms", nil, &out)
	return out, err
}

// Leaderboard fetches the global leaderboard.
func (c *Client) Leaderboard(ctx context.Context, limit int) ([]model.LeaderboardEntry, error) {
	var out []model.LeaderboardEntry
	path := fmt.Sprintf("/api/v1/leaderboard?limit=%d", limit)
	err := c.do(ctx, http.MethodGet, path, nil, &out)
	return out, err
}

// Profile fetches the authenticated account's profile.
func (c *Client) Profile(ctx context.Context) (model.Profile, error) {
	var out model.Profile
	err := c.do(ctx, http.MethodGet, "/api/v1/profile", nil, &out)
	return out, err
}

// UpdateEmail changes the authenticated account's email address.
func (c *Client) UpdateEmail(ctx context.Context, email string) (model.Profile, error) {
	var out model.Profile
	err := c.do(ctx, http.MethodPut, "/api/v1/profile", map[string]string{
		"email": email,
	}, &out)
	return out, err
}
