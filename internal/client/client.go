// Package client is the REST client for the remote business-operations
// API. It speaks the backend's JSON envelope and normalizes its loose
// shapes into domain types at this boundary, so nothing above it deals
// with wire quirks.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fieldforce/punchkit-go/internal/domain/firm"
	"github.com/fieldforce/punchkit-go/internal/domain/punch"
	"github.com/fieldforce/punchkit-go/internal/domain/user"
)

// APIError is a non-success answer from the backend.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error [%d] %s: %s", e.StatusCode, e.Code, e.Message)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: timeout},
	}
}

// envelope mirrors the backend's response wrapper.
type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   *struct {
		Code    string            `json:"code"`
		Message string            `json:"message"`
		Details map[string]string `json:"details,omitempty"`
	} `json:"error,omitempty"`
}

func (c *Client) do(ctx context.Context, method, path string, body interface{}, out interface{}) error {
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return &APIError{StatusCode: resp.StatusCode, Code: "BAD_RESPONSE", Message: "unreadable response from server"}
	}

	if !env.Success {
		apiErr := &APIError{StatusCode: resp.StatusCode, Code: "UNKNOWN", Message: env.Message}
		if env.Error != nil {
			apiErr.Code = env.Error.Code
			apiErr.Message = env.Error.Message
		}
		return apiErr
	}

	if out != nil && env.Data != nil {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return &APIError{StatusCode: resp.StatusCode, Code: "BAD_RESPONSE", Message: "unexpected payload shape"}
		}
	}
	return nil
}

// Logout revokes the client's bearer token on the server. The client
// itself keeps the token; later calls fail as unauthorized.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/v1/auth/logout", nil, nil)
}

// Firms lists the customers/stores. Entries without coordinates stay
// selectable; they simply carry no geofence.
func (c *Client) Firms(ctx context.Context) ([]firm.Firm, error) {
	var data struct {
		Firms []firm.APIRecord `json:"firms"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/firms", nil, &data); err != nil {
		return nil, err
	}
	firms := make([]firm.Firm, 0, len(data.Firms))
	for _, rec := range data.Firms {
		firms = append(firms, firm.FromAPI(rec))
	}
	return firms, nil
}

// FirmRecords returns the raw records, used to refresh the local firms
// cache without re-normalizing.
func (c *Client) FirmRecords(ctx context.Context) ([]firm.APIRecord, error) {
	var data struct {
		Firms []firm.APIRecord `json:"firms"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/firms", nil, &data); err != nil {
		return nil, err
	}
	return data.Firms, nil
}

// SubmitShopLocation sets a firm's geofence center.
func (c *Client) SubmitShopLocation(ctx context.Context, firmName string, lat, lon float64) error {
	body := map[string]interface{}{
		"firm_name": firmName,
		"latitude":  lat,
		"longitude": lon,
	}
	return c.do(ctx, http.MethodPost, "/api/v1/firms/location", body, nil)
}

// SubmitPunchIn implements punch.API.
func (c *Client) SubmitPunchIn(ctx context.Context, payload punch.PunchInPayload) (punch.Session, error) {
	var sess punch.Session
	if err := c.do(ctx, http.MethodPost, "/api/v1/punch-in", payload, &sess); err != nil {
		return punch.Session{}, err
	}
	return sess, nil
}

// SubmitPunchOut implements punch.API.
func (c *Client) SubmitPunchOut(ctx context.Context, sessionID string) error {
	return c.do(ctx, http.MethodPost, "/api/v1/punch-in/"+sessionID+"/out", nil, nil)
}

// ActiveStatus implements punch.API.
func (c *Client) ActiveStatus(ctx context.Context) (punch.Status, error) {
	var data struct {
		IsActive      bool           `json:"is_active"`
		ActivePunchIn *punch.Session `json:"active_punch_in,omitempty"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/punch-in/active", nil, &data); err != nil {
		return punch.Status{}, err
	}
	return punch.Status{IsActive: data.IsActive, Active: data.ActivePunchIn}, nil
}

// Users lists users with their menu allow-lists.
func (c *Client) Users(ctx context.Context) ([]user.User, error) {
	var data struct {
		Users []user.User `json:"users"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/v1/users", nil, &data); err != nil {
		return nil, err
	}
	return data.Users, nil
}

// UpdateAllowedMenuIDs replaces a user's menu allow-list.
func (c *Client) UpdateAllowedMenuIDs(ctx context.Context, userID string, menuIDs []string) error {
	body := map[string]interface{}{"menu_ids": menuIDs}
	return c.do(ctx, http.MethodPut, "/api/v1/users/"+userID+"/menus", body, nil)
}

var _ punch.API = (*Client)(nil)
