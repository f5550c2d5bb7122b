// Package api is the typed client for the Draftolio backend. Responses are
// decoded and validated once at this boundary; everything downstream works
// with well-formed records.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/wttnguyen/draftolio/internal/api/apierror"
)

const userIDHeader = "X-User-Id"

// Client is an HTTP client for the Draftolio backend API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	validate   *validator.Validate
	logger     zerolog.Logger

	// userID supplies the placeholder X-User-Id for the draft endpoints.
	// Empty return means the header is omitted (a real session exists).
	userID func() string
}

// New creates a new API client. The default HTTP client carries a cookie jar
// so backend session and CSRF cookies round-trip like a browser's would.
func New(baseURL string, logger zerolog.Logger) *Client {
	jar, _ := cookiejar.New(nil)

	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
		validate: validator.New(),
		logger:   logger,
	}
}

// SetHTTPClient sets a custom HTTP client. The interceptor chain is installed
// this way once the session store exists.
func (c *Client) SetHTTPClient(httpClient *http.Client) {
	c.httpClient = httpClient
}

// HTTPClient returns the underlying HTTP client.
func (c *Client) HTTPClient() *http.Client {
	return c.httpClient
}

// BaseURL returns the backend root this client targets.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// SetUserIDProvider installs the placeholder-identity source for the draft
// endpoints.
func (c *Client) SetUserIDProvider(f func() string) {
	c.userID = f
}

// Status issues the lightweight auth probe.
func (c *Client) Status(ctx context.Context) (AuthStatus, error) {
	var status AuthStatus
	if err := c.do(ctx, http.MethodGet, "/auth/status", nil, &status, false); err != nil {
		return AuthStatus{}, fmt.Errorf("checking auth status: %w", err)
	}
	return status, nil
}

// Me fetches the full user profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/auth/user/me", nil, &user, false); err != nil {
		return nil, fmt.Errorf("fetching current user: %w", err)
	}
	if err := c.validate.Struct(&user); err != nil {
		return nil, fmt.Errorf("invalid user payload: %w", err)
	}
	return &user, nil
}

// LoginURL asks the backend for the OAuth authorization URL. The caller is
// expected to navigate there; no response ever comes back through this
// client once it does.
func (c *Client) LoginURL(ctx context.Context, redirect string) (string, error) {
	path := "/auth/login"
	if redirect != "" {
		path += "?redirect=" + url.QueryEscape(redirect)
	}

	var resp loginResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &resp, false); err != nil {
		return "", fmt.Errorf("initiating login: %w", err)
	}
	if resp.AuthorizationURL == "" {
		if resp.Error != "" {
			return "", fmt.Errorf("initiating login: %s", resp.Error)
		}
		return "", fmt.Errorf("initiating login: backend returned no authorization URL")
	}
	return resp.AuthorizationURL, nil
}

// Logout terminates the backend session.
func (c *Client) Logout(ctx context.Context) (*LogoutResponse, error) {
	var resp LogoutResponse
	if err := c.do(ctx, http.MethodPost, "/auth/logout", struct{}{}, &resp, false); err != nil {
		return nil, fmt.Errorf("logging out: %w", err)
	}
	return &resp, nil
}

// Refresh exchanges the session's refresh token for a new access token.
func (c *Client) Refresh(ctx context.Context) (*RefreshResponse, error) {
	var resp RefreshResponse
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", struct{}{}, &resp, false); err != nil {
		return nil, fmt.Errorf("refreshing token: %w", err)
	}
	if err := c.validate.Struct(&resp); err != nil {
		return nil, fmt.Errorf("invalid refresh payload: %w", err)
	}
	return &resp, nil
}

// do issues one request and decodes the response into out. withIdentity
// attaches the placeholder X-User-Id header when a provider is installed and
// returns a value.
func (c *Client) do(ctx context.Context, method, path string, body, out any, withIdentity bool) error {
	var reader io.Reader
	if body != nil {
		jsonData, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		reader = bytes.NewReader(jsonData)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if withIdentity && c.userID != nil {
		if id := c.userID(); id != "" {
			req.Header.Set(userIDHeader, id)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apierror.Network(req, unwrapURLError(err))
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return apierror.FromResponse(resp, respBody)
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// unwrapURLError strips the *url.Error wrapper http.Client adds so network
// errors surface their cause.
func unwrapURLError(err error) error {
	if urlErr, ok := err.(*url.Error); ok {
		return urlErr.Err
	}
	return err
}
