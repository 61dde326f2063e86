// Package supabase is a minimal client for the Supabase auth (GoTrue) API.
// Only the calls this application needs are implemented: authenticating an
// access token, exchanging an OAuth/PKCE code for a session, and signing out.
package supabase

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/helpmebudget/web/internal/fault"
)

const clientTimeout = 10 * time.Second

// User is the authenticated user as reported by the auth provider.
type User struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	UserMetadata map[string]any `json:"user_metadata"`
	AppMetadata  map[string]any `json:"app_metadata"`
}

// Name returns the best available display name for the user.
func (u *User) Name() string {
	for _, key := range []string{"full_name", "name"} {
		if v, ok := u.UserMetadata[key].(string); ok && v != "" {
			return v
		}
	}
	if u.Email != "" {
		if at := strings.Index(u.Email, "@"); at > 0 {
			return u.Email[:at]
		}
	}
	return "User"
}

// AvatarURL returns the user's avatar URL, if the provider supplied one.
func (u *User) AvatarURL() string {
	for _, key := range []string{"avatar_url", "picture"} {
		if v, ok := u.UserMetadata[key].(string); ok && v != "" {
			return v
		}
	}
	return ""
}

// Provider returns the auth provider name, defaulting to "email".
func (u *User) Provider() string {
	if v, ok := u.AppMetadata["provider"].(string); ok && v != "" {
		return v
	}
	return "email"
}

// ProviderUserID returns the provider-side user identifier, falling back to
// the Supabase user ID.
func (u *User) ProviderUserID() string {
	if v, ok := u.AppMetadata["provider_id"].(string); ok && v != "" {
		return v
	}
	return u.ID
}

// Session is the token pair returned by a code exchange.
type Session struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int    `json:"expires_in"`
	User         *User  `json:"user"`
}

// Client talks to the Supabase auth API.
type Client struct {
	baseURL    string
	anonKey    string
	httpClient *http.Client
}

// New creates a Supabase auth client.
func New(baseURL, anonKey string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		anonKey: anonKey,
		httpClient: &http.Client{
			Timeout: clientTimeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   5 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
}

// GetUser authenticates an access token against the auth server and returns
// the user it belongs to. This is the re-validation call: a locally cached
// session is never trusted without it. An invalid or expired token yields an
// Unauthorized fault.
func (c *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	if accessToken == "" {
		return nil, fault.Unauthorized("missing access token")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setAuthHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fault.Transport("auth provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fault.Unauthorized("invalid session")
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, fault.Transport("decoding auth provider response", err)
	}
	if user.ID == "" {
		return nil, fault.Unauthorized("invalid session")
	}

	return &user, nil
}

// ExchangeCode trades an OAuth/PKCE authorization code for a session.
func (c *Client) ExchangeCode(ctx context.Context, code string) (*Session, error) {
	if code == "" {
		return nil, fault.Validation("No authentication code provided")
	}

	body := strings.NewReader(fmt.Sprintf(`{"auth_code":%q}`, code))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/token?grant_type=pkce", body)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	c.setAuthHeaders(req, "")
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fault.Transport("auth provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var e struct {
			Message          string `json:"msg"`
			ErrorDescription string `json:"error_description"`
		}
		_ = json.NewDecoder(resp.Body).Decode(&e)
		msg := e.Message
		if msg == "" {
			msg = e.ErrorDescription
		}
		if msg == "" {
			msg = "Failed to exchange code for session"
		}
		return nil, fault.Upstream(resp.StatusCode, msg)
	}

	var sess Session
	if err := json.NewDecoder(resp.Body).Decode(&sess); err != nil {
		return nil, fault.Transport("decoding auth provider response", err)
	}

	return &sess, nil
}

// SignOut revokes the session behind the access token. Failures are returned
// so the caller can log them, but logout flows treat this as best-effort.
func (c *Client) SignOut(ctx context.Context, accessToken string) error {
	if accessToken == "" {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth/v1/logout", nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	c.setAuthHeaders(req, accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fault.Transport("auth provider unreachable", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent && resp.StatusCode != http.StatusOK {
		return fault.Upstream(resp.StatusCode, "Failed to logout")
	}

	return nil
}

func (c *Client) setAuthHeaders(req *http.Request, accessToken string) {
	req.Header.Set("apikey", c.anonKey)
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	} else {
		req.Header.Set("Authorization", "Bearer "+c.anonKey)
	}
}
