package platform

import (
	"context"
	"net/http"
	"time"

	"golang.org/x/oauth2"
)

// Credentials is a login request.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is a sign-up request.
type Registration struct {
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email"`
	Password  string `json:"password"`
	ClubName  string `json:"club_name,omitempty"`
}

// LoginResponse represents a login response. Expiry fields are optional;
// callers fall back to the token's own claims when they are absent.
type LoginResponse struct {
	AccessToken      string     `json:"access_token"`
	RefreshToken     string     `json:"refresh_token"`
	ExpiresAt        *time.Time `json:"expires_at,omitempty"`
	RefreshExpiresAt *time.Time `json:"refresh_expires_at,omitempty"`
	User             *User      `json:"user,omitempty"`
}

// User represents the signed-in account.
type User struct {
	ID           string `json:"id" yaml:"id"`
	Email        string `json:"email" yaml:"email"`
	FirstName    string `json:"first_name" yaml:"first_name"`
	LastName     string `json:"last_name" yaml:"last_name"`
	Role         string `json:"role" yaml:"role"`
	GroupID      string `json:"group_id" yaml:"group_id"`
	ParentUserID string `json:"parent_user_id,omitempty" yaml:"parent_user_id,omitempty"`
}

// FullName returns "First Last".
func (u User) FullName() string {
	return joinName(u.FirstName, u.LastName)
}

// Login exchanges credentials for tokens. It does not set the client token.
func (c *Client) Login(ctx context.Context, creds Credentials) (*LoginResponse, error) {
	if err := c.validate("Credentials", creds); err != nil {
		return nil, err
	}

	var resp LoginResponse
	_, err := c.do(ctx, request{
		method:    http.MethodPost,
		route:     "/auth/login",
		body:      creds,
		out:       &resp,
		anonymous: true,
	})
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register creates an account and returns the response status.
// The API answers 204 when the account can sign in immediately.
func (c *Client) Register(ctx context.Context, reg Registration) (int, error) {
	if err := c.validate("Registration", reg); err != nil {
		return 0, err
	}
	return c.do(ctx, request{
		method:    http.MethodPost,
		route:     "/auth/register",
		body:      reg,
		anonymous: true,
	})
}

// Logout invalidates the current token server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.LogoutToken(ctx, c.Token())
}

// LogoutToken invalidates tok server-side, independent of the token the
// client currently holds.
func (c *Client) LogoutToken(ctx context.Context, tok *oauth2.Token) error {
	_, err := c.do(ctx, request{
		method: http.MethodPost,
		route:  "/auth/logout",
		silent: true,
		token:  tok,
	})
	return err
}

// GetCurrentUser retrieves the currently authenticated user
func (c *Client) GetCurrentUser(ctx context.Context) (*User, error) {
	var user User
	if _, err := c.do(ctx, request{method: http.MethodGet, route: "/users/me", out: &user}); err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUserForToken fetches the profile owned by tok without installing tok on
// the client. A 401 does not trigger OnUnauthorized.
func (c *Client) GetUserForToken(ctx context.Context, tok *oauth2.Token) (*User, error) {
	var user User
	_, err := c.do(ctx, request{
		method: http.MethodGet,
		route:  "/users/me",
		out:    &user,
		silent: true,
		token:  tok,
	})
	if err != nil {
		return nil, err
	}
	return &user, nil
}
