package client

import (
	"context"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"strconv"
)

// Profile is a user record exactly as the API returned it. Fields are kept
// verbatim so that newer server fields survive a round trip.
type Profile map[string]any

// Field returns a top-level field as a string, or "" when missing
func (p Profile) Field(key string) string {
	switch v := p[key].(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(v)
	default:
		return fmt.Sprint(v)
	}
}

// ID returns the user id as a string, whatever its JSON type
func (p Profile) ID() string { return p.Field("id") }

// Email returns the email field
func (p Profile) Email() string { return p.Field("email") }

// Role returns the raw role field
func (p Profile) Role() string { return p.Field("role") }

// FullName joins firstName and lastName
func (p Profile) FullName() string {
	first, last := p.Field("firstName"), p.Field("lastName")
	switch {
	case first == "":
		return last
	case last == "":
		return first
	}
	return first + " " + last
}

// Clone returns a shallow copy. Nested values are shared.
func (p Profile) Clone() Profile {
	if p == nil {
		return nil
	}
	return maps.Clone(p)
}

// Merge returns a copy of p with every top-level field of partial applied on top
func (p Profile) Merge(partial Profile) Profile {
	merged := make(Profile, len(p)+len(partial))
	maps.Copy(merged, p)
	maps.Copy(merged, partial)
	return merged
}

// Credentials is the login request body
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the register request body
type Registration struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Role      string `json:"role,omitempty"`
}

// AuthPayload is the data of a login or register response
type AuthPayload struct {
	User  Profile `json:"user"`
	Token string  `json:"token"`
}

type userPayload struct {
	User Profile `json:"user"`
}

type usersPayload struct {
	Users []Profile `json:"users"`
}

// CurrentUser fetches the profile of the token's owner
func (c *Client) CurrentUser(ctx context.Context) (Profile, error) {
	var out userPayload
	if err := c.do(ctx, http.MethodGet, "/api/auth/me", nil, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("failed to decode response: missing user")
	}
	return out.User, nil
}

// Login authenticates with email and password
func (c *Client) Login(ctx context.Context, creds Credentials) (*AuthPayload, error) {
	return c.authenticate(ctx, "/api/auth/login", creds)
}

// Register creates an account and signs it in
func (c *Client) Register(ctx context.Context, reg Registration) (*AuthPayload, error) {
	return c.authenticate(ctx, "/api/auth/register", reg)
}

func (c *Client) authenticate(ctx context.Context, path string, body any) (*AuthPayload, error) {
	var out AuthPayload
	if err := c.do(ctx, http.MethodPost, path, body, &out); err != nil {
		return nil, err
	}
	if out.User == nil || out.Token == "" {
		return nil, fmt.Errorf("failed to decode response: missing user or token")
	}
	return &out, nil
}

// Logout revokes the current bearer token server-side
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/api/auth/logout", nil, nil)
}

// UpdateProfile sends a partial profile update and returns the fields the server sent back
func (c *Client) UpdateProfile(ctx context.Context, partial Profile) (Profile, error) {
	var out userPayload
	if err := c.do(ctx, http.MethodPatch, "/api/auth/profile", partial, &out); err != nil {
		return nil, err
	}
	if out.User == nil {
		return nil, fmt.Errorf("failed to decode response: missing user")
	}
	return out.User, nil
}

// ListUsers returns all users, optionally filtered by role (admin only)
func (c *Client) ListUsers(ctx context.Context, role string) ([]Profile, error) {
	path := "/api/users"
	if role != "" {
		path += "?role=" + url.QueryEscape(role)
	}

	var out usersPayload
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return out.Users, nil
}
