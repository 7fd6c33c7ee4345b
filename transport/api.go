package transport

import (
	"context"
	"net/http"
)

// UserRecord is the user object returned by the service.
type UserRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	CreatedAt string `json:"createdAt"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Success bool        `json:"success"`
	Token   string      `json:"token,omitempty"`
	User    *UserRecord `json:"user,omitempty"`
	Message string      `json:"message,omitempty"`
}

type MeResponse struct {
	Success bool        `json:"success"`
	User    *UserRecord `json:"user,omitempty"`
	Message string      `json:"message,omitempty"`
}

const (
	PathRegister = "/auth/register"
	PathLogin    = "/auth/login"
	PathMe       = "/auth/me"
)

// AuthAPI groups the remote authentication endpoints.
type AuthAPI struct {
	client *Client
}

// Auth returns the endpoint group bound to c.
func (c *Client) Auth() *AuthAPI {
	return &AuthAPI{client: c}
}

func (a *AuthAPI) Register(ctx context.Context, req RegisterRequest) (*RegisterResponse, error) {
	var out RegisterResponse
	if err := a.client.Do(ctx, http.MethodPost, PathRegister, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (a *AuthAPI) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	var out LoginResponse
	if err := a.client.Do(ctx, http.MethodPost, PathLogin, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Me returns the user behind the current bearer token.
func (a *AuthAPI) Me(ctx context.Context) (*MeResponse, error) {
	var out MeResponse
	if err := a.client.Do(ctx, http.MethodGet, PathMe, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
