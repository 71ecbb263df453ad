package client

import (
	"context"
	"net/http"
)

type LoginResponse struct {
	User struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Avatar   string `json:"avatar"`
	} `json:"user"`
	Token string `json:"token"`
}

// AuthClient signs in against the storefront service.
type AuthClient struct {
	httpClient
}

func NewAuthClient(baseURL string) *AuthClient {
	return &AuthClient{httpClient: newHTTPClient(baseURL, "")}
}

func (c *AuthClient) Login(ctx context.Context, username, password string) (*LoginResponse, error) {
	body := map[string]string{"username": username, "password": password}
	var out LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
