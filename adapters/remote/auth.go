package remote

import (
	"context"
	"errors"
)

// Login exchanges credentials for an API token.
//
// API Contract:
//
//	POST /auth/login
//	Request:  {"email": "...", "password": "..."}
//	Response: {"token": "..."}
func Login(ctx context.Context, client *Client, email, password string) (string, error) {
	req := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := client.Request(ctx, "POST", "/auth/login", req, &resp); err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", errors.New("login: empty token in response")
	}
	return resp.Token, nil
}
