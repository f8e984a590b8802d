package client

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// Login exchanges credentials for a token pair and the account. 4xx
// rejections surface as ErrInvalidCredentials carrying the server detail.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	in := map[string]string{"email": email, "password": password}

	var out AuthResponse
	if err := c.Post(ctx, "/users/token/", in, &out); err != nil {
		return nil, asCredentialError(err)
	}
	return &out, nil
}

// Register creates an account. On success the backend issues tokens
// immediately, so registration doubles as login.
func (c *Client) Register(ctx context.Context, input RegisterInput) (*AuthResponse, error) {
	var out AuthResponse
	if err := c.Post(ctx, "/users/register/", input, &out); err != nil {
		return nil, asCredentialError(err)
	}
	return &out, nil
}

// Me fetches the authoritative account for the current token.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out User
	if err := c.Get(ctx, "/users/me/", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateCompanyUserInput is the payload for provisioning a company-side
// account. Verification staff only.
type CreateCompanyUserInput struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	Role      string `json:"role"`
	CompanyID int64  `json:"company"`
}

// CreateCompanyUser provisions an account bound to a company.
func (c *Client) CreateCompanyUser(ctx context.Context, input CreateCompanyUserInput) (*User, error) {
	var out User
	if err := c.Post(ctx, "/users/create_company_user/", input, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func asCredentialError(err error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) &&
		(apiErr.Status == http.StatusBadRequest || apiErr.Status == http.StatusUnauthorized) {
		return fmt.Errorf("%w: %s", ErrInvalidCredentials, apiErr.Detail)
	}
	return err
}
