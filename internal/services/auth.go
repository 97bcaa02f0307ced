package services

import (
	"context"
	"fmt"
	"net/http"

	"github.com/desertthunder/equipx/internal/models"
	"github.com/desertthunder/equipx/internal/session"
	"github.com/desertthunder/equipx/internal/shared"
)

// Login posts the credentials and stores the returned token.
func (c *Client) Login(ctx context.Context, creds models.Credentials) (*session.Session, error) {
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	var resp models.LoginResponse
	if err := c.doPublic(ctx, http.MethodPost, c.userURL("/login"), creds, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("%w: no token in login response", shared.ErrAuthFailed)
	}

	s, err := c.sessions.Login(ctx, resp.Token)
	if err != nil {
		return nil, err
	}
	c.logger.Info("logged in", "user", s.Username(), "role", s.Role())
	return s, nil
}

func (c *Client) Register(ctx context.Context, r models.Registration) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return c.doPublic(ctx, http.MethodPost, c.userURL("/register"), r, nil)
}

func (c *Client) ResetPassword(ctx context.Context, r models.PasswordReset) error {
	if err := r.Validate(); err != nil {
		return err
	}
	return c.doPublic(ctx, http.MethodPut, c.userURL("/reset-password"), r, nil)
}

// Logout forgets the token. The backend keeps no server-side session.
func (c *Client) Logout(ctx context.Context) error {
	return c.sessions.Invalidate(ctx)
}

func (c *Client) Enable2FA(ctx context.Context) (*models.TwoFactorSetup, error) {
	var out models.TwoFactorSetup
	if err := c.do(ctx, http.MethodPost, c.userURL("/2fa/enable"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Verify2FA(ctx context.Context, code int) (*models.RecoveryCodes, error) {
	var out models.RecoveryCodes
	if err := c.do(ctx, http.MethodPost, c.userURL("/2fa/verify"), models.TwoFactorVerification{Code: code}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Disable2FA(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, c.userURL("/2fa/disable"), nil, nil)
}

func (c *Client) Profile(ctx context.Context) (*models.User, error) {
	var out models.User
	if err := c.do(ctx, http.MethodGet, c.userURL("/profile"), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateProfile(ctx context.Context, p models.ProfileUpdate) (*models.User, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	var out models.User
	if err := c.do(ctx, http.MethodPut, c.userURL("/profile"), p, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
