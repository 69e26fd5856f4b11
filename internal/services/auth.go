package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
	"golang.org/x/oauth2"
)

// Login exchanges credentials for a session cookie and records the login time.
func (c *Client) Login(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", shared.ErrMissingArgument)
	}

	form := url.Values{"username": {email}, "password": {password}}
	req := Request{
		Method:      http.MethodPost,
		Path:        PathLogin,
		Body:        []byte(form.Encode()),
		ContentType: "application/x-www-form-urlencoded",
	}
	if _, err := c.Do(ctx, req); err != nil {
		if code := StatusCode(err); code == http.StatusBadRequest || code == http.StatusUnauthorized {
			return fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
		}
		return err
	}

	if c.session != nil {
		if err := c.session.Start(); err != nil {
			c.logger.Warn("could not record login", "error", err)
		}
	}
	return nil
}

// Logout invalidates the session. Local state is cleared even when the server
// call fails.
func (c *Client) Logout(ctx context.Context) error {
	if _, err := c.Do(ctx, Request{Method: http.MethodPost, Path: PathLogout}); err != nil {
		c.logger.Warn("logout request failed", "error", err)
	}
	if c.session == nil {
		return nil
	}
	return c.session.Reset()
}

// Me fetches the identity of the current session.
func (c *Client) Me(ctx context.Context) (*models.User, error) {
	var user models.User
	if err := c.DoJSON(ctx, Request{Method: http.MethodGet, Path: PathMe}, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// VerifyToken checks the session without renewing it.
func (c *Client) VerifyToken(ctx context.Context) (*models.TokenStatus, error) {
	var status models.TokenStatus
	if err := c.DoJSON(ctx, Request{Method: http.MethodPost, Path: PathVerify}, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg models.Registration) (*models.User, error) {
	if err := reg.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	req, err := NewJSONRequest(http.MethodPost, PathRegister, reg)
	if err != nil {
		return nil, err
	}

	var user models.User
	if err := c.DoJSON(ctx, req, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// RequestPasswordReset asks the server to email a reset token.
func (c *Client) RequestPasswordReset(ctx context.Context, email string) (*models.Message, error) {
	req, err := NewJSONRequest(http.MethodPost, PathRequestPasswordReset, map[string]string{"email": email})
	if err != nil {
		return nil, err
	}

	var msg models.Message
	if err := c.DoJSON(ctx, req, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// VerifyResetToken checks a reset token before it is used.
func (c *Client) VerifyResetToken(ctx context.Context, token string) (*models.TokenStatus, error) {
	req, err := NewJSONRequest(http.MethodPost, PathVerifyResetToken, map[string]string{"token": token})
	if err != nil {
		return nil, err
	}

	var status models.TokenStatus
	if err := c.DoJSON(ctx, req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// ResetPassword sets a new password using a reset token.
func (c *Client) ResetPassword(ctx context.Context, token, newPassword string) (*models.TokenStatus, error) {
	if strings.TrimSpace(token) == "" || newPassword == "" {
		return nil, fmt.Errorf("%w: token and new password are required", shared.ErrMissingArgument)
	}

	req, err := NewJSONRequest(http.MethodPost, PathResetPassword, map[string]string{
		"token":        token,
		"new_password": newPassword,
	})
	if err != nil {
		return nil, err
	}

	var status models.TokenStatus
	if err := c.DoJSON(ctx, req, &status); err != nil {
		return nil, err
	}
	return &status, nil
}

// GoogleAuthorizeURL returns the Google consent URL to open in a browser.
func (c *Client) GoogleAuthorizeURL(ctx context.Context) (string, error) {
	var out struct {
		AuthorizationURL string `json:"authorization_url"`
	}
	if err := c.DoJSON(ctx, Request{Method: http.MethodGet, Path: PathGoogleAuthorize}, &out); err != nil {
		return "", err
	}
	if out.AuthorizationURL == "" {
		return "", fmt.Errorf("%w: empty authorization url", shared.ErrAPIRequest)
	}
	return out.AuthorizationURL, nil
}

// GoogleCallback hands the code and state received by the local callback
// listener to the API, which sets the session cookie. A bearer-style response
// is returned as a token; a cookie-only response yields nil.
func (c *Client) GoogleCallback(ctx context.Context, code, state string) (*oauth2.Token, error) {
	req := Request{
		Method: http.MethodGet,
		Path:   PathGoogleCallback,
		Query:  url.Values{"code": {code}, "state": {state}},
	}

	var tok oauth2.Token
	if err := c.DoJSON(ctx, req, &tok); err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrAuthFailed, err)
	}

	if c.session != nil {
		if err := c.session.Start(); err != nil {
			c.logger.Warn("could not record login", "error", err)
		}
	}
	if tok.AccessToken == "" {
		return nil, nil
	}
	return &tok, nil
}
