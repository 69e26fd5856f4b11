package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/server"
	"github.com/desertthunder/pathwise/internal/services"
	"github.com/desertthunder/pathwise/internal/session"
	"github.com/desertthunder/pathwise/internal/shared"
	"github.com/urfave/cli/v3"
)

const googleSignInTimeout = 2 * time.Minute

// AuthRegister creates an account. It does not sign in.
func (r *Runner) AuthRegister(ctx context.Context, cmd *cli.Command) error {
	reg := models.Registration{
		Email:    cmd.String("email"),
		Username: cmd.String("username"),
		Password: cmd.String("password"),
	}
	if err := promptValue("Email", "email", false, &reg.Email); err != nil {
		return err
	}
	if err := promptValue("Password", "password", true, &reg.Password); err != nil {
		return err
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	user, err := client.Register(ctx, reg)
	if err != nil {
		return err
	}

	r.logger.Info("registered", "user", user.ID)
	r.writePlain("✓ Registered %s\n", user.DisplayName())
	return r.writePlain("Run `pathwise auth login --email %s` to sign in.\n", user.Email)
}

// AuthLogin signs in with email and password, prompting for missing values.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	password := cmd.String("password")
	if err := promptValue("Email", "email", false, &email); err != nil {
		return err
	}
	if err := promptValue("Password", "password", true, &password); err != nil {
		return err
	}

	client, err := r.api()
	if err != nil {
		return err
	}

	if err := client.Login(ctx, email, password); err != nil {
		return err
	}
	return r.welcome(ctx, client)
}

// AuthGoogle runs the Google sign-in flow through a local callback listener.
func (r *Runner) AuthGoogle(ctx context.Context, cmd *cli.Command) error {
	client, err := r.api()
	if err != nil {
		return err
	}

	authURL, err := client.GoogleAuthorizeURL(ctx)
	if err != nil {
		return err
	}
	state, err := server.StateFromURL(authURL)
	if err != nil {
		return err
	}

	handler := server.NewOAuthHandler(client.GoogleCallback, state)
	router := server.NewCallbackRouter(handler, server.RequestLogger(r.logger))

	oauth := r.config.OAuth
	addr := net.JoinHostPort(oauth.CallbackHost, strconv.Itoa(oauth.CallbackPort))
	srv, err := server.StartCallbackServer(addr, router)
	if err != nil {
		return err
	}
	defer func() {
		if err := srv.Shutdown(); err != nil {
			r.logger.Warn("error shutting down callback server", "error", err)
		}
	}()
	r.logger.Infof("waiting for Google callback at %v", oauth.CallbackURL())

	r.writePlain("→ Opening browser for Google sign-in...\n")
	if err := shared.OpenBrowser(authURL); err != nil {
		r.logger.Warnf("failed to open browser automatically %v", err)
		r.writePlainln("⚠ Could not open browser automatically.")
		r.writePlain("Please open this URL in your browser:\n%s\n\n", authURL)
	}

	timeout := cmd.Duration("timeout")
	if timeout <= 0 {
		timeout = googleSignInTimeout
	}
	r.writePlain("→ Waiting for authorization (%s timeout)...\n", timeout)

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, err := handler.Wait(waitCtx); err != nil {
		return err
	}

	return r.welcome(ctx, client)
}

// welcome fetches and caches the signed-in user.
func (r *Runner) welcome(ctx context.Context, client *services.Client) error {
	user, err := client.Me(ctx)
	if err != nil {
		r.logger.Warn("signed in, but could not fetch profile", "error", err)
		return r.writePlain("✓ Signed in\n")
	}
	if r.sessions != nil {
		if err := r.sessions.SaveUser(user); err != nil {
			r.logger.Warn("could not cache user", "error", err)
		}
	}
	return r.writePlain("✓ Signed in as %s\n", user.DisplayName())
}

// AuthLogout ends the session. Local state is cleared regardless of the server's answer.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	client, err := r.api()
	if err != nil {
		return err
	}

	if err := client.Logout(ctx); err != nil {
		return err
	}

	r.mu.Lock()
	r.discardCookies = true
	r.mu.Unlock()
	if r.sessions != nil {
		if err := r.sessions.SaveCookies(nil); err != nil {
			r.logger.Warn("could not clear cookies", "error", err)
		}
	}
	return r.writePlain("✓ Signed out\n")
}

// AuthWhoami prints the current user, from the local cache with --cached.
func (r *Runner) AuthWhoami(ctx context.Context, cmd *cli.Command) error {
	client, err := r.api()
	if err != nil {
		return err
	}

	var user *models.User
	if cmd.Bool("cached") && r.sessions != nil {
		if user, err = r.sessions.User(); err != nil {
			return err
		}
		if user == nil {
			return fmt.Errorf("%w: no cached user, sign in first", shared.ErrNotAuthenticated)
		}
	} else {
		if user, err = client.Me(ctx); err != nil {
			if services.StatusCode(err) == http.StatusUnauthorized || errors.Is(err, shared.ErrRenewalFailed) {
				return fmt.Errorf("%w: %w", shared.ErrNotAuthenticated, err)
			}
			return err
		}
		if r.sessions != nil {
			if err := r.sessions.SaveUser(user); err != nil {
				r.logger.Warn("could not cache user", "error", err)
			}
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(user, true)
	}
	r.writePlain("User: %s\n", user.DisplayName())
	r.writePlain("Email: %s\n", user.Email)
	r.writePlain("ID: %s\n", user.ID)
	return r.writePlain("Verified: %t\n", user.IsVerified)
}

// authStatus is the JSON shape of `auth status`.
type authStatus struct {
	SignedIn        bool       `json:"signed_in"`
	LastRefreshedAt *time.Time `json:"last_refreshed_at,omitempty"`
	RenewalDue      bool       `json:"renewal_due"`
	Subject         string     `json:"subject,omitempty"`
	ExpiresAt       *time.Time `json:"expires_at,omitempty"`
	Valid           *bool      `json:"valid,omitempty"`
}

// AuthStatus reports the local view of the session without contacting the
// API, unless --verify is given.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	client, err := r.api()
	if err != nil {
		return err
	}

	var status authStatus
	var remaining time.Duration
	now := time.Now()

	if r.manager != nil {
		if last := r.manager.LastRefreshedAt(); !last.IsZero() {
			status.LastRefreshedAt = &last
			status.RenewalDue = session.State{LastRefreshedAt: last}.Stale(now, r.config.Session.RenewalThreshold)
		}
	}

	if raw, ok := session.FindToken(services.JarCookies(client.HTTPClient().Jar, client.BaseURL())); ok {
		status.SignedIn = true
		if info, err := session.InspectToken(raw); err != nil {
			r.logger.Debug("session cookie is not a readable token", "error", err)
		} else {
			status.Subject = info.Subject
			if !info.ExpiresAt.IsZero() {
				exp := info.ExpiresAt
				status.ExpiresAt = &exp
				remaining = info.Remaining(now)
			}
		}
	}

	if cmd.Bool("verify") {
		verified, err := client.VerifyToken(ctx)
		valid := err == nil && verified.Valid
		status.Valid = &valid
		if err != nil {
			r.logger.Debug("verify failed", "error", err)
		}
	}

	if cmd.Bool("json") {
		return r.writeJSON(status, true)
	}

	if !status.SignedIn {
		return r.writePlain("✗ Not signed in\n")
	}
	r.writePlain("✓ Signed in")
	if status.Subject != "" {
		r.writePlain(" (user %s)", status.Subject)
	}
	r.writePlain("\n")
	if status.LastRefreshedAt != nil {
		r.writePlain("Last renewed: %s\n", status.LastRefreshedAt.Format(time.RFC3339))
	}
	if status.ExpiresAt != nil {
		if remaining > 0 {
			r.writePlain("Expires: %s (in %s)\n", status.ExpiresAt.Format(time.RFC3339), remaining.Round(time.Second))
		} else {
			r.writePlain("Expired: %s\n", status.ExpiresAt.Format(time.RFC3339))
		}
	}
	if status.RenewalDue {
		r.writePlain("Renewal due: the next request renews in the background\n")
	}
	if status.Valid != nil {
		if *status.Valid {
			r.writePlain("Server: ✓ session valid\n")
		} else {
			r.writePlain("Server: ✗ session rejected\n")
		}
	}
	return nil
}

// AuthRefresh renews the session now.
func (r *Runner) AuthRefresh(ctx context.Context, cmd *cli.Command) error {
	if _, err := r.api(); err != nil {
		return err
	}
	if r.manager == nil {
		return fmt.Errorf("%w: session manager not initialized", shared.ErrServiceUnavailable)
	}

	if err := r.manager.Refresh(ctx); err != nil {
		return err
	}
	return r.writePlain("✓ Session renewed at %s\n", r.manager.LastRefreshedAt().Format(time.Kitchen))
}

// AuthResetRequest asks the API to email a password reset link.
func (r *Runner) AuthResetRequest(ctx context.Context, cmd *cli.Command) error {
	email := cmd.String("email")
	if err := promptValue("Email", "email", false, &email); err != nil {
		return err
	}

	client, err := r.api()
	if err != nil {
		return err
	}
	msg, err := client.RequestPasswordReset(ctx, email)
	if err != nil {
		return err
	}
	return r.writePlain("✓ %s\n", msg.Message)
}

// AuthResetVerify checks a reset token before it is used.
func (r *Runner) AuthResetVerify(ctx context.Context, cmd *cli.Command) error {
	token := cmd.StringArg("token")
	if token == "" {
		return fmt.Errorf("%w: token", shared.ErrMissingArgument)
	}

	client, err := r.api()
	if err != nil {
		return err
	}
	status, err := client.VerifyResetToken(ctx, token)
	if err != nil {
		return err
	}
	if !status.Valid {
		return fmt.Errorf("%w: reset token is not valid: %s", shared.ErrInvalidInput, status.Message)
	}
	return r.writePlain("✓ Reset token is valid\n")
}

// AuthReset sets a new password with a reset token.
func (r *Runner) AuthReset(ctx context.Context, cmd *cli.Command) error {
	token := cmd.String("token")
	password := cmd.String("password")
	if token == "" {
		return fmt.Errorf("%w: --token", shared.ErrMissingArgument)
	}
	if err := promptValue("New password", "password", true, &password); err != nil {
		return err
	}

	client, err := r.api()
	if err != nil {
		return err
	}
	status, err := client.ResetPassword(ctx, token, password)
	if err != nil {
		return err
	}
	msg := status.Message
	if msg == "" {
		msg = "Password updated"
	}
	return r.writePlain("✓ %s\n", msg)
}
