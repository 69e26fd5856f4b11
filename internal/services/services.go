// package services implements the request pipeline and typed clients for the
// learning-pathway API
package services

import (
	"context"
)

// Session is the part of [session.Manager] the pipeline depends on.
type Session interface {
	// Generation identifies the current renewal cycle.
	Generation() uint64
	// MaybeRenew starts a background renewal if the session looks stale.
	MaybeRenew() bool
	// Renew blocks until the session has been renewed after generation gen.
	Renew(ctx context.Context, gen uint64) error
	// Start records a fresh login.
	Start() error
	// Reset forgets the session.
	Reset() error
}

// API paths used by the client.
const (
	PathLogin                = "/auth/jwt/login"
	PathLogout               = "/auth/jwt/logout"
	PathRefresh              = "/auth/refresh-token"
	PathVerify               = "/auth/verify-token"
	PathRegister             = "/auth/register"
	PathRequestPasswordReset = "/auth/request-password-reset"
	PathVerifyResetToken     = "/auth/verify-reset-token"
	PathResetPassword        = "/auth/reset-password"
	PathGoogleAuthorize      = "/auth/google/authorize"
	PathGoogleCallback       = "/auth/google/callback"
	PathMe                   = "/users/me"
	PathPathways             = "/pathways/"
	PathGeneratePathway      = "/pathways/generate"
	PathGenerateQuiz         = "/pathways/generate-quiz"
)
