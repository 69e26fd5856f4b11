package services

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/shared"
)

// Refresher renews the session by calling the refresh endpoint directly on the
// shared transport. It bypasses [Client.Do]: a rejected refresh must fail the
// renewal, not wait on it.
type Refresher struct {
	baseURL    string
	httpClient *http.Client
	logger     *log.Logger
}

func NewRefresher(baseURL string, client *http.Client, logger *log.Logger) *Refresher {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}
	return &Refresher{baseURL: strings.TrimRight(baseURL, "/"), httpClient: client, logger: logger.WithPrefix("refresh")}
}

// Renew implements session.Renewer.
func (r *Refresher) Renew(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.baseURL+PathRefresh, strings.NewReader("{}"))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := do(r.httpClient, req)
	if err != nil {
		return err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		sentinel := shared.ErrAPIRequest
		if resp.StatusCode == http.StatusUnauthorized {
			sentinel = shared.ErrAuthExpired
		}
		return &APIError{
			Method:     http.MethodPost,
			Path:       PathRefresh,
			StatusCode: resp.StatusCode,
			Detail:     detail(resp),
			Err:        sentinel,
		}
	}

	var status models.TokenStatus
	if err := json.Unmarshal(resp.Body, &status); err == nil {
		r.logger.Debug("token refreshed", "user_id", status.UserID, "message", status.Message)
	}
	return nil
}
