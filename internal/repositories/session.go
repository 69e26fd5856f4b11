package repositories

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/services"
	"github.com/desertthunder/pathwise/internal/session"
	"github.com/desertthunder/pathwise/internal/shared"
)

// SessionRepository persists local session state for one API base URL.
type SessionRepository struct {
	db      *sql.DB
	baseURL string
}

// NewSessionRepository creates a new [SessionRepository] scoped to baseURL.
func NewSessionRepository(db *sql.DB, baseURL string) *SessionRepository {
	return &SessionRepository{db: db, baseURL: baseURL}
}

// ensure creates the row for the base URL if it does not exist yet.
func (r *SessionRepository) ensure(tx *sql.Tx) error {
	_, err := tx.Exec(
		`INSERT INTO sessions (id, base_url) VALUES (?, ?) ON CONFLICT(base_url) DO NOTHING`,
		shared.GenerateID(), r.baseURL,
	)
	if err != nil {
		return fmt.Errorf("failed to create session row: %w", err)
	}
	return nil
}

func (r *SessionRepository) update(column string, value any) error {
	return withTx(r.db, func(tx *sql.Tx) error {
		if err := r.ensure(tx); err != nil {
			return err
		}
		query := fmt.Sprintf(`UPDATE sessions SET %s = ?, updated_at = ? WHERE base_url = ?`, column)
		if _, err := tx.Exec(query, value, time.Now().UTC(), r.baseURL); err != nil {
			return fmt.Errorf("failed to update %s: %w", column, err)
		}
		return nil
	})
}

func (r *SessionRepository) column(column string, dest any) (bool, error) {
	query := fmt.Sprintf(`SELECT %s FROM sessions WHERE base_url = ?`, column)
	err := r.db.QueryRow(query, r.baseURL).Scan(dest)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to query %s: %w", column, err)
	}
	return true, nil
}

// Load implements [session.Store]. A missing row is an unknown session.
func (r *SessionRepository) Load() (session.State, error) {
	var ts sql.NullTime
	if _, err := r.column("last_refreshed_at", &ts); err != nil {
		return session.State{}, err
	}
	if !ts.Valid {
		return session.State{}, nil
	}
	return session.State{LastRefreshedAt: ts.Time}, nil
}

// Save implements [session.Store].
func (r *SessionRepository) Save(s session.State) error {
	var ts sql.NullTime
	if !s.LastRefreshedAt.IsZero() {
		ts = sql.NullTime{Time: s.LastRefreshedAt.UTC(), Valid: true}
	}
	return r.update("last_refreshed_at", ts)
}

// Clear implements [session.Store]. The cached identity and cookies go with it.
func (r *SessionRepository) Clear() error {
	_, err := r.db.Exec(
		`UPDATE sessions SET last_refreshed_at = NULL, user_json = NULL, cookies_json = NULL, updated_at = ? WHERE base_url = ?`,
		time.Now().UTC(), r.baseURL,
	)
	if err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

// SaveUser caches the identity returned by /users/me.
func (r *SessionRepository) SaveUser(u *models.User) error {
	if u == nil {
		return r.update("user_json", sql.NullString{})
	}
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("failed to encode user: %w", err)
	}
	return r.update("user_json", nullString(string(data)))
}

// User returns the cached identity, or nil if there is none.
func (r *SessionRepository) User() (*models.User, error) {
	var raw sql.NullString
	if _, err := r.column("user_json", &raw); err != nil || !raw.Valid {
		return nil, err
	}

	var u models.User
	if err := json.Unmarshal([]byte(raw.String), &u); err != nil {
		return nil, fmt.Errorf("failed to decode cached user: %w", err)
	}
	return &u, nil
}

// SaveCookies stores a snapshot of the cookie jar.
func (r *SessionRepository) SaveCookies(cookies []services.Cookie) error {
	if len(cookies) == 0 {
		return r.update("cookies_json", sql.NullString{})
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return fmt.Errorf("failed to encode cookies: %w", err)
	}
	return r.update("cookies_json", nullString(string(data)))
}

// Cookies returns the stored cookie jar snapshot.
func (r *SessionRepository) Cookies() ([]services.Cookie, error) {
	var raw sql.NullString
	if _, err := r.column("cookies_json", &raw); err != nil || !raw.Valid {
		return nil, err
	}

	var cookies []services.Cookie
	if err := json.Unmarshal([]byte(raw.String), &cookies); err != nil {
		return nil, fmt.Errorf("failed to decode cookies: %w", err)
	}
	return cookies, nil
}

var _ session.Store = (*SessionRepository)(nil)
