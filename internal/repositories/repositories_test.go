package repositories

import (
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/pathwise/internal/models"
	"github.com/desertthunder/pathwise/internal/services"
	"github.com/desertthunder/pathwise/internal/session"
	"github.com/desertthunder/pathwise/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func TestSessionRepository(t *testing.T) {
	t.Run("Load Without Row", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t), "http://localhost:8000")

		state, err := repo.Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !state.LastRefreshedAt.IsZero() {
			t.Error("expected unknown session")
		}
	})

	t.Run("Save And Load", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t), "http://localhost:8000")
		ts := time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC)

		if err := repo.Save(session.State{LastRefreshedAt: ts}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := repo.Save(session.State{LastRefreshedAt: ts.Add(time.Minute)}); err != nil {
			t.Fatalf("expected no error on upsert, got %v", err)
		}

		state, err := repo.Load()
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !state.LastRefreshedAt.Equal(ts.Add(time.Minute)) {
			t.Errorf("expected %v, got %v", ts.Add(time.Minute), state.LastRefreshedAt)
		}
	})

	t.Run("Scoped By Base URL", func(t *testing.T) {
		db := setupTestDB(t)
		a := NewSessionRepository(db, "http://a.example.com")
		b := NewSessionRepository(db, "http://b.example.com")

		a.Save(session.State{LastRefreshedAt: time.Now()})
		state, _ := b.Load()
		if !state.LastRefreshedAt.IsZero() {
			t.Error("expected sessions to be isolated per base url")
		}
	})

	t.Run("User And Cookies", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t), "http://localhost:8000")

		if u, err := repo.User(); err != nil || u != nil {
			t.Errorf("expected no cached user, got %v %v", u, err)
		}

		if err := repo.SaveUser(&models.User{ID: "u1", Email: "ada@example.com"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := repo.SaveCookies([]services.Cookie{{Name: "auth", Value: "jwt"}}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		u, err := repo.User()
		if err != nil || u == nil || u.Email != "ada@example.com" {
			t.Errorf("unexpected cached user %+v %v", u, err)
		}
		cookies, err := repo.Cookies()
		if err != nil || len(cookies) != 1 || cookies[0].Value != "jwt" {
			t.Errorf("unexpected cookies %v %v", cookies, err)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t), "http://localhost:8000")
		repo.Save(session.State{LastRefreshedAt: time.Now()})
		repo.SaveUser(&models.User{ID: "u1"})
		repo.SaveCookies([]services.Cookie{{Name: "auth", Value: "jwt"}})

		if err := repo.Clear(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		state, _ := repo.Load()
		u, _ := repo.User()
		cookies, _ := repo.Cookies()
		if !state.LastRefreshedAt.IsZero() || u != nil || cookies != nil {
			t.Errorf("expected everything cleared, got %v %v %v", state, u, cookies)
		}
	})

	t.Run("Backs Session Manager", func(t *testing.T) {
		repo := NewSessionRepository(setupTestDB(t), "http://localhost:8000")
		now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

		first := session.NewManager(nil, repo, session.Options{Now: func() time.Time { return now }})
		if err := first.Start(); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		second := session.NewManager(nil, repo, session.Options{})
		if !second.LastRefreshedAt().Equal(now) {
			t.Errorf("expected persisted timestamp %v, got %v", now, second.LastRefreshedAt())
		}
	})
}

func TestChatRepository(t *testing.T) {
	t.Run("Append And History", func(t *testing.T) {
		repo := NewChatRepository(setupTestDB(t))

		if err := repo.Append("p1",
			models.ChatMessage{Role: models.RoleUser, Content: "q1"},
			models.ChatMessage{Role: models.RoleAssistant, Content: "a1"},
		); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := repo.Append("p1", models.ChatMessage{Role: models.RoleUser, Content: "q2"}); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		repo.Append("p2", models.ChatMessage{Role: models.RoleUser, Content: "other"})

		history, err := repo.History("p1", 0)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		var got []string
		for _, m := range history {
			got = append(got, m.Content)
		}
		if strings.Join(got, ",") != "q1,a1,q2" {
			t.Errorf("unexpected history order %v", got)
		}
	})

	t.Run("History Limit Keeps Latest", func(t *testing.T) {
		repo := NewChatRepository(setupTestDB(t))
		for i := range 5 {
			repo.Append("p1", models.ChatMessage{Role: models.RoleUser, Content: fmt.Sprintf("m%d", i)})
		}

		history, err := repo.History("p1", 2)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(history) != 2 || history[0].Content != "m3" || history[1].Content != "m4" {
			t.Errorf("expected last two messages in order, got %v", history)
		}
	})

	t.Run("Empty History", func(t *testing.T) {
		repo := NewChatRepository(setupTestDB(t))
		history, err := repo.History("none", 10)
		if err != nil || history == nil || len(history) != 0 {
			t.Errorf("expected empty non-nil history, got %v %v", history, err)
		}
	})

	t.Run("Rejects Unknown Role", func(t *testing.T) {
		repo := NewChatRepository(setupTestDB(t))
		if err := repo.Append("p1", models.ChatMessage{Role: "system", Content: "x"}); err == nil {
			t.Error("expected constraint violation")
		}
		if h, _ := repo.History("p1", 0); len(h) != 0 {
			t.Error("expected failed append to roll back")
		}
	})

	t.Run("Clear", func(t *testing.T) {
		repo := NewChatRepository(setupTestDB(t))
		repo.Append("p1", models.ChatMessage{Role: models.RoleUser, Content: "x"}, models.ChatMessage{Role: models.RoleAssistant, Content: "y"})

		n, err := repo.Clear("p1")
		if err != nil || n != 2 {
			t.Errorf("expected 2 deleted, got %d %v", n, err)
		}
	})
}
