package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/desertthunder/pathwise/internal/session"
	"github.com/desertthunder/pathwise/internal/shared"
	tu "github.com/desertthunder/pathwise/internal/testing"
)

// newPipeline wires a client, refresher and session manager against api.
func newPipeline(t *testing.T, api *tu.FakeAPI, opts session.Options) (*Client, *session.Manager) {
	t.Helper()
	httpClient, err := NewHTTPClient(5 * time.Second)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	mgr := session.NewManager(NewRefresher(api.URL, httpClient, nil), session.NewMemoryStore(session.State{}), opts)
	return NewClient(api.URL, httpClient, mgr, nil), mgr
}

func TestClient(t *testing.T) {
	t.Run("New", func(t *testing.T) {
		t.Run("With Empty BaseURL", func(t *testing.T) {
			c := NewClient("", nil, nil, nil)
			if c.BaseURL() != "http://localhost:8000" {
				t.Errorf("expected default baseURL, got %s", c.BaseURL())
			}
			if c.HTTPClient() != http.DefaultClient {
				t.Error("expected http.DefaultClient to be used")
			}
		})

		t.Run("Trims Trailing Slash", func(t *testing.T) {
			c := NewClient("http://example.com/", nil, nil, nil)
			if c.BaseURL() != "http://example.com" {
				t.Errorf("expected trimmed baseURL, got %s", c.BaseURL())
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("Successful Request With JSON Response", func(t *testing.T) {
			api := tu.NewFakeAPI(t)
			api.Handle("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
				tu.WriteJSON(w, http.StatusOK, map[string]string{"email": "ada@example.com"})
			})
			c, _ := newPipeline(t, api, session.Options{})

			resp, err := c.Get(context.Background(), "/users/me")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if resp.StatusCode != http.StatusOK {
				t.Errorf("expected status 200, got %d", resp.StatusCode)
			}
			if !resp.IsJSON || resp.JSONData == nil {
				t.Error("expected JSON response")
			}
			if api.Calls("GET", "/users/me")[0].Retry {
				t.Error("expected first attempt to be unmarked")
			}
		})

		t.Run("Non JSON Error Response", func(t *testing.T) {
			api := tu.NewFakeAPI(t)
			api.Handle("GET /broken", func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				w.Write([]byte("Internal Server Error"))
			})
			c, _ := newPipeline(t, api, session.Options{})

			resp, err := c.Get(context.Background(), "/broken")
			if !errors.Is(err, shared.ErrAPIRequest) {
				t.Fatalf("expected ErrAPIRequest, got %v", err)
			}
			if resp == nil || resp.IsJSON {
				t.Error("expected raw non-JSON response alongside the error")
			}
			if StatusCode(err) != http.StatusInternalServerError {
				t.Errorf("expected status 500, got %d", StatusCode(err))
			}
		})
	})

	t.Run("Post", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle("POST /echo", func(w http.ResponseWriter, r *http.Request) {
			if r.Header.Get("Content-Type") != "application/json" {
				t.Errorf("expected JSON content type, got %s", r.Header.Get("Content-Type"))
			}
			w.WriteHeader(http.StatusCreated)
		})
		c, _ := newPipeline(t, api, session.Options{})

		resp, err := c.Post(context.Background(), "/echo", []byte(`{"a":1}`))
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if resp.StatusCode != http.StatusCreated {
			t.Errorf("expected 201, got %d", resp.StatusCode)
		}
		if string(api.Calls("POST", "/echo")[0].Body) != `{"a":1}` {
			t.Error("expected body to be forwarded")
		}
	})

	t.Run("Transport Error", func(t *testing.T) {
		c := NewClient("http://example.com", &http.Client{Transport: tu.NewMockRoundTripper(nil, errors.New("connection refused"))}, nil, nil)

		_, err := c.Get(context.Background(), "/users/me")
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})

	t.Run("Read Error", func(t *testing.T) {
		resp := &http.Response{StatusCode: http.StatusOK, Body: &tu.FCloser{}, Header: http.Header{}}
		c := NewClient("http://example.com", &http.Client{Transport: tu.NewMockRoundTripper(resp, nil)}, nil, nil)

		_, err := c.Get(context.Background(), "/users/me")
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected ErrTransport, got %v", err)
		}
	})
}

func TestPipelineRenewal(t *testing.T) {
	t.Run("Concurrent 401s Share One Renewal", func(t *testing.T) {
		api := tu.NewFakeAPI(t)

		var renewed atomic.Bool
		var rejected sync.WaitGroup
		rejected.Add(3)
		api.Handle("GET /pathways/{id}/status", func(w http.ResponseWriter, r *http.Request) {
			if !renewed.Load() {
				rejected.Done()
				tu.WriteDetail(w, http.StatusUnauthorized, "Unauthorized")
				return
			}
			tu.WriteJSON(w, http.StatusOK, map[string]any{"total_topics": 4, "completed_topics_count": 2, "completion_percentage": 50.0})
		})
		api.Handle("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
			rejected.Wait()
			time.Sleep(50 * time.Millisecond)
			renewed.Store(true)
			tu.WriteJSON(w, http.StatusOK, map[string]any{"valid": true, "user_id": "u1"})
		})
		c, mgr := newPipeline(t, api, session.Options{})

		var wg sync.WaitGroup
		errs := make(chan error, 3)
		for range 3 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				status, err := c.PathwayStatus(context.Background(), "5")
				if err == nil && status.CompletionPercentage != 50 {
					err = errors.New("unexpected status payload")
				}
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if err != nil {
				t.Errorf("expected no error, got %v", err)
			}
		}
		if got := api.Count("POST", "/auth/refresh-token"); got != 1 {
			t.Errorf("expected exactly 1 refresh call, got %d", got)
		}

		calls := api.Calls("GET", "/pathways/5/status")
		retries := 0
		for _, call := range calls {
			if call.Retry {
				retries++
			}
		}
		if len(calls) != 6 || retries != 3 {
			t.Errorf("expected 3 rejected calls and 3 marked retries, got %d calls and %d retries", len(calls), retries)
		}
		if mgr.LastRefreshedAt().IsZero() {
			t.Error("expected renewal timestamp to be recorded")
		}
	})

	t.Run("Retry Rejected Again Does Not Loop", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteDetail(w, http.StatusUnauthorized, "Unauthorized")
		})
		api.Handle("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, map[string]any{"valid": true})
		})
		c, _ := newPipeline(t, api, session.Options{})

		_, err := c.Me(context.Background())
		if !errors.Is(err, shared.ErrRetryExhausted) {
			t.Fatalf("expected ErrRetryExhausted, got %v", err)
		}
		if got := api.Count("POST", "/auth/refresh-token"); got != 1 {
			t.Errorf("expected 1 refresh call, got %d", got)
		}
		if got := api.Count("GET", "/users/me"); got != 2 {
			t.Errorf("expected original call plus one retry, got %d", got)
		}
	})

	t.Run("Renewal Failure Reaches Every Caller", func(t *testing.T) {
		api := tu.NewFakeAPI(t)

		var rejected sync.WaitGroup
		rejected.Add(3)
		api.Handle("GET /pathways/{id}", func(w http.ResponseWriter, r *http.Request) {
			rejected.Done()
			tu.WriteDetail(w, http.StatusUnauthorized, "Unauthorized")
		})
		api.Handle("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
			rejected.Wait()
			tu.WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
		})

		var terminations atomic.Int32
		c, _ := newPipeline(t, api, session.Options{
			Route:        func() string { return "/pathways" },
			OnTerminated: func(string) { terminations.Add(1) },
		})

		var wg sync.WaitGroup
		errs := make(chan error, 3)
		for _, id := range []string{"a", "b", "c"} {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := c.GetPathway(context.Background(), id)
				errs <- err
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			if !errors.Is(err, shared.ErrRenewalFailed) || !errors.Is(err, shared.ErrAuthExpired) {
				t.Errorf("expected renewal failure, got %v", err)
			}
		}
		if got := api.Count("POST", "/auth/refresh-token"); got != 1 {
			t.Errorf("expected 1 refresh call, got %d", got)
		}
		if got := terminations.Load(); got != 1 {
			t.Errorf("expected 1 termination, got %d", got)
		}
	})

	t.Run("Non 401 Errors Pass Through", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle("GET /pathways/{id}", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteDetail(w, http.StatusForbidden, "Not your pathway")
		})
		c, _ := newPipeline(t, api, session.Options{})

		_, err := c.GetPathway(context.Background(), "x")
		var apiErr *APIError
		if !errors.As(err, &apiErr) {
			t.Fatalf("expected *APIError, got %v", err)
		}
		if apiErr.Detail != "Not your pathway" || apiErr.StatusCode != http.StatusForbidden {
			t.Errorf("unexpected error %+v", apiErr)
		}
		if api.Count("POST", "/auth/refresh-token") != 0 {
			t.Error("expected no renewal for a 403")
		}
	})

	t.Run("Stale Session Renews Ahead Of Request", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, map[string]string{"id": "u1"})
		})
		api.Handle("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, map[string]any{"valid": true})
		})

		httpClient, _ := NewHTTPClient(time.Second)
		start := time.Now().Add(-20 * time.Minute)
		mgr := session.NewManager(NewRefresher(api.URL, httpClient, nil), session.NewMemoryStore(session.State{LastRefreshedAt: start}), session.Options{})
		c := NewClient(api.URL, httpClient, mgr, nil)

		if _, err := c.Me(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		mgr.Wait()

		if got := api.Count("POST", "/auth/refresh-token"); got != 1 {
			t.Errorf("expected 1 proactive refresh, got %d", got)
		}
		if !mgr.LastRefreshedAt().After(start) {
			t.Error("expected renewal timestamp to advance")
		}
	})

	t.Run("Proactive Failure Is Invisible", func(t *testing.T) {
		api := tu.NewFakeAPI(t)
		api.Handle("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
			tu.WriteJSON(w, http.StatusOK, map[string]string{"id": "u1"})
		})
		api.Handle("POST /auth/refresh-token", func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})

		httpClient, _ := NewHTTPClient(time.Second)
		mgr := session.NewManager(NewRefresher(api.URL, httpClient, nil), session.NewMemoryStore(session.State{LastRefreshedAt: time.Now().Add(-time.Hour)}), session.Options{})
		c := NewClient(api.URL, httpClient, mgr, nil)

		if _, err := c.Me(context.Background()); err != nil {
			t.Fatalf("expected proactive failure to stay hidden, got %v", err)
		}
		mgr.Wait()
	})
}

func TestRefresher(t *testing.T) {
	t.Run("Updates Cookie Jar", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != PathRefresh || r.Method != http.MethodPost {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			http.SetCookie(w, &http.Cookie{Name: "auth", Value: "renewed", Path: "/"})
			tu.WriteJSON(w, http.StatusOK, map[string]any{"valid": true, "user_id": "u1"})
		}))
		defer srv.Close()

		httpClient, _ := NewHTTPClient(time.Second)
		if err := NewRefresher(srv.URL, httpClient, nil).Renew(context.Background()); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		cookies, err := ExportCookies(httpClient.Jar, srv.URL)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(cookies) != 1 || cookies[0].Value != "renewed" {
			t.Errorf("expected renewed cookie in jar, got %v", cookies)
		}
	})

	t.Run("Rejected", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tu.WriteDetail(w, http.StatusUnauthorized, "Not authenticated")
		}))
		defer srv.Close()

		err := NewRefresher(srv.URL, nil, nil).Renew(context.Background())
		if !errors.Is(err, shared.ErrAuthExpired) {
			t.Errorf("expected ErrAuthExpired, got %v", err)
		}
	})
}

func TestCookies(t *testing.T) {
	const base = "http://api.example.com"

	httpClient, err := NewHTTPClient(time.Second)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if err := ImportCookies(httpClient.Jar, base, []Cookie{{Name: "auth", Value: "jwt"}}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	got, err := ExportCookies(httpClient.Jar, base+"/pathways/")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(got) != 1 || got[0].Name != "auth" || got[0].Value != "jwt" {
		t.Errorf("expected round-tripped auth cookie, got %v", got)
	}
	if len(JarCookies(httpClient.Jar, base)) != 1 {
		t.Error("expected raw jar cookie")
	}
	if _, err := ExportCookies(httpClient.Jar, "://bad"); err == nil {
		t.Error("expected error for invalid url")
	}
}

func TestDetail(t *testing.T) {
	tc := []struct {
		name string
		body string
		want string
	}{
		{name: "String Detail", body: `{"detail":"LOGIN_BAD_CREDENTIALS"}`, want: "LOGIN_BAD_CREDENTIALS"},
		{name: "Validation Errors", body: `{"detail":[{"msg":"field required"},{"msg":"too long"}]}`, want: "field required; too long"},
		{name: "Plain Text", body: "Bad Gateway", want: "Bad Gateway"},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			resp := &APIResponse{Body: []byte(tt.body)}
			var data any
			if err := json.Unmarshal([]byte(tt.body), &data); err == nil {
				resp.IsJSON, resp.JSONData = true, data
			}
			if got := detail(resp); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}
