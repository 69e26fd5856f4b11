package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/pathwise/internal/shared"
)

// RetryHeader marks a request re-issued after a session renewal.
const RetryHeader = "X-Auth-Retry"

// Request describes one API call. Body is kept as bytes so the call can be
// re-issued unchanged after a renewal.
type Request struct {
	Method      string
	Path        string
	Query       url.Values
	Body        []byte
	ContentType string

	retry bool
}

// NewJSONRequest encodes payload as the request body.
func NewJSONRequest(method, path string, payload any) (Request, error) {
	req := Request{Method: method, Path: path}
	if payload == nil {
		return req, nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return req, fmt.Errorf("failed to encode request: %w", err)
	}
	req.Body = body
	req.ContentType = "application/json"
	return req, nil
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// APIError is a non-2xx response.
type APIError struct {
	Method     string
	Path       string
	StatusCode int
	Detail     string
	Err        error
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%v: %s %s returned %d", e.Err, e.Method, e.Path, e.StatusCode)
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	return msg
}

func (e *APIError) Unwrap() error { return e.Err }

// StatusCode extracts the HTTP status from an [*APIError] in err's chain, or 0.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Client is the request pipeline. Every call goes through [Client.Do], which
// renews the session ahead of expiry and transparently retries once after a
// 401.
type Client struct {
	baseURL    string
	httpClient *http.Client
	session    Session
	logger     *log.Logger
}

// NewClient creates a pipeline for the API at baseURL.
func NewClient(baseURL string, client *http.Client, sess Session, logger *log.Logger) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8000"
	}
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = shared.NewLogger(io.Discard)
	}

	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: client,
		session:    sess,
		logger:     logger.WithPrefix("api"),
	}
}

// BaseURL returns the API root.
func (c *Client) BaseURL() string { return c.baseURL }

// HTTPClient returns the transport shared with the session renewer.
func (c *Client) HTTPClient() *http.Client { return c.httpClient }

// Do sends req. On a 401 it waits for the session to be renewed and re-issues
// req exactly once; a second 401 fails with [shared.ErrRetryExhausted].
//
// The response is returned alongside an [*APIError] for non-2xx statuses.
func (c *Client) Do(ctx context.Context, req Request) (*APIResponse, error) {
	var gen uint64
	if c.session != nil {
		gen = c.session.Generation()
		c.session.MaybeRenew()
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized || c.session == nil {
		return resp, c.check(req, resp)
	}

	if req.retry {
		c.logger.Debug("rejected after renewal", "method", req.Method, "path", req.Path)
		return resp, c.apiError(req, resp, shared.ErrRetryExhausted)
	}

	c.logger.Debug("session expired, renewing", "method", req.Method, "path", req.Path, "generation", gen)
	if err := c.session.Renew(ctx, gen); err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.method(), req.Path, err)
	}

	req.retry = true
	resp, err = c.send(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		return resp, c.apiError(req, resp, shared.ErrRetryExhausted)
	}
	return resp, c.check(req, resp)
}

// DoJSON sends req and decodes a successful response body into out.
func (c *Client) DoJSON(ctx context.Context, req Request, out any) error {
	resp, err := c.Do(ctx, req)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(resp.Body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(resp.Body, out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", req.Path, err)
	}
	return nil
}

// Get performs a GET request to path through the pipeline.
func (c *Client) Get(ctx context.Context, path string) (*APIResponse, error) {
	return c.Do(ctx, Request{Method: http.MethodGet, Path: path})
}

// Post performs a POST request with the given JSON data through the pipeline.
func (c *Client) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return c.Do(ctx, Request{Method: http.MethodPost, Path: path, Body: data, ContentType: "application/json"})
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return r.Method
}

func (c *Client) url(path string, query url.Values) string {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) send(ctx context.Context, req Request) (*APIResponse, error) {
	var body io.Reader
	if req.Body != nil {
		body = bytes.NewReader(req.Body)
	}

	hreq, err := http.NewRequestWithContext(ctx, req.method(), c.url(req.Path, req.Query), body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	hreq.Header.Set("Accept", "application/json")
	if req.ContentType != "" {
		hreq.Header.Set("Content-Type", req.ContentType)
	}
	if req.retry {
		hreq.Header.Set(RetryHeader, "true")
	}

	return do(c.httpClient, hreq)
}

func do(client *http.Client, req *http.Request) (*APIResponse, error) {
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %w", shared.ErrTransport, req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %w", shared.ErrTransport, err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       body,
	}

	var jsonData any
	if err := json.Unmarshal(body, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}

func (c *Client) check(req Request, resp *APIResponse) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return c.apiError(req, resp, shared.ErrAPIRequest)
}

func (c *Client) apiError(req Request, resp *APIResponse, sentinel error) *APIError {
	return &APIError{
		Method:     req.method(),
		Path:       req.Path,
		StatusCode: resp.StatusCode,
		Detail:     detail(resp),
		Err:        sentinel,
	}
}

// detail extracts FastAPI's error message: either {"detail": "msg"} or a list
// of validation errors carrying "msg".
func detail(resp *APIResponse) string {
	obj, ok := resp.JSONData.(map[string]any)
	if !ok {
		text := strings.TrimSpace(string(resp.Body))
		if len(text) > 200 {
			text = text[:200] + "..."
		}
		return text
	}

	switch d := obj["detail"].(type) {
	case string:
		return d
	case []any:
		msgs := make([]string, 0, len(d))
		for _, item := range d {
			if m, ok := item.(map[string]any); ok {
				if msg, ok := m["msg"].(string); ok {
					msgs = append(msgs, msg)
				}
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
