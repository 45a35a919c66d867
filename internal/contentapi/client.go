// Package contentapi is the HTTP client for the content backend. It attaches
// the stored admin credential to every request and transparently refreshes
// an expired credential once per request.
package contentapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/mitaan/mitaan/internal/credstore"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
)

// refreshCookie is the cookie the backend uses to carry the refresh token.
const refreshCookie = "refresh_token"

// Client is an HTTP client for the content backend.
type Client struct {
	BaseURL string
	HTTP    *http.Client

	store   credstore.Store
	logger  *zap.Logger
	limiter *rate.Limiter
	refresh singleflight.Group
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.HTTP = h }
}

// WithLogger sets the logger used for auth and transport diagnostics.
func WithLogger(l *zap.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// WithMutationLimit throttles authenticated non-GET requests. A nil limiter disables
// throttling.
func WithMutationLimit(l *rate.Limiter) Option {
	return func(c *Client) { c.limiter = l }
}

// New creates a client for the backend at baseURL. Credentials are read
// from and written to store.
func New(baseURL string, store credstore.Store, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 30 * time.Second},
		store:   store,
		logger:  zap.NewNop(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is an error response that does not map to a sentinel class.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("HTTP %d: %s", e.Status, e.Message)
	}
	return fmt.Sprintf("HTTP %d", e.Status)
}

// errorBody accepts both {"error": "..."} and {"code", "message"} bodies.
type errorBody struct {
	Error   string `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (b errorBody) text() string {
	switch {
	case b.Error != "":
		return b.Error
	case b.Message != "":
		return b.Message
	default:
		return b.Code
	}
}

// request is a fully buffered request so it can be re-issued after a
// credential refresh.
type request struct {
	method      string
	path        string
	body        []byte
	contentType string
	auth        bool
	retried     bool
	cookies     []*http.Cookie
}

// response is a buffered response.
type response struct {
	status  int
	body    []byte
	cookies []*http.Cookie
}

// do executes an authenticated JSON request, decoding the response into
// result when non-nil.
func (c *Client) do(ctx context.Context, method, path string, body, result any) error {
	return c.doJSON(ctx, method, path, body, result, true)
}

func (c *Client) doJSON(ctx context.Context, method, path string, body, result any, auth bool) error {
	req := &request{method: method, path: path, auth: auth}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		req.body = data
		req.contentType = "application/json"
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	if result != nil && len(resp.body) > 0 {
		if err := json.Unmarshal(resp.body, result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

// send issues req and, for an authenticated request rejected with 401,
// refreshes the credential and re-issues it exactly once. When the refresh
// fails the stored credential is cleared and the original error returned.
func (c *Client) send(ctx context.Context, req *request) (*response, error) {
	if req.auth && req.method != http.MethodGet && c.limiter != nil && !req.retried {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("mutation rate limit: %w", err)
		}
	}

	resp, err := c.roundTrip(ctx, req)
	if err == nil || !req.auth || req.retried || !errors.Is(err, ErrUnauthorized) {
		return resp, err
	}

	c.logger.Debug("credential rejected, refreshing", zap.String("method", req.method), zap.String("path", req.path))
	if rerr := c.refreshToken(ctx); rerr != nil {
		c.logger.Warn("credential refresh failed", zap.Error(rerr))
		if cerr := credstore.ClearSession(c.store); cerr != nil {
			c.logger.Error("clear credentials", zap.Error(cerr))
		}
		return nil, err
	}

	retry := *req
	retry.retried = true
	return c.roundTrip(ctx, &retry)
}

func (c *Client) roundTrip(ctx context.Context, req *request) (*response, error) {
	var bodyReader io.Reader
	if req.body != nil {
		bodyReader = bytes.NewReader(req.body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.method, c.BaseURL+req.path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if req.contentType != "" {
		httpReq.Header.Set("Content-Type", req.contentType)
	}
	if req.auth {
		token, ok, err := c.store.Get(credstore.KeyAdminToken)
		if err != nil {
			return nil, fmt.Errorf("load credential: %w", err)
		}
		if ok && token != "" {
			httpReq.Header.Set("Authorization", "Bearer "+token)
		}
	}
	for _, ck := range req.cookies {
		httpReq.AddCookie(ck)
	}

	httpResp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer httpResp.Body.Close()

	respBody, err := io.ReadAll(httpResp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	resp := &response{status: httpResp.StatusCode, body: respBody, cookies: httpResp.Cookies()}

	if httpResp.StatusCode >= 400 {
		return resp, classify(httpResp.StatusCode, respBody)
	}
	return resp, nil
}

func classify(status int, body []byte) error {
	var eb errorBody
	msg := ""
	if json.Unmarshal(body, &eb) == nil {
		msg = eb.text()
	}
	if msg == "" {
		msg = strings.TrimSpace(string(body))
		if len(msg) > 200 {
			msg = msg[:200]
		}
	}

	var sentinel error
	switch status {
	case http.StatusUnauthorized:
		sentinel = ErrUnauthorized
	case http.StatusForbidden:
		sentinel = ErrForbidden
	case http.StatusNotFound:
		sentinel = ErrNotFound
	case http.StatusTooManyRequests:
		sentinel = ErrRateLimited
	default:
		return &APIError{Status: status, Message: msg}
	}
	if msg == "" {
		return sentinel
	}
	return fmt.Errorf("%w: %s", sentinel, msg)
}
