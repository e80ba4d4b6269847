package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"

	"github.com/nexuspay/nexuspay/pkg/config"
	"github.com/nexuspay/nexuspay/pkg/logger"
	"github.com/nexuspay/nexuspay/pkg/session"
)

const (
	DefaultBaseURL   = "http://localhost:8000/api"
	defaultUserAgent = "nexuspay-cli"
	maxErrorBody     = 1 << 16
)

// Client talks to the NexusPay backend. It reads the bearer token from the
// session store on every call, so a login or logout in one place is seen by
// every request that follows.
type Client struct {
	baseURL   string
	http      *http.Client
	store     session.Store
	limiter   *rate.Limiter
	userAgent string
}

type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithRateLimit paces outbound requests to perMinute. Zero disables pacing.
func WithRateLimit(perMinute int) Option {
	return func(c *Client) {
		if perMinute <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
	}
}

func WithUserAgent(ua string) Option {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

func NewClient(baseURL string, store session.Store, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	c := &Client{
		baseURL:   strings.TrimRight(baseURL, "/"),
		http:      &http.Client{Timeout: 30 * time.Second},
		store:     store,
		userAgent: defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig builds a client from the api section of cfg.
func NewFromConfig(cfg *config.Config, store session.Store) *Client {
	opts := []Option{
		WithRateLimit(cfg.API.RequestsPerMinute),
		WithUserAgent(cfg.API.UserAgent),
	}
	if t := cfg.Timeout(); t > 0 {
		opts = append(opts, WithHTTPClient(&http.Client{Timeout: t}))
	}
	return NewClient(cfg.API.BaseURL, store, opts...)
}

func (c *Client) BaseURL() string { return c.baseURL }

// Session returns the store the client authenticates from.
func (c *Client) Session() session.Store { return c.store }

func (c *Client) get(ctx context.Context, path string, out any) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, body, out)
}

func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limit: %w", err)
		}
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("X-Request-ID", requestID)
	c.authorize(req)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		logger.WarnCF("api", "Request failed", map[string]any{
			"method":     method,
			"path":       path,
			"request_id": requestID,
			"error":      err.Error(),
		})
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	logger.DebugCF("api", "Request completed", map[string]any{
		"method":      method,
		"path":        path,
		"status":      resp.StatusCode,
		"request_id":  requestID,
		"duration_ms": time.Since(start).Milliseconds(),
	})

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp, requestID)
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// authorize adds the bearer header when the session holds a token.
func (c *Client) authorize(req *http.Request) {
	if c.store == nil {
		return
	}
	sess, err := c.store.Get()
	if err != nil {
		logger.WarnCF("api", "Session unreadable, sending request without token", map[string]any{
			"error": err.Error(),
		})
		return
	}
	if sess.Token == "" {
		return
	}
	tok := &oauth2.Token{AccessToken: sess.Token, TokenType: "Bearer"}
	tok.SetAuthHeader(req)
}

func decodeError(resp *http.Response, requestID string) error {
	var payload struct {
		Message string `json:"message"`
	}
	data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = json.Unmarshal(data, &payload)

	logger.WarnCF("api", "Backend returned error status", map[string]any{
		"status":     resp.StatusCode,
		"request_id": requestID,
		"message":    payload.Message,
	})
	return &APIError{StatusCode: resp.StatusCode, Message: payload.Message, RequestID: requestID}
}
