// Package api is the HTTP client for the Nexus recommendation service.
//
// Every call goes through a token-bucket rate limiter and a circuit breaker.
// Client errors (4xx) are reported to the caller but do not count as
// breaker failures; transport errors and 5xx responses do.
package api

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/iburimskiy/neural-nexus/internal/config"
	"github.com/iburimskiy/neural-nexus/internal/logging"
)

// maxErrorBody bounds how much of a failed response is read.
const maxErrorBody = 4 << 10

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[any]
	topK    int
	model   string
	log     zerolog.Logger
}

// New builds a client from the api section of the configuration.
func New(cfg config.APIConfig) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.URL, "/"),
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), cfg.Burst),
		topK:    cfg.TopK,
		model:   cfg.Model,
		log:     logging.WithComponent("api"),
	}
	if c.topK <= 0 {
		c.topK = config.DefaultTopK
	}
	if c.model == "" {
		c.model = config.DefaultModel
	}
	c.cb = newBreaker("nexus-api", cfg.BreakerTimeout, cfg.BreakerFailures, c.log)
	return c
}

// BaseURL is the service root without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// BreakerState reports the circuit state: closed, half-open or open.
func (c *Client) BreakerState() string { return stateToString(c.cb.State()) }

// request describes one call. Exactly one of form and body may be set.
type request struct {
	method string
	path   string
	token  string
	auth   bool // bearer token required
	form   url.Values
	body   any
}

// do executes r and decodes a successful JSON response into result, which
// may be nil when the body is irrelevant.
func (c *Client) do(ctx context.Context, r request, result any) error {
	if r.auth && r.token == "" {
		return ErrUnauthenticated
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit: %w", err)
	}

	start := time.Now()
	_, err := c.execute(func() (any, error) {
		return nil, c.send(ctx, r, result)
	})
	ev := c.log.Debug()
	if err != nil {
		ev = c.log.Warn().Err(err)
	}
	ev.Str("method", r.method).
		Str("path", r.path).
		Dur("elapsed", time.Since(start)).
		Msg("api request")
	return err
}

func (c *Client) send(ctx context.Context, r request, result any) error {
	var (
		body        io.Reader = http.NoBody
		contentType string
	)
	switch {
	case r.form != nil:
		body = strings.NewReader(r.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case r.body != nil:
		buf, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("encode %s: %w", r.path, err)
		}
		body = bytes.NewReader(buf)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, r.method, c.baseURL+r.path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return newAPIError(resp.StatusCode, io.LimitReader(resp.Body, maxErrorBody))
	}
	if result == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("decode %s: %w", r.path, err)
	}
	return nil
}
