// Package github provides a resilient GitHub REST v3 client with a shared
// access token pool, typed status errors, and link-header pagination
package github

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "leakhound/internal/platform/errors"
	"leakhound/internal/platform/logger"
)

const (
	baseURLDefault    = "https://api.github.com"
	defaultTimeout    = 10 * time.Second
	defaultUA         = "leakhound"
	defaultRetries    = 3
	defaultRetryDelay = 200 * time.Millisecond
)

// Options configures the Client
type Options struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration

	// Retries is the number of additional attempts after the first failure
	Retries int
	// RetryDelay is the fixed sleep between attempts
	RetryDelay time.Duration
}

// Response is the surface handed back to callers of the raw verbs
type Response struct {
	Status int
	Header http.Header
	Body   []byte
}

// Client is a GitHub REST client that draws one token per request from a
// TokenPool and evicts tokens the API reports as unauthorized or exhausted
type Client struct {
	http  *http.Client
	opts  Options
	pool  *TokenPool
	log   logger.Logger
	sleep func(context.Context, time.Duration) error
}

// NewClient creates a new Client with sane defaults
func NewClient(pool *TokenPool, o Options) *Client {
	if o.BaseURL == "" {
		o.BaseURL = baseURLDefault
	}
	if o.UserAgent == "" {
		o.UserAgent = defaultUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.Retries <= 0 {
		o.Retries = defaultRetries
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	return &Client{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		pool:  pool,
		log:   *logger.Named("github"),
		sleep: sleepCtx,
	}
}

// sleepCtx waits out d or returns early when ctx is cancelled
func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Get issues a GET with optional query params
func (c *Client) Get(ctx context.Context, path string, params url.Values) (Response, error) {
	return c.do(ctx, http.MethodGet, path, params)
}

// Post issues a POST with optional query params
func (c *Client) Post(ctx context.Context, path string, params url.Values) (Response, error) {
	return c.do(ctx, http.MethodPost, path, params)
}

// Put issues a PUT with optional query params
func (c *Client) Put(ctx context.Context, path string, params url.Values) (Response, error) {
	return c.do(ctx, http.MethodPut, path, params)
}

// Delete issues a DELETE with optional query params
func (c *Client) Delete(ctx context.Context, path string, params url.Values) (Response, error) {
	return c.do(ctx, http.MethodDelete, path, params)
}

// do runs one logical request through the retry helper
func (c *Client) do(ctx context.Context, method, path string, params url.Values) (Response, error) {
	var out Response
	err := retry(ctx, c.opts.Retries, c.opts.RetryDelay, c.sleep, retryable, func() error {
		r, err := c.attempt(ctx, method, path, params)
		if err != nil {
			return err
		}
		out = r
		return nil
	})
	return out, err
}

// attempt performs a single HTTP round trip and classifies the response
func (c *Client) attempt(ctx context.Context, method, path string, params url.Values) (Response, error) {
	token, err := c.pool.Sample()
	if err != nil {
		return Response{}, err
	}

	u := c.opts.BaseURL + path
	if len(params) > 0 {
		sep := "?"
		if strings.Contains(u, "?") {
			sep = "&"
		}
		u += sep + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, u, nil)
	if err != nil {
		return Response{}, perr.Wrapf(err, perr.ErrorCodeUnknown, "github new request failed")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("Authorization", "token "+token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return Response{}, perr.Wrapf(err, perr.ErrorCodeUnavailable, "github transport error")
	}
	body, readErr := io.ReadAll(io.LimitReader(resp.Body, 8<<20))
	_ = resp.Body.Close()
	if readErr != nil {
		return Response{}, perr.Wrapf(readErr, perr.ErrorCodeUnavailable, "github read body failed")
	}

	c.log.Debug().
		Str("method", method).
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("latency", time.Since(start)).
		Str("rate_remaining", resp.Header.Get("X-RateLimit-Remaining")).
		Msg("github http response")

	if err := c.classify(method, path, resp, body, token); err != nil {
		return Response{}, err
	}
	return Response{Status: resp.StatusCode, Header: resp.Header, Body: body}, nil
}

// classify maps one response to the error taxonomy, evicting dead tokens
func (c *Client) classify(method, path string, resp *http.Response, body []byte, token string) error {
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		c.pool.Remove(token)
		c.log.Warn().Str("path", path).Msg("github token unauthorized, evicted")
		return perr.Newf(perr.ErrorCodeUnauthorized, "github access token rejected")
	case resp.StatusCode == http.StatusForbidden && rateRemaining(resp.Header) == 0:
		c.pool.Remove(token)
		c.log.Warn().Str("path", path).Msg("github token rate limited, evicted")
		return perr.Newf(perr.ErrorCodeRateLimited, "github access token rate limit exhausted")
	case resp.StatusCode >= 500:
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(body), server: true}
	case resp.StatusCode >= 400:
		return &StatusError{Method: method, Path: path, Status: resp.StatusCode, Body: string(body)}
	}
	return nil
}

// retryable decides whether one attempt's error is worth another try.
// Token errors retry because a new attempt draws a fresh token; an empty
// pool is terminal and propagates immediately
func retryable(err error) bool {
	if errors.Is(err, ErrNoCredentials) {
		return false
	}
	switch perr.CodeOf(err) {
	case perr.ErrorCodeUnauthorized, perr.ErrorCodeRateLimited, perr.ErrorCodeUnavailable:
		return true
	}
	var se *StatusError
	return errors.As(err, &se) && se.server
}

// retry runs op up to 1+budget times, sleeping delay between attempts.
// The last error propagates once the budget is spent or the error is not
// retryable; cancellation interrupts the inter-attempt sleep
func retry(
	ctx context.Context,
	budget int,
	delay time.Duration,
	sleep func(context.Context, time.Duration) error,
	shouldRetry func(error) bool,
	op func() error,
) error {
	var err error
	for attempt := 0; ; attempt++ {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if err = op(); err == nil {
			return nil
		}
		if attempt >= budget || !shouldRetry(err) {
			return err
		}
		if serr := sleep(ctx, delay); serr != nil {
			return serr
		}
	}
}
