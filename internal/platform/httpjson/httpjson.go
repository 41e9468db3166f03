package httpjson

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// StatusError is returned when a provider answers with a non-2xx status.
type StatusError struct {
	URL        string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e == nil {
		return "unexpected status"
	}
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("unexpected status code: %d", e.StatusCode)
	}
	return fmt.Sprintf("unexpected status code: %d: %s", e.StatusCode, body)
}

// Retryable reports whether the provider may succeed on a later attempt.
func (e *StatusError) Retryable() bool {
	return e.StatusCode == http.StatusTooManyRequests || e.StatusCode >= 500
}

// RequestFunc builds a fresh request for each attempt.
type RequestFunc func(ctx context.Context) (*http.Request, error)

// Limiter paces calls to one provider; *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

type Client struct {
	httpClient   *http.Client
	userAgent    string
	maxRetries   int
	initial      time.Duration
	retryLimiter Limiter
	newBackOff   func() backoff.BackOff
}

type Option func(*Client)

// WithHTTPClient replaces the underlying client (tests use httptest clients).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithBackOff sets the retry policy. backoff.StopBackOff disables retries.
func WithBackOff(factory func() backoff.BackOff) Option {
	return func(c *Client) {
		if factory != nil {
			c.newBackOff = factory
		}
	}
}

// WithRetryLimiter makes every retry wait on l. Callers wait on the same
// limiter before the first attempt, so each request to the provider is paced.
// The initial backoff is raised to at least minInterval.
func WithRetryLimiter(l Limiter, minInterval time.Duration) Option {
	return func(c *Client) {
		c.retryLimiter = l
		if minInterval > c.initial {
			c.initial = minInterval
		}
	}
}

func NewClient(userAgent string, maxRetries int, opts ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
		userAgent:  userAgent,
		maxRetries: max(maxRetries, 0),
		initial:    500 * time.Millisecond,
	}
	c.newBackOff = c.defaultBackOff
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) defaultBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.initial
	b.MaxElapsedTime = max(10*time.Second, 8*c.initial)
	return backoff.WithMaxRetries(b, uint64(c.maxRetries))
}

// Do sends the request and decodes a JSON body into target. Network errors,
// 429 and 5xx are retried; other statuses and decode errors are not.
func (c *Client) Do(ctx context.Context, build RequestFunc, target any) error {
	attempt := 0
	op := func() error {
		if attempt > 0 && c.retryLimiter != nil {
			if err := c.retryLimiter.Wait(ctx); err != nil {
				return backoff.Permanent(err)
			}
		}
		attempt++

		req, err := build(ctx)
		if err != nil {
			return backoff.Permanent(err)
		}
		if c.userAgent != "" && req.Header.Get("User-Agent") == "" {
			req.Header.Set("User-Agent", c.userAgent)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			se := &StatusError{URL: redactQuery(req.URL.String()), StatusCode: resp.StatusCode, Body: string(body)}
			if se.Retryable() {
				return se
			}
			return backoff.Permanent(se)
		}

		if target == nil {
			return nil
		}
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return backoff.Permanent(fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	return backoff.Retry(op, backoff.WithContext(c.newBackOff(), ctx))
}

// redactQuery drops the query string, which carries application ids and secrets.
func redactQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
