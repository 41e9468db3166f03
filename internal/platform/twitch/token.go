package twitch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"releasesync/internal/platform/httpjson"

	"golang.org/x/sync/singleflight"
)

const (
	DefaultTokenURL = "https://id.twitch.tv/oauth2/token"

	// SafetyMargin is subtracted from the provider TTL so a token is never used
	// right at its expiry.
	SafetyMargin = 300 * time.Second
)

// Token is a cached bearer credential.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

var errEmptyToken = errors.New("empty access token in response")

// TokenCache holds the client-credentials token for the game database.
// It is built once per process and passed to the adapters that need it.
type TokenCache struct {
	http         *httpjson.Client
	tokenURL     string
	clientID     string
	clientSecret string
	now          func() time.Time
	logger       *slog.Logger

	mu    sync.Mutex
	token Token
	group singleflight.Group
}

type Option func(*TokenCache)

// WithClock injects the time source used for expiry checks.
func WithClock(now func() time.Time) Option {
	return func(c *TokenCache) {
		if now != nil {
			c.now = now
		}
	}
}

func WithTokenURL(u string) Option {
	return func(c *TokenCache) {
		if u != "" {
			c.tokenURL = u
		}
	}
}

func NewTokenCache(hc *httpjson.Client, clientID, clientSecret string, logger *slog.Logger, opts ...Option) *TokenCache {
	if logger == nil {
		logger = slog.Default()
	}
	c := &TokenCache{
		http:         hc,
		tokenURL:     DefaultTokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ClientID is sent alongside the bearer token on every API call.
func (c *TokenCache) ClientID() string {
	return c.clientID
}

// Token returns a valid bearer token. It returns false when no token can be
// obtained; callers skip the provider for this run.
func (c *TokenCache) Token(ctx context.Context) (string, bool) {
	if c.clientID == "" || c.clientSecret == "" {
		c.logger.Warn("twitch credentials not configured")
		return "", false
	}

	if tok, ok := c.cached(); ok {
		return tok, true
	}

	v, err, _ := c.group.Do("token", func() (any, error) {
		// another caller may have refreshed while we waited
		if tok, ok := c.cached(); ok {
			return tok, nil
		}
		tok, err := c.exchange(ctx)
		if err != nil {
			return "", err
		}
		c.mu.Lock()
		c.token = tok
		c.mu.Unlock()
		return tok.Value, nil
	})
	if err != nil {
		c.logger.Warn("twitch token exchange failed", "error", err)
		return "", false
	}
	return v.(string), true
}

// Invalidate drops the cached token, e.g. after the API rejected it.
func (c *TokenCache) Invalidate() {
	c.mu.Lock()
	c.token = Token{}
	c.mu.Unlock()
}

func (c *TokenCache) cached() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token.Value != "" && c.now().Before(c.token.ExpiresAt) {
		return c.token.Value, true
	}
	return "", false
}

func (c *TokenCache) exchange(ctx context.Context) (Token, error) {
	params := url.Values{}
	params.Set("client_id", c.clientID)
	params.Set("client_secret", c.clientSecret)
	params.Set("grant_type", "client_credentials")
	u := c.tokenURL + "?" + params.Encode()

	var res tokenResponse
	err := c.http.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		return http.NewRequestWithContext(ctx, http.MethodPost, u, nil)
	}, &res)
	if err != nil {
		return Token{}, fmt.Errorf("exchange client credentials: %w", err)
	}
	if res.AccessToken == "" {
		return Token{}, errEmptyToken
	}

	expiresAt := c.now().Add(time.Duration(res.ExpiresIn)*time.Second - SafetyMargin)
	return Token{Value: res.AccessToken, ExpiresAt: expiresAt}, nil
}
