// Package backend talks to the upstream Street2Ivy marketplace API with
// per-tenant credentials, and caches one authenticated client per tenant.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"street2ivy/internal/sentinel"
	"street2ivy/internal/tenant/models"

	"street2ivy/pkg/platform/circuit"
)

// Config describes the upstream API endpoint.
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client is an authenticated marketplace API client bound to one credential
// pair. It performs a client-credentials token exchange lazily and refreshes
// before the bearer token expires.
type Client struct {
	http    *resty.Client
	creds   models.Credentials
	breaker *circuit.Breaker
	logger  *slog.Logger

	mu       sync.Mutex
	token    string
	tokenExp time.Time
}

// NewClient constructs a client bound to the given credentials.
func NewClient(cfg Config, creds models.Credentials, logger *slog.Logger) *Client {
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}
	httpClient := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(200*time.Millisecond).
		SetHeader("Accept", "application/json")

	return &Client{
		http:    httpClient,
		creds:   creds,
		breaker: circuit.New("backend-api"),
		logger:  logger,
	}
}

// ClientID exposes the bound account identity for logging and tests.
func (c *Client) ClientID() string {
	return c.creds.ClientID
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

// ensureToken performs the client-credentials exchange when no valid bearer
// token is held. Expiry comes from the token's own exp claim when it is a
// JWT, falling back to the advertised expires_in.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Until(c.tokenExp) > 30*time.Second {
		return c.token, nil
	}

	var tok tokenResponse
	resp, err := c.http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"grant_type":    "client_credentials",
			"client_id":     c.creds.ClientID,
			"client_secret": c.creds.ClientSecret,
		}).
		SetResult(&tok).
		Post("/oauth/token")
	if err != nil {
		return "", fmt.Errorf("token exchange: %v: %w", err, sentinel.ErrUnavailable)
	}
	if resp.IsError() {
		return "", fmt.Errorf("token exchange: status %d: %w", resp.StatusCode(), sentinel.ErrInvalidState)
	}

	c.token = tok.AccessToken
	c.tokenExp = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	if exp, ok := jwtExpiry(tok.AccessToken); ok {
		c.tokenExp = exp
	}
	return c.token, nil
}

// jwtExpiry reads the exp claim without verifying the signature; the backend
// verifies, we only need to know when to refresh.
func jwtExpiry(token string) (time.Time, bool) {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		return time.Time{}, false
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}, false
	}
	return exp.Time, true
}

// get performs an authenticated GET guarded by the circuit breaker.
func (c *Client) get(ctx context.Context, path string, query map[string]string, out any) error {
	if c.breaker.IsOpen() {
		return fmt.Errorf("backend circuit open: %w", sentinel.ErrUnavailable)
	}

	token, err := c.ensureToken(ctx)
	if err != nil {
		c.recordFailure(ctx)
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(query).
		SetResult(out).
		Get(path)
	if err != nil {
		c.recordFailure(ctx)
		return fmt.Errorf("backend %s: %v: %w", path, err, sentinel.ErrUnavailable)
	}
	if resp.IsError() {
		c.recordFailure(ctx)
		return fmt.Errorf("backend %s: status %d: %w", path, resp.StatusCode(), sentinel.ErrInvalidState)
	}

	if _, change := c.breaker.RecordSuccess(); change.Closed {
		c.logger.InfoContext(ctx, "backend circuit closed", "breaker", c.breaker.Name())
	}
	return nil
}

func (c *Client) recordFailure(ctx context.Context) {
	if _, change := c.breaker.RecordFailure(); change.Opened {
		c.logger.WarnContext(ctx, "backend circuit opened", "breaker", c.breaker.Name())
	}
}
