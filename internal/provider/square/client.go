// Package square fetches catalog, stock counts and completed orders from the
// Square commerce API and maps them onto inventory snapshots.
package square

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

	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/provider"
)

// ErrUnauthorized is returned when the API rejects the access token.
var ErrUnauthorized = errors.New("square: unauthorized")

const (
	defaultBaseURL = "https://connect.squareup.com"
	defaultVersion = "2024-01-18"
)

// Config holds everything the client needs; nothing is read from globals.
type Config struct {
	AccessToken           string
	BaseURL               string
	Version               string
	LocationIDs           []string
	Timeout               time.Duration
	RetryAttempts         int
	RetryBackoff          time.Duration
	DefaultCostRatio      float64
	DefaultMaxStockFactor int
}

// ConfigFrom maps application settings onto a client config.
func ConfigFrom(cfg config.SquareConfig) Config {
	return Config{
		AccessToken:           cfg.AccessToken,
		BaseURL:               cfg.BaseURL,
		Version:               cfg.Version,
		LocationIDs:           cfg.LocationIDs,
		Timeout:               time.Duration(cfg.TimeoutSeconds) * time.Second,
		RetryAttempts:         cfg.RetryAttempts,
		DefaultCostRatio:      cfg.DefaultCostRatio,
		DefaultMaxStockFactor: cfg.DefaultMaxStockFactor,
	}
}

// Client is a minimal Square REST client.
type Client struct {
	cfg  Config
	http *http.Client
}

// NewClient validates cfg and builds a client that sends the access token as a bearer token.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.AccessToken) == "" {
		return nil, fmt.Errorf("square access token is empty: %w", provider.ErrNotConfigured)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Version == "" {
		cfg.Version = defaultVersion
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.RetryAttempts < 1 {
		cfg.RetryAttempts = 1
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 500 * time.Millisecond
	}
	if cfg.DefaultCostRatio <= 0 {
		cfg.DefaultCostRatio = 0.5
	}
	if cfg.DefaultMaxStockFactor <= 0 {
		cfg.DefaultMaxStockFactor = 4
	}

	src := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: cfg.AccessToken, TokenType: "Bearer"})
	httpClient := oauth2.NewClient(context.Background(), src)
	httpClient.Timeout = cfg.Timeout

	return &Client{cfg: cfg, http: httpClient}, nil
}

// APIError is a non-success response from the API.
type APIError struct {
	StatusCode int
	Errors     []apiErrorDetail
}

func (e *APIError) Error() string {
	if len(e.Errors) == 0 {
		return fmt.Sprintf("square: status %d", e.StatusCode)
	}
	d := e.Errors[0]
	return fmt.Sprintf("square: status %d: %s %s: %s", e.StatusCode, d.Category, d.Code, d.Detail)
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

// do sends a request, retrying throttled and server errors with linear backoff.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s body: %w", path, err)
		}
	}

	var lastErr error
	for attempt := 1; attempt <= c.cfg.RetryAttempts; attempt++ {
		if attempt > 1 {
			wait := time.Duration(attempt-1) * c.cfg.RetryBackoff
			log.Debug().Str("path", path).Int("attempt", attempt).Dur("wait", wait).Err(lastErr).Msg("Retrying Square request")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(wait):
			}
		}

		status, err := c.send(ctx, method, path, payload, out)
		if err == nil {
			return nil
		}
		lastErr = err
		if status != 0 && !retryable(status) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}

	return fmt.Errorf("%s %s failed after %d attempts: %w", method, path, c.cfg.RetryAttempts, lastErr)
}

// send performs one attempt. A zero status means the request never got a response.
func (c *Client) send(ctx context.Context, method, path string, payload []byte, out any) (int, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, reader)
	if err != nil {
		return 0, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Square-Version", c.cfg.Version)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return resp.StatusCode, ErrUnauthorized
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var body errorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
			apiErr.Errors = body.Errors
		}
		return resp.StatusCode, apiErr
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode %s response: %w", path, err)
		}
	}
	return resp.StatusCode, nil
}
