package xapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// DefaultBaseURL is the X API v2 root.
const DefaultBaseURL = "https://api.x.com/2"

const (
	requestTimeout = 30 * time.Second
	maxBodyBytes   = 4 << 20
)

// TokenProvider returns a bearer access token for the next request.
type TokenProvider func(ctx context.Context) (string, error)

// Options configures a Client. Zero values select the defaults.
type Options struct {
	BaseURL       string
	TokenProvider TokenProvider
	HTTPClient    *http.Client

	// UserID skips the /users/me lookup when set.
	UserID string

	// RequestsPerMinute paces outgoing requests on the client side; 0 disables pacing.
	RequestsPerMinute float64

	// MaxAttempts bounds how many requests, the first included, are sent
	// while the API keeps answering 429.
	MaxAttempts int

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// Client talks to the X API bookmarks endpoints. Every outbound request is
// counted, and 429 responses are retried after a computed wait.
type Client struct {
	baseURL       string
	tokenProvider TokenProvider
	httpClient    *http.Client
	limiter       *rate.Limiter
	maxAttempts   int
	now           func() time.Time
	sleep         func(ctx context.Context, d time.Duration) error
	log           logrus.FieldLogger

	requests atomic.Int64

	mu     sync.Mutex
	userID string
}

// New creates an X API client.
func New(opts Options, logger logrus.FieldLogger) *Client {
	baseURL := strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/")
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: requestTimeout}
	}
	maxAttempts := opts.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	sleep := opts.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	c := &Client{
		baseURL:       baseURL,
		tokenProvider: opts.TokenProvider,
		httpClient:    httpClient,
		maxAttempts:   maxAttempts,
		now:           now,
		sleep:         sleep,
		log:           logger.WithField("component", "x_client"),
		userID:        strings.TrimSpace(opts.UserID),
	}
	if opts.RequestsPerMinute > 0 {
		c.limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerMinute/60), 1)
	}
	return c
}

// RequestCount returns how many HTTP requests were sent, retries included.
func (c *Client) RequestCount() int {
	return int(c.requests.Load())
}

// SetUserID caches the authenticated user id so no lookup request is needed.
func (c *Client) SetUserID(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.userID = id
}

// UserID returns the authenticated user's id, calling /users/me once.
func (c *Client) UserID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.userID != "" {
		return c.userID, nil
	}

	var resp struct {
		Data struct {
			ID       string `json:"id"`
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/users/me", nil, &resp); err != nil {
		return "", fmt.Errorf("failed to look up authenticated user: %w", err)
	}
	if resp.Data.ID == "" {
		return "", fmt.Errorf("failed to look up authenticated user: empty id in response")
	}
	c.userID = resp.Data.ID
	c.log.WithFields(logrus.Fields{"user_id": c.userID, "username": resp.Data.Username}).Debug("Resolved authenticated user")
	return c.userID, nil
}

// do sends one logical request, retrying on 429, and decodes a 2xx body into out.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, out any) error {
	if c.tokenProvider == nil {
		return fmt.Errorf("x api token provider is required")
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	for attempt := 0; ; attempt++ {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return err
			}
		}
		token, err := c.tokenProvider(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, method, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/json")

		n := c.requests.Add(1)
		c.log.WithFields(logrus.Fields{
			"method":         method,
			"path":           path,
			"request_number": n,
		}).Debug("Making X API request")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return fmt.Errorf("x api %s %s: %w", method, path, err)
		}
		body, readErr := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
		_ = resp.Body.Close()
		if readErr != nil {
			return fmt.Errorf("x api %s %s: reading response: %w", method, path, readErr)
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			if attempt+1 >= c.maxAttempts {
				c.log.WithField("attempts", attempt+1).Error("Rate limit retries exhausted")
				return fmt.Errorf("%w: %s %s failed after %d attempts", ErrRateLimitExhausted, method, path, attempt+1)
			}
			wait := rateLimitWait(resp.Header, c.now())
			c.log.WithFields(logrus.Fields{
				"path":    path,
				"attempt": attempt + 1,
				"wait":    wait.String(),
			}).Warn("Rate limited by X API, waiting before retry")
			if err := c.sleep(ctx, wait); err != nil {
				return err
			}
			continue
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return &APIError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: string(body)}
		}
		if out == nil {
			return nil
		}
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("x api %s %s: decoding response: %w", method, path, err)
		}
		return nil
	}
}
