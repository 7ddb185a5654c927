package feedclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pim/backend/internal/domain/feed"
)

// maxResponseSize limits the response body size to prevent memory exhaustion
const maxResponseSize = 10 * 1024 * 1024 // 10MB max response

// Client implements feed.CatalogSource against the remote catalog's
// paginated JSON API.
type Client struct {
	config     *Config
	httpClient *http.Client
}

// NewClient creates a catalog source client with the given configuration
func NewClient(config *Config) (*Client, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	cfg := *config
	if cfg.TimeoutSeconds <= 0 {
		cfg.TimeoutSeconds = DefaultTimeoutSeconds
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = DefaultMaxAttempts
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = DefaultBackoffBase
	}

	return &Client{
		config: &cfg,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}, nil
}

// FetchPage reads one page of products at the given offset. Transport
// failures and server errors are retried with exponential backoff up to
// the configured attempt count; client errors are not retried.
func (c *Client) FetchPage(ctx context.Context, limit, skip int) (*feed.Page, error) {
	if skip < 0 {
		return nil, feed.ErrPageOutOfRange
	}

	endpoint := c.pageURL(limit, skip)

	var lastErr error
	for attempt := 0; attempt < c.config.MaxAttempts; attempt++ {
		if attempt > 0 {
			// Exponential backoff: base, 2*base, 4*base, ...
			backoff := c.config.BackoffBase * time.Duration(1<<uint(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoff):
			}
		}

		page, err := c.fetchOnce(ctx, endpoint)
		if err == nil {
			return page, nil
		}
		lastErr = err
		if !isRetryable(err) {
			break
		}
	}

	return nil, lastErr
}

// fetchOnce performs a single HTTP request for one page
func (c *Client) fetchOnce(ctx context.Context, endpoint string) (*feed.Page, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("feedclient: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", feed.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", feed.ErrSourceUnavailable, err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		return nil, &statusError{status: resp.StatusCode}
	}

	var payload productsPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", feed.ErrInvalidResponse, err)
	}

	return payload.toDomain(), nil
}

// pageURL builds the paginated products endpoint for one page
func (c *Client) pageURL(limit, skip int) string {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("skip", strconv.Itoa(skip))
	return fmt.Sprintf("%s/products?%s", strings.TrimSuffix(c.config.BaseURL, "/"), query.Encode())
}

// statusError wraps feed.ErrSourceUnavailable while preserving the HTTP
// status code for retry classification.
type statusError struct {
	status int
}

func (e *statusError) Error() string {
	return fmt.Sprintf("%v: HTTP %d", feed.ErrSourceUnavailable, e.status)
}

func (e *statusError) Unwrap() error {
	return feed.ErrSourceUnavailable
}

// isRetryable reports whether another attempt may succeed. Server errors
// and transport failures qualify; context errors, client errors and
// malformed bodies do not.
func isRetryable(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	var se *statusError
	if errors.As(err, &se) {
		return se.status >= http.StatusInternalServerError
	}
	if errors.Is(err, feed.ErrInvalidResponse) {
		return false
	}
	return errors.Is(err, feed.ErrSourceUnavailable)
}

// Ensure Client implements the CatalogSource interface
var _ feed.CatalogSource = (*Client)(nil)
