package feedclient

import (
	"errors"
	"time"
)

// Defaults for the catalog source client
const (
	// DefaultTimeoutSeconds is the HTTP request timeout
	DefaultTimeoutSeconds = 30
	// DefaultMaxAttempts is the number of fetch attempts per page, the
	// first try included
	DefaultMaxAttempts = 2
	// DefaultBackoffBase is the delay before the first retry; every
	// further retry doubles it
	DefaultBackoffBase = 500 * time.Millisecond
)

// Errors for catalog source configuration
var (
	ErrConfigMissingBaseURL = errors.New("feedclient: base URL is required")
)

// Config holds connection settings for the remote product catalog
type Config struct {
	// BaseURL is the catalog root, e.g. https://dummyjson.com
	BaseURL string
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
	// MaxAttempts caps how often a page fetch is tried in total
	MaxAttempts int
	// BackoffBase is the delay before the first retry
	BackoffBase time.Duration
}

// NewConfig creates a catalog source configuration with defaults
func NewConfig(baseURL string) *Config {
	return &Config{
		BaseURL:        baseURL,
		TimeoutSeconds: DefaultTimeoutSeconds,
		MaxAttempts:    DefaultMaxAttempts,
		BackoffBase:    DefaultBackoffBase,
	}
}

// Validate validates the catalog source configuration
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return ErrConfigMissingBaseURL
	}
	return nil
}
