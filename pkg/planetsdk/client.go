package planetsdk

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aussiebroadwan/planet/pkg/slogx"
)

// DefaultBaseURL is the production Planet API.
const DefaultBaseURL = "http://planet.myunghyun.me"

// DefaultTimeout bounds every request, including reading the response body.
const DefaultTimeout = 10 * time.Second

// KeyValueStore is the device storage the client keeps credentials in.
// internal/storage drivers satisfy it.
type KeyValueStore interface {
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// Client is a client for the Planet API.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client

	// Timeout is applied to each request through its context.
	Timeout time.Duration

	store  KeyValueStore
	logger *slog.Logger
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the HTTP client. Its own Timeout should be zero or
// longer than the request timeout, otherwise timeouts surface as network errors.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.HTTPClient = hc }
}

// WithTimeout overrides DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.Timeout = d
		}
	}
}

// WithLogger sets the logger used for request logging.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Planet API client storing credentials in store.
func NewClient(baseURL string, store KeyValueStore, opts ...Option) *Client {
	c := &Client{
		BaseURL: strings.TrimSuffix(baseURL, "/"),
		Timeout: DefaultTimeout,
		store:   store,
		logger:  slog.Default(),
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{
			Transport: slogx.NewTransport(nil, c.logger),
		}
	}

	return c
}
