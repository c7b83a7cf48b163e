package api

import (
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/rickgao/renance-monitor/internal/version"
)

// Client provides access to the venue REST API through the proxy.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
	userAgent  string

	retry    RetryConfig
	executor *Executor
	limiter  *rate.Limiter
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// NewClient creates a new REST API client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: baseURL,
		// Deadlines are enforced per attempt by the Executor.
		httpClient: &http.Client{},
		logger:     slog.Default(),
		userAgent:  version.UserAgent(),
		retry:      DefaultRetryConfig(),
		limiter:    rate.NewLimiter(rate.Inf, 1),
	}

	for _, opt := range opts {
		opt(c)
	}

	c.executor = NewExecutor(c.retry, c.logger)

	return c
}

// WithTimeout sets the per-attempt deadline.
func WithTimeout(d time.Duration) ClientOption {
	return func(c *Client) {
		c.retry.Timeout = d
	}
}

// WithRetries sets the retry configuration.
func WithRetries(max int, backoff time.Duration) ClientOption {
	return func(c *Client) {
		c.retry.MaxRetries = max
		c.retry.BaseDelay = backoff
	}
}

// WithRateLimit caps outbound requests per second. rps <= 0 disables limiting.
func WithRateLimit(rps float64, burst int) ClientOption {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// Executor returns the executor every request of this client runs through.
func (c *Client) Executor() *Executor {
	return c.executor
}
