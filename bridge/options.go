package bridge

import (
	"log/slog"
	"time"
)

// DefaultTimeout applies when a request does not set its own
const DefaultTimeout = 20 * time.Second

// ClientOption configures the bridge client
type ClientOption func(*ClientConfig)

// ClientConfig holds configuration for the client
type ClientConfig struct {
	DefaultTimeout     time.Duration
	MaxPendingRequests int
	InboxSize          int
	Navigator          Navigator
	Metrics            MetricsCollector
	IDGenerator        func() string
	Logger             *slog.Logger
}

// WithDefaultTimeout sets the timeout used when a request sets none
func WithDefaultTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.DefaultTimeout = timeout
	}
}

// WithMaxPendingRequests caps the pending-call table. Zero means unbounded.
func WithMaxPendingRequests(max int) ClientOption {
	return func(c *ClientConfig) {
		c.MaxPendingRequests = max
	}
}

// WithInboxSize sets the buffer of the event mailbox
func WithInboxSize(size int) ClientOption {
	return func(c *ClientConfig) {
		c.InboxSize = size
	}
}

// WithNavigator sets the target of navigation events
func WithNavigator(nav Navigator) ClientOption {
	return func(c *ClientConfig) {
		c.Navigator = nav
	}
}

// WithMetrics sets the metrics collector
func WithMetrics(metrics MetricsCollector) ClientOption {
	return func(c *ClientConfig) {
		c.Metrics = metrics
	}
}

// WithIDGenerator replaces the correlation id source
func WithIDGenerator(gen func() string) ClientOption {
	return func(c *ClientConfig) {
		c.IDGenerator = gen
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *ClientConfig) {
		c.Logger = logger
	}
}

// RequestOption configures a single request
type RequestOption func(*requestConfig)

type requestConfig struct {
	correlationID string
	timeout       time.Duration
}

// WithCorrelationID sets the correlation id instead of generating one.
// Useful when the caller also observes the call through a side channel.
func WithCorrelationID(id string) RequestOption {
	return func(c *requestConfig) {
		c.correlationID = id
	}
}

// WithTimeout sets the timeout of a request. Zero keeps the client default.
func WithTimeout(timeout time.Duration) RequestOption {
	return func(c *requestConfig) {
		c.timeout = timeout
	}
}
