package interceptors

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/glimte/walletbridge/contracts"
	"github.com/glimte/walletbridge/internal/reliability"
)

// Invocation is one call to a host bridge function
type Invocation struct {
	Bridge   string
	Function string
	Params   interface{}
	Timeout  time.Duration
}

// Key identifies the invocation as bridge.function
func (inv *Invocation) Key() string {
	return inv.Bridge + "." + inv.Function
}

// Handler performs an invocation
type Handler interface {
	Handle(ctx context.Context, inv *Invocation) (json.RawMessage, error)
}

// HandlerFunc adapts a function to Handler
type HandlerFunc func(ctx context.Context, inv *Invocation) (json.RawMessage, error)

func (f HandlerFunc) Handle(ctx context.Context, inv *Invocation) (json.RawMessage, error) {
	return f(ctx, inv)
}

// Interceptor runs around the next handler in the chain
type Interceptor interface {
	Intercept(ctx context.Context, inv *Invocation, next Handler) (json.RawMessage, error)
	Name() string
}

// InterceptorFunc adapts a function to Interceptor
type InterceptorFunc struct {
	name string
	fn   func(ctx context.Context, inv *Invocation, next Handler) (json.RawMessage, error)
}

func NewInterceptorFunc(name string, fn func(ctx context.Context, inv *Invocation, next Handler) (json.RawMessage, error)) *InterceptorFunc {
	return &InterceptorFunc{name: name, fn: fn}
}

func (i *InterceptorFunc) Intercept(ctx context.Context, inv *Invocation, next Handler) (json.RawMessage, error) {
	return i.fn(ctx, inv, next)
}

func (i *InterceptorFunc) Name() string {
	return i.name
}

// Chain is an ordered list of interceptors
type Chain struct {
	interceptors []Interceptor
	logger       *slog.Logger
}

func NewChain(logger *slog.Logger) *Chain {
	if logger == nil {
		logger = slog.Default()
	}
	return &Chain{logger: logger}
}

// Add appends an interceptor
func (c *Chain) Add(interceptor Interceptor) *Chain {
	c.interceptors = append(c.interceptors, interceptor)
	return c
}

// Names lists the interceptors in execution order
func (c *Chain) Names() []string {
	names := make([]string, len(c.interceptors))
	for i, interceptor := range c.interceptors {
		names[i] = interceptor.Name()
	}
	return names
}

// Execute runs inv through every interceptor and then final
func (c *Chain) Execute(ctx context.Context, inv *Invocation, final Handler) (json.RawMessage, error) {
	handler := final
	for i := len(c.interceptors) - 1; i >= 0; i-- {
		interceptor := c.interceptors[i]
		next := handler
		handler = HandlerFunc(func(ctx context.Context, inv *Invocation) (json.RawMessage, error) {
			return interceptor.Intercept(ctx, inv, next)
		})
	}
	return handler.Handle(ctx, inv)
}

// LoggingInterceptor logs every invocation with its duration
type LoggingInterceptor struct {
	logger *slog.Logger
}

func NewLoggingInterceptor(logger *slog.Logger) *LoggingInterceptor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingInterceptor{logger: logger}
}

func (i *LoggingInterceptor) Intercept(ctx context.Context, inv *Invocation, next Handler) (json.RawMessage, error) {
	start := time.Now()
	data, err := next.Handle(ctx, inv)
	duration := time.Since(start)

	var hostErr *contracts.HostError
	switch {
	case err == nil:
		i.logger.Debug("host call succeeded",
			"bridge", inv.Bridge,
			"function", inv.Function,
			"duration", duration)
	case errors.As(err, &hostErr):
		i.logger.Info("host call rejected",
			"bridge", inv.Bridge,
			"function", inv.Function,
			"status", hostErr.Status,
			"duration", duration)
	default:
		i.logger.Warn("host call failed",
			"bridge", inv.Bridge,
			"function", inv.Function,
			"duration", duration,
			"error", err)
	}
	return data, err
}

func (i *LoggingInterceptor) Name() string {
	return "LoggingInterceptor"
}

// IsTransportFailure reports errors that say the host is not answering.
// Host rejections are answers and do not count.
func IsTransportFailure(err error) bool {
	return errors.Is(err, contracts.ErrTimeout) || errors.Is(err, contracts.ErrHostUnavailable)
}

// CircuitBreakerInterceptor fails fast while the host is not answering
type CircuitBreakerInterceptor struct {
	breaker *reliability.CircuitBreaker
}

func NewCircuitBreakerInterceptor(breaker *reliability.CircuitBreaker) *CircuitBreakerInterceptor {
	return &CircuitBreakerInterceptor{breaker: breaker}
}

func (i *CircuitBreakerInterceptor) Intercept(ctx context.Context, inv *Invocation, next Handler) (json.RawMessage, error) {
	var data json.RawMessage
	err := i.breaker.Execute(ctx, func() error {
		var err error
		data, err = next.Handle(ctx, inv)
		return err
	})
	if errors.Is(err, reliability.ErrCircuitOpen) {
		return nil, fmt.Errorf("%w: %w", contracts.ErrHostUnavailable, err)
	}
	return data, err
}

func (i *CircuitBreakerInterceptor) Name() string {
	return "CircuitBreakerInterceptor"
}

// ChainBuilder builds the usual chain
type ChainBuilder struct {
	chain  *Chain
	logger *slog.Logger
}

func NewChainBuilder(logger *slog.Logger) *ChainBuilder {
	if logger == nil {
		logger = slog.Default()
	}
	return &ChainBuilder{chain: NewChain(logger), logger: logger}
}

func (b *ChainBuilder) WithLogging() *ChainBuilder {
	b.chain.Add(NewLoggingInterceptor(b.logger))
	return b
}

// WithCircuitBreaker adds breaker. A nil breaker is skipped.
func (b *ChainBuilder) WithCircuitBreaker(breaker *reliability.CircuitBreaker) *ChainBuilder {
	if breaker != nil {
		b.chain.Add(NewCircuitBreakerInterceptor(breaker))
	}
	return b
}

func (b *ChainBuilder) WithCustom(interceptor Interceptor) *ChainBuilder {
	b.chain.Add(interceptor)
	return b
}

func (b *ChainBuilder) Build() *Chain {
	return b.chain
}
