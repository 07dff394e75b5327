package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/glimte/walletbridge/contracts"
	"github.com/google/uuid"
)

// Host is the host's bridge messaging entry point. Posting is fire-and-forget.
type Host interface {
	PostMessage(ctx context.Context, bridge string, msg contracts.HostMessage) error
}

// EventSource is implemented by hosts that push events over a channel
type EventSource interface {
	Events() <-chan contracts.Event
}

// Navigator replaces the current route without adding a history entry
type Navigator interface {
	Replace(name string, params map[string]string, query url.Values) error
}

// Requester is the call/response contract consumed by feature code
type Requester interface {
	Request(ctx context.Context, bridge, function string, params interface{}, opts ...RequestOption) (json.RawMessage, error)
}

// Client correlates host responses with outstanding requests
type Client struct {
	host           Host
	navigator      Navigator
	pending        map[string]*Call
	mu             sync.Mutex
	closed         bool
	inbox          chan contracts.Event
	done           chan struct{}
	closeOnce      sync.Once
	wg             sync.WaitGroup
	defaultTimeout time.Duration
	maxPending     int
	newID          func() string
	metrics        MetricsCollector
	logger         *slog.Logger
}

// NewClient creates a bridge client and starts its event listener.
// A nil host is accepted: every request then fails with ErrHostUnavailable.
func NewClient(host Host, opts ...ClientOption) (*Client, error) {
	config := &ClientConfig{
		DefaultTimeout: DefaultTimeout,
		InboxSize:      64,
		Metrics:        &NoOpMetricsCollector{},
		IDGenerator:    func() string { return uuid.New().String() },
		Logger:         slog.Default(),
	}

	for _, opt := range opts {
		opt(config)
	}

	if config.DefaultTimeout <= 0 {
		return nil, fmt.Errorf("default timeout must be positive, got %s", config.DefaultTimeout)
	}
	if config.InboxSize < 0 {
		return nil, fmt.Errorf("inbox size cannot be negative")
	}

	c := &Client{
		host:           host,
		navigator:      config.Navigator,
		pending:        make(map[string]*Call),
		inbox:          make(chan contracts.Event, config.InboxSize),
		done:           make(chan struct{}),
		defaultTimeout: config.DefaultTimeout,
		maxPending:     config.MaxPendingRequests,
		newID:          config.IDGenerator,
		metrics:        config.Metrics,
		logger:         config.Logger,
	}

	var hostEvents <-chan contracts.Event
	if source, ok := host.(EventSource); ok {
		hostEvents = source.Events()
	}

	c.wg.Add(1)
	go c.listen(hostEvents)

	return c, nil
}

// Request posts a message to the host and waits for the matching response
func (c *Client) Request(ctx context.Context, bridge, function string, params interface{}, opts ...RequestOption) (json.RawMessage, error) {
	call, err := c.Send(ctx, bridge, function, params, opts...)
	if err != nil {
		return nil, err
	}
	return call.Wait(ctx)
}

// Send registers a pending call, posts the message and returns without waiting
func (c *Client) Send(ctx context.Context, bridge, function string, params interface{}, opts ...RequestOption) (*Call, error) {
	if bridge == "" || function == "" {
		return nil, contracts.NewBridgeError(contracts.KindInvalidRequest, "bridge and function are required")
	}

	cfg := requestConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.correlationID == "" {
		cfg.correlationID = c.newID()
	}
	if cfg.timeout <= 0 {
		cfg.timeout = c.defaultTimeout
	}

	if c.host == nil {
		return nil, contracts.NewBridgeError(contracts.KindHostUnavailable, "no host to post %s.%s to", bridge, function)
	}

	msg, err := contracts.NewOutboundMessage(bridge, cfg.correlationID, function, params)
	if err != nil {
		return nil, fmt.Errorf("request %s.%s: %w", bridge, function, err)
	}

	call := newCall(c, cfg.correlationID, bridge, function, cfg.timeout)
	if err := c.register(call); err != nil {
		return nil, err
	}
	c.metrics.RecordRequest(bridge, function)

	c.logger.Debug("posting bridge message",
		"bridge", bridge,
		"function", function,
		"correlationId", call.ID,
		"timeout", cfg.timeout)

	if err := c.host.PostMessage(ctx, bridge, msg.HostMessage()); err != nil {
		// A response may already have raced in; in that case the call is settled.
		if c.retire(call) {
			call.timer.Stop()
			c.metrics.RecordCompletion(bridge, function, OutcomePostFailed, call.elapsed())
			return nil, fmt.Errorf("failed to post %s.%s: %w", bridge, function, err)
		}
	}

	return call, nil
}

// register inserts the call and arms its timer before anything is posted
func (c *Client) register(call *Call) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return contracts.NewBridgeError(contracts.KindClosed, "bridge client is closed")
	}
	if _, exists := c.pending[call.ID]; exists {
		return contracts.NewBridgeError(contracts.KindDuplicateID, "correlation id %s is already pending", call.ID)
	}
	if c.maxPending > 0 && len(c.pending) >= c.maxPending {
		return contracts.NewBridgeError(contracts.KindTooManyPending, "%d requests already pending", len(c.pending))
	}

	c.pending[call.ID] = call
	call.timer = time.AfterFunc(call.Timeout, func() { c.expire(call) })
	return nil
}

// take removes and returns the pending call for id, if any
func (c *Client) take(id string) *Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	call, exists := c.pending[id]
	if !exists {
		return nil
	}
	delete(c.pending, id)
	return call
}

// retire removes exactly this call. It reports false when the call was
// already retired or its id now belongs to a newer call.
func (c *Client) retire(call *Call) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if current, exists := c.pending[call.ID]; !exists || current != call {
		return false
	}
	delete(c.pending, call.ID)
	return true
}

func (c *Client) expire(call *Call) {
	if !c.retire(call) {
		return
	}
	c.logger.Debug("bridge call timed out",
		"bridge", call.Bridge,
		"function", call.Function,
		"correlationId", call.ID,
		"timeout", call.Timeout)
	c.metrics.RecordCompletion(call.Bridge, call.Function, OutcomeTimeout, call.elapsed())
	call.settle(nil, contracts.NewBridgeError(contracts.KindTimeout,
		"no response from host for %s.%s within %s", call.Bridge, call.Function, call.Timeout))
}

// abandon retires a call whose caller stopped waiting
func (c *Client) abandon(call *Call) bool {
	if !c.retire(call) {
		return false
	}
	call.timer.Stop()
	c.metrics.RecordCompletion(call.Bridge, call.Function, OutcomeCancelled, call.elapsed())
	return true
}

// Deliver hands an inbound event to the listener, as a host event would arrive
func (c *Client) Deliver(ctx context.Context, evt contracts.Event) error {
	select {
	case <-c.done:
		return contracts.NewBridgeError(contracts.KindClosed, "bridge client is closed")
	default:
	}

	select {
	case c.inbox <- evt:
		return nil
	case <-c.done:
		return contracts.NewBridgeError(contracts.KindClosed, "bridge client is closed")
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ResolveRequest synthesizes a successful response for id. A nil payload is
// replaced by a canned one. The event goes through the regular listener.
func (c *Client) ResolveRequest(ctx context.Context, id string, payload interface{}) error {
	if payload == nil {
		payload = fmt.Sprintf("%s data returned", id)
	}
	resp, err := contracts.NewSuccessResponse(id, payload)
	if err != nil {
		return err
	}
	evt, err := contracts.NewResponseEvent(resp)
	if err != nil {
		return err
	}
	return c.Deliver(ctx, evt)
}

func (c *Client) listen(hostEvents <-chan contracts.Event) {
	defer c.wg.Done()

	for {
		select {
		case evt := <-c.inbox:
			c.dispatch(evt)
		case evt, ok := <-hostEvents:
			if !ok {
				c.logger.Info("host event stream closed")
				hostEvents = nil
				continue
			}
			c.dispatch(evt)
		case <-c.done:
			return
		}
	}
}

func (c *Client) dispatch(evt contracts.Event) {
	switch evt.Name {
	case contracts.EventResponse:
		resp, err := evt.Response()
		if err != nil {
			c.logger.Warn("dropping malformed response event", "error", err)
			c.metrics.RecordUnmatched()
			return
		}
		c.HandleResponse(resp)
	case contracts.EventNavigation:
		nav, err := evt.Navigation()
		if err != nil {
			c.logger.Warn("dropping malformed navigation event", "error", err)
			return
		}
		if err := c.HandleNavigation(nav); err != nil {
			c.logger.Error("navigation failed", "path", nav.Path, "error", err)
		}
	default:
		c.logger.Debug("ignoring unknown event", "event", evt.Name)
	}
}

// HandleResponse settles the call matching resp. Unmatched responses are
// dropped and reported as false.
func (c *Client) HandleResponse(resp *contracts.ResponseEvent) bool {
	call := c.take(resp.ID)
	if call == nil {
		c.logger.Debug("no pending call for response", "correlationId", resp.ID)
		c.metrics.RecordUnmatched()
		return false
	}
	call.timer.Stop()

	if resp.IsSuccess() {
		c.metrics.RecordCompletion(call.Bridge, call.Function, OutcomeSuccess, call.elapsed())
		call.settle(resp.Data, nil)
		return true
	}

	c.metrics.RecordCompletion(call.Bridge, call.Function, OutcomeHostError, call.elapsed())
	call.settle(nil, contracts.NewHostError(resp))
	return true
}

// HandleNavigation replaces the current route. It never touches the pending-call table.
func (c *Client) HandleNavigation(nav *contracts.NavigationEvent) error {
	if c.navigator == nil {
		return fmt.Errorf("no navigator configured for route %q", nav.Path)
	}
	return c.navigator.Replace(nav.Path, nav.Params, nav.Query.Values())
}

// Pending returns the number of calls awaiting a response
func (c *Client) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// IsPending reports whether id has a table entry
func (c *Client) IsPending(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, exists := c.pending[id]
	return exists
}

// Close stops the listener and rejects every pending call with ErrClosed
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		c.closed = true
		calls := c.pending
		c.pending = make(map[string]*Call)
		c.mu.Unlock()

		for _, call := range calls {
			call.timer.Stop()
			c.metrics.RecordCompletion(call.Bridge, call.Function, OutcomeClosed, call.elapsed())
			call.settle(nil, contracts.NewBridgeError(contracts.KindClosed,
				"bridge client closed before %s.%s was answered", call.Bridge, call.Function))
		}

		close(c.done)
		c.wg.Wait()
	})
	return nil
}

// Invoke performs a request and decodes the response data into T
func Invoke[T any](ctx context.Context, r Requester, bridge, function string, params interface{}, opts ...RequestOption) (T, error) {
	var result T

	data, err := r.Request(ctx, bridge, function, params, opts...)
	if err != nil {
		return result, err
	}
	if len(data) == 0 || string(data) == "null" {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("failed to decode %s.%s response: %w", bridge, function, err)
	}
	return result, nil
}
