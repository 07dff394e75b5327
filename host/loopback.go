package host

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/glimte/walletbridge/contracts"
)

// ErrNoResponse makes a handler swallow the message, as a host that never answers
var ErrNoResponse = errors.New("host: no response")

// StatusFailed is the status Loopback uses for handler errors
const StatusFailed = "FAILED"

// HandlerFunc answers one bridge function
type HandlerFunc func(ctx context.Context, msg contracts.HostMessage) (interface{}, error)

// LoopbackOption configures a Loopback host
type LoopbackOption func(*Loopback)

// WithResponseDelay delays every answer
func WithResponseDelay(delay time.Duration) LoopbackOption {
	return func(l *Loopback) {
		l.delay = delay
	}
}

// WithEventBuffer sets the size of the event channel
func WithEventBuffer(size int) LoopbackOption {
	return func(l *Loopback) {
		l.bufferSize = size
	}
}

// WithLoopbackLogger sets the logger
func WithLoopbackLogger(logger *slog.Logger) LoopbackOption {
	return func(l *Loopback) {
		l.logger = logger
	}
}

// Loopback is an in-process host
type Loopback struct {
	mu         sync.RWMutex
	handlers   map[string]HandlerFunc
	posted     []contracts.OutboundMessage
	closed     bool
	events     chan contracts.Event
	done       chan struct{}
	wg         sync.WaitGroup
	delay      time.Duration
	bufferSize int
	logger     *slog.Logger
}

// NewLoopback creates a loopback host with no handlers
func NewLoopback(opts ...LoopbackOption) *Loopback {
	l := &Loopback{
		handlers:   make(map[string]HandlerFunc),
		bufferSize: 64,
		logger:     slog.Default(),
		done:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(l)
	}
	l.events = make(chan contracts.Event, l.bufferSize)
	return l
}

func handlerKey(bridge, function string) string {
	return bridge + "." + function
}

// Handle registers the handler for bridge.function
func (l *Loopback) Handle(bridge, function string, handler HandlerFunc) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.handlers[handlerKey(bridge, function)] = handler
}

// PostMessage accepts a message and answers it asynchronously
func (l *Loopback) PostMessage(ctx context.Context, bridge string, msg contracts.HostMessage) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return contracts.NewBridgeError(contracts.KindHostUnavailable, "loopback host is closed")
	}
	l.posted = append(l.posted, contracts.OutboundMessage{
		Bridge:   bridge,
		ID:       msg.ID,
		Function: msg.Function,
		Data:     msg.Data,
	})
	handler := l.handlers[handlerKey(bridge, msg.Function)]
	l.wg.Add(1)
	l.mu.Unlock()

	go l.answer(bridge, msg, handler)
	return nil
}

func (l *Loopback) answer(bridge string, msg contracts.HostMessage, handler HandlerFunc) {
	defer l.wg.Done()

	if l.delay > 0 {
		select {
		case <-time.After(l.delay):
		case <-l.done:
			return
		}
	}

	resp := &contracts.ResponseEvent{ID: msg.ID}
	if handler == nil {
		l.logger.Warn("no loopback handler", "bridge", bridge, "function", msg.Function)
		resp.Status = StatusFailed
		resp.Error, _ = contracts.EncodeData("unknown function " + handlerKey(bridge, msg.Function))
	} else {
		result, err := handler(context.Background(), msg)
		switch {
		case errors.Is(err, ErrNoResponse):
			return
		case err != nil:
			resp.Status = StatusFailed
			resp.Error, _ = contracts.EncodeData(err.Error())
		default:
			data, encErr := contracts.EncodeData(result)
			if encErr != nil {
				resp.Status = StatusFailed
				resp.Error, _ = contracts.EncodeData(encErr.Error())
			} else {
				resp.Status = contracts.StatusSuccess
				resp.Data = data
			}
		}
	}

	evt, err := contracts.NewResponseEvent(resp)
	if err != nil {
		l.logger.Error("failed to encode loopback response", "error", err)
		return
	}
	l.emit(evt)
}

// Respond pushes an arbitrary response, matched or not
func (l *Loopback) Respond(resp *contracts.ResponseEvent) error {
	evt, err := contracts.NewResponseEvent(resp)
	if err != nil {
		return err
	}
	return l.push(evt)
}

// Navigate pushes a navigation event
func (l *Loopback) Navigate(nav *contracts.NavigationEvent) error {
	evt, err := contracts.NewNavigationEvent(nav)
	if err != nil {
		return err
	}
	return l.push(evt)
}

func (l *Loopback) push(evt contracts.Event) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return contracts.NewBridgeError(contracts.KindHostUnavailable, "loopback host is closed")
	}
	l.wg.Add(1)
	l.mu.Unlock()

	defer l.wg.Done()
	l.emit(evt)
	return nil
}

func (l *Loopback) emit(evt contracts.Event) {
	select {
	case l.events <- evt:
	case <-l.done:
	}
}

// Events returns the host's event stream. It is closed by Close.
func (l *Loopback) Events() <-chan contracts.Event {
	return l.events
}

// Posted returns every message posted so far
func (l *Loopback) Posted() []contracts.OutboundMessage {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return append([]contracts.OutboundMessage(nil), l.posted...)
}

// Close stops answering and closes the event stream
func (l *Loopback) Close() error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return nil
	}
	l.closed = true
	close(l.done)
	l.mu.Unlock()

	l.wg.Wait()
	close(l.events)
	return nil
}
