package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/glimte/walletbridge/contracts"
	"github.com/glimte/walletbridge/internal/rabbitmq"
	amqp "github.com/rabbitmq/amqp091-go"
)

// HeaderBridge carries the bridge name on outbound publishings
const HeaderBridge = "x-bridge"

// Host implements the host bridge over RabbitMQ. Outbound messages are
// published to the bridge exchange with the bridge name as routing key;
// response and navigation events are consumed from the event queue.
type Host struct {
	manager        *rabbitmq.ConnectionManager
	topology       rabbitmq.Topology
	consumerTag    string
	prefetchCount  int
	publishTimeout time.Duration
	logger         *slog.Logger

	mu        sync.Mutex
	publishCh *amqp.Channel
	consumeCh *amqp.Channel

	events    chan contracts.Event
	done      chan struct{}
	closeOnce sync.Once
	wg        sync.WaitGroup
}

// HostConfig holds configuration for the host
type HostConfig struct {
	Topology          rabbitmq.Topology
	ConsumerTag       string
	PrefetchCount     int
	PublishTimeout    time.Duration
	EventBuffer       int
	ConnectionOptions []rabbitmq.ConnectionOption
	Logger            *slog.Logger
}

// HostOption configures the host
type HostOption func(*HostConfig)

// WithTopology sets exchange and queue names
func WithTopology(topology rabbitmq.Topology) HostOption {
	return func(cfg *HostConfig) {
		cfg.Topology = topology
	}
}

// WithConsumerTag sets the consumer tag of the event queue consumer
func WithConsumerTag(tag string) HostOption {
	return func(cfg *HostConfig) {
		cfg.ConsumerTag = tag
	}
}

// WithPublishTimeout bounds a single publish when ctx has no deadline
func WithPublishTimeout(timeout time.Duration) HostOption {
	return func(cfg *HostConfig) {
		cfg.PublishTimeout = timeout
	}
}

// WithConnectionOptions sets connection options
func WithConnectionOptions(opts ...rabbitmq.ConnectionOption) HostOption {
	return func(cfg *HostConfig) {
		cfg.ConnectionOptions = append(cfg.ConnectionOptions, opts...)
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) HostOption {
	return func(cfg *HostConfig) {
		cfg.Logger = logger
	}
}

// DefaultTopology is used when no topology option is given
func DefaultTopology() rabbitmq.Topology {
	return rabbitmq.Topology{
		BridgeExchange: "wallet.bridge",
		EventExchange:  "wallet.events",
		EventQueue:     "wallet.events.webapp",
		Durable:        true,
	}
}

// NewHost connects to RabbitMQ, declares the topology and starts consuming events
func NewHost(ctx context.Context, connectionString string, options ...HostOption) (*Host, error) {
	cfg := &HostConfig{
		Topology:       DefaultTopology(),
		ConsumerTag:    "walletbridge",
		PrefetchCount:  32,
		PublishTimeout: 5 * time.Second,
		EventBuffer:    64,
		Logger:         slog.Default(),
	}

	for _, opt := range options {
		opt(cfg)
	}

	if err := cfg.Topology.Validate(); err != nil {
		return nil, err
	}

	connOpts := append([]rabbitmq.ConnectionOption{rabbitmq.WithLogger(cfg.Logger)}, cfg.ConnectionOptions...)
	manager := rabbitmq.NewConnectionManager(connectionString, connOpts...)

	h := &Host{
		manager:        manager,
		topology:       cfg.Topology,
		consumerTag:    cfg.ConsumerTag,
		prefetchCount:  cfg.PrefetchCount,
		publishTimeout: cfg.PublishTimeout,
		logger:         cfg.Logger,
		events:         make(chan contracts.Event, cfg.EventBuffer),
		done:           make(chan struct{}),
	}

	if err := manager.Connect(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	if err := h.setup(); err != nil {
		manager.Close()
		return nil, err
	}

	manager.AddStateListener(h)
	return h, nil
}

// setup declares topology, opens channels and starts the consumer
func (h *Host) setup() error {
	ch, err := h.manager.Channel()
	if err != nil {
		return fmt.Errorf("failed to open channel: %w", err)
	}
	if err := h.topology.Declare(ch); err != nil {
		ch.Close()
		return err
	}

	consumeCh, err := h.manager.Channel()
	if err != nil {
		ch.Close()
		return fmt.Errorf("failed to open consumer channel: %w", err)
	}
	if err := consumeCh.Qos(h.prefetchCount, 0, false); err != nil {
		ch.Close()
		consumeCh.Close()
		return fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := consumeCh.Consume(h.topology.EventQueue, h.consumerTag, false, false, false, false, nil)
	if err != nil {
		ch.Close()
		consumeCh.Close()
		return fmt.Errorf("failed to consume %s: %w", h.topology.EventQueue, err)
	}

	h.mu.Lock()
	h.publishCh = ch
	h.consumeCh = consumeCh
	h.mu.Unlock()

	h.wg.Add(1)
	go h.consume(deliveries)

	h.logger.Info("host transport ready",
		"bridgeExchange", h.topology.BridgeExchange,
		"eventQueue", h.topology.EventQueue)
	return nil
}

func (h *Host) consume(deliveries <-chan amqp.Delivery) {
	defer h.wg.Done()

	for {
		select {
		case d, ok := <-deliveries:
			if !ok {
				h.logger.Warn("event delivery channel closed")
				return
			}
			evt, err := DecodeDelivery(d)
			if err != nil {
				h.logger.Warn("rejecting undecodable host event", "messageId", d.MessageId, "error", err)
				d.Reject(false)
				continue
			}
			select {
			case h.events <- evt:
				d.Ack(false)
			case <-h.done:
				d.Nack(false, true)
				return
			}
		case <-h.done:
			return
		}
	}
}

// PostMessage publishes msg to the bridge exchange
func (h *Host) PostMessage(ctx context.Context, bridge string, msg contracts.HostMessage) error {
	h.mu.Lock()
	ch := h.publishCh
	h.mu.Unlock()

	if ch == nil || ch.IsClosed() {
		return fmt.Errorf("%w: no open channel to RabbitMQ", contracts.ErrHostUnavailable)
	}

	publishing, err := EncodeMessage(bridge, msg)
	if err != nil {
		return err
	}

	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.publishTimeout)
		defer cancel()
	}

	if err := ch.PublishWithContext(ctx, h.topology.BridgeExchange, bridge, false, false, publishing); err != nil {
		if errors.Is(err, amqp.ErrClosed) {
			return fmt.Errorf("%w: %v", contracts.ErrHostUnavailable, err)
		}
		return fmt.Errorf("failed to publish to %s/%s: %w", h.topology.BridgeExchange, bridge, err)
	}
	return nil
}

// Events returns the stream of host events
func (h *Host) Events() <-chan contracts.Event {
	return h.events
}

// IsConnected returns the connection status
func (h *Host) IsConnected() bool {
	return h.manager.IsConnected()
}

// ConnectionManager exposes the connection for health checks
func (h *Host) ConnectionManager() *rabbitmq.ConnectionManager {
	return h.manager
}

// OnConnected re-establishes channels and the consumer after a reconnect
func (h *Host) OnConnected() {
	select {
	case <-h.done:
		return
	default:
	}
	if err := h.setup(); err != nil {
		h.logger.Error("failed to restore host transport after reconnect", "error", err)
	}
}

// OnDisconnected drops the dead channels
func (h *Host) OnDisconnected(err error) {
	h.mu.Lock()
	h.publishCh = nil
	h.consumeCh = nil
	h.mu.Unlock()
	h.logger.Warn("host transport disconnected", "error", err)
}

// OnReconnecting logs the attempt
func (h *Host) OnReconnecting(attempt int) {
	h.logger.Info("host transport reconnecting", "attempt", attempt)
}

// Close stops consuming and closes the connection. The event stream is closed last.
func (h *Host) Close() error {
	var err error
	h.closeOnce.Do(func() {
		close(h.done)

		h.mu.Lock()
		if h.consumeCh != nil {
			h.consumeCh.Cancel(h.consumerTag, false)
			h.consumeCh.Close()
		}
		if h.publishCh != nil {
			h.publishCh.Close()
		}
		h.publishCh, h.consumeCh = nil, nil
		h.mu.Unlock()

		err = h.manager.Close()
		h.wg.Wait()
		close(h.events)
	})
	return err
}

// EncodeMessage builds the AMQP publishing for a host message
func EncodeMessage(bridge string, msg contracts.HostMessage) (amqp.Publishing, error) {
	body, err := json.Marshal(msg)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to encode host message: %w", err)
	}
	return amqp.Publishing{
		ContentType:   "application/json",
		DeliveryMode:  amqp.Transient,
		MessageId:     msg.ID,
		CorrelationId: msg.ID,
		Type:          msg.Function,
		Timestamp:     time.Now(),
		Headers:       amqp.Table{HeaderBridge: bridge},
		Body:          body,
	}, nil
}

// DecodeDelivery turns a delivery into a host event. The body is either a
// full {event, detail} envelope or a bare detail with the event name in Type.
func DecodeDelivery(d amqp.Delivery) (contracts.Event, error) {
	var evt contracts.Event
	if err := json.Unmarshal(d.Body, &evt); err == nil && evt.Name != "" {
		return evt, nil
	}

	switch d.Type {
	case contracts.EventResponse, contracts.EventNavigation:
		if !json.Valid(d.Body) {
			return contracts.Event{}, fmt.Errorf("invalid JSON body for %s", d.Type)
		}
		return contracts.Event{Name: d.Type, Detail: json.RawMessage(d.Body)}, nil
	default:
		return contracts.Event{}, fmt.Errorf("%w: type %q", contracts.ErrUnknownEvent, d.Type)
	}
}
