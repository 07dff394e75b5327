package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Declarer is the subset of *amqp.Channel used to declare topology
type Declarer interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
}

// Topology describes what the host transport needs on the broker
type Topology struct {
	// BridgeExchange receives outbound messages, routed by bridge name
	BridgeExchange string
	// EventExchange is where the host publishes response and navigation events
	EventExchange string
	// EventQueue is consumed by the wallet
	EventQueue string
	// EventRoutingKey binds EventQueue to EventExchange
	EventRoutingKey string
	Durable         bool
}

// Validate checks that every name is set
func (t Topology) Validate() error {
	switch {
	case t.BridgeExchange == "":
		return fmt.Errorf("%w: bridge exchange is required", ErrInvalidTopology)
	case t.EventExchange == "":
		return fmt.Errorf("%w: event exchange is required", ErrInvalidTopology)
	case t.EventQueue == "":
		return fmt.Errorf("%w: event queue is required", ErrInvalidTopology)
	}
	return nil
}

// Declare creates the exchanges, the event queue and its binding
func (t Topology) Declare(ch Declarer) error {
	if err := t.Validate(); err != nil {
		return err
	}

	for _, exchange := range []string{t.BridgeExchange, t.EventExchange} {
		if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, t.Durable, !t.Durable, false, false, nil); err != nil {
			return &TopologyError{Component: "exchange", Name: exchange, Err: err}
		}
	}

	if _, err := ch.QueueDeclare(t.EventQueue, t.Durable, !t.Durable, false, false, nil); err != nil {
		return &TopologyError{Component: "queue", Name: t.EventQueue, Err: err}
	}

	key := t.EventRoutingKey
	if key == "" {
		key = "#"
	}
	if err := ch.QueueBind(t.EventQueue, key, t.EventExchange, false, nil); err != nil {
		return &TopologyError{Component: "binding", Name: t.EventQueue, Err: err}
	}
	return nil
}
