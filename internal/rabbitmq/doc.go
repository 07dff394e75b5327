// Package rabbitmq holds the AMQP plumbing behind the RabbitMQ host transport.
//
// This package includes:
//   - ConnectionManager: owns the AMQP connection and reconnects with backoff
//   - Topology: declares the bridge exchange and the host event queue
//
// Connection state changes are reported to registered listeners so the
// transport can re-establish its consumer after a reconnect.
package rabbitmq
