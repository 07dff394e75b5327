// Package contracts provides the wire types exchanged between the wallet and its embedding host.
//
// This package defines the messages that flow over the host bridge:
//   - HostMessage: the payload posted to a named host bridge
//   - OutboundMessage: a HostMessage addressed to a bridge
//   - ResponseEvent: the host's asynchronous answer to a HostMessage
//   - NavigationEvent: an unsolicited instruction to change the current view
//   - Event: the envelope carrying either event on the wire
//
// All types serialize to the same JSON shapes the embedding hosts already
// speak, so a native host, an AMQP peer or an HTTP caller can exchange them
// without translation.
package contracts
