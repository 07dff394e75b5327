// Package host provides an in-process implementation of the host bridge.
//
// Loopback stands in for the embedding native runtime: bridge functions are
// registered as handlers, every posted message is answered asynchronously on
// the event channel, and navigation can be pushed at any time. It is used to
// run the wallet without a native shell and to exercise the bridge in tests.
package host
