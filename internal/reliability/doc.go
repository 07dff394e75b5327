// Package reliability guards calls to the host with a circuit breaker.
package reliability
