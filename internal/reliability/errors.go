package reliability

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrCircuitOpen  = errors.New("circuit breaker: circuit is open")
	ErrUnknownState = errors.New("circuit breaker: unknown state")
)

// CircuitBreakerError describes a rejected call
type CircuitBreakerError struct {
	Name             string
	State            State
	Failures         int
	FailureThreshold int
	LastFailure      time.Time
	NextRetry        time.Time
}

func (e *CircuitBreakerError) Error() string {
	return fmt.Sprintf("circuit breaker %s is %s (failures: %d/%d, next retry: %s)",
		e.Name, e.State, e.Failures, e.FailureThreshold, e.NextRetry.Format(time.RFC3339))
}

func (e *CircuitBreakerError) Unwrap() error {
	return ErrCircuitOpen
}
