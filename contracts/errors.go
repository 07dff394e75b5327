package contracts

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies bridge failures
type ErrorKind string

const (
	KindTimeout         ErrorKind = "timeout"
	KindHostUnavailable ErrorKind = "host_unavailable"
	KindDuplicateID     ErrorKind = "duplicate_correlation_id"
	KindInvalidRequest  ErrorKind = "invalid_request"
	KindTooManyPending  ErrorKind = "too_many_pending"
	KindClosed          ErrorKind = "closed"
)

// BridgeError is a failure raised by the bridge itself rather than the host
type BridgeError struct {
	Kind    ErrorKind
	Message string
}

func (e *BridgeError) Error() string {
	return fmt.Sprintf("bridge %s: %s", e.Kind, e.Message)
}

// Is matches on kind so wrapped or re-created errors compare equal
func (e *BridgeError) Is(target error) bool {
	var other *BridgeError
	if !errors.As(target, &other) {
		return false
	}
	return other.Kind == e.Kind
}

// NewBridgeError returns a new error of kind. Every failure gets its own
// value; the Err* variables below are match targets for errors.Is.
func NewBridgeError(kind ErrorKind, format string, args ...interface{}) *BridgeError {
	return &BridgeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrTimeout                = &BridgeError{Kind: KindTimeout, Message: "no response from host"}
	ErrHostUnavailable        = &BridgeError{Kind: KindHostUnavailable, Message: "host messaging entry point is not available"}
	ErrDuplicateCorrelationID = &BridgeError{Kind: KindDuplicateID, Message: "correlation id is already pending"}
	ErrInvalidRequest         = &BridgeError{Kind: KindInvalidRequest, Message: "bridge and function are required"}
	ErrTooManyPending         = &BridgeError{Kind: KindTooManyPending, Message: "too many pending requests"}
	ErrClosed                 = &BridgeError{Kind: KindClosed, Message: "bridge client is closed"}

	ErrUnknownEvent = errors.New("unknown event")
)

// UnknownErrorPayload is reported when the host fails a call without an error payload
const UnknownErrorPayload = "Unknown error"

// HostError is a business-level failure reported by the host
type HostError struct {
	ID      string
	Status  string
	Payload json.RawMessage
}

// NewHostError builds the rejection for a non-success response
func NewHostError(resp *ResponseEvent) *HostError {
	payload := resp.Error
	if len(payload) == 0 || string(payload) == "null" {
		payload, _ = json.Marshal(UnknownErrorPayload)
	}
	return &HostError{ID: resp.ID, Status: resp.Status, Payload: payload}
}

// Message returns the payload as text, unquoting JSON strings
func (e *HostError) Message() string {
	var s string
	if err := json.Unmarshal(e.Payload, &s); err == nil {
		return s
	}
	return string(e.Payload)
}

func (e *HostError) Error() string {
	return fmt.Sprintf("host error (%s): %s", e.Status, e.Message())
}
