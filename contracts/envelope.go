package contracts

import (
	"encoding/json"
	"fmt"
)

// Event names used by the embedding hosts
const (
	EventResponse   = "lx-embed-response"
	EventNavigation = "lx-navigation"
)

// Event is the envelope a host uses to push an event to the wallet
type Event struct {
	Name   string          `json:"event"`
	Detail json.RawMessage `json:"detail"`
}

// NewResponseEvent wraps a response in an envelope
func NewResponseEvent(resp *ResponseEvent) (Event, error) {
	detail, err := json.Marshal(resp)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode response event: %w", err)
	}
	return Event{Name: EventResponse, Detail: detail}, nil
}

// NewNavigationEvent wraps a navigation instruction in an envelope
func NewNavigationEvent(nav *NavigationEvent) (Event, error) {
	detail, err := json.Marshal(nav)
	if err != nil {
		return Event{}, fmt.Errorf("failed to encode navigation event: %w", err)
	}
	return Event{Name: EventNavigation, Detail: detail}, nil
}

// Response decodes the detail of a response event
func (e Event) Response() (*ResponseEvent, error) {
	if e.Name != EventResponse {
		return nil, fmt.Errorf("%w: %q is not a response event", ErrUnknownEvent, e.Name)
	}
	var resp ResponseEvent
	if err := json.Unmarshal(e.Detail, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode response event: %w", err)
	}
	return &resp, nil
}

// Navigation decodes the detail of a navigation event
func (e Event) Navigation() (*NavigationEvent, error) {
	if e.Name != EventNavigation {
		return nil, fmt.Errorf("%w: %q is not a navigation event", ErrUnknownEvent, e.Name)
	}
	var nav NavigationEvent
	if err := json.Unmarshal(e.Detail, &nav); err != nil {
		return nil, fmt.Errorf("failed to decode navigation event: %w", err)
	}
	return &nav, nil
}
