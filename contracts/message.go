package contracts

import (
	"encoding/json"
	"fmt"
)

// StatusSuccess is the only response status treated as success
const StatusSuccess = "SUCCESS"

// HostMessage is what the host's messaging entry point receives for a bridge
type HostMessage struct {
	ID       string          `json:"id"`
	Function string          `json:"function"`
	Data     json.RawMessage `json:"data"`
}

// OutboundMessage addresses a HostMessage to a named bridge inside the host
type OutboundMessage struct {
	Bridge   string          `json:"bridge"`
	ID       string          `json:"id"`
	Function string          `json:"function"`
	Data     json.RawMessage `json:"data"`
}

// NewOutboundMessage builds an outbound message, encoding params as JSON.
// A nil params value is encoded as null.
func NewOutboundMessage(bridge, id, function string, params interface{}) (*OutboundMessage, error) {
	data, err := EncodeData(params)
	if err != nil {
		return nil, err
	}
	return &OutboundMessage{
		Bridge:   bridge,
		ID:       id,
		Function: function,
		Data:     data,
	}, nil
}

// HostMessage strips the bridge address
func (m *OutboundMessage) HostMessage() HostMessage {
	return HostMessage{
		ID:       m.ID,
		Function: m.Function,
		Data:     m.Data,
	}
}

// ResponseEvent is the host's answer to a previously posted message
type ResponseEvent struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// IsSuccess reports whether the host completed the call successfully
func (r *ResponseEvent) IsSuccess() bool {
	return r.Status == StatusSuccess
}

// NewSuccessResponse builds a SUCCESS response for id carrying payload
func NewSuccessResponse(id string, payload interface{}) (*ResponseEvent, error) {
	data, err := EncodeData(payload)
	if err != nil {
		return nil, err
	}
	return &ResponseEvent{ID: id, Status: StatusSuccess, Data: data}, nil
}

// NavigationEvent instructs the application to replace the current route
type NavigationEvent struct {
	Path   string      `json:"path"`
	Params RouteParams `json:"params,omitempty"`
	Query  RouteQuery  `json:"query,omitempty"`
}

// EncodeData marshals a payload, mapping nil to JSON null
func EncodeData(v interface{}) (json.RawMessage, error) {
	if v == nil {
		return json.RawMessage("null"), nil
	}
	if raw, ok := v.(json.RawMessage); ok {
		if len(raw) == 0 {
			return json.RawMessage("null"), nil
		}
		return raw, nil
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}
	return data, nil
}
