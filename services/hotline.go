package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/glimte/walletbridge/bridge"
	"github.com/glimte/walletbridge/contracts"
)

// HotlineBridge is the bridge used by the hotline test calls
const HotlineBridge = "documents"

// Resolver completes a pending call locally, as the host would
type Resolver interface {
	ResolveRequest(ctx context.Context, id string, payload interface{}) error
}

// HotlineClient is what the hotline needs from the bridge client
type HotlineClient interface {
	bridge.Requester
	Resolver
}

// Hotline issues test calls whose correlation id the caller picks, so a
// tester can answer them by hand. It always goes through the bridge.
type Hotline struct {
	client HotlineClient
}

// NewHotline creates a hotline over client
func NewHotline(client HotlineClient) *Hotline {
	return &Hotline{client: client}
}

// GetDocumentsTest calls documents.getDocuments. An empty id gets a generated one.
func (h *Hotline) GetDocumentsTest(ctx context.Context, params interface{}, id string) (json.RawMessage, error) {
	return h.call(ctx, "getDocuments", params, id)
}

// GetDocumentInfo calls documents.getDocumentInfo. An empty id gets a generated one.
func (h *Hotline) GetDocumentInfo(ctx context.Context, params interface{}, id string) (json.RawMessage, error) {
	return h.call(ctx, "getDocumentInfo", params, id)
}

// Call runs the hotline function named function
func (h *Hotline) Call(ctx context.Context, function string, params interface{}, id string) (json.RawMessage, error) {
	switch function {
	case "getDocuments":
		return h.GetDocumentsTest(ctx, params, id)
	case "getDocumentInfo":
		return h.GetDocumentInfo(ctx, params, id)
	default:
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOperation, HotlineBridge, function)
	}
}

// Resolve answers a hotline call. A nil payload gets the canned one.
func (h *Hotline) Resolve(ctx context.Context, id string, payload interface{}) error {
	if id == "" {
		return contracts.NewBridgeError(contracts.KindInvalidRequest, "hotline correlation id is required")
	}
	return h.client.ResolveRequest(ctx, id, payload)
}

func (h *Hotline) call(ctx context.Context, function string, params interface{}, id string) (json.RawMessage, error) {
	var opts []bridge.RequestOption
	if id != "" {
		opts = append(opts, bridge.WithCorrelationID(id))
	}
	return h.client.Request(ctx, HotlineBridge, function, params, opts...)
}
