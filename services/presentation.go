package services

import (
	"context"
	"encoding/json"
)

type fieldUpdate struct {
	ID      string `json:"id"`
	Checked bool   `json:"checked"`
}

// ScanPresentationQrCode opens the host's scanner for a verifier request
func (s *Service) ScanPresentationQrCode(ctx context.Context) (json.RawMessage, error) {
	return s.invoke(ctx, OpPresentationScanQrCode, nil)
}

// GetRequestDocuments returns what the verifier is asking for
func (s *Service) GetRequestDocuments(ctx context.Context) (PresentationRequest, error) {
	return invokeAs[PresentationRequest](ctx, s, OpGetRequestDocuments, nil)
}

// UpdateField toggles whether an attribute is disclosed
func (s *Service) UpdateField(ctx context.Context, id string, checked bool) (json.RawMessage, error) {
	return s.invoke(ctx, OpUpdateField, fieldUpdate{ID: id, Checked: checked})
}

// ConfirmRequest presents the selected fields. The fields are sent as given.
func (s *Service) ConfirmRequest(ctx context.Context, fields interface{}) (json.RawMessage, error) {
	return s.invoke(ctx, OpConfirmRequest, fields)
}

// PresentationCanceled tells the host the user backed out
func (s *Service) PresentationCanceled(ctx context.Context) (json.RawMessage, error) {
	return s.invoke(ctx, OpPresentationCanceled, nil)
}
