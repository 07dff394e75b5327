package services

import (
	"context"
	"encoding/json"
)

// IssuanceMethod is the protocol used to request credentials
const IssuanceMethod = "openid4vci"

type issueRequest struct {
	Method       string `json:"method"`
	DocumentType string `json:"documentType"`
}

type resumeRequest struct {
	URI string `json:"uri"`
}

type offerRequest struct {
	OfferURI   string `json:"offerUri"`
	TxCode     string `json:"txCode"`
	IssuerName string `json:"issuerName"`
}

type signatureSelection struct {
	SelectedIDs []string `json:"selectedIds"`
}

// ScanIssuanceQrCode opens the host's scanner for a credential offer
func (s *Service) ScanIssuanceQrCode(ctx context.Context) (json.RawMessage, error) {
	return s.invoke(ctx, OpIssuanceScanQrCode, nil)
}

// GetDocumentOptions lists the document types that can be requested
func (s *Service) GetDocumentOptions(ctx context.Context) ([]DocumentOption, error) {
	return invokeAs[[]DocumentOption](ctx, s, OpGetDocumentOptions, nil)
}

// IssueDocument starts issuance of a document type
func (s *Service) IssueDocument(ctx context.Context, documentType string) (json.RawMessage, error) {
	return s.invoke(ctx, OpIssueDocument, issueRequest{Method: IssuanceMethod, DocumentType: documentType})
}

// ResumeIssuance continues issuance after the browser redirect to uri
func (s *Service) ResumeIssuance(ctx context.Context, uri string) (json.RawMessage, error) {
	return s.invoke(ctx, OpResumeIssuance, resumeRequest{URI: uri})
}

// ResolveDocumentOffer returns the pending credential offer
func (s *Service) ResolveDocumentOffer(ctx context.Context) (DocumentOffer, error) {
	return invokeAs[DocumentOffer](ctx, s, OpResolveDocumentOffer, nil)
}

// GetOfferCodeData describes the transaction code the pending offer needs
func (s *Service) GetOfferCodeData(ctx context.Context) (OfferCodeData, error) {
	return invokeAs[OfferCodeData](ctx, s, OpGetOfferCodeData, struct{}{})
}

// IssueDocumentOffer accepts an offer with its transaction code
func (s *Service) IssueDocumentOffer(ctx context.Context, offerURI, txCode, issuerName string) (json.RawMessage, error) {
	return s.invoke(ctx, OpIssueDocumentOffer, offerRequest{OfferURI: offerURI, TxCode: txCode, IssuerName: issuerName})
}

// GetUserSignatureOptions lists signatures that can be attached to issuance
func (s *Service) GetUserSignatureOptions(ctx context.Context) ([]SignatureOption, error) {
	return invokeAs[[]SignatureOption](ctx, s, OpGetSignatureOptions, nil)
}

// SelectUserSignatures submits the chosen signature ids
func (s *Service) SelectUserSignatures(ctx context.Context, ids []string) (json.RawMessage, error) {
	if ids == nil {
		ids = []string{}
	}
	return s.invoke(ctx, OpSelectSignatures, signatureSelection{SelectedIDs: ids})
}

// LaunchSEB hands over to the bank authentication flow
func (s *Service) LaunchSEB(ctx context.Context) (json.RawMessage, error) {
	return s.invoke(ctx, OpLaunchSEB, nil)
}
