package services

import "context"

type documentRef struct {
	DocumentID string `json:"documentId"`
}

type favoriteRequest struct {
	DocumentID string `json:"documentId"`
	IsFavorite bool   `json:"isFavorite"`
}

// GetDocuments lists the documents held in the wallet
func (s *Service) GetDocuments(ctx context.Context) ([]Document, error) {
	return invokeAs[[]Document](ctx, s, OpGetDocuments, nil)
}

// GetDocumentDetails returns one document with its attributes
func (s *Service) GetDocumentDetails(ctx context.Context, documentID string) (DocumentDetails, error) {
	return invokeAs[DocumentDetails](ctx, s, OpGetDocumentDetails, documentRef{DocumentID: documentID})
}

// DeleteDocument removes a document from the wallet
func (s *Service) DeleteDocument(ctx context.Context, documentID string) (StatusResult, error) {
	return invokeAs[StatusResult](ctx, s, OpDeleteDocument, documentRef{DocumentID: documentID})
}

// SetDocumentFavorite marks or unmarks a document as favorite
func (s *Service) SetDocumentFavorite(ctx context.Context, documentID string, isFavorite bool) error {
	_, err := s.invoke(ctx, OpSetDocumentFavorite, favoriteRequest{DocumentID: documentID, IsFavorite: isFavorite})
	return err
}
