package services

import "context"

// GetTransactions returns the usage history, for one document when documentID is set
func (s *Service) GetTransactions(ctx context.Context, documentID string) ([]Transaction, error) {
	var params interface{} = struct{}{}
	if documentID != "" {
		params = documentRef{DocumentID: documentID}
	}
	return invokeAs[[]Transaction](ctx, s, OpGetTransactions, params)
}
