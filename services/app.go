package services

import "context"

// GetState returns the wallet state used to pick the start route
func (s *Service) GetState(ctx context.Context) (AppState, error) {
	return invokeAs[AppState](ctx, s, OpGetState, nil)
}
