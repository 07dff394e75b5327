package services

import (
	"context"
	"encoding/json"
)

type biometricsRequest struct {
	Enabled bool `json:"enabled"`
}

type languageRequest struct {
	Language string `json:"language"`
}

func (s *Service) EnableBiometrics(ctx context.Context, enabled bool) error {
	_, err := s.invoke(ctx, OpEnableBiometrics, biometricsRequest{Enabled: enabled})
	return err
}

func (s *Service) SetLanguage(ctx context.Context, language string) error {
	_, err := s.invoke(ctx, OpSetLanguage, languageRequest{Language: language})
	return err
}

func (s *Service) GetBiometricAvailability(ctx context.Context) (BiometricAvailability, error) {
	return invokeAs[BiometricAvailability](ctx, s, OpGetBiometricAvailability, struct{}{})
}

// ChangePin runs the host's PIN change flow
func (s *Service) ChangePin(ctx context.Context) (json.RawMessage, error) {
	return s.invoke(ctx, OpChangePin, nil)
}

// DeleteWallet wipes the wallet after the host confirms with the user
func (s *Service) DeleteWallet(ctx context.Context) (json.RawMessage, error) {
	return s.invoke(ctx, OpDeleteWallet, nil)
}
