package services

import (
	"context"
	"encoding/json"
)

type smsRequest struct {
	Number string `json:"number"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type otpRequest struct {
	OTP string `json:"otp"`
}

func (s *Service) SubmitPhone(ctx context.Context, number string) (json.RawMessage, error) {
	return s.invoke(ctx, OpSubmitSms, smsRequest{Number: number})
}

func (s *Service) VerifyPhone(ctx context.Context, code string) (json.RawMessage, error) {
	return s.invoke(ctx, OpVerifySmsOTP, otpRequest{OTP: code})
}

func (s *Service) SubmitEmail(ctx context.Context, email string) (json.RawMessage, error) {
	return s.invoke(ctx, OpSubmitEmail, emailRequest{Email: email})
}

func (s *Service) VerifyEmail(ctx context.Context, code string) (json.RawMessage, error) {
	return s.invoke(ctx, OpVerifyEmailOTP, otpRequest{OTP: code})
}

// Authenticate starts eParaksts authentication
func (s *Service) Authenticate(ctx context.Context) (json.RawMessage, error) {
	return s.invoke(ctx, OpInitiateEParaksts, struct{}{})
}

// GetUserName returns the name from the person identification data
func (s *Service) GetUserName(ctx context.Context) (PidDetails, error) {
	return invokeAs[PidDetails](ctx, s, OpGetPidDetails, struct{}{})
}

// InitialiseWallet creates the wallet keys. The host may prompt for a PIN.
func (s *Service) InitialiseWallet(ctx context.Context) (json.RawMessage, error) {
	return s.invoke(ctx, OpInitialiseWallet, nil)
}

func (s *Service) StartWallet(ctx context.Context) (json.RawMessage, error) {
	return s.invoke(ctx, OpStartWallet, nil)
}
