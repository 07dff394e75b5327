package services

import (
	"context"
	"encoding/json"
)

type signRequest struct {
	FilePath   string `json:"filePath"`
	DocumentID string `json:"documentId"`
}

type sharedFileRequest struct {
	FilePath string `json:"filePath"`
}

type openFileRequest struct {
	ContainerPath string  `json:"containerPath"`
	FileName      *string `json:"fileName"`
}

// PickFiles opens the host's file picker
func (s *Service) PickFiles(ctx context.Context) ([]File, error) {
	return invokeAs[[]File](ctx, s, OpPickFiles, struct{}{})
}

func (s *Service) GetSigningMethods(ctx context.Context) ([]SigningMethod, error) {
	return invokeAs[[]SigningMethod](ctx, s, OpGetSigningMethods, nil)
}

// SignDocument signs the file at filePath with the identity in documentID
func (s *Service) SignDocument(ctx context.Context, filePath, documentID string) (json.RawMessage, error) {
	return s.invoke(ctx, OpSignDocument, signRequest{FilePath: filePath, DocumentID: documentID})
}

func (s *Service) DownloadSignedDocument(ctx context.Context) (json.RawMessage, error) {
	return s.invoke(ctx, OpDownloadSignedDocument, nil)
}

func (s *Service) ShareSignedDocument(ctx context.Context) (json.RawMessage, error) {
	return s.invoke(ctx, OpShareSignedDocument, nil)
}

// GetSharedFile returns a file another app shared with the wallet
func (s *Service) GetSharedFile(ctx context.Context, filePath string) ([]File, error) {
	return invokeAs[[]File](ctx, s, OpGetSharedFile, sharedFileRequest{FilePath: filePath})
}

// OpenFile opens a signed container, or one file inside it when fileName is set
func (s *Service) OpenFile(ctx context.Context, containerPath, fileName string) (json.RawMessage, error) {
	req := openFileRequest{ContainerPath: containerPath}
	if fileName != "" {
		req.FileName = &fileName
	}
	return s.invoke(ctx, OpOpenFile, req)
}
