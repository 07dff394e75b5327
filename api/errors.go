package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/glimte/walletbridge/contracts"
	"github.com/glimte/walletbridge/services"
)

// ErrorResponse is the body of every failed request
type ErrorResponse struct {
	Error   string          `json:"error"`
	Kind    string          `json:"kind,omitempty"`
	Status  string          `json:"status,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// StatusClientClosedRequest answers a request whose caller went away
const StatusClientClosedRequest = 499

var kindStatus = []struct {
	err    error
	status int
}{
	{contracts.ErrInvalidRequest, http.StatusBadRequest},
	{contracts.ErrDuplicateCorrelationID, http.StatusConflict},
	{contracts.ErrTooManyPending, http.StatusTooManyRequests},
	{contracts.ErrTimeout, http.StatusGatewayTimeout},
	{contracts.ErrHostUnavailable, http.StatusServiceUnavailable},
	{contracts.ErrClosed, http.StatusServiceUnavailable},
	{services.ErrUnknownOperation, http.StatusNotFound},
	{services.ErrDocumentNotFound, http.StatusNotFound},
	{context.DeadlineExceeded, http.StatusGatewayTimeout},
	{context.Canceled, StatusClientClosedRequest},
}

// StatusCode maps an error to the HTTP status it is reported with
func StatusCode(err error) int {
	var hostErr *contracts.HostError
	if errors.As(err, &hostErr) {
		return http.StatusUnprocessableEntity
	}
	for _, ks := range kindStatus {
		if errors.Is(err, ks.err) {
			return ks.status
		}
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	resp := ErrorResponse{Error: err.Error()}

	var hostErr *contracts.HostError
	var bridgeErr *contracts.BridgeError
	switch {
	case errors.As(err, &hostErr):
		resp.Status = hostErr.Status
		resp.Payload = hostErr.Payload
	case errors.As(err, &bridgeErr):
		resp.Kind = string(bridgeErr.Kind)
	}

	status := StatusCode(err)
	switch status {
	case http.StatusInternalServerError:
		s.logger.Error("request failed", "error", err)
	case StatusClientClosedRequest:
		s.logger.Debug("client went away", "error", err)
	}
	writeJSON(w, status, resp)
}
