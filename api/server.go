// Package api exposes the wallet services, the host event inbox and the
// debug resolve helper over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/glimte/walletbridge/contracts"
	"github.com/glimte/walletbridge/health"
	"github.com/glimte/walletbridge/router"
	"github.com/glimte/walletbridge/services"
	"github.com/gorilla/mux"
)

const maxBodySize = 1 << 20

// HeaderCorrelationID lets a hotline caller pick the correlation id
const HeaderCorrelationID = "X-Correlation-Id"

// Bridge is the part of the bridge client the API drives directly
type Bridge interface {
	Deliver(ctx context.Context, evt contracts.Event) error
	ResolveRequest(ctx context.Context, id string, payload interface{}) error
	Pending() int
}

// Server routes HTTP requests to the wallet services
type Server struct {
	services *services.Service
	bridge   Bridge
	hotline  *services.Hotline
	router   *router.Router
	health   *health.Registry
	logger   *slog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithBridge enables the event inbox, the debug helper and the pending count
func WithBridge(b Bridge) Option {
	return func(s *Server) {
		s.bridge = b
	}
}

// WithHotline enables POST /api/v1/hotline/{function}
func WithHotline(h *services.Hotline) Option {
	return func(s *Server) {
		s.hotline = h
	}
}

func WithRouter(r *router.Router) Option {
	return func(s *Server) {
		s.router = r
	}
}

func WithHealth(registry *health.Registry) Option {
	return func(s *Server) {
		s.health = registry
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a server for svc
func NewServer(svc *services.Service, opts ...Option) *Server {
	s := &Server{
		services: svc,
		health:   health.NewRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Handle("/healthz", health.NewHandler(s.health, 5*time.Second)).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc("/routes", s.handleRoutes).Methods(http.MethodGet)
	r.HandleFunc("/events", s.handleEvent).Methods(http.MethodPost)
	r.HandleFunc("/debug/responses/{id}", s.handleResolve).Methods(http.MethodPost)

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.HandleFunc("/operations", s.handleOperations).Methods(http.MethodGet)
	v1.HandleFunc("/pending", s.handlePending).Methods(http.MethodGet)
	v1.HandleFunc("/hotline/{function}", s.handleHotline).Methods(http.MethodPost)
	v1.HandleFunc("/{bridge}/{function}", s.handleInvoke).Methods(http.MethodPost)
	return r
}

func (s *Server) handleInvoke(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	params, err := readJSON(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var in interface{}
	if params != nil {
		in = params
	}
	data, err := s.services.Invoke(r.Context(), vars["bridge"], vars["function"], in)
	if err != nil {
		s.logger.Debug("operation failed",
			"bridge", vars["bridge"],
			"function", vars["function"],
			"error", err)
		s.writeError(w, err)
		return
	}
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, data)
}

// handleHotline starts a call whose correlation id comes from the
// X-Correlation-Id header or the id query parameter, and waits for it to be
// answered, typically through /debug/responses/{id}.
func (s *Server) handleHotline(w http.ResponseWriter, r *http.Request) {
	if s.hotline == nil {
		s.writeError(w, contracts.NewBridgeError(contracts.KindHostUnavailable, "hotline is not enabled"))
		return
	}
	params, err := readJSON(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	id := r.Header.Get(HeaderCorrelationID)
	if id == "" {
		id = r.URL.Query().Get("id")
	}
	var in interface{}
	if params != nil {
		in = params
	}

	function := mux.Vars(r)["function"]
	data, err := s.hotline.Call(r.Context(), function, in, id)
	if err != nil {
		s.logger.Debug("hotline call failed", "function", function, "correlationId", id, "error", err)
		s.writeError(w, err)
		return
	}
	if len(data) == 0 {
		data = json.RawMessage("null")
	}
	writeJSON(w, http.StatusOK, data)
}

func (s *Server) handleEvent(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		s.writeError(w, contracts.NewBridgeError(contracts.KindHostUnavailable, "bridge is not enabled"))
		return
	}
	var evt contracts.Event
	if err := decodeBody(r, &evt); err != nil {
		s.writeError(w, err)
		return
	}
	if err := validateEvent(evt); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.bridge.Deliver(r.Context(), evt); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request) {
	if s.bridge == nil {
		s.writeError(w, contracts.NewBridgeError(contracts.KindHostUnavailable, "bridge is not enabled"))
		return
	}
	payload, err := readJSON(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var data interface{}
	if payload != nil {
		data = payload
	}
	if err := s.bridge.ResolveRequest(r.Context(), mux.Vars(r)["id"], data); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handlePending(w http.ResponseWriter, r *http.Request) {
	pending := 0
	if s.bridge != nil {
		pending = s.bridge.Pending()
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"embedded": s.services.Embedded(),
		"pending":  pending,
	})
}

func (s *Server) handleOperations(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, services.Operations())
}

type routesResponse struct {
	Current *router.Location `json:"current,omitempty"`
	Routes  []router.Route   `json:"routes"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	if s.router == nil {
		writeJSON(w, http.StatusOK, routesResponse{Routes: router.DefaultRoutes()})
		return
	}
	current := s.router.Current()
	writeJSON(w, http.StatusOK, routesResponse{Current: &current, Routes: s.router.Routes()})
}

// validateEvent decodes the detail the listener will decode, so a malformed
// event is refused here instead of being dropped later
func validateEvent(evt contracts.Event) error {
	var err error
	switch evt.Name {
	case contracts.EventResponse:
		_, err = evt.Response()
	case contracts.EventNavigation:
		var nav *contracts.NavigationEvent
		if nav, err = evt.Navigation(); err == nil && nav.Path == "" {
			err = fmt.Errorf("navigation event has no path")
		}
	default:
		err = fmt.Errorf("%w %q", contracts.ErrUnknownEvent, evt.Name)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", contracts.ErrInvalidRequest, err)
	}
	return nil
}

// readJSON returns the body as raw JSON, or nil for an empty body
func readJSON(r *http.Request) (json.RawMessage, error) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodySize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrInvalidRequest, err)
	}
	if len(body) == 0 {
		return nil, nil
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("%w: body is not valid JSON", contracts.ErrInvalidRequest)
	}
	return json.RawMessage(body), nil
}

func decodeBody(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodySize)).Decode(v); err != nil {
		return fmt.Errorf("%w: %v", contracts.ErrInvalidRequest, err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
