package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/glimte/walletbridge/bridge"
	"github.com/glimte/walletbridge/contracts"
	"github.com/glimte/walletbridge/interceptors"
)

// Timeouts for host flows that wait on the user
const (
	InteractiveTimeout = 120 * time.Second
	FilePickerTimeout  = 60 * time.Second
	CancelTimeout      = 10 * time.Second
)

// ErrUnknownOperation is returned for a bridge function with no registered operation
var ErrUnknownOperation = errors.New("unknown operation")

// Operation is one host bridge function
type Operation struct {
	Bridge   string        `json:"bridge"`
	Function string        `json:"function"`
	Timeout  time.Duration `json:"timeout,omitempty"`
}

// Key identifies the operation as bridge.function
func (o Operation) Key() string {
	return o.Bridge + "." + o.Function
}

// Service calls host operations, or the mock store when not embedded
type Service struct {
	requester bridge.Requester
	embed     bool
	mock      *MockStore
	chain     *interceptors.Chain
	logger    *slog.Logger
}

// Option configures a Service
type Option func(*Service)

// WithEmbed routes calls to the host instead of the mock store
func WithEmbed(embed bool) Option {
	return func(s *Service) {
		s.embed = embed
	}
}

// WithMockStore sets the store answering calls when not embedded
func WithMockStore(store *MockStore) Option {
	return func(s *Service) {
		s.mock = store
	}
}

// WithInterceptors runs host calls through chain. Mock calls bypass it.
func WithInterceptors(chain *interceptors.Chain) Option {
	return func(s *Service) {
		s.chain = chain
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// New creates a service. The requester may be nil when not embedded.
func New(requester bridge.Requester, opts ...Option) *Service {
	s := &Service{
		requester: requester,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.mock == nil {
		s.mock = NewMockStore()
	}
	if s.chain == nil {
		s.chain = interceptors.NewChain(s.logger)
	}
	return s
}

// Embedded reports whether calls go to the host
func (s *Service) Embedded() bool {
	return s.embed
}

// MockStore returns the store used when not embedded
func (s *Service) MockStore() *MockStore {
	return s.mock
}

// Operations lists every registered operation sorted by key
func Operations() []Operation {
	ops := make([]Operation, 0, len(registry))
	for _, entry := range registry {
		ops = append(ops, entry.Operation)
	}
	sort.Slice(ops, func(i, j int) bool { return ops[i].Key() < ops[j].Key() })
	return ops
}

// Lookup finds a registered operation
func Lookup(bridgeName, function string) (Operation, bool) {
	entry, exists := registry[bridgeName+"."+function]
	return entry.Operation, exists
}

// Invoke runs a registered operation with params
func (s *Service) Invoke(ctx context.Context, bridgeName, function string, params interface{}) (json.RawMessage, error) {
	entry, exists := registry[bridgeName+"."+function]
	if !exists {
		return nil, fmt.Errorf("%w: %s.%s", ErrUnknownOperation, bridgeName, function)
	}

	if !s.embed {
		raw, err := contracts.EncodeData(params)
		if err != nil {
			return nil, err
		}
		result, err := entry.mock(s.mock, raw)
		if err != nil {
			return nil, err
		}
		return contracts.EncodeData(result)
	}

	if s.requester == nil {
		return nil, contracts.NewBridgeError(contracts.KindHostUnavailable, "no host for %s.%s", bridgeName, function)
	}
	inv := &interceptors.Invocation{
		Bridge:   entry.Bridge,
		Function: entry.Function,
		Params:   params,
		Timeout:  entry.Timeout,
	}
	return s.chain.Execute(ctx, inv, interceptors.HandlerFunc(s.request))
}

func (s *Service) request(ctx context.Context, inv *interceptors.Invocation) (json.RawMessage, error) {
	return s.requester.Request(ctx, inv.Bridge, inv.Function, inv.Params, bridge.WithTimeout(inv.Timeout))
}

// invoke is Invoke for registry keys known at compile time
func (s *Service) invoke(ctx context.Context, op Operation, params interface{}) (json.RawMessage, error) {
	return s.Invoke(ctx, op.Bridge, op.Function, params)
}

func invokeAs[T any](ctx context.Context, s *Service, op Operation, params interface{}) (T, error) {
	var result T
	data, err := s.invoke(ctx, op, params)
	if err != nil {
		return result, err
	}
	if len(data) == 0 || string(data) == "null" {
		return result, nil
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return result, fmt.Errorf("failed to decode %s: %w", op.Key(), err)
	}
	return result, nil
}
