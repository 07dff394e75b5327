package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"sync"
	"time"
)

// Status is the health of one component or of the whole bridge
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

func (s Status) rank() int {
	switch s {
	case StatusHealthy:
		return 0
	case StatusDegraded:
		return 1
	default:
		return 2
	}
}

// CheckResult is the outcome of one check. The registry fills in Name,
// Duration and Timestamp.
type CheckResult struct {
	Name      string                 `json:"name"`
	Status    Status                 `json:"status"`
	Message   string                 `json:"message,omitempty"`
	Duration  time.Duration          `json:"duration"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Error     string                 `json:"error,omitempty"`
}

// Report is the aggregate of every registered check
type Report struct {
	Status    Status                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Duration  time.Duration          `json:"duration"`
	Checks    map[string]CheckResult `json:"checks"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Checker checks one component of the bridge
type Checker interface {
	Check(ctx context.Context) CheckResult
	Name() string
}

type funcChecker struct {
	name string
	fn   func(ctx context.Context) CheckResult
}

func (c funcChecker) Name() string { return c.name }
func (c funcChecker) Check(ctx context.Context) CheckResult { return c.fn(ctx) }

// NewCheckerFunc names fn as a Checker
func NewCheckerFunc(name string, fn func(ctx context.Context) CheckResult) Checker {
	return funcChecker{name: name, fn: fn}
}

// Registry holds the checkers behind /healthz
type Registry struct {
	mu       sync.RWMutex
	checkers map[string]Checker
	metadata map[string]interface{}
}

func NewRegistry() *Registry {
	return &Registry{
		checkers: make(map[string]Checker),
		metadata: make(map[string]interface{}),
	}
}

// Register adds a checker, replacing one with the same name
func (r *Registry) Register(checker Checker) {
	r.mu.Lock()
	r.checkers[checker.Name()] = checker
	r.mu.Unlock()
}

// SetMetadata attaches a value to every report
func (r *Registry) SetMetadata(key string, value interface{}) {
	r.mu.Lock()
	r.metadata[key] = value
	r.mu.Unlock()
}

// Names returns the registered checker names, sorted
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.checkers))
	for name := range r.checkers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) snapshot() ([]Checker, map[string]interface{}) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	checkers := make([]Checker, 0, len(r.checkers))
	for _, checker := range r.checkers {
		checkers = append(checkers, checker)
	}
	metadata := make(map[string]interface{}, len(r.metadata))
	for k, v := range r.metadata {
		metadata[k] = v
	}
	return checkers, metadata
}

// Check runs every checker concurrently. A check still running when ctx is
// done is reported unhealthy and its late result is discarded.
func (r *Registry) Check(ctx context.Context) Report {
	start := time.Now()
	checkers, metadata := r.snapshot()

	results := make(chan CheckResult, len(checkers))
	for _, checker := range checkers {
		go func(checker Checker) {
			began := time.Now()
			res := checker.Check(ctx)
			res.Name = checker.Name()
			res.Duration = time.Since(began)
			if res.Timestamp.IsZero() {
				res.Timestamp = began
			}
			results <- res
		}(checker)
	}

	report := Report{
		Status:   StatusHealthy,
		Checks:   make(map[string]CheckResult, len(checkers)),
		Metadata: metadata,
	}
	for len(report.Checks) < len(checkers) {
		select {
		case res := <-results:
			report.add(res)
		case <-ctx.Done():
			for _, checker := range checkers {
				if _, done := report.Checks[checker.Name()]; done {
					continue
				}
				report.add(CheckResult{
					Name:      checker.Name(),
					Status:    StatusUnhealthy,
					Message:   "check timed out",
					Duration:  time.Since(start),
					Timestamp: time.Now(),
					Error:     ctx.Err().Error(),
				})
			}
		}
	}

	report.Timestamp = time.Now()
	report.Duration = time.Since(start)
	return report
}

func (rep *Report) add(res CheckResult) {
	rep.Checks[res.Name] = res
	if res.Status.rank() > rep.Status.rank() {
		rep.Status = res.Status
	}
}

// Handler serves the report as JSON; unhealthy answers 503
type Handler struct {
	registry *Registry
	timeout  time.Duration
}

func NewHandler(registry *Registry, timeout time.Duration) *Handler {
	return &Handler{registry: registry, timeout: timeout}
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	report := h.registry.Check(ctx)

	code := http.StatusOK
	if report.Status == StatusUnhealthy {
		code = http.StatusServiceUnavailable
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if r.Method == http.MethodHead {
		return
	}
	json.NewEncoder(w).Encode(report)
}
