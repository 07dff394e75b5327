package bridge

import (
	"sync"
	"time"
)

// Outcome is how a call left the pending-call table
type Outcome string

const (
	OutcomeSuccess    Outcome = "success"
	OutcomeHostError  Outcome = "host_error"
	OutcomeTimeout    Outcome = "timeout"
	OutcomeCancelled  Outcome = "cancelled"
	OutcomeClosed     Outcome = "closed"
	OutcomePostFailed Outcome = "post_failed"
)

// MetricsCollector collects bridge metrics
type MetricsCollector interface {
	// RecordRequest records a call entering the table
	RecordRequest(bridge, function string)

	// RecordCompletion records a call leaving the table
	RecordCompletion(bridge, function string, outcome Outcome, duration time.Duration)

	// RecordUnmatched records a response with no pending call
	RecordUnmatched()
}

// NoOpMetricsCollector is a no-op implementation of MetricsCollector
type NoOpMetricsCollector struct{}

// RecordRequest does nothing
func (n *NoOpMetricsCollector) RecordRequest(bridge, function string) {}

// RecordCompletion does nothing
func (n *NoOpMetricsCollector) RecordCompletion(bridge, function string, outcome Outcome, duration time.Duration) {
}

// RecordUnmatched does nothing
func (n *NoOpMetricsCollector) RecordUnmatched() {}

// OperationStats holds counters for one bridge function
type OperationStats struct {
	Requests     int64             `json:"requests"`
	Outcomes     map[Outcome]int64 `json:"outcomes"`
	TotalLatency time.Duration     `json:"totalLatency"`
	MaxLatency   time.Duration     `json:"maxLatency"`
}

// MetricsStats is a snapshot of collected metrics
type MetricsStats struct {
	Requests   int64                     `json:"requests"`
	Outcomes   map[Outcome]int64         `json:"outcomes"`
	Unmatched  int64                     `json:"unmatched"`
	Operations map[string]OperationStats `json:"operations"`
}

// InMemoryMetricsCollector keeps counters in memory
type InMemoryMetricsCollector struct {
	mu         sync.Mutex
	requests   int64
	unmatched  int64
	outcomes   map[Outcome]int64
	operations map[string]*OperationStats
}

// NewInMemoryMetricsCollector creates an empty collector
func NewInMemoryMetricsCollector() *InMemoryMetricsCollector {
	return &InMemoryMetricsCollector{
		outcomes:   make(map[Outcome]int64),
		operations: make(map[string]*OperationStats),
	}
}

func (m *InMemoryMetricsCollector) operation(bridge, function string) *OperationStats {
	key := bridge + "." + function
	stats, exists := m.operations[key]
	if !exists {
		stats = &OperationStats{Outcomes: make(map[Outcome]int64)}
		m.operations[key] = stats
	}
	return stats
}

// RecordRequest records a call entering the table
func (m *InMemoryMetricsCollector) RecordRequest(bridge, function string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests++
	m.operation(bridge, function).Requests++
}

// RecordCompletion records a call leaving the table
func (m *InMemoryMetricsCollector) RecordCompletion(bridge, function string, outcome Outcome, duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.outcomes[outcome]++
	stats := m.operation(bridge, function)
	stats.Outcomes[outcome]++
	stats.TotalLatency += duration
	if duration > stats.MaxLatency {
		stats.MaxLatency = duration
	}
}

// RecordUnmatched records a dropped response
func (m *InMemoryMetricsCollector) RecordUnmatched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.unmatched++
}

// GetStats returns a copy of the current counters
func (m *InMemoryMetricsCollector) GetStats() MetricsStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	stats := MetricsStats{
		Requests:   m.requests,
		Unmatched:  m.unmatched,
		Outcomes:   make(map[Outcome]int64, len(m.outcomes)),
		Operations: make(map[string]OperationStats, len(m.operations)),
	}
	for outcome, count := range m.outcomes {
		stats.Outcomes[outcome] = count
	}
	for key, op := range m.operations {
		copied := *op
		copied.Outcomes = make(map[Outcome]int64, len(op.Outcomes))
		for outcome, count := range op.Outcomes {
			copied.Outcomes[outcome] = count
		}
		stats.Operations[key] = copied
	}
	return stats
}
