package health

import (
	"context"
	"fmt"
	"runtime"

	"github.com/glimte/walletbridge/internal/rabbitmq"
)

// ConnectionChecker checks the AMQP connection behind the host transport and,
// when an exchange is set, that the bridge exchange still exists.
type ConnectionChecker struct {
	manager  *rabbitmq.ConnectionManager
	exchange string
}

func NewConnectionChecker(manager *rabbitmq.ConnectionManager, exchange string) *ConnectionChecker {
	return &ConnectionChecker{manager: manager, exchange: exchange}
}

func (c *ConnectionChecker) Name() string {
	return "rabbitmq"
}

func (c *ConnectionChecker) Check(ctx context.Context) CheckResult {
	conn, err := c.manager.GetConnection()
	if err != nil {
		return unhealthy("host broker unreachable", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		return unhealthy("cannot open a channel to the host broker", err)
	}
	defer ch.Close()

	result := CheckResult{
		Status:  StatusHealthy,
		Message: "host broker connected",
		Details: map[string]interface{}{},
	}
	if c.exchange == "" {
		return result
	}

	result.Details["exchange"] = c.exchange
	// A failed passive declare closes ch; the deferred Close tolerates that.
	if err := ch.ExchangeDeclarePassive(c.exchange, "topic", true, false, false, false, nil); err != nil {
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("bridge exchange %s missing", c.exchange)
		result.Error = err.Error()
	}
	return result
}

func unhealthy(message string, err error) CheckResult {
	return CheckResult{
		Status:  StatusUnhealthy,
		Message: message,
		Error:   err.Error(),
	}
}

// PendingCounter reports outstanding bridge calls
type PendingCounter interface {
	Pending() int
}

// BridgeChecker reports degraded when the pending-call table nears its cap
// and unhealthy when it is full. A zero cap is never full.
type BridgeChecker struct {
	counter   PendingCounter
	max       int
	threshold float64
}

func NewBridgeChecker(counter PendingCounter, max int) *BridgeChecker {
	return &BridgeChecker{counter: counter, max: max, threshold: 0.8}
}

func (c *BridgeChecker) Name() string {
	return "bridge"
}

func (c *BridgeChecker) Check(ctx context.Context) CheckResult {
	pending := c.counter.Pending()
	result := CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("%d pending calls", pending),
		Details: map[string]interface{}{"pending": pending},
	}
	if c.max <= 0 {
		return result
	}

	result.Details["max_pending"] = c.max
	switch {
	case pending >= c.max:
		result.Status = StatusUnhealthy
		result.Message = fmt.Sprintf("pending call table full: %d/%d", pending, c.max)
	case float64(pending) >= float64(c.max)*c.threshold:
		result.Status = StatusDegraded
		result.Message = fmt.Sprintf("pending call table near capacity: %d/%d", pending, c.max)
	}
	return result
}

// RuntimeChecker flags goroutine growth, which shows up as stuck bridge calls
type RuntimeChecker struct {
	warn     int
	critical int
}

func NewRuntimeChecker(warn, critical int) *RuntimeChecker {
	return &RuntimeChecker{warn: warn, critical: critical}
}

func (c *RuntimeChecker) Name() string {
	return "runtime"
}

func (c *RuntimeChecker) Check(ctx context.Context) CheckResult {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	goroutines := runtime.NumGoroutine()

	result := CheckResult{
		Status:  StatusHealthy,
		Message: fmt.Sprintf("%d goroutines", goroutines),
		Details: map[string]interface{}{
			"goroutines":    goroutines,
			"heap_alloc_mb": float64(mem.HeapAlloc) / (1 << 20),
			"gc_runs":       mem.NumGC,
		},
	}
	switch {
	case goroutines > c.critical:
		result.Status = StatusUnhealthy
	case goroutines > c.warn:
		result.Status = StatusDegraded
	}
	return result
}
