package bridge

import (
	"context"
	"encoding/json"
	"time"
)

// Call is a single in-flight request. It settles exactly once.
type Call struct {
	ID       string
	Bridge   string
	Function string
	Timeout  time.Duration
	SentAt   time.Time

	client *Client
	timer  *time.Timer
	done   chan struct{}
	data   json.RawMessage
	err    error
}

func newCall(client *Client, id, bridge, function string, timeout time.Duration) *Call {
	return &Call{
		ID:       id,
		Bridge:   bridge,
		Function: function,
		Timeout:  timeout,
		SentAt:   time.Now(),
		client:   client,
		done:     make(chan struct{}),
	}
}

// settle is only called by whoever retired the call from the table
func (c *Call) settle(data json.RawMessage, err error) {
	c.data = data
	c.err = err
	close(c.done)
}

func (c *Call) elapsed() time.Duration {
	return time.Since(c.SentAt)
}

// Done is closed once the call is settled
func (c *Call) Done() <-chan struct{} {
	return c.done
}

// Result returns the outcome of a settled call
func (c *Call) Result() (json.RawMessage, error) {
	<-c.done
	return c.data, c.err
}

// Wait blocks until the call settles. If ctx ends first the call is retired
// like a timeout and ctx.Err() is returned; the host is not told.
func (c *Call) Wait(ctx context.Context) (json.RawMessage, error) {
	select {
	case <-c.done:
		return c.data, c.err
	case <-ctx.Done():
		if c.client.abandon(c) {
			return nil, ctx.Err()
		}
		// Retired concurrently by a response or the timer.
		return c.Result()
	}
}
