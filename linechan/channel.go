// Package linechan provides an unbounded, order-preserving queue of text lines
// with a blocking receive. One Channel carries input into the run loop, another
// carries rendered output back to whoever drives it.
package linechan

import (
	"context"
	"sync"

	"github.com/m4xw311/todoloop/errors"
)

// ErrClosed is returned by Receive once the channel is closed and drained.
var ErrClosed = errors.Sentinel("line channel closed")

// Channel is safe for concurrent use by any number of producers and consumers.
// Lines from a single producer are received in the order they were sent.
type Channel struct {
	mu     sync.Mutex
	lines  []string
	closed bool
	// ready holds at most one wake-up token; a consumer that leaves lines
	// behind passes the token on.
	ready chan struct{}
}

// New creates an empty channel.
func New() *Channel {
	return &Channel{ready: make(chan struct{}, 1)}
}

// Send enqueues line and returns immediately. Lines sent after Close are dropped.
func (c *Channel) Send(line string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.lines = append(c.lines, line)
	c.mu.Unlock()
	c.wake()
}

// Receive blocks until a line is available and removes it from the queue.
// It returns ctx.Err() if ctx ends first, and ErrClosed once the channel has
// been closed and every queued line has been handed out.
func (c *Channel) Receive(ctx context.Context) (string, error) {
	for {
		c.mu.Lock()
		if len(c.lines) > 0 {
			line := c.lines[0]
			c.lines[0] = ""
			c.lines = c.lines[1:]
			more := len(c.lines) > 0
			c.mu.Unlock()
			if more {
				c.wake()
			}
			return line, nil
		}
		if c.closed {
			c.mu.Unlock()
			c.wake()
			return "", ErrClosed
		}
		c.mu.Unlock()

		select {
		case <-c.ready:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
}

// Close marks the end of the stream. Queued lines are still delivered.
func (c *Channel) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.wake()
}

// Len reports how many lines are queued.
func (c *Channel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *Channel) wake() {
	select {
	case c.ready <- struct{}{}:
	default:
	}
}
