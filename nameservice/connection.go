package nameservice

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"go.uber.org/atomic"

	"github.com/ruteri/secret-dns/interfaces"
)

// State of a backend Connection. It only moves forward.
type State int32

const (
	StateUninitialized State = iota
	StateConnecting
	StateReady
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateConnecting:
		return "connecting"
	case StateReady:
		return "ready"
	case StateFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// DialFunc establishes the backend. It runs once, in its own goroutine.
type DialFunc func(ctx context.Context) (interfaces.TaskBackend, error)

// Connection is the one-time, asynchronous setup gate in front of the task
// backend. Until it is ready every operation that needs the backend fails
// with interfaces.ErrNotReady instead of waiting.
type Connection struct {
	state *atomic.Int32
	done  chan struct{}
	log   *slog.Logger

	mu      sync.RWMutex
	backend interfaces.TaskBackend
	err     error
}

func NewConnection(log *slog.Logger) *Connection {
	return &Connection{
		state: atomic.NewInt32(int32(StateUninitialized)),
		done:  make(chan struct{}),
		log:   log,
	}
}

// NewReadyConnection wraps an already established backend.
func NewReadyConnection(backend interfaces.TaskBackend, log *slog.Logger) *Connection {
	c := NewConnection(log)
	c.backend = backend
	c.state.Store(int32(StateReady))
	close(c.done)
	return c
}

func (c *Connection) State() State {
	return State(c.state.Load())
}

// Ready reports whether the backend can be used. It never blocks.
func (c *Connection) Ready() bool {
	return c.State() == StateReady
}

// Connect starts dial in the background. Only the first call has an effect;
// it returns false for later calls.
func (c *Connection) Connect(ctx context.Context, dial DialFunc) bool {
	if !c.state.CompareAndSwap(int32(StateUninitialized), int32(StateConnecting)) {
		return false
	}

	go func() {
		backend, err := dial(ctx)

		c.mu.Lock()
		if err != nil {
			c.err = err
			c.state.Store(int32(StateFailed))
		} else {
			c.backend = backend
			c.state.Store(int32(StateReady))
		}
		c.mu.Unlock()
		close(c.done)

		if err != nil {
			c.log.Error("Could not connect to task backend", "err", err)
			return
		}
		c.log.Info("Task backend ready")
	}()
	return true
}

// Backend returns the established backend, or interfaces.ErrNotReady.
func (c *Connection) Backend() (interfaces.TaskBackend, error) {
	if !c.Ready() {
		return nil, fmt.Errorf("%w: connection is %s", interfaces.ErrNotReady, c.State())
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.backend, nil
}

// Wait blocks until the dial finished or ctx is done and returns the dial error.
func (c *Connection) Wait(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.err
}

// Close releases the backend if it holds resources.
func (c *Connection) Close() {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if closer, ok := c.backend.(interface{ Close() }); ok {
		closer.Close()
	}
}
