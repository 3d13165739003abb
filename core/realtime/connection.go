package realtime

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/tablerail/tablerail/core/tenant"
)

// State tracks a connection through its lifecycle.
type State int32

const (
	StateConnecting State = iota
	StateAuthenticated
	StateActive
	StateClosing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateAuthenticated:
		return "authenticated"
	case StateActive:
		return "active"
	case StateClosing:
		return "closing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Connection is one realtime client bound to a principal and tenant.
// All mutation happens on the goroutines the gateway runs for it; the
// hub only reads the send channel and the attached-stream set.
type Connection struct {
	ID          string
	Principal   tenant.Principal
	Tenant      tenant.Context
	ConnectedAt time.Time

	mu       sync.Mutex
	state    State
	streams  map[string]struct{}
	send     chan []byte
	liveness *clock.Ticker
	done     chan struct{}

	teardownOnce sync.Once
	onTeardown   func(*Connection)
}

const sendBuffer = 64

// NewConnection returns a connection in the Connecting state.
func NewConnection(now time.Time) *Connection {
	return &Connection{
		ID:          uuid.NewString(),
		ConnectedAt: now,
		state:       StateConnecting,
		streams:     make(map[string]struct{}),
		send:        make(chan []byte, sendBuffer),
		done:        make(chan struct{}),
	}
}

// State returns the current lifecycle state.
func (c *Connection) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Authenticate binds identity after a successful token check. Only a
// Connecting connection may authenticate.
func (c *Connection) Authenticate(p tenant.Principal, tc tenant.Context) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateConnecting {
		return false
	}
	c.Principal = p
	c.Tenant = tc
	c.state = StateAuthenticated
	return true
}

// Activate starts the liveness ticker and opens the connection for
// subscribe traffic. onTeardown runs exactly once when the connection
// ends, after all streams are detached.
func (c *Connection) Activate(clk clock.Clock, interval time.Duration, onTeardown func(*Connection)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateAuthenticated {
		return false
	}
	if clk != nil && interval > 0 {
		c.liveness = clk.Ticker(interval)
	}
	c.onTeardown = onTeardown
	c.state = StateActive
	return true
}

// LivenessTicks exposes the liveness channel, nil when no ticker runs.
func (c *Connection) LivenessTicks() <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.liveness == nil {
		return nil
	}
	return c.liveness.C
}

// Attach records a stream subscription. Only Active connections attach.
func (c *Connection) Attach(streamID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.state != StateActive {
		return false
	}
	c.streams[streamID] = struct{}{}
	return true
}

// Detach removes a stream subscription.
func (c *Connection) Detach(streamID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.streams, streamID)
}

// AttachedStreams returns a copy of the attached stream ids.
func (c *Connection) AttachedStreams() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, 0, len(c.streams))
	for id := range c.streams {
		out = append(out, id)
	}
	return out
}

// Enqueue offers a frame to the connection's outbound buffer without
// blocking. A false return means the client is too slow to keep up.
func (c *Connection) Enqueue(frame []byte) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- frame:
		return true
	default:
		return false
	}
}

// Outbound is the frame channel drained by the gateway's write loop.
func (c *Connection) Outbound() <-chan []byte { return c.send }

// Done closes when the connection has been torn down.
func (c *Connection) Done() <-chan struct{} { return c.done }

// Teardown ends the connection: stops the liveness ticker, clears the
// attached-stream set, and runs the teardown hook. Safe to call from
// any goroutine, any number of times.
func (c *Connection) Teardown() {
	c.teardownOnce.Do(func() {
		c.mu.Lock()
		c.state = StateClosing
		if c.liveness != nil {
			c.liveness.Stop()
			c.liveness = nil
		}
		hook := c.onTeardown
		c.onTeardown = nil
		c.mu.Unlock()

		if hook != nil {
			hook(c)
		}

		c.mu.Lock()
		c.streams = make(map[string]struct{})
		c.state = StateClosed
		c.mu.Unlock()
		close(c.done)
	})
}
