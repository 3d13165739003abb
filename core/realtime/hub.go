package realtime

import (
	"encoding/json"
	"sync"

	"github.com/tablerail/tablerail/core/infra/bus"
	"github.com/tablerail/tablerail/core/infra/logging"
	"github.com/tablerail/tablerail/core/infra/metrics"
)

// Hub fans published stream events out to attached connections.
type Hub struct {
	mu      sync.RWMutex
	streams map[string]map[*Connection]struct{}
	metrics metrics.RealtimeMetrics
}

func NewHub(m metrics.RealtimeMetrics) *Hub {
	if m == nil {
		m = metrics.Noop{}
	}
	return &Hub{
		streams: make(map[string]map[*Connection]struct{}),
		metrics: m,
	}
}

// Attach subscribes a connection to a stream id.
func (h *Hub) Attach(c *Connection, streamID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	conns, ok := h.streams[streamID]
	if !ok {
		conns = make(map[*Connection]struct{})
		h.streams[streamID] = conns
	}
	conns[c] = struct{}{}
}

// Detach removes one subscription.
func (h *Hub) Detach(c *Connection, streamID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.detachLocked(c, streamID)
}

// DetachAll removes every subscription the connection holds. Used at
// teardown so no stream keeps a reference to a closed connection.
func (h *Hub) DetachAll(c *Connection) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, streamID := range c.AttachedStreams() {
		h.detachLocked(c, streamID)
	}
}

func (h *Hub) detachLocked(c *Connection, streamID string) {
	conns, ok := h.streams[streamID]
	if !ok {
		return
	}
	delete(conns, c)
	if len(conns) == 0 {
		delete(h.streams, streamID)
	}
}

// Attached reports how many connections are subscribed to a stream.
func (h *Hub) Attached(streamID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.streams[streamID])
}

// Broadcast delivers a stream event to every attached connection.
// Connections whose outbound buffer is full are torn down rather than
// allowed to stall the fan-out.
func (h *Hub) Broadcast(event *bus.StreamEvent) {
	if event == nil || event.StreamID == "" {
		return
	}
	frame, err := json.Marshal(serverFrame{
		Type:       frameMessage,
		Identifier: event.StreamID,
		Message:    event.Payload,
	})
	if err != nil {
		logging.Error("realtime", "stream event encode failed", "stream", event.StreamID, "error", err)
		return
	}

	var slow []*Connection
	h.mu.RLock()
	for c := range h.streams[event.StreamID] {
		if c.Enqueue(frame) {
			h.metrics.IncEventsDelivered(event.Kind)
		} else {
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		logging.Warn("realtime", "evicting slow client", "connection", c.ID, "stream", event.StreamID)
		c.Teardown()
	}
}
