package bus

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/tablerail/tablerail/core/infra/logging"
)

// StreamEvent is the JSON envelope carried on the bus for realtime
// channel traffic. Backend services publish events here and the gateway
// fans them out to attached websocket connections.
type StreamEvent struct {
	StreamID string          `json:"stream_id"`
	Kind     string          `json:"kind"`
	TenantID int64           `json:"tenant_id"`
	Scope    string          `json:"scope,omitempty"`
	Payload  json.RawMessage `json:"payload,omitempty"`
	SentAt   time.Time       `json:"sent_at,omitempty"`
}

// Publisher is the write side of the event bus.
type Publisher interface {
	PublishStream(event *StreamEvent) error
}

// NatsBus is a thin wrapper over a NATS connection that speaks JSON
// stream events.
type NatsBus struct {
	nc *nats.Conn
}

const (
	subjectPrefix   = "tablerail.stream."
	subjectWildcard = subjectPrefix + ">"
)

var (
	errNilBus      = errors.New("nats bus not initialized")
	errNilEvent    = errors.New("nil stream event")
	errEmptyStream = errors.New("empty stream id")
)

// NewNatsBus dials NATS at the provided URL.
func NewNatsBus(url string) (*NatsBus, error) {
	opts := []nats.Option{
		nats.Name("tablerail-gateway"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			logging.Warn("bus", "disconnected from NATS", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logging.Info("bus", "reconnected to NATS", "url", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			logging.Info("bus", "connection closed")
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, err
	}
	return &NatsBus{nc: nc}, nil
}

// Close shuts down the underlying NATS connection.
func (b *NatsBus) Close() {
	if b != nil && b.nc != nil {
		b.nc.Close()
	}
}

// SubjectFor maps a stream event to its NATS subject. Subjects are
// segmented by kind then tenant so subscribers can narrow by either.
func SubjectFor(kind string, tenantID int64) string {
	kind = strings.TrimSpace(kind)
	if kind == "" {
		return ""
	}
	return fmt.Sprintf("%s%s.%d", subjectPrefix, kind, tenantID)
}

// PublishStream sends a JSON-encoded stream event on its subject.
func (b *NatsBus) PublishStream(event *StreamEvent) error {
	if b == nil || b.nc == nil {
		return errNilBus
	}
	if event == nil {
		return errNilEvent
	}
	if strings.TrimSpace(event.StreamID) == "" {
		return errEmptyStream
	}
	subject := SubjectFor(event.Kind, event.TenantID)
	if subject == "" {
		return errors.New("empty subject")
	}
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return b.nc.Publish(subject, data)
}

// SubscribeStreams attaches a subscription covering every stream
// subject and invokes the handler per decoded event. A non-empty queue
// joins a queue group so gateway replicas split the feed.
func (b *NatsBus) SubscribeStreams(queue string, handler func(*StreamEvent)) error {
	if b == nil || b.nc == nil {
		return errNilBus
	}
	if handler == nil {
		return errors.New("nil handler")
	}
	cb := func(msg *nats.Msg) {
		var event StreamEvent
		if err := json.Unmarshal(msg.Data, &event); err != nil {
			logging.Warn("bus", "failed to decode stream event", "subject", msg.Subject, "error", err)
			return
		}
		if strings.TrimSpace(event.StreamID) == "" {
			logging.Warn("bus", "dropping stream event without id", "subject", msg.Subject)
			return
		}
		handler(&event)
	}
	if queue == "" {
		_, err := b.nc.Subscribe(subjectWildcard, cb)
		return err
	}
	_, err := b.nc.QueueSubscribe(subjectWildcard, queue, cb)
	return err
}

func (b *NatsBus) IsConnected() bool {
	return b != nil && b.nc != nil && b.nc.IsConnected()
}

func (b *NatsBus) Status() string {
	if b == nil || b.nc == nil {
		return "UNKNOWN"
	}
	return b.nc.Status().String()
}

func (b *NatsBus) ConnectedURL() string {
	if b == nil || b.nc == nil {
		return ""
	}
	return b.nc.ConnectedUrl()
}
