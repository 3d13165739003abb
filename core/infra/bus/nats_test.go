package bus

import (
	"errors"
	"testing"

	"github.com/nats-io/nats.go"
)

func TestSubjectFor(t *testing.T) {
	if SubjectFor("", 5) != "" {
		t.Fatalf("expected empty subject")
	}
	if got := SubjectFor("order_channel", 5); got != "tablerail.stream.order_channel.5" {
		t.Fatalf("unexpected subject: %s", got)
	}
	if got := SubjectFor(" inventory_channel ", 12); got != "tablerail.stream.inventory_channel.12" {
		t.Fatalf("unexpected subject: %s", got)
	}
}

func TestNatsBusPublishErrors(t *testing.T) {
	var nilBus *NatsBus
	if err := nilBus.PublishStream(&StreamEvent{StreamID: "order_channel_5"}); !errors.Is(err, errNilBus) {
		t.Fatalf("expected nil bus error, got %v", err)
	}
	bus := &NatsBus{nc: &nats.Conn{}}
	if err := bus.PublishStream(nil); !errors.Is(err, errNilEvent) {
		t.Fatalf("expected nil event error, got %v", err)
	}
	if err := bus.PublishStream(&StreamEvent{}); !errors.Is(err, errEmptyStream) {
		t.Fatalf("expected empty stream error, got %v", err)
	}
	if err := bus.PublishStream(&StreamEvent{StreamID: "order_channel_5"}); err == nil {
		t.Fatalf("expected empty subject error for missing kind")
	}
}

func TestNatsBusSubscribeErrors(t *testing.T) {
	var nilBus *NatsBus
	if err := nilBus.SubscribeStreams("", func(*StreamEvent) {}); !errors.Is(err, errNilBus) {
		t.Fatalf("expected nil bus error, got %v", err)
	}
	bus := &NatsBus{nc: &nats.Conn{}}
	if err := bus.SubscribeStreams("", nil); err == nil {
		t.Fatalf("expected nil handler error")
	}
}

func TestNatsBusStatusDefaults(t *testing.T) {
	var nilBus *NatsBus
	if nilBus.IsConnected() {
		t.Fatalf("expected disconnected nil bus")
	}
	if status := nilBus.Status(); status != "UNKNOWN" {
		t.Fatalf("expected UNKNOWN status, got %s", status)
	}
	if url := nilBus.ConnectedURL(); url != "" {
		t.Fatalf("expected empty url, got %s", url)
	}
}
