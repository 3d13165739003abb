package realtime

import (
	"errors"
	"testing"

	"github.com/tablerail/tablerail/core/auth"
)

func TestParseStreamID(t *testing.T) {
	reg := DefaultRegistry()

	stream, err := reg.ParseStreamID("order_channel_5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if stream.Kind != "order_channel" || stream.TenantID != 5 || stream.Scope != "" {
		t.Fatalf("unexpected stream: %+v", stream)
	}

	stream, err = reg.ParseStreamID("inventory_channel_12_table_9")
	if err != nil {
		t.Fatalf("parse scoped: %v", err)
	}
	if stream.TenantID != 12 || stream.Scope != "table_9" {
		t.Fatalf("unexpected scoped stream: %+v", stream)
	}
}

func TestParseStreamIDRejections(t *testing.T) {
	reg := DefaultRegistry()
	for _, id := range []string{
		"",
		"order_channel",
		"order_channel_",
		"order_channel_abc",
		"order_channel_0",
		"order_channel_-3",
		"payments_channel_5",
	} {
		if _, err := reg.ParseStreamID(id); !errors.Is(err, auth.ErrChannelRejected) {
			t.Fatalf("id %q: expected ErrChannelRejected, got %v", id, err)
		}
	}
}

func TestRegistryLongestPrefixMatch(t *testing.T) {
	reg := NewRegistry(
		ChannelKind{Name: "order_channel"},
		ChannelKind{Name: "order_channel_audit"},
	)
	stream, err := reg.ParseStreamID("order_channel_audit_5")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if stream.Kind != "order_channel_audit" || stream.TenantID != 5 {
		t.Fatalf("expected longest kind match, got %+v", stream)
	}
}
