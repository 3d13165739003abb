// Package realtime manages long-lived websocket connections and their
// tenant-scoped stream subscriptions.
package realtime

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/tablerail/tablerail/core/auth"
)

// ChannelKind declares a subscribable channel family and whether a
// super_admin may attach to another restaurant's streams of this kind.
type ChannelKind struct {
	Name             string
	CrossTenantAdmin bool
}

// Registry holds the channel kinds a gateway accepts subscriptions for.
type Registry struct {
	kinds map[string]ChannelKind
	names []string
}

// NewRegistry builds a registry from the given kinds. Kind names are
// matched longest-first when parsing stream ids, so kinds whose names
// share a prefix stay unambiguous.
func NewRegistry(kinds ...ChannelKind) *Registry {
	r := &Registry{kinds: make(map[string]ChannelKind)}
	for _, k := range kinds {
		name := strings.TrimSpace(k.Name)
		if name == "" {
			continue
		}
		k.Name = name
		if _, exists := r.kinds[name]; !exists {
			r.names = append(r.names, name)
		}
		r.kinds[name] = k
	}
	sort.Slice(r.names, func(i, j int) bool {
		if len(r.names[i]) != len(r.names[j]) {
			return len(r.names[i]) > len(r.names[j])
		}
		return r.names[i] < r.names[j]
	})
	return r
}

// DefaultRegistry covers the stock restaurant channel kinds.
func DefaultRegistry() *Registry {
	return NewRegistry(
		ChannelKind{Name: "order_channel", CrossTenantAdmin: true},
		ChannelKind{Name: "inventory_channel", CrossTenantAdmin: true},
		ChannelKind{Name: "reservation_channel", CrossTenantAdmin: false},
	)
}

// Kind looks up a channel kind by name.
func (r *Registry) Kind(name string) (ChannelKind, bool) {
	if r == nil {
		return ChannelKind{}, false
	}
	k, ok := r.kinds[name]
	return k, ok
}

// Stream is a parsed stream id.
type Stream struct {
	ID       string
	Kind     string
	TenantID int64
	Scope    string
}

// ParseStreamID splits an id of the form {kind}_{tenant} or
// {kind}_{tenant}_{scope} against the registered kinds. Unknown kinds
// and malformed tenant segments are subscription rejections.
func (r *Registry) ParseStreamID(id string) (Stream, error) {
	id = strings.TrimSpace(id)
	if r == nil || id == "" {
		return Stream{}, fmt.Errorf("%w: empty stream id", auth.ErrChannelRejected)
	}
	for _, name := range r.names {
		if !strings.HasPrefix(id, name+"_") {
			continue
		}
		rest := id[len(name)+1:]
		tenantPart := rest
		scope := ""
		if i := strings.Index(rest, "_"); i >= 0 {
			tenantPart = rest[:i]
			scope = rest[i+1:]
		}
		tenantID, err := strconv.ParseInt(tenantPart, 10, 64)
		if err != nil || tenantID <= 0 {
			return Stream{}, fmt.Errorf("%w: bad tenant segment in %q", auth.ErrChannelRejected, id)
		}
		return Stream{ID: id, Kind: name, TenantID: tenantID, Scope: scope}, nil
	}
	return Stream{}, fmt.Errorf("%w: unknown channel kind in %q", auth.ErrChannelRejected, id)
}
