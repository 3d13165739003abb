package realtime

import (
	"fmt"

	"github.com/tablerail/tablerail/core/auth"
	"github.com/tablerail/tablerail/core/tenant"
)

// ChannelAuthorizer gates subscription requests against the caller's
// tenant and the channel-kind registry.
type ChannelAuthorizer struct {
	registry *Registry
}

func NewChannelAuthorizer(registry *Registry) *ChannelAuthorizer {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &ChannelAuthorizer{registry: registry}
}

// Authorize parses streamID and decides whether the principal may attach.
// A rejected subscription never closes the connection; the caller only
// skips the attach.
func (a *ChannelAuthorizer) Authorize(p tenant.Principal, streamID string) (Stream, error) {
	stream, err := a.registry.ParseStreamID(streamID)
	if err != nil {
		return Stream{}, err
	}
	kind, _ := a.registry.Kind(stream.Kind)

	crossTenant := p.TenantID == nil || *p.TenantID != stream.TenantID
	if crossTenant && p.Role == tenant.RoleSuperAdmin && !kind.CrossTenantAdmin {
		return Stream{}, fmt.Errorf("%w: %s does not permit cross-tenant access", auth.ErrChannelRejected, stream.Kind)
	}
	if !tenant.CanView(p, tenant.Target{TenantID: &stream.TenantID}) {
		return Stream{}, fmt.Errorf("%w: stream %s belongs to another restaurant", auth.ErrChannelRejected, stream.ID)
	}
	return stream, nil
}
