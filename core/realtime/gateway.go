package realtime

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/gorilla/websocket"

	"github.com/tablerail/tablerail/core/auth"
	"github.com/tablerail/tablerail/core/directory"
	"github.com/tablerail/tablerail/core/infra/logging"
	"github.com/tablerail/tablerail/core/infra/metrics"
	"github.com/tablerail/tablerail/core/tenant"
)

const (
	frameWelcome = "welcome"
	frameConfirm = "confirm_subscription"
	frameReject  = "reject_subscription"
	frameMessage = "message"

	defaultLivenessInterval = 30 * time.Second
	writeTimeout            = 10 * time.Second
)

type serverFrame struct {
	Type       string          `json:"type"`
	Identifier string          `json:"identifier,omitempty"`
	Message    json.RawMessage `json:"message,omitempty"`
	Reason     string          `json:"reason,omitempty"`
}

type clientFrame struct {
	Command    string `json:"command"`
	Identifier string `json:"identifier"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(*http.Request) bool { return true },
}

// GatewayOptions configures a ConnectionGateway.
type GatewayOptions struct {
	Authenticator    *auth.Authenticator
	Users            directory.UserStore
	Authorizer       *ChannelAuthorizer
	Hub              *Hub
	Clock            clock.Clock
	LivenessInterval time.Duration
	Metrics          metrics.RealtimeMetrics
}

// ConnectionGateway terminates realtime handshakes: it authenticates
// the socket, binds it to a principal and tenant, and runs the
// subscribe/liveness loops until teardown.
type ConnectionGateway struct {
	auth     *auth.Authenticator
	users    directory.UserStore
	channels *ChannelAuthorizer
	hub      *Hub
	clock    clock.Clock
	interval time.Duration
	metrics  metrics.RealtimeMetrics
}

func NewConnectionGateway(opts GatewayOptions) *ConnectionGateway {
	if opts.Authorizer == nil {
		opts.Authorizer = NewChannelAuthorizer(nil)
	}
	if opts.Hub == nil {
		opts.Hub = NewHub(opts.Metrics)
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.LivenessInterval <= 0 {
		opts.LivenessInterval = defaultLivenessInterval
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.Noop{}
	}
	return &ConnectionGateway{
		auth:     opts.Authenticator,
		users:    opts.Users,
		channels: opts.Authorizer,
		hub:      opts.Hub,
		clock:    opts.Clock,
		interval: opts.LivenessInterval,
		metrics:  opts.Metrics,
	}
}

// Hub exposes the fan-out hub so the bus bridge can deliver events.
func (g *ConnectionGateway) Hub() *Hub { return g.hub }

// ServeHTTP performs the handshake. A connection that fails token
// verification or user lookup is rejected before it ever goes active.
func (g *ConnectionGateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn := NewConnection(g.clock.Now())

	principal, tc, err := g.identify(r)
	if err != nil {
		conn.Teardown()
		logging.Info("realtime", "handshake rejected", "remote", r.RemoteAddr, "kind", auth.Kind(err))
		http.Error(w, err.Error(), auth.HTTPStatus(err))
		return
	}
	conn.Authenticate(principal, tc)

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		conn.Teardown()
		logging.Error("realtime", "ws upgrade failed", "error", err)
		return
	}

	conn.Activate(g.clock, g.interval, func(c *Connection) {
		g.hub.DetachAll(c)
		g.metrics.DecConnections()
	})
	g.metrics.IncConnections()
	logging.Info("realtime", "connection active", "connection", conn.ID, "user", principal.UserID)

	g.sendFrame(conn, serverFrame{Type: frameWelcome, Identifier: conn.ID})

	go g.writeLoop(ws, conn)
	g.readLoop(ws, conn)
}

// identify extracts the bearer token from the handshake (Authorization
// header or token query parameter), verifies it, and resolves the
// caller's tenant.
func (g *ConnectionGateway) identify(r *http.Request) (tenant.Principal, tenant.Context, error) {
	raw := auth.BearerToken(r.Header.Get("Authorization"))
	if raw == "" {
		raw = strings.TrimSpace(r.URL.Query().Get("token"))
	}
	claims, err := g.auth.Authenticate(raw)
	if err != nil {
		return tenant.Principal{}, tenant.Context{}, err
	}
	record, err := g.users.LookupUser(r.Context(), claims.UserID)
	if err != nil {
		return tenant.Principal{}, tenant.Context{}, err
	}
	principal, err := tenant.NewPrincipal(claims, record)
	if err != nil {
		return tenant.Principal{}, tenant.Context{}, err
	}
	tc, err := tenant.Resolve(principal, nil)
	if err != nil {
		return tenant.Principal{}, tenant.Context{}, err
	}
	return principal, tc, nil
}

// readLoop consumes subscribe/unsubscribe frames until the client goes
// away. A rejected subscription leaves the connection open.
func (g *ConnectionGateway) readLoop(ws *websocket.Conn, conn *Connection) {
	defer func() {
		conn.Teardown()
		_ = ws.Close()
	}()
	for {
		var frame clientFrame
		if err := ws.ReadJSON(&frame); err != nil {
			return
		}
		switch frame.Command {
		case "subscribe":
			g.handleSubscribe(conn, frame.Identifier)
		case "unsubscribe":
			conn.Detach(frame.Identifier)
			g.hub.Detach(conn, frame.Identifier)
		}
	}
}

func (g *ConnectionGateway) handleSubscribe(conn *Connection, identifier string) {
	stream, err := g.channels.Authorize(conn.Principal, identifier)
	if err != nil {
		g.metrics.IncSubscriptions(kindOf(stream, identifier), "rejected")
		logging.Info("realtime", "subscription rejected", "connection", conn.ID, "stream", identifier)
		g.sendFrame(conn, serverFrame{Type: frameReject, Identifier: identifier, Reason: err.Error()})
		return
	}
	if !conn.Attach(stream.ID) {
		return
	}
	g.hub.Attach(conn, stream.ID)
	g.metrics.IncSubscriptions(stream.Kind, "attached")
	g.sendFrame(conn, serverFrame{Type: frameConfirm, Identifier: stream.ID})
}

// writeLoop drains the outbound buffer and drives liveness pings. A
// failed write or ping means the peer is gone; either tears the
// connection down.
func (g *ConnectionGateway) writeLoop(ws *websocket.Conn, conn *Connection) {
	defer func() {
		conn.Teardown()
		_ = ws.Close()
	}()
	ticks := conn.LivenessTicks()
	for {
		select {
		case frame, ok := <-conn.Outbound():
			if !ok {
				return
			}
			_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticks:
			_ = ws.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				g.metrics.IncLivenessFailures()
				logging.Warn("realtime", "liveness check failed", "connection", conn.ID)
				return
			}
			g.metrics.IncLivenessChecks()
		case <-conn.Done():
			return
		}
	}
}

func (g *ConnectionGateway) sendFrame(conn *Connection, frame serverFrame) {
	data, err := json.Marshal(frame)
	if err != nil {
		logging.Error("realtime", "frame encode failed", "type", frame.Type, "error", err)
		return
	}
	if !conn.Enqueue(data) {
		conn.Teardown()
	}
}

func kindOf(stream Stream, identifier string) string {
	if stream.Kind != "" {
		return stream.Kind
	}
	if i := strings.LastIndex(identifier, "_channel"); i >= 0 {
		return identifier[:i+len("_channel")]
	}
	return "unknown"
}
