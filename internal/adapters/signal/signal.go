// Package signal is the realtime channel gateway: one websocket per
// client, inbound commands dispatched to the lifecycle and recording
// services, results acked to the sender and state changes broadcast to
// the rest of the room as full snapshots.
package signal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/recroom/server/internal/app"
	"github.com/recroom/server/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// sender is what handlers write acks to. Tests substitute a capture.
type sender interface {
	TrySend([]byte) error
}

type Controller struct {
	Lifecycle *app.Lifecycle
	Recording *app.Recording
	Registry  *app.Registry

	mu      sync.RWMutex
	conns   map[app.SessionID]*WsConn
	cancels map[app.SessionID]context.CancelFunc
}

func NewController(lifecycle *app.Lifecycle, recording *app.Recording, registry *app.Registry) *Controller {
	return &Controller{
		Lifecycle: lifecycle,
		Recording: recording,
		Registry:  registry,
		conns:     make(map[app.SessionID]*WsConn),
		cancels:   make(map[app.SessionID]context.CancelFunc),
	}
}

// WsConn wraps one websocket with a buffered send channel. TrySend never
// blocks; a full buffer reports backpressure and the frame is dropped
// (at-most-once delivery, snapshots make the next message self-healing).
type WsConn struct {
	conn *websocket.Conn
	send chan []byte

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(data []byte) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- data:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	if c.conn != nil {
		_ = c.conn.Close()
	}
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the connection and runs the pumps. The session id comes
// from the client token cookie, so a reconnect keeps its identity.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	sid := app.SessionID(c.GetString("client_token"))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("new WS connection")

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &WsConn{
		conn: ws,
		send: make(chan []byte, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	ctl.register(sid, conn, cancel)

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, sid, conn)
}

func (ctl *Controller) register(sid app.SessionID, conn *WsConn, cancel context.CancelFunc) {
	ctl.mu.Lock()
	prev := ctl.conns[sid]
	ctl.conns[sid] = conn
	ctl.cancels[sid] = cancel
	ctl.mu.Unlock()
	if prev != nil {
		prev.Close()
	}
}

// cancelOf hands the connection cancel to the registry binding, so ending
// a room can wind down every member connection.
func (ctl *Controller) cancelOf(sid app.SessionID) context.CancelFunc {
	ctl.mu.RLock()
	defer ctl.mu.RUnlock()
	return ctl.cancels[sid]
}

func (ctl *Controller) connOf(sid app.SessionID) (*WsConn, bool) {
	ctl.mu.RLock()
	defer ctl.mu.RUnlock()
	conn, ok := ctl.conns[sid]
	return conn, ok
}

// drop removes the registration only while it still points at this conn.
// A reconnect re-registers the session before the old pump winds down; an
// unconditional delete here would wipe the new conn.
func (ctl *Controller) drop(sid app.SessionID, c *WsConn) bool {
	ctl.mu.Lock()
	defer ctl.mu.Unlock()
	if ctl.conns[sid] != c {
		return false
	}
	delete(ctl.conns, sid)
	delete(ctl.cancels, sid)
	return true
}

// broadcastOthers fans a payload out to every room member except the
// originator. Delivery is at-most-once; drops are only logged.
func (ctl *Controller) broadcastOthers(roomID domain.RoomID, from app.SessionID, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("broadcast marshal")
		return
	}
	for _, sid := range ctl.Registry.SessionsInRoom(roomID) {
		if sid == from {
			continue
		}
		if conn, ok := ctl.connOf(sid); ok {
			if err := conn.TrySend(data); err != nil {
				log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("broadcast dropped")
			}
		}
	}
}

func (ctl *Controller) sendJSON(c sender, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	if err := c.TrySend(data); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("send dropped")
	}
}

func failAck(resultType, requestID string, err error) ack {
	return ack{Type: resultType, RequestID: requestID, Success: false, Error: err.Error()}
}
