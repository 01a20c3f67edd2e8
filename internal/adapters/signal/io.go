package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/recroom/server/internal/app"
)

const writeDeadline = 5 * time.Second

func (ctl *Controller) writePump(ctx context.Context, c *WsConn) {
	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Msg("writePump ctx done")
			return
		case data, ok := <-c.send:
			if !ok {
				log.Debug().Str("module", "signal").Msg("writePump channel closed")
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeDeadline)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, sid app.SessionID, c *WsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("sid", string(sid)).Msg("readPump closing")
		c.Close()
		if ctl.drop(sid, c) {
			ctl.handleDisconnect(sid)
		} else {
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("stale conn closed, session rebound")
		}
	}()

	for {
		select {
		case <-ctx.Done():
			log.Debug().Str("module", "signal").Str("sid", string(sid)).Msg("readPump ctx done")
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("readPump read error")
				}
				return
			}
			ctl.dispatch(ctx, sid, c, data)
		}
	}
}

// dispatch routes one inbound command. A handler panic is converted into a
// generic failure ack; it must never take down the connection loop or
// other clients.
func (ctl *Controller) dispatch(ctx context.Context, sid app.SessionID, c *WsConn, data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad json")
		ctl.sendJSON(c, ack{Type: "error", Success: false, Error: "bad payload"})
		return
	}

	defer func() {
		if r := recover(); r != nil {
			log.Error().Any("panic", r).Str("module", "signal").Str("type", env.Type).Msg("handler panic")
			ctl.sendJSON(c, failAckForType(env.Type, env.RequestID))
		}
	}()

	switch env.Type {
	case "create-room":
		ctl.handleCreateRoom(sid, c, env, data)
	case "join-room":
		ctl.handleJoinRoom(ctx, sid, c, env, data)
	case "leave-room":
		ctl.handleLeaveRoom(sid, data)
	case "start-recording":
		ctl.handleStartRecording(sid, c, env, data)
	case "stop-recording":
		ctl.handleStopRecording(sid, c, env, data)
	case "update-status":
		ctl.handleUpdateStatus(sid, c, env, data)
	case "heartbeat":
		ctl.handleHeartbeat(c)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown command")
		ctl.sendJSON(c, ack{Type: "error", RequestID: env.RequestID, Success: false, Error: "unknown command"})
	}
}

func failAckForType(cmd, requestID string) ack {
	return ack{Type: cmd + "-result", RequestID: requestID, Success: false, Error: "internal error"}
}
