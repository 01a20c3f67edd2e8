package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/recroom/server/internal/app"
	"github.com/recroom/server/internal/domain"
)

func (ctl *Controller) handleCreateRoom(sid app.SessionID, c *WsConn, env envelope, data []byte) {
	var p createRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendJSON(c, failAck("create-room-result", env.RequestID, err))
		return
	}

	// A session can only sit in one room; creating while seated elsewhere
	// runs the normal leave path first.
	if oldRoom, oldPid, seated := ctl.Registry.Lookup(sid); seated {
		ctl.removeParticipant(sid, oldRoom, oldPid)
	}

	snap, err := ctl.Lifecycle.CreateRoom(p.HostName, p.MaxParticipants)
	if err != nil {
		ctl.sendJSON(c, failAck("create-room-result", env.RequestID, err))
		return
	}

	ctl.Registry.Bind(sid, snap.ID, snap.HostID, ctl.cancelOf(sid))
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(snap.ID)).Msg("room created")

	ctl.sendJSON(c, ack{
		Type:      "create-room-result",
		RequestID: env.RequestID,
		Success:   true,
		RoomID:    snap.ID,
		HostID:    snap.HostID,
		Room:      &snap,
	})
}

func (ctl *Controller) handleJoinRoom(ctx context.Context, sid app.SessionID, c *WsConn, env envelope, data []byte) {
	var p joinRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendJSON(c, failAck("join-room-result", env.RequestID, err))
		return
	}

	if oldRoom, oldPid, seated := ctl.Registry.Lookup(sid); seated {
		ctl.removeParticipant(sid, oldRoom, oldPid)
	}

	participant, snap, err := ctl.Lifecycle.JoinRoom(ctx, domain.RoomID(p.RoomID), p.UserName)
	if err != nil {
		ctl.sendJSON(c, failAck("join-room-result", env.RequestID, err))
		return
	}

	ctl.Registry.Bind(sid, snap.ID, participant.ID, ctl.cancelOf(sid))

	ctl.sendJSON(c, ack{
		Type:          "join-room-result",
		RequestID:     env.RequestID,
		Success:       true,
		ParticipantID: participant.ID,
		Room:          &snap,
	})

	ctl.broadcastOthers(snap.ID, sid, participantJoinedEvent{
		Type:        "participant-joined",
		Participant: participant,
		RoomInfo:    snap,
	})
}

// handleLeaveRoom is fire-and-forget: no ack, matching the explicit
// protocol contract.
func (ctl *Controller) handleLeaveRoom(sid app.SessionID, data []byte) {
	var p leaveRoomPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Msg("bad leave payload")
		return
	}
	ctl.removeParticipant(sid, domain.RoomID(p.RoomID), domain.ParticipantID(p.ParticipantID))
}

// handleDisconnect runs the same removal path as an explicit leave, keyed
// by the connection identity instead of a client-supplied participant id.
func (ctl *Controller) handleDisconnect(sid app.SessionID) {
	roomID, pid, ok := ctl.Registry.Lookup(sid)
	if !ok {
		return
	}
	log.Info().Str("module", "signal").Str("sid", string(sid)).Str("room", string(roomID)).Msg("disconnect, removing participant")
	ctl.removeParticipant(sid, roomID, pid)
}

func (ctl *Controller) removeParticipant(sid app.SessionID, roomID domain.RoomID, pid domain.ParticipantID) {
	res, err := ctl.Lifecycle.LeaveRoom(roomID, pid)
	if err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("room", string(roomID)).Msg("leave failed")
		return
	}
	ctl.Registry.Unbind(sid)

	ctl.broadcastOthers(roomID, sid, participantLeftEvent{
		Type:            "participant-left",
		ParticipantID:   res.Removed.ID,
		ParticipantName: res.Removed.Name,
		RoomInfo:        res.Snapshot,
	})

	if res.RoomEnded {
		ctl.broadcastOthers(roomID, sid, roomEndedEvent{
			Type:          "room-ended",
			Timestamp:     time.Now().UTC(),
			TotalDuration: res.TotalDuration,
		})
		ctl.Registry.CancelRoom(roomID)
	}
}
