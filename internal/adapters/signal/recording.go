package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/recroom/server/internal/app"
	"github.com/recroom/server/internal/domain"
)

func (ctl *Controller) handleStartRecording(sid app.SessionID, c *WsConn, env envelope, data []byte) {
	var p recordingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendJSON(c, failAck("start-recording-result", env.RequestID, err))
		return
	}

	startedAt, snap, err := ctl.Recording.Start(domain.RoomID(p.RoomID), domain.ParticipantID(p.HostID))
	if err != nil {
		ctl.sendJSON(c, failAck("start-recording-result", env.RequestID, err))
		return
	}

	ctl.sendJSON(c, ack{
		Type:      "start-recording-result",
		RequestID: env.RequestID,
		Success:   true,
		Timestamp: &startedAt,
	})

	ctl.broadcastOthers(snap.ID, sid, recordingStartedEvent{
		Type:      "recording-started",
		Timestamp: startedAt,
		RoomInfo:  snap,
	})
}

func (ctl *Controller) handleStopRecording(sid app.SessionID, c *WsConn, env envelope, data []byte) {
	var p recordingPayload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendJSON(c, failAck("stop-recording-result", env.RequestID, err))
		return
	}

	stoppedAt, total, snap, err := ctl.Recording.Stop(domain.RoomID(p.RoomID), domain.ParticipantID(p.HostID))
	if err != nil {
		ctl.sendJSON(c, failAck("stop-recording-result", env.RequestID, err))
		return
	}

	ctl.sendJSON(c, ack{
		Type:      "stop-recording-result",
		RequestID: env.RequestID,
		Success:   true,
		Timestamp: &stoppedAt,
		Duration:  &total,
	})

	ctl.broadcastOthers(snap.ID, sid, recordingStoppedEvent{
		Type:      "recording-stopped",
		Timestamp: stoppedAt,
		Duration:  total,
		RoomInfo:  snap,
	})
}

// handleUpdateStatus applies a client-reported mic/recording status change
// for the participant seated on this connection.
func (ctl *Controller) handleUpdateStatus(sid app.SessionID, c *WsConn, env envelope, data []byte) {
	roomID, pid, ok := ctl.Registry.Lookup(sid)
	if !ok {
		ctl.sendJSON(c, failAck("update-status-result", env.RequestID, domain.ErrParticipantNotFound))
		return
	}

	var p updateStatusPayload
	if err := json.Unmarshal(data, &p); err != nil {
		ctl.sendJSON(c, failAck("update-status-result", env.RequestID, err))
		return
	}

	var rec *domain.RecordingStatus
	if p.RecordingStatus != nil {
		parsed, ok := domain.ParseRecordingStatus(*p.RecordingStatus)
		if !ok {
			log.Warn().Str("module", "signal").Str("status", *p.RecordingStatus).Msg("unknown recording status")
			ctl.sendJSON(c, ack{Type: "update-status-result", RequestID: env.RequestID, Success: false, Error: "unknown recording status"})
			return
		}
		rec = &parsed
	}

	participant, snap, err := ctl.Lifecycle.UpdateParticipantStatus(roomID, pid, p.MicrophoneEnabled, rec)
	if err != nil {
		ctl.sendJSON(c, failAck("update-status-result", env.RequestID, err))
		return
	}

	ctl.sendJSON(c, ack{Type: "update-status-result", RequestID: env.RequestID, Success: true})

	ctl.broadcastOthers(roomID, sid, participantStatusEvent{
		Type:        "participant-status-changed",
		Participant: participant,
		RoomInfo:    snap,
	})
}
