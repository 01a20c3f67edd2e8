package core

import (
	"time"

	"github.com/recroom/server/internal/domain"
)

// RoomSnapshot is the full room view embedded in every broadcast and ack.
// Receivers reconcile against it instead of applying deltas, so a missed
// message is self-healing on the next snapshot. Participants are copied by
// value; a snapshot never aliases live store state.
type RoomSnapshot struct {
	ID                 domain.RoomID        `json:"id"`
	HostID             domain.ParticipantID `json:"hostId"`
	Status             domain.RoomStatus    `json:"status"`
	ParticipantCount   int                  `json:"participantCount"`
	Participants       []domain.Participant `json:"participants"`
	CreatedAt          time.Time            `json:"createdAt"`
	MaxParticipants    int                  `json:"maxParticipants"`
	RecordingDuration  int64                `json:"recordingDuration"`
	RecordingStartedAt *time.Time           `json:"recordingStartedAt,omitempty"`
}

func snapshotLocked(room *domain.Room) RoomSnapshot {
	parts := make([]domain.Participant, 0, len(room.Participants))
	for _, p := range room.Participants {
		parts = append(parts, *p)
	}
	var started *time.Time
	if room.RecordingStartedAt != nil {
		t := *room.RecordingStartedAt
		started = &t
	}
	return RoomSnapshot{
		ID:                 room.ID,
		HostID:             room.HostID,
		Status:             room.Status,
		ParticipantCount:   len(room.Participants),
		Participants:       parts,
		CreatedAt:          room.CreatedAt,
		MaxParticipants:    room.MaxParticipants,
		RecordingDuration:  room.RecordingDuration,
		RecordingStartedAt: started,
	}
}

// Snapshot returns a point-in-time copy of the room, or false when absent.
func (s *SessionStore) Snapshot(roomID domain.RoomID) (RoomSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return RoomSnapshot{}, false
	}
	return snapshotLocked(room), true
}

// ListRooms snapshots every live room, for the HTTP listing surface.
func (s *SessionStore) ListRooms() []RoomSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]RoomSnapshot, 0, len(s.rooms))
	for _, room := range s.rooms {
		out = append(out, snapshotLocked(room))
	}
	return out
}
