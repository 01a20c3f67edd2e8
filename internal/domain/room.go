// Package domain contains the meeting-room entities and their validation
// rules. No transport or storage logic lives here.
package domain

import (
	"time"

	"github.com/google/uuid"
)

type RoomID string

// RoomStatus is the lifecycle state of a room.
type RoomStatus string

const (
	RoomWaiting   RoomStatus = "waiting"
	RoomRecording RoomStatus = "recording"
	RoomEnded     RoomStatus = "ended"
)

const (
	MinParticipants     = 2
	MaxParticipantsCap  = 50
	DefaultParticipants = 10
)

// Room is a bounded group session with one host and a capacity-limited
// participant list. Participants are ordered by join time; index 0 is the
// oldest member and the promotion target when the host leaves.
type Room struct {
	ID                 RoomID         `json:"id"`
	HostID             ParticipantID  `json:"hostId"`
	Participants       []*Participant `json:"participants"`
	Status             RoomStatus     `json:"status"`
	CreatedAt          time.Time      `json:"createdAt"`
	RecordingStartedAt *time.Time     `json:"recordingStartedAt,omitempty"`
	RecordingEndedAt   *time.Time     `json:"recordingEndedAt,omitempty"`
	MaxParticipants    int            `json:"maxParticipants"`

	// RecordingDuration is the running total across start/stop cycles,
	// in milliseconds.
	RecordingDuration int64 `json:"recordingDuration"`
}

// NewRoom builds a waiting room with the given host already seated.
func NewRoom(host *Participant, maxParticipants int) *Room {
	return &Room{
		ID:              RoomID(uuid.NewString()),
		HostID:          host.ID,
		Participants:    []*Participant{host},
		Status:          RoomWaiting,
		CreatedAt:       time.Now().UTC(),
		MaxParticipants: ClampCapacity(maxParticipants),
	}
}

// ClampCapacity forces a requested capacity into [MinParticipants,
// MaxParticipantsCap]; zero means the default.
func ClampCapacity(n int) int {
	if n == 0 {
		n = DefaultParticipants
	}
	if n < MinParticipants {
		return MinParticipants
	}
	if n > MaxParticipantsCap {
		return MaxParticipantsCap
	}
	return n
}

// Participant returns the member with the given id, or nil.
func (r *Room) Participant(id ParticipantID) *Participant {
	for _, p := range r.Participants {
		if p.ID == id {
			return p
		}
	}
	return nil
}

func (r *Room) IsFull() bool {
	return len(r.Participants) >= r.MaxParticipants
}
