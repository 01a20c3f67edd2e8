package signal

import (
	"time"

	"github.com/recroom/server/internal/core"
	"github.com/recroom/server/internal/domain"
)

// Inbound commands carry a type tag plus an optional requestId that the
// matching ack echoes back, so clients can pair acks with the commands
// they wrapped in a timeout.
type envelope struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
}

type createRoomPayload struct {
	HostName        string `json:"hostName"`
	MaxParticipants int    `json:"maxParticipants,omitempty"`
}

type joinRoomPayload struct {
	RoomID   string `json:"roomId"`
	UserName string `json:"userName"`
}

type recordingPayload struct {
	RoomID string `json:"roomId"`
	HostID string `json:"hostId"`
}

type leaveRoomPayload struct {
	RoomID        string `json:"roomId"`
	ParticipantID string `json:"participantId"`
}

type updateStatusPayload struct {
	MicrophoneEnabled *bool   `json:"microphoneEnabled,omitempty"`
	RecordingStatus   *string `json:"recordingStatus,omitempty"`
}

// ack is the common result envelope. Command-specific fields ride along as
// optional members so every ack has one canonical shape.
type ack struct {
	Type      string `json:"type"`
	RequestID string `json:"requestId,omitempty"`
	Success   bool   `json:"success"`
	Error     string `json:"error,omitempty"`

	RoomID        domain.RoomID        `json:"roomId,omitempty"`
	HostID        domain.ParticipantID `json:"hostId,omitempty"`
	ParticipantID domain.ParticipantID `json:"participantId,omitempty"`
	Room          *core.RoomSnapshot   `json:"room,omitempty"`
	Timestamp     *time.Time           `json:"timestamp,omitempty"`
	Duration      *int64               `json:"duration,omitempty"`
}

type participantJoinedEvent struct {
	Type        string             `json:"type"`
	Participant domain.Participant `json:"participant"`
	RoomInfo    core.RoomSnapshot  `json:"roomInfo"`
}

type participantLeftEvent struct {
	Type            string               `json:"type"`
	ParticipantID   domain.ParticipantID `json:"participantId"`
	ParticipantName string               `json:"participantName"`
	RoomInfo        core.RoomSnapshot    `json:"roomInfo"`
}

type participantStatusEvent struct {
	Type        string             `json:"type"`
	Participant domain.Participant `json:"participant"`
	RoomInfo    core.RoomSnapshot  `json:"roomInfo"`
}

type recordingStartedEvent struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	RoomInfo  core.RoomSnapshot `json:"roomInfo"`
}

type recordingStoppedEvent struct {
	Type      string            `json:"type"`
	Timestamp time.Time         `json:"timestamp"`
	Duration  int64             `json:"duration"`
	RoomInfo  core.RoomSnapshot `json:"roomInfo"`
}

type roomEndedEvent struct {
	Type          string    `json:"type"`
	Timestamp     time.Time `json:"timestamp"`
	TotalDuration int64     `json:"totalDuration"`
}

type heartbeatResponse struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}
