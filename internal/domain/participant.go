package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const MaxNameLen = 50

type ParticipantID string

// RecordingStatus is the per-participant recording state. The canonical
// taxonomy is idle/recording/uploading/completed/error; the historical
// aliases "paused" and "stopped" are accepted on input and normalized.
type RecordingStatus string

const (
	RecIdle      RecordingStatus = "idle"
	RecRecording RecordingStatus = "recording"
	RecUploading RecordingStatus = "uploading"
	RecCompleted RecordingStatus = "completed"
	RecError     RecordingStatus = "error"
)

// ParseRecordingStatus maps a wire value onto the canonical taxonomy.
func ParseRecordingStatus(s string) (RecordingStatus, bool) {
	switch RecordingStatus(s) {
	case RecIdle, RecRecording, RecUploading, RecCompleted, RecError:
		return RecordingStatus(s), true
	case "paused":
		return RecIdle, true
	case "stopped":
		return RecCompleted, true
	}
	return "", false
}

// Participant is a joined member of a room. It is owned exclusively by its
// room and removed on leave or disconnect.
type Participant struct {
	ID                ParticipantID   `json:"id"`
	Name              string          `json:"name"`
	IsHost            bool            `json:"isHost"`
	JoinedAt          time.Time       `json:"joinedAt"`
	MicrophoneEnabled bool            `json:"microphoneEnabled"`
	RecordingStatus   RecordingStatus `json:"recordingStatus"`
}

// NewParticipant validates the display name and assigns a server-side id.
func NewParticipant(name string, isHost bool) (*Participant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrNameEmpty
	}
	if len(name) > MaxNameLen {
		return nil, ErrNameTooLong
	}
	return &Participant{
		ID:                ParticipantID(uuid.NewString()),
		Name:              name,
		IsHost:            isHost,
		JoinedAt:          time.Now().UTC(),
		MicrophoneEnabled: true,
		RecordingStatus:   RecIdle,
	}, nil
}
