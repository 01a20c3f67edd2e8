package domain

import "time"

// RecordingFile is the metadata for one uploaded audio track. The blob
// itself lives on disk under the upload directory; Path is the reference.
type RecordingFile struct {
	ID              string          `json:"id"`
	RoomID          RoomID          `json:"roomId"`
	ParticipantID   ParticipantID   `json:"participantId"`
	ParticipantName string          `json:"participantName"`
	FileName        string          `json:"fileName"`
	FileSize        int64           `json:"fileSize"`
	Duration        int64           `json:"duration,omitempty"`
	MimeType        string          `json:"mimeType"`
	UploadedAt      time.Time       `json:"uploadedAt"`
	Path            string          `json:"-"`
	Status          RecordingStatus `json:"status"`
}
