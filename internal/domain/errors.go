package domain

import "errors"

var (
	ErrNameEmpty   = errors.New("name empty")
	ErrNameTooLong = errors.New("name too long")

	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomFull            = errors.New("room full")
	ErrRoomEnded           = errors.New("room ended")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrDuplicateMember     = errors.New("participant already in room")

	ErrNotHost          = errors.New("forbidden: not room host")
	ErrAlreadyRecording = errors.New("recording already in progress")
	ErrNotRecording     = errors.New("no recording in progress")
)
