package domain

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewParticipant_Validation(t *testing.T) {
	p, err := NewParticipant("  Alice  ", true)
	require.NoError(t, err)
	assert.Equal(t, "Alice", p.Name)
	assert.True(t, p.IsHost)
	assert.True(t, p.MicrophoneEnabled)
	assert.Equal(t, RecIdle, p.RecordingStatus)
	assert.NotEmpty(t, p.ID)

	_, err = NewParticipant("", false)
	assert.ErrorIs(t, err, ErrNameEmpty)

	_, err = NewParticipant("   ", false)
	assert.ErrorIs(t, err, ErrNameEmpty)

	_, err = NewParticipant(strings.Repeat("x", MaxNameLen+1), false)
	assert.ErrorIs(t, err, ErrNameTooLong)

	p, err = NewParticipant(strings.Repeat("x", MaxNameLen), false)
	require.NoError(t, err)
	assert.False(t, p.IsHost)
}

func TestParseRecordingStatus(t *testing.T) {
	cases := map[string]RecordingStatus{
		"idle":      RecIdle,
		"recording": RecRecording,
		"uploading": RecUploading,
		"completed": RecCompleted,
		"error":     RecError,
		// historical aliases
		"paused":  RecIdle,
		"stopped": RecCompleted,
	}
	for in, want := range cases {
		got, ok := ParseRecordingStatus(in)
		require.True(t, ok, in)
		assert.Equal(t, want, got, in)
	}

	_, ok := ParseRecordingStatus("bogus")
	assert.False(t, ok)
}

func TestClampCapacity(t *testing.T) {
	assert.Equal(t, DefaultParticipants, ClampCapacity(0))
	assert.Equal(t, MinParticipants, ClampCapacity(1))
	assert.Equal(t, MinParticipants, ClampCapacity(-5))
	assert.Equal(t, 25, ClampCapacity(25))
	assert.Equal(t, MaxParticipantsCap, ClampCapacity(500))
}

func TestNewRoom(t *testing.T) {
	host, err := NewParticipant("Host", true)
	require.NoError(t, err)
	room := NewRoom(host, 4)

	assert.Equal(t, RoomWaiting, room.Status)
	assert.Equal(t, host.ID, room.HostID)
	assert.Len(t, room.Participants, 1)
	assert.Equal(t, 4, room.MaxParticipants)
	assert.False(t, room.IsFull())
	assert.Same(t, host, room.Participant(host.ID))
	assert.Nil(t, room.Participant("missing"))
}
