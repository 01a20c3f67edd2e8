package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recroom/server/internal/core"
	"github.com/recroom/server/internal/domain"
	"github.com/recroom/server/internal/storage"
)

func newFixture(t *testing.T) (*Lifecycle, *Recording, *core.SessionStore, *storage.MemoryAdapter) {
	t.Helper()
	mem := storage.NewMemoryAdapter()
	mirror := storage.NewService(nil, mem, false)
	store := core.NewSessionStore()
	l := NewLifecycle(store, mirror)
	r := NewRecording(store, mirror)
	return l, r, store, mem
}

func TestCreateRoom_MirrorsToStorage(t *testing.T) {
	l, _, _, mem := newFixture(t)

	snap, err := l.CreateRoom("Alice", 4)
	require.NoError(t, err)
	assert.Equal(t, 4, snap.MaxParticipants)

	require.Eventually(t, func() bool {
		stored, err := mem.FindRoom(context.Background(), snap.ID)
		return err == nil && stored != nil
	}, time.Second, 10*time.Millisecond, "room not mirrored")
}

func TestCreateRoom_Validation(t *testing.T) {
	l, _, _, _ := newFixture(t)
	_, err := l.CreateRoom("   ", 0)
	assert.ErrorIs(t, err, domain.ErrNameEmpty)
}

func TestJoinRoom_RecoversFromMirror(t *testing.T) {
	l, _, store, mem := newFixture(t)

	// A room known only to the durable mirror, as after a restart.
	stored := core.RoomSnapshot{
		ID:              "lost-room",
		HostID:          "old-host",
		Status:          domain.RoomWaiting,
		CreatedAt:       time.Now().UTC().Add(-time.Hour),
		MaxParticipants: 6,
	}
	require.NoError(t, mem.CreateRoom(context.Background(), stored))

	p, snap, err := l.JoinRoom(context.Background(), "lost-room", "Bob")
	require.NoError(t, err)
	assert.Equal(t, domain.RoomID("lost-room"), snap.ID)
	assert.Equal(t, 1, snap.ParticipantCount)
	assert.Equal(t, "Bob", p.Name)
	assert.Equal(t, 6, snap.MaxParticipants)
	assert.Equal(t, 1, store.RoomCount())
}

func TestJoinRoom_NoRecoveryForEndedRoom(t *testing.T) {
	l, _, _, mem := newFixture(t)

	stored := core.RoomSnapshot{ID: "dead-room", Status: domain.RoomEnded, MaxParticipants: 4}
	require.NoError(t, mem.CreateRoom(context.Background(), stored))

	_, _, err := l.JoinRoom(context.Background(), "dead-room", "Bob")
	assert.ErrorIs(t, err, domain.ErrRoomNotFound)
}

func TestLeaveRoom_PromotesHost(t *testing.T) {
	l, _, _, _ := newFixture(t)

	snap, err := l.CreateRoom("Alice", 5)
	require.NoError(t, err)
	bob, _, err := l.JoinRoom(context.Background(), snap.ID, "Bob")
	require.NoError(t, err)

	res, err := l.LeaveRoom(snap.ID, snap.HostID)
	require.NoError(t, err)
	assert.True(t, res.WasHost)
	assert.False(t, res.RoomEnded)
	require.NotNil(t, res.NewHost)
	assert.Equal(t, bob.ID, res.NewHost.ID)
	assert.Equal(t, bob.ID, res.Snapshot.HostID)
}

func TestLeaveRoom_LastParticipantEndsRoom(t *testing.T) {
	l, _, store, _ := newFixture(t)
	l.SetGracePeriod(20 * time.Millisecond)

	snap, err := l.CreateRoom("Alice", 5)
	require.NoError(t, err)

	res, err := l.LeaveRoom(snap.ID, snap.HostID)
	require.NoError(t, err)
	assert.True(t, res.RoomEnded)
	assert.Equal(t, domain.RoomEnded, res.Snapshot.Status)

	// During the grace period the room is ended, not joinable.
	_, _, err = l.JoinRoom(context.Background(), snap.ID, "Bob")
	assert.ErrorIs(t, err, domain.ErrRoomEnded)

	// After the grace period it is gone from memory and the mirror, so a
	// join cannot reach or recover it.
	require.Eventually(t, func() bool {
		return store.RoomCount() == 0
	}, time.Second, 10*time.Millisecond, "room not torn down")

	require.Eventually(t, func() bool {
		_, _, err := l.JoinRoom(context.Background(), snap.ID, "Bob")
		return err == domain.ErrRoomNotFound
	}, time.Second, 10*time.Millisecond)
}

// The full session walkthrough: create, join, record, host hand-off,
// stop by the promoted host.
func TestMeetingScenario(t *testing.T) {
	l, rec, _, _ := newFixture(t)

	snap, err := l.CreateRoom("Alice", 5)
	require.NoError(t, err)
	assert.Equal(t, 1, snap.ParticipantCount)
	assert.Equal(t, domain.RoomWaiting, snap.Status)
	assert.Equal(t, snap.Participants[0].ID, snap.HostID)

	bob, snap2, err := l.JoinRoom(context.Background(), snap.ID, "Bob")
	require.NoError(t, err)
	assert.Equal(t, 2, snap2.ParticipantCount)
	assert.False(t, bob.IsHost)

	startedAt, recSnap, err := rec.Start(snap.ID, snap.HostID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomRecording, recSnap.Status)
	for _, p := range recSnap.Participants {
		assert.Equal(t, domain.RecRecording, p.RecordingStatus)
	}

	// Alice disconnects mid-recording; Bob inherits the host role.
	res, err := l.LeaveRoom(snap.ID, snap.HostID)
	require.NoError(t, err)
	require.NotNil(t, res.NewHost)
	assert.Equal(t, bob.ID, res.NewHost.ID)

	time.Sleep(10 * time.Millisecond)

	// The promoted host stops the recording; duration is measured from
	// the original start time.
	stoppedAt, total, stopSnap, err := rec.Stop(snap.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoomWaiting, stopSnap.Status)
	assert.GreaterOrEqual(t, total, stoppedAt.Sub(startedAt).Milliseconds()-1)
}

func TestRecordingStart_MirrorsToStorage(t *testing.T) {
	l, rec, _, mem := newFixture(t)

	snap, err := l.CreateRoom("Alice", 4)
	require.NoError(t, err)
	_, _, err = rec.Start(snap.ID, snap.HostID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		stored, err := mem.FindRoom(context.Background(), snap.ID)
		return err == nil && stored != nil && stored.Status == domain.RoomRecording
	}, time.Second, 10*time.Millisecond, "recording transition not mirrored")
}

func TestRecording_NonHostRejected(t *testing.T) {
	l, rec, _, _ := newFixture(t)

	snap, err := l.CreateRoom("Alice", 5)
	require.NoError(t, err)
	bob, _, err := l.JoinRoom(context.Background(), snap.ID, "Bob")
	require.NoError(t, err)

	_, _, err = rec.Start(snap.ID, bob.ID)
	assert.ErrorIs(t, err, domain.ErrNotHost)

	cur, ok := l.Snapshot(snap.ID)
	require.True(t, ok)
	assert.Equal(t, domain.RoomWaiting, cur.Status)
}

func TestUpdateParticipantStatus(t *testing.T) {
	l, _, _, _ := newFixture(t)

	snap, err := l.CreateRoom("Alice", 5)
	require.NoError(t, err)

	mic := false
	p, _, err := l.UpdateParticipantStatus(snap.ID, snap.HostID, &mic, nil)
	require.NoError(t, err)
	assert.False(t, p.MicrophoneEnabled)

	rec := domain.RecError
	p, _, err = l.UpdateParticipantStatus(snap.ID, snap.HostID, nil, &rec)
	require.NoError(t, err)
	assert.False(t, p.MicrophoneEnabled)
	assert.Equal(t, domain.RecError, p.RecordingStatus)
}
