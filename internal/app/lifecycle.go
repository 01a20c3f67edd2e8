package app

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/recroom/server/internal/core"
	"github.com/recroom/server/internal/domain"
	"github.com/recroom/server/internal/storage"
)

const mirrorTimeout = 3 * time.Second

// DefaultGracePeriod is how long an ended room lingers before deletion,
// leaving time for the room-ended broadcast to drain.
const DefaultGracePeriod = 5 * time.Second

// Lifecycle creates, joins and tears down rooms. The in-memory store is
// authoritative; every successful mutation is mirrored to durable storage
// fire-and-forget, so a mirror failure never surfaces as a room failure.
type Lifecycle struct {
	store  *core.SessionStore
	mirror *storage.Service
	grace  time.Duration
}

func NewLifecycle(store *core.SessionStore, mirror *storage.Service) *Lifecycle {
	return &Lifecycle{store: store, mirror: mirror, grace: DefaultGracePeriod}
}

// SetGracePeriod overrides the teardown delay; tests shrink it.
func (l *Lifecycle) SetGracePeriod(d time.Duration) { l.grace = d }

// mirrorAsync runs a mirror write on its own context so an awaited durable
// call can never sit inside a store critical section.
func mirrorAsync(fn func(ctx context.Context)) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// CreateRoom validates the host name, clamps capacity and opens the room.
func (l *Lifecycle) CreateRoom(hostName string, maxParticipants int) (core.RoomSnapshot, error) {
	snap, err := l.store.CreateRoom(hostName, maxParticipants)
	if err != nil {
		return core.RoomSnapshot{}, err
	}
	mirrorAsync(func(ctx context.Context) { l.mirror.CreateRoom(ctx, snap) })
	return snap, nil
}

// JoinRoom seats a participant. When the room is missing from memory it
// attempts lossy recovery from the durable mirror: the room shell comes
// back with an empty participant list and waiting status, then the join
// proceeds against the restored shell.
func (l *Lifecycle) JoinRoom(ctx context.Context, roomID domain.RoomID, userName string) (domain.Participant, core.RoomSnapshot, error) {
	p, snap, err := l.store.AddParticipant(roomID, userName)
	if err == domain.ErrRoomNotFound {
		if l.recoverRoom(ctx, roomID) {
			p, snap, err = l.store.AddParticipant(roomID, userName)
		}
	}
	if err != nil {
		return domain.Participant{}, core.RoomSnapshot{}, err
	}
	mirrorAsync(func(ctx context.Context) { l.mirror.UpdateRoom(ctx, snap) })
	return p, snap, nil
}

func (l *Lifecycle) recoverRoom(ctx context.Context, roomID domain.RoomID) bool {
	stored, err := l.mirror.FindRoom(ctx, roomID)
	if err != nil {
		log.Warn().Err(err).Str("module", "app.lifecycle").Str("room", string(roomID)).Msg("mirror lookup failed")
		return false
	}
	if stored == nil || stored.Status == domain.RoomEnded {
		return false
	}
	shell := &domain.Room{
		ID:                stored.ID,
		HostID:            stored.HostID,
		Participants:      []*domain.Participant{},
		Status:            domain.RoomWaiting,
		CreatedAt:         stored.CreatedAt,
		MaxParticipants:   domain.ClampCapacity(stored.MaxParticipants),
		RecordingDuration: stored.RecordingDuration,
	}
	return l.store.RestoreRoom(shell)
}

// LeaveResult carries everything the gateway needs to broadcast a leave:
// the removal outcome plus, when the room emptied, the ended snapshot.
type LeaveResult struct {
	core.RemovalResult
	Snapshot      core.RoomSnapshot
	RoomEnded     bool
	TotalDuration int64
}

// LeaveRoom removes the participant. The oldest remaining member inherits
// the host role; when the last member leaves, the room is marked ended and
// deleted after the grace period.
func (l *Lifecycle) LeaveRoom(roomID domain.RoomID, pid domain.ParticipantID) (LeaveResult, error) {
	removal, snap, err := l.store.RemoveParticipant(roomID, pid)
	if err != nil {
		return LeaveResult{}, err
	}

	res := LeaveResult{RemovalResult: removal, Snapshot: snap}
	if removal.RoomNowEmpty {
		total, endedSnap, ok := l.store.MarkEnded(roomID)
		if ok {
			res.RoomEnded = true
			res.TotalDuration = total
			res.Snapshot = endedSnap
			l.scheduleTeardown(roomID, endedSnap)
			return res, nil
		}
	}

	mirrorAsync(func(ctx context.Context) { l.mirror.UpdateRoom(ctx, snap) })
	return res, nil
}

func (l *Lifecycle) scheduleTeardown(roomID domain.RoomID, endedSnap core.RoomSnapshot) {
	mirrorAsync(func(ctx context.Context) { l.mirror.UpdateRoom(ctx, endedSnap) })
	time.AfterFunc(l.grace, func() {
		l.store.DeleteRoom(roomID)
		mirrorAsync(func(ctx context.Context) { l.mirror.DeleteRoom(ctx, roomID) })
	})
	log.Info().Str("module", "app.lifecycle").Str("room", string(roomID)).Dur("grace", l.grace).Msg("room ended, teardown scheduled")
}

// UpdateParticipantStatus applies a client-reported mic or recording status
// change and mirrors the result.
func (l *Lifecycle) UpdateParticipantStatus(roomID domain.RoomID, pid domain.ParticipantID, micEnabled *bool, rec *domain.RecordingStatus) (domain.Participant, core.RoomSnapshot, error) {
	p, snap, err := l.store.UpdateParticipant(roomID, pid, micEnabled, rec)
	if err != nil {
		return domain.Participant{}, core.RoomSnapshot{}, err
	}
	mirrorAsync(func(ctx context.Context) { l.mirror.UpdateRoom(ctx, snap) })
	return p, snap, nil
}

// Snapshot proxies a read so transports do not reach into the store.
func (l *Lifecycle) Snapshot(roomID domain.RoomID) (core.RoomSnapshot, bool) {
	return l.store.Snapshot(roomID)
}

// ListRooms lists live rooms for the HTTP surface.
func (l *Lifecycle) ListRooms() []core.RoomSnapshot {
	return l.store.ListRooms()
}
