package app

import (
	"context"
	"time"

	"github.com/recroom/server/internal/core"
	"github.com/recroom/server/internal/domain"
	"github.com/recroom/server/internal/storage"
)

// Recording is the room-wide recording control protocol. Transitions are
// guarded by host authority and room state inside the store; this layer
// adds the durable mirroring side effect.
type Recording struct {
	store  *core.SessionStore
	mirror *storage.Service
}

func NewRecording(store *core.SessionStore, mirror *storage.Service) *Recording {
	return &Recording{store: store, mirror: mirror}
}

// Start begins a recording cycle. Fails with domain.ErrNotHost for any
// non-host actor and domain.ErrAlreadyRecording when a cycle is running.
func (r *Recording) Start(roomID domain.RoomID, actor domain.ParticipantID) (time.Time, core.RoomSnapshot, error) {
	startedAt, snap, err := r.store.StartRecording(roomID, actor)
	if err != nil {
		return time.Time{}, core.RoomSnapshot{}, err
	}
	mirrorAsync(func(ctx context.Context) { r.mirror.UpdateRoom(ctx, snap) })
	return startedAt, snap, nil
}

// Stop ends the running cycle and returns the stop timestamp plus the
// accumulated duration across all cycles, in milliseconds.
func (r *Recording) Stop(roomID domain.RoomID, actor domain.ParticipantID) (time.Time, int64, core.RoomSnapshot, error) {
	stoppedAt, total, snap, err := r.store.StopRecording(roomID, actor)
	if err != nil {
		return time.Time{}, 0, core.RoomSnapshot{}, err
	}
	mirrorAsync(func(ctx context.Context) { r.mirror.UpdateRoom(ctx, snap) })
	return stoppedAt, total, snap, nil
}
