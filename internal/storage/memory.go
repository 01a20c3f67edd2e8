package storage

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/recroom/server/internal/core"
	"github.com/recroom/server/internal/domain"
)

// MemoryAdapter is the volatile secondary backend used while redis is
// unreachable. Its contents disappear on restart, which the system
// tolerates by design.
type MemoryAdapter struct {
	mu         sync.RWMutex
	rooms      map[domain.RoomID]core.RoomSnapshot
	recordings map[domain.RoomID]map[string]domain.RecordingFile
}

func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{
		rooms:      make(map[domain.RoomID]core.RoomSnapshot),
		recordings: make(map[domain.RoomID]map[string]domain.RecordingFile),
	}
}

func (a *MemoryAdapter) CreateRoom(_ context.Context, room core.RoomSnapshot) error {
	a.mu.Lock()
	a.rooms[room.ID] = room
	a.mu.Unlock()
	return nil
}

func (a *MemoryAdapter) FindRoom(_ context.Context, id domain.RoomID) (*core.RoomSnapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	room, ok := a.rooms[id]
	if !ok {
		return nil, nil
	}
	return &room, nil
}

func (a *MemoryAdapter) UpdateRoom(_ context.Context, room core.RoomSnapshot) error {
	a.mu.Lock()
	a.rooms[room.ID] = room
	a.mu.Unlock()
	return nil
}

func (a *MemoryAdapter) DeleteRoom(_ context.Context, id domain.RoomID) error {
	a.mu.Lock()
	delete(a.rooms, id)
	delete(a.recordings, id)
	a.mu.Unlock()
	return nil
}

func (a *MemoryAdapter) ListRooms(_ context.Context) ([]core.RoomSnapshot, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]core.RoomSnapshot, 0, len(a.rooms))
	for _, room := range a.rooms {
		out = append(out, room)
	}
	return out, nil
}

func (a *MemoryAdapter) CreateRecording(_ context.Context, rec domain.RecordingFile) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	byID, ok := a.recordings[rec.RoomID]
	if !ok {
		byID = make(map[string]domain.RecordingFile)
		a.recordings[rec.RoomID] = byID
	}
	byID[rec.ID] = rec
	return nil
}

func (a *MemoryAdapter) FindRecordingsByRoom(_ context.Context, roomID domain.RoomID) ([]domain.RecordingFile, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	byID := a.recordings[roomID]
	out := make([]domain.RecordingFile, 0, len(byID))
	for _, rec := range byID {
		out = append(out, rec)
	}
	return out, nil
}

func (a *MemoryAdapter) UpdateRecording(ctx context.Context, rec domain.RecordingFile) error {
	return a.CreateRecording(ctx, rec)
}

func (a *MemoryAdapter) DeleteRecording(_ context.Context, roomID domain.RoomID, id string) error {
	a.mu.Lock()
	if byID, ok := a.recordings[roomID]; ok {
		delete(byID, id)
	}
	a.mu.Unlock()
	return nil
}

func (a *MemoryAdapter) CheckHealth(_ context.Context) Health {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return Health{
		Status:  Healthy,
		Backend: BackendMemory,
		Detail:  fmt.Sprintf("%d rooms mirrored", len(a.rooms)),
	}
}

// SeedSampleData inserts a demo room so the fallback path is visible in
// development. Never called in release mode.
func (a *MemoryAdapter) SeedSampleData() {
	host := domain.Participant{
		ID:                domain.ParticipantID(uuid.NewString()),
		Name:              "Demo Host",
		IsHost:            true,
		JoinedAt:          time.Now().UTC(),
		MicrophoneEnabled: true,
		RecordingStatus:   domain.RecIdle,
	}
	room := core.RoomSnapshot{
		ID:               "demo-room",
		HostID:           host.ID,
		Status:           domain.RoomWaiting,
		ParticipantCount: 1,
		Participants:     []domain.Participant{host},
		CreatedAt:        time.Now().UTC(),
		MaxParticipants:  domain.DefaultParticipants,
	}
	a.mu.Lock()
	a.rooms[room.ID] = room
	a.mu.Unlock()
}
