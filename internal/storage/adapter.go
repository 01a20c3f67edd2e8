// Package storage is the durable fallback mirror for room state. It is
// never authoritative for a live session: the realtime path reads and
// writes the in-memory store and mirrors here best-effort, so a backend
// outage degrades durability, not availability.
package storage

import (
	"context"

	"github.com/recroom/server/internal/core"
	"github.com/recroom/server/internal/domain"
)

// Adapter is one interchangeable persistence backend. Reads return
// (nil, nil) when the target is absent; only infrastructure failures
// surface as errors.
type Adapter interface {
	CreateRoom(ctx context.Context, room core.RoomSnapshot) error
	FindRoom(ctx context.Context, id domain.RoomID) (*core.RoomSnapshot, error)
	UpdateRoom(ctx context.Context, room core.RoomSnapshot) error
	DeleteRoom(ctx context.Context, id domain.RoomID) error
	ListRooms(ctx context.Context) ([]core.RoomSnapshot, error)

	CreateRecording(ctx context.Context, rec domain.RecordingFile) error
	FindRecordingsByRoom(ctx context.Context, roomID domain.RoomID) ([]domain.RecordingFile, error)
	UpdateRecording(ctx context.Context, rec domain.RecordingFile) error
	DeleteRecording(ctx context.Context, roomID domain.RoomID, id string) error

	CheckHealth(ctx context.Context) Health
}

type HealthStatus string

const (
	Healthy   HealthStatus = "healthy"
	Unhealthy HealthStatus = "unhealthy"
)

type Backend string

const (
	BackendRedis  Backend = "redis"
	BackendMemory Backend = "memory"
)

type Health struct {
	Status  HealthStatus `json:"status"`
	Backend Backend      `json:"backend"`
	Detail  string       `json:"detail,omitempty"`
}
