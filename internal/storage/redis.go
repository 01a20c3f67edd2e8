package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/recroom/server/internal/core"
	"github.com/recroom/server/internal/domain"
)

const (
	roomKeyPrefix      = "room:"
	roomIndexKey       = "rooms"
	recordingKeyPrefix = "recording:"
)

// RedisAdapter mirrors rooms and recording metadata as JSON documents.
// Room documents carry an advisory TTL; the in-memory store never relies
// on it.
type RedisAdapter struct {
	client  *redis.Client
	roomTTL time.Duration
}

func NewRedisAdapter(client *redis.Client, roomTTL time.Duration) *RedisAdapter {
	return &RedisAdapter{client: client, roomTTL: roomTTL}
}

func (a *RedisAdapter) Ping(ctx context.Context) error {
	return a.client.Ping(ctx).Err()
}

func roomKey(id domain.RoomID) string           { return roomKeyPrefix + string(id) }
func recordingIndexKey(id domain.RoomID) string { return roomKeyPrefix + string(id) + ":recordings" }
func recordingKey(roomID domain.RoomID, id string) string {
	return recordingKeyPrefix + string(roomID) + ":" + id
}

func (a *RedisAdapter) CreateRoom(ctx context.Context, room core.RoomSnapshot) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	pipe := a.client.TxPipeline()
	pipe.Set(ctx, roomKey(room.ID), data, a.roomTTL)
	pipe.SAdd(ctx, roomIndexKey, string(room.ID))
	_, err = pipe.Exec(ctx)
	return err
}

func (a *RedisAdapter) FindRoom(ctx context.Context, id domain.RoomID) (*core.RoomSnapshot, error) {
	data, err := a.client.Get(ctx, roomKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var room core.RoomSnapshot
	if err := json.Unmarshal(data, &room); err != nil {
		return nil, fmt.Errorf("unmarshal room %s: %w", id, err)
	}
	return &room, nil
}

func (a *RedisAdapter) UpdateRoom(ctx context.Context, room core.RoomSnapshot) error {
	data, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	return a.client.Set(ctx, roomKey(room.ID), data, a.roomTTL).Err()
}

func (a *RedisAdapter) DeleteRoom(ctx context.Context, id domain.RoomID) error {
	pipe := a.client.TxPipeline()
	pipe.Del(ctx, roomKey(id))
	pipe.SRem(ctx, roomIndexKey, string(id))
	_, err := pipe.Exec(ctx)
	return err
}

func (a *RedisAdapter) ListRooms(ctx context.Context) ([]core.RoomSnapshot, error) {
	ids, err := a.client.SMembers(ctx, roomIndexKey).Result()
	if err != nil {
		return nil, err
	}
	out := make([]core.RoomSnapshot, 0, len(ids))
	for _, id := range ids {
		room, err := a.FindRoom(ctx, domain.RoomID(id))
		if err != nil {
			return nil, err
		}
		if room == nil {
			// Expired document still referenced by the index.
			_ = a.client.SRem(ctx, roomIndexKey, id).Err()
			continue
		}
		out = append(out, *room)
	}
	return out, nil
}

func (a *RedisAdapter) CreateRecording(ctx context.Context, rec domain.RecordingFile) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal recording: %w", err)
	}
	pipe := a.client.TxPipeline()
	pipe.Set(ctx, recordingKey(rec.RoomID, rec.ID), data, 0)
	pipe.SAdd(ctx, recordingIndexKey(rec.RoomID), rec.ID)
	_, err = pipe.Exec(ctx)
	return err
}

func (a *RedisAdapter) FindRecordingsByRoom(ctx context.Context, roomID domain.RoomID) ([]domain.RecordingFile, error) {
	ids, err := a.client.SMembers(ctx, recordingIndexKey(roomID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]domain.RecordingFile, 0, len(ids))
	for _, id := range ids {
		data, err := a.client.Get(ctx, recordingKey(roomID, id)).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return nil, err
		}
		var rec domain.RecordingFile
		if err := json.Unmarshal(data, &rec); err != nil {
			return nil, fmt.Errorf("unmarshal recording %s: %w", id, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func (a *RedisAdapter) UpdateRecording(ctx context.Context, rec domain.RecordingFile) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal recording: %w", err)
	}
	return a.client.Set(ctx, recordingKey(rec.RoomID, rec.ID), data, 0).Err()
}

func (a *RedisAdapter) DeleteRecording(ctx context.Context, roomID domain.RoomID, id string) error {
	pipe := a.client.TxPipeline()
	pipe.Del(ctx, recordingKey(roomID, id))
	pipe.SRem(ctx, recordingIndexKey(roomID), id)
	_, err := pipe.Exec(ctx)
	return err
}

func (a *RedisAdapter) CheckHealth(ctx context.Context) Health {
	if err := a.Ping(ctx); err != nil {
		return Health{Status: Unhealthy, Backend: BackendRedis, Detail: err.Error()}
	}
	return Health{Status: Healthy, Backend: BackendRedis}
}
