package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/recroom/server/internal/core"
	"github.com/recroom/server/internal/domain"
)

// probeInterval bounds how often the redis liveness probe actually pings.
// Between probes the cached flag decides, so backend selection stays cheap
// while still noticing redis coming online mid-session.
const probeInterval = 5 * time.Second

const probeTimeout = 500 * time.Millisecond

// Service selects between the redis and memory backends per call. Write
// failures are logged and swallowed here; the realtime path must never
// block or fail on the durable mirror.
type Service struct {
	redis  *RedisAdapter
	memory *MemoryAdapter
	dev    bool

	mu        sync.Mutex
	redisUp   bool
	lastProbe time.Time
	seeded    bool
}

// NewService wires the two backends. redis may be nil when no redis address
// is configured; the service then runs memory-only.
func NewService(redis *RedisAdapter, memory *MemoryAdapter, dev bool) *Service {
	return &Service{redis: redis, memory: memory, dev: dev}
}

// pick re-evaluates backend liveness, at most once per probeInterval.
func (s *Service) pick(ctx context.Context) Adapter {
	if s.redis == nil {
		s.seedOnce()
		return s.memory
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if time.Since(s.lastProbe) >= probeInterval {
		probeCtx, cancel := context.WithTimeout(ctx, probeTimeout)
		up := s.redis.Ping(probeCtx) == nil
		cancel()
		if up != s.redisUp {
			if up {
				log.Info().Str("module", "storage").Msg("switching to redis backend")
			} else {
				log.Warn().Str("module", "storage").Msg("redis unreachable, switching to memory backend")
				if s.dev && !s.seeded {
					s.memory.SeedSampleData()
					s.seeded = true
				}
			}
		}
		s.redisUp = up
		s.lastProbe = time.Now()
	}

	if s.redisUp {
		return s.redis
	}
	return s.memory
}

func (s *Service) seedOnce() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dev && !s.seeded {
		s.memory.SeedSampleData()
		s.seeded = true
	}
}

// CurrentBackend reports which backend the next call would use.
func (s *Service) CurrentBackend(ctx context.Context) Backend {
	if _, ok := s.pick(ctx).(*RedisAdapter); ok {
		return BackendRedis
	}
	return BackendMemory
}

func (s *Service) CreateRoom(ctx context.Context, room core.RoomSnapshot) {
	if err := s.pick(ctx).CreateRoom(ctx, room); err != nil {
		log.Warn().Err(err).Str("module", "storage").Str("room", string(room.ID)).Msg("mirror create failed")
	}
}

func (s *Service) UpdateRoom(ctx context.Context, room core.RoomSnapshot) {
	if err := s.pick(ctx).UpdateRoom(ctx, room); err != nil {
		log.Warn().Err(err).Str("module", "storage").Str("room", string(room.ID)).Msg("mirror update failed")
	}
}

func (s *Service) DeleteRoom(ctx context.Context, id domain.RoomID) {
	if err := s.pick(ctx).DeleteRoom(ctx, id); err != nil {
		log.Warn().Err(err).Str("module", "storage").Str("room", string(id)).Msg("mirror delete failed")
	}
}

func (s *Service) FindRoom(ctx context.Context, id domain.RoomID) (*core.RoomSnapshot, error) {
	return s.pick(ctx).FindRoom(ctx, id)
}

func (s *Service) ListRooms(ctx context.Context) ([]core.RoomSnapshot, error) {
	return s.pick(ctx).ListRooms(ctx)
}

func (s *Service) CreateRecording(ctx context.Context, rec domain.RecordingFile) {
	if err := s.pick(ctx).CreateRecording(ctx, rec); err != nil {
		log.Warn().Err(err).Str("module", "storage").Str("recording", rec.ID).Msg("recording metadata write failed")
	}
}

func (s *Service) FindRecordingsByRoom(ctx context.Context, roomID domain.RoomID) ([]domain.RecordingFile, error) {
	return s.pick(ctx).FindRecordingsByRoom(ctx, roomID)
}

func (s *Service) UpdateRecording(ctx context.Context, rec domain.RecordingFile) {
	if err := s.pick(ctx).UpdateRecording(ctx, rec); err != nil {
		log.Warn().Err(err).Str("module", "storage").Str("recording", rec.ID).Msg("recording metadata update failed")
	}
}

func (s *Service) CheckHealth(ctx context.Context) Health {
	return s.pick(ctx).CheckHealth(ctx)
}
