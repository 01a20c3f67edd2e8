// Package core holds the authoritative in-memory session state. Every
// operation takes the store lock for its full critical section, so a
// capacity check and the insert it guards can never interleave with
// another mutation. Mutations return a snapshot taken inside the same
// section; callers broadcast that snapshot instead of re-reading. The
// store never touches transport or storage.
package core

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/recroom/server/internal/domain"
)

type SessionStore struct {
	mu    sync.RWMutex
	rooms map[domain.RoomID]*domain.Room
}

func NewSessionStore() *SessionStore {
	return &SessionStore{rooms: make(map[domain.RoomID]*domain.Room)}
}

// CreateRoom seats the host in a fresh waiting room. The caller is expected
// to have validated the host name already; validation still runs here so the
// store cannot hold a malformed participant.
func (s *SessionStore) CreateRoom(hostName string, maxParticipants int) (RoomSnapshot, error) {
	host, err := domain.NewParticipant(hostName, true)
	if err != nil {
		return RoomSnapshot{}, err
	}
	room := domain.NewRoom(host, maxParticipants)

	s.mu.Lock()
	s.rooms[room.ID] = room
	snap := snapshotLocked(room)
	s.mu.Unlock()

	log.Info().Str("module", "core.store").Str("room", string(room.ID)).Str("host", host.Name).Msg("room created")
	return snap, nil
}

// RestoreRoom inserts a recovered room shell. It is a no-op when the id is
// already present, so recovery cannot clobber live state.
func (s *SessionStore) RestoreRoom(room *domain.Room) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rooms[room.ID]; ok {
		return false
	}
	s.rooms[room.ID] = room
	log.Info().Str("module", "core.store").Str("room", string(room.ID)).Msg("room restored from durable mirror")
	return true
}

func (s *SessionStore) RoomCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.rooms)
}

// AddParticipant joins a named member, enforcing the ended-room and
// capacity invariants inside one critical section.
func (s *SessionStore) AddParticipant(roomID domain.RoomID, name string) (domain.Participant, RoomSnapshot, error) {
	p, err := domain.NewParticipant(name, false)
	if err != nil {
		return domain.Participant{}, RoomSnapshot{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return domain.Participant{}, RoomSnapshot{}, domain.ErrRoomNotFound
	}
	if room.Status == domain.RoomEnded {
		return domain.Participant{}, RoomSnapshot{}, domain.ErrRoomEnded
	}
	if room.IsFull() {
		return domain.Participant{}, RoomSnapshot{}, domain.ErrRoomFull
	}
	// Ids are server-generated, so a collision is normally unreachable.
	if room.Participant(p.ID) != nil {
		return domain.Participant{}, RoomSnapshot{}, domain.ErrDuplicateMember
	}

	room.Participants = append(room.Participants, p)
	log.Info().Str("module", "core.store").Str("room", string(roomID)).Str("participant", p.Name).Msg("participant joined")
	return *p, snapshotLocked(room), nil
}

// RemovalResult describes what RemoveParticipant did, so callers can drive
// host-transfer broadcasts and empty-room teardown.
type RemovalResult struct {
	Removed      domain.Participant
	WasHost      bool
	RoomNowEmpty bool
	NewHost      *domain.Participant
}

// RemoveParticipant deletes the member and, when the host leaves with
// members remaining, promotes the oldest remaining member to host.
func (s *SessionStore) RemoveParticipant(roomID domain.RoomID, pid domain.ParticipantID) (RemovalResult, RoomSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return RemovalResult{}, RoomSnapshot{}, domain.ErrRoomNotFound
	}

	idx := -1
	for i, p := range room.Participants {
		if p.ID == pid {
			idx = i
			break
		}
	}
	if idx < 0 {
		return RemovalResult{}, RoomSnapshot{}, domain.ErrParticipantNotFound
	}

	res := RemovalResult{Removed: *room.Participants[idx], WasHost: room.Participants[idx].IsHost}
	room.Participants = append(room.Participants[:idx], room.Participants[idx+1:]...)
	res.RoomNowEmpty = len(room.Participants) == 0

	if res.WasHost && !res.RoomNowEmpty {
		next := room.Participants[0]
		next.IsHost = true
		room.HostID = next.ID
		cp := *next
		res.NewHost = &cp
		log.Info().Str("module", "core.store").Str("room", string(roomID)).Str("host", next.Name).Msg("host transferred")
	}

	log.Info().Str("module", "core.store").Str("room", string(roomID)).Str("participant", res.Removed.Name).Msg("participant removed")
	return res, snapshotLocked(room), nil
}

// StartRecording transitions waiting -> recording. Only the host may start;
// every member's recording status is mirrored to the room state.
func (s *SessionStore) StartRecording(roomID domain.RoomID, actor domain.ParticipantID) (time.Time, RoomSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return time.Time{}, RoomSnapshot{}, domain.ErrRoomNotFound
	}
	if room.HostID != actor {
		return time.Time{}, RoomSnapshot{}, domain.ErrNotHost
	}
	if room.Status == domain.RoomRecording {
		return time.Time{}, RoomSnapshot{}, domain.ErrAlreadyRecording
	}
	if room.Status == domain.RoomEnded {
		return time.Time{}, RoomSnapshot{}, domain.ErrRoomEnded
	}

	now := time.Now().UTC()
	room.Status = domain.RoomRecording
	room.RecordingStartedAt = &now
	room.RecordingEndedAt = nil
	for _, p := range room.Participants {
		p.RecordingStatus = domain.RecRecording
	}

	log.Info().Str("module", "core.store").Str("room", string(roomID)).Msg("recording started")
	return now, snapshotLocked(room), nil
}

// StopRecording transitions recording -> waiting and folds the elapsed
// cycle into the accumulated duration (milliseconds). Returns the stop
// timestamp and the new total.
func (s *SessionStore) StopRecording(roomID domain.RoomID, actor domain.ParticipantID) (time.Time, int64, RoomSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return time.Time{}, 0, RoomSnapshot{}, domain.ErrRoomNotFound
	}
	if room.HostID != actor {
		return time.Time{}, 0, RoomSnapshot{}, domain.ErrNotHost
	}
	if room.Status != domain.RoomRecording {
		return time.Time{}, 0, RoomSnapshot{}, domain.ErrNotRecording
	}

	now := time.Now().UTC()
	if room.RecordingStartedAt != nil {
		room.RecordingDuration += now.Sub(*room.RecordingStartedAt).Milliseconds()
	}
	room.Status = domain.RoomWaiting
	room.RecordingStartedAt = nil
	room.RecordingEndedAt = &now
	for _, p := range room.Participants {
		p.RecordingStatus = domain.RecCompleted
	}

	log.Info().Str("module", "core.store").Str("room", string(roomID)).Int64("total_ms", room.RecordingDuration).Msg("recording stopped")
	return now, room.RecordingDuration, snapshotLocked(room), nil
}

// MarkEnded flips the room to ended regardless of actor, returning the
// accumulated duration. Used during empty-room teardown.
func (s *SessionStore) MarkEnded(roomID domain.RoomID) (int64, RoomSnapshot, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	room, ok := s.rooms[roomID]
	if !ok {
		return 0, RoomSnapshot{}, false
	}
	room.Status = domain.RoomEnded
	return room.RecordingDuration, snapshotLocked(room), true
}

// UpdateParticipant applies a client-reported status change. Nil fields are
// left untouched.
func (s *SessionStore) UpdateParticipant(roomID domain.RoomID, pid domain.ParticipantID, micEnabled *bool, rec *domain.RecordingStatus) (domain.Participant, RoomSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	room, ok := s.rooms[roomID]
	if !ok {
		return domain.Participant{}, RoomSnapshot{}, domain.ErrRoomNotFound
	}
	p := room.Participant(pid)
	if p == nil {
		return domain.Participant{}, RoomSnapshot{}, domain.ErrParticipantNotFound
	}
	if micEnabled != nil {
		p.MicrophoneEnabled = *micEnabled
	}
	if rec != nil {
		p.RecordingStatus = *rec
	}
	return *p, snapshotLocked(room), nil
}

func (s *SessionStore) DeleteRoom(roomID domain.RoomID) {
	s.mu.Lock()
	delete(s.rooms, roomID)
	s.mu.Unlock()
	log.Info().Str("module", "core.store").Str("room", string(roomID)).Msg("room deleted")
}
