// Package app wires policy around the session store: room lifecycle,
// the recording control protocol, and the connection registry.
package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/recroom/server/internal/domain"
)

// SessionID identifies one realtime connection. It comes from the client
// token cookie, so it survives a websocket reconnect.
type SessionID string

type binding struct {
	RoomID        domain.RoomID
	ParticipantID domain.ParticipantID
	Cancel        context.CancelFunc
}

// Registry is the connection -> participant reverse index. The gateway
// binds a session when a join succeeds and looks it up on disconnect to
// run the same removal path as an explicit leave.
type Registry struct {
	mu       sync.RWMutex
	sessions map[SessionID]binding
	byRoom   map[domain.RoomID]map[SessionID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		sessions: make(map[SessionID]binding),
		byRoom:   make(map[domain.RoomID]map[SessionID]struct{}),
	}
}

// Bind associates a connection with its seated participant. Re-binding the
// same session replaces the previous association.
func (r *Registry) Bind(sid SessionID, roomID domain.RoomID, pid domain.ParticipantID, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.sessions[sid]; ok {
		r.dropFromRoomLocked(prev.RoomID, sid)
	}
	r.sessions[sid] = binding{RoomID: roomID, ParticipantID: pid, Cancel: cancel}
	set, ok := r.byRoom[roomID]
	if !ok {
		set = make(map[SessionID]struct{})
		r.byRoom[roomID] = set
	}
	set[sid] = struct{}{}
	log.Debug().Str("module", "app.registry").Str("sid", string(sid)).Str("room", string(roomID)).Msg("session bound")
}

// Lookup resolves the participant seated on a connection.
func (r *Registry) Lookup(sid SessionID) (domain.RoomID, domain.ParticipantID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.sessions[sid]
	return b.RoomID, b.ParticipantID, ok
}

// Unbind removes the association and returns what it pointed at.
func (r *Registry) Unbind(sid SessionID) (domain.RoomID, domain.ParticipantID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.sessions[sid]
	if !ok {
		return "", "", false
	}
	delete(r.sessions, sid)
	r.dropFromRoomLocked(b.RoomID, sid)
	return b.RoomID, b.ParticipantID, true
}

// SessionsInRoom lists the connections currently subscribed to a room's
// broadcasts.
func (r *Registry) SessionsInRoom(roomID domain.RoomID) []SessionID {
	r.mu.RLock()
	defer r.mu.RUnlock()
	set := r.byRoom[roomID]
	out := make([]SessionID, 0, len(set))
	for sid := range set {
		out = append(out, sid)
	}
	return out
}

// CancelRoom cancels every connection context bound to the room. Called
// after the room-ended broadcast so lingering connections wind down.
func (r *Registry) CancelRoom(roomID domain.RoomID) {
	r.mu.RLock()
	cancels := make([]context.CancelFunc, 0)
	for sid := range r.byRoom[roomID] {
		if b, ok := r.sessions[sid]; ok && b.Cancel != nil {
			cancels = append(cancels, b.Cancel)
		}
	}
	r.mu.RUnlock()
	for _, cancel := range cancels {
		cancel()
	}
}

func (r *Registry) dropFromRoomLocked(roomID domain.RoomID, sid SessionID) {
	if set, ok := r.byRoom[roomID]; ok {
		delete(set, sid)
		if len(set) == 0 {
			delete(r.byRoom, roomID)
		}
	}
}
