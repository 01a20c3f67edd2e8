package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_BindLookupUnbind(t *testing.T) {
	r := NewRegistry()

	r.Bind("sid-1", "room-a", "p-1", nil)
	roomID, pid, ok := r.Lookup("sid-1")
	require.True(t, ok)
	assert.Equal(t, "room-a", string(roomID))
	assert.Equal(t, "p-1", string(pid))

	roomID, pid, ok = r.Unbind("sid-1")
	require.True(t, ok)
	assert.Equal(t, "room-a", string(roomID))
	assert.Equal(t, "p-1", string(pid))

	_, _, ok = r.Lookup("sid-1")
	assert.False(t, ok)
	_, _, ok = r.Unbind("sid-1")
	assert.False(t, ok)
}

func TestRegistry_SessionsInRoom(t *testing.T) {
	r := NewRegistry()
	r.Bind("sid-1", "room-a", "p-1", nil)
	r.Bind("sid-2", "room-a", "p-2", nil)
	r.Bind("sid-3", "room-b", "p-3", nil)

	assert.ElementsMatch(t, []SessionID{"sid-1", "sid-2"}, r.SessionsInRoom("room-a"))
	assert.ElementsMatch(t, []SessionID{"sid-3"}, r.SessionsInRoom("room-b"))
	assert.Empty(t, r.SessionsInRoom("room-c"))
}

func TestRegistry_RebindMovesRoom(t *testing.T) {
	r := NewRegistry()
	r.Bind("sid-1", "room-a", "p-1", nil)
	r.Bind("sid-1", "room-b", "p-9", nil)

	assert.Empty(t, r.SessionsInRoom("room-a"))
	assert.ElementsMatch(t, []SessionID{"sid-1"}, r.SessionsInRoom("room-b"))

	_, pid, ok := r.Lookup("sid-1")
	require.True(t, ok)
	assert.Equal(t, "p-9", string(pid))
}

func TestRegistry_CancelRoom(t *testing.T) {
	r := NewRegistry()
	called := 0
	r.Bind("sid-1", "room-a", "p-1", func() { called++ })
	r.Bind("sid-2", "room-a", "p-2", func() { called++ })
	r.Bind("sid-3", "room-b", "p-3", func() { called++ })

	r.CancelRoom("room-a")
	assert.Equal(t, 2, called)
}
