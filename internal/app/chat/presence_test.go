package chat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresenceRegisterAndLookup(t *testing.T) {
	p := NewPresenceTable()

	_, ok := p.Lookup("conn-1")
	assert.False(t, ok, "unjoined connection has no record")

	p.Register("conn-1", "alice", "general")

	record, ok := p.Lookup("conn-1")
	require.True(t, ok)
	assert.Equal(t, "alice", record.Username)
	assert.Equal(t, "general", record.Room)
	assert.Equal(t, 1, p.Len())

	// Registering again overwrites the record.
	p.Register("conn-1", "alice", "random")
	record, _ = p.Lookup("conn-1")
	assert.Equal(t, "random", record.Room)
	assert.Equal(t, 1, p.Len())
}

func TestPresenceUpdateRoom(t *testing.T) {
	p := NewPresenceTable()
	p.Register("conn-1", "alice", "general")

	p.UpdateRoom("conn-1", "tech")
	record, _ := p.Lookup("conn-1")
	assert.Equal(t, "tech", record.Room)

	// Updating an unknown connection changes nothing.
	p.UpdateRoom("conn-2", "tech")
	_, ok := p.Lookup("conn-2")
	assert.False(t, ok)
}

func TestPresenceUnregister(t *testing.T) {
	p := NewPresenceTable()
	p.Register("conn-1", "alice", "general")

	record, ok := p.Unregister("conn-1")
	require.True(t, ok)
	assert.Equal(t, "alice", record.Username)
	assert.Equal(t, "general", record.Room)
	assert.Equal(t, 0, p.Len())

	_, ok = p.Unregister("conn-1")
	assert.False(t, ok, "second unregister finds nothing")
}

func TestPresenceFindByUsername(t *testing.T) {
	p := NewPresenceTable()
	p.Register("conn-1", "alice", "general")
	p.Register("conn-2", "bob", "random")

	connID, ok := p.FindByUsername("bob")
	require.True(t, ok)
	assert.Equal(t, "conn-2", connID)

	// Exact, case-sensitive match only.
	_, ok = p.FindByUsername("Bob")
	assert.False(t, ok)

	_, ok = p.FindByUsername("carol")
	assert.False(t, ok)
}
