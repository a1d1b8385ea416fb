/*
Package chat contains the relay core: room registry, presence table, and the
event loop that fans inbound client events out to the right connections.

This file defines the PresenceTable, mapping each live connection to its
username and current room. A connection absent from the table has not joined
yet; events from it are dropped silently, never treated as faults.
*/
package chat

import "sync"

// Presence is the live association of a connection with a username and a room.
type Presence struct {
	Username string
	Room     string
}

// PresenceTable tracks the presence record of every joined connection,
// keyed by connection id.
// Mutations happen only on the relay goroutine; the mutex exists so that REST
// snapshot reads can run concurrently with it.
type PresenceTable struct {
	mu      sync.RWMutex
	records map[string]Presence
}

// NewPresenceTable constructs an empty PresenceTable.
func NewPresenceTable() *PresenceTable {
	return &PresenceTable{
		records: make(map[string]Presence),
	}
}

// Register inserts or overwrites the connection's presence record.
func (p *PresenceTable) Register(connID, username, roomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.records[connID] = Presence{Username: username, Room: roomID}
}

// Lookup returns the connection's presence record. The second return value is
// false when the connection has not joined.
func (p *PresenceTable) Lookup(connID string) (Presence, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	record, ok := p.records[connID]
	return record, ok
}

// UpdateRoom changes the room recorded for the connection. Unknown connections
// are ignored.
func (p *PresenceTable) UpdateRoom(connID, newRoomID string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if record, ok := p.records[connID]; ok {
		record.Room = newRoomID
		p.records[connID] = record
	}
}

// Unregister removes the connection's record and returns the prior value for
// cleanup use.
func (p *PresenceTable) Unregister(connID string) (Presence, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	record, ok := p.records[connID]
	if ok {
		delete(p.records, connID)
	}
	return record, ok
}

// FindByUsername reports whether any connection is present under the given
// display name. The comparison is case-sensitive and exact. A linear scan is
// fine at the expected scale; this only runs on the join path.
func (p *PresenceTable) FindByUsername(username string) (string, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for connID, record := range p.records {
		if record.Username == username {
			return connID, true
		}
	}
	return "", false
}

// Len returns the number of joined connections.
func (p *PresenceTable) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.records)
}
