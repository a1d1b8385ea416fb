/*
Package chat contains the relay core: room registry, presence table, and the
event loop that fans inbound client events out to the right connections.

This file defines the Registry, the process-wide set of rooms and their member
username sets. Rooms are created on demand and never deleted; the registry is
seeded with a fixed starter set at construction.
*/
package chat

import (
	"sort"
	"strings"
	"sync"
	"time"
)

// Room is a named group whose membership determines message fan-out scope.
type Room struct {
	// ID is the stable identifier derived from the display name.
	ID string

	// Name is the human-readable display name.
	Name string

	// Created records when the room was inserted.
	Created time.Time

	// members is the set of usernames currently present in the room.
	members map[string]struct{}

	// seq preserves insertion order for listings.
	seq int
}

// defaultRooms is the starter set present at process start. The ids are fixed
// and intentionally shorter than the slugs their display names would produce.
var defaultRooms = []struct {
	id   string
	name string
}{
	{"general", "General"},
	{"random", "Random"},
	{"tech", "Tech Talk"},
	{"gaming", "Gaming"},
	{"music", "Music Lovers"},
}

// Registry holds all rooms, keyed by room id.
// Mutations happen only on the relay goroutine; the mutex exists so that REST
// snapshot reads can run concurrently with it.
type Registry struct {
	mu      sync.RWMutex
	rooms   map[string]*Room
	nextSeq int
}

// NewRegistry constructs a Registry populated with the default starter rooms.
func NewRegistry() *Registry {
	g := &Registry{
		rooms: make(map[string]*Room),
	}

	now := time.Now()
	for _, d := range defaultRooms {
		g.insert(d.id, d.name, now)
	}

	return g
}

// insert adds a room without locking. Callers hold the write lock, except the
// constructor which has exclusive access.
func (g *Registry) insert(id, name string, created time.Time) *Room {
	room := &Room{
		ID:      id,
		Name:    name,
		Created: created,
		members: make(map[string]struct{}),
		seq:     g.nextSeq,
	}
	g.nextSeq++
	g.rooms[id] = room
	return room
}

// SlugID derives a room id from a display name: case-folded, with runs of
// whitespace collapsed to a single hyphen. The derivation is deterministic,
// so repeated creation attempts of the same name yield the same id.
func SlugID(displayName string) string {
	return strings.Join(strings.Fields(strings.ToLower(displayName)), "-")
}

// Create derives an id from the display name and inserts a new empty room
// under it. If a room with that id already exists the call is a no-op.
// It returns the id and whether a room was actually inserted; the caller
// broadcasts the room_created notice only on insertion.
func (g *Registry) Create(displayName string) (string, bool) {
	id := SlugID(displayName)
	if id == "" {
		return "", false
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.rooms[id]; ok {
		return id, false
	}

	g.insert(id, displayName, time.Now())
	return id, true
}

// Ensure guarantees a registry entry exists for the given id, using the id
// itself as the display name when inserting. It returns whether a room was
// inserted. Used when a client moves to a room id that was never created
// explicitly, so member sets never belong to unlisted rooms.
func (g *Registry) Ensure(id string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.rooms[id]; ok {
		return false
	}

	g.insert(id, id, time.Now())
	return true
}

// AddMember inserts the username into the room's member set.
// Unknown room ids are ignored.
func (g *Registry) AddMember(roomID, username string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if room, ok := g.rooms[roomID]; ok {
		room.members[username] = struct{}{}
	}
}

// RemoveMember deletes the username from the room's member set.
// Unknown room ids are ignored; a room id may be stale after a race.
func (g *Registry) RemoveMember(roomID, username string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if room, ok := g.rooms[roomID]; ok {
		delete(room.members, username)
	}
}

// MemberNames returns the sorted usernames present in the room.
// Unknown room ids yield an empty slice.
func (g *Registry) MemberNames(roomID string) []string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	room, ok := g.rooms[roomID]
	if !ok {
		return []string{}
	}

	names := make([]string, 0, len(room.members))
	for name := range room.members {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Name returns the room's display name, falling back to the id itself for
// unknown rooms.
func (g *Registry) Name(roomID string) string {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if room, ok := g.rooms[roomID]; ok {
		return room.Name
	}
	return roomID
}

// Overview returns every room as a RoomOverview, in insertion order.
func (g *Registry) Overview() []RoomOverview {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rooms := g.snapshotLocked()

	out := make([]RoomOverview, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomOverview{
			ID:        room.ID,
			Name:      room.Name,
			UserCount: len(room.members),
		})
	}
	return out
}

// List returns every room as a RoomListing, in insertion order.
// The full registry is always returned; there is no pagination.
func (g *Registry) List() []RoomListing {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rooms := g.snapshotLocked()

	out := make([]RoomListing, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, RoomListing{
			ID:        room.ID,
			Name:      room.Name,
			UserCount: len(room.members),
			Created:   room.Created,
		})
	}
	return out
}

// Len returns the number of rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return len(g.rooms)
}

// snapshotLocked returns the rooms ordered by insertion. Callers hold at
// least the read lock.
func (g *Registry) snapshotLocked() []*Room {
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		rooms = append(rooms, room)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].seq < rooms[j].seq
	})
	return rooms
}
