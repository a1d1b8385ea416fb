/*
Package chat contains the relay core: room registry, presence table, and the
event loop that fans inbound client events out to the right connections.

This file defines the Relay, the single owner of all connection, room, and
presence state. Every inbound event is serialized through one channel and runs
to completion on one goroutine, so no event handling ever interleaves. Events
from the same connection are handled in the order sent.
*/
package chat

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"relaychat/internal/pkg/logx"
)

const eventQueueSize = 1024

// command pairs an inbound event with the connection it arrived on.
type command struct {
	client *Client
	event  ClientEvent
}

// connectEvent and disconnectEvent mark the transport lifecycle edges. They
// travel through the same queue as wire events to preserve per-connection order.
type connectEvent struct{}
type disconnectEvent struct{}

func (connectEvent) clientEvent()    {}
func (disconnectEvent) clientEvent() {}

// Relay brokers all chat events between connected clients.
type Relay struct {
	// registry holds the rooms and their member sets.
	registry *Registry

	// presence maps connections to their username and current room.
	presence *PresenceTable

	// clients holds every connected client, joined or not, keyed by
	// connection id. Touched only by the Run goroutine.
	clients map[string]*Client

	// events is the serialized inbound queue.
	events chan command

	// stopChan signals the Run loop to terminate.
	stopChan chan struct{}

	// wg waits for the Run goroutine during shutdown.
	wg sync.WaitGroup

	// lastMessageID guards message id monotonicity. Run goroutine only.
	lastMessageID int64

	// structured logger with Relay context.
	logger zerolog.Logger
}

// NewRelay constructs a Relay with the default room set and no connections.
// Call Start to begin processing events.
func NewRelay() *Relay {
	relayLogger := logx.Logger().With().Str("component", "Relay").Logger()

	return &Relay{
		registry: NewRegistry(),
		presence: NewPresenceTable(),
		clients:  make(map[string]*Client),
		events:   make(chan command, eventQueueSize),
		stopChan: make(chan struct{}),
		logger:   relayLogger,
	}
}

// Start launches the Run loop on its own goroutine.
func (r *Relay) Start() {
	r.wg.Add(1)
	go r.run()
}

// run is the relay event loop. It is the only goroutine that mutates the
// registry, the presence table, or the clients map.
func (r *Relay) run() {
	defer r.wg.Done()

	r.logger.Info().Msg("Relay event loop started.")

	for {
		select {
		case cmd := <-r.events:
			r.handle(cmd)

		case <-r.stopChan:
			r.logger.Info().Int("connections", len(r.clients)).Msg("Relay event loop stopping.")

			for id, client := range r.clients {
				delete(r.clients, id)
				close(client.send)
			}
			return
		}
	}
}

// Shutdown stops the event loop and closes every client send channel.
func (r *Relay) Shutdown() {
	select {
	case <-r.stopChan:
	default:
		close(r.stopChan)
	}
	r.wg.Wait()

	r.logger.Info().Msg("Relay shutdown complete.")
}

// RegisterClient announces a freshly upgraded connection to the relay.
func (r *Relay) RegisterClient(c *Client) {
	r.Enqueue(c, connectEvent{})
}

// Enqueue submits an event from the given connection for processing.
// The send blocks when the queue is full so per-connection ordering holds;
// a relay being shut down discards the event instead.
func (r *Relay) Enqueue(c *Client, event ClientEvent) {
	select {
	case r.events <- command{client: c, event: event}:
	case <-r.stopChan:
	}
}

// RoomList returns a snapshot of every room for the REST surface.
func (r *Relay) RoomList() []RoomListing {
	return r.registry.List()
}

// Stats returns the number of joined users and the number of rooms.
func (r *Relay) Stats() (users, rooms int) {
	return r.presence.Len(), r.registry.Len()
}

// handle dispatches one inbound event. Runs on the relay goroutine only.
func (r *Relay) handle(cmd command) {
	c := cmd.client

	switch event := cmd.event.(type) {
	case connectEvent:
		r.clients[c.id] = c
		r.logger.Info().Str("conn_id", c.id).Int("connections", len(r.clients)).Msg("Connection registered.")

	case disconnectEvent:
		r.handleDisconnect(c)

	case JoinEvent:
		r.handleJoin(c, event)

	case SendMessageEvent:
		r.handleSendMessage(c, event)

	case CreateRoomEvent:
		r.handleCreateRoom(c, event)

	case ChangeRoomEvent:
		r.handleChangeRoom(c, event)

	case TypingEvent:
		r.handleTyping(c, event)
	}
}

// handleJoin transitions an unjoined connection into a room. A display name
// already present anywhere is rejected and the connection stays unjoined.
func (r *Relay) handleJoin(c *Client, event JoinEvent) {
	username := event.Username
	roomID := event.Room

	if username == "" || roomID == "" {
		r.logger.Debug().Str("conn_id", c.id).Msg("Join with blank username or room dropped.")
		return
	}

	if _, ok := r.presence.Lookup(c.id); ok {
		// Already joined; join is not a rename operation.
		r.logger.Debug().Str("conn_id", c.id).Msg("Join from already-joined connection dropped.")
		return
	}

	if _, taken := r.presence.FindByUsername(username); taken {
		r.logger.Info().Str("conn_id", c.id).Str("username", username).Msg("Join rejected: username taken.")
		r.sendTo(c, EventUsernameTaken, UsernameTakenPayload{
			Message: "Username is already taken",
		})
		return
	}

	if created := r.registry.Ensure(roomID); created {
		r.announceRoom(roomID)
	}

	r.presence.Register(c.id, username, roomID)
	r.registry.AddMember(roomID, username)

	r.logger.Info().
		Str("conn_id", c.id).
		Str("username", username).
		Str("room", roomID).
		Msg("User joined room.")

	r.broadcastRoom(roomID, c.id, EventUserJoined, PresencePayload{
		Username:  username,
		Message:   fmt.Sprintf("%s joined the room", username),
		Timestamp: time.Now(),
		RoomUsers: r.registry.MemberNames(roomID),
	})

	r.sendTo(c, EventRoomInfo, r.roomInfo(roomID))
}

// handleSendMessage relays a chat message to the sender's whole room,
// the sender included. Messages are never stored.
func (r *Relay) handleSendMessage(c *Client, event SendMessageEvent) {
	record, ok := r.presence.Lookup(c.id)
	if !ok {
		return
	}

	if event.Message == "" {
		return
	}

	payload := MessagePayload{
		ID:        r.nextMessageID(),
		Username:  record.Username,
		Message:   event.Message,
		Room:      record.Room,
		Timestamp: time.Now(),
		Type:      MessageTypeChat,
	}

	r.logger.Debug().
		Str("username", record.Username).
		Str("room", record.Room).
		Str("message_id", payload.ID).
		Msg("Relaying message.")

	r.broadcastRoom(record.Room, "", EventReceiveMessage, payload)
}

// handleCreateRoom inserts a room under the slug of the requested name.
// Creation is idempotent; only a real insertion is announced.
func (r *Relay) handleCreateRoom(c *Client, event CreateRoomEvent) {
	roomID, created := r.registry.Create(event.RoomName)
	if roomID == "" {
		r.logger.Debug().Str("conn_id", c.id).Msg("Create with blank room name dropped.")
		return
	}

	if !created {
		r.logger.Debug().Str("room", roomID).Msg("Room already exists; create is a no-op.")
		return
	}

	r.logger.Info().Str("room", roomID).Str("room_name", event.RoomName).Msg("Room created.")
	r.announceRoom(roomID)
}

// handleChangeRoom moves a joined connection between rooms. A target room id
// that was never created gets a registry entry on the spot, so the room list
// and the member sets cannot diverge.
func (r *Relay) handleChangeRoom(c *Client, event ChangeRoomEvent) {
	record, ok := r.presence.Lookup(c.id)
	if !ok {
		return
	}

	newRoom := event.NewRoom
	if newRoom == "" {
		return
	}

	oldRoom := record.Room

	r.registry.RemoveMember(oldRoom, record.Username)
	r.presence.UpdateRoom(c.id, newRoom)

	r.broadcastRoom(oldRoom, c.id, EventUserLeft, PresencePayload{
		Username:  record.Username,
		Message:   fmt.Sprintf("%s left the room", record.Username),
		Timestamp: time.Now(),
		RoomUsers: r.registry.MemberNames(oldRoom),
	})

	if created := r.registry.Ensure(newRoom); created {
		r.announceRoom(newRoom)
	}
	r.registry.AddMember(newRoom, record.Username)

	r.logger.Info().
		Str("username", record.Username).
		Str("from", oldRoom).
		Str("to", newRoom).
		Msg("User changed room.")

	r.broadcastRoom(newRoom, c.id, EventUserJoined, PresencePayload{
		Username:  record.Username,
		Message:   fmt.Sprintf("%s joined the room", record.Username),
		Timestamp: time.Now(),
		RoomUsers: r.registry.MemberNames(newRoom),
	})

	r.sendTo(c, EventRoomInfo, r.roomInfo(newRoom))
}

// handleTyping forwards a typing indicator to the rest of the sender's room.
// No typing state is stored.
func (r *Relay) handleTyping(c *Client, event TypingEvent) {
	record, ok := r.presence.Lookup(c.id)
	if !ok {
		return
	}

	r.broadcastRoom(record.Room, c.id, EventUserTyping, TypingPayload{
		Username: record.Username,
		IsTyping: event.Started,
	})
}

// handleDisconnect removes the connection and, if it had joined, its
// membership, notifying the former room. Unjoined connections leave silently.
func (r *Relay) handleDisconnect(c *Client) {
	if _, ok := r.clients[c.id]; ok {
		delete(r.clients, c.id)
		close(c.send)
	}

	record, ok := r.presence.Unregister(c.id)
	if !ok {
		r.logger.Debug().Str("conn_id", c.id).Msg("Unjoined connection disconnected.")
		return
	}

	r.registry.RemoveMember(record.Room, record.Username)

	r.logger.Info().
		Str("conn_id", c.id).
		Str("username", record.Username).
		Str("room", record.Room).
		Msg("User disconnected.")

	r.broadcastRoom(record.Room, "", EventUserLeft, PresencePayload{
		Username:  record.Username,
		Message:   fmt.Sprintf("%s left the room", record.Username),
		Timestamp: time.Now(),
		RoomUsers: r.registry.MemberNames(record.Room),
	})
}

// roomInfo builds the snapshot sent to a connection entering a room.
func (r *Relay) roomInfo(roomID string) RoomInfoPayload {
	return RoomInfoPayload{
		Room:     roomID,
		RoomName: r.registry.Name(roomID),
		Users:    r.registry.MemberNames(roomID),
		Rooms:    r.registry.Overview(),
	}
}

// announceRoom broadcasts a room_created notice to every connection.
func (r *Relay) announceRoom(roomID string) {
	overview := RoomOverview{
		ID:        roomID,
		Name:      r.registry.Name(roomID),
		UserCount: len(r.registry.MemberNames(roomID)),
	}
	r.broadcastAll(EventRoomCreated, overview)
}

// sendTo emits an event to a single connection.
func (r *Relay) sendTo(c *Client, event string, data any) {
	frame, err := EncodeEvent(event, data)
	if err != nil {
		r.logger.Error().Err(err).Str("event", event).Msg("Failed to encode event.")
		return
	}
	c.trySend(frame)
}

// broadcastRoom emits an event to every connection whose presence record names
// the room, excluding the connection id excludeID when non-empty.
func (r *Relay) broadcastRoom(roomID, excludeID, event string, data any) {
	frame, err := EncodeEvent(event, data)
	if err != nil {
		r.logger.Error().Err(err).Str("event", event).Msg("Failed to encode event.")
		return
	}

	for id, client := range r.clients {
		if id == excludeID {
			continue
		}
		if record, ok := r.presence.Lookup(id); ok && record.Room == roomID {
			client.trySend(frame)
		}
	}
}

// broadcastAll emits an event to every connection, joined or not.
func (r *Relay) broadcastAll(event string, data any) {
	frame, err := EncodeEvent(event, data)
	if err != nil {
		r.logger.Error().Err(err).Str("event", event).Msg("Failed to encode event.")
		return
	}

	for _, client := range r.clients {
		client.trySend(frame)
	}
}

// nextMessageID returns a time-derived id that never decreases, even when two
// messages land within the same millisecond.
func (r *Relay) nextMessageID() string {
	id := time.Now().UnixMilli()
	if id <= r.lastMessageID {
		id = r.lastMessageID + 1
	}
	r.lastMessageID = id
	return strconv.FormatInt(id, 10)
}
