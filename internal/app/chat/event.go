/*
Package chat contains the relay core: room registry, presence table, and the
event loop that fans inbound client events out to the right connections.

This file defines the wire protocol. Every frame in either direction is an
Envelope naming the event and carrying its JSON payload. Inbound frames decode
into a closed set of ClientEvent variants so the relay can dispatch with an
exhaustive type switch instead of trusting arbitrary field presence.
*/
package chat

import (
	"encoding/json"
	"fmt"
	"time"
)

// Wire event names. These must stay in sync with the browser client.
const (
	// Inbound (client -> server)
	EventUserJoin    = "user_join"
	EventSendMessage = "send_message"
	EventCreateRoom  = "create_room"
	EventChangeRoom  = "change_room"
	EventTypingStart = "typing_start"
	EventTypingStop  = "typing_stop"

	// Outbound (server -> client)
	EventUsernameTaken  = "username_taken"
	EventRoomInfo       = "room_info"
	EventReceiveMessage = "receive_message"
	EventRoomCreated    = "room_created"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventUserTyping     = "user_typing"
)

// MessageTypeChat marks a regular user-authored chat message.
const MessageTypeChat = "message"

// Envelope is the frame exchanged over the WebSocket in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// ClientEvent is the closed set of events a connection may send.
type ClientEvent interface {
	clientEvent()
}

// JoinEvent asks to enter the chat under a display name, starting in a room.
type JoinEvent struct {
	Username string
	Room     string
}

// SendMessageEvent carries a chat message for the sender's current room.
type SendMessageEvent struct {
	Message string
}

// CreateRoomEvent asks for a new room with the given display name.
type CreateRoomEvent struct {
	RoomName string
}

// ChangeRoomEvent moves the sender to another room.
type ChangeRoomEvent struct {
	NewRoom string
}

// TypingEvent signals the start or stop of a typing indicator.
type TypingEvent struct {
	Started bool
}

func (JoinEvent) clientEvent()        {}
func (SendMessageEvent) clientEvent() {}
func (CreateRoomEvent) clientEvent()  {}
func (ChangeRoomEvent) clientEvent()  {}
func (TypingEvent) clientEvent()      {}

// DecodeClientEvent parses a raw inbound frame into its ClientEvent variant.
// Frames with an unknown event name or unparseable JSON return an error;
// missing payload fields decode to zero values and are validated by the relay.
func DecodeClientEvent(raw []byte) (ClientEvent, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("invalid frame: %w", err)
	}

	switch env.Event {
	case EventUserJoin:
		var p struct {
			Username string `json:"username"`
			Room     string `json:"room"`
		}
		if err := unmarshalData(env.Data, &p); err != nil {
			return nil, err
		}
		return JoinEvent{Username: p.Username, Room: p.Room}, nil

	case EventSendMessage:
		var p struct {
			Message string `json:"message"`
		}
		if err := unmarshalData(env.Data, &p); err != nil {
			return nil, err
		}
		return SendMessageEvent{Message: p.Message}, nil

	case EventCreateRoom:
		var p struct {
			RoomName string `json:"roomName"`
		}
		if err := unmarshalData(env.Data, &p); err != nil {
			return nil, err
		}
		return CreateRoomEvent{RoomName: p.RoomName}, nil

	case EventChangeRoom:
		var p struct {
			NewRoom string `json:"newRoom"`
		}
		if err := unmarshalData(env.Data, &p); err != nil {
			return nil, err
		}
		return ChangeRoomEvent{NewRoom: p.NewRoom}, nil

	case EventTypingStart:
		return TypingEvent{Started: true}, nil

	case EventTypingStop:
		return TypingEvent{Started: false}, nil

	default:
		return nil, fmt.Errorf("unsupported event %q", env.Event)
	}
}

// unmarshalData decodes an event payload, tolerating an absent data field.
func unmarshalData(data json.RawMessage, dst any) error {
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("invalid event payload: %w", err)
	}
	return nil
}

// EncodeEvent builds the wire frame for an outbound event.
func EncodeEvent(event string, data any) ([]byte, error) {
	payload, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: payload})
}

// RoomOverview is the room summary embedded in room_info and room_created events.
type RoomOverview struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	UserCount int    `json:"userCount"`
}

// RoomListing is the REST representation of a room, as served by /api/rooms.
type RoomListing struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	UserCount int       `json:"userCount"`
	Created   time.Time `json:"created"`
}

// UsernameTakenPayload rejects a join whose display name is already present.
type UsernameTakenPayload struct {
	Message string `json:"message"`
}

// RoomInfoPayload is the snapshot sent to a connection entering a room.
type RoomInfoPayload struct {
	Room     string         `json:"room"`
	RoomName string         `json:"roomName"`
	Users    []string       `json:"users"`
	Rooms    []RoomOverview `json:"rooms"`
}

// MessagePayload is a relayed chat message.
type MessagePayload struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Room      string    `json:"room"`
	Timestamp time.Time `json:"timestamp"`
	Type      string    `json:"type"`
}

// PresencePayload announces a user joining or leaving a room, with the room's
// member list after the change.
type PresencePayload struct {
	Username  string    `json:"username"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
	RoomUsers []string  `json:"roomUsers"`
}

// TypingPayload carries a typing indicator to the rest of the room.
type TypingPayload struct {
	Username string `json:"username"`
	IsTyping bool   `json:"isTyping"`
}
