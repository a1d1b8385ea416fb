package chat

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeClientEvent(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want ClientEvent
	}{
		{
			name: "join",
			raw:  `{"event":"user_join","data":{"username":"alice","room":"general"}}`,
			want: JoinEvent{Username: "alice", Room: "general"},
		},
		{
			name: "send message",
			raw:  `{"event":"send_message","data":{"message":"hi there"}}`,
			want: SendMessageEvent{Message: "hi there"},
		},
		{
			name: "create room",
			raw:  `{"event":"create_room","data":{"roomName":"Study Group"}}`,
			want: CreateRoomEvent{RoomName: "Study Group"},
		},
		{
			name: "change room",
			raw:  `{"event":"change_room","data":{"newRoom":"tech"}}`,
			want: ChangeRoomEvent{NewRoom: "tech"},
		},
		{
			name: "typing start",
			raw:  `{"event":"typing_start"}`,
			want: TypingEvent{Started: true},
		},
		{
			name: "typing stop",
			raw:  `{"event":"typing_stop","data":{}}`,
			want: TypingEvent{Started: false},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DecodeClientEvent([]byte(tc.raw))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestDecodeClientEventToleratesMissingFields(t *testing.T) {
	// Inbound frames are untrusted; absent payloads decode to zero values and
	// are rejected by the relay's own validation, never by a panic.
	event, err := DecodeClientEvent([]byte(`{"event":"user_join"}`))
	require.NoError(t, err)
	assert.Equal(t, JoinEvent{}, event)

	event, err = DecodeClientEvent([]byte(`{"event":"send_message","data":{"unrelated":1}}`))
	require.NoError(t, err)
	assert.Equal(t, SendMessageEvent{}, event)
}

func TestDecodeClientEventRejectsGarbage(t *testing.T) {
	for _, raw := range []string{
		`not json at all`,
		`{"event":"no_such_event","data":{}}`,
		`{"event":"user_join","data":"string instead of object"}`,
		`{}`,
	} {
		_, err := DecodeClientEvent([]byte(raw))
		assert.Error(t, err, "raw=%s", raw)
	}
}

func TestEncodeEvent(t *testing.T) {
	frame, err := EncodeEvent(EventUserTyping, TypingPayload{Username: "alice", IsTyping: true})
	require.NoError(t, err)

	var env Envelope
	require.NoError(t, json.Unmarshal(frame, &env))
	assert.Equal(t, EventUserTyping, env.Event)

	var payload TypingPayload
	require.NoError(t, json.Unmarshal(env.Data, &payload))
	assert.Equal(t, "alice", payload.Username)
	assert.True(t, payload.IsTyping)
}

func TestMessagePayloadWireShape(t *testing.T) {
	frame, err := EncodeEvent(EventReceiveMessage, MessagePayload{
		ID:       "1700000000000",
		Username: "alice",
		Message:  "hello",
		Room:     "general",
		Type:     MessageTypeChat,
	})
	require.NoError(t, err)

	var env struct {
		Event string         `json:"event"`
		Data  map[string]any `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frame, &env))

	// Field names are part of the wire contract with the browser client.
	for _, key := range []string{"id", "username", "message", "room", "timestamp", "type"} {
		assert.Contains(t, env.Data, key)
	}
}
