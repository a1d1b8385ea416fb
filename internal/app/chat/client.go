/*
Package chat contains the relay core: room registry, presence table, and the
event loop that fans inbound client events out to the right connections.

This file defines the Client struct, representing an active WebSocket
connection. It runs the message communication loops (ReadPump and WritePump)
and feeds decoded events into the Relay.
*/
package chat

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/randx"
)

const (
	// timeout duration for writing to the WebSocket connection.
	writeWait = 10 * time.Second

	// maximum time allowed for the server to wait for a Pong message from the client.
	pongWait = 60 * time.Second

	// frequency at which the server sends a Ping message.
	pingPeriod = (pongWait * 9) / 10

	// maximum allowed size (in bytes) of a frame sent by the client.
	maxMessageSize = 8192

	// capacity of the per-client outbound queue.
	sendQueueSize = 256
)

// Client represents an active WebSocket connection. Its identity is the opaque
// connection id; a username only becomes associated once a join succeeds.
type Client struct {
	// id is the opaque connection handle.
	id string

	// relay owns all room and presence state for this connection.
	relay *Relay

	// conn is the underlying WebSocket connection.
	conn *websocket.Conn

	// send queues frames waiting to be written to the client.
	send chan []byte

	// structured logger with connection context.
	logger zerolog.Logger
}

// NewClient constructs a Client for an upgraded connection.
func NewClient(relay *Relay, wsConn *websocket.Conn) *Client {
	id := randx.ConnectionID()

	clientLogger := logx.Logger().With().
		Str("conn_id", id).
		Logger()

	return &Client{
		id:     id,
		relay:  relay,
		conn:   wsConn,
		send:   make(chan []byte, sendQueueSize),
		logger: clientLogger,
	}
}

// ID returns the opaque connection handle.
func (c *Client) ID() string {
	return c.id
}

// ReadPump reads frames from the WebSocket connection, decodes them, and hands
// them to the relay. It handles heartbeats (Pong) and performs cleanup when
// the connection closes.
func (c *Client) ReadPump() {
	defer c.cleanupOnDisconnect()

	c.conn.SetReadLimit(maxMessageSize)

	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, frame, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Info().Err(err).Msg("Error reading message (Client close/going away)")
			}
			break
		}

		event, err := DecodeClientEvent(frame)
		if err != nil {
			// Inbound frames are untrusted. Malformed input is dropped, not fatal.
			c.logger.Warn().Err(err).
				Bytes("frame", frame).
				Msg("Client sent invalid frame")
			continue
		}

		c.relay.Enqueue(c, event)
	}
}

// cleanupOnDisconnect notifies the relay that the connection is gone and
// closes the underlying socket. Ordered after all frames the connection sent.
func (c *Client) cleanupOnDisconnect() {
	c.logger.Info().Msg("Client connection cleanup starting.")

	c.relay.Enqueue(c, disconnectEvent{})

	if err := c.conn.Close(); err != nil {
		c.logger.Debug().Err(err).Msg("Client connection close error")
	}
}

// WritePump writes frames from the send channel to the WebSocket connection
// and keeps the heartbeat alive with periodic pings.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()

		if err := c.conn.Close(); err != nil {
			c.logger.Debug().Err(err).Msg("Client connection close error in WritePump")
		}
	}()

	for {
		select {
		case frame, ok := <-c.send:
			if !c.writeQueuedFrame(frame, ok) {
				return
			}

		case <-ticker.C:
			if !c.writePingMessage() {
				return
			}
		}
	}
}

// writeQueuedFrame writes one frame pulled from the send channel.
// Returns false when the WritePump loop should terminate.
func (c *Client) writeQueuedFrame(frame []byte, ok bool) bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline")
		return false
	}

	if !ok {
		// The relay closed the channel; say goodbye.
		if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
			c.logger.Debug().Err(err).Msg("Error writing close message")
		}
		return false
	}

	if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		c.logger.Error().Err(err).Msg("Error writing message")
		return false
	}

	return true
}

// writePingMessage sends a periodic WebSocket Ping to maintain the heartbeat.
// Returns false when the WritePump loop should terminate.
func (c *Client) writePingMessage() bool {
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		c.logger.Error().Err(err).Msg("Failed to set write deadline on ping")
		return false
	}

	if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
		c.logger.Debug().Err(err).Msg("Error writing ping")
		return false
	}

	return true
}

// trySend queues a frame for delivery without blocking the relay loop.
// Delivery is best effort: a client whose queue is full loses the frame.
func (c *Client) trySend(frame []byte) bool {
	select {
	case c.send <- frame:
		return true
	default:
		c.logger.Warn().Int("queue_len", len(c.send)).Msg("Client send channel full, dropping frame")
		return false
	}
}
