/*
Package handler provides the HTTP handlers and routing setup for the relay server.

This file contains the HandleWebSocket function, which rate limits connection
attempts, upgrades the HTTP connection to WebSocket, and starts the client
lifecycle. Joining a room happens afterwards, over the socket itself.
*/
package handler

import (
	"net"
	"net/http"

	"github.com/gorilla/websocket"

	"relaychat/internal/app/chat"
	"relaychat/internal/pkg/errs"
	"relaychat/internal/pkg/limiter"
	"relaychat/internal/pkg/logx"
	"relaychat/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc that upgrades connection requests
// and registers the resulting client with the relay.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}

		if ip == "" {
			ip = "unknown_ip"
		}

		if !rateLimiter.GetLimiter(ip).Allow() {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", ip)
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Relay, conn)

		go client.WritePump()

		logx.Info("WebSocket connection established", "conn_id", client.ID())

		deps.Relay.RegisterClient(client)

		client.ReadPump()
	}
}
