/*
Package handler provides the HTTP handlers and routing setup for the relay server.

This file contains the REST handlers the presentation layer polls for room
listings and server health.
*/
package handler

import (
	"net/http"

	"relaychat/internal/pkg/resp"
)

// HealthStatus is the payload served by GET /api/health.
type HealthStatus struct {
	Status string `json:"status"`
	Users  int    `json:"users"`
	Rooms  int    `json:"rooms"`
}

// HandleListRooms serves the full room registry as a bare JSON array.
func HandleListRooms(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp.RespondJSON(w, r, http.StatusOK, deps.Relay.RoomList())
	}
}

// HandleHealth reports process liveness with the active user and room counts.
func HandleHealth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		users, rooms := deps.Relay.Stats()

		resp.RespondJSON(w, r, http.StatusOK, HealthStatus{
			Status: "ok",
			Users:  users,
			Rooms:  rooms,
		})
	}
}
