/*
Package handler provides the HTTP handlers and routing setup for the relay server.

This file defines the main Router, applying middleware like logging, CORS,
and IP-based connection rate limiting before delegating requests to the REST
handlers, the WebSocket upgrader, and the static file server.
*/
package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"relaychat/internal/pkg/limiter"
	"relaychat/internal/pkg/logx"
)

const (
	// ConnectRate and ConnectBurst bound how fast one IP may open WebSocket connections.
	ConnectRate  = 0.2
	ConnectBurst = 5
)

// Router sets up the HTTP routing table (chi.Router) for the application.
// It initializes the connection rate limiter, configures CORS, and applies
// global middleware before mounting the API, WebSocket, and static routes.
func Router(deps *AppDeps) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(rate.Limit(ConnectRate), ConnectBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	var wsUpgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.Environment == "development" {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := []string{}
	if deps.Config.Environment == "development" {
		corsAllowedOrigins = []string{"*"}
	} else if len(deps.Config.AllowedOrigins) > 0 {
		corsAllowedOrigins = deps.Config.AllowedOrigins
	}

	c := cors.New(cors.Options{
		AllowedOrigins:   corsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{},
		AllowCredentials: true,
		MaxAge:           300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger())
	r.Use(middleware.Recoverer)

	r.Route("/api", func(api chi.Router) {
		api.Get("/rooms", HandleListRooms(deps))
		api.Get("/health", HandleHealth(deps))
	})

	r.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

	fileServer := http.FileServer(http.Dir(deps.Config.StaticDir))
	r.Handle("/*", fileServer)

	return r
}
