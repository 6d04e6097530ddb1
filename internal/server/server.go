// Package server implements the RapidKeys race service: account and
// room management over REST, plus the websocket room protocol.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/rapidkeys/rapidkeys/internal/store"
	"github.com/rapidkeys/rapidkeys/internal/words"
)

// Server wires the room registry, account store and word generator
// behind the HTTP API.
type Server struct {
	store         *store.ServerStore
	registry      *Registry
	generator     *words.Generator
	countdownSecs int
}

// New builds a server around an opened store.
func New(st *store.ServerStore, cfg Config) *Server {
	return &Server{
		store:         st,
		registry:      NewRegistry(cfg.MaxRooms),
		generator:     words.New(),
		countdownSecs: cfg.CountdownSecs,
	}
}

// Handler builds the HTTP routing tree.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignup)
		r.Post("/auth/login", s.handleLogin)
		r.Get("/auth/username-check", s.handleUsernameCheck)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/profile", s.handleProfile)
		r.Put("/profile", s.handleUpdateProfile)
		r.Route("/multiplayer", func(r chi.Router) {
			r.Post("/create-room", s.handleCreateRoom)
			r.Get("/room/{code}", s.handleGetRoom)
			r.Get("/active-rooms", s.handleActiveRooms)
			r.Get("/ws/{code}", s.handleRoomSocket)
		})
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return r
}

// ListenAndServe runs the service until the listener fails.
func (s *Server) ListenAndServe(port string) error {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return srv.ListenAndServe()
}
