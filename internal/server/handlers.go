package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/rapidkeys/rapidkeys/internal/auth"
	"github.com/rapidkeys/rapidkeys/internal/model"
	"github.com/rapidkeys/rapidkeys/internal/store"
)

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("encode response: %v", err)
	}
}

func respondError(w http.ResponseWriter, status int, detail string) {
	respondJSON(w, status, map[string]string{"detail": detail})
}

// bearerToken extracts the token from the Authorization header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if after, ok := strings.CutPrefix(h, "Bearer "); ok {
		return after
	}
	return ""
}

// authenticate resolves the request's bearer token to an account.
func (s *Server) authenticate(r *http.Request) (store.User, error) {
	token := bearerToken(r)
	if token == "" {
		return store.User{}, store.ErrNotFound
	}
	return s.store.UserByToken(r.Context(), token)
}

type credentials struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token    string `json:"token"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if creds.Username == "" || creds.Password == "" {
		respondError(w, http.StatusBadRequest, "username and password are required")
		return
	}
	taken, err := s.store.UsernameTaken(r.Context(), creds.Username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if taken {
		respondError(w, http.StatusConflict, "username already taken")
		return
	}
	hash, err := auth.HashPassword(creds.Password)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	user := store.User{
		ID:           uuid.NewString(),
		Username:     creds.Username,
		Email:        creds.Email,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.store.CreateUser(r.Context(), user); err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	token, err := s.issueToken(r, user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, tokenResponse{Token: token, UserID: user.ID, Username: user.Username})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := s.store.UserByUsername(r.Context(), creds.Username)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	ok, err := auth.VerifyPassword(creds.Password, user.PasswordHash)
	if err != nil || !ok {
		respondError(w, http.StatusUnauthorized, "invalid username or password")
		return
	}
	token, err := s.issueToken(r, user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, tokenResponse{Token: token, UserID: user.ID, Username: user.Username})
}

func (s *Server) issueToken(r *http.Request, userID string) (string, error) {
	token, err := auth.NewToken()
	if err != nil {
		return "", err
	}
	if err := s.store.InsertToken(r.Context(), token, userID, time.Now().UTC()); err != nil {
		return "", err
	}
	return token, nil
}

func (s *Server) handleUsernameCheck(w http.ResponseWriter, r *http.Request) {
	username := r.URL.Query().Get("username")
	if username == "" {
		respondError(w, http.StatusBadRequest, "username is required")
		return
	}
	taken, err := s.store.UsernameTaken(r.Context(), username)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]bool{"available": !taken})
}

type createRoomRequest struct {
	Settings model.Settings `json:"settings"`
}

func (s *Server) handleCreateRoom(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	var req createRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if !req.Settings.Mode.ValidValue(req.Settings.Value) {
		respondError(w, http.StatusBadRequest, "invalid race settings")
		return
	}
	code, err := s.registry.Create(req.Settings, user.ID)
	if errors.Is(err, ErrTooManyRooms) {
		respondError(w, http.StatusServiceUnavailable, "too many active rooms")
		return
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusCreated, map[string]string{"code": code})
}

func (s *Server) handleGetRoom(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	rm, ok := s.registry.Get(code)
	if !ok {
		respondError(w, http.StatusNotFound, "Room not found")
		return
	}
	rm.mu.Lock()
	snapshot := rm.snapshotLocked()
	rm.mu.Unlock()
	respondJSON(w, http.StatusOK, snapshot)
}

func (s *Server) handleActiveRooms(w http.ResponseWriter, r *http.Request) {
	rooms := s.registry.ActiveRooms()
	if rooms == nil {
		rooms = []model.RoomSummary{}
	}
	respondJSON(w, http.StatusOK, rooms)
}

func (s *Server) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit := 10
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			limit = n
		}
	}
	entries, err := s.store.Leaderboard(r.Context(), limit)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if entries == nil {
		entries = []model.LeaderboardEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	profile, err := s.store.Profile(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

type updateProfileRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.authenticate(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "email is required")
		return
	}
	if err := s.store.UpdateUserEmail(r.Context(), user.ID, req.Email); err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	profile, err := s.store.Profile(r.Context(), user.ID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}
