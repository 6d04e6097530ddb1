package server

import (
	"crypto/rand"
	"errors"
	"log"
	"math/big"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rapidkeys/rapidkeys/internal/model"
)

const roomCodeLen = 6

var roomCodeChars = []rune("ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789")

// ErrTooManyRooms is returned when the registry is at capacity.
var ErrTooManyRooms = errors.New("too many active rooms")

// client is one connected room participant.
type client struct {
	conn    *websocket.Conn
	user    model.RoomUser
	writeMu sync.Mutex
}

// send writes one payload to the client. Write failures are logged; the
// read pump notices the dead connection and removes the client.
func (c *client) send(v any) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.WriteJSON(v); err != nil {
		log.Printf("send to %s: %v", c.user.Username, err)
	}
}

// room is the server-side state of one race room. All fields behind mu;
// clients are kept in join order, which is also the broadcast roster
// order.
type room struct {
	code      string
	settings  model.Settings
	creatorID string
	createdAt time.Time

	mu          sync.Mutex
	clients     []*client
	messages    []model.ChatMessage
	raceStarted bool
	startedAt   *time.Time
	words       []string
	finished    map[string]bool
}

// snapshotLocked builds the wire representation of the room. Callers
// must hold mu.
func (rm *room) snapshotLocked() model.Room {
	users := make([]model.RoomUser, len(rm.clients))
	for i, c := range rm.clients {
		users[i] = c.user
	}
	messages := make([]model.ChatMessage, len(rm.messages))
	copy(messages, rm.messages)
	return model.Room{
		Code:        rm.code,
		Settings:    rm.settings,
		CreatorID:   rm.creatorID,
		Users:       users,
		Messages:    messages,
		RaceStarted: rm.raceStarted,
		StartedAt:   rm.startedAt,
		Words:       rm.words,
	}
}

// rosterLocked returns the current roster. Callers must hold mu.
func (rm *room) rosterLocked() []model.RoomUser {
	users := make([]model.RoomUser, len(rm.clients))
	for i, c := range rm.clients {
		users[i] = c.user
	}
	return users
}

// broadcast sends a payload to every client, optionally excluding one
// user. The client list is copied under mu so slow writers do not hold
// the room lock.
func (rm *room) broadcast(v any, exceptUserID string) {
	rm.mu.Lock()
	targets := make([]*client, 0, len(rm.clients))
	for _, c := range rm.clients {
		if c.user.ID != exceptUserID {
			targets = append(targets, c)
		}
	}
	rm.mu.Unlock()
	for _, c := range targets {
		c.send(v)
	}
}

// Registry tracks all active rooms.
type Registry struct {
	mu       sync.RWMutex
	rooms    map[string]*room
	maxRooms int
}

// NewRegistry creates an empty registry bounded at maxRooms.
func NewRegistry(maxRooms int) *Registry {
	return &Registry{
		rooms:    make(map[string]*room),
		maxRooms: maxRooms,
	}
}

// Create allocates a room with a fresh code.
func (r *Registry) Create(settings model.Settings, creatorID string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.maxRooms > 0 && len(r.rooms) >= r.maxRooms {
		return "", ErrTooManyRooms
	}
	var code string
	for {
		var err error
		code, err = newRoomCode()
		if err != nil {
			return "", err
		}
		if _, taken := r.rooms[code]; !taken {
			break
		}
	}
	r.rooms[code] = &room{
		code:      code,
		settings:  settings,
		creatorID: creatorID,
		createdAt: time.Now(),
		finished:  make(map[string]bool),
	}
	log.Printf("room %s created (%s %d)", code, settings.Mode, settings.Value)
	return code, nil
}

// Get looks a room up by code.
func (r *Registry) Get(code string) (*room, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rm, ok := r.rooms[code]
	return rm, ok
}

// Remove deletes a room.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.rooms, code)
	log.Printf("room %s removed", code)
}

// ActiveRooms lists all rooms for the lobby browser.
func (r *Registry) ActiveRooms() []model.RoomSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.RoomSummary, 0, len(r.rooms))
	for _, rm := range r.rooms {
		rm.mu.Lock()
		out = append(out, model.RoomSummary{
			Code:        rm.code,
			UserCount:   len(rm.clients),
			RaceStarted: rm.raceStarted,
			CreatedAt:   rm.createdAt,
			Settings:    rm.settings,
		})
		rm.mu.Unlock()
	}
	return out
}

func newRoomCode() (string, error) {
	code := make([]rune, roomCodeLen)
	for i := range code {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(roomCodeChars))))
		if err != nil {
			return "", err
		}
		code[i] = roomCodeChars[n.Int64()]
	}
	return string(code), nil
}
