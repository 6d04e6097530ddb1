package server

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/rapidkeys/rapidkeys/internal/model"
	"github.com/rapidkeys/rapidkeys/internal/protocol"
	"github.com/rapidkeys/rapidkeys/internal/store"
)

var upgrader = websocket.Upgrader{
	// Browser clients connect from arbitrary origins.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// reject closes a freshly upgraded connection with the policy-violation
// code and a reason string the client matches exactly.
func reject(ws *websocket.Conn, reason string) {
	msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason)
	deadline := time.Now().Add(time.Second)
	if err := ws.WriteControl(websocket.CloseMessage, msg, deadline); err != nil {
		log.Printf("reject close: %v", err)
	}
	if err := ws.Close(); err != nil {
		// Best-effort close.
		_ = err
	}
}

// handleRoomSocket upgrades a join request, validates it, and runs the
// connection's read pump until the client leaves.
func (s *Server) handleRoomSocket(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("upgrade: %v", err)
		return
	}

	token := r.URL.Query().Get("token")
	user, err := s.store.UserByToken(r.Context(), token)
	if err != nil {
		reject(ws, protocol.ReasonInvalidToken)
		return
	}

	rm, ok := s.registry.Get(code)
	if !ok {
		reject(ws, protocol.ReasonRoomNotFound)
		return
	}

	c := &client{
		conn: ws,
		user: model.RoomUser{
			ID:       user.ID,
			Username: user.Username,
			IsHost:   user.ID == rm.creatorID,
		},
	}

	rm.mu.Lock()
	if rm.raceStarted {
		rm.mu.Unlock()
		reject(ws, protocol.ReasonRaceInProgress)
		return
	}
	for _, existing := range rm.clients {
		if existing.user.ID == user.ID {
			rm.mu.Unlock()
			reject(ws, protocol.ReasonAlreadyInRoom)
			return
		}
	}
	rm.clients = append(rm.clients, c)
	snapshot := rm.snapshotLocked()
	roster := rm.rosterLocked()
	rm.mu.Unlock()

	c.send(protocol.RoomJoined{Type: protocol.TypeRoomJoined, Room: snapshot, YourID: user.ID})
	rm.broadcast(protocol.UserJoined{
		Type:  protocol.TypeUserJoined,
		User:  c.user,
		Users: roster,
	}, user.ID)
	log.Printf("%s joined room %s", user.Username, code)

	s.readPump(rm, c)
}

// readPump processes one client's inbound commands until the connection
// drops, then removes the client from the room.
func (s *Server) readPump(rm *room, c *client) {
	defer s.leave(rm, c)
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			return
		}
		cmd, err := protocol.DecodeClientCommand(data)
		if err != nil {
			log.Printf("dropping malformed frame from %s: %v", c.user.Username, err)
			continue
		}
		switch cmd := cmd.(type) {
		case protocol.ChatCommand:
			s.handleChat(rm, c, cmd)
		case protocol.StartRaceCommand:
			s.handleStartRace(rm, c)
		case protocol.ProgressCommand:
			s.handleProgress(rm, c, cmd)
		case protocol.NotificationCommand:
			rm.broadcast(protocol.NotificationEvent{
				Type:    protocol.TypeNotification,
				UserID:  c.user.ID,
				Payload: cmd.Payload,
			}, c.user.ID)
		default:
			log.Printf("ignoring %T from %s", cmd, c.user.Username)
		}
	}
}

func (s *Server) handleChat(rm *room, c *client, cmd protocol.ChatCommand) {
	at := cmd.Timestamp
	if at.IsZero() {
		at = time.Now().UTC()
	}
	msg := model.ChatMessage{
		UserID:    c.user.ID,
		Username:  c.user.Username,
		Text:      cmd.Message,
		Timestamp: at,
	}
	rm.mu.Lock()
	rm.messages = append(rm.messages, msg)
	rm.mu.Unlock()
	rm.broadcast(protocol.ChatBroadcast{Type: protocol.TypeChatMessage, Message: msg}, "")
}

// handleStartRace starts the race when the room's creator asks for it.
// Anyone else's request is ignored.
func (s *Server) handleStartRace(rm *room, c *client) {
	if c.user.ID != rm.creatorID {
		log.Printf("ignoring start_race from non-host %s in room %s", c.user.Username, rm.code)
		return
	}
	rm.mu.Lock()
	if rm.raceStarted {
		rm.mu.Unlock()
		return
	}
	raceWords, err := s.generator.Race(rm.settings)
	if err != nil {
		rm.mu.Unlock()
		log.Printf("failed to generate race words for room %s: %v", rm.code, err)
		return
	}
	// Time-mode clients extend past the initial sequence locally. The
	// shared seed keeps every racer's extension stream identical.
	seed := time.Now().UnixNano()
	start := time.Now().UTC().Add(time.Duration(s.countdownSecs) * time.Second)
	rm.raceStarted = true
	rm.startedAt = &start
	rm.words = raceWords
	rm.finished = make(map[string]bool)
	rm.mu.Unlock()

	rm.broadcast(protocol.RaceStarted{
		Type:      protocol.TypeRaceStarted,
		Words:     raceWords,
		Seed:      seed,
		StartTime: start,
	}, "")
	log.Printf("race started in room %s (%d words)", rm.code, len(raceWords))
}

// handleProgress relays a progress report to the rest of the room and
// records the race result the first time a participant reaches 100%.
func (s *Server) handleProgress(rm *room, c *client, cmd protocol.ProgressCommand) {
	rm.mu.Lock()
	c.user.Progress = cmd.Progress
	c.user.WPM = cmd.WPM
	c.user.Accuracy = cmd.Accuracy
	record := cmd.Progress >= 100 && !rm.finished[c.user.ID]
	if record {
		rm.finished[c.user.ID] = true
	}
	rm.mu.Unlock()

	rm.broadcast(protocol.ProgressUpdate{
		Type:     protocol.TypeUserProgress,
		UserID:   c.user.ID,
		Progress: cmd.Progress,
		WPM:      cmd.WPM,
		Accuracy: cmd.Accuracy,
	}, c.user.ID)

	if record {
		result := store.RaceResult{
			UserID:     c.user.ID,
			RoomCode:   rm.code,
			WPM:        cmd.WPM,
			Accuracy:   cmd.Accuracy,
			Progress:   cmd.Progress,
			FinishedAt: time.Now().UTC(),
		}
		if err := s.store.InsertRaceResult(context.Background(), result); err != nil {
			log.Printf("failed to record race result for %s: %v", c.user.Username, err)
		}
	}
}

// leave removes a departed client, notifies the room, and tears the
// room down once it empties.
func (s *Server) leave(rm *room, c *client) {
	rm.mu.Lock()
	for i, existing := range rm.clients {
		if existing == c {
			rm.clients = append(rm.clients[:i], rm.clients[i+1:]...)
			break
		}
	}
	empty := len(rm.clients) == 0
	roster := rm.rosterLocked()
	rm.mu.Unlock()

	if err := c.conn.Close(); err != nil {
		// Best-effort close.
		_ = err
	}
	log.Printf("%s left room %s", c.user.Username, rm.code)

	if empty {
		s.registry.Remove(rm.code)
		return
	}
	rm.broadcast(protocol.UserLeft{
		Type:     protocol.TypeUserLeft,
		UserID:   c.user.ID,
		Username: c.user.Username,
		Users:    roster,
	}, "")
}
