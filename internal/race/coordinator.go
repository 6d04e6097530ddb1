// Package race tracks the client-side view of a multiplayer race: the
// room roster, chat log, live opponent metrics, and the lobby-to-results
// lifecycle. The server is authoritative; applying its events never
// merges, it replaces.
package race

import (
	"time"

	"github.com/rapidkeys/rapidkeys/internal/model"
	"github.com/rapidkeys/rapidkeys/internal/protocol"
)

// Phase is the coordinator's lifecycle position.
type Phase int

// Coordinator phases.
const (
	PhaseConnecting Phase = iota
	PhaseLobby
	PhaseRacing
	PhaseFinished
)

// String returns a short name for the phase.
func (p Phase) String() string {
	switch p {
	case PhaseConnecting:
		return "connecting"
	case PhaseLobby:
		return "lobby"
	case PhaseRacing:
		return "racing"
	case PhaseFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// Coordinator folds server events into the local race view. It is a
// plain state machine; callers feed it events from a room connection
// and read the projected state. Not safe for concurrent use.
type Coordinator struct {
	phase      Phase
	selfID     string
	room       model.Room
	chat       []model.ChatMessage
	nextChatID int
	progress   map[string]model.Progress
	finished   map[string]bool
	words      []string
	seed       int64
	startAt    time.Time
}

// NewCoordinator returns a coordinator awaiting its room snapshot.
func NewCoordinator() *Coordinator {
	return &Coordinator{
		phase:      PhaseConnecting,
		nextChatID: 1,
		progress:   make(map[string]model.Progress),
		finished:   make(map[string]bool),
	}
}

// Apply folds one server event into the view.
func (c *Coordinator) Apply(ev protocol.ServerEvent) {
	switch ev := ev.(type) {
	case protocol.RoomJoined:
		c.selfID = ev.YourID
		c.room = ev.Room
		c.chat = c.chat[:0]
		for _, msg := range ev.Room.Messages {
			c.appendChat(msg)
		}
		c.phase = PhaseLobby
	case protocol.UserJoined:
		c.room.Users = ev.Users
	case protocol.UserLeft:
		c.room.Users = ev.Users
	case protocol.ChatBroadcast:
		c.appendChat(ev.Message)
	case protocol.RaceStarted:
		c.words = ev.Words
		c.seed = ev.Seed
		c.startAt = ev.StartTime
		c.room.RaceStarted = true
		c.progress = make(map[string]model.Progress)
		c.finished = make(map[string]bool)
		c.phase = PhaseRacing
	case protocol.ProgressUpdate:
		c.recordProgress(ev.UserID, model.Progress{
			Progress: ev.Progress,
			WPM:      ev.WPM,
			Accuracy: ev.Accuracy,
		})
	}
}

// appendChat stores a message under a locally assigned monotonic ID so
// the UI has a stable key even when the server sends none.
func (c *Coordinator) appendChat(msg model.ChatMessage) {
	msg.ID = c.nextChatID
	c.nextChatID++
	c.chat = append(c.chat, msg)
}

// recordProgress stores a participant's latest metrics. A finished
// participant's metrics are frozen; stale relays cannot regress them.
func (c *Coordinator) recordProgress(userID string, p model.Progress) {
	if c.finished[userID] {
		return
	}
	c.progress[userID] = p
	if p.Progress >= 100 {
		c.finished[userID] = true
	}
}

// RecordSelf stores the local player's metrics, keeping their standing
// in sync with what was reported to the server.
func (c *Coordinator) RecordSelf(p model.Progress) {
	c.recordProgress(c.selfID, p)
}

// FinishSelf freezes the local player's final metrics and moves the
// coordinator to the finished phase.
func (c *Coordinator) FinishSelf(final model.Progress) {
	c.progress[c.selfID] = final
	c.finished[c.selfID] = true
	c.phase = PhaseFinished
}

// Phase returns the current lifecycle position.
func (c *Coordinator) Phase() Phase { return c.phase }

// SelfID returns the server-assigned participant ID, empty until the
// room snapshot arrives.
func (c *Coordinator) SelfID() string { return c.selfID }

// Room returns the mirrored room state.
func (c *Coordinator) Room() model.Room { return c.room }

// IsHost reports whether the local player created the room.
func (c *Coordinator) IsHost() bool {
	return c.selfID != "" && c.selfID == c.room.CreatorID
}

// Chat returns the chat log in arrival order.
func (c *Coordinator) Chat() []model.ChatMessage { return c.chat }

// Words returns the shared race word sequence, nil before the start.
func (c *Coordinator) Words() []string { return c.words }

// Seed returns the server's extension seed for the race. Every
// participant extends the shared sequence from the same stream.
func (c *Coordinator) Seed() int64 { return c.seed }

// StartAt returns the server's race start instant.
func (c *Coordinator) StartAt() time.Time { return c.startAt }

// ProgressOf returns the latest metrics for a participant.
func (c *Coordinator) ProgressOf(userID string) (model.Progress, bool) {
	p, ok := c.progress[userID]
	return p, ok
}

// Standings merges the roster with live metrics, preserving roster
// order. Participants without a report yet show zero metrics.
func (c *Coordinator) Standings() []model.RoomUser {
	out := make([]model.RoomUser, len(c.room.Users))
	for i, u := range c.room.Users {
		if p, ok := c.progress[u.ID]; ok {
			u.Progress = p.Progress
			u.WPM = p.WPM
			u.Accuracy = p.Accuracy
		} else {
			u.Progress, u.WPM, u.Accuracy = 0, 0, 0
		}
		out[i] = u
	}
	return out
}

// Rankings computes the final ordering from the current standings.
func (c *Coordinator) Rankings() []model.RankedUser {
	return ComputeRankings(c.Standings())
}
