package race

import (
	"testing"
	"time"

	"github.com/rapidkeys/rapidkeys/internal/model"
	"github.com/rapidkeys/rapidkeys/internal/protocol"
)

func joinedEvent() protocol.RoomJoined {
	return protocol.RoomJoined{
		Type:   protocol.TypeRoomJoined,
		YourID: "u1",
		Room: model.Room{
			Code:      "AB12CD",
			CreatorID: "u1",
			Settings:  model.Settings{Mode: model.ModeWords, Value: 25},
			Users: []model.RoomUser{
				{ID: "u1", Username: "ada", IsHost: true},
				{ID: "u2", Username: "lin"},
			},
			Messages: []model.ChatMessage{
				{UserID: "u2", Username: "lin", Text: "hey"},
			},
		},
	}
}

func TestCoordinatorJoinReplacesState(t *testing.T) {
	c := NewCoordinator()
	if c.Phase() != PhaseConnecting {
		t.Fatalf("expected connecting phase, got %v", c.Phase())
	}
	c.Apply(joinedEvent())
	if c.Phase() != PhaseLobby {
		t.Fatalf("expected lobby phase, got %v", c.Phase())
	}
	if c.SelfID() != "u1" || !c.IsHost() {
		t.Fatalf("expected to be host u1, got %q host=%v", c.SelfID(), c.IsHost())
	}
	if got := c.Room().Code; got != "AB12CD" {
		t.Fatalf("unexpected room code %q", got)
	}
	chat := c.Chat()
	if len(chat) != 1 || chat[0].Text != "hey" || chat[0].ID != 1 {
		t.Fatalf("unexpected chat history: %+v", chat)
	}
}

func TestCoordinatorRosterReplacedWholesale(t *testing.T) {
	c := NewCoordinator()
	c.Apply(joinedEvent())
	c.Apply(protocol.UserJoined{
		Type: protocol.TypeUserJoined,
		User: model.RoomUser{ID: "u3", Username: "kit"},
		Users: []model.RoomUser{
			{ID: "u1", Username: "ada", IsHost: true},
			{ID: "u2", Username: "lin"},
			{ID: "u3", Username: "kit"},
		},
	})
	if got := len(c.Room().Users); got != 3 {
		t.Fatalf("expected roster of 3, got %d", got)
	}
	c.Apply(protocol.UserLeft{
		Type:   protocol.TypeUserLeft,
		UserID: "u2",
		Users: []model.RoomUser{
			{ID: "u1", Username: "ada", IsHost: true},
			{ID: "u3", Username: "kit"},
		},
	})
	users := c.Room().Users
	if len(users) != 2 || users[1].ID != "u3" {
		t.Fatalf("unexpected roster after leave: %+v", users)
	}
}

func TestCoordinatorChatIDsAreMonotonic(t *testing.T) {
	c := NewCoordinator()
	c.Apply(joinedEvent())
	c.Apply(protocol.ChatBroadcast{
		Type:    protocol.TypeChatMessage,
		Message: model.ChatMessage{UserID: "u1", Username: "ada", Text: "ready?"},
	})
	c.Apply(protocol.ChatBroadcast{
		Type:    protocol.TypeChatMessage,
		Message: model.ChatMessage{UserID: "u2", Username: "lin", Text: "go"},
	})
	chat := c.Chat()
	if len(chat) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(chat))
	}
	for i, msg := range chat {
		if msg.ID != i+1 {
			t.Fatalf("expected ID %d at position %d, got %d", i+1, i, msg.ID)
		}
	}
}

func TestCoordinatorRaceStartIsServerDriven(t *testing.T) {
	c := NewCoordinator()
	c.Apply(joinedEvent())

	// Sending start_race does not flip the phase; only the broadcast does.
	if c.Phase() != PhaseLobby {
		t.Fatalf("expected lobby phase, got %v", c.Phase())
	}
	start := time.Date(2025, 1, 2, 15, 4, 5, 0, time.UTC)
	c.Apply(protocol.RaceStarted{
		Type:      protocol.TypeRaceStarted,
		Words:     []string{"cat", "dog", "sun"},
		Seed:      99,
		StartTime: start,
	})
	if c.Phase() != PhaseRacing {
		t.Fatalf("expected racing phase, got %v", c.Phase())
	}
	if len(c.Words()) != 3 || !c.StartAt().Equal(start) {
		t.Fatalf("unexpected race parameters: %v at %v", c.Words(), c.StartAt())
	}
	if c.Seed() != 99 {
		t.Fatalf("expected extension seed 99, got %d", c.Seed())
	}
}

func TestCoordinatorProgressLastWriteWins(t *testing.T) {
	c := NewCoordinator()
	c.Apply(joinedEvent())
	c.Apply(protocol.RaceStarted{Type: protocol.TypeRaceStarted, Words: []string{"cat"}})

	c.Apply(protocol.ProgressUpdate{Type: protocol.TypeUserProgress, UserID: "u2", Progress: 20, WPM: 60, Accuracy: 95})
	c.Apply(protocol.ProgressUpdate{Type: protocol.TypeUserProgress, UserID: "u2", Progress: 44, WPM: 72, Accuracy: 97})

	p, ok := c.ProgressOf("u2")
	if !ok || p.Progress != 44 || p.WPM != 72 {
		t.Fatalf("unexpected progress: %+v ok=%v", p, ok)
	}
}

func TestCoordinatorProgressFrozenAfterFinish(t *testing.T) {
	c := NewCoordinator()
	c.Apply(joinedEvent())
	c.Apply(protocol.RaceStarted{Type: protocol.TypeRaceStarted, Words: []string{"cat"}})

	c.Apply(protocol.ProgressUpdate{Type: protocol.TypeUserProgress, UserID: "u2", Progress: 100, WPM: 90, Accuracy: 98})
	c.Apply(protocol.ProgressUpdate{Type: protocol.TypeUserProgress, UserID: "u2", Progress: 80, WPM: 10, Accuracy: 50})

	p, _ := c.ProgressOf("u2")
	if p.Progress != 100 || p.WPM != 90 {
		t.Fatalf("finished metrics should be frozen, got %+v", p)
	}
}

func TestCoordinatorFinishSelf(t *testing.T) {
	c := NewCoordinator()
	c.Apply(joinedEvent())
	c.Apply(protocol.RaceStarted{Type: protocol.TypeRaceStarted, Words: []string{"cat"}})

	c.RecordSelf(model.Progress{Progress: 50, WPM: 80, Accuracy: 99})
	c.FinishSelf(model.Progress{Progress: 100, WPM: 84, Accuracy: 99})
	if c.Phase() != PhaseFinished {
		t.Fatalf("expected finished phase, got %v", c.Phase())
	}
	p, _ := c.ProgressOf("u1")
	if p.WPM != 84 || p.Progress != 100 {
		t.Fatalf("unexpected final metrics: %+v", p)
	}
	c.RecordSelf(model.Progress{Progress: 100, WPM: 1, Accuracy: 1})
	p, _ = c.ProgressOf("u1")
	if p.WPM != 84 {
		t.Fatalf("final metrics should be frozen, got %+v", p)
	}
}

func TestStandingsPreserveRosterOrder(t *testing.T) {
	c := NewCoordinator()
	c.Apply(joinedEvent())
	c.Apply(protocol.RaceStarted{Type: protocol.TypeRaceStarted, Words: []string{"cat"}})
	c.Apply(protocol.ProgressUpdate{Type: protocol.TypeUserProgress, UserID: "u2", Progress: 30, WPM: 65, Accuracy: 94})

	standings := c.Standings()
	if len(standings) != 2 {
		t.Fatalf("expected 2 standings, got %d", len(standings))
	}
	if standings[0].ID != "u1" || standings[0].Progress != 0 {
		t.Fatalf("unexpected first standing: %+v", standings[0])
	}
	if standings[1].ID != "u2" || standings[1].WPM != 65 {
		t.Fatalf("unexpected second standing: %+v", standings[1])
	}
}

func TestComputeRankings(t *testing.T) {
	standings := []model.RoomUser{
		{ID: "a", Username: "ann", Progress: 100, WPM: 50},
		{ID: "b", Username: "ben", Progress: 100, WPM: 80},
		{ID: "c", Username: "cal", Progress: 40, WPM: 200},
	}
	ranked := ComputeRankings(standings)
	wantWPM := []int{80, 50, 200}
	for i, want := range wantWPM {
		if ranked[i].WPM != want {
			t.Fatalf("rank %d: got wpm %d, want %d", i, ranked[i].WPM, want)
		}
	}
	// Ties on both keys keep roster order.
	tied := []model.RoomUser{
		{ID: "x", Progress: 50, WPM: 60},
		{ID: "y", Progress: 50, WPM: 60},
	}
	rankedTied := ComputeRankings(tied)
	if rankedTied[0].UserID != "x" || rankedTied[1].UserID != "y" {
		t.Fatalf("tie should keep roster order: %+v", rankedTied)
	}
	// Re-ranking the same input is stable.
	again := ComputeRankings(standings)
	for i := range ranked {
		if again[i] != ranked[i] {
			t.Fatalf("ranking not idempotent at %d: %+v vs %+v", i, again[i], ranked[i])
		}
	}
	if standings[0].ID != "a" {
		t.Fatalf("input slice was reordered")
	}
}
