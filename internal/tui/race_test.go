package tui

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rapidkeys/rapidkeys/internal/model"
	"github.com/rapidkeys/rapidkeys/internal/protocol"
	"github.com/rapidkeys/rapidkeys/internal/race"
	"github.com/rapidkeys/rapidkeys/internal/room"
	"github.com/rapidkeys/rapidkeys/internal/session"
	"github.com/rapidkeys/rapidkeys/internal/words"
)

// dialSinkRoom connects to a websocket endpoint that accepts the upgrade
// and discards every frame, so outbound sends have somewhere to go.
func dialSinkRoom(t *testing.T) *room.Conn {
	t.Helper()
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	t.Cleanup(srv.Close)
	conn, err := room.Connect(context.Background(), srv.URL, "AB12CD", "token")
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(conn.Close)
	return conn
}

// startTimedRace feeds the race screen a joined room and a race start for
// a timed race, then begins the local session.
func startTimedRace(r *Race, seconds int, shared []string, seed int64) {
	r.coord.Apply(protocol.RoomJoined{
		Type: protocol.TypeRoomJoined,
		Room: model.Room{
			Code:      "AB12CD",
			Settings:  model.Settings{Mode: model.ModeTime, Value: seconds},
			CreatorID: "u1",
			Users:     []model.RoomUser{{ID: "u1", Username: "ada", IsHost: true}},
		},
		YourID: "u1",
	})
	r.coord.Apply(protocol.RaceStarted{
		Type:      protocol.TypeRaceStarted,
		Words:     shared,
		Seed:      seed,
		StartTime: time.Now(),
	})
	r.beginRace()
}

func typeWholeWords(s *session.Session, count int) {
	for i := 0; i < count; i++ {
		for _, r := range s.Words()[i] {
			s.ApplyKey(session.Key{Kind: session.KeyRune, Rune: r})
		}
		s.ApplyKey(session.Key{Kind: session.KeySpace})
	}
}

func TestTimedRacersExtendIntoIdenticalWords(t *testing.T) {
	shared := words.NewSeeded(7).Pick(words.Common, words.TimeModeInitial)
	const seed = 42

	a := NewRace(nil)
	b := NewRace(nil)
	startTimedRace(a, 100, shared, seed)
	startTimedRace(b, 100, shared, seed)
	a.sess.StartAt(time.Now())
	b.sess.StartAt(time.Now())

	// Far enough past the initial sequence that both sessions extend.
	typeWholeWords(a.sess, 135)
	typeWholeWords(b.sess, 135)

	aw, bw := a.sess.Words(), b.sess.Words()
	if len(aw) <= words.TimeModeInitial {
		t.Fatalf("expected sequence to extend past %d words, got %d", words.TimeModeInitial, len(aw))
	}
	if len(aw) != len(bw) {
		t.Fatalf("sequence lengths diverge: %d vs %d", len(aw), len(bw))
	}
	for i := range aw {
		if aw[i] != bw[i] {
			t.Fatalf("word %d diverges between racers: %q vs %q", i, aw[i], bw[i])
		}
	}
}

func TestDeadlineTickCompletesTimedRace(t *testing.T) {
	shared := words.NewSeeded(7).Pick(words.Common, words.TimeModeInitial)
	r := NewRace(dialSinkRoom(t))
	startTimedRace(r, 15, shared, 42)
	r.sess.StartAt(time.Now().Add(-16 * time.Second))

	if _, _ = r.Update(deadlineTickMsg(time.Now())); !r.finalized {
		t.Fatalf("expected deadline tick to finalize the race")
	}
	if got := r.coord.Phase(); got != race.PhaseFinished {
		t.Fatalf("expected finished phase, got %s", got)
	}
}

func TestDeadlineTickKeepsRunningRaceAlive(t *testing.T) {
	shared := words.NewSeeded(7).Pick(words.Common, words.TimeModeInitial)
	r := NewRace(dialSinkRoom(t))
	startTimedRace(r, 15, shared, 42)
	r.sess.StartAt(time.Now())
	typeRunes(r.sess, "the ")

	if _, _ = r.Update(deadlineTickMsg(time.Now())); r.finalized {
		t.Fatalf("expected race to keep running before the deadline")
	}
	if got := r.sess.State(); got != session.StateRunning {
		t.Fatalf("expected running session, got %v", got)
	}
}
