package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestServerStore(t *testing.T) *ServerStore {
	t.Helper()
	st, err := OpenServer(filepath.Join(t.TempDir(), "server.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close: %v", err)
		}
	})
	return st
}

func TestUserLifecycle(t *testing.T) {
	st := openTestServerStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	u := User{ID: "u1", Username: "ada", Email: "ada@example.com", PasswordHash: "h", CreatedAt: now}
	if err := st.CreateUser(ctx, u); err != nil {
		t.Fatalf("create: %v", err)
	}

	taken, err := st.UsernameTaken(ctx, "ada")
	if err != nil {
		t.Fatalf("taken: %v", err)
	}
	if !taken {
		t.Fatalf("expected username to be taken")
	}
	taken, err = st.UsernameTaken(ctx, "lin")
	if err != nil {
		t.Fatalf("taken: %v", err)
	}
	if taken {
		t.Fatalf("expected username to be free")
	}

	got, err := st.UserByUsername(ctx, "ada")
	if err != nil {
		t.Fatalf("by username: %v", err)
	}
	if got.ID != "u1" || !got.CreatedAt.Equal(now) {
		t.Fatalf("unexpected user: %+v", got)
	}
	if _, err := st.UserByUsername(ctx, "nobody"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	if err := st.InsertToken(ctx, "tok1", "u1", now); err != nil {
		t.Fatalf("token: %v", err)
	}
	byToken, err := st.UserByToken(ctx, "tok1")
	if err != nil {
		t.Fatalf("by token: %v", err)
	}
	if byToken.Username != "ada" {
		t.Fatalf("unexpected user by token: %+v", byToken)
	}
	if _, err := st.UserByToken(ctx, "bogus"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLeaderboardAndProfile(t *testing.T) {
	st := openTestServerStore(t)
	ctx := context.Background()
	now := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for _, u := range []User{
		{ID: "u1", Username: "ada", Email: "a@x", PasswordHash: "h", CreatedAt: now},
		{ID: "u2", Username: "lin", Email: "l@x", PasswordHash: "h", CreatedAt: now},
	} {
		if err := st.CreateUser(ctx, u); err != nil {
			t.Fatalf("create %s: %v", u.Username, err)
		}
	}
	results := []RaceResult{
		{UserID: "u1", RoomCode: "AB12CD", WPM: 80, Accuracy: 96, Progress: 100, FinishedAt: now},
		{UserID: "u1", RoomCode: "AB12CD", WPM: 92, Accuracy: 98, Progress: 100, FinishedAt: now},
		{UserID: "u2", RoomCode: "AB12CD", WPM: 85, Accuracy: 99, Progress: 100, FinishedAt: now},
	}
	for i, r := range results {
		if err := st.InsertRaceResult(ctx, r); err != nil {
			t.Fatalf("result %d: %v", i, err)
		}
	}

	board, err := st.Leaderboard(ctx, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(board) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(board))
	}
	if board[0].Username != "ada" || board[0].BestWPM != 92 || board[0].Races != 2 {
		t.Fatalf("unexpected top entry: %+v", board[0])
	}
	if board[1].Username != "lin" || board[1].BestWPM != 85 {
		t.Fatalf("unexpected second entry: %+v", board[1])
	}

	profile, err := st.Profile(ctx, "u1")
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if profile.BestWPM != 92 || profile.Races != 2 || profile.Username != "ada" {
		t.Fatalf("unexpected profile: %+v", profile)
	}

	empty, err := st.Profile(ctx, "u2")
	if err != nil {
		t.Fatalf("profile u2: %v", err)
	}
	if empty.Races != 1 {
		t.Fatalf("unexpected profile: %+v", empty)
	}
}
