package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/rapidkeys/rapidkeys/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "rapidkeys.db"))
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

func TestInsertAndListSessions(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		mode := model.ModeWords
		if i == 2 {
			mode = model.ModeTime
		}
		_, err := st.InsertSession(ctx, model.SessionStats{
			StartedAt:      base.Add(time.Duration(i) * time.Hour),
			EndedAt:        base.Add(time.Duration(i)*time.Hour + time.Minute),
			Mode:           mode,
			Target:         25,
			CorrectChars:   100 + i,
			IncorrectChars: i,
			WordsTyped:     25,
			DurationMs:     60000,
		})
		if err != nil {
			t.Fatalf("insert %d: %v", i, err)
		}
	}

	all, err := st.ListSessions(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 sessions, got %d", len(all))
	}
	if !all[0].EndedAt.Before(all[2].EndedAt) {
		t.Fatalf("expected ascending order: %v", all)
	}

	wordsOnly, err := st.ListSessions(ctx, model.StatsConfig{Mode: model.ModeWords})
	if err != nil {
		t.Fatalf("list words: %v", err)
	}
	if len(wordsOnly) != 2 {
		t.Fatalf("expected 2 words-mode sessions, got %d", len(wordsOnly))
	}

	since := base.Add(90 * time.Minute)
	recent, err := st.ListSessions(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list since: %v", err)
	}
	if len(recent) != 1 {
		t.Fatalf("expected 1 recent session, got %d", len(recent))
	}
}
