package tui

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rapidkeys/rapidkeys/internal/model"
	"github.com/rapidkeys/rapidkeys/internal/session"
	"github.com/rapidkeys/rapidkeys/internal/store"
	"github.com/rapidkeys/rapidkeys/internal/words"
)

func newTestPractice(t *testing.T, cfg model.Config) *Practice {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "rapidkeys.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		if err := st.Close(); err != nil {
			t.Errorf("close store: %v", err)
		}
	})
	return NewPractice(cfg, st, words.NewSeeded(1), words.Common)
}

func TestPracticeBuildsSessionForMode(t *testing.T) {
	p := newTestPractice(t, model.Config{Mode: model.ModeWords, Words: 10})
	if got := len(p.sess.Words()); got != 10 {
		t.Fatalf("expected 10 words, got %d", got)
	}

	timed := newTestPractice(t, model.Config{Mode: model.ModeTime, Seconds: 30})
	if got := len(timed.sess.Words()); got != words.TimeModeInitial {
		t.Fatalf("expected %d words, got %d", words.TimeModeInitial, got)
	}
}

func TestPracticeCompletionSavesSession(t *testing.T) {
	p := newTestPractice(t, model.Config{Mode: model.ModeWords, Words: 10})
	for i, w := range p.sess.Words() {
		for _, r := range w {
			p.applyKey(session.Key{Kind: session.KeyRune, Rune: r})
		}
		if i < 9 {
			p.applyKey(session.Key{Kind: session.KeySpace})
		}
	}
	if p.sess.State() != session.StateCompleted {
		t.Fatalf("expected completed session, got %v", p.sess.State())
	}
	if !p.saved {
		t.Fatalf("expected completion to save the session")
	}

	sessions, err := p.store.ListSessions(context.Background(), model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(sessions) != 1 {
		t.Fatalf("expected 1 saved session, got %d", len(sessions))
	}
	if sessions[0].Incorrect != 0 {
		t.Fatalf("expected clean run, got %d incorrect", sessions[0].Incorrect)
	}
	if !p.hasLast || p.lastAcc != 100 {
		t.Fatalf("expected footer stats updated: hasLast=%v acc=%d", p.hasLast, p.lastAcc)
	}
}

func TestPracticeFooterSegments(t *testing.T) {
	p := newTestPractice(t, model.Config{Mode: model.ModeWords, Words: 10})
	typeRunes(p.sess, "x")

	out := p.renderFooter()
	if !strings.Contains(out, "Progress") || !strings.Contains(out, "Now") {
		t.Fatalf("footer missing segments: %s", out)
	}
}
