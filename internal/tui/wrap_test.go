package tui

import (
	"testing"

	"github.com/rapidkeys/rapidkeys/internal/model"
	"github.com/rapidkeys/rapidkeys/internal/session"
)

func newTestSession(t *testing.T, words []string) *session.Session {
	t.Helper()
	return session.New(model.Settings{Mode: model.ModeWords, Value: len(words)}, words, session.Options{})
}

func typeRunes(s *session.Session, text string) {
	for _, r := range text {
		if r == ' ' {
			s.ApplyKey(session.Key{Kind: session.KeySpace})
			continue
		}
		s.ApplyKey(session.Key{Kind: session.KeyRune, Rune: r})
	}
}

func TestBuildStyledWordsCursorOnNextChar(t *testing.T) {
	s := newTestSession(t, []string{"ab"})
	typeRunes(s, "a")

	styled := buildStyledWords(s.WordViews(0, 1))
	if len(styled) != 2 {
		t.Fatalf("expected 2 cells, got %d", len(styled))
	}
	if styled[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for typed rune")
	}
	if styled[1].s != cursorStyle.Render("b") {
		t.Fatalf("expected cursor style for next rune")
	}
}

func TestBuildStyledWordsMistypeKeepsTarget(t *testing.T) {
	s := newTestSession(t, []string{"ab", "cd"})
	typeRunes(s, "ax")

	styled := buildStyledWords(s.WordViews(0, 2))
	if styled[0].s != correctStyle.Render("a") {
		t.Fatalf("expected correct style for first rune")
	}
	// The mistyped cell shows the target rune, flagged incorrect, with
	// the cursor on the following separator.
	if styled[1].s != incorrectStyle.Render("b") {
		t.Fatalf("expected incorrect target rune, got %q", styled[1].s)
	}
	if !styled[2].isSpace {
		t.Fatalf("expected separator cell")
	}
	if styled[2].s != pendingStyle.Underline(true).Render(" ") {
		t.Fatalf("expected cursor on separator, got %q", styled[2].s)
	}
}

func TestBuildStyledWordsHighlightsCurrentWord(t *testing.T) {
	s := newTestSession(t, []string{"one", "two"})
	typeRunes(s, "o")

	styled := buildStyledWords(s.WordViews(0, 2))
	if styled[0].s != correctStyle.Render("o") {
		t.Fatalf("expected correct style for typed rune")
	}
	if styled[1].s != cursorStyle.Render("n") {
		t.Fatalf("expected cursor on next rune of current word")
	}
	if styled[2].s != currentWordStyle.Render("e") {
		t.Fatalf("expected current word style for rest of current word")
	}
	// "two" starts after the separator at index 3.
	if styled[4].s != pendingStyle.Render("t") {
		t.Fatalf("expected pending style for upcoming word")
	}
}

func TestBuildStyledWordsExtraCharsFlagged(t *testing.T) {
	s := newTestSession(t, []string{"cat", "dog"})
	typeRunes(s, "catty")

	styled := buildStyledWords(s.WordViews(0, 1))
	if len(styled) != 5 {
		t.Fatalf("expected 5 cells, got %d", len(styled))
	}
	if styled[3].s != extraStyle.Render("t") || styled[4].s != extraStyle.Render("y") {
		t.Fatalf("expected extra style for overflow runes")
	}
}

func TestBuildStyledWordsShortfallMarkedIncorrect(t *testing.T) {
	s := newTestSession(t, []string{"hello", "world"})
	typeRunes(s, "hel ")

	styled := buildStyledWords(s.WordViews(0, 1))
	if styled[3].s != incorrectStyle.Render("l") || styled[4].s != incorrectStyle.Render("o") {
		t.Fatalf("expected missing tail of finalized word marked incorrect")
	}
}

func TestWrapStyledRunesBreaksOnSpaces(t *testing.T) {
	s := newTestSession(t, []string{"aaa", "bbb", "ccc"})
	styled := buildStyledWords(s.WordViews(0, 3))

	wrapped := wrapStyledRunes(styled, 7)
	lines := 1
	for _, r := range wrapped {
		if r == '\n' {
			lines++
		}
	}
	if lines != 2 {
		t.Fatalf("expected 2 lines, got %d:\n%s", lines, wrapped)
	}
}

func TestRenderBar(t *testing.T) {
	full := renderBar(100, 10)
	if countRune(full, '█') != 10 || countRune(full, '░') != 0 {
		t.Fatalf("unexpected full bar: %q", full)
	}
	half := renderBar(50, 10)
	if countRune(half, '█') != 5 || countRune(half, '░') != 5 {
		t.Fatalf("unexpected half bar: %q", half)
	}
	clamped := renderBar(150, 10)
	if countRune(clamped, '█') != 10 {
		t.Fatalf("expected clamped bar: %q", clamped)
	}
}

func countRune(s string, want rune) int {
	n := 0
	for _, r := range s {
		if r == want {
			n++
		}
	}
	return n
}
