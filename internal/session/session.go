// Package session implements the per-user typing state machine.
package session

import (
	"time"

	"github.com/rapidkeys/rapidkeys/internal/model"
	"github.com/rapidkeys/rapidkeys/internal/stats"
	"github.com/rapidkeys/rapidkeys/internal/words"
)

// State identifies the session lifecycle phase.
type State int

// Session states.
const (
	StateIdle State = iota
	StateRunning
	StateCompleted
)

// KeyKind classifies one input event.
type KeyKind int

// Input event kinds.
const (
	KeyRune KeyKind = iota
	KeySpace
	KeyBackspace
)

// Key is one keyboard input event.
type Key struct {
	Kind KeyKind
	Rune rune
}

// OverflowAllowance bounds how far the input buffer may grow past the
// target word's length.
const OverflowAllowance = 10

// Options tune a session beyond its mode settings.
type Options struct {
	// WordRevert permits backspacing into the previous word when it was
	// finalized with errors. Practice defaults on, races default off.
	WordRevert bool
	// ManualStart defers the Idle to Running transition to StartAt. Races
	// anchor every participant to the same shared instant this way;
	// keystrokes arriving while Idle are dropped.
	ManualStart bool
	// Extend supplies additional words in time mode. Required for time
	// mode sessions; ignored in words mode.
	Extend func(n int) []string
	// Clock overrides time.Now, for tests.
	Clock func() time.Time
}

type wordScore struct {
	correct   int
	incorrect int
}

// Session tracks one participant's typing through a word sequence.
type Session struct {
	settings model.Settings
	opts     Options
	now      func() time.Time

	words     []string
	typed     []string
	scores    []wordScore
	buffer    []rune
	wordIndex int

	correctChars   int
	incorrectChars int

	state     State
	startedAt time.Time
	final     *stats.Snapshot

	chart stats.ChartSeries
}

// New builds a session over the given word sequence.
func New(settings model.Settings, words []string, opts Options) *Session {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	return &Session{
		settings: settings,
		opts:     opts,
		now:      now,
		words:    append([]string(nil), words...),
	}
}

// State returns the current lifecycle phase.
func (s *Session) State() State { return s.state }

// Words returns the current target sequence.
func (s *Session) Words() []string { return s.words }

// WordIndex returns the index of the word currently being typed.
func (s *Session) WordIndex() int { return s.wordIndex }

// Buffer returns the partial input for the current word.
func (s *Session) Buffer() string { return string(s.buffer) }

// Typed returns the history of finalized words.
func (s *Session) Typed() []string { return append([]string(nil), s.typed...) }

// Chart returns the WPM-over-time series recorded while running.
func (s *Session) Chart() *stats.ChartSeries { return &s.chart }

// StartAt anchors the session clock to a shared instant and starts it.
// Setting the anchor twice is a no-op; the first instant wins.
func (s *Session) StartAt(t time.Time) {
	if s.state != StateIdle {
		return
	}
	s.startedAt = t
	s.state = StateRunning
}

// Elapsed returns seconds since the session started, zero while Idle.
func (s *Session) Elapsed() float64 {
	if s.startedAt.IsZero() {
		return 0
	}
	return s.now().Sub(s.startedAt).Seconds()
}

// ApplyKey feeds one input event through the state machine.
func (s *Session) ApplyKey(k Key) {
	if s.state == StateCompleted {
		return
	}
	if s.settings.Mode == model.ModeTime && s.state == StateRunning && s.Elapsed() >= float64(s.settings.Value) {
		s.complete()
		return
	}
	switch k.Kind {
	case KeySpace:
		if s.state != StateRunning {
			return
		}
		// Empty buffer: swallow the separator so repeated spaces cannot
		// skip words.
		if len(s.buffer) == 0 {
			return
		}
		s.finalizeWord()
	case KeyBackspace:
		if s.state != StateRunning {
			return
		}
		s.handleBackspace()
	case KeyRune:
		s.handleRune(k.Rune)
	}
}

func (s *Session) handleRune(r rune) {
	if s.state == StateIdle {
		if s.opts.ManualStart {
			return
		}
		s.StartAt(s.now())
	}
	target := []rune(s.currentWord())
	if len(s.buffer) >= len(target)+OverflowAllowance {
		return
	}
	s.buffer = append(s.buffer, r)

	// Final word of a fixed-length test finalizes on exact match so the
	// run does not dangle on a trailing space.
	if s.settings.Mode == model.ModeWords &&
		s.wordIndex == len(s.words)-1 &&
		string(s.buffer) == s.currentWord() {
		s.finalizeWord()
	}
}

func (s *Session) handleBackspace() {
	if len(s.buffer) > 0 {
		s.buffer = s.buffer[:len(s.buffer)-1]
		return
	}
	if !s.opts.WordRevert || s.wordIndex == 0 {
		return
	}
	prev := s.wordIndex - 1
	if s.typed[prev] == s.words[prev] {
		// Correct words stay closed.
		return
	}
	score := s.scores[prev]
	s.correctChars -= score.correct
	s.incorrectChars -= score.incorrect
	s.buffer = []rune(s.typed[prev])
	s.typed = s.typed[:prev]
	s.scores = s.scores[:prev]
	s.wordIndex = prev
}

// ScoreWord counts per-position matches between a typed word and its
// target; length mismatch in either direction counts as incorrect.
func ScoreWord(typed, target string) (correct, incorrect int) {
	t := []rune(typed)
	g := []rune(target)
	n := len(t)
	if len(g) < n {
		n = len(g)
	}
	for i := 0; i < n; i++ {
		if t[i] == g[i] {
			correct++
		} else {
			incorrect++
		}
	}
	diff := len(t) - len(g)
	if diff < 0 {
		diff = -diff
	}
	incorrect += diff
	return correct, incorrect
}

func (s *Session) finalizeWord() {
	typed := string(s.buffer)
	target := s.currentWord()
	correct, incorrect := ScoreWord(typed, target)
	s.correctChars += correct
	s.incorrectChars += incorrect
	s.typed = append(s.typed, typed)
	s.scores = append(s.scores, wordScore{correct: correct, incorrect: incorrect})
	s.wordIndex++
	s.buffer = nil

	if s.settings.Mode == model.ModeWords {
		if s.wordIndex == len(s.words) {
			s.complete()
		}
		return
	}
	s.maybeExtend()
}

func (s *Session) maybeExtend() {
	if s.settings.Mode != model.ModeTime || s.opts.Extend == nil {
		return
	}
	if len(s.words)-s.wordIndex >= words.LowWater {
		return
	}
	s.words = append(s.words, s.opts.Extend(words.ExtendBatch)...)
}

// Tick checks the time-mode deadline. It returns true when this call
// completed the session. Callers run it on a short periodic cadence so
// completion does not wait for a keystroke.
func (s *Session) Tick() bool {
	if s.state != StateRunning || s.settings.Mode != model.ModeTime {
		return false
	}
	if s.Elapsed() < float64(s.settings.Value) {
		return false
	}
	s.complete()
	return true
}

func (s *Session) complete() {
	if s.state == StateCompleted {
		return
	}
	s.state = StateCompleted
	elapsed := s.Elapsed()
	if s.settings.Mode == model.ModeTime {
		// Freeze at the exact limit so every finisher reports over the
		// same denominator.
		elapsed = float64(s.settings.Value)
	}
	snap := stats.Compute(s.correctChars, s.incorrectChars, elapsed, s.wordIndex, len(s.words))
	if s.settings.Mode == model.ModeWords && s.wordIndex == len(s.words) {
		snap.Progress = 100
	}
	s.final = &snap
}

// Snapshot derives live statistics, or returns the frozen final snapshot
// once the session completed.
func (s *Session) Snapshot() stats.Snapshot {
	if s.final != nil {
		return *s.final
	}
	return stats.Compute(s.correctChars, s.incorrectChars, s.Elapsed(), s.wordIndex, len(s.words))
}

// Sample records one chart point for the current second and returns the
// progress payload to broadcast. Called on a 1-second cadence while racing.
func (s *Session) Sample() model.Progress {
	snap := s.Snapshot()
	if s.state == StateRunning {
		s.chart.Add(int(s.Elapsed()), snap.WPM)
	}
	return model.Progress{
		Progress: snap.Progress,
		WPM:      stats.RoundWPM(snap.WPM),
		Accuracy: snap.Accuracy,
	}
}

// Counters exposes the cumulative per-character counters.
func (s *Session) Counters() (correct, incorrect int) {
	return s.correctChars, s.incorrectChars
}

func (s *Session) currentWord() string {
	if s.wordIndex >= len(s.words) {
		return ""
	}
	return s.words[s.wordIndex]
}
