package session

import (
	"testing"
	"time"

	"github.com/rapidkeys/rapidkeys/internal/model"
	"github.com/rapidkeys/rapidkeys/internal/words"
)

type fakeClock struct {
	t time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Unix(1000, 0)}
}

func (c *fakeClock) Now() time.Time { return c.t }

func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func typeWord(s *Session, word string) {
	for _, r := range word {
		s.ApplyKey(Key{Kind: KeyRune, Rune: r})
	}
}

func wordSession(list []string, opts Options) *Session {
	return New(model.Settings{Mode: model.ModeWords, Value: len(list)}, list, opts)
}

func TestScoreWordExactMatch(t *testing.T) {
	correct, incorrect := ScoreWord("hello", "hello")
	if correct != 5 || incorrect != 0 {
		t.Fatalf("got %d/%d, want 5/0", correct, incorrect)
	}
}

func TestScoreWordPrefix(t *testing.T) {
	correct, incorrect := ScoreWord("hel", "hello")
	if correct != 3 || incorrect != 2 {
		t.Fatalf("got %d/%d, want 3/2", correct, incorrect)
	}
}

func TestScoreWordExtraChars(t *testing.T) {
	correct, incorrect := ScoreWord("catty", "cat")
	if correct != 3 || incorrect != 2 {
		t.Fatalf("got %d/%d, want 3/2", correct, incorrect)
	}
}

func TestScoreWordMistypes(t *testing.T) {
	correct, incorrect := ScoreWord("cot", "cat")
	if correct != 2 || incorrect != 1 {
		t.Fatalf("got %d/%d, want 2/1", correct, incorrect)
	}
}

func TestSpaceFinalizesWord(t *testing.T) {
	clock := newFakeClock()
	s := wordSession([]string{"one", "two"}, Options{Clock: clock.Now})
	typeWord(s, "one")
	s.ApplyKey(Key{Kind: KeySpace})

	if s.WordIndex() != 1 {
		t.Fatalf("word index = %d, want 1", s.WordIndex())
	}
	if got := s.Typed(); len(got) != 1 || got[0] != "one" {
		t.Fatalf("typed history = %v", got)
	}
	if s.Buffer() != "" {
		t.Fatalf("buffer not cleared: %q", s.Buffer())
	}
}

func TestEmptyBufferSpaceIsNoop(t *testing.T) {
	clock := newFakeClock()
	s := wordSession([]string{"one", "two"}, Options{Clock: clock.Now})
	typeWord(s, "one")
	s.ApplyKey(Key{Kind: KeySpace})
	s.ApplyKey(Key{Kind: KeySpace})
	s.ApplyKey(Key{Kind: KeySpace})

	if s.WordIndex() != 1 {
		t.Fatalf("repeated spaces advanced words: index = %d", s.WordIndex())
	}
}

func TestHistoryIndexInvariant(t *testing.T) {
	clock := newFakeClock()
	s := wordSession([]string{"a", "b", "c", "d"}, Options{Clock: clock.Now})
	for _, w := range []string{"a", "x", "c"} {
		typeWord(s, w)
		s.ApplyKey(Key{Kind: KeySpace})
		if s.WordIndex() != len(s.Typed()) {
			t.Fatalf("invariant broken: index %d, history %d", s.WordIndex(), len(s.Typed()))
		}
	}
}

func TestOverflowAllowanceBoundsBuffer(t *testing.T) {
	clock := newFakeClock()
	s := wordSession([]string{"cat", "dog"}, Options{Clock: clock.Now})
	for i := 0; i < 50; i++ {
		s.ApplyKey(Key{Kind: KeyRune, Rune: 'x'})
	}
	if got := len(s.Buffer()); got != len("cat")+OverflowAllowance {
		t.Fatalf("buffer length = %d, want %d", got, len("cat")+OverflowAllowance)
	}
}

func TestFinalWordAutoFinalizes(t *testing.T) {
	clock := newFakeClock()
	s := wordSession([]string{"hi", "go"}, Options{Clock: clock.Now})
	typeWord(s, "hi")
	s.ApplyKey(Key{Kind: KeySpace})
	typeWord(s, "go")

	if s.State() != StateCompleted {
		t.Fatalf("state = %v, want completed without trailing space", s.State())
	}
	snap := s.Snapshot()
	if snap.Progress != 100 {
		t.Fatalf("progress = %d, want 100", snap.Progress)
	}
	if snap.Accuracy != 100 {
		t.Fatalf("accuracy = %d, want 100", snap.Accuracy)
	}
}

func TestCompletedSessionIgnoresInput(t *testing.T) {
	clock := newFakeClock()
	s := wordSession([]string{"hi"}, Options{Clock: clock.Now})
	typeWord(s, "hi")
	if s.State() != StateCompleted {
		t.Fatalf("expected completion")
	}
	correctBefore, incorrectBefore := s.Counters()

	typeWord(s, "extra")
	s.ApplyKey(Key{Kind: KeySpace})
	s.ApplyKey(Key{Kind: KeyBackspace})

	correctAfter, incorrectAfter := s.Counters()
	if correctBefore != correctAfter || incorrectBefore != incorrectAfter {
		t.Fatalf("counters changed after completion: %d/%d -> %d/%d",
			correctBefore, incorrectBefore, correctAfter, incorrectAfter)
	}
	if s.WordIndex() != 1 {
		t.Fatalf("word index moved after completion: %d", s.WordIndex())
	}
}

func TestWordModeCompletionAfterExactCount(t *testing.T) {
	clock := newFakeClock()
	list := []string{"a", "b", "c", "d", "e", "f", "g", "h", "i", "j"}
	s := wordSession(list, Options{Clock: clock.Now})
	for _, w := range list[:9] {
		typeWord(s, w)
		s.ApplyKey(Key{Kind: KeySpace})
	}
	if s.State() != StateRunning {
		t.Fatalf("completed early at %d words", s.WordIndex())
	}
	typeWord(s, "j")
	if s.State() != StateCompleted {
		t.Fatalf("not completed after 10 words")
	}
}

func TestTimeModeDeadlineRejectsKeystrokes(t *testing.T) {
	clock := newFakeClock()
	s := New(model.Settings{Mode: model.ModeTime, Value: 15}, words.NewSeeded(3).Pick(words.Common, 150), Options{Clock: clock.Now})
	typeWord(s, "abc")
	s.ApplyKey(Key{Kind: KeySpace})

	clock.Advance(16 * time.Second)
	correctBefore, incorrectBefore := s.Counters()
	s.ApplyKey(Key{Kind: KeyRune, Rune: 'q'})

	if s.State() != StateCompleted {
		t.Fatalf("keystroke past the limit did not complete the session")
	}
	correctAfter, incorrectAfter := s.Counters()
	if correctBefore != correctAfter || incorrectBefore != incorrectAfter {
		t.Fatalf("counters changed past the limit")
	}
}

func TestTimeModeTickCompletes(t *testing.T) {
	clock := newFakeClock()
	s := New(model.Settings{Mode: model.ModeTime, Value: 15}, words.NewSeeded(3).Pick(words.Common, 150), Options{Clock: clock.Now})
	typeWord(s, "x")

	clock.Advance(14 * time.Second)
	if s.Tick() {
		t.Fatalf("ticked complete before the limit")
	}
	clock.Advance(2 * time.Second)
	if !s.Tick() {
		t.Fatalf("tick did not complete at the limit")
	}
	if s.Tick() {
		t.Fatalf("second tick completed again")
	}
	snap := s.Snapshot()
	if want := s.Snapshot(); snap != want {
		t.Fatalf("final snapshot not frozen: %+v vs %+v", snap, want)
	}
}

func TestTimeModeFreezesWPMAtLimit(t *testing.T) {
	clock := newFakeClock()
	list := words.NewSeeded(3).Pick(words.Common, 150)
	s := New(model.Settings{Mode: model.ModeTime, Value: 15}, list, Options{Clock: clock.Now})
	typeWord(s, list[0])
	s.ApplyKey(Key{Kind: KeySpace})

	clock.Advance(20 * time.Second)
	s.Tick()
	frozen := s.Snapshot()
	clock.Advance(time.Hour)
	if got := s.Snapshot(); got != frozen {
		t.Fatalf("snapshot drifted after completion: %+v vs %+v", got, frozen)
	}
	// Denominator is the exact limit, not the observed elapsed time.
	correct, _ := s.Counters()
	wantWPM := (float64(correct) / 5) / (15.0 / 60)
	if frozen.WPM != wantWPM {
		t.Fatalf("wpm = %v, want %v", frozen.WPM, wantWPM)
	}
}

func TestBackspaceEditsBuffer(t *testing.T) {
	clock := newFakeClock()
	s := wordSession([]string{"cat", "dog"}, Options{Clock: clock.Now})
	typeWord(s, "ca")
	s.ApplyKey(Key{Kind: KeyBackspace})
	if s.Buffer() != "c" {
		t.Fatalf("buffer = %q, want %q", s.Buffer(), "c")
	}
}

func TestWordRevertReopensIncorrectWord(t *testing.T) {
	clock := newFakeClock()
	s := wordSession([]string{"cat", "dog", "owl"}, Options{Clock: clock.Now, WordRevert: true})
	typeWord(s, "cet")
	s.ApplyKey(Key{Kind: KeySpace})
	correctMid, incorrectMid := s.Counters()
	if correctMid != 2 || incorrectMid != 1 {
		t.Fatalf("unexpected counters after mistype: %d/%d", correctMid, incorrectMid)
	}

	s.ApplyKey(Key{Kind: KeyBackspace})
	if s.WordIndex() != 0 {
		t.Fatalf("word index = %d, want revert to 0", s.WordIndex())
	}
	if s.Buffer() != "cet" {
		t.Fatalf("buffer = %q, want reopened word", s.Buffer())
	}
	correct, incorrect := s.Counters()
	if correct != 0 || incorrect != 0 {
		t.Fatalf("counters not rolled back: %d/%d", correct, incorrect)
	}
	if len(s.Typed()) != 0 {
		t.Fatalf("typed history not truncated: %v", s.Typed())
	}
}

func TestWordRevertSkipsCorrectWords(t *testing.T) {
	clock := newFakeClock()
	s := wordSession([]string{"cat", "dog"}, Options{Clock: clock.Now, WordRevert: true})
	typeWord(s, "cat")
	s.ApplyKey(Key{Kind: KeySpace})
	s.ApplyKey(Key{Kind: KeyBackspace})

	if s.WordIndex() != 1 {
		t.Fatalf("reverted into a correctly typed word")
	}
}

func TestWordRevertDisabledInRacePolicy(t *testing.T) {
	clock := newFakeClock()
	s := wordSession([]string{"cat", "dog"}, Options{Clock: clock.Now, WordRevert: false})
	typeWord(s, "cot")
	s.ApplyKey(Key{Kind: KeySpace})
	s.ApplyKey(Key{Kind: KeyBackspace})

	if s.WordIndex() != 1 {
		t.Fatalf("revert happened despite policy: index %d", s.WordIndex())
	}
}

func TestManualStartIgnoresEarlyKeys(t *testing.T) {
	clock := newFakeClock()
	s := wordSession([]string{"cat", "dog"}, Options{Clock: clock.Now, ManualStart: true})
	typeWord(s, "cat")
	if s.State() != StateIdle || s.Buffer() != "" {
		t.Fatalf("keys accepted before shared start")
	}

	start := clock.Now().Add(-2 * time.Second)
	s.StartAt(start)
	if s.State() != StateRunning {
		t.Fatalf("StartAt did not start the session")
	}
	if got := s.Elapsed(); got != 2 {
		t.Fatalf("elapsed = %v, want anchor-relative 2s", got)
	}

	// The anchor is written at most once.
	s.StartAt(clock.Now())
	if got := s.Elapsed(); got != 2 {
		t.Fatalf("second StartAt moved the anchor: %v", got)
	}
}

func TestTimeModeExtendsNearLowWater(t *testing.T) {
	clock := newFakeClock()
	gen := words.NewSeeded(9)
	initial := gen.Pick(words.Common, 25)
	extended := 0
	s := New(model.Settings{Mode: model.ModeTime, Value: 60}, initial, Options{
		Clock: clock.Now,
		Extend: func(n int) []string {
			extended += n
			return gen.Pick(words.Common, n)
		},
	})

	for i := 0; i < 10; i++ {
		typeWord(s, s.Words()[s.WordIndex()])
		s.ApplyKey(Key{Kind: KeySpace})
	}
	if extended == 0 {
		t.Fatalf("sequence was not extended below the low-water mark")
	}
	if remaining := len(s.Words()) - s.WordIndex(); remaining < words.LowWater {
		t.Fatalf("remaining words %d below low water after extension", remaining)
	}
}

func TestSampleRecordsChartOncePerBucket(t *testing.T) {
	clock := newFakeClock()
	s := wordSession([]string{"aaa", "bbb", "ccc"}, Options{Clock: clock.Now})
	typeWord(s, "aaa")
	s.ApplyKey(Key{Kind: KeySpace})

	clock.Advance(1500 * time.Millisecond)
	first := s.Sample()
	s.Sample()
	clock.Advance(time.Second)
	s.Sample()

	samples := s.Chart().Samples()
	if len(samples) != 2 {
		t.Fatalf("expected 2 chart samples, got %d", len(samples))
	}
	if samples[0].Time != 1 || samples[1].Time != 2 {
		t.Fatalf("unexpected buckets: %+v", samples)
	}
	if first.Progress != 33 {
		t.Fatalf("progress = %d, want 33", first.Progress)
	}
}
