package words

import (
	"testing"

	"github.com/rapidkeys/rapidkeys/internal/model"
)

func TestRaceWordsMode(t *testing.T) {
	gen := NewSeeded(1)
	seq, err := gen.Race(model.Settings{Mode: model.ModeWords, Value: 25})
	if err != nil {
		t.Fatalf("race: %v", err)
	}
	if len(seq) != 25 {
		t.Fatalf("expected 25 words, got %d", len(seq))
	}
	for i, w := range seq {
		if w == "" {
			t.Fatalf("empty word at %d", i)
		}
	}
}

func TestRaceTimeModeInitialBatch(t *testing.T) {
	gen := NewSeeded(1)
	seq, err := gen.Race(model.Settings{Mode: model.ModeTime, Value: 30})
	if err != nil {
		t.Fatalf("race: %v", err)
	}
	if len(seq) != TimeModeInitial {
		t.Fatalf("expected %d words, got %d", TimeModeInitial, len(seq))
	}
}

func TestRaceRejectsInvalidValues(t *testing.T) {
	gen := NewSeeded(1)
	cases := []model.Settings{
		{Mode: model.ModeWords, Value: 30},
		{Mode: model.ModeTime, Value: 45},
		{Mode: "marathon", Value: 10},
	}
	for _, settings := range cases {
		if _, err := gen.Race(settings); err == nil {
			t.Fatalf("expected error for %+v", settings)
		}
	}
}

func TestSeededGeneratorIsDeterministic(t *testing.T) {
	a := NewSeeded(42).Pick(Common, 40)
	b := NewSeeded(42).Pick(Common, 40)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("sequences diverge at %d: %q vs %q", i, a[i], b[i])
		}
	}
}

func TestPracticeAppliesCapsAndPunct(t *testing.T) {
	gen := NewSeeded(7)
	seq := gen.Practice(Common, 200, 1.0, 1.0, []rune{'!'})
	for i, w := range seq {
		runes := []rune(w)
		if len(runes) < 2 {
			t.Fatalf("word %d too short: %q", i, w)
		}
		if runes[len(runes)-1] != '!' {
			t.Fatalf("word %d missing punctuation: %q", i, w)
		}
	}
}
