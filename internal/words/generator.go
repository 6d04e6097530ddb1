// Package words builds and loads typing word sequences.
package words

import (
	"fmt"
	"math/rand"
	"time"
	"unicode"

	"github.com/rapidkeys/rapidkeys/internal/model"
)

const (
	// LowWater is the remaining-word threshold below which a time-mode
	// sequence is extended.
	LowWater = 20
	// ExtendBatch is the number of words appended per extension.
	ExtendBatch = 50
	// TimeModeInitial is the initial sequence length for time mode.
	TimeModeInitial = 150
)

// Generator produces randomized word sequences.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed, for reproducible sequences.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Race builds the word sequence for a race with the given settings. Words
// mode produces exactly the requested count; time mode produces an initial
// batch that the session extends as it is consumed.
func (g *Generator) Race(settings model.Settings) ([]string, error) {
	if !settings.Mode.ValidValue(settings.Value) {
		return nil, fmt.Errorf("invalid value %d for %s mode", settings.Value, settings.Mode)
	}
	switch settings.Mode {
	case model.ModeWords:
		return g.Pick(Common, settings.Value), nil
	case model.ModeTime:
		return g.Pick(Common, TimeModeInitial), nil
	default:
		return nil, fmt.Errorf("unknown mode %q", settings.Mode)
	}
}

// Pick selects count words uniformly at random from the table.
func (g *Generator) Pick(table []string, count int) []string {
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		result = append(result, table[g.rnd.Intn(len(table))])
	}
	return result
}

// Practice selects words uniformly and applies caps/punctuation rules.
func (g *Generator) Practice(table []string, count int, capsPct, punctPct float64, punctSet []rune) []string {
	result := make([]string, 0, count)
	for i := 0; i < count; i++ {
		word := table[g.rnd.Intn(len(table))]
		word = applyCaps(g.rnd, word, capsPct)
		word = applyPunct(g.rnd, word, punctPct, punctSet)
		result = append(result, word)
	}
	return result
}

func applyCaps(rnd *rand.Rand, word string, capsPct float64) string {
	if capsPct <= 0 {
		return word
	}
	if rnd.Float64() > capsPct {
		return word
	}
	runes := []rune(word)
	if len(runes) == 0 {
		return word
	}
	runes[0] = unicode.ToUpper(runes[0])
	return string(runes)
}

func applyPunct(rnd *rand.Rand, word string, punctPct float64, punctSet []rune) string {
	if punctPct <= 0 || len(punctSet) == 0 {
		return word
	}
	if rnd.Float64() > punctPct {
		return word
	}
	punct := punctSet[rnd.Intn(len(punctSet))]
	return word + string(punct)
}
