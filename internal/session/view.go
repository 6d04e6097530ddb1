package session

// WordStatus classifies a word position relative to the typing cursor.
type WordStatus int

// Word statuses.
const (
	WordTyped WordStatus = iota
	WordCurrent
	WordUpcoming
)

// CharState classifies one rendered character cell.
type CharState int

// Character states.
const (
	CharPending CharState = iota
	CharCorrect
	CharIncorrect
	CharExtra
)

// CharCell is one rendered character with its correctness state.
type CharCell struct {
	Rune  rune
	State CharState
}

// WordView is the pure render projection for one word position. It holds
// no state of its own; rebuild it after every session mutation.
type WordView struct {
	Index   int
	Target  string
	Typed   string
	Status  WordStatus
	Correct bool
	Chars   []CharCell
	// Caret is the cell index the cursor sits before; -1 when the word
	// is not current.
	Caret int
}

// WordView projects the word at index i.
func (s *Session) WordView(i int) WordView {
	view := WordView{Index: i, Target: s.words[i], Caret: -1}
	switch {
	case i < s.wordIndex:
		view.Status = WordTyped
		view.Typed = s.typed[i]
	case i == s.wordIndex:
		view.Status = WordCurrent
		view.Typed = string(s.buffer)
		view.Caret = len(s.buffer)
	default:
		view.Status = WordUpcoming
	}
	view.Correct = view.Status == WordTyped && view.Typed == view.Target
	view.Chars = diffChars(view.Typed, view.Target, view.Status)
	return view
}

// WordViews projects the half-open range [start, end) of word positions.
func (s *Session) WordViews(start, end int) []WordView {
	if start < 0 {
		start = 0
	}
	if end > len(s.words) {
		end = len(s.words)
	}
	out := make([]WordView, 0, end-start)
	for i := start; i < end; i++ {
		out = append(out, s.WordView(i))
	}
	return out
}

func diffChars(typed, target string, status WordStatus) []CharCell {
	t := []rune(typed)
	g := []rune(target)
	cells := make([]CharCell, 0, len(g)+len(t))
	for i, r := range g {
		state := CharPending
		if i < len(t) {
			if t[i] == r {
				state = CharCorrect
			} else {
				state = CharIncorrect
			}
		} else if status == WordTyped {
			// Missing tail of an already-finalized word.
			state = CharIncorrect
		}
		cells = append(cells, CharCell{Rune: r, State: state})
	}
	// Trailing extra characters are rendered as typed, flagged.
	for _, r := range t[min(len(t), len(g)):] {
		cells = append(cells, CharCell{Rune: r, State: CharExtra})
	}
	return cells
}
