package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"github.com/rapidkeys/rapidkeys/internal/session"
)

type styledRune struct {
	s       string
	width   int
	isSpace bool
}

// buildStyledWords renders word projections into styled cells with a
// plain space between words. The caret underlines the cell it sits
// before; at the end of the current word it moves onto the separator.
func buildStyledWords(views []session.WordView) []styledRune {
	out := make([]styledRune, 0, 64)
	for vi, view := range views {
		for i, cell := range view.Chars {
			style := styleForCell(view, cell)
			if view.Status == session.WordCurrent && i == view.Caret {
				style = style.Underline(true)
			}
			out = append(out, styledRune{
				s:     style.Render(string(cell.Rune)),
				width: runewidth.RuneWidth(cell.Rune),
			})
		}
		if vi == len(views)-1 {
			break
		}
		spaceStyle := pendingStyle
		if view.Status == session.WordCurrent && view.Caret >= len(view.Chars) {
			spaceStyle = spaceStyle.Underline(true)
		}
		out = append(out, styledRune{
			s:       spaceStyle.Render(" "),
			width:   1,
			isSpace: true,
		})
	}
	return out
}

func styleForCell(view session.WordView, cell session.CharCell) lipgloss.Style {
	switch cell.State {
	case session.CharCorrect:
		return correctStyle
	case session.CharIncorrect:
		return incorrectStyle
	case session.CharExtra:
		return extraStyle
	default:
		if view.Status == session.WordCurrent {
			return currentWordStyle
		}
		return pendingStyle
	}
}

func renderStyledRunes(runes []styledRune) string {
	var b strings.Builder
	for _, item := range runes {
		b.WriteString(item.s)
	}
	return b.String()
}

func wrapStyledRunes(runes []styledRune, width int) string {
	if width <= 0 {
		return renderStyledRunes(runes)
	}
	var out strings.Builder
	line := make([]styledRune, 0, len(runes))
	lineWidth := 0
	lastSpaceIdx := -1

	for i := 0; i < len(runes); {
		item := runes[i]
		if lineWidth+item.width > width && len(line) > 0 {
			if lastSpaceIdx >= 0 {
				out.WriteString(renderStyledRunes(line[:lastSpaceIdx]))
				out.WriteRune('\n')
				line = append([]styledRune{}, line[lastSpaceIdx+1:]...)
				lineWidth = lineWidthOf(line)
				lastSpaceIdx = lastSpaceIndex(line)
			} else {
				out.WriteString(renderStyledRunes(line))
				out.WriteRune('\n')
				line = line[:0]
				lineWidth = 0
				lastSpaceIdx = -1
			}
			continue
		}
		line = append(line, item)
		lineWidth += item.width
		if item.isSpace {
			lastSpaceIdx = len(line) - 1
		}
		i++
	}
	out.WriteString(renderStyledRunes(line))
	return out.String()
}

func lineWidthOf(line []styledRune) int {
	total := 0
	for _, item := range line {
		total += item.width
	}
	return total
}

func lastSpaceIndex(line []styledRune) int {
	for i := len(line) - 1; i >= 0; i-- {
		if line[i].isSpace {
			return i
		}
	}
	return -1
}
