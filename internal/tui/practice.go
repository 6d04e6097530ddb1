package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rapidkeys/rapidkeys/internal/model"
	"github.com/rapidkeys/rapidkeys/internal/session"
	statsPkg "github.com/rapidkeys/rapidkeys/internal/stats"
	"github.com/rapidkeys/rapidkeys/internal/store"
	"github.com/rapidkeys/rapidkeys/internal/words"
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// Practice implements the solo typing UI over a session state machine.
type Practice struct {
	config model.Config
	store  *store.Store
	gen    *words.Generator
	table  []string

	sess *session.Session

	width  int
	height int

	lastWPM float64
	lastAcc int
	hasLast bool

	allCorrect   int
	allIncorrect int
	allDuration  int64
	allWPM       float64
	allAcc       float64

	saved bool
}

// NewPractice constructs a practice TUI model.
func NewPractice(cfg model.Config, st *store.Store, gen *words.Generator, table []string) *Practice {
	p := &Practice{
		config: cfg,
		store:  st,
		gen:    gen,
		table:  table,
	}
	p.resetSession()
	p.loadFooterStats()
	return p
}

func (p *Practice) settings() model.Settings {
	if p.config.Mode == model.ModeTime {
		return model.Settings{Mode: model.ModeTime, Value: p.config.Seconds}
	}
	return model.Settings{Mode: model.ModeWords, Value: p.config.Words}
}

func (p *Practice) generate(n int) []string {
	return p.gen.Practice(p.table, n, p.config.CapsPct, p.config.PunctPct, []rune(p.config.PunctSet))
}

func (p *Practice) resetSession() {
	settings := p.settings()
	count := settings.Value
	if settings.Mode == model.ModeTime {
		count = words.TimeModeInitial
	}
	p.sess = session.New(settings, p.generate(count), session.Options{
		WordRevert: p.config.WordRevert,
		Extend:     p.generate,
	})
	p.saved = false
}

// Init implements tea.Model.
func (p *Practice) Init() tea.Cmd {
	return tick()
}

// Update implements tea.Model.
func (p *Practice) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		p.width = msg.Width
		p.height = msg.Height
		return p, nil
	case tickMsg:
		if p.sess.Tick() {
			p.finishSession()
		}
		if p.sess.State() == session.StateRunning {
			p.sess.Sample()
		}
		return p, tick()
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return p, tea.Quit
		case tea.KeyEnter, tea.KeyTab:
			if p.sess.State() == session.StateCompleted {
				p.resetSession()
			}
			return p, nil
		case tea.KeyBackspace, tea.KeyDelete:
			p.applyKey(session.Key{Kind: session.KeyBackspace})
			return p, nil
		case tea.KeySpace:
			p.applyKey(session.Key{Kind: session.KeySpace})
			return p, nil
		case tea.KeyRunes:
			for _, r := range msg.Runes {
				p.applyKey(session.Key{Kind: session.KeyRune, Rune: r})
			}
			return p, nil
		default:
			return p, nil
		}
	default:
		return p, nil
	}
}

func (p *Practice) applyKey(k session.Key) {
	p.sess.ApplyKey(k)
	if p.sess.State() == session.StateCompleted {
		p.finishSession()
	}
}

// View implements tea.Model.
func (p *Practice) View() string {
	if p.sess.State() == session.StateCompleted {
		return p.viewResults()
	}
	views := p.sess.WordViews(0, len(p.sess.Words()))
	styled := buildStyledWords(views)
	if p.width == 0 || p.height == 0 {
		return renderStyledRunes(styled)
	}
	contentWidth := int(float64(p.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(styled, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	footer := p.renderFooter()
	if footer == "" || p.height < 3 {
		return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := p.height - 1
	body := lipgloss.Place(p.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(p.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

func (p *Practice) viewResults() string {
	snap := p.sess.Snapshot()
	var b strings.Builder
	b.WriteString(headerStyle.Render("Session complete") + "\n\n")
	b.WriteString(fmt.Sprintf("  WPM       %.1f\n", snap.WPM))
	b.WriteString(fmt.Sprintf("  Accuracy  %d%%\n", snap.Accuracy))
	b.WriteString(fmt.Sprintf("  Words     %d\n", p.sess.WordIndex()))
	b.WriteString("\n" + footerStyle.Render("enter: again  esc: quit"))
	if p.width == 0 || p.height == 0 {
		return b.String()
	}
	return lipgloss.Place(p.width, p.height, lipgloss.Center, lipgloss.Center, b.String())
}

func (p *Practice) renderFooter() string {
	snap := p.sess.Snapshot()
	segments := []string{fmt.Sprintf("Progress %d%%", snap.Progress)}
	if p.sess.State() == session.StateRunning {
		segments = append(segments, fmt.Sprintf("Now %.1f WPM · %d%%", snap.WPM, snap.Accuracy))
	}
	if p.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.1f WPM · %d%%", p.lastWPM, p.lastAcc))
	}
	if p.allDuration > 0 {
		segments = append(segments, fmt.Sprintf("All-time %.1f WPM · %.1f%%", p.allWPM, p.allAcc*100))
	}
	return footerStyle.Render(strings.Join(segments, "  "))
}

func (p *Practice) loadFooterStats() {
	ctx := context.Background()
	sessions, err := p.store.ListSessions(ctx, model.StatsConfig{Mode: p.config.Mode})
	if err != nil {
		logErrf("failed to load session stats: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	wpm, _, acc := statsPkg.SessionMetrics(last.Correct, last.Incorrect, last.DurationMs)
	p.lastWPM = wpm
	p.lastAcc = int(acc*100 + 0.5)
	p.hasLast = true

	for _, s := range sessions {
		p.allCorrect += s.Correct
		p.allIncorrect += s.Incorrect
		p.allDuration += s.DurationMs
	}
	p.recomputeAllTime()
}

func (p *Practice) recomputeAllTime() {
	wpm, _, acc := statsPkg.SessionMetrics(p.allCorrect, p.allIncorrect, p.allDuration)
	p.allWPM = wpm
	p.allAcc = acc
}

func (p *Practice) finishSession() {
	if p.saved {
		return
	}
	p.saved = true

	snap := p.sess.Snapshot()
	correct, incorrect := p.sess.Counters()
	endedAt := time.Now()
	durationMs := int64(p.sess.Elapsed() * 1000)
	if p.config.Mode == model.ModeTime {
		durationMs = int64(p.config.Seconds) * 1000
	}
	stats := model.SessionStats{
		StartedAt:      endedAt.Add(-time.Duration(durationMs) * time.Millisecond),
		EndedAt:        endedAt,
		Mode:           p.config.Mode,
		Target:         p.settings().Value,
		WordListPath:   p.config.WordListPath,
		CorrectChars:   correct,
		IncorrectChars: incorrect,
		WordsTyped:     p.sess.WordIndex(),
		DurationMs:     durationMs,
	}
	ctx := context.Background()
	if _, err := p.store.InsertSession(ctx, stats); err != nil {
		logErrf("failed to save session: %v\n", err)
	}

	p.lastWPM = snap.WPM
	p.lastAcc = snap.Accuracy
	p.hasLast = true
	p.allCorrect += correct
	p.allIncorrect += incorrect
	p.allDuration += durationMs
	p.recomputeAllTime()
}
