package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rapidkeys/rapidkeys/internal/model"
	"github.com/rapidkeys/rapidkeys/internal/protocol"
	"github.com/rapidkeys/rapidkeys/internal/race"
	"github.com/rapidkeys/rapidkeys/internal/room"
	"github.com/rapidkeys/rapidkeys/internal/session"
	statsPkg "github.com/rapidkeys/rapidkeys/internal/stats"
	"github.com/rapidkeys/rapidkeys/internal/words"
)

const chatTail = 8

type connEventMsg room.Event

type connClosedMsg struct{}

type raceTickMsg time.Time

type deadlineTickMsg time.Time

type raceStartMsg struct{}

func waitForEvent(conn *room.Conn) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-conn.Events()
		if !ok {
			return connClosedMsg{}
		}
		return connEventMsg(ev)
	}
}

func raceTick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg {
		return raceTickMsg(t)
	})
}

// deadlineTick drives time-mode completion checks. Sampling stays on the
// coarser raceTick; this one only has to catch the deadline promptly.
func deadlineTick() tea.Cmd {
	return tea.Tick(100*time.Millisecond, func(t time.Time) tea.Msg {
		return deadlineTickMsg(t)
	})
}

// Race implements the multiplayer UI: lobby, countdown, live race and
// results, driven by room connection events.
type Race struct {
	conn  *room.Conn
	coord *race.Coordinator
	gen   *words.Generator

	sess      *session.Session
	finalized bool

	chatInput textinput.Model

	width  int
	height int

	err error
}

// NewRace constructs the multiplayer TUI model around an open room
// connection.
func NewRace(conn *room.Conn) *Race {
	ti := textinput.New()
	ti.Placeholder = "say something"
	ti.CharLimit = 200
	ti.Focus()
	return &Race{
		conn:      conn,
		coord:     race.NewCoordinator(),
		chatInput: ti,
	}
}

// Init implements tea.Model.
func (r *Race) Init() tea.Cmd {
	return tea.Batch(waitForEvent(r.conn), raceTick(), deadlineTick())
}

// Update implements tea.Model.
func (r *Race) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.width = msg.Width
		r.height = msg.Height
		r.chatInput.Width = msg.Width / 2
		return r, nil
	case connEventMsg:
		return r.handleConnEvent(room.Event(msg))
	case connClosedMsg:
		if r.err == nil && r.coord.Phase() != race.PhaseFinished {
			r.err = fmt.Errorf("connection closed")
		}
		return r, nil
	case raceStartMsg:
		if r.sess != nil {
			r.sess.StartAt(r.coord.StartAt())
		}
		return r, nil
	case raceTickMsg:
		return r.handleTick()
	case deadlineTickMsg:
		if r.sess != nil && !r.finalized && r.sess.State() == session.StateRunning && r.sess.Tick() {
			r.finalize()
		}
		return r, deadlineTick()
	case tea.KeyMsg:
		return r.handleKey(msg)
	default:
		return r, nil
	}
}

func (r *Race) handleConnEvent(ev room.Event) (tea.Model, tea.Cmd) {
	if ev.Err != nil {
		r.err = ev.Err
		return r, nil
	}
	r.coord.Apply(ev.Server)
	cmds := []tea.Cmd{waitForEvent(r.conn)}
	if started, ok := ev.Server.(protocol.RaceStarted); ok {
		r.beginRace()
		if wait := time.Until(started.StartTime); wait > 0 {
			cmds = append(cmds, tea.Tick(wait, func(time.Time) tea.Msg {
				return raceStartMsg{}
			}))
		} else {
			cmds = append(cmds, func() tea.Msg { return raceStartMsg{} })
		}
	}
	return r, tea.Batch(cmds...)
}

// beginRace builds the local session over the server's shared word
// sequence. Time-mode extensions draw from the broadcast seed, so every
// participant extends into the same words. The clock stays anchored to
// the broadcast start instant.
func (r *Race) beginRace() {
	settings := r.coord.Room().Settings
	r.gen = words.NewSeeded(r.coord.Seed())
	r.sess = session.New(settings, r.coord.Words(), session.Options{
		ManualStart: true,
		Extend: func(n int) []string {
			return r.gen.Pick(words.Common, n)
		},
	})
	r.finalized = false
}

func (r *Race) handleTick() (tea.Model, tea.Cmd) {
	if r.sess != nil && !r.finalized && r.sess.State() == session.StateRunning {
		p := r.sess.Sample()
		r.conn.Send(protocol.NewProgress(p))
		r.coord.RecordSelf(p)
	}
	return r, raceTick()
}

func (r *Race) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		r.conn.Close()
		return r, tea.Quit
	}
	if r.err != nil {
		return r, tea.Quit
	}
	switch r.coord.Phase() {
	case race.PhaseConnecting:
		return r, nil
	case race.PhaseLobby:
		return r.handleLobbyKey(msg)
	case race.PhaseRacing:
		return r.handleRacingKey(msg)
	default:
		if msg.Type == tea.KeyEnter || msg.Type == tea.KeyEsc {
			r.conn.Close()
			return r, tea.Quit
		}
		return r, nil
	}
}

func (r *Race) handleLobbyKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		r.conn.Close()
		return r, tea.Quit
	case tea.KeyEnter:
		text := strings.TrimSpace(r.chatInput.Value())
		if text != "" {
			r.conn.Send(protocol.NewChat(text, time.Now().UTC()))
			r.chatInput.Reset()
		}
		return r, nil
	case tea.KeyTab:
		if r.coord.IsHost() {
			r.conn.Send(protocol.NewStartRace())
		}
		return r, nil
	}
	var cmd tea.Cmd
	r.chatInput, cmd = r.chatInput.Update(msg)
	return r, cmd
}

func (r *Race) handleRacingKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if r.sess == nil || r.finalized {
		return r, nil
	}
	switch msg.Type {
	case tea.KeyBackspace, tea.KeyDelete:
		r.sess.ApplyKey(session.Key{Kind: session.KeyBackspace})
	case tea.KeySpace:
		r.sess.ApplyKey(session.Key{Kind: session.KeySpace})
	case tea.KeyRunes:
		for _, rn := range msg.Runes {
			r.sess.ApplyKey(session.Key{Kind: session.KeyRune, Rune: rn})
		}
	}
	if r.sess.State() == session.StateCompleted {
		r.finalize()
	}
	return r, nil
}

// finalize freezes the local result, reports it, and moves to results.
// Later progress ticks are suppressed so the frozen metrics stand.
func (r *Race) finalize() {
	if r.finalized {
		return
	}
	r.finalized = true
	snap := r.sess.Snapshot()
	final := model.Progress{
		Progress: snap.Progress,
		WPM:      statsPkg.RoundWPM(snap.WPM),
		Accuracy: snap.Accuracy,
	}
	r.conn.Send(protocol.NewProgress(final))
	r.coord.FinishSelf(final)
}

// View implements tea.Model.
func (r *Race) View() string {
	var content string
	switch {
	case r.err != nil:
		content = r.viewError()
	case r.coord.Phase() == race.PhaseConnecting:
		content = "joining room..."
	case r.coord.Phase() == race.PhaseLobby:
		content = r.viewLobby()
	case r.coord.Phase() == race.PhaseRacing:
		content = r.viewRacing()
	default:
		content = r.viewResults()
	}
	if r.width == 0 || r.height == 0 {
		return content
	}
	return lipgloss.Place(r.width, r.height, lipgloss.Center, lipgloss.Center, content)
}

func (r *Race) viewError() string {
	var b strings.Builder
	b.WriteString(errorStyle.Render("Connection error") + "\n\n")
	b.WriteString("  " + r.err.Error() + "\n\n")
	b.WriteString(footerStyle.Render("press any key to exit"))
	return b.String()
}

func (r *Race) viewLobby() string {
	rm := r.coord.Room()
	var b strings.Builder
	b.WriteString(headerStyle.Render("Room "+rm.Code) + "\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf("%s / %d", rm.Settings.Mode, rm.Settings.Value)) + "\n\n")

	for _, u := range rm.Users {
		line := "  " + u.Username
		if u.IsHost {
			line += " " + hostMarkStyle.Render("(host)")
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")

	chat := r.coord.Chat()
	start := 0
	if len(chat) > chatTail {
		start = len(chat) - chatTail
	}
	for _, msg := range chat[start:] {
		b.WriteString(chatNameStyle.Render(msg.Username) + ": " + msg.Text + "\n")
	}
	b.WriteString("\n" + r.chatInput.View() + "\n\n")

	hint := "enter: chat  esc: leave"
	if r.coord.IsHost() {
		hint = "tab: start race  " + hint
	} else {
		hint = "waiting for the host to start  " + hint
	}
	b.WriteString(footerStyle.Render(hint))
	return b.String()
}

func (r *Race) viewRacing() string {
	if r.sess == nil {
		return "starting..."
	}
	if wait := time.Until(r.coord.StartAt()); wait > 0 {
		return headerStyle.Render(fmt.Sprintf("starting in %d...", int(wait.Seconds())+1))
	}

	views := r.sess.WordViews(0, len(r.sess.Words()))
	styled := buildStyledWords(views)
	contentWidth := 60
	if r.width > 0 {
		contentWidth = int(float64(r.width) * 0.70)
		if contentWidth < 1 {
			contentWidth = 1
		}
	}
	typing := wrapStyledRunes(styled, contentWidth)

	var b strings.Builder
	b.WriteString(typing + "\n\n")
	b.WriteString(r.renderStandings(contentWidth))
	return b.String()
}

func (r *Race) renderStandings(width int) string {
	standings := r.coord.Standings()
	nameWidth := 0
	for _, u := range standings {
		if len(u.Username) > nameWidth {
			nameWidth = len(u.Username)
		}
	}
	barWidth := width - nameWidth - 20
	if barWidth < 10 {
		barWidth = 10
	}
	var b strings.Builder
	for _, u := range standings {
		b.WriteString(fmt.Sprintf("%-*s %s %3d%% %3d wpm\n",
			nameWidth, u.Username, renderBar(u.Progress, barWidth), u.Progress, u.WPM))
	}
	return b.String()
}

func renderBar(progress, width int) string {
	if progress < 0 {
		progress = 0
	}
	if progress > 100 {
		progress = 100
	}
	filled := progress * width / 100
	return barFillStyle.Render(strings.Repeat("█", filled)) +
		barEmptyStyle.Render(strings.Repeat("░", width-filled))
}

func (r *Race) viewResults() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Race results") + "\n\n")
	if err := statsPkg.RenderRankings(&b, r.coord.Rankings()); err != nil {
		logErrf("failed to render rankings: %v\n", err)
	}
	if r.sess != nil && len(r.sess.Chart().Samples()) > 1 {
		b.WriteString("\n")
		width := r.width
		if width == 0 {
			width = 80
		}
		if err := statsPkg.RenderRaceChart(&b, r.sess.Chart(), width, 8, true); err != nil {
			logErrf("failed to render race chart: %v\n", err)
		}
	}
	b.WriteString("\n" + footerStyle.Render("enter: exit"))
	return b.String()
}
