// Package model defines shared data structures.
package model

import "time"

// Mode selects how a typing session is bounded.
type Mode string

// Session modes.
const (
	ModeWords Mode = "words"
	ModeTime  Mode = "time"
)

// WordModeValues are the accepted word counts for words mode.
var WordModeValues = []int{10, 25, 50, 75}

// TimeModeValues are the accepted durations in seconds for time mode.
var TimeModeValues = []int{15, 30, 60, 100}

// ValidValue reports whether value is accepted for the mode.
func (m Mode) ValidValue(value int) bool {
	var allowed []int
	switch m {
	case ModeWords:
		allowed = WordModeValues
	case ModeTime:
		allowed = TimeModeValues
	default:
		return false
	}
	for _, v := range allowed {
		if v == value {
			return true
		}
	}
	return false
}

// Settings bound a race or practice session.
type Settings struct {
	Mode  Mode `json:"mode"`
	Value int  `json:"value"`
}

// Config defines practice settings.
type Config struct {
	Mode         Mode
	Words        int
	Seconds      int
	WordListPath string
	CapsPct      float64
	PunctPct     float64
	PunctSet     string
	WordRevert   bool
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	Mode        Mode
	Since       *time.Time
	Last        int
	CurveWindow int
}

// SessionStats captures a completed typing session.
type SessionStats struct {
	StartedAt      time.Time
	EndedAt        time.Time
	Mode           Mode
	Target         int
	WordListPath   string
	CorrectChars   int
	IncorrectChars int
	WordsTyped     int
	DurationMs     int64
}

// SessionAggregate summarizes a session for reporting.
type SessionAggregate struct {
	SessionID  int64
	EndedAt    time.Time
	Correct    int
	Incorrect  int
	DurationMs int64
}

// RoomUser is one roster entry, mirrored from server broadcasts.
type RoomUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	IsHost   bool   `json:"is_host"`
	WPM      int    `json:"wpm"`
	Accuracy int    `json:"accuracy"`
	Progress int    `json:"progress"`
}

// ChatMessage is one chat log entry. The display ID is assigned locally
// on the client; the server does not guarantee one.
type ChatMessage struct {
	ID        int       `json:"id,omitempty"`
	UserID    string    `json:"user_id"`
	Username  string    `json:"username"`
	Text      string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Room mirrors the server-side room state.
type Room struct {
	Code        string        `json:"code"`
	Settings    Settings      `json:"settings"`
	CreatorID   string        `json:"creator_id"`
	Users       []RoomUser    `json:"users"`
	Messages    []ChatMessage `json:"messages"`
	RaceStarted bool          `json:"race_started"`
	StartedAt   *time.Time    `json:"started_at,omitempty"`
	Words       []string      `json:"words,omitempty"`
}

// Progress is one participant's live race metrics.
type Progress struct {
	Progress int `json:"progress"`
	WPM      int `json:"wpm"`
	Accuracy int `json:"accuracy"`
}

// RankedUser is one row of the final race ranking.
type RankedUser struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	WPM      int    `json:"wpm"`
	Accuracy int    `json:"accuracy"`
	Progress int    `json:"progress"`
}

// RoomSummary describes an active room in listings.
type RoomSummary struct {
	Code        string    `json:"code"`
	UserCount   int       `json:"user_count"`
	RaceStarted bool      `json:"race_started"`
	CreatedAt   time.Time `json:"created_at"`
	Settings    Settings  `json:"settings"`
}

// Profile is the authenticated user's account view.
type Profile struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	BestWPM  int    `json:"best_wpm"`
	Races    int    `json:"races"`
}

// LeaderboardEntry is one global leaderboard row.
type LeaderboardEntry struct {
	Username string `json:"username"`
	BestWPM  int    `json:"best_wpm"`
	Accuracy int    `json:"accuracy"`
	Races    int    `json:"races"`
}
