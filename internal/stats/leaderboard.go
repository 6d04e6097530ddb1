package stats

import (
	"fmt"
	"io"

	"github.com/rapidkeys/rapidkeys/internal/model"
)

// RenderLeaderboard prints the global leaderboard as an aligned table.
func RenderLeaderboard(w io.Writer, entries []model.LeaderboardEntry) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No leaderboard entries yet.")
		return err
	}
	cols := []column{
		{title: "#", right: true},
		{title: "Player"},
		{title: "Best WPM", right: true},
		{title: "Accuracy", right: true},
		{title: "Races", right: true},
	}
	rows := make([][]string, 0, len(entries))
	for i, e := range entries {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			e.Username,
			fmt.Sprintf("%d", e.BestWPM),
			fmt.Sprintf("%d%%", e.Accuracy),
			fmt.Sprintf("%d", e.Races),
		})
	}
	for _, line := range alignRows(cols, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderRankings prints final race rankings as an aligned table.
func RenderRankings(w io.Writer, ranked []model.RankedUser) error {
	if len(ranked) == 0 {
		_, err := fmt.Fprintln(w, "No racers.")
		return err
	}
	cols := []column{
		{title: "Rank", right: true},
		{title: "Player"},
		{title: "Progress", right: true},
		{title: "WPM", right: true},
		{title: "Accuracy", right: true},
	}
	rows := make([][]string, 0, len(ranked))
	for i, r := range ranked {
		rows = append(rows, []string{
			fmt.Sprintf("%d", i+1),
			r.Username,
			fmt.Sprintf("%d%%", r.Progress),
			fmt.Sprintf("%d", r.WPM),
			fmt.Sprintf("%d%%", r.Accuracy),
		})
	}
	for _, line := range alignRows(cols, rows) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}
