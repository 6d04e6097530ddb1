package race

import (
	"sort"

	"github.com/rapidkeys/rapidkeys/internal/model"
)

// ComputeRankings orders participants for the results screen: farthest
// progress first, speed breaking ties, roster order breaking the rest.
// The input is not modified; calling it again on the same standings
// yields the same ordering.
func ComputeRankings(standings []model.RoomUser) []model.RankedUser {
	ranked := make([]model.RankedUser, len(standings))
	for i, u := range standings {
		ranked[i] = model.RankedUser{
			UserID:   u.ID,
			Username: u.Username,
			WPM:      u.WPM,
			Accuracy: u.Accuracy,
			Progress: u.Progress,
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Progress != ranked[j].Progress {
			return ranked[i].Progress > ranked[j].Progress
		}
		return ranked[i].WPM > ranked[j].WPM
	})
	return ranked
}
