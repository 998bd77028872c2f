package game

import (
	"sort"

	"github.com/jason-s-yu/spotdiff/internal/models"
)

// InsertBestTime places entry into a leaderboard kept ascending by time and
// truncated to models.MaxBestTimes entries. It returns the new board and the
// 1-based rank the entry obtained, or 0 when it did not place. Equal times
// keep the earlier holder ahead.
func InsertBestTime(board []models.BestTime, entry models.BestTime) ([]models.BestTime, int) {
	sorted := make([]models.BestTime, len(board))
	copy(sorted, board)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time < sorted[j].Time })

	pos := sort.Search(len(sorted), func(i int) bool { return sorted[i].Time > entry.Time })
	if pos >= models.MaxBestTimes {
		if len(sorted) > models.MaxBestTimes {
			sorted = sorted[:models.MaxBestTimes]
		}
		return sorted, 0
	}

	out := make([]models.BestTime, 0, len(sorted)+1)
	out = append(out, sorted[:pos]...)
	out = append(out, entry)
	out = append(out, sorted[pos:]...)
	if len(out) > models.MaxBestTimes {
		out = out[:models.MaxBestTimes]
	}
	return out, pos + 1
}
