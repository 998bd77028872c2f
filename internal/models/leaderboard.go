package models

// MaxBestTimes is the number of entries kept per game and per mode.
const MaxBestTimes = 3

// BestTime is one leaderboard entry; Time is in seconds.
type BestTime struct {
	Name string `json:"name"`
	Time int    `json:"time"`
}

// BestTimes holds the solo and 1v1 leaderboards of a single game.
type BestTimes struct {
	GameName string     `json:"gameName"`
	Solo     []BestTime `json:"solo"`
	Multi    []BestTime `json:"multi"`
}

// ForMode returns the leaderboard matching multiplayer.
func (b BestTimes) ForMode(multiplayer bool) []BestTime {
	if multiplayer {
		return b.Multi
	}
	return b.Solo
}
