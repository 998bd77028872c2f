package models

// Constants are the admin-tunable game timings, all in seconds.
type Constants struct {
	InitialTime int `json:"initialTime" yaml:"initial_time"`
	PenaltyTime int `json:"penaltyTime" yaml:"penalty_time"`
	BonusTime   int `json:"bonusTime" yaml:"bonus_time"`
}

// DefaultConstants are used until an admin changes them, and whenever the
// store cannot be reached.
var DefaultConstants = Constants{
	InitialTime: 30,
	PenaltyTime: 5,
	BonusTime:   5,
}
