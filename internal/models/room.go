package models

// GameMode is the kind of session a room runs.
type GameMode string

const (
	ModeClassicSolo GameMode = "classic_solo"
	ModeClassic1v1  GameMode = "classic_1v1"
	ModeLimitedSolo GameMode = "limited_solo"
	ModeLimited1v1  GameMode = "limited_1v1"
)

func (m GameMode) Valid() bool {
	switch m {
	case ModeClassicSolo, ModeClassic1v1, ModeLimitedSolo, ModeLimited1v1:
		return true
	}
	return false
}

func (m GameMode) IsClassic() bool { return m == ModeClassicSolo || m == ModeClassic1v1 }

func (m GameMode) IsLimited() bool { return m == ModeLimitedSolo || m == ModeLimited1v1 }

func (m GameMode) IsMultiplayer() bool { return m == ModeClassic1v1 || m == ModeLimited1v1 }

// Room is the server-side state of one game session.
type Room struct {
	ID                string          `json:"roomId"`
	HostID            string          `json:"hostId"`
	HostName          string          `json:"hostName"`
	HintPenalty       int             `json:"hintPenalty"`
	GameMode          GameMode        `json:"gameMode"`
	Game              GameDefinition  `json:"game"`
	Timer             int             `json:"timer"`
	DifferencesFound  int             `json:"differencesFound"`
	CurrentDifference DifferenceGroup `json:"currentDifference"`
	Guest             *GuestInfo      `json:"guestInfo,omitempty"`
	RoomTaken         bool            `json:"roomTaken"`
	EndGameMessage    string          `json:"endGameMessage,omitempty"`
}

// Clone returns a deep copy that shares no slices or pointers with r.
func (r *Room) Clone() *Room {
	cp := *r
	cp.Game = r.Game.Clone()
	cp.CurrentDifference = r.CurrentDifference.Clone()
	cp.Guest = r.Guest.clone()
	return &cp
}

// AwaitingGuest reports whether a multiplayer room has no named guest yet.
func (r *Room) AwaitingGuest() bool {
	return r.GameMode.IsMultiplayer() && (r.Guest == nil || r.Guest.Name == "")
}

// Finished reports whether the end of game has already been declared.
func (r *Room) Finished() bool { return r.EndGameMessage != "" }

// IsMember reports whether playerID is the host or the guest.
func (r *Room) IsMember(playerID string) bool {
	if playerID == "" {
		return false
	}
	return r.HostID == playerID || (r.Guest != nil && r.Guest.ID == playerID)
}

// PlayerName returns the display name of a member, or "" if unknown.
func (r *Room) PlayerName(playerID string) string {
	switch {
	case playerID == "":
		return ""
	case r.HostID == playerID:
		return r.HostName
	case r.Guest != nil && r.Guest.ID == playerID:
		return r.Guest.Name
	}
	return ""
}

// RoomSummary is the matchmaking-visible projection of an awaiting room.
type RoomSummary struct {
	RoomID   string   `json:"roomId"`
	GameName string   `json:"gameName"`
	HostName string   `json:"hostName"`
	GameMode GameMode `json:"gameMode"`
}

func (r *Room) Summary() RoomSummary {
	return RoomSummary{RoomID: r.ID, GameName: r.Game.Name, HostName: r.HostName, GameMode: r.GameMode}
}
