package models

// Player identifies a connected client by its connection id and display name.
type Player struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// GuestInfo is the guest slot of a 1v1 room. An empty Name means the room
// is still awaiting its guest.
type GuestInfo struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	DifferencesFound int               `json:"differencesFound"`
	GroupsFound      []DifferenceGroup `json:"groupsFound,omitempty"`
}

func (g *GuestInfo) clone() *GuestInfo {
	if g == nil {
		return nil
	}
	cp := *g
	cp.GroupsFound = make([]DifferenceGroup, len(g.GroupsFound))
	for i, grp := range g.GroupsFound {
		cp.GroupsFound[i] = grp.Clone()
	}
	return &cp
}
