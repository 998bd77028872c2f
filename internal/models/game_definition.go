package models

// Coordinate is a pixel position on the compared images.
type Coordinate struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// DifferenceGroup is the set of pixels forming one difference.
type DifferenceGroup []Coordinate

// Contains reports whether c belongs to the group.
func (d DifferenceGroup) Contains(c Coordinate) bool {
	for _, p := range d {
		if p == c {
			return true
		}
	}
	return false
}

func (d DifferenceGroup) Clone() DifferenceGroup {
	if d == nil {
		return nil
	}
	cp := make(DifferenceGroup, len(d))
	copy(cp, d)
	return cp
}

// GameDefinition is a pair of images plus the remaining difference groups.
// DifferenceCount is the original number of groups and does not shrink as
// groups are consumed.
type GameDefinition struct {
	Name            string            `json:"name"`
	OriginalImage   string            `json:"originalImage"`
	ModifiedImage   string            `json:"modifiedImage"`
	Differences     []DifferenceGroup `json:"differences"`
	DifferenceCount int               `json:"differenceCount"`
	IsHard          bool              `json:"isHard"`
}

// Clone returns a deep copy of the definition.
func (g GameDefinition) Clone() GameDefinition {
	cp := g
	cp.Differences = make([]DifferenceGroup, len(g.Differences))
	for i, grp := range g.Differences {
		cp.Differences[i] = grp.Clone()
	}
	return cp
}
