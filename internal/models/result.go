package models

import "sort"

// Session names a classified session of a race weekend
type Session string

const (
	SessionQualifying Session = "qualifying"
	SessionGrandPrix  Session = "grand_prix"
	SessionSprint     Session = "sprint"
)

// RaceResult is the official classification of one race.
// Position maps go position -> driver id.
type RaceResult struct {
	RaceID            int                `json:"race_id"`
	GrandPrix         map[int]string     `json:"grand_prix"`
	Sprint            map[int]string     `json:"sprint,omitempty"`
	Qualifying        map[int]string     `json:"qualifying"`
	ConstructorPoints map[string]float64 `json:"constructor_points"`
}

// NewRaceResult returns a RaceResult with all maps initialised
func NewRaceResult(raceID int) RaceResult {
	return RaceResult{
		RaceID:            raceID,
		GrandPrix:         make(map[int]string),
		Sprint:            make(map[int]string),
		Qualifying:        make(map[int]string),
		ConstructorPoints: make(map[string]float64),
	}
}

// HasSprint reports whether sprint classification is present
func (r RaceResult) HasSprint() bool {
	return len(r.Sprint) > 0
}

// TopConstructors returns every constructor tied at the highest points total, sorted by id
func (r RaceResult) TopConstructors() []string {
	var top []string
	var max float64
	for id, pts := range r.ConstructorPoints {
		switch {
		case len(top) == 0 || pts > max:
			max = pts
			top = []string{id}
		case pts == max:
			top = append(top, id)
		}
	}
	sort.Strings(top)
	return top
}

// IsTopConstructor reports whether constructorID is among TopConstructors
func (r RaceResult) IsTopConstructor(constructorID string) bool {
	for _, id := range r.TopConstructors() {
		if id == constructorID {
			return true
		}
	}
	return false
}

// LastPlaceDriver returns the driver holding the highest recorded grand prix position
func (r RaceResult) LastPlaceDriver() (string, bool) {
	maxPos := 0
	for pos := range r.GrandPrix {
		if pos > maxPos {
			maxPos = pos
		}
	}
	if maxPos == 0 {
		return "", false
	}
	return r.GrandPrix[maxPos], true
}
