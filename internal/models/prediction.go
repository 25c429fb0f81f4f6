package models

import "time"

// PredictionField is a slot a member can tip
type PredictionField string

const (
	FieldPole                      PredictionField = "pole"
	FieldP1                        PredictionField = "p1"
	FieldP10                       PredictionField = "p10"
	FieldLast                      PredictionField = "last"
	FieldConstructorWithMostPoints PredictionField = "constructorWithMostPoints"
	FieldSprintP1                  PredictionField = "sprintP1"
	FieldChampionshipDriver        PredictionField = "championshipDriver"
	FieldChampionshipConstructor   PredictionField = "championshipConstructor"
)

// RaceFields lists every race-scoped field in display order
var RaceFields = []PredictionField{
	FieldPole,
	FieldP1,
	FieldP10,
	FieldLast,
	FieldConstructorWithMostPoints,
	FieldSprintP1,
}

// ChampionshipFields lists every championship-scoped field
var ChampionshipFields = []PredictionField{
	FieldChampionshipDriver,
	FieldChampionshipConstructor,
}

// ParsePredictionField converts a wire value into a known field
func ParsePredictionField(s string) (PredictionField, bool) {
	f := PredictionField(s)
	if f.IsRaceField() || f.IsChampionshipField() {
		return f, true
	}
	return "", false
}

// IsRaceField reports whether the field belongs to a single race
func (f PredictionField) IsRaceField() bool {
	switch f {
	case FieldPole, FieldP1, FieldP10, FieldLast, FieldConstructorWithMostPoints, FieldSprintP1:
		return true
	}
	return false
}

// IsChampionshipField reports whether the field belongs to the season championship
func (f PredictionField) IsChampionshipField() bool {
	return f == FieldChampionshipDriver || f == FieldChampionshipConstructor
}

// IsConstructorField reports whether the field is answered with a constructor id
func (f PredictionField) IsConstructorField() bool {
	return f == FieldConstructorWithMostPoints || f == FieldChampionshipConstructor
}

// Overwrite is an admin decision that replaces result comparison for one entry
type Overwrite string

const (
	OverwriteNone             Overwrite = ""
	OverwriteCountAsCorrect   Overwrite = "countAsCorrect"
	OverwriteCountAsIncorrect Overwrite = "countAsIncorrect"
)

// Valid reports whether o is a known overwrite value
func (o Overwrite) Valid() bool {
	switch o {
	case OverwriteNone, OverwriteCountAsCorrect, OverwriteCountAsIncorrect:
		return true
	}
	return false
}

// PredictionEntry is one tipped field of one member for one race.
// RaceID is nil for championship entries.
type PredictionEntry struct {
	ID            int             `json:"id"`
	MemberID      int             `json:"member_id"`
	RaceID        *int            `json:"race_id,omitempty"`
	Season        int             `json:"season"`
	Field         PredictionField `json:"field"`
	DriverID      string          `json:"driver_id,omitempty"`
	ConstructorID string          `json:"constructor_id,omitempty"`
	Overwrite     Overwrite       `json:"overwrite_to,omitempty"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// Value returns the driver or constructor id depending on the field
func (e PredictionEntry) Value() string {
	if e.Field.IsConstructorField() {
		return e.ConstructorID
	}
	return e.DriverID
}
