// Package scoring decides when tips close and turns tips plus official results into standings.
// Every function is pure and safe for concurrent use.
package scoring

import (
	"time"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

// FieldSet is a set of prediction fields
type FieldSet map[models.PredictionField]struct{}

// Has reports whether f is in the set
func (s FieldSet) Has(f models.PredictionField) bool {
	_, ok := s[f]
	return ok
}

// Sorted returns the members in models.RaceFields order
func (s FieldSet) Sorted() []models.PredictionField {
	out := make([]models.PredictionField, 0, len(s))
	for _, f := range models.RaceFields {
		if s.Has(f) {
			out = append(out, f)
		}
	}
	return out
}

// DueDates holds the tip deadlines of a race for one group
type DueDates struct {
	Sprint    *time.Time `json:"sprint,omitempty"`
	GrandPrix time.Time  `json:"grand_prix"`
}

// ReferenceSession returns the session whose start closes field.
// Championship fields have no race reference.
func ReferenceSession(field models.PredictionField) (models.Session, bool) {
	switch field {
	case models.FieldPole, models.FieldP1, models.FieldP10, models.FieldLast, models.FieldConstructorWithMostPoints:
		return models.SessionQualifying, true
	case models.FieldSprintP1:
		return models.SessionSprint, true
	case models.FieldChampionshipDriver, models.FieldChampionshipConstructor:
		return "", false
	}
	return "", false
}

// referenceDate resolves the timestamp of field's reference session on race
func referenceDate(race models.Race, field models.PredictionField) (time.Time, bool) {
	session, ok := ReferenceSession(field)
	if !ok {
		return time.Time{}, false
	}
	switch session {
	case models.SessionQualifying:
		if race.QualifyingDate.IsZero() {
			return time.Time{}, false
		}
		return race.QualifyingDate, true
	case models.SessionSprint:
		if race.SprintQualifyingDate == nil || race.SprintQualifyingDate.IsZero() {
			return time.Time{}, false
		}
		return *race.SprintQualifyingDate, true
	}
	return time.Time{}, false
}

func cutoff(minutes int) time.Duration {
	return time.Duration(minutes) * time.Minute
}

// reached is the single boundary rule: the deadline instant itself counts as closed
func reached(now, deadline time.Time) bool {
	return !now.Before(deadline)
}

// TipsDueDates returns the sprint and grand prix deadlines of race
func TipsDueDates(race models.Race, cutoffMinutes int) DueDates {
	due := DueDates{GrandPrix: race.QualifyingDate.Add(-cutoff(cutoffMinutes))}
	if race.IsSprintWeekend() {
		sprint := race.SprintQualifyingDate.Add(-cutoff(cutoffMinutes))
		due.Sprint = &sprint
	}
	return due
}

// ClosedFields returns the race fields that can no longer be changed at now.
// The grand prix deadline closes every race field, sprintP1 may close earlier.
func ClosedFields(race models.Race, cutoffMinutes int, now time.Time) FieldSet {
	closed := make(FieldSet)
	due := TipsDueDates(race, cutoffMinutes)

	if due.Sprint != nil && reached(now, *due.Sprint) {
		closed[models.FieldSprintP1] = struct{}{}
	}
	if race.QualifyingDate.IsZero() || reached(now, due.GrandPrix) {
		for _, f := range models.RaceFields {
			closed[f] = struct{}{}
		}
	}
	return closed
}

// IsRaceTippable reports whether at least one relevant race field is still open.
// sprintP1 only counts on sprint weekends.
func IsRaceTippable(race models.Race, cutoffMinutes int, now time.Time) bool {
	closed := ClosedFields(race, cutoffMinutes, now)
	for _, f := range models.RaceFields {
		if f == models.FieldSprintP1 && !race.IsSprintWeekend() {
			continue
		}
		if !closed.Has(f) {
			return true
		}
	}
	return false
}

// IsFieldAfterCutoff reports whether field is closed for race at now.
// Fields without a reference date are treated as closed.
func IsFieldAfterCutoff(race models.Race, field models.PredictionField, now time.Time, cutoffMinutes int) bool {
	ref, ok := referenceDate(race, field)
	if !ok {
		return true
	}
	return reached(now, ref.Add(-cutoff(cutoffMinutes)))
}
