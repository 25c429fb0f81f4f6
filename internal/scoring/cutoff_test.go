package scoring

import (
	"testing"
	"time"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

var (
	qualiTime  = time.Date(2025, 5, 24, 14, 0, 0, 0, time.UTC)
	sprintQual = time.Date(2025, 5, 23, 15, 30, 0, 0, time.UTC)
)

func regularRace() models.Race {
	return models.Race{
		ID:             1,
		Season:         2025,
		Round:          8,
		Name:           "Monaco Grand Prix",
		QualifyingDate: qualiTime,
		GrandPrixDate:  qualiTime.Add(24 * time.Hour),
	}
}

func sprintRace() models.Race {
	r := regularRace()
	sq := sprintQual
	sprint := sprintQual.Add(20 * time.Hour)
	r.SprintQualifyingDate = &sq
	r.SprintDate = &sprint
	return r
}

func TestTipsDueDates_Regular(t *testing.T) {
	due := TipsDueDates(regularRace(), 60)

	if due.Sprint != nil {
		t.Errorf("expected no sprint deadline, got %v", due.Sprint)
	}
	want := qualiTime.Add(-time.Hour)
	if !due.GrandPrix.Equal(want) {
		t.Errorf("expected grand prix deadline %v, got %v", want, due.GrandPrix)
	}
}

func TestTipsDueDates_Sprint(t *testing.T) {
	due := TipsDueDates(sprintRace(), 30)

	if due.Sprint == nil {
		t.Fatal("expected sprint deadline")
	}
	if want := sprintQual.Add(-30 * time.Minute); !due.Sprint.Equal(want) {
		t.Errorf("expected sprint deadline %v, got %v", want, *due.Sprint)
	}
	if want := qualiTime.Add(-30 * time.Minute); !due.GrandPrix.Equal(want) {
		t.Errorf("expected grand prix deadline %v, got %v", want, due.GrandPrix)
	}
}

func TestTipsDueDates_ZeroCutoffEqualsReference(t *testing.T) {
	due := TipsDueDates(sprintRace(), 0)
	if !due.GrandPrix.Equal(qualiTime) {
		t.Errorf("expected deadline to equal qualifying, got %v", due.GrandPrix)
	}
	if !due.Sprint.Equal(sprintQual) {
		t.Errorf("expected deadline to equal sprint qualifying, got %v", *due.Sprint)
	}
}

func TestClosedFields(t *testing.T) {
	tests := []struct {
		name       string
		race       models.Race
		now        time.Time
		wantClosed []models.PredictionField
	}{
		{
			name: "regular race well before deadline",
			race: regularRace(),
			now:  qualiTime.Add(-48 * time.Hour),
		},
		{
			name: "regular race one second before deadline",
			race: regularRace(),
			now:  qualiTime.Add(-time.Hour - time.Second),
		},
		{
			name:       "regular race exactly at deadline",
			race:       regularRace(),
			now:        qualiTime.Add(-time.Hour),
			wantClosed: models.RaceFields,
		},
		{
			name:       "regular race after qualifying",
			race:       regularRace(),
			now:        qualiTime.Add(time.Hour),
			wantClosed: models.RaceFields,
		},
		{
			name: "sprint race before sprint deadline",
			race: sprintRace(),
			now:  sprintQual.Add(-2 * time.Hour),
		},
		{
			name:       "sprint race between deadlines",
			race:       sprintRace(),
			now:        sprintQual,
			wantClosed: []models.PredictionField{models.FieldSprintP1},
		},
		{
			name:       "sprint race after grand prix deadline",
			race:       sprintRace(),
			now:        qualiTime,
			wantClosed: models.RaceFields,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			closed := ClosedFields(tt.race, 60, tt.now)
			if len(closed) != len(tt.wantClosed) {
				t.Fatalf("expected %d closed fields, got %v", len(tt.wantClosed), closed.Sorted())
			}
			for _, f := range tt.wantClosed {
				if !closed.Has(f) {
					t.Errorf("expected %s to be closed", f)
				}
			}
		})
	}
}

func TestClosedFields_MissingQualifyingClosesEverything(t *testing.T) {
	race := regularRace()
	race.QualifyingDate = time.Time{}

	closed := ClosedFields(race, 60, qualiTime.Add(-30*24*time.Hour))
	if len(closed) != len(models.RaceFields) {
		t.Errorf("expected all race fields closed, got %v", closed.Sorted())
	}
}

func TestClosedFields_Monotonic(t *testing.T) {
	race := sprintRace()
	start := sprintQual.Add(-6 * time.Hour)
	prev := ClosedFields(race, 45, start)

	for now := start; now.Before(qualiTime.Add(time.Hour)); now = now.Add(7 * time.Minute) {
		closed := ClosedFields(race, 45, now)
		for f := range prev {
			if !closed.Has(f) {
				t.Fatalf("field %s reopened at %v", f, now)
			}
		}
		prev = closed
	}
}

func TestClosedFields_NonSprintNeverClosesSprintEarly(t *testing.T) {
	race := regularRace()
	for _, cutoffMinutes := range []int{0, 15, 60, 1440} {
		due := TipsDueDates(race, cutoffMinutes)
		closed := ClosedFields(race, cutoffMinutes, due.GrandPrix.Add(-time.Nanosecond))
		if closed.Has(models.FieldSprintP1) {
			t.Errorf("cutoff %d: sprintP1 closed before grand prix deadline", cutoffMinutes)
		}
		if len(closed) != 0 {
			t.Errorf("cutoff %d: expected no closed fields, got %v", cutoffMinutes, closed.Sorted())
		}
	}
}

func TestIsRaceTippable(t *testing.T) {
	tests := []struct {
		name string
		race models.Race
		now  time.Time
		want bool
	}{
		{"regular open", regularRace(), qualiTime.Add(-2 * time.Hour), true},
		{"regular at deadline", regularRace(), qualiTime.Add(-time.Hour), false},
		{"sprint open", sprintRace(), sprintQual.Add(-2 * time.Hour), true},
		{"sprint only sprint closed", sprintRace(), sprintQual, true},
		{"sprint all closed", sprintRace(), qualiTime, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsRaceTippable(tt.race, 60, tt.now); got != tt.want {
				t.Errorf("IsRaceTippable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsFieldAfterCutoff(t *testing.T) {
	race := sprintRace()

	tests := []struct {
		name  string
		field models.PredictionField
		now   time.Time
		want  bool
	}{
		{"pole before", models.FieldPole, qualiTime.Add(-61 * time.Minute), false},
		{"pole at deadline", models.FieldPole, qualiTime.Add(-60 * time.Minute), true},
		{"sprint before", models.FieldSprintP1, sprintQual.Add(-61 * time.Minute), false},
		{"sprint at deadline", models.FieldSprintP1, sprintQual.Add(-60 * time.Minute), true},
		{"championship has no reference", models.FieldChampionshipDriver, qualiTime.Add(-100 * time.Hour), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsFieldAfterCutoff(race, tt.field, tt.now, 60); got != tt.want {
				t.Errorf("IsFieldAfterCutoff(%s) = %v, want %v", tt.field, got, tt.want)
			}
		})
	}
}

func TestIsFieldAfterCutoff_SprintFieldOnRegularWeekendIsClosed(t *testing.T) {
	if !IsFieldAfterCutoff(regularRace(), models.FieldSprintP1, qualiTime.Add(-100*time.Hour), 60) {
		t.Error("expected sprintP1 without sprint qualifying to be treated as closed")
	}
}

func TestIsFieldAfterCutoff_AgreesWithClosedFields(t *testing.T) {
	race := sprintRace()
	for now := sprintQual.Add(-3 * time.Hour); now.Before(qualiTime.Add(time.Hour)); now = now.Add(10 * time.Minute) {
		closed := ClosedFields(race, 60, now)
		for _, f := range models.RaceFields {
			if closed.Has(f) != IsFieldAfterCutoff(race, f, now, 60) {
				t.Fatalf("%s disagrees at %v", f, now)
			}
		}
	}
}

func TestReferenceSession_CoversAllRaceFields(t *testing.T) {
	for _, f := range models.RaceFields {
		if _, ok := ReferenceSession(f); !ok {
			t.Errorf("race field %s has no reference session", f)
		}
	}
	for _, f := range models.ChampionshipFields {
		if _, ok := ReferenceSession(f); ok {
			t.Errorf("championship field %s should not have a race reference", f)
		}
	}
}
