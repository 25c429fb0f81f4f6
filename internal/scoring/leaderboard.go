package scoring

import (
	"cmp"
	"slices"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

// LeaderboardEntry is one member's standing
type LeaderboardEntry struct {
	MemberID    int    `json:"member_id"`
	Name        string `json:"name"`
	Points      int    `json:"points"`
	Place       int    `json:"place"`
	PointsDelta *int   `json:"points_delta"`
	PlaceDelta  *int   `json:"place_delta"`
}

// ComputeLeaderboard scores predictions against results and ranks members.
//
// Ties share a place (competition ranking). When previousRaceID is set, deltas compare
// against the standings with that race's results and predictions removed; otherwise
// deltas stay nil. Empty results, predictions or members yield an empty leaderboard.
func ComputeLeaderboard(results map[int]models.RaceResult, predictions []models.PredictionEntry, members []models.Member, previousRaceID *int) []LeaderboardEntry {
	current := standings(results, predictions, members)
	if current == nil || previousRaceID == nil {
		return current
	}

	prior := priorStandings(results, predictions, members, *previousRaceID)
	byMember := make(map[int]LeaderboardEntry, len(prior))
	for _, e := range prior {
		byMember[e.MemberID] = e
	}

	for i := range current {
		p, ok := byMember[current[i].MemberID]
		if !ok {
			continue
		}
		pointsDelta := current[i].Points - p.Points
		placeDelta := p.Place - current[i].Place
		current[i].PointsDelta = &pointsDelta
		current[i].PlaceDelta = &placeDelta
	}
	return current
}

// priorStandings ranks members as they stood before raceID was scored
func priorStandings(results map[int]models.RaceResult, predictions []models.PredictionEntry, members []models.Member, raceID int) []LeaderboardEntry {
	priorResults := make(map[int]models.RaceResult, len(results))
	for id, r := range results {
		if id != raceID {
			priorResults[id] = r
		}
	}
	priorPredictions := make([]models.PredictionEntry, 0, len(predictions))
	for _, p := range predictions {
		if p.RaceID != nil && *p.RaceID == raceID {
			continue
		}
		priorPredictions = append(priorPredictions, p)
	}
	return standings(priorResults, priorPredictions, members)
}

// standings totals points and assigns places without deltas
func standings(results map[int]models.RaceResult, predictions []models.PredictionEntry, members []models.Member) []LeaderboardEntry {
	if len(results) == 0 || len(predictions) == 0 || len(members) == 0 {
		return nil
	}

	points := make(map[int]int, len(members))
	for _, m := range members {
		points[m.ID] = 0
	}

	type scoredKey struct {
		member int
		race   int
		field  models.PredictionField
	}
	seen := make(map[scoredKey]bool, len(predictions))

	for _, p := range predictions {
		if p.RaceID == nil {
			continue
		}
		if _, isMember := points[p.MemberID]; !isMember {
			continue
		}
		key := scoredKey{member: p.MemberID, race: *p.RaceID, field: p.Field}
		if seen[key] {
			continue
		}
		seen[key] = true

		if IsCorrect(p, results) {
			points[p.MemberID]++
		}
	}

	entries := make([]LeaderboardEntry, 0, len(members))
	for _, m := range members {
		entries = append(entries, LeaderboardEntry{MemberID: m.ID, Name: m.Name, Points: points[m.ID]})
	}
	slices.SortStableFunc(entries, func(a, b LeaderboardEntry) int {
		if c := cmp.Compare(b.Points, a.Points); c != 0 {
			return c
		}
		return cmp.Compare(a.Name, b.Name)
	})

	assignPlaces(entries)
	return entries
}

// assignPlaces sets competition-ranked places on entries sorted by points descending
func assignPlaces(entries []LeaderboardEntry) {
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Place = entries[i-1].Place
			continue
		}
		entries[i].Place = i + 1
	}
}

// IsCorrect reports whether a single race entry earns its point.
// Overwrites win over results; entries for unscored races are never correct.
func IsCorrect(p models.PredictionEntry, results map[int]models.RaceResult) bool {
	switch p.Overwrite {
	case models.OverwriteCountAsCorrect:
		return true
	case models.OverwriteCountAsIncorrect:
		return false
	}
	if p.RaceID == nil {
		return false
	}
	result, ok := results[*p.RaceID]
	if !ok {
		return false
	}

	switch p.Field {
	case models.FieldConstructorWithMostPoints:
		return p.ConstructorID != "" && result.IsTopConstructor(p.ConstructorID)
	case models.FieldSprintP1:
		return result.HasSprint() && matches(p.DriverID, result.Sprint[1])
	case models.FieldP1:
		return matches(p.DriverID, result.GrandPrix[1])
	case models.FieldPole:
		return matches(p.DriverID, result.Qualifying[1])
	case models.FieldP10:
		return matches(p.DriverID, result.GrandPrix[10])
	case models.FieldLast:
		last, ok := result.LastPlaceDriver()
		return ok && matches(p.DriverID, last)
	}
	return false
}

func matches(predicted, actual string) bool {
	return predicted != "" && predicted == actual
}

// PreviousScoredRace returns the id of the highest-round race that has a result
func PreviousScoredRace(races []models.Race, results map[int]models.RaceResult) (int, bool) {
	found := false
	var best models.Race
	for _, r := range races {
		if _, ok := results[r.ID]; !ok {
			continue
		}
		if !found || r.Season > best.Season || (r.Season == best.Season && r.Round > best.Round) {
			best = r
			found = true
		}
	}
	return best.ID, found
}
