package repository

import (
	"context"
	"testing"
	"time"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

// newTestRepo creates a new in-memory repository for testing.
func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedGroup(t *testing.T, repo *Repository) (groupID int, memberID int) {
	t.Helper()
	ctx := context.Background()
	gid, err := repo.CreateGroup(ctx, "Paddock Club", "join-abc", 60)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	mid, err := repo.CreateMember(ctx, int(gid), "Ann", "tok-ann", true)
	if err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}
	return int(gid), int(mid)
}

func seedRace(t *testing.T, repo *Repository, season, round int, sprint bool) int {
	t.Helper()
	quali := time.Date(season, 3, round, 15, 0, 0, 0, time.UTC)
	race := models.Race{
		Season:         season,
		Round:          round,
		Name:           "Grand Prix",
		Circuit:        "Circuit",
		QualifyingDate: quali,
		GrandPrixDate:  quali.Add(24 * time.Hour),
	}
	if sprint {
		sq := quali.Add(-24 * time.Hour)
		sr := quali.Add(-4 * time.Hour)
		race.SprintQualifyingDate = &sq
		race.SprintDate = &sr
	}
	id, _, err := repo.UpsertRace(context.Background(), race)
	if err != nil {
		t.Fatalf("UpsertRace failed: %v", err)
	}
	return int(id)
}

// ==================== Group Tests ====================

func TestMigrate_Idempotent(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.migrate(); err != nil {
		t.Fatalf("second migrate failed: %v", err)
	}
	if _, err := repo.GetSetting(context.Background(), "default_cutoff_minutes"); err != ErrNotFound {
		t.Errorf("expected settings to start empty, got %v", err)
	}
}

func TestCreateGroup_AndGet(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	id, err := repo.CreateGroup(ctx, "Office League", "code-1", 120)
	if err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}

	g, err := repo.GetGroup(ctx, int(id))
	if err != nil {
		t.Fatalf("GetGroup failed: %v", err)
	}
	if g.Name != "Office League" || g.JoinCode != "code-1" || g.CutoffMinutes != 120 {
		t.Errorf("unexpected group: %+v", g)
	}
	if g.CreatedAt.IsZero() {
		t.Error("expected created_at to be set")
	}

	byCode, err := repo.GetGroupByJoinCode(ctx, "code-1")
	if err != nil {
		t.Fatalf("GetGroupByJoinCode failed: %v", err)
	}
	if byCode.ID != g.ID {
		t.Errorf("expected id %d, got %d", g.ID, byCode.ID)
	}
}

func TestCreateGroup_DuplicateJoinCode(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.CreateGroup(ctx, "A", "same", 60); err != nil {
		t.Fatalf("CreateGroup failed: %v", err)
	}
	if _, err := repo.CreateGroup(ctx, "B", "same", 60); err != ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestGetGroup_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetGroup(ctx, 999); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetGroupByJoinCode(ctx, "nope"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestUpdateGroupCutoff(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	gid, _ := seedGroup(t, repo)

	if err := repo.UpdateGroupCutoff(ctx, gid, 15); err != nil {
		t.Fatalf("UpdateGroupCutoff failed: %v", err)
	}
	g, _ := repo.GetGroup(ctx, gid)
	if g.CutoffMinutes != 15 {
		t.Errorf("expected cutoff 15, got %d", g.CutoffMinutes)
	}

	if err := repo.UpdateGroupCutoff(ctx, 999, 15); err != ErrNotFound {
		t.Errorf("expected ErrNotFound for missing group, got %v", err)
	}
}

func TestListGroups(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	repo.CreateGroup(ctx, "First", "c1", 60)
	repo.CreateGroup(ctx, "Second", "c2", 60)

	groups, err := repo.ListGroups(ctx)
	if err != nil {
		t.Fatalf("ListGroups failed: %v", err)
	}
	if len(groups) != 2 || groups[0].Name != "First" || groups[1].Name != "Second" {
		t.Errorf("unexpected groups: %+v", groups)
	}
}

// ==================== Member Tests ====================

func TestMembers(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	gid, annID := seedGroup(t, repo)

	bobID, err := repo.CreateMember(ctx, gid, "Bob", "tok-bob", false)
	if err != nil {
		t.Fatalf("CreateMember failed: %v", err)
	}

	m, err := repo.GetMemberByToken(ctx, "tok-bob")
	if err != nil {
		t.Fatalf("GetMemberByToken failed: %v", err)
	}
	if m.ID != int(bobID) || m.GroupID != gid || m.IsAdmin {
		t.Errorf("unexpected member: %+v", m)
	}

	ann, err := repo.GetMember(ctx, annID)
	if err != nil {
		t.Fatalf("GetMember failed: %v", err)
	}
	if !ann.IsAdmin {
		t.Error("expected Ann to be admin")
	}

	members, err := repo.ListMembers(ctx, gid)
	if err != nil {
		t.Fatalf("ListMembers failed: %v", err)
	}
	if len(members) != 2 || members[0].Name != "Ann" || members[1].Name != "Bob" {
		t.Errorf("unexpected members: %+v", members)
	}
}

func TestMemberNameExists_CaseInsensitive(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	gid, _ := seedGroup(t, repo)

	exists, err := repo.MemberNameExists(ctx, gid, "ann")
	if err != nil {
		t.Fatalf("MemberNameExists failed: %v", err)
	}
	if !exists {
		t.Error("expected 'ann' to match 'Ann'")
	}

	exists, _ = repo.MemberNameExists(ctx, gid, "Zed")
	if exists {
		t.Error("did not expect 'Zed' to exist")
	}
}

func TestCreateMember_DuplicateToken(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	gid, _ := seedGroup(t, repo)

	if _, err := repo.CreateMember(ctx, gid, "Other", "tok-ann", false); err != ErrDuplicate {
		t.Errorf("expected ErrDuplicate, got %v", err)
	}
}

func TestCreateMember_UnknownGroup(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.CreateMember(context.Background(), 42, "Ghost", "tok", false); err == nil {
		t.Error("expected foreign key error")
	}
}

func TestGetMemberByToken_NotFound(t *testing.T) {
	repo := newTestRepo(t)
	if _, err := repo.GetMemberByToken(context.Background(), "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetMember(context.Background(), 5); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ==================== Race Tests ====================

func TestUpsertRace_CreateThenUpdate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	quali := time.Date(2025, 5, 24, 14, 0, 0, 0, time.UTC)
	race := models.Race{Season: 2025, Round: 8, Name: "Monaco Grand Prix", QualifyingDate: quali, GrandPrixDate: quali.Add(24 * time.Hour)}

	id, created, err := repo.UpsertRace(ctx, race)
	if err != nil {
		t.Fatalf("UpsertRace failed: %v", err)
	}
	if !created {
		t.Error("expected race to be created")
	}

	later := quali.Add(time.Hour)
	race.QualifyingDate = later
	race.Country = "Monaco"
	id2, created, err := repo.UpsertRace(ctx, race)
	if err != nil {
		t.Fatalf("second UpsertRace failed: %v", err)
	}
	if created || id2 != id {
		t.Errorf("expected update of race %d, got id %d created %v", id, id2, created)
	}

	got, err := repo.GetRace(ctx, int(id))
	if err != nil {
		t.Fatalf("GetRace failed: %v", err)
	}
	if !got.QualifyingDate.Equal(later) {
		t.Errorf("expected qualifying %v, got %v", later, got.QualifyingDate)
	}
	if got.Country != "Monaco" {
		t.Errorf("expected country Monaco, got %q", got.Country)
	}
	if got.IsSprintWeekend() {
		t.Error("expected no sprint")
	}
}

func TestUpsertRace_SprintDates(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	id := seedRace(t, repo, 2025, 6, true)

	race, err := repo.GetRace(ctx, id)
	if err != nil {
		t.Fatalf("GetRace failed: %v", err)
	}
	if !race.IsSprintWeekend() || race.SprintDate == nil {
		t.Fatalf("expected sprint dates, got %+v", race)
	}
	if !race.SprintQualifyingDate.Before(race.QualifyingDate) {
		t.Error("expected sprint qualifying before qualifying")
	}
}

func TestListRaces_RoundOrderPerSeason(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seedRace(t, repo, 2025, 3, false)
	seedRace(t, repo, 2025, 1, false)
	seedRace(t, repo, 2024, 2, false)

	races, err := repo.ListRaces(ctx, 2025)
	if err != nil {
		t.Fatalf("ListRaces failed: %v", err)
	}
	if len(races) != 2 || races[0].Round != 1 || races[1].Round != 3 {
		t.Errorf("unexpected races: %+v", races)
	}

	if _, err := repo.GetRaceByRound(ctx, 2024, 9); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestDriversAndConstructors(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.UpsertDriver(ctx, models.Driver{ID: "max_verstappen", Code: "VER", GivenName: "Max", FamilyName: "Verstappen", Number: 1}); err != nil {
		t.Fatalf("UpsertDriver failed: %v", err)
	}
	if err := repo.UpsertDriver(ctx, models.Driver{ID: "max_verstappen", Code: "VER", GivenName: "Max", FamilyName: "Verstappen", Number: 33}); err != nil {
		t.Fatalf("UpsertDriver update failed: %v", err)
	}
	repo.UpsertDriver(ctx, models.Driver{ID: "alonso", GivenName: "Fernando", FamilyName: "Alonso", Number: 14})

	drivers, err := repo.ListDrivers(ctx)
	if err != nil {
		t.Fatalf("ListDrivers failed: %v", err)
	}
	if len(drivers) != 2 || drivers[0].ID != "alonso" || drivers[1].Number != 33 {
		t.Errorf("unexpected drivers: %+v", drivers)
	}

	ok, err := repo.DriverExists(ctx, "alonso")
	if err != nil || !ok {
		t.Errorf("expected alonso to exist (%v)", err)
	}
	ok, _ = repo.DriverExists(ctx, "nobody")
	if ok {
		t.Error("did not expect unknown driver to exist")
	}

	repo.UpsertConstructor(ctx, models.Constructor{ID: "red_bull", Name: "Red Bull", Nationality: "Austrian"})
	repo.UpsertConstructor(ctx, models.Constructor{ID: "ferrari", Name: "Ferrari"})
	constructors, err := repo.ListConstructors(ctx)
	if err != nil {
		t.Fatalf("ListConstructors failed: %v", err)
	}
	if len(constructors) != 2 || constructors[0].ID != "ferrari" {
		t.Errorf("unexpected constructors: %+v", constructors)
	}
	ok, _ = repo.ConstructorExists(ctx, "red_bull")
	if !ok {
		t.Error("expected red_bull to exist")
	}
}

// ==================== Result Tests ====================

func TestSaveResult_RoundTrip(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	raceID := seedRace(t, repo, 2025, 1, true)
	seedRace(t, repo, 2025, 2, false)

	res := models.NewRaceResult(raceID)
	res.Qualifying[1] = "norris"
	res.GrandPrix[1] = "piastri"
	res.GrandPrix[10] = "alonso"
	res.Sprint[1] = "hamilton"
	res.ConstructorPoints["mclaren"] = 44
	res.ConstructorPoints["ferrari"] = 12.5

	if err := repo.SaveResult(ctx, res); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	results, err := repo.GetResults(ctx, 2025)
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected only the scored race, got %d results", len(results))
	}
	got := results[raceID]
	if got.Qualifying[1] != "norris" || got.GrandPrix[10] != "alonso" || got.Sprint[1] != "hamilton" {
		t.Errorf("unexpected classification: %+v", got)
	}
	if got.ConstructorPoints["ferrari"] != 12.5 {
		t.Errorf("expected ferrari 12.5, got %v", got.ConstructorPoints["ferrari"])
	}

	none, err := repo.GetResults(ctx, 2024)
	if err != nil {
		t.Fatalf("GetResults failed: %v", err)
	}
	if len(none) != 0 {
		t.Errorf("expected no results for other season, got %d", len(none))
	}
}

func TestSaveResult_Replaces(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	raceID := seedRace(t, repo, 2025, 1, false)

	first := models.NewRaceResult(raceID)
	first.GrandPrix[1] = "a"
	first.GrandPrix[2] = "b"
	repo.SaveResult(ctx, first)

	second := models.NewRaceResult(raceID)
	second.GrandPrix[1] = "b"
	if err := repo.SaveResult(ctx, second); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}

	results, _ := repo.GetResults(ctx, 2025)
	got := results[raceID]
	if len(got.GrandPrix) != 1 || got.GrandPrix[1] != "b" {
		t.Errorf("expected replaced classification, got %+v", got.GrandPrix)
	}
}

// ==================== Prediction Tests ====================

func TestPredictions_RaceEntries(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	gid, memberID := seedGroup(t, repo)
	raceID := seedRace(t, repo, 2025, 1, false)

	pid, err := repo.GetOrCreatePrediction(ctx, memberID, &raceID, 2025)
	if err != nil {
		t.Fatalf("GetOrCreatePrediction failed: %v", err)
	}
	again, err := repo.GetOrCreatePrediction(ctx, memberID, &raceID, 2025)
	if err != nil || again != pid {
		t.Fatalf("expected same prediction id %d, got %d (%v)", pid, again, err)
	}

	if err := repo.UpsertPredictionEntry(ctx, pid, models.FieldPole, "norris", ""); err != nil {
		t.Fatalf("UpsertPredictionEntry failed: %v", err)
	}
	repo.UpsertPredictionEntry(ctx, pid, models.FieldConstructorWithMostPoints, "", "mclaren")
	repo.UpsertPredictionEntry(ctx, pid, models.FieldPole, "leclerc", "")

	entries, err := repo.ListMemberEntries(ctx, memberID, &raceID, 2025)
	if err != nil {
		t.Fatalf("ListMemberEntries failed: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Field != models.FieldPole || entries[0].DriverID != "leclerc" {
		t.Errorf("expected updated pole entry, got %+v", entries[0])
	}
	if entries[1].ConstructorID != "mclaren" || entries[1].DriverID != "" {
		t.Errorf("unexpected constructor entry: %+v", entries[1])
	}
	if entries[0].RaceID == nil || *entries[0].RaceID != raceID {
		t.Errorf("expected race id %d", raceID)
	}

	group, err := repo.ListGroupEntries(ctx, gid, 2025)
	if err != nil {
		t.Fatalf("ListGroupEntries failed: %v", err)
	}
	if len(group) != 2 {
		t.Errorf("expected 2 group entries, got %d", len(group))
	}
}

func TestPredictions_ChampionshipIsSeparate(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, memberID := seedGroup(t, repo)
	raceID := seedRace(t, repo, 2025, 1, false)

	champ, err := repo.GetOrCreatePrediction(ctx, memberID, nil, 2025)
	if err != nil {
		t.Fatalf("GetOrCreatePrediction failed: %v", err)
	}
	champAgain, _ := repo.GetOrCreatePrediction(ctx, memberID, nil, 2025)
	if champ != champAgain {
		t.Errorf("expected championship prediction to be reused")
	}
	race, _ := repo.GetOrCreatePrediction(ctx, memberID, &raceID, 2025)
	if race == champ {
		t.Error("race and championship predictions must differ")
	}

	repo.UpsertPredictionEntry(ctx, champ, models.FieldChampionshipDriver, "norris", "")
	entries, err := repo.ListMemberEntries(ctx, memberID, nil, 2025)
	if err != nil {
		t.Fatalf("ListMemberEntries failed: %v", err)
	}
	if len(entries) != 1 || entries[0].RaceID != nil {
		t.Errorf("expected one championship entry, got %+v", entries)
	}
}

func TestSetEntryOverwrite(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, memberID := seedGroup(t, repo)
	raceID := seedRace(t, repo, 2025, 1, false)

	pid, _ := repo.GetOrCreatePrediction(ctx, memberID, &raceID, 2025)
	repo.UpsertPredictionEntry(ctx, pid, models.FieldP1, "piastri", "")
	entries, _ := repo.ListMemberEntries(ctx, memberID, &raceID, 2025)
	entryID := entries[0].ID

	if err := repo.SetEntryOverwrite(ctx, entryID, models.OverwriteCountAsCorrect); err != nil {
		t.Fatalf("SetEntryOverwrite failed: %v", err)
	}

	// re-submitting the same field keeps the overwrite
	repo.UpsertPredictionEntry(ctx, pid, models.FieldP1, "norris", "")

	e, err := repo.GetPredictionEntry(ctx, entryID)
	if err != nil {
		t.Fatalf("GetPredictionEntry failed: %v", err)
	}
	if e.Overwrite != models.OverwriteCountAsCorrect || e.DriverID != "norris" {
		t.Errorf("unexpected entry: %+v", e)
	}

	repo.SetEntryOverwrite(ctx, entryID, models.OverwriteNone)
	e, _ = repo.GetPredictionEntry(ctx, entryID)
	if e.Overwrite != models.OverwriteNone {
		t.Errorf("expected overwrite cleared, got %q", e.Overwrite)
	}

	if err := repo.SetEntryOverwrite(ctx, 9999, models.OverwriteCountAsCorrect); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := repo.GetPredictionEntry(ctx, 9999); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

// ==================== Settings / Stats Tests ====================

func TestSettings(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if _, err := repo.GetSetting(ctx, "missing"); err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := repo.SetSetting(ctx, "current_season", "2025"); err != nil {
		t.Fatalf("SetSetting failed: %v", err)
	}
	repo.SetSetting(ctx, "current_season", "2026")
	v, err := repo.GetSetting(ctx, "current_season")
	if err != nil || v != "2026" {
		t.Errorf("expected 2026, got %q (%v)", v, err)
	}
}

func TestGetStats(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	_, memberID := seedGroup(t, repo)
	raceID := seedRace(t, repo, 2025, 1, false)
	pid, _ := repo.GetOrCreatePrediction(ctx, memberID, &raceID, 2025)
	repo.UpsertPredictionEntry(ctx, pid, models.FieldP1, "piastri", "")
	res := models.NewRaceResult(raceID)
	res.GrandPrix[1] = "piastri"
	repo.SaveResult(ctx, res)

	stats, err := repo.GetStats(ctx)
	if err != nil {
		t.Fatalf("GetStats failed: %v", err)
	}
	want := map[string]int{"total_groups": 1, "total_members": 1, "total_races": 1, "scored_races": 1, "total_entries": 1, "overwritten_entries": 0}
	for k, v := range want {
		if stats[k] != v {
			t.Errorf("%s: expected %d, got %d", k, v, stats[k])
		}
	}
}

func TestClearTable(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.ClearTable(ctx, "members"); err != ErrInvalidTable {
		t.Errorf("expected ErrInvalidTable, got %v", err)
	}
	if err := repo.ClearTable(ctx, "prediction_entries; DROP TABLE races"); err != ErrInvalidTable {
		t.Errorf("expected ErrInvalidTable, got %v", err)
	}
	if err := repo.ClearTable(ctx, "result_positions"); err != nil {
		t.Errorf("expected whitelisted table to clear, got %v", err)
	}
}
