package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/selfire1/gridtip-sub000/internal/models"
	"github.com/selfire1/gridtip-sub000/internal/repository"
)

// NewTestRepository creates a new in-memory repository for testing.
// Each call creates a fresh database with all migrations applied.
func NewTestRepository(t *testing.T) *repository.Repository {
	t.Helper()

	repo, err := repository.New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test repository: %v", err)
	}

	t.Cleanup(func() {
		repo.Close()
	})

	return repo
}

var groupSeq atomic.Int64

// SeedGroup creates a group with the given cutoff and one member per name.
// The first member is the group admin. Tokens are "tok-<name>".
func SeedGroup(t *testing.T, repo repository.FullRepository, cutoffMinutes int, names ...string) (models.Group, []models.Member) {
	t.Helper()
	ctx := context.Background()

	joinCode := fmt.Sprintf("join-%d", groupSeq.Add(1))
	gid, err := repo.CreateGroup(ctx, "Test Group", joinCode, cutoffMinutes)
	if err != nil {
		t.Fatalf("failed to create group: %v", err)
	}
	for i, name := range names {
		if _, err := repo.CreateMember(ctx, int(gid), name, "tok-"+name, i == 0); err != nil {
			t.Fatalf("failed to create member %s: %v", name, err)
		}
	}

	group, err := repo.GetGroup(ctx, int(gid))
	if err != nil {
		t.Fatalf("failed to load group: %v", err)
	}
	members, err := repo.ListMembers(ctx, int(gid))
	if err != nil {
		t.Fatalf("failed to load members: %v", err)
	}
	return *group, members
}

// SeedRace stores a race whose qualifying starts at quali. A non-nil sprintQuali makes it a sprint weekend.
func SeedRace(t *testing.T, repo repository.FullRepository, season, round int, quali time.Time, sprintQuali *time.Time) models.Race {
	t.Helper()
	ctx := context.Background()

	race := models.Race{
		Season:               season,
		Round:                round,
		Name:                 "Round " + time.Month(round%12+1).String() + " Grand Prix",
		QualifyingDate:       quali,
		GrandPrixDate:        quali.Add(24 * time.Hour),
		SprintQualifyingDate: sprintQuali,
	}
	if sprintQuali != nil {
		sprint := sprintQuali.Add(20 * time.Hour)
		race.SprintDate = &sprint
	}

	id, _, err := repo.UpsertRace(ctx, race)
	if err != nil {
		t.Fatalf("failed to create race: %v", err)
	}
	stored, err := repo.GetRace(ctx, int(id))
	if err != nil {
		t.Fatalf("failed to load race: %v", err)
	}
	return *stored
}

// SeedGrid stores drivers and constructors by id
func SeedGrid(t *testing.T, repo repository.FullRepository, driverIDs []string, constructorIDs []string) {
	t.Helper()
	ctx := context.Background()

	for i, id := range driverIDs {
		if err := repo.UpsertDriver(ctx, models.Driver{ID: id, GivenName: id, FamilyName: id, Number: i + 1}); err != nil {
			t.Fatalf("failed to create driver %s: %v", id, err)
		}
	}
	for _, id := range constructorIDs {
		if err := repo.UpsertConstructor(ctx, models.Constructor{ID: id, Name: id}); err != nil {
			t.Fatalf("failed to create constructor %s: %v", id, err)
		}
	}
}
