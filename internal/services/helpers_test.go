package services_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/selfire1/gridtip-sub000/internal/cache"
	"github.com/selfire1/gridtip-sub000/internal/logger"
	"github.com/selfire1/gridtip-sub000/internal/models"
	"github.com/selfire1/gridtip-sub000/internal/repository"
	"github.com/selfire1/gridtip-sub000/internal/services"
	"github.com/selfire1/gridtip-sub000/internal/testutil"
)

const testSeason = 2025

var (
	testDrivers      = []string{"max_verstappen", "norris", "piastri", "leclerc"}
	testConstructors = []string{"red_bull", "mclaren", "ferrari"}
	baseTime         = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
)

// fixture bundles the services wired against one in-memory database
type fixture struct {
	repo        repository.FullRepository
	cache       *cache.MemoryCache
	settings    *services.SettingsService
	leaderboard *services.LeaderboardService
	tipping     *services.TippingService
	groups      *services.GroupService
	now         time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithRepo(t, testutil.NewTestRepository(t))
}

func newFixtureWithRepo(t *testing.T, repo repository.FullRepository) *fixture {
	t.Helper()
	log := logger.Nop()
	f := &fixture{repo: repo, cache: cache.NewMemoryCache(), now: baseTime}
	clock := func() time.Time { return f.now }
	f.cache.SetClock(clock)

	f.settings = services.NewSettingsService(log, repo, services.Defaults{Season: testSeason, CutoffMinutes: 180})
	f.leaderboard = services.NewLeaderboardService(log, repo, f.settings, f.cache, time.Hour)
	f.leaderboard.SetClock(clock)
	f.tipping = services.NewTippingService(log, repo, f.settings, f.leaderboard)
	f.tipping.SetClock(clock)
	f.groups = services.NewGroupService(log, repo, f.settings, f.leaderboard)
	var n int
	f.groups.SetIDGenerator(func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	})
	f.settings.SetInvalidator(f.leaderboard)

	testutil.SeedGrid(t, repo, testDrivers, testConstructors)
	return f
}

// tip stores an entry directly, bypassing deadline checks
func tip(t *testing.T, repo repository.FullRepository, memberID int, race models.Race, field models.PredictionField, value string) {
	t.Helper()
	ctx := context.Background()
	pid, err := repo.GetOrCreatePrediction(ctx, memberID, &race.ID, race.Season)
	if err != nil {
		t.Fatalf("GetOrCreatePrediction failed: %v", err)
	}
	var driverID, constructorID string
	if field.IsConstructorField() {
		constructorID = value
	} else {
		driverID = value
	}
	if err := repo.UpsertPredictionEntry(ctx, pid, field, driverID, constructorID); err != nil {
		t.Fatalf("UpsertPredictionEntry failed: %v", err)
	}
}

// saveResult stores a classification with the given GP order and pole sitter
func saveResult(t *testing.T, repo repository.FullRepository, raceID int, pole string, grandPrix ...string) {
	t.Helper()
	result := models.NewRaceResult(raceID)
	result.Qualifying[1] = pole
	for i, d := range grandPrix {
		result.GrandPrix[i+1] = d
	}
	result.ConstructorPoints["mclaren"] = 43
	result.ConstructorPoints["red_bull"] = 18
	if err := repo.SaveResult(context.Background(), result); err != nil {
		t.Fatalf("SaveResult failed: %v", err)
	}
}

// recordingBroadcaster captures leaderboard broadcasts
type recordingBroadcaster struct {
	mu     sync.Mutex
	boards map[int]*services.Leaderboard
}

func (b *recordingBroadcaster) BroadcastLeaderboard(groupID int, board *services.Leaderboard) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.boards == nil {
		b.boards = make(map[int]*services.Leaderboard)
	}
	b.boards[groupID] = board
}

func ptr[T any](v T) *T { return &v }
