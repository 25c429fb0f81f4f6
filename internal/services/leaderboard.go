package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/selfire1/gridtip-sub000/internal/cache"
	"github.com/selfire1/gridtip-sub000/internal/errors"
	"github.com/selfire1/gridtip-sub000/internal/logger"
	"github.com/selfire1/gridtip-sub000/internal/models"
	"github.com/selfire1/gridtip-sub000/internal/repository"
	"github.com/selfire1/gridtip-sub000/internal/scoring"
)

// TagResults marks every cache entry derived from official results
const TagResults = "results"

// recomputeWorkers bounds parallel leaderboard computation
const recomputeWorkers = 4

// GroupTag returns the cache tag of everything derived from one group
func GroupTag(groupID int) string {
	return fmt.Sprintf("group:%d", groupID)
}

func leaderboardKey(groupID int) string {
	return fmt.Sprintf("leaderboard:%d", groupID)
}

// LeaderboardServiceRepository defines the repository methods needed by LeaderboardService
type LeaderboardServiceRepository interface {
	repository.GroupRepository
	repository.MemberRepository
	repository.RaceRepository
	repository.ResultRepository
	repository.PredictionRepository
}

// LeaderboardService computes and caches group standings
type LeaderboardService struct {
	log         logger.Logger
	repo        LeaderboardServiceRepository
	settings    SettingsServicer
	cache       cache.Cache
	ttl         time.Duration
	broadcaster Broadcaster
	now         func() time.Time
}

// NewLeaderboardService creates a new LeaderboardService
func NewLeaderboardService(log logger.Logger, repo LeaderboardServiceRepository, settings SettingsServicer, c cache.Cache, ttl time.Duration) *LeaderboardService {
	return &LeaderboardService{
		log:      log,
		repo:     repo,
		settings: settings,
		cache:    c,
		ttl:      ttl,
		now:      time.Now,
	}
}

// SetBroadcaster sets the broadcaster for sending updates to clients
func (s *LeaderboardService) SetBroadcaster(b Broadcaster) {
	s.broadcaster = b
}

// SetClock replaces the time source (for testing)
func (s *LeaderboardService) SetClock(now func() time.Time) {
	s.now = now
}

// Leaderboard is the ranked standing of one group
type Leaderboard struct {
	GroupID        int                        `json:"group_id"`
	Season         int                        `json:"season"`
	PreviousRaceID *int                       `json:"previous_race_id,omitempty"`
	ScoredRaces    int                        `json:"scored_races"`
	Entries        []scoring.LeaderboardEntry `json:"entries"`
	ComputedAt     time.Time                  `json:"computed_at"`

	// nextClose is the next grand prix deadline, when more tips become visible
	nextClose time.Time
}

// GetLeaderboard returns the cached standings of a group or computes them
func (s *LeaderboardService) GetLeaderboard(ctx context.Context, groupID int) (*Leaderboard, error) {
	key := leaderboardKey(groupID)
	if s.cache != nil {
		data, ok, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn("Leaderboard cache read failed", "group_id", groupID, "error", err)
		}
		if ok {
			var board Leaderboard
			if err := json.Unmarshal(data, &board); err == nil {
				return &board, nil
			}
			s.log.Warn("Discarding unreadable cached leaderboard", "group_id", groupID)
		}
	}

	board, err := s.compute(ctx, groupID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		data, err := json.Marshal(board)
		if err == nil {
			err = s.cache.Set(ctx, key, data, s.cacheTTL(board), GroupTag(groupID), TagResults)
		}
		if err != nil {
			s.log.Warn("Leaderboard cache write failed", "group_id", groupID, "error", err)
		}
	}
	return board, nil
}

// cacheTTL keeps a cached board no longer than the next deadline, since closing a race
// reveals its tips and may change the standings
func (s *LeaderboardService) cacheTTL(board *Leaderboard) time.Duration {
	if board.nextClose.IsZero() {
		return s.ttl
	}
	untilClose := board.nextClose.Sub(s.now())
	if untilClose <= 0 {
		untilClose = time.Second
	}
	if s.ttl > 0 && s.ttl < untilClose {
		return s.ttl
	}
	return untilClose
}

// compute loads everything the scoring engine needs for one group
func (s *LeaderboardService) compute(ctx context.Context, groupID int) (*Leaderboard, error) {
	group, err := s.repo.GetGroup(ctx, groupID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("group %d not found", groupID)
	}
	if err != nil {
		return nil, err
	}
	season, err := s.settings.CurrentSeason(ctx)
	if err != nil {
		return nil, err
	}

	members, err := s.repo.ListMembers(ctx, groupID)
	if err != nil {
		return nil, err
	}
	races, err := s.repo.ListRaces(ctx, season)
	if err != nil {
		return nil, err
	}
	results, err := s.repo.GetResults(ctx, season)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListGroupEntries(ctx, groupID, season)
	if err != nil {
		return nil, err
	}

	now := s.now()
	predictions := visibleEntries(entries, races, group.CutoffMinutes, now)

	board := &Leaderboard{
		GroupID:     groupID,
		Season:      season,
		ScoredRaces: len(results),
		ComputedAt:  now.UTC(),
		nextClose:   nextDeadline(races, group.CutoffMinutes, now),
	}
	var previous *int
	if id, ok := scoring.PreviousScoredRace(races, results); ok {
		previous = &id
		board.PreviousRaceID = &id
	}
	board.Entries = scoring.ComputeLeaderboard(results, predictions, members, previous)
	if board.Entries == nil {
		board.Entries = []scoring.LeaderboardEntry{}
	}
	return board, nil
}

// nextDeadline returns the earliest grand prix deadline after now, or zero if none is pending
func nextDeadline(races []models.Race, cutoffMinutes int, now time.Time) time.Time {
	var next time.Time
	for _, r := range races {
		if r.QualifyingDate.IsZero() {
			continue
		}
		due := scoring.TipsDueDates(r, cutoffMinutes).GrandPrix
		if due.After(now) && (next.IsZero() || due.Before(next)) {
			next = due
		}
	}
	return next
}

// visibleEntries keeps race entries whose race can no longer be tipped, so open tips stay private
func visibleEntries(entries []models.PredictionEntry, races []models.Race, cutoffMinutes int, now time.Time) []models.PredictionEntry {
	closed := make(map[int]bool, len(races))
	for _, r := range races {
		closed[r.ID] = !scoring.IsRaceTippable(r, cutoffMinutes, now)
	}
	out := make([]models.PredictionEntry, 0, len(entries))
	for _, e := range entries {
		if e.RaceID == nil || !closed[*e.RaceID] {
			continue
		}
		out = append(out, e)
	}
	return out
}

// Invalidate drops cached leaderboards filed under any of tags
func (s *LeaderboardService) Invalidate(ctx context.Context, tags ...string) error {
	if s.cache == nil || len(tags) == 0 {
		return nil
	}
	return s.cache.InvalidateTags(ctx, tags...)
}

// RecomputeAll rebuilds every group's leaderboard in parallel and broadcasts each one.
// It returns the number of groups recomputed.
func (s *LeaderboardService) RecomputeAll(ctx context.Context) (int, error) {
	groups, err := s.repo.ListGroups(ctx)
	if err != nil {
		return 0, err
	}
	if err := s.Invalidate(ctx, TagResults); err != nil {
		s.log.Warn("Failed to invalidate leaderboards", "error", err)
	}

	var mu sync.Mutex
	boards := make(map[int]*Leaderboard, len(groups))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(recomputeWorkers)
	for _, group := range groups {
		g.Go(func() error {
			board, err := s.GetLeaderboard(gctx, group.ID)
			if err != nil {
				return fmt.Errorf("group %d: %w", group.ID, err)
			}
			mu.Lock()
			boards[group.ID] = board
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if s.broadcaster != nil {
		ids := make([]int, 0, len(boards))
		for id := range boards {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		for _, id := range ids {
			s.broadcaster.BroadcastLeaderboard(id, boards[id])
		}
	}

	s.log.Info("Leaderboards recomputed", "groups", len(boards))
	return len(boards), nil
}
