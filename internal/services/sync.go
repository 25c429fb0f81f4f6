package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/selfire1/gridtip-sub000/internal/errors"
	"github.com/selfire1/gridtip-sub000/internal/logger"
	"github.com/selfire1/gridtip-sub000/internal/models"
	"github.com/selfire1/gridtip-sub000/internal/repository"
	"github.com/selfire1/gridtip-sub000/pkg/jolpica"
)

// resultGrace is how long after the grand prix start results are expected
const resultGrace = 3 * time.Hour

// SyncServiceRepository defines the repository methods needed by SyncService
type SyncServiceRepository interface {
	repository.RaceRepository
	repository.ResultRepository
	repository.SettingsRepository
}

// LeaderboardRefresher is notified after new results are stored
type LeaderboardRefresher interface {
	Invalidate(ctx context.Context, tags ...string) error
	RecomputeAll(ctx context.Context) (int, error)
}

// SyncService imports the calendar, entry list and classifications from the F1 API
type SyncService struct {
	log         logger.Logger
	repo        SyncServiceRepository
	client      jolpica.Client
	leaderboard LeaderboardRefresher
	now         func() time.Time
}

// NewSyncService creates a new SyncService. leaderboard may be nil.
func NewSyncService(log logger.Logger, repo SyncServiceRepository, client jolpica.Client, leaderboard LeaderboardRefresher) *SyncService {
	return &SyncService{
		log:         log,
		repo:        repo,
		client:      client,
		leaderboard: leaderboard,
		now:         time.Now,
	}
}

// SetClock replaces the time source (for testing)
func (s *SyncService) SetClock(now func() time.Time) {
	s.now = now
}

// ScheduleSyncResult contains the result of a calendar import
type ScheduleSyncResult struct {
	Status       string `json:"status"`
	Message      string `json:"message,omitempty"`
	Season       int    `json:"season"`
	RacesCreated int    `json:"races_created"`
	RacesUpdated int    `json:"races_updated"`
	RacesSkipped int    `json:"races_skipped"`
	Drivers      int    `json:"drivers"`
	Constructors int    `json:"constructors"`
}

// ResultSyncResult contains the result of a classification import
type ResultSyncResult struct {
	Status            string `json:"status"`
	Season            int    `json:"season"`
	Round             int    `json:"round"`
	RaceID            int    `json:"race_id,omitempty"`
	GrandPrix         int    `json:"grand_prix"`
	Sprint            int    `json:"sprint"`
	Qualifying        int    `json:"qualifying"`
	LeaderboardGroups int    `json:"leaderboard_groups"`
}

// Result sync statuses
const (
	StatusSuccess = "success"
	StatusPending = "pending"
)

// SetAPIURL points the client at another Ergast-compatible API and remembers it
func (s *SyncService) SetAPIURL(ctx context.Context, url string) error {
	url = strings.TrimSuffix(strings.TrimSpace(url), "/")
	if !strings.HasPrefix(url, "http://") && !strings.HasPrefix(url, "https://") {
		return errors.Validation("f1 api url must start with http:// or https://")
	}
	if err := s.repo.SetSetting(ctx, SettingF1APIURL, url); err != nil {
		return fmt.Errorf("failed to save F1 API URL: %w", err)
	}
	s.client.SetBaseURL(url)
	return nil
}

// SyncSchedule imports the calendar, drivers and constructors of a season
func (s *SyncService) SyncSchedule(ctx context.Context, season int) (*ScheduleSyncResult, error) {
	if err := validateSeason(season); err != nil {
		return nil, err
	}

	var (
		races        []jolpica.Race
		drivers      []jolpica.Driver
		constructors []jolpica.Constructor
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		races, err = s.client.FetchSchedule(gctx, season)
		return err
	})
	g.Go(func() (err error) {
		drivers, err = s.client.FetchDrivers(gctx, season)
		return err
	})
	g.Go(func() (err error) {
		constructors, err = s.client.FetchConstructors(gctx, season)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, errors.Upstream(err, "failed to fetch season from F1 API")
	}
	s.log.Info("Fetched season from F1 API", "season", season, "races", len(races), "drivers", len(drivers), "constructors", len(constructors))

	result := &ScheduleSyncResult{Status: StatusSuccess, Season: season}
	var firstError error

	for _, d := range drivers {
		if err := s.repo.UpsertDriver(ctx, toDriver(d)); err != nil {
			s.log.Error("Error syncing driver", "driver_id", d.DriverID, "error", err)
			if firstError == nil {
				firstError = fmt.Errorf("failed to sync driver %s: %w", d.DriverID, err)
			}
			continue
		}
		result.Drivers++
	}
	for _, c := range constructors {
		if err := s.repo.UpsertConstructor(ctx, toConstructor(c)); err != nil {
			s.log.Error("Error syncing constructor", "constructor_id", c.ConstructorID, "error", err)
			if firstError == nil {
				firstError = fmt.Errorf("failed to sync constructor %s: %w", c.ConstructorID, err)
			}
			continue
		}
		result.Constructors++
	}

	for _, r := range races {
		race, ok := toRace(r)
		if !ok {
			s.log.Warn("Skipping race without session times", "season", season, "round", r.Round.Int(), "name", r.RaceName)
			result.RacesSkipped++
			continue
		}
		_, created, err := s.repo.UpsertRace(ctx, race)
		if err != nil {
			s.log.Error("Error syncing race", "round", race.Round, "error", err)
			if firstError == nil {
				firstError = fmt.Errorf("failed to sync round %d: %w", race.Round, err)
			}
			continue
		}
		if created {
			result.RacesCreated++
		} else {
			result.RacesUpdated++
		}
	}

	if firstError != nil {
		return nil, firstError
	}
	result.Message = fmt.Sprintf("Synced %d races, %d drivers, %d constructors",
		result.RacesCreated+result.RacesUpdated, result.Drivers, result.Constructors)
	s.log.Info("Schedule synced", "season", season, "created", result.RacesCreated, "updated", result.RacesUpdated, "skipped", result.RacesSkipped)
	return result, nil
}

// SyncResults imports the classifications of one round. Rounds without a grand prix
// classification yet are reported as pending and nothing is stored.
func (s *SyncService) SyncResults(ctx context.Context, season, round int) (*ResultSyncResult, error) {
	if err := validateSeason(season); err != nil {
		return nil, err
	}
	if round < 1 {
		return nil, ErrInvalidRound
	}
	race, err := s.repo.GetRaceByRound(ctx, season, round)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("round %d of %d is not in the calendar, sync the schedule first", round, season)
	}
	if err != nil {
		return nil, err
	}

	var (
		qualifying []jolpica.QualifyingResult
		grandPrix  []jolpica.Result
		sprint     []jolpica.Result
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		qualifying, err = s.client.FetchQualifying(gctx, season, round)
		return err
	})
	g.Go(func() (err error) {
		grandPrix, err = s.client.FetchRaceResults(gctx, season, round)
		return err
	})
	if race.IsSprintWeekend() {
		g.Go(func() (err error) {
			sprint, err = s.client.FetchSprintResults(gctx, season, round)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, errors.Upstream(err, fmt.Sprintf("failed to fetch results of round %d", round))
	}

	summary := &ResultSyncResult{Status: StatusPending, Season: season, Round: round, RaceID: race.ID}
	if len(grandPrix) == 0 {
		s.log.Info("Results not published yet", "season", season, "round", round)
		return summary, nil
	}

	result := buildRaceResult(race.ID, qualifying, grandPrix, sprint)
	if err := s.repo.SaveResult(ctx, result); err != nil {
		return nil, err
	}
	summary.Status = StatusSuccess
	summary.GrandPrix = len(result.GrandPrix)
	summary.Sprint = len(result.Sprint)
	summary.Qualifying = len(result.Qualifying)
	s.log.Info("Results synced", "season", season, "round", round, "race_id", race.ID, "classified", summary.GrandPrix)

	if s.leaderboard != nil {
		if err := s.leaderboard.Invalidate(ctx, TagResults); err != nil {
			s.log.Warn("Failed to invalidate leaderboards", "error", err)
		}
		groups, err := s.leaderboard.RecomputeAll(ctx)
		if err != nil {
			s.log.Error("Failed to recompute leaderboards", "error", err)
		}
		summary.LeaderboardGroups = groups
	}
	return summary, nil
}

// SyncPendingResults imports every round whose grand prix is over but has no stored result
func (s *SyncService) SyncPendingResults(ctx context.Context, season int) ([]ResultSyncResult, error) {
	races, err := s.repo.ListRaces(ctx, season)
	if err != nil {
		return nil, err
	}
	stored, err := s.repo.GetResults(ctx, season)
	if err != nil {
		return nil, err
	}

	now := s.now()
	var synced []ResultSyncResult
	for _, race := range races {
		if _, ok := stored[race.ID]; ok {
			continue
		}
		if race.GrandPrixDate.IsZero() || now.Before(race.GrandPrixDate.Add(resultGrace)) {
			continue
		}
		res, err := s.SyncResults(ctx, season, race.Round)
		if err != nil {
			return synced, err
		}
		synced = append(synced, *res)
	}
	return synced, nil
}

// buildRaceResult turns API classifications into a RaceResult.
// Constructor points are summed from the grand prix only.
func buildRaceResult(raceID int, qualifying []jolpica.QualifyingResult, grandPrix, sprint []jolpica.Result) models.RaceResult {
	result := models.NewRaceResult(raceID)
	for _, q := range qualifying {
		if pos := q.Position.Int(); pos > 0 {
			result.Qualifying[pos] = q.Driver.DriverID
		}
	}
	for _, r := range grandPrix {
		if pos := r.Position.Int(); pos > 0 {
			result.GrandPrix[pos] = r.Driver.DriverID
		}
		result.ConstructorPoints[r.Constructor.ConstructorID] += float64(r.Points)
	}
	for _, r := range sprint {
		if pos := r.Position.Int(); pos > 0 {
			result.Sprint[pos] = r.Driver.DriverID
		}
	}
	return result
}

func toDriver(d jolpica.Driver) models.Driver {
	return models.Driver{
		ID:         d.DriverID,
		Code:       d.Code,
		GivenName:  d.GivenName,
		FamilyName: d.FamilyName,
		Number:     d.PermanentNumber.Int(),
	}
}

func toConstructor(c jolpica.Constructor) models.Constructor {
	return models.Constructor{
		ID:          c.ConstructorID,
		Name:        c.Name,
		Nationality: c.Nationality,
	}
}

// toRace converts a calendar entry. ok is false without qualifying or grand prix times.
func toRace(r jolpica.Race) (models.Race, bool) {
	quali, ok := r.Qualifying.Start()
	if !ok {
		return models.Race{}, false
	}
	gp, ok := r.Start()
	if !ok {
		return models.Race{}, false
	}
	race := models.Race{
		Season:         r.Season.Int(),
		Round:          r.Round.Int(),
		Name:           r.RaceName,
		Circuit:        r.Circuit.CircuitName,
		Locality:       r.Circuit.Location.Locality,
		Country:        r.Circuit.Location.Country,
		QualifyingDate: quali,
		GrandPrixDate:  gp,
	}
	if t, ok := r.SprintQualifyingSession().Start(); ok {
		race.SprintQualifyingDate = &t
	}
	if t, ok := r.Sprint.Start(); ok {
		race.SprintDate = &t
	}
	return race, true
}
