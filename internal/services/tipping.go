package services

import (
	"context"
	"sort"
	"time"

	"github.com/selfire1/gridtip-sub000/internal/errors"
	"github.com/selfire1/gridtip-sub000/internal/logger"
	"github.com/selfire1/gridtip-sub000/internal/models"
	"github.com/selfire1/gridtip-sub000/internal/repository"
	"github.com/selfire1/gridtip-sub000/internal/scoring"
)

// TippingServiceRepository defines the repository methods needed by TippingService
type TippingServiceRepository interface {
	repository.GroupRepository
	repository.MemberRepository
	repository.RaceRepository
	repository.PredictionRepository
}

// TippingService handles tip submission and the deadlines around it
type TippingService struct {
	log         logger.Logger
	repo        TippingServiceRepository
	settings    SettingsServicer
	invalidator Invalidator
	now         func() time.Time
}

// NewTippingService creates a new TippingService
func NewTippingService(log logger.Logger, repo TippingServiceRepository, settings SettingsServicer, invalidator Invalidator) *TippingService {
	return &TippingService{
		log:         log,
		repo:        repo,
		settings:    settings,
		invalidator: invalidator,
		now:         time.Now,
	}
}

// SetClock replaces the time source (for testing)
func (s *TippingService) SetClock(now func() time.Time) {
	s.now = now
}

// Selections maps a field to the driver or constructor id tipped for it
type Selections map[models.PredictionField]string

// TipForm contains all data needed to tip one race
type TipForm struct {
	Race         models.Race                       `json:"race"`
	DueDates     scoring.DueDates                  `json:"due_dates"`
	Fields       []models.PredictionField          `json:"fields"`
	ClosedFields []models.PredictionField          `json:"closed_fields"`
	Tippable     bool                              `json:"tippable"`
	Entries      map[models.PredictionField]string `json:"entries"`
	Drivers      []models.Driver                   `json:"drivers"`
	Constructors []models.Constructor              `json:"constructors"`
}

// ChampionshipForm contains all data needed to tip the season championship
type ChampionshipForm struct {
	Season       int                               `json:"season"`
	Deadline     *time.Time                        `json:"deadline,omitempty"`
	Open         bool                              `json:"open"`
	Entries      map[models.PredictionField]string `json:"entries"`
	Drivers      []models.Driver                   `json:"drivers"`
	Constructors []models.Constructor              `json:"constructors"`
}

// SubmitResult reports which fields a submission changed
type SubmitResult struct {
	PredictionID int64                    `json:"prediction_id,omitempty"`
	Saved        []models.PredictionField `json:"saved"`
	Unchanged    []models.PredictionField `json:"unchanged"`
}

// TippingStatus describes the next race a group can tip
type TippingStatus struct {
	GroupID          int                      `json:"group_id"`
	Race             *models.Race             `json:"race,omitempty"`
	DueDates         *scoring.DueDates        `json:"due_dates,omitempty"`
	ClosedFields     []models.PredictionField `json:"closed_fields"`
	NextDeadline     *time.Time               `json:"next_deadline,omitempty"`
	SecondsRemaining int64                    `json:"seconds_remaining"`
}

// memberContext resolves a token to its member and group
func (s *TippingService) memberContext(ctx context.Context, token string) (*models.Member, *models.Group, error) {
	member, err := memberByToken(ctx, s.repo, token)
	if err != nil {
		return nil, nil, err
	}
	group, err := s.repo.GetGroup(ctx, member.GroupID)
	if err != nil {
		return nil, nil, err
	}
	return member, group, nil
}

func (s *TippingService) race(ctx context.Context, raceID int) (*models.Race, error) {
	race, err := s.repo.GetRace(ctx, raceID)
	if err == repository.ErrNotFound {
		return nil, errors.NotFoundf("race %d not found", raceID)
	}
	return race, err
}

// fieldsFor lists the race fields a weekend offers
func fieldsFor(race models.Race) []models.PredictionField {
	fields := make([]models.PredictionField, 0, len(models.RaceFields))
	for _, f := range models.RaceFields {
		if f == models.FieldSprintP1 && !race.IsSprintWeekend() {
			continue
		}
		fields = append(fields, f)
	}
	return fields
}

func entryValues(entries []models.PredictionEntry) map[models.PredictionField]string {
	values := make(map[models.PredictionField]string, len(entries))
	for _, e := range entries {
		values[e.Field] = e.Value()
	}
	return values
}

// GetTipForm returns the race, its deadlines for the member's group and the member's saved tips
func (s *TippingService) GetTipForm(ctx context.Context, token string, raceID int) (*TipForm, error) {
	member, group, err := s.memberContext(ctx, token)
	if err != nil {
		return nil, err
	}
	race, err := s.race(ctx, raceID)
	if err != nil {
		return nil, err
	}

	entries, err := s.repo.ListMemberEntries(ctx, member.ID, &race.ID, race.Season)
	if err != nil {
		return nil, err
	}
	drivers, err := s.repo.ListDrivers(ctx)
	if err != nil {
		return nil, err
	}
	constructors, err := s.repo.ListConstructors(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now()
	return &TipForm{
		Race:         *race,
		DueDates:     scoring.TipsDueDates(*race, group.CutoffMinutes),
		Fields:       fieldsFor(*race),
		ClosedFields: scoring.ClosedFields(*race, group.CutoffMinutes, now).Sorted(),
		Tippable:     scoring.IsRaceTippable(*race, group.CutoffMinutes, now),
		Entries:      entryValues(entries),
		Drivers:      drivers,
		Constructors: constructors,
	}, nil
}

// SubmitTips saves race tips for the member behind token.
// Closed fields may be resubmitted unchanged; changing one fails with FieldClosedError.
func (s *TippingService) SubmitTips(ctx context.Context, token string, raceID int, selections Selections) (*SubmitResult, error) {
	member, group, err := s.memberContext(ctx, token)
	if err != nil {
		return nil, err
	}
	race, err := s.race(ctx, raceID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !scoring.IsRaceTippable(*race, group.CutoffMinutes, now) {
		return nil, ErrTipsClosed
	}

	fields, err := s.validateSelections(ctx, selections, func(f models.PredictionField) error {
		if !f.IsRaceField() {
			return ErrUnknownField
		}
		if f == models.FieldSprintP1 && !race.IsSprintWeekend() {
			return ErrSprintNotAvailable
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	existing, err := s.repo.ListMemberEntries(ctx, member.ID, &race.ID, race.Season)
	if err != nil {
		return nil, err
	}
	saved := entryValues(existing)
	closed := scoring.ClosedFields(*race, group.CutoffMinutes, now)

	result := &SubmitResult{Saved: []models.PredictionField{}, Unchanged: []models.PredictionField{}}
	var changes []models.PredictionField
	for _, f := range fields {
		if saved[f] == selections[f] {
			result.Unchanged = append(result.Unchanged, f)
			continue
		}
		if closed.Has(f) {
			return nil, &FieldClosedError{Field: f}
		}
		changes = append(changes, f)
	}
	if len(changes) == 0 {
		return result, nil
	}

	predictionID, err := s.repo.GetOrCreatePrediction(ctx, member.ID, &race.ID, race.Season)
	if err != nil {
		return nil, err
	}
	if err := s.upsert(ctx, predictionID, changes, selections); err != nil {
		return nil, err
	}
	result.PredictionID = predictionID
	result.Saved = changes

	s.log.Info("Tips saved", "member_id", member.ID, "race_id", race.ID, "fields", len(changes))
	return result, nil
}

// championshipDeadline returns when championship tips close: the grand prix deadline of round 1.
// ok is false when the season's first round is unknown.
func (s *TippingService) championshipDeadline(ctx context.Context, season, cutoffMinutes int) (time.Time, bool, error) {
	first, err := s.repo.GetRaceByRound(ctx, season, 1)
	if err == repository.ErrNotFound {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	if first.QualifyingDate.IsZero() {
		return time.Time{}, false, nil
	}
	return scoring.TipsDueDates(*first, cutoffMinutes).GrandPrix, true, nil
}

// GetChampionshipForm returns the member's championship tips and their deadline
func (s *TippingService) GetChampionshipForm(ctx context.Context, token string, season int) (*ChampionshipForm, error) {
	member, group, err := s.memberContext(ctx, token)
	if err != nil {
		return nil, err
	}
	deadline, known, err := s.championshipDeadline(ctx, season, group.CutoffMinutes)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListMemberEntries(ctx, member.ID, nil, season)
	if err != nil {
		return nil, err
	}
	drivers, err := s.repo.ListDrivers(ctx)
	if err != nil {
		return nil, err
	}
	constructors, err := s.repo.ListConstructors(ctx)
	if err != nil {
		return nil, err
	}

	form := &ChampionshipForm{
		Season:       season,
		Open:         known && s.now().Before(deadline),
		Entries:      entryValues(entries),
		Drivers:      drivers,
		Constructors: constructors,
	}
	if known {
		form.Deadline = &deadline
	}
	return form, nil
}

// SubmitChampionshipTips saves the season-long driver and constructor tips
func (s *TippingService) SubmitChampionshipTips(ctx context.Context, token string, season int, selections Selections) (*SubmitResult, error) {
	member, group, err := s.memberContext(ctx, token)
	if err != nil {
		return nil, err
	}
	deadline, known, err := s.championshipDeadline(ctx, season, group.CutoffMinutes)
	if err != nil {
		return nil, err
	}
	if !known || !s.now().Before(deadline) {
		return nil, ErrChampionshipClosed
	}

	fields, err := s.validateSelections(ctx, selections, func(f models.PredictionField) error {
		if !f.IsChampionshipField() {
			return ErrUnknownField
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	predictionID, err := s.repo.GetOrCreatePrediction(ctx, member.ID, nil, season)
	if err != nil {
		return nil, err
	}
	if err := s.upsert(ctx, predictionID, fields, selections); err != nil {
		return nil, err
	}

	s.log.Info("Championship tips saved", "member_id", member.ID, "season", season)
	return &SubmitResult{PredictionID: predictionID, Saved: fields, Unchanged: []models.PredictionField{}}, nil
}

// validateSelections checks every field with allowed and every id against the entry list.
// Empty values are dropped. The returned fields are sorted.
func (s *TippingService) validateSelections(ctx context.Context, selections Selections, allowed func(models.PredictionField) error) ([]models.PredictionField, error) {
	fields := make([]models.PredictionField, 0, len(selections))
	for f, value := range selections {
		if value == "" {
			continue
		}
		if _, ok := models.ParsePredictionField(string(f)); !ok {
			return nil, ErrUnknownField
		}
		if err := allowed(f); err != nil {
			return nil, err
		}
		fields = append(fields, f)
	}
	if len(fields) == 0 {
		return nil, ErrNoSelections
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i] < fields[j] })

	for _, f := range fields {
		var (
			exists bool
			err    error
		)
		if f.IsConstructorField() {
			exists, err = s.repo.ConstructorExists(ctx, selections[f])
		} else {
			exists, err = s.repo.DriverExists(ctx, selections[f])
		}
		if err != nil {
			return nil, err
		}
		if !exists && f.IsConstructorField() {
			return nil, ErrUnknownConstructor
		}
		if !exists {
			return nil, ErrUnknownDriver
		}
	}
	return fields, nil
}

func (s *TippingService) upsert(ctx context.Context, predictionID int64, fields []models.PredictionField, selections Selections) error {
	for _, f := range fields {
		var driverID, constructorID string
		if f.IsConstructorField() {
			constructorID = selections[f]
		} else {
			driverID = selections[f]
		}
		if err := s.repo.UpsertPredictionEntry(ctx, predictionID, f, driverID, constructorID); err != nil {
			return err
		}
	}
	return nil
}

// OverwriteEntry sets or clears an admin decision on one entry and drops the group's cached leaderboard
func (s *TippingService) OverwriteEntry(ctx context.Context, entryID int, overwrite models.Overwrite) error {
	if !overwrite.Valid() {
		return ErrInvalidOverwrite
	}
	entry, err := s.repo.GetPredictionEntry(ctx, entryID)
	if err == repository.ErrNotFound {
		return errors.NotFoundf("prediction entry %d not found", entryID)
	}
	if err != nil {
		return err
	}
	if err := s.repo.SetEntryOverwrite(ctx, entryID, overwrite); err != nil {
		return err
	}

	member, err := s.repo.GetMember(ctx, entry.MemberID)
	if err != nil {
		return err
	}
	s.log.Info("Entry overwritten", "entry_id", entryID, "member_id", member.ID, "overwrite", string(overwrite))
	if s.invalidator != nil {
		if err := s.invalidator.Invalidate(ctx, GroupTag(member.GroupID)); err != nil {
			s.log.Warn("Failed to invalidate leaderboard", "group_id", member.GroupID, "error", err)
		}
	}
	return nil
}

// TippingStatus returns the next race the group can still tip and how long until its next deadline
func (s *TippingService) TippingStatus(ctx context.Context, groupID int) (*TippingStatus, error) {
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
	races, err := s.repo.ListRaces(ctx, season)
	if err != nil {
		return nil, err
	}

	now := s.now()
	status := &TippingStatus{GroupID: groupID, ClosedFields: []models.PredictionField{}}
	for i := range races {
		race := races[i]
		if !scoring.IsRaceTippable(race, group.CutoffMinutes, now) {
			continue
		}
		due := scoring.TipsDueDates(race, group.CutoffMinutes)
		closed := scoring.ClosedFields(race, group.CutoffMinutes, now)

		var next *time.Time
		if !closed.Has(models.FieldP1) {
			next = &due.GrandPrix
		}
		if due.Sprint != nil && !closed.Has(models.FieldSprintP1) && (next == nil || due.Sprint.Before(*next)) {
			next = due.Sprint
		}
		status.Race = &race
		status.DueDates = &due
		status.ClosedFields = closed.Sorted()
		status.NextDeadline = next
		if next != nil {
			status.SecondsRemaining = int64(next.Sub(now) / time.Second)
		}
		break
	}
	return status, nil
}
