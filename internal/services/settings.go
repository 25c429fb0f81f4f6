package services

import (
	"context"
	"strconv"
	"strings"

	"github.com/selfire1/gridtip-sub000/internal/logger"
	"github.com/selfire1/gridtip-sub000/internal/repository"
)

// Setting keys
const (
	SettingCurrentSeason        = "current_season"
	SettingDefaultCutoffMinutes = "default_cutoff_minutes"
	SettingF1APIURL             = "f1api_url"
	SettingBaseURL              = "base_url"
)

// SettingsService handles settings-related business logic
type SettingsService struct {
	log         logger.Logger
	repo        repository.SettingsRepository
	defaults    Defaults
	invalidator Invalidator
}

// Defaults are the values reported until a setting is stored
type Defaults struct {
	Season        int
	CutoffMinutes int
	F1APIURL      string
}

// NewSettingsService creates a new SettingsService
func NewSettingsService(log logger.Logger, repo repository.SettingsRepository, defaults Defaults) *SettingsService {
	if validateCutoff(defaults.CutoffMinutes) != nil {
		defaults.CutoffMinutes = defaultCutoffMinutes
	}
	return &SettingsService{log: log, repo: repo, defaults: defaults}
}

// SeedDefaults stores every default that has no stored value yet
func (s *SettingsService) SeedDefaults(ctx context.Context) error {
	seeds := map[string]string{
		SettingDefaultCutoffMinutes: strconv.Itoa(s.defaults.CutoffMinutes),
		SettingF1APIURL:             s.defaults.F1APIURL,
	}
	if s.defaults.Season > 0 {
		seeds[SettingCurrentSeason] = strconv.Itoa(s.defaults.Season)
	}
	for key, value := range seeds {
		if value == "" {
			continue
		}
		_, err := s.repo.GetSetting(ctx, key)
		if err == nil {
			continue
		}
		if err != repository.ErrNotFound {
			return err
		}
		if err := s.repo.SetSetting(ctx, key, value); err != nil {
			return err
		}
	}
	return nil
}

// SetInvalidator sets the cache invalidator used after resets
func (s *SettingsService) SetInvalidator(inv Invalidator) {
	s.invalidator = inv
}

// CurrentSeason returns the season that tips and leaderboards refer to
func (s *SettingsService) CurrentSeason(ctx context.Context) (int, error) {
	value, err := s.repo.GetSetting(ctx, SettingCurrentSeason)
	if err != nil {
		if err == repository.ErrNotFound {
			return s.defaults.Season, nil
		}
		return 0, err
	}
	season, err := strconv.Atoi(value)
	if err != nil {
		s.log.Warn("Ignoring malformed current_season", "value", value)
		return s.defaults.Season, nil
	}
	return season, nil
}

// SetCurrentSeason stores the current season
func (s *SettingsService) SetCurrentSeason(ctx context.Context, season int) error {
	if err := validateSeason(season); err != nil {
		return err
	}
	return s.repo.SetSetting(ctx, SettingCurrentSeason, strconv.Itoa(season))
}

// DefaultCutoffMinutes returns the cutoff new groups start with
func (s *SettingsService) DefaultCutoffMinutes(ctx context.Context) (int, error) {
	value, err := s.repo.GetSetting(ctx, SettingDefaultCutoffMinutes)
	if err != nil {
		if err == repository.ErrNotFound {
			return s.defaults.CutoffMinutes, nil
		}
		return 0, err
	}
	minutes, err := strconv.Atoi(value)
	if err != nil || validateCutoff(minutes) != nil {
		return s.defaults.CutoffMinutes, nil
	}
	return minutes, nil
}

// SetDefaultCutoffMinutes stores the cutoff new groups start with
func (s *SettingsService) SetDefaultCutoffMinutes(ctx context.Context, minutes int) error {
	if err := validateCutoff(minutes); err != nil {
		return err
	}
	return s.repo.SetSetting(ctx, SettingDefaultCutoffMinutes, strconv.Itoa(minutes))
}

// GetBaseURL returns the application base URL
func (s *SettingsService) GetBaseURL(ctx context.Context) (string, error) {
	value, err := s.repo.GetSetting(ctx, SettingBaseURL)
	if err != nil {
		if err == repository.ErrNotFound {
			return "", nil // not configured yet
		}
		return "", err
	}
	return value, nil
}

// SetBaseURL saves the application base URL
func (s *SettingsService) SetBaseURL(ctx context.Context, url string) error {
	return s.repo.SetSetting(ctx, SettingBaseURL, strings.TrimSuffix(url, "/"))
}

// GetSetting retrieves an arbitrary setting
func (s *SettingsService) GetSetting(ctx context.Context, key string) (string, error) {
	return s.repo.GetSetting(ctx, key)
}

// SetSetting saves an arbitrary setting
func (s *SettingsService) SetSetting(ctx context.Context, key, value string) error {
	return s.repo.SetSetting(ctx, key, value)
}

// AllSettings returns commonly used settings as a map
func (s *SettingsService) AllSettings(ctx context.Context) (map[string]interface{}, error) {
	settings := make(map[string]interface{})

	season, err := s.CurrentSeason(ctx)
	if err != nil {
		return nil, err
	}
	settings[SettingCurrentSeason] = season

	cutoff, _ := s.DefaultCutoffMinutes(ctx)
	settings[SettingDefaultCutoffMinutes] = cutoff

	baseURL, _ := s.GetBaseURL(ctx)
	settings[SettingBaseURL] = baseURL

	apiURL, err := s.GetSetting(ctx, SettingF1APIURL)
	if err != nil {
		apiURL = s.defaults.F1APIURL
	}
	settings[SettingF1APIURL] = apiURL

	return settings, nil
}

// Settings represents application settings for update operations
type Settings struct {
	CurrentSeason        *int
	DefaultCutoffMinutes *int
	BaseURL              string
}

// UpdateSettings updates multiple settings at once. Zero fields are left alone.
func (s *SettingsService) UpdateSettings(ctx context.Context, settings Settings) error {
	if settings.CurrentSeason != nil {
		if err := s.SetCurrentSeason(ctx, *settings.CurrentSeason); err != nil {
			return err
		}
		s.invalidate(ctx)
	}
	if settings.DefaultCutoffMinutes != nil {
		if err := s.SetDefaultCutoffMinutes(ctx, *settings.DefaultCutoffMinutes); err != nil {
			return err
		}
	}
	if settings.BaseURL != "" {
		if err := s.SetBaseURL(ctx, settings.BaseURL); err != nil {
			return err
		}
	}
	return nil
}

// GetStats returns row counts for the admin dashboard
func (s *SettingsService) GetStats(ctx context.Context) (map[string]int, error) {
	return s.repo.GetStats(ctx)
}

// ResetTablesResult contains the result of a database reset
type ResetTablesResult struct {
	Tables  []string `json:"tables"`
	Message string   `json:"message"`
}

// ValidTables defines which tables can be reset
var ValidTables = map[string]bool{
	"predictions":        true,
	"prediction_entries": true,
	"result_positions":   true,
	"constructor_points": true,
}

// resetCompanions lists tables that are always cleared together with the key table
var resetCompanions = map[string]string{
	"predictions":        "prediction_entries",
	"result_positions":   "constructor_points",
	"constructor_points": "result_positions",
}

// ResetTables validates and resets the specified database tables
func (s *SettingsService) ResetTables(ctx context.Context, tables []string) (*ResetTablesResult, error) {
	if len(tables) == 0 {
		return nil, ErrNoTablesSpecified
	}

	var tablesToReset []string
	for _, table := range tables {
		if !ValidTables[table] {
			return nil, &InvalidTableError{Table: table}
		}
		if !containsTable(tablesToReset, table) {
			tablesToReset = append(tablesToReset, table)
		}
	}

	// Children go first so foreign keys never dangle
	for _, table := range append([]string(nil), tablesToReset...) {
		companion, ok := resetCompanions[table]
		if ok && !containsTable(tablesToReset, companion) {
			tablesToReset = append([]string{companion}, tablesToReset...)
		}
	}

	for _, table := range tablesToReset {
		if err := s.repo.ClearTable(ctx, table); err != nil {
			return nil, err
		}
	}
	s.log.Info("Reset tables", "tables", tablesToReset)
	s.invalidate(ctx)

	return &ResetTablesResult{
		Tables:  tablesToReset,
		Message: "Successfully deleted data from tables",
	}, nil
}

func containsTable(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// invalidate drops every cached leaderboard
func (s *SettingsService) invalidate(ctx context.Context) {
	if s.invalidator == nil {
		return
	}
	if err := s.invalidator.Invalidate(ctx, TagResults); err != nil {
		s.log.Warn("Failed to invalidate leaderboards", "error", err)
	}
}

func validateSeason(season int) error {
	if season < 1950 || season > 2100 {
		return ErrInvalidSeason
	}
	return nil
}
