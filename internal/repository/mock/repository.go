package mock

import (
	"context"

	"github.com/selfire1/gridtip-sub000/internal/models"
	"github.com/selfire1/gridtip-sub000/internal/repository"
)

// Repository wraps a real repository and allows injecting errors for testing.
//
// Usage:
//
//	realRepo := testutil.NewTestRepository(t)
//	mockRepo := mock.NewRepository(realRepo)
//	mockRepo.SaveResultError = errors.New("database error")
//	svc := services.NewSyncService(log, mockRepo, client, nil)
//	_, err := svc.SyncResults(ctx, 2025, 1)
//	// err will now contain the injected error
type Repository struct {
	repository.FullRepository

	// ===== Group Errors =====
	CreateGroupError        error
	GetGroupError           error
	GetGroupByJoinCodeError error
	ListGroupsError         error
	UpdateGroupCutoffError  error

	// ===== Member Errors =====
	CreateMemberError     error
	GetMemberError        error
	GetMemberByTokenError error
	ListMembersError      error

	// ===== Race Errors =====
	UpsertRaceError        error
	GetRaceError           error
	ListRacesError         error
	UpsertDriverError      error
	ListDriversError       error
	DriverExistsError      error
	UpsertConstructorError error
	ListConstructorsError  error

	// ===== Result Errors =====
	SaveResultError error
	GetResultsError error

	// ===== Prediction Errors =====
	GetOrCreatePredictionError error
	UpsertPredictionEntryError error
	ListMemberEntriesError     error
	ListGroupEntriesError      error
	GetPredictionEntryError    error
	SetEntryOverwriteError     error

	// ===== Settings Errors =====
	GetSettingError error
	SetSettingError error
	GetStatsError   error
	ClearTableError error
}

// NewRepository creates a mock repository wrapping a real one
func NewRepository(real repository.FullRepository) *Repository {
	return &Repository{
		FullRepository: real,
	}
}

// ===== Group Methods =====

func (m *Repository) CreateGroup(ctx context.Context, name, joinCode string, cutoffMinutes int) (int64, error) {
	if m.CreateGroupError != nil {
		return 0, m.CreateGroupError
	}
	return m.FullRepository.CreateGroup(ctx, name, joinCode, cutoffMinutes)
}

func (m *Repository) GetGroup(ctx context.Context, id int) (*models.Group, error) {
	if m.GetGroupError != nil {
		return nil, m.GetGroupError
	}
	return m.FullRepository.GetGroup(ctx, id)
}

func (m *Repository) GetGroupByJoinCode(ctx context.Context, joinCode string) (*models.Group, error) {
	if m.GetGroupByJoinCodeError != nil {
		return nil, m.GetGroupByJoinCodeError
	}
	return m.FullRepository.GetGroupByJoinCode(ctx, joinCode)
}

func (m *Repository) ListGroups(ctx context.Context) ([]models.Group, error) {
	if m.ListGroupsError != nil {
		return nil, m.ListGroupsError
	}
	return m.FullRepository.ListGroups(ctx)
}

func (m *Repository) UpdateGroupCutoff(ctx context.Context, id, cutoffMinutes int) error {
	if m.UpdateGroupCutoffError != nil {
		return m.UpdateGroupCutoffError
	}
	return m.FullRepository.UpdateGroupCutoff(ctx, id, cutoffMinutes)
}

// ===== Member Methods =====

func (m *Repository) CreateMember(ctx context.Context, groupID int, name, token string, isAdmin bool) (int64, error) {
	if m.CreateMemberError != nil {
		return 0, m.CreateMemberError
	}
	return m.FullRepository.CreateMember(ctx, groupID, name, token, isAdmin)
}

func (m *Repository) GetMember(ctx context.Context, id int) (*models.Member, error) {
	if m.GetMemberError != nil {
		return nil, m.GetMemberError
	}
	return m.FullRepository.GetMember(ctx, id)
}

func (m *Repository) GetMemberByToken(ctx context.Context, token string) (*models.Member, error) {
	if m.GetMemberByTokenError != nil {
		return nil, m.GetMemberByTokenError
	}
	return m.FullRepository.GetMemberByToken(ctx, token)
}

func (m *Repository) ListMembers(ctx context.Context, groupID int) ([]models.Member, error) {
	if m.ListMembersError != nil {
		return nil, m.ListMembersError
	}
	return m.FullRepository.ListMembers(ctx, groupID)
}

// ===== Race Methods =====

func (m *Repository) UpsertRace(ctx context.Context, race models.Race) (int64, bool, error) {
	if m.UpsertRaceError != nil {
		return 0, false, m.UpsertRaceError
	}
	return m.FullRepository.UpsertRace(ctx, race)
}

func (m *Repository) GetRace(ctx context.Context, id int) (*models.Race, error) {
	if m.GetRaceError != nil {
		return nil, m.GetRaceError
	}
	return m.FullRepository.GetRace(ctx, id)
}

func (m *Repository) ListRaces(ctx context.Context, season int) ([]models.Race, error) {
	if m.ListRacesError != nil {
		return nil, m.ListRacesError
	}
	return m.FullRepository.ListRaces(ctx, season)
}

func (m *Repository) UpsertDriver(ctx context.Context, driver models.Driver) error {
	if m.UpsertDriverError != nil {
		return m.UpsertDriverError
	}
	return m.FullRepository.UpsertDriver(ctx, driver)
}

func (m *Repository) ListDrivers(ctx context.Context) ([]models.Driver, error) {
	if m.ListDriversError != nil {
		return nil, m.ListDriversError
	}
	return m.FullRepository.ListDrivers(ctx)
}

func (m *Repository) DriverExists(ctx context.Context, id string) (bool, error) {
	if m.DriverExistsError != nil {
		return false, m.DriverExistsError
	}
	return m.FullRepository.DriverExists(ctx, id)
}

func (m *Repository) UpsertConstructor(ctx context.Context, constructor models.Constructor) error {
	if m.UpsertConstructorError != nil {
		return m.UpsertConstructorError
	}
	return m.FullRepository.UpsertConstructor(ctx, constructor)
}

func (m *Repository) ListConstructors(ctx context.Context) ([]models.Constructor, error) {
	if m.ListConstructorsError != nil {
		return nil, m.ListConstructorsError
	}
	return m.FullRepository.ListConstructors(ctx)
}

// ===== Result Methods =====

func (m *Repository) SaveResult(ctx context.Context, result models.RaceResult) error {
	if m.SaveResultError != nil {
		return m.SaveResultError
	}
	return m.FullRepository.SaveResult(ctx, result)
}

func (m *Repository) GetResults(ctx context.Context, season int) (map[int]models.RaceResult, error) {
	if m.GetResultsError != nil {
		return nil, m.GetResultsError
	}
	return m.FullRepository.GetResults(ctx, season)
}

// ===== Prediction Methods =====

func (m *Repository) GetOrCreatePrediction(ctx context.Context, memberID int, raceID *int, season int) (int64, error) {
	if m.GetOrCreatePredictionError != nil {
		return 0, m.GetOrCreatePredictionError
	}
	return m.FullRepository.GetOrCreatePrediction(ctx, memberID, raceID, season)
}

func (m *Repository) UpsertPredictionEntry(ctx context.Context, predictionID int64, field models.PredictionField, driverID, constructorID string) error {
	if m.UpsertPredictionEntryError != nil {
		return m.UpsertPredictionEntryError
	}
	return m.FullRepository.UpsertPredictionEntry(ctx, predictionID, field, driverID, constructorID)
}

func (m *Repository) ListMemberEntries(ctx context.Context, memberID int, raceID *int, season int) ([]models.PredictionEntry, error) {
	if m.ListMemberEntriesError != nil {
		return nil, m.ListMemberEntriesError
	}
	return m.FullRepository.ListMemberEntries(ctx, memberID, raceID, season)
}

func (m *Repository) ListGroupEntries(ctx context.Context, groupID, season int) ([]models.PredictionEntry, error) {
	if m.ListGroupEntriesError != nil {
		return nil, m.ListGroupEntriesError
	}
	return m.FullRepository.ListGroupEntries(ctx, groupID, season)
}

func (m *Repository) GetPredictionEntry(ctx context.Context, id int) (*models.PredictionEntry, error) {
	if m.GetPredictionEntryError != nil {
		return nil, m.GetPredictionEntryError
	}
	return m.FullRepository.GetPredictionEntry(ctx, id)
}

func (m *Repository) SetEntryOverwrite(ctx context.Context, id int, overwrite models.Overwrite) error {
	if m.SetEntryOverwriteError != nil {
		return m.SetEntryOverwriteError
	}
	return m.FullRepository.SetEntryOverwrite(ctx, id, overwrite)
}

// ===== Settings Methods =====

func (m *Repository) GetSetting(ctx context.Context, key string) (string, error) {
	if m.GetSettingError != nil {
		return "", m.GetSettingError
	}
	return m.FullRepository.GetSetting(ctx, key)
}

func (m *Repository) SetSetting(ctx context.Context, key, value string) error {
	if m.SetSettingError != nil {
		return m.SetSettingError
	}
	return m.FullRepository.SetSetting(ctx, key, value)
}

func (m *Repository) GetStats(ctx context.Context) (map[string]int, error) {
	if m.GetStatsError != nil {
		return nil, m.GetStatsError
	}
	return m.FullRepository.GetStats(ctx)
}

func (m *Repository) ClearTable(ctx context.Context, table string) error {
	if m.ClearTableError != nil {
		return m.ClearTableError
	}
	return m.FullRepository.ClearTable(ctx, table)
}
