package repository

import (
	"context"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

// GroupRepository defines tipping group data operations
type GroupRepository interface {
	CreateGroup(ctx context.Context, name, joinCode string, cutoffMinutes int) (int64, error)
	GetGroup(ctx context.Context, id int) (*models.Group, error)
	GetGroupByJoinCode(ctx context.Context, joinCode string) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	UpdateGroupCutoff(ctx context.Context, id, cutoffMinutes int) error
}

// MemberRepository defines group member data operations
type MemberRepository interface {
	CreateMember(ctx context.Context, groupID int, name, token string, isAdmin bool) (int64, error)
	GetMember(ctx context.Context, id int) (*models.Member, error)
	GetMemberByToken(ctx context.Context, token string) (*models.Member, error)
	ListMembers(ctx context.Context, groupID int) ([]models.Member, error)
	MemberNameExists(ctx context.Context, groupID int, name string) (bool, error)
}

// RaceRepository defines calendar and entry list data operations
type RaceRepository interface {
	UpsertRace(ctx context.Context, race models.Race) (id int64, created bool, err error)
	GetRace(ctx context.Context, id int) (*models.Race, error)
	GetRaceByRound(ctx context.Context, season, round int) (*models.Race, error)
	ListRaces(ctx context.Context, season int) ([]models.Race, error)
	UpsertDriver(ctx context.Context, driver models.Driver) error
	ListDrivers(ctx context.Context) ([]models.Driver, error)
	DriverExists(ctx context.Context, id string) (bool, error)
	UpsertConstructor(ctx context.Context, constructor models.Constructor) error
	ListConstructors(ctx context.Context) ([]models.Constructor, error)
	ConstructorExists(ctx context.Context, id string) (bool, error)
}

// ResultRepository defines official result data operations
type ResultRepository interface {
	SaveResult(ctx context.Context, result models.RaceResult) error
	GetResults(ctx context.Context, season int) (map[int]models.RaceResult, error)
}

// PredictionRepository defines tip data operations
type PredictionRepository interface {
	GetOrCreatePrediction(ctx context.Context, memberID int, raceID *int, season int) (int64, error)
	UpsertPredictionEntry(ctx context.Context, predictionID int64, field models.PredictionField, driverID, constructorID string) error
	ListMemberEntries(ctx context.Context, memberID int, raceID *int, season int) ([]models.PredictionEntry, error)
	ListGroupEntries(ctx context.Context, groupID, season int) ([]models.PredictionEntry, error)
	GetPredictionEntry(ctx context.Context, id int) (*models.PredictionEntry, error)
	SetEntryOverwrite(ctx context.Context, id int, overwrite models.Overwrite) error
}

// SettingsRepository defines settings data operations
type SettingsRepository interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	GetStats(ctx context.Context) (map[string]int, error)
	ClearTable(ctx context.Context, table string) error
}

// FullRepository combines all repository interfaces
// Use this when a service needs access to multiple domains
type FullRepository interface {
	GroupRepository
	MemberRepository
	RaceRepository
	ResultRepository
	PredictionRepository
	SettingsRepository
}

// Ensure Repository implements all interfaces
var _ FullRepository = (*Repository)(nil)
