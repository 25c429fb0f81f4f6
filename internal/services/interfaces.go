package services

import (
	"context"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

// TippingServicer defines the interface for tip operations
type TippingServicer interface {
	GetTipForm(ctx context.Context, token string, raceID int) (*TipForm, error)
	SubmitTips(ctx context.Context, token string, raceID int, selections Selections) (*SubmitResult, error)
	GetChampionshipForm(ctx context.Context, token string, season int) (*ChampionshipForm, error)
	SubmitChampionshipTips(ctx context.Context, token string, season int, selections Selections) (*SubmitResult, error)
	OverwriteEntry(ctx context.Context, entryID int, overwrite models.Overwrite) error
	TippingStatus(ctx context.Context, groupID int) (*TippingStatus, error)
}

// LeaderboardServicer defines the interface for leaderboard operations
type LeaderboardServicer interface {
	GetLeaderboard(ctx context.Context, groupID int) (*Leaderboard, error)
	Invalidate(ctx context.Context, tags ...string) error
	RecomputeAll(ctx context.Context) (int, error)
	SetBroadcaster(b Broadcaster)
}

// GroupServicer defines the interface for group and member operations
type GroupServicer interface {
	CreateGroup(ctx context.Context, name string, cutoffMinutes int, ownerName string) (*models.Group, *models.Member, error)
	JoinGroup(ctx context.Context, joinCode, name string) (*models.Member, error)
	GetGroup(ctx context.Context, id int) (*models.Group, error)
	ListGroups(ctx context.Context) ([]models.Group, error)
	ListMembers(ctx context.Context, groupID int) ([]models.Member, error)
	GetMemberByToken(ctx context.Context, token string) (*models.Member, error)
	UpdateCutoff(ctx context.Context, groupID, minutes int) error
	InviteQR(ctx context.Context, groupID int, baseURL string) ([]byte, error)
	MemberQR(ctx context.Context, token, baseURL string) ([]byte, error)
}

// SyncServicer defines the interface for F1 data ingestion
type SyncServicer interface {
	SyncSchedule(ctx context.Context, season int) (*ScheduleSyncResult, error)
	SyncResults(ctx context.Context, season, round int) (*ResultSyncResult, error)
	SyncPendingResults(ctx context.Context, season int) ([]ResultSyncResult, error)
	SetAPIURL(ctx context.Context, url string) error
}

// SettingsServicer defines the interface for settings operations
type SettingsServicer interface {
	CurrentSeason(ctx context.Context) (int, error)
	SetCurrentSeason(ctx context.Context, season int) error
	DefaultCutoffMinutes(ctx context.Context) (int, error)
	SetDefaultCutoffMinutes(ctx context.Context, minutes int) error
	GetBaseURL(ctx context.Context) (string, error)
	SetBaseURL(ctx context.Context, url string) error
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string) error
	AllSettings(ctx context.Context) (map[string]interface{}, error)
	UpdateSettings(ctx context.Context, settings Settings) error
	GetStats(ctx context.Context) (map[string]int, error)
	ResetTables(ctx context.Context, tables []string) (*ResetTablesResult, error)
}

// Broadcaster pushes updates to connected clients
type Broadcaster interface {
	BroadcastLeaderboard(groupID int, board *Leaderboard)
}

// Invalidator drops cached leaderboards by tag
type Invalidator interface {
	Invalidate(ctx context.Context, tags ...string) error
}

// Ensure concrete types implement interfaces
var (
	_ TippingServicer     = (*TippingService)(nil)
	_ LeaderboardServicer = (*LeaderboardService)(nil)
	_ GroupServicer       = (*GroupService)(nil)
	_ SyncServicer        = (*SyncService)(nil)
	_ SettingsServicer    = (*SettingsService)(nil)
	_ Invalidator         = (*LeaderboardService)(nil)
)
