package handlers

import "github.com/selfire1/gridtip-sub000/internal/services"

// GroupCreateRequest represents a request to create a group
type GroupCreateRequest struct {
	Name          string `json:"name"`
	OwnerName     string `json:"owner_name"`
	CutoffMinutes *int   `json:"cutoff_minutes"`
}

// GroupJoinRequest represents a request to join a group by code
type GroupJoinRequest struct {
	JoinCode string `json:"join_code"`
	Name     string `json:"name"`
}

// TipsSubmitRequest represents a member's selections, keyed by prediction field
type TipsSubmitRequest struct {
	Selections services.Selections `json:"selections"`
}

// CutoffUpdateRequest represents a request to change a group's cutoff
type CutoffUpdateRequest struct {
	CutoffMinutes *int `json:"cutoff_minutes"`
}

// OverwriteRequest represents an admin decision on a prediction entry
type OverwriteRequest struct {
	Overwrite string `json:"overwrite"`
}

// LoginRequest represents an admin login
type LoginRequest struct {
	Password string `json:"password"`
}

// SyncRequest selects the season and round to ingest. Zero season means the current season.
type SyncRequest struct {
	Season int `json:"season"`
	Round  int `json:"round"`
}

// APIURLRequest represents a request to change the F1 API base URL
type APIURLRequest struct {
	URL string `json:"url"`
}

// SettingsUpdateRequest represents a request to update settings
type SettingsUpdateRequest struct {
	CurrentSeason        *int   `json:"current_season"`
	DefaultCutoffMinutes *int   `json:"default_cutoff_minutes"`
	BaseURL              string `json:"base_url"`
}

// DatabaseResetRequest represents a request to reset database tables
type DatabaseResetRequest struct {
	Tables []string `json:"tables"`
}
