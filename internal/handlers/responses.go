package handlers

import "github.com/selfire1/gridtip-sub000/internal/models"

// GroupCreatedResponse is the response for group creation. Member carries the owner's token.
type GroupCreatedResponse struct {
	Group  *models.Group  `json:"group"`
	Member *models.Member `json:"member"`
}

// MeResponse describes the member behind a token
type MeResponse struct {
	Member *models.Member `json:"member"`
	Group  *models.Group  `json:"group"`
}

// LoginResponse carries the session token for clients that do not keep cookies
type LoginResponse struct {
	Token string `json:"token"`
}

// SettingsResponse is the response for settings
type SettingsResponse struct {
	CurrentSeason        int    `json:"current_season"`
	DefaultCutoffMinutes int    `json:"default_cutoff_minutes"`
	BaseURL              string `json:"base_url"`
	F1APIURL             string `json:"f1api_url"`
}

// RecomputeResponse reports how many leaderboards were rebuilt
type RecomputeResponse struct {
	Groups int `json:"groups"`
}
