package models

import "time"

// Group is a tipping group with its own cutoff policy
type Group struct {
	ID            int       `json:"id"`
	Name          string    `json:"name"`
	JoinCode      string    `json:"join_code,omitempty"`
	CutoffMinutes int       `json:"cutoff_minutes"`
	CreatedAt     time.Time `json:"created_at"`
}

// Member is a participant of a group. Token identifies the member on the tipping API.
type Member struct {
	ID       int       `json:"id"`
	GroupID  int       `json:"group_id"`
	Name     string    `json:"name"`
	Token    string    `json:"token,omitempty"`
	IsAdmin  bool      `json:"is_admin"`
	JoinedAt time.Time `json:"joined_at"`
}

// Race is one Grand Prix weekend
type Race struct {
	ID                   int        `json:"id"`
	Season               int        `json:"season"`
	Round                int        `json:"round"`
	Name                 string     `json:"name"`
	Circuit              string     `json:"circuit,omitempty"`
	Locality             string     `json:"locality,omitempty"`
	Country              string     `json:"country,omitempty"`
	QualifyingDate       time.Time  `json:"qualifying_date"`
	GrandPrixDate        time.Time  `json:"grand_prix_date"`
	SprintQualifyingDate *time.Time `json:"sprint_qualifying_date,omitempty"`
	SprintDate           *time.Time `json:"sprint_date,omitempty"`
}

// IsSprintWeekend reports whether the race has a sprint qualifying session
func (r Race) IsSprintWeekend() bool {
	return r.SprintQualifyingDate != nil
}

// Driver is a driver entered in a season
type Driver struct {
	ID         string `json:"id"`
	Code       string `json:"code"`
	GivenName  string `json:"given_name"`
	FamilyName string `json:"family_name"`
	Number     int    `json:"number,omitempty"`
}

// FullName returns "Given Family"
func (d Driver) FullName() string {
	return d.GivenName + " " + d.FamilyName
}

// Constructor is a team entered in a season
type Constructor struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Nationality string `json:"nationality,omitempty"`
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}
