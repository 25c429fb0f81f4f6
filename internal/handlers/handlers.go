package handlers

import (
	"net/http"

	"github.com/selfire1/gridtip-sub000/internal/auth"
	"github.com/selfire1/gridtip-sub000/internal/logger"
	"github.com/selfire1/gridtip-sub000/internal/services"
)

// WebSocketServer subscribes a connection to the live updates of a group
type WebSocketServer interface {
	ServeWs(w http.ResponseWriter, r *http.Request, groupID int)
}

// Handlers holds all HTTP handler dependencies
type Handlers struct {
	Tipping     services.TippingServicer
	Leaderboard services.LeaderboardServicer
	Groups      services.GroupServicer
	Sync        services.SyncServicer
	Settings    services.SettingsServicer
	Auth        *auth.Auth
	Hub         WebSocketServer
	Log         HTTPLogger

	errLog logger.Logger
}

// HTTPLogger is an interface for loggers that support HTTP logging control
type HTTPLogger interface {
	IsHTTPLoggingEnabled() bool
}

// New creates a new Handlers instance with all dependencies
func New(
	tipping services.TippingServicer,
	leaderboard services.LeaderboardServicer,
	groups services.GroupServicer,
	sync services.SyncServicer,
	settings services.SettingsServicer,
	adminAuth *auth.Auth,
	hub WebSocketServer,
	log HTTPLogger,
) *Handlers {
	return &Handlers{
		Tipping:     tipping,
		Leaderboard: leaderboard,
		Groups:      groups,
		Sync:        sync,
		Settings:    settings,
		Auth:        adminAuth,
		Hub:         hub,
		Log:         log,
		errLog:      logger.Nop(),
	}
}

// SetErrorLogger sets the logger that receives the causes of 5xx responses
func (h *Handlers) SetErrorLogger(log logger.Logger) {
	if log != nil {
		h.errLog = log
	}
}

// NoopHTTPLogger is a test logger that always returns false for HTTP logging
type NoopHTTPLogger struct{}

func (NoopHTTPLogger) IsHTTPLoggingEnabled() bool { return false }
