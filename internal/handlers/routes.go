package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// conditionalHTTPLogger only logs HTTP requests when HTTP logging is enabled
func (h *Handlers) conditionalHTTPLogger(next http.Handler) http.Handler {
	logger := middleware.Logger(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if h.Log != nil && h.Log.IsHTTPLoggingEnabled() {
			logger.ServeHTTP(w, r)
		} else {
			next.ServeHTTP(w, r)
		}
	})
}

// Router returns a configured chi router with all routes
func (h *Handlers) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(h.conditionalHTTPLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RedirectSlashes)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", h.handleHealth)

	// Groups (public)
	r.Post("/api/groups", h.handleCreateGroup)
	r.Post("/api/groups/join", h.handleJoinGroup)

	// Member API, keyed by member token
	r.Route("/api/me/{token}", func(r chi.Router) {
		r.Get("/", h.handleGetMe)
		r.Get("/qr", h.handleMemberQR)
		r.Get("/invite-qr", h.handleMemberInviteQR)
		r.Get("/members", h.handleMemberList)
		r.Get("/status", h.handleMemberStatus)
		r.Get("/leaderboard", h.handleMemberLeaderboard)
		r.Get("/races/{raceID}", h.handleGetTipForm)
		r.Put("/races/{raceID}", h.handleSubmitTips)
		r.Get("/championship/{season}", h.handleGetChampionshipForm)
		r.Put("/championship/{season}", h.handleSubmitChampionshipTips)
		r.Get("/ws", h.handleWebSocket)
	})

	// Auth routes (public)
	r.Post("/api/admin/login", h.handleLogin)
	r.Post("/api/admin/logout", h.handleLogout)

	// Admin API (protected)
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuthAPI)

		r.Get("/api/admin/session", h.handleSession)

		// Groups
		r.Get("/api/admin/groups", h.handleListGroups)
		r.Get("/api/admin/groups/{id}", h.handleGetGroup)
		r.Get("/api/admin/groups/{id}/members", h.handleListMembers)
		r.Get("/api/admin/groups/{id}/leaderboard", h.handleGroupLeaderboard)
		r.Get("/api/admin/groups/{id}/status", h.handleGroupStatus)
		r.Get("/api/admin/groups/{id}/qr", h.handleInviteQR)
		r.Put("/api/admin/groups/{id}/cutoff", h.handleUpdateCutoff)

		// Predictions
		r.Put("/api/admin/entries/{id}/overwrite", h.handleOverwriteEntry)

		// F1 data
		r.Post("/api/admin/sync/schedule", h.handleSyncSchedule)
		r.Post("/api/admin/sync/results", h.handleSyncResults)
		r.Post("/api/admin/sync/pending", h.handleSyncPending)
		r.Put("/api/admin/f1api-url", h.handleSetAPIURL)
		r.Post("/api/admin/leaderboards/recompute", h.handleRecomputeLeaderboards)

		// Settings
		r.Get("/api/admin/settings", h.handleGetSettings)
		r.Put("/api/admin/settings", h.handleUpdateSettings)
		r.Get("/api/admin/stats", h.handleGetStats)

		// Database Management
		r.Post("/api/admin/reset-database", h.handleResetDatabase)
	})

	return r
}
