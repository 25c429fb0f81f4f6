package handlers

import (
	"context"
	"net/http"

	"github.com/selfire1/gridtip-sub000/internal/models"
	"github.com/selfire1/gridtip-sub000/internal/services"
)

// ==================== Groups ====================

func (h *Handlers) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.Groups.ListGroups(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	if groups == nil {
		groups = []models.Group{}
	}
	respondOK(w, groups)
}

func (h *Handlers) handleGetGroup(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}

	group, err := h.Groups.GetGroup(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, group)
}

func (h *Handlers) handleListMembers(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}

	members, err := h.Groups.ListMembers(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, members)
}

func (h *Handlers) handleGroupLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}

	board, err := h.Leaderboard.GetLeaderboard(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, board)
}

func (h *Handlers) handleGroupStatus(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}

	status, err := h.Tipping.TippingStatus(r.Context(), id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, status)
}

func (h *Handlers) handleInviteQR(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}

	png, err := h.Groups.InviteQR(r.Context(), id, r.URL.Query().Get("base_url"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondPNG(w, png)
}

func (h *Handlers) handleUpdateCutoff(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req CutoffUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if req.CutoffMinutes == nil {
		h.respondError(w, BadRequest("cutoff_minutes is required"))
		return
	}

	if err := h.Groups.UpdateCutoff(r.Context(), id, *req.CutoffMinutes); err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, map[string]int{"id": id, "cutoff_minutes": *req.CutoffMinutes})
}

// ==================== Predictions ====================

func (h *Handlers) handleOverwriteEntry(w http.ResponseWriter, r *http.Request) {
	id, err := parseIntParam(r, "id")
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req OverwriteRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.Tipping.OverwriteEntry(r.Context(), id, models.Overwrite(req.Overwrite)); err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, map[string]interface{}{"id": id, "overwrite": req.Overwrite})
}

// ==================== F1 Data ====================

// season returns requested, or the current season when requested is zero
func (h *Handlers) season(ctx context.Context, requested int) (int, error) {
	if requested != 0 {
		return requested, nil
	}
	return h.Settings.CurrentSeason(ctx)
}

func (h *Handlers) handleSyncSchedule(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	season, err := h.season(r.Context(), req.Season)
	if err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.Sync.SyncSchedule(r.Context(), season)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleSyncResults(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	season, err := h.season(r.Context(), req.Season)
	if err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.Sync.SyncResults(r.Context(), season, req.Round)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleSyncPending(w http.ResponseWriter, r *http.Request) {
	var req SyncRequest
	if err := decodeOptionalJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	season, err := h.season(r.Context(), req.Season)
	if err != nil {
		h.respondError(w, err)
		return
	}

	results, err := h.Sync.SyncPendingResults(r.Context(), season)
	if err != nil {
		h.respondError(w, err)
		return
	}
	if results == nil {
		results = []services.ResultSyncResult{}
	}
	respondOK(w, results)
}

func (h *Handlers) handleSetAPIURL(w http.ResponseWriter, r *http.Request) {
	var req APIURLRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	if err := h.Sync.SetAPIURL(r.Context(), req.URL); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "F1 API URL updated")
}

func (h *Handlers) handleRecomputeLeaderboards(w http.ResponseWriter, r *http.Request) {
	n, err := h.Leaderboard.RecomputeAll(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, RecomputeResponse{Groups: n})
}

// ==================== Settings ====================

func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	season, err := h.Settings.CurrentSeason(ctx)
	if err != nil {
		h.respondError(w, err)
		return
	}
	cutoff, err := h.Settings.DefaultCutoffMinutes(ctx)
	if err != nil {
		h.respondError(w, err)
		return
	}
	baseURL, _ := h.Settings.GetBaseURL(ctx)
	apiURL, _ := h.Settings.GetSetting(ctx, services.SettingF1APIURL)

	respondOK(w, SettingsResponse{
		CurrentSeason:        season,
		DefaultCutoffMinutes: cutoff,
		BaseURL:              baseURL,
		F1APIURL:             apiURL,
	})
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	settings := services.Settings{
		CurrentSeason:        req.CurrentSeason,
		DefaultCutoffMinutes: req.DefaultCutoffMinutes,
		BaseURL:              req.BaseURL,
	}
	if err := h.Settings.UpdateSettings(r.Context(), settings); err != nil {
		h.respondError(w, err)
		return
	}
	respondSuccess(w, "Settings updated")
}

func (h *Handlers) handleGetStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.Settings.GetStats(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, stats)
}

// ==================== Database Management ====================

func (h *Handlers) handleResetDatabase(w http.ResponseWriter, r *http.Request) {
	var req DatabaseResetRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.Settings.ResetTables(r.Context(), req.Tables)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, result)
}
