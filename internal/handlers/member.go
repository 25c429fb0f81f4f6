package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/selfire1/gridtip-sub000/internal/models"
)

// ==================== Groups ====================

func (h *Handlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]string{"status": "ok"})
}

func (h *Handlers) handleCreateGroup(w http.ResponseWriter, r *http.Request) {
	var req GroupCreateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	// A missing cutoff takes the configured default
	cutoff := -1
	if req.CutoffMinutes != nil {
		cutoff = *req.CutoffMinutes
		if cutoff < 0 {
			h.respondError(w, BadRequest("Invalid cutoff_minutes: must not be negative"))
			return
		}
	}

	group, owner, err := h.Groups.CreateGroup(r.Context(), req.Name, cutoff, req.OwnerName)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, GroupCreatedResponse{Group: group, Member: owner})
}

func (h *Handlers) handleJoinGroup(w http.ResponseWriter, r *http.Request) {
	var req GroupJoinRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}
	if req.JoinCode == "" {
		h.respondError(w, BadRequest("join_code is required"))
		return
	}

	member, err := h.Groups.JoinGroup(r.Context(), req.JoinCode, req.Name)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondCreated(w, member)
}

// ==================== Member ====================

// member resolves the {token} URL parameter
func (h *Handlers) member(r *http.Request) (*models.Member, error) {
	return h.Groups.GetMemberByToken(r.Context(), chi.URLParam(r, "token"))
}

func (h *Handlers) handleGetMe(w http.ResponseWriter, r *http.Request) {
	member, err := h.member(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	group, err := h.Groups.GetGroup(r.Context(), member.GroupID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, MeResponse{Member: member, Group: group})
}

func (h *Handlers) handleMemberQR(w http.ResponseWriter, r *http.Request) {
	png, err := h.Groups.MemberQR(r.Context(), chi.URLParam(r, "token"), r.URL.Query().Get("base_url"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondPNG(w, png)
}

func (h *Handlers) handleMemberInviteQR(w http.ResponseWriter, r *http.Request) {
	member, err := h.member(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	png, err := h.Groups.InviteQR(r.Context(), member.GroupID, r.URL.Query().Get("base_url"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondPNG(w, png)
}

func (h *Handlers) handleMemberList(w http.ResponseWriter, r *http.Request) {
	member, err := h.member(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	members, err := h.Groups.ListMembers(r.Context(), member.GroupID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, members)
}

func (h *Handlers) handleMemberStatus(w http.ResponseWriter, r *http.Request) {
	member, err := h.member(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	status, err := h.Tipping.TippingStatus(r.Context(), member.GroupID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, status)
}

func (h *Handlers) handleMemberLeaderboard(w http.ResponseWriter, r *http.Request) {
	member, err := h.member(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	board, err := h.Leaderboard.GetLeaderboard(r.Context(), member.GroupID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, board)
}

func (h *Handlers) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	member, err := h.member(r)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.Hub.ServeWs(w, r, member.GroupID)
}

// ==================== Tips ====================

func (h *Handlers) handleGetTipForm(w http.ResponseWriter, r *http.Request) {
	raceID, err := parseIntParam(r, "raceID")
	if err != nil {
		h.respondError(w, err)
		return
	}

	form, err := h.Tipping.GetTipForm(r.Context(), chi.URLParam(r, "token"), raceID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, form)
}

func (h *Handlers) handleSubmitTips(w http.ResponseWriter, r *http.Request) {
	raceID, err := parseIntParam(r, "raceID")
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req TipsSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.Tipping.SubmitTips(r.Context(), chi.URLParam(r, "token"), raceID, req.Selections)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, result)
}

func (h *Handlers) handleGetChampionshipForm(w http.ResponseWriter, r *http.Request) {
	season, err := parseIntParam(r, "season")
	if err != nil {
		h.respondError(w, err)
		return
	}

	form, err := h.Tipping.GetChampionshipForm(r.Context(), chi.URLParam(r, "token"), season)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, form)
}

func (h *Handlers) handleSubmitChampionshipTips(w http.ResponseWriter, r *http.Request) {
	season, err := parseIntParam(r, "season")
	if err != nil {
		h.respondError(w, err)
		return
	}

	var req TipsSubmitRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	result, err := h.Tipping.SubmitChampionshipTips(r.Context(), chi.URLParam(r, "token"), season, req.Selections)
	if err != nil {
		h.respondError(w, err)
		return
	}
	respondOK(w, result)
}
