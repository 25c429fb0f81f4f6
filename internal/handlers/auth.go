package handlers

import (
	"net/http"

	"github.com/selfire1/gridtip-sub000/internal/auth"
)

// handleLogin exchanges the admin password for a session cookie
func (h *Handlers) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, err)
		return
	}

	token, err := h.Auth.Login(req.Password)
	if err != nil {
		h.respondError(w, Unauthorized("Invalid password"))
		return
	}

	auth.SetSessionCookie(w, token)
	respondOK(w, LoginResponse{Token: token})
}

// handleLogout revokes the session and clears the cookie
func (h *Handlers) handleLogout(w http.ResponseWriter, r *http.Request) {
	if token := auth.TokenFromRequest(r); token != "" {
		h.Auth.Logout(token)
	}

	auth.ClearSessionCookie(w)
	respondSuccess(w, "Logged out")
}

func (h *Handlers) handleSession(w http.ResponseWriter, r *http.Request) {
	respondOK(w, map[string]bool{"authenticated": true})
}
