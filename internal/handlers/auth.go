package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/umn33q/adom-testovoe/internal/models"
)

func (h *Handler) AdminLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, models.RoleAdmin)
}

func (h *Handler) PublicLogin(w http.ResponseWriter, r *http.Request) {
	h.login(w, r, models.RoleUser)
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request, realm models.UserRole) {
	var input models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid input")
		return
	}
	result, err := h.Auth.Login(r.Context(), realm, input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, result)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var input models.RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		h.fail(w, http.StatusBadRequest, "invalid input")
		return
	}
	result, err := h.Auth.Register(r.Context(), input)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusCreated, result)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	claims := callerClaims(r)
	user, err := h.Auth.GetUser(r.Context(), claims.UserID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, user.Summary())
}

// Logout exists for surface parity with the clients. Tokens are
// stateless; the client discards its copy.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	h.respondMessage(w, http.StatusOK, "Logout successful")
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Auth.ListUsers(r.Context())
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, users)
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Auth.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.respondError(w, err)
		return
	}
	h.respond(w, http.StatusOK, users)
}
