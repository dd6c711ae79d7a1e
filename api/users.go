package api

import (
	"net/http"

	"github.com/garnizeh/devmarket/internal/marketplace"
)

type UserHandler struct {
	market *marketplace.Service
}

func NewUserHandler(m *marketplace.Service) *UserHandler {
	return &UserHandler{market: m}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	u, err := h.market.Me(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, u, http.StatusOK)
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.market.ListUsers(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, users, http.StatusOK)
}

func (h *UserHandler) Developers(w http.ResponseWriter, r *http.Request) {
	users, err := h.market.ListDevelopers(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, users, http.StatusOK)
}
