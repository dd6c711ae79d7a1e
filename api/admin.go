package api

import (
	"net/http"

	"github.com/garnizeh/devmarket/internal/marketplace"
)

type AdminHandler struct {
	market *marketplace.Service
}

func NewAdminHandler(m *marketplace.Service) *AdminHandler {
	return &AdminHandler{market: m}
}

func (h *AdminHandler) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := h.market.Stats(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, st, http.StatusOK)
}
