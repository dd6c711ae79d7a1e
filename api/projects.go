package api

import (
	"net/http"

	"github.com/garnizeh/devmarket/internal/marketplace"
	"github.com/garnizeh/devmarket/internal/validation"
)

type ProjectHandler struct {
	market    *marketplace.Service
	validator *validation.Validator
}

func NewProjectHandler(m *marketplace.Service, v *validation.Validator) *ProjectHandler {
	return &ProjectHandler{market: m, validator: v}
}

func (h *ProjectHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in marketplace.ProjectInput
	if err := decodeBody(w, r, h.validator, "project", &in); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.market.CreateProject(r.Context(), UserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, p, http.StatusCreated)
}

func (h *ProjectHandler) List(w http.ResponseWriter, r *http.Request) {
	projects, err := h.market.ListProjects(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, projects, http.StatusOK)
}

func (h *ProjectHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := h.market.GetProject(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, p, http.StatusOK)
}

func (h *ProjectHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in marketplace.ProjectInput
	if err := decodeBody(w, r, h.validator, "project", &in); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.market.UpdateProject(r.Context(), UserFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, p, http.StatusOK)
}

func (h *ProjectHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.market.DeleteProject(r.Context(), UserFromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProjectHandler) Tasks(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	tasks, err := h.market.ListProjectTasks(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tasks, http.StatusOK)
}
