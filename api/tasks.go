package api

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"

	"log/slog"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/internal/marketplace"
	"github.com/garnizeh/devmarket/internal/validation"
	"github.com/shopspring/decimal"
)

// multipart parts up to this size stay in memory; larger files spill to disk
const multipartMemory = 8 << 20

type TaskHandler struct {
	market    *marketplace.Service
	validator *validation.Validator
	maxUpload int64
}

func NewTaskHandler(m *marketplace.Service, v *validation.Validator, maxUpload int64) *TaskHandler {
	return &TaskHandler{market: m, validator: v, maxUpload: maxUpload}
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in marketplace.TaskInput
	if err := decodeBody(w, r, h.validator, "task", &in); err != nil {
		writeError(w, err)
		return
	}

	t, err := h.market.CreateTask(r.Context(), UserFromContext(r.Context()), in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, t, http.StatusCreated)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.market.ListTasks(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tasks, http.StatusOK)
}

func (h *TaskHandler) Mine(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.market.ListMyTasks(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, tasks, http.StatusOK)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	t, err := h.market.GetTask(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, t, http.StatusOK)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}
	var in marketplace.TaskInput
	if err := decodeBody(w, r, h.validator, "task_update", &in); err != nil {
		writeError(w, err)
		return
	}

	t, err := h.market.UpdateTask(r.Context(), UserFromContext(r.Context()), id, in)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, t, http.StatusOK)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.market.DeleteTask(r.Context(), UserFromContext(r.Context()), id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) Start(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	t, err := h.market.StartTask(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, t, http.StatusOK)
}

// Submit expects a multipart form with an "hours" field and a "file" part.
func (h *TaskHandler) Submit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+maxJSONBody)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			writeError(w, apperr.Validationf("deliverable exceeds %d bytes", h.maxUpload))
			return
		}
		writeError(w, apperr.Validationf("invalid multipart form: %v", err))
		return
	}
	defer func() {
		if err := r.MultipartForm.RemoveAll(); err != nil {
			logger.Warn("remove multipart temp files", slog.Any("err", err))
		}
	}()

	hours, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("hours")))
	if err != nil {
		writeError(w, apperr.Validationf("hours must be a decimal number"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, apperr.Validationf("file is required"))
		return
	}
	defer file.Close()

	t, err := h.market.SubmitTask(r.Context(), UserFromContext(r.Context()), id, hours, header.Filename, file)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, t, http.StatusOK)
}

// Download streams the deliverable of a paid task.
func (h *TaskHandler) Download(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	rc, name, err := h.market.DownloadDeliverable(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	defer rc.Close()

	ctype := mime.TypeByExtension(filepath.Ext(name))
	if ctype == "" {
		ctype = "application/octet-stream"
	}
	w.Header().Set("Content-Type", ctype)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": name}))
	w.WriteHeader(http.StatusOK)

	if _, err := io.Copy(w, rc); err != nil {
		logger.Error("stream deliverable", slog.Int64("task_id", id), slog.Any("err", err))
	}
}
