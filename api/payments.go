package api

import (
	"net/http"

	"github.com/garnizeh/devmarket/internal/marketplace"
	"github.com/garnizeh/devmarket/internal/validation"
	"github.com/garnizeh/devmarket/pkg/models"
)

type PaymentHandler struct {
	market    *marketplace.Service
	validator *validation.Validator
}

func NewPaymentHandler(m *marketplace.Service, v *validation.Validator) *PaymentHandler {
	return &PaymentHandler{market: m, validator: v}
}

type paymentRequest struct {
	TaskID int64 `json:"task_id"`
}

type paymentResponse struct {
	Message string `json:"message"`
	*models.Payment
}

func (h *PaymentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req paymentRequest
	if err := decodeBody(w, r, h.validator, "payment", &req); err != nil {
		writeError(w, err)
		return
	}

	p, err := h.market.PayTask(r.Context(), UserFromContext(r.Context()), req.TaskID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, paymentResponse{Message: "payment successful", Payment: p}, http.StatusCreated)
}

func (h *PaymentHandler) List(w http.ResponseWriter, r *http.Request) {
	payments, err := h.market.ListPayments(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, payments, http.StatusOK)
}

// ForTask returns the payment recorded for a task.
func (h *PaymentHandler) ForTask(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, err)
		return
	}

	p, err := h.market.TaskPayment(r.Context(), UserFromContext(r.Context()), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, p, http.StatusOK)
}
