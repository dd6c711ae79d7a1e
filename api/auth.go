package api

import (
	"mime"
	"net/http"

	"github.com/garnizeh/devmarket/internal/apperr"
	"github.com/garnizeh/devmarket/internal/identity"
	"github.com/garnizeh/devmarket/internal/validation"
	"github.com/garnizeh/devmarket/pkg/models"
)

type AuthHandler struct {
	ids       *identity.Service
	validator *validation.Validator
}

// NewAuthHandler creates a new AuthHandler with required dependencies.
func NewAuthHandler(ids *identity.Service, v *validation.Validator) *AuthHandler {
	return &AuthHandler{ids: ids, validator: v}
}

type registerRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, h.validator, "register", &req); err != nil {
		writeError(w, err)
		return
	}

	u, err := h.ids.Register(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, u, http.StatusCreated)
}

// Login accepts a JSON body or an OAuth2 password-grant form where the email
// is sent as "username".
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest

	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if ct == "application/x-www-form-urlencoded" {
		r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
		if err := r.ParseForm(); err != nil {
			writeError(w, apperr.Validationf("invalid form: %v", err))
			return
		}
		req.Email, req.Password = r.PostFormValue("username"), r.PostFormValue("password")
		if req.Email == "" || req.Password == "" {
			writeError(w, apperr.Validationf("username and password are required"))
			return
		}
	} else if err := decodeBody(w, r, h.validator, "login", &req); err != nil {
		writeError(w, err)
		return
	}

	token, err := h.ids.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, tokenResponse{AccessToken: token, TokenType: "bearer"}, http.StatusOK)
}

// Signout is client-side for stateless tokens; the endpoint only confirms
// the token was still valid.
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"message": "signed out"}, http.StatusOK)
}
