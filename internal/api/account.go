package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/taskpilot/taskpilot/internal/auth"
)

// maxAuthBodySize bounds register/login request bodies.
const maxAuthBodySize = 4 << 10

// accountHandler serves registration and login.
type accountHandler struct {
	auth   *auth.Service
	logger *slog.Logger
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	UserID    string    `json:"userId"`
	Email     string    `json:"email"`
	Token     string    `json:"token"`
	CreatedAt time.Time `json:"createdAt"`
}

// register handles POST /api/v1/auth/register.
func (h *accountHandler) register(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, token, err := h.auth.Register(r.Context(), req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrInvalidEmail):
			writeError(w, http.StatusBadRequest, "invalid_email", "a valid email address is required")
		case errors.Is(err, auth.ErrWeakPassword):
			writeError(w, http.StatusBadRequest, "weak_password", err.Error())
		case errors.Is(err, auth.ErrEmailTaken):
			writeError(w, http.StatusConflict, "email_taken", "an account with this email already exists")
		default:
			h.logger.Error("registering user", "error", err)
			writeError(w, http.StatusInternalServerError, "internal_error", "registration failed")
		}
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Token:     token,
		CreatedAt: user.CreatedAt,
	})
}

// login handles POST /api/v1/auth/login.
func (h *accountHandler) login(w http.ResponseWriter, r *http.Request) {
	req, ok := decodeCredentials(w, r)
	if !ok {
		return
	}

	user, token, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			writeError(w, http.StatusUnauthorized, "invalid_credentials", "email or password is incorrect")
			return
		}
		h.logger.Error("logging in user", "error", err)
		writeError(w, http.StatusInternalServerError, "internal_error", "login failed")
		return
	}

	writeJSON(w, http.StatusOK, authResponse{
		UserID:    user.ID.String(),
		Email:     user.Email,
		Token:     token,
		CreatedAt: user.CreatedAt,
	})
}

func decodeCredentials(w http.ResponseWriter, r *http.Request) (credentialsRequest, bool) {
	var req credentialsRequest
	body := io.LimitReader(r.Body, maxAuthBodySize)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return req, false
	}
	return req, true
}
