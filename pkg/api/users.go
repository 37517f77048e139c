package api

import (
	"errors"
	"net/http"
	"strings"

	"creotrail/validator/pkg/api/types"
	"creotrail/validator/pkg/store"
	"creotrail/validator/pkg/telemetry/logging"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type signupResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	// Role is the role selected on the login form. Optional.
	Role string `json:"role,omitempty"`
}

type loginResponse struct {
	ID                 int64  `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	Role               string `json:"role"`
	LastProcessedCmdID int64  `json:"last_processed_cmd_id"`
}

// Login results used as metric labels.
const (
	loginSuccess      = "success"
	loginInvalid      = "invalid"
	loginRoleMismatch = "role_mismatch"
	loginError        = "error"
)

func (h *Handler) signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.store.CreateUser(r.Context(), store.NewUser{
		Name:     req.Name,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	switch {
	case errors.Is(err, store.ErrEmailTaken):
		types.NewInvalidRequestError("Email already registered", "email", types.CodeEmailTaken).Write(w)
		return
	case errors.Is(err, store.ErrInvalidInput):
		types.NewInvalidRequestError(err.Error(), "", types.CodeMissingField).Write(w)
		return
	case err != nil:
		h.writeStoreError(w, r, "signup", err)
		return
	}

	h.metrics.RecordSignup(u.Role)
	writeJSON(w, http.StatusOK, signupResponse{ID: u.ID, Name: u.Name, Email: u.Email, Role: u.Role})
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	u, err := h.store.Authenticate(r.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, store.ErrInvalidCredentials):
		h.metrics.RecordLogin(loginInvalid)
		h.logger.InfoContext(r.Context(), "login rejected", "email", req.Email)
		types.NewInvalidRequestError("Invalid credentials", "", types.CodeInvalidCredentials).Write(w)
		return
	case err != nil:
		h.metrics.RecordLogin(loginError)
		h.writeStoreError(w, r, "login", err)
		return
	}

	if role := strings.TrimSpace(req.Role); role != "" && !u.HasRole(role) {
		h.metrics.RecordLogin(loginRoleMismatch)
		types.NewPermissionDeniedError("Incorrect role selected", types.CodeRoleMismatch).Write(w)
		return
	}

	h.metrics.RecordLogin(loginSuccess)
	h.logger.InfoContext(logging.WithUserID(r.Context(), u.ID), "login succeeded", "role", u.Role)
	writeJSON(w, http.StatusOK, loginResponse{
		ID:                 u.ID,
		Name:               u.Name,
		Email:              u.Email,
		Role:               u.Role,
		LastProcessedCmdID: u.LastProcessedCmdID,
	})
}
