package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"log/slog"

	"intelhub/internal/auth"
	"intelhub/internal/users"
)

const maxBodyBytes = 1 << 16

type registerRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	// Without confirm_password the password confirms itself.
	ConfirmPassword *string `json:"confirm_password"`
	Role            string  `json:"role"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterHandler struct {
	Service *auth.Service
}

// ServeHTTP lets anyone self-register as a plain user. Any other role must be
// granted by an authenticated admin, sent as HTTP Basic credentials.
func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, auth.Outcome{Message: "Malformed request body."})
		return
	}
	reg := auth.Registration{
		Username: req.Username,
		Password: req.Password,
		Confirm:  req.Password,
		Role:     strings.TrimSpace(req.Role),
	}
	if req.ConfirmPassword != nil {
		reg.Confirm = *req.ConfirmPassword
	}

	register := func(w http.ResponseWriter, r *http.Request) {
		out := h.Service.RegisterOutcome(r.Context(), reg)
		writeJSON(w, statusFor(out, http.StatusCreated), out)
	}
	// Unknown roles fall through to the service, which rejects them.
	if role, err := users.ParseRole(reg.Role); err == nil && role != users.RoleUser {
		secured := auth.BasicAuthMiddleware(h.Service)
		secured(auth.RequireRole(register, users.RoleAdmin)).ServeHTTP(w, r)
		return
	}
	register(w, r)
}

type LoginHandler struct {
	Service *auth.Service
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, auth.Outcome{Message: "Malformed request body."})
		return
	}
	out := h.Service.LoginOutcome(r.Context(), req.Username, req.Password)
	writeJSON(w, statusFor(out, http.StatusOK), out)
}

func statusFor(out auth.Outcome, success int) int {
	if out.Success {
		return success
	}
	switch out.Kind {
	case auth.KindRejected:
		return http.StatusBadRequest
	case auth.KindDuplicate:
		return http.StatusConflict
	case auth.KindDenied:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

type UsersHandler struct {
	Admin  *auth.Admin
	Logger *slog.Logger
}

func (h *UsersHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.Admin.List(r.Context())
	if err != nil {
		h.Logger.Error("list users", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []users.Record{}
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *UsersHandler) UpdateRole(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&payload); err != nil {
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	n, err := h.Admin.UpdateRole(r.Context(), r.PathValue("username"), payload.Role)
	switch {
	case errors.Is(err, users.ErrInvalidRole):
		w.WriteHeader(http.StatusBadRequest)
	case err != nil:
		h.Logger.Error("update role", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
	case n == 0:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *UsersHandler) Delete(w http.ResponseWriter, r *http.Request) {
	n, err := h.Admin.Delete(r.Context(), r.PathValue("username"))
	switch {
	case err != nil:
		h.Logger.Error("delete user", "err", err)
		w.WriteHeader(http.StatusInternalServerError)
	case n == 0:
		w.WriteHeader(http.StatusNotFound)
	default:
		w.WriteHeader(http.StatusNoContent)
	}
}
