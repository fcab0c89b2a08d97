package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
)

const (
	minPasswordLen = 8
	maxBodyBytes   = 64 << 10
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// credentials is the body of both register and login. DisplayName is only
// read on register.
type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// normalize trims the identity fields and lowercases the email so that
// registration and login agree on the account key. Passwords are untouched.
func (c *credentials) normalize() {
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.DisplayName = strings.TrimSpace(c.DisplayName)
}

// problem returns a client-facing message, or "" when c is acceptable.
func (c *credentials) problem(register bool) string {
	switch {
	case register && (c.Email == "" || c.Password == "" || c.DisplayName == ""):
		return "email, password, and displayName are required"
	case !register && (c.Email == "" || c.Password == ""):
		return "email and password are required"
	case !strings.Contains(c.Email, "@"):
		return "invalid email"
	case register && len(c.Password) < minPasswordLen:
		return "password must be at least 8 characters"
	}
	return ""
}

func readCredentials(w http.ResponseWriter, r *http.Request, register bool) (credentials, bool) {
	var c credentials
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return c, false
	}
	c.normalize()
	if msg := c.problem(register); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return c, false
	}
	return c, true
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	c, ok := readCredentials(w, r, true)
	if !ok {
		return
	}

	result, err := h.service.Register(r.Context(), c.Email, c.Password, c.DisplayName)
	switch {
	case errors.Is(err, ErrEmailTaken):
		writeError(w, http.StatusConflict, "email already registered")
	case err != nil:
		slog.Error("register failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		slog.Info("user registered", "user", result.User.ID)
		writeJSON(w, http.StatusCreated, result)
	}
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	c, ok := readCredentials(w, r, false)
	if !ok {
		return
	}

	result, err := h.service.Login(r.Context(), c.Email, c.Password)
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid credentials")
	case err != nil:
		slog.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, result)
	}
}

// Me returns the authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.service.GetUser(r.Context(), UserIDFromContext(r.Context()))
	switch {
	case errors.Is(err, ErrUserNotFound):
		writeError(w, http.StatusNotFound, "user not found")
	case err != nil:
		slog.Error("get user failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, user)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("write response", "error", err)
	}
}
