package api

import (
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/erazemk/donacije/internal/auth"
	"github.com/erazemk/donacije/internal/db"
	"github.com/erazemk/donacije/internal/model"
	"github.com/erazemk/donacije/internal/service"
	"github.com/erazemk/donacije/internal/store"
)

// AuthHandler handles registration and session endpoints.
type AuthHandler struct {
	Store     *db.Store
	Directory *service.Directory
	Tokens    *auth.Provider
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

type sessionResponse struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterInput
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := h.Directory.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user registered", "user", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusCreated, user)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.Username == "" || req.Password == "" {
		jsonError(w, http.StatusBadRequest, "username and password required")
		return
	}

	user, err := h.Directory.Authenticate(r.Context(), req.Username, req.Password)
	if err != nil {
		slog.Warn("login failed", "username", req.Username, "remote", r.RemoteAddr)
		writeError(w, r, err)
		return
	}

	token, claims, err := h.Tokens.Issue(user.Username, user.Role)
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user logged in", "user", user.Username, "role", user.Role)
	jsonResponse(w, http.StatusOK, loginResponse{
		Token:     token,
		Role:      user.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}

// Logout handles POST /api/auth/logout by revoking the presented token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	err := h.Store.WithTx(r.Context(), func(tx *sql.Tx) error {
		return store.RevokeToken(r.Context(), tx, claims.ID, claims.ExpiresAt.Time)
	})
	if err != nil {
		writeError(w, r, err)
		return
	}

	slog.Info("user logged out", "user", claims.Username())
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// Validate handles GET /api/auth/validate.
func (h *AuthHandler) Validate(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())
	jsonResponse(w, http.StatusOK, sessionResponse{
		Username:  claims.Username(),
		Role:      claims.Role,
		ExpiresAt: claims.ExpiresAt.Time,
	})
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Directory.GetUser(r.Context(), caller(r))
	if err != nil {
		writeError(w, r, err)
		return
	}
	jsonResponse(w, http.StatusOK, user)
}
