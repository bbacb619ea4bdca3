package http

import (
	"context"
	"net/http"
	"time"

	"github.com/ecosopis/storefront/internal/auth"
	"github.com/ecosopis/storefront/internal/config"
	"github.com/ecosopis/storefront/internal/domain"
)

type AuthService interface {
	Authenticator
	Register(ctx context.Context, username, password string) (*domain.User, error)
	Login(ctx context.Context, username, password string) (*domain.User, string, error)
	Logout(ctx context.Context, token string) error
	Me(ctx context.Context, caller *auth.Caller) (*domain.User, error)
	UpdateProfile(ctx context.Context, caller *auth.Caller, update domain.ProfileUpdate) (*domain.User, error)
}

type AuthHandler struct {
	auth    AuthService
	session config.SessionConfig
	timeout time.Duration
}

func NewAuthHandler(svc AuthService, session config.SessionConfig, timeout time.Duration) *AuthHandler {
	return &AuthHandler{
		auth:    svc,
		session: session,
		timeout: timeout,
	}
}

type CredentialsDTO struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CredentialsDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	u, err := h.auth.Register(ctx, req.Username, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, u)
}

// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	var req CredentialsDTO
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	u, token, err := h.auth.Login(ctx, req.Username, req.Password)
	if err != nil {
		handleError(w, r, err)
		return
	}

	http.SetCookie(w, h.cookie(token, int(h.session.TTL.Seconds())))
	respondJSON(w, http.StatusOK, u)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if c, err := r.Cookie(h.session.CookieName); err == nil {
		if err := h.auth.Logout(ctx, c.Value); err != nil {
			handleError(w, r, err)
			return
		}
	}

	http.SetCookie(w, h.cookie("", -1))
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	u, err := h.auth.Me(ctx, callerFromRequest(r))
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

// PATCH /api/auth/me
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	caller := callerFromRequest(r)
	if err := auth.Authorize(caller, domain.RoleCustomer); err != nil {
		handleError(w, r, err)
		return
	}

	var update domain.ProfileUpdate
	if err := decodeJSON(r, &update); err != nil {
		handleError(w, r, err)
		return
	}

	u, err := h.auth.UpdateProfile(ctx, caller, update)
	if err != nil {
		handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, u)
}

func (h *AuthHandler) cookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.session.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.session.SecureCookie,
		SameSite: http.SameSiteLaxMode,
	}
}
