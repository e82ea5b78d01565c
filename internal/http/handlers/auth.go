package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hongminglow/cinevault-be/internal/auth"
	"github.com/hongminglow/cinevault-be/internal/http/respond"
	"github.com/hongminglow/cinevault-be/internal/metrics"
	"github.com/hongminglow/cinevault-be/internal/models"
	"github.com/hongminglow/cinevault-be/internal/models/dto"
)

// SessionCookieName is the cookie that carries the session token.
const SessionCookieName = "token"

const maxBodyBytes = 1 << 20

// SessionIdentifier resolves a session token to an identity.
type SessionIdentifier interface {
	Identify(token string) (models.PublicUser, bool)
}

// Authenticator is the auth service as seen by the HTTP layer.
type Authenticator interface {
	SessionIdentifier
	Register(ctx context.Context, in auth.RegisterInput) error
	Login(ctx context.Context, username, password string) (auth.LoginResult, error)
}

// CookieConfig controls the attributes of the session cookie.
type CookieConfig struct {
	Secure bool
	MaxAge time.Duration
}

// AuthHandler owns the register/login/logout/me endpoints.
type AuthHandler struct {
	auth    Authenticator
	cookie  CookieConfig
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewAuthHandler constructs the handler.
func NewAuthHandler(a Authenticator, cookie CookieConfig, logger *slog.Logger, m *metrics.Metrics) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{auth: a, cookie: cookie, logger: logger, metrics: m}
}

// Register attaches auth routes to the mux.
func (h *AuthHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/register", h.handleRegister)
	mux.HandleFunc("/login", h.handleLogin)
	mux.HandleFunc("/logout", h.handleLogout)
	mux.HandleFunc("/me", h.handleMe)
}

func (h *AuthHandler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req dto.RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.metrics.Auth("register", "invalid")
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	in := auth.RegisterInput{
		Username: strings.TrimSpace(req.Username),
		Email:    strings.TrimSpace(req.Email),
		Phone:    strings.TrimSpace(req.Phone),
		Password: req.Password,
	}
	if in.Username == "" || in.Email == "" || in.Phone == "" || in.Password == "" {
		h.metrics.Auth("register", "invalid")
		respond.Error(w, http.StatusBadRequest, "All fields are required")
		return
	}

	if err := h.auth.Register(r.Context(), in); err != nil {
		if errors.Is(err, auth.ErrDuplicateAccount) {
			h.metrics.Auth("register", "duplicate")
			respond.Error(w, http.StatusBadRequest, "Username or email already exists")
			return
		}
		h.metrics.Auth("register", "error")
		h.logger.ErrorContext(r.Context(), "register failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Registration failed")
		return
	}

	h.metrics.Auth("register", "success")
	respond.Message(w, http.StatusCreated, "Registration successful. Please login.")
}

func (h *AuthHandler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req dto.LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.metrics.Auth("login", "invalid")
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	username := strings.TrimSpace(req.Username)
	if username == "" || req.Password == "" {
		h.metrics.Auth("login", "invalid")
		respond.Error(w, http.StatusBadRequest, "Username and password required")
		return
	}

	result, err := h.auth.Login(r.Context(), username, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			h.metrics.Auth("login", "rejected")
			respond.Error(w, http.StatusUnauthorized, "Invalid username or password")
			return
		}
		h.metrics.Auth("login", "error")
		h.logger.ErrorContext(r.Context(), "login failed", "error", err)
		respond.Error(w, http.StatusInternalServerError, "Login failed")
		return
	}

	http.SetCookie(w, h.sessionCookie(result.Token))
	h.metrics.Auth("login", "success")
	respond.JSON(w, http.StatusOK, dto.LoginResponse{Message: "Login successful", User: result.User})
}

func (h *AuthHandler) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	http.SetCookie(w, h.expiredCookie())
	h.metrics.Auth("logout", "success")
	respond.Message(w, http.StatusOK, "Logged out")
}

func (h *AuthHandler) handleMe(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	user, ok := identify(h.auth, r)
	if !ok {
		h.metrics.Auth("me", "unauthenticated")
		respond.Error(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	h.metrics.Auth("me", "success")
	respond.JSON(w, http.StatusOK, dto.MeResponse{User: user})
}

func (h *AuthHandler) sessionCookie(token string) *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.cookie.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *AuthHandler) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:     SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   h.cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
}

// identify reads the session cookie and resolves it. A missing cookie and an
// invalid token are indistinguishable to the caller.
func identify(ids SessionIdentifier, r *http.Request) (models.PublicUser, bool) {
	c, err := r.Cookie(SessionCookieName)
	if err != nil || c.Value == "" {
		return models.PublicUser{}, false
	}
	return ids.Identify(c.Value)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	return json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
}
