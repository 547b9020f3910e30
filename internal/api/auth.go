package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/erazemk/webshop/internal/apperr"
	"github.com/erazemk/webshop/internal/auth"
	"github.com/erazemk/webshop/internal/model"
	"github.com/erazemk/webshop/internal/store"
)

// AuthHandler handles account endpoints.
type AuthHandler struct {
	handler
	Signer     *auth.Signer
	BcryptCost int
}

type loginRequest struct {
	// Login is a username or an email address.
	Login    string `json:"login"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      *model.User `json:"user"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

// Register handles POST /api/auth/register. It creates an account and logs it
// in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	user, err := createUser(r, h.handler, h.BcryptCost, &req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	resp, err := h.issue(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("user registered", "id", user.ID, "username", user.Username)
	jsonResponse(w, http.StatusCreated, resp)
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	login := strings.TrimSpace(req.Login)
	for _, alt := range []string{req.Username, req.Email} {
		if login == "" {
			login = strings.TrimSpace(alt)
		}
	}
	var missing []string
	if login == "" {
		missing = append(missing, "login_required")
	}
	if req.Password == "" {
		missing = append(missing, "password_required")
	}
	if len(missing) > 0 {
		writeError(w, r, apperr.Validation(missing...))
		return
	}

	user, err := store.GetUserByLogin(r.Context(), h.DB, login)
	if err != nil {
		writeError(w, r, err)
		return
	}

	ok := false
	if user != nil {
		if ok, err = auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
			writeError(w, r, err)
			return
		}
	}
	if !ok {
		LoggerFrom(r.Context()).Warn("login failed", "login", login, "remote", r.RemoteAddr)
		jsonError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	resp, err := h.issue(user)
	if err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("user logged in", "id", user.ID, "username", user.Username)
	jsonResponse(w, http.StatusOK, resp)
}

func (h *AuthHandler) issue(user *model.User) (*tokenResponse, error) {
	token, claims, err := h.Signer.Issue(user.ID, user.Username)
	if err != nil {
		return nil, err
	}
	return &tokenResponse{Token: token, ExpiresAt: claims.ExpiresAt.Time, User: user}, nil
}

// Logout handles POST /api/auth/logout by revoking the caller's token.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims := GetClaims(r.Context())

	expiresAt := time.Now().Add(auth.DefaultTokenExpiry)
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	if err := store.RevokeToken(r.Context(), h.DB, claims.ID, expiresAt); err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("user logged out")
	jsonResponse(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// ChangePassword handles PUT /api/auth/password.
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	actor := ActorFrom(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	if req.CurrentPassword == "" {
		writeError(w, r, apperr.Validation("current_password_required"))
		return
	}
	switch err := model.ValidatePassword(req.NewPassword); {
	case errors.Is(err, model.ErrPasswordTooShort):
		writeError(w, r, apperr.Validation("new_password_too_short"))
		return
	case errors.Is(err, model.ErrPasswordTooLong):
		writeError(w, r, apperr.Validation("new_password_too_long"))
		return
	}

	user, err := store.GetUser(r.Context(), h.DB, actor.UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeError(w, r, apperr.NotFound("user"))
		return
	}

	ok, err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if !ok {
		jsonError(w, http.StatusUnauthorized, "current password is incorrect")
		return
	}

	hash, err := auth.HashPassword(req.NewPassword, h.BcryptCost)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := store.UpdateUserPassword(r.Context(), h.DB, user.ID, hash); err != nil {
		writeError(w, r, err)
		return
	}

	LoggerFrom(r.Context()).Info("user changed own password")
	jsonResponse(w, http.StatusOK, map[string]string{"message": "password updated"})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := store.GetUser(r.Context(), h.DB, ActorFrom(r.Context()).UserID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if user == nil {
		writeError(w, r, apperr.NotFound("user"))
		return
	}
	jsonResponse(w, http.StatusOK, user)
}
