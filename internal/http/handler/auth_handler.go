package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/inkpress/content-platform/internal/http/middleware"
	"github.com/inkpress/content-platform/internal/http/response"
	"github.com/inkpress/content-platform/internal/observability"
	"github.com/inkpress/content-platform/internal/repository"
	"github.com/inkpress/content-platform/internal/security"
	"github.com/inkpress/content-platform/internal/service"
)

type AuthHandler struct {
	auth         *service.AuthService
	sessions     *service.SessionService
	sessionTTL   time.Duration
	cookieSecure bool
}

func NewAuthHandler(auth *service.AuthService, sessions *service.SessionService, sessionTTL time.Duration, cookieSecure bool) *AuthHandler {
	return &AuthHandler{auth: auth, sessions: sessions, sessionTTL: sessionTTL, cookieSecure: cookieSecure}
}

type registerRequest struct {
	Login    string `json:"login"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequest struct {
	LoginOrEmail string `json:"login_or_email"`
	Password     string `json:"password"`
}

type confirmRequest struct {
	Code string `json:"code"`
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if details := validateRegister(req); len(details) > 0 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "invalid registration fields", details)
		return
	}
	user, err := h.auth.Register(r.Context(), req.Login, req.Email, req.Password)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "registration failed", nil)
		return
	}
	observability.Audit(r, "user.registered", "user_id", user.ID)
	response.JSON(w, r, http.StatusCreated, map[string]string{"id": user.ID})
}

func (h *AuthHandler) RegistrationConfirmation(w http.ResponseWriter, r *http.Request) {
	var req confirmRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Code == "" {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "confirmation code required", nil)
		return
	}
	session, pair, err := h.auth.ConfirmRegistration(r.Context(), req.Code, middleware.ClientIP(r), deviceTitle(r))
	if err != nil {
		if errors.Is(err, service.ErrInvalidCode) {
			response.Error(w, r, http.StatusBadRequest, "INVALID_CODE", "confirmation code is invalid", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "confirmation failed", nil)
		return
	}
	observability.Audit(r, "auth.registration_confirmed", "user_id", session.UserID, "device_id", session.DeviceID)
	security.SetRefreshCookie(w, pair.RefreshToken, h.sessionTTL, h.cookieSecure)
	response.JSON(w, r, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	session, pair, err := h.auth.Login(r.Context(), req.LoginOrEmail, req.Password, middleware.ClientIP(r), deviceTitle(r))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials), errors.Is(err, service.ErrUserNotConfirmed):
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "login failed", nil)
		}
		return
	}
	observability.Audit(r, "auth.login", "user_id", session.UserID, "device_id", session.DeviceID)
	security.SetRefreshCookie(w, pair.RefreshToken, h.sessionTTL, h.cookieSecure)
	response.JSON(w, r, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	token := h.refreshTokenFromRequest(r)
	if token == "" {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing refresh token", nil)
		return
	}
	session, pair, err := h.sessions.Rotate(r.Context(), token)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrMalformedToken),
			errors.Is(err, service.ErrReplayDetected),
			errors.Is(err, repository.ErrSessionNotFound),
			errors.Is(err, repository.ErrSessionExpired):
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "refresh token rejected", nil)
		default:
			response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "refresh failed", nil)
		}
		return
	}
	observability.Audit(r, "auth.token_refreshed", "user_id", session.UserID, "device_id", session.DeviceID)
	security.SetRefreshCookie(w, pair.RefreshToken, h.sessionTTL, h.cookieSecure)
	response.JSON(w, r, http.StatusOK, tokenResponse{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken})
}

// Logout is idempotent from the client's view: it answers 204 whether or not
// a session row still existed.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := h.refreshTokenFromRequest(r); token != "" {
		if session, err := h.sessions.CurrentDevice(r.Context(), token); err == nil {
			if _, err := h.sessions.Revoke(r.Context(), session.DeviceID); err != nil {
				response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "logout failed", nil)
				return
			}
			observability.Audit(r, "auth.logout", "user_id", session.UserID, "device_id", session.DeviceID)
		}
	}
	security.ClearRefreshCookie(w, h.cookieSecure)
	response.NoContent(w)
}

func (h *AuthHandler) refreshTokenFromRequest(r *http.Request) string {
	if c := security.GetCookie(r, security.RefreshCookieName); c != "" {
		return c
	}
	var body struct {
		RefreshToken string `json:"refresh_token"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
		return body.RefreshToken
	}
	return ""
}

func deviceTitle(r *http.Request) string {
	title := strings.TrimSpace(r.UserAgent())
	if title == "" {
		title = "unknown device"
	}
	if len(title) > 500 {
		// Back up to a rune boundary so the cut never splits a multibyte
		// character.
		cut := 500
		for cut > 0 && !utf8.RuneStart(title[cut]) {
			cut--
		}
		title = title[:cut]
	}
	return title
}

func validateRegister(req registerRequest) map[string]string {
	details := map[string]string{}
	if l := strings.TrimSpace(req.Login); len(l) < 3 || len(l) > 64 {
		details["login"] = "must be 3-64 characters"
	}
	if !strings.Contains(req.Email, "@") {
		details["email"] = "must be a valid email"
	}
	if len(req.Password) < 6 || len(req.Password) > 72 {
		details["password"] = "must be 6-72 characters"
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
