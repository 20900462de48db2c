package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/inkpress/content-platform/internal/http/response"
	"github.com/inkpress/content-platform/internal/observability"
	"github.com/inkpress/content-platform/internal/security"
	"github.com/inkpress/content-platform/internal/service"
)

// DeviceHandler serves the device-management surface. These endpoints
// authenticate with the refresh credential so that a freshly revoked device
// loses access here immediately, not one access-token lifetime later.
type DeviceHandler struct {
	sessions *service.SessionService
}

func NewDeviceHandler(sessions *service.SessionService) *DeviceHandler {
	return &DeviceHandler{sessions: sessions}
}

func (h *DeviceHandler) List(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentDevice(w, r)
	if !ok {
		return
	}
	devices, err := h.sessions.ListDevices(r.Context(), current.UserID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not list devices", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, devices)
}

func (h *DeviceHandler) RevokeOthers(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentDevice(w, r)
	if !ok {
		return
	}
	removed, err := h.sessions.RevokeOthers(r.Context(), current.UserID, current.DeviceID)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not revoke devices", nil)
		return
	}
	observability.Audit(r, "devices.revoke_others", "user_id", current.UserID, "kept_device_id", current.DeviceID, "removed", removed)
	response.NoContent(w)
}

func (h *DeviceHandler) Revoke(w http.ResponseWriter, r *http.Request) {
	current, ok := h.currentDevice(w, r)
	if !ok {
		return
	}
	deviceID := chi.URLParam(r, "deviceId")
	target, err := h.sessions.Device(r.Context(), deviceID)
	if err != nil {
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "device not found", nil)
		return
	}
	if target.UserID != current.UserID {
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "device belongs to another user", nil)
		return
	}
	if _, err := h.sessions.Revoke(r.Context(), deviceID); err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not revoke device", nil)
		return
	}
	observability.Audit(r, "devices.revoke", "user_id", current.UserID, "device_id", deviceID)
	response.NoContent(w)
}

func (h *DeviceHandler) currentDevice(w http.ResponseWriter, r *http.Request) (*currentSession, bool) {
	token := security.GetCookie(r, security.RefreshCookieName)
	if token == "" {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing refresh token", nil)
		return nil, false
	}
	session, err := h.sessions.CurrentDevice(r.Context(), token)
	if err != nil {
		if errors.Is(err, service.ErrMalformedToken) || isSessionError(err) {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "refresh token rejected", nil)
			return nil, false
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not resolve device", nil)
		return nil, false
	}
	return &currentSession{UserID: session.UserID, DeviceID: session.DeviceID}, true
}

type currentSession struct {
	UserID   string
	DeviceID string
}
