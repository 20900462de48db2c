package handler

import (
	"errors"
	"net/http"

	"github.com/inkpress/content-platform/internal/http/middleware"
	"github.com/inkpress/content-platform/internal/http/response"
	"github.com/inkpress/content-platform/internal/repository"
	"github.com/inkpress/content-platform/internal/service"
)

type UserHandler struct {
	auth *service.AuthService
}

func NewUserHandler(auth *service.AuthService) *UserHandler {
	return &UserHandler{auth: auth}
}

func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing user context", nil)
		return
	}
	user, err := h.auth.UserByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			response.Error(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "user no longer exists", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not load user", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, map[string]string{
		"id":    user.ID,
		"login": user.Login,
		"email": user.Email,
	})
}
