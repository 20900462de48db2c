package handler

import (
	"errors"

	"github.com/inkpress/content-platform/internal/repository"
)

func isSessionError(err error) bool {
	return errors.Is(err, repository.ErrSessionNotFound) ||
		errors.Is(err, repository.ErrSessionExpired) ||
		errors.Is(err, repository.ErrTokenVersionConflict)
}
