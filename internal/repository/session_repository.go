package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/inkpress/content-platform/internal/domain"
	"github.com/inkpress/content-platform/internal/observability"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	// ErrTokenVersionConflict means the compare-and-swap on token_version lost:
	// the presented version is no longer the stored one.
	ErrTokenVersionConflict = errors.New("token version conflict")
)

type SessionRepository interface {
	Create(ctx context.Context, s *domain.Session) error
	FindByDeviceID(ctx context.Context, deviceID string) (*domain.Session, error)
	ListByUserID(ctx context.Context, userID string) ([]domain.Session, error)
	Rotate(ctx context.Context, deviceID string, expectedVersion int64, now, newExpiresAt time.Time) (*domain.Session, error)
	DeleteByDeviceID(ctx context.Context, deviceID string) (bool, error)
	DeleteOthersByUser(ctx context.Context, userID, keepDeviceID string) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

type GormSessionRepository struct{ db *gorm.DB }

func NewSessionRepository(db *gorm.DB) SessionRepository { return &GormSessionRepository{db: db} }

func (r *GormSessionRepository) Create(ctx context.Context, s *domain.Session) error {
	err := r.db.WithContext(ctx).Create(s).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "session", "create", "success")
	return nil
}

func (r *GormSessionRepository) FindByDeviceID(ctx context.Context, deviceID string) (*domain.Session, error) {
	var s domain.Session
	err := r.db.WithContext(ctx).Where("device_id = ?", deviceID).First(&s).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "session", "find_by_device_id", "not_found")
			return nil, ErrSessionNotFound
		}
		observability.RecordRepositoryOperation(ctx, "session", "find_by_device_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "find_by_device_id", "success")
	return &s, nil
}

func (r *GormSessionRepository) ListByUserID(ctx context.Context, userID string) ([]domain.Session, error) {
	var sessions []domain.Session
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("last_active_at DESC").
		Find(&sessions).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "list_by_user_id", "error")
		return sessions, err
	}
	observability.RecordRepositoryOperation(ctx, "session", "list_by_user_id", "success")
	return sessions, nil
}

// Rotate advances the session to the next token version. The guarded UPDATE
// is the atomicity point: of any number of concurrent rotations presenting
// the same version, exactly one statement matches the row. The winner's
// result is assembled from a prior snapshot plus the written values, never
// re-read, so a concurrent revoke landing right after the UPDATE cannot turn
// the one success into a failure. Losers are diagnosed after the fact so the
// caller can tell a replay from a vanished or expired session.
func (r *GormSessionRepository) Rotate(ctx context.Context, deviceID string, expectedVersion int64, now, newExpiresAt time.Time) (*domain.Session, error) {
	// Only immutable identity fields of the snapshot are used on the success
	// path, so a stale read here is harmless.
	s, err := r.FindByDeviceID(ctx, deviceID)
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "session", "rotate", "not_found")
		return nil, err
	}
	res := r.db.WithContext(ctx).Model(&domain.Session{}).
		Where("device_id = ? AND token_version = ? AND expires_at > ?", deviceID, expectedVersion, now).
		Updates(map[string]any{
			"token_version":  expectedVersion + 1,
			"last_active_at": now,
			"expires_at":     newExpiresAt,
		})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "session", "rotate", "error")
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		s, err = r.FindByDeviceID(ctx, deviceID)
		if err != nil {
			observability.RecordRepositoryOperation(ctx, "session", "rotate", "not_found")
			return nil, err
		}
		if !s.ExpiresAt.After(now) {
			observability.RecordRepositoryOperation(ctx, "session", "rotate", "expired")
			return nil, ErrSessionExpired
		}
		observability.RecordRepositoryOperation(ctx, "session", "rotate", "conflict")
		return nil, ErrTokenVersionConflict
	}
	s.TokenVersion = expectedVersion + 1
	s.LastActiveAt = now
	s.ExpiresAt = newExpiresAt
	observability.RecordRepositoryOperation(ctx, "session", "rotate", "success")
	return s, nil
}

func (r *GormSessionRepository) DeleteByDeviceID(ctx context.Context, deviceID string) (bool, error) {
	res := r.db.WithContext(ctx).Where("device_id = ?", deviceID).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "session", "delete_by_device_id", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "session", "delete_by_device_id", "success")
	return res.RowsAffected > 0, nil
}

func (r *GormSessionRepository) DeleteOthersByUser(ctx context.Context, userID, keepDeviceID string) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("user_id = ? AND device_id <> ?", userID, keepDeviceID).
		Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "session", "delete_others_by_user", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "session", "delete_others_by_user", "success")
	return res.RowsAffected, nil
}

func (r *GormSessionRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Where("expires_at <= ?", now).Delete(&domain.Session{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "session", "delete_expired", "error")
		return res.RowsAffected, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "session", "delete_expired", "success")
	return res.RowsAffected, nil
}
