package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/inkpress/content-platform/internal/domain"
	"github.com/inkpress/content-platform/internal/observability"
)

var ErrUserNotFound = errors.New("user not found")

type UserRepository interface {
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByLoginOrEmail(ctx context.Context, loginOrEmail string) (*domain.User, error)
	FindByConfirmationCode(ctx context.Context, code string) (*domain.User, error)
	Create(ctx context.Context, user *domain.User) error
	MarkConfirmed(ctx context.Context, id string, at time.Time) error
}

type GormUserRepository struct{ db *gorm.DB }

func NewUserRepository(db *gorm.DB) UserRepository { return &GormUserRepository{db: db} }

func (r *GormUserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "user", "find_by_id", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(ctx, "user", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "user", "find_by_id", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByLoginOrEmail(ctx context.Context, loginOrEmail string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).
		Where("login = ? OR email = ?", loginOrEmail, loginOrEmail).
		First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "user", "find_by_login_or_email", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(ctx, "user", "find_by_login_or_email", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "user", "find_by_login_or_email", "success")
	return &u, nil
}

func (r *GormUserRepository) FindByConfirmationCode(ctx context.Context, code string) (*domain.User, error) {
	var u domain.User
	err := r.db.WithContext(ctx).Where("confirmation_code = ?", code).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "user", "find_by_confirmation_code", "not_found")
			return nil, ErrUserNotFound
		}
		observability.RecordRepositoryOperation(ctx, "user", "find_by_confirmation_code", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "user", "find_by_confirmation_code", "success")
	return &u, nil
}

func (r *GormUserRepository) Create(ctx context.Context, user *domain.User) error {
	err := r.db.WithContext(ctx).Create(user).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "user", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "user", "create", "success")
	return nil
}

func (r *GormUserRepository) MarkConfirmed(ctx context.Context, id string, at time.Time) error {
	err := r.db.WithContext(ctx).Model(&domain.User{}).
		Where("id = ?", id).
		Updates(map[string]any{"confirmed_at": at, "confirmation_code": nil}).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "user", "mark_confirmed", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "user", "mark_confirmed", "success")
	return nil
}
