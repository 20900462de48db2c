package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/inkpress/content-platform/internal/domain"
	"github.com/inkpress/content-platform/internal/observability"
)

var ErrPostNotFound = errors.New("post not found")

type PostRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Post, error)
	ListPaged(ctx context.Context, req PageRequest) (PageResult[domain.Post], error)
	Create(ctx context.Context, post *domain.Post) error
	Update(ctx context.Context, post *domain.Post) error
	Delete(ctx context.Context, id string) (bool, error)
}

type GormPostRepository struct{ db *gorm.DB }

func NewPostRepository(db *gorm.DB) PostRepository { return &GormPostRepository{db: db} }

func (r *GormPostRepository) FindByID(ctx context.Context, id string) (*domain.Post, error) {
	var p domain.Post
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "post", "find_by_id", "not_found")
			return nil, ErrPostNotFound
		}
		observability.RecordRepositoryOperation(ctx, "post", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "post", "find_by_id", "success")
	return &p, nil
}

func (r *GormPostRepository) ListPaged(ctx context.Context, req PageRequest) (PageResult[domain.Post], error) {
	req = normalizePageRequest(req)
	result := PageResult[domain.Post]{
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    []domain.Post{},
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Post{}).Count(&total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "post", "list_paged", "error")
		return result, err
	}
	result.TotalCount = total
	result.TotalPages = calcTotalPages(total, req.PageSize)
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "post", "list_paged", "error")
		return result, err
	}
	observability.RecordRepositoryOperation(ctx, "post", "list_paged", "success")
	return result, nil
}

func (r *GormPostRepository) Create(ctx context.Context, post *domain.Post) error {
	err := r.db.WithContext(ctx).Create(post).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "post", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "post", "create", "success")
	return nil
}

func (r *GormPostRepository) Update(ctx context.Context, post *domain.Post) error {
	err := r.db.WithContext(ctx).Save(post).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "post", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "post", "update", "success")
	return nil
}

func (r *GormPostRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Post{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "post", "delete", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "post", "delete", "success")
	return res.RowsAffected > 0, nil
}
