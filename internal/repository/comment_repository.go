package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/inkpress/content-platform/internal/domain"
	"github.com/inkpress/content-platform/internal/observability"
)

var ErrCommentNotFound = errors.New("comment not found")

type CommentRepository interface {
	FindByID(ctx context.Context, id string) (*domain.Comment, error)
	ListByPostPaged(ctx context.Context, postID string, req PageRequest) (PageResult[domain.Comment], error)
	Create(ctx context.Context, comment *domain.Comment) error
	Update(ctx context.Context, comment *domain.Comment) error
	Delete(ctx context.Context, id string) (bool, error)
}

type GormCommentRepository struct{ db *gorm.DB }

func NewCommentRepository(db *gorm.DB) CommentRepository { return &GormCommentRepository{db: db} }

func (r *GormCommentRepository) FindByID(ctx context.Context, id string) (*domain.Comment, error) {
	var c domain.Comment
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			observability.RecordRepositoryOperation(ctx, "comment", "find_by_id", "not_found")
			return nil, ErrCommentNotFound
		}
		observability.RecordRepositoryOperation(ctx, "comment", "find_by_id", "error")
		return nil, err
	}
	observability.RecordRepositoryOperation(ctx, "comment", "find_by_id", "success")
	return &c, nil
}

func (r *GormCommentRepository) ListByPostPaged(ctx context.Context, postID string, req PageRequest) (PageResult[domain.Comment], error) {
	req = normalizePageRequest(req)
	result := PageResult[domain.Comment]{
		Page:     req.Page,
		PageSize: req.PageSize,
		Items:    []domain.Comment{},
	}
	var total int64
	if err := r.db.WithContext(ctx).Model(&domain.Comment{}).Where("post_id = ?", postID).Count(&total).Error; err != nil {
		observability.RecordRepositoryOperation(ctx, "comment", "list_by_post_paged", "error")
		return result, err
	}
	result.TotalCount = total
	result.TotalPages = calcTotalPages(total, req.PageSize)
	err := r.db.WithContext(ctx).
		Where("post_id = ?", postID).
		Order("created_at DESC").
		Offset((req.Page - 1) * req.PageSize).
		Limit(req.PageSize).
		Find(&result.Items).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "comment", "list_by_post_paged", "error")
		return result, err
	}
	observability.RecordRepositoryOperation(ctx, "comment", "list_by_post_paged", "success")
	return result, nil
}

func (r *GormCommentRepository) Create(ctx context.Context, comment *domain.Comment) error {
	err := r.db.WithContext(ctx).Create(comment).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "comment", "create", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "comment", "create", "success")
	return nil
}

func (r *GormCommentRepository) Update(ctx context.Context, comment *domain.Comment) error {
	err := r.db.WithContext(ctx).Save(comment).Error
	if err != nil {
		observability.RecordRepositoryOperation(ctx, "comment", "update", "error")
		return err
	}
	observability.RecordRepositoryOperation(ctx, "comment", "update", "success")
	return nil
}

func (r *GormCommentRepository) Delete(ctx context.Context, id string) (bool, error) {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Comment{})
	if res.Error != nil {
		observability.RecordRepositoryOperation(ctx, "comment", "delete", "error")
		return false, res.Error
	}
	observability.RecordRepositoryOperation(ctx, "comment", "delete", "success")
	return res.RowsAffected > 0, nil
}
