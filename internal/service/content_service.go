package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/inkpress/content-platform/internal/domain"
	"github.com/inkpress/content-platform/internal/repository"
)

var ErrNotOwner = errors.New("not the author")

// ContentService is the mechanical CRUD host layer. Ownership is the only
// rule it enforces.
type ContentService struct {
	posts    repository.PostRepository
	comments repository.CommentRepository
}

func NewContentService(posts repository.PostRepository, comments repository.CommentRepository) *ContentService {
	return &ContentService{posts: posts, comments: comments}
}

func (s *ContentService) ListPosts(ctx context.Context, req repository.PageRequest) (repository.PageResult[domain.Post], error) {
	return s.posts.ListPaged(ctx, req)
}

func (s *ContentService) GetPost(ctx context.Context, id string) (*domain.Post, error) {
	return s.posts.FindByID(ctx, id)
}

func (s *ContentService) CreatePost(ctx context.Context, authorID, title, content string) (*domain.Post, error) {
	post := &domain.Post{
		ID:       uuid.NewString(),
		AuthorID: authorID,
		Title:    title,
		Content:  content,
	}
	if err := s.posts.Create(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *ContentService) UpdatePost(ctx context.Context, userID, id, title, content string) (*domain.Post, error) {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post.AuthorID != userID {
		return nil, ErrNotOwner
	}
	post.Title = title
	post.Content = content
	if err := s.posts.Update(ctx, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *ContentService) DeletePost(ctx context.Context, userID, id string) error {
	post, err := s.posts.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if post.AuthorID != userID {
		return ErrNotOwner
	}
	_, err = s.posts.Delete(ctx, id)
	return err
}

func (s *ContentService) ListComments(ctx context.Context, postID string, req repository.PageRequest) (repository.PageResult[domain.Comment], error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return repository.PageResult[domain.Comment]{}, err
	}
	return s.comments.ListByPostPaged(ctx, postID, req)
}

func (s *ContentService) GetComment(ctx context.Context, id string) (*domain.Comment, error) {
	return s.comments.FindByID(ctx, id)
}

func (s *ContentService) CreateComment(ctx context.Context, authorID, postID, content string) (*domain.Comment, error) {
	if _, err := s.posts.FindByID(ctx, postID); err != nil {
		return nil, err
	}
	comment := &domain.Comment{
		ID:       uuid.NewString(),
		PostID:   postID,
		AuthorID: authorID,
		Content:  content,
	}
	if err := s.comments.Create(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ContentService) UpdateComment(ctx context.Context, userID, id, content string) (*domain.Comment, error) {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if comment.AuthorID != userID {
		return nil, ErrNotOwner
	}
	comment.Content = content
	if err := s.comments.Update(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

func (s *ContentService) DeleteComment(ctx context.Context, userID, id string) error {
	comment, err := s.comments.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if comment.AuthorID != userID {
		return ErrNotOwner
	}
	_, err = s.comments.Delete(ctx, id)
	return err
}
