package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/inkpress/content-platform/internal/domain"
	"github.com/inkpress/content-platform/internal/repository"
)

func newContentServiceForTest(t *testing.T) *ContentService {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&domain.Post{}, &domain.Comment{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return NewContentService(repository.NewPostRepository(db), repository.NewCommentRepository(db))
}

func TestContentServicePostLifecycle(t *testing.T) {
	ctx := context.Background()
	svc := newContentServiceForTest(t)

	post, err := svc.CreatePost(ctx, "u1", "hello", "first post")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	got, err := svc.GetPost(ctx, post.ID)
	if err != nil {
		t.Fatalf("get post: %v", err)
	}
	if got.Title != "hello" || got.AuthorID != "u1" {
		t.Fatalf("unexpected post %+v", got)
	}

	updated, err := svc.UpdatePost(ctx, "u1", post.ID, "hello again", "edited")
	if err != nil {
		t.Fatalf("update post: %v", err)
	}
	if updated.Title != "hello again" || updated.Content != "edited" {
		t.Fatalf("update not applied: %+v", updated)
	}

	if err := svc.DeletePost(ctx, "u1", post.ID); err != nil {
		t.Fatalf("delete post: %v", err)
	}
	if _, err := svc.GetPost(ctx, post.ID); !errors.Is(err, repository.ErrPostNotFound) {
		t.Fatalf("expected ErrPostNotFound after delete, got %v", err)
	}
}

func TestContentServiceOwnershipEnforced(t *testing.T) {
	ctx := context.Background()
	svc := newContentServiceForTest(t)

	post, err := svc.CreatePost(ctx, "u1", "hello", "first post")
	if err != nil {
		t.Fatalf("create post: %v", err)
	}

	if _, err := svc.UpdatePost(ctx, "intruder", post.ID, "hijacked", "x"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("update by non-owner: expected ErrNotOwner, got %v", err)
	}
	if err := svc.DeletePost(ctx, "intruder", post.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("delete by non-owner: expected ErrNotOwner, got %v", err)
	}

	comment, err := svc.CreateComment(ctx, "u2", post.ID, "nice")
	if err != nil {
		t.Fatalf("create comment: %v", err)
	}
	if _, err := svc.UpdateComment(ctx, "u1", comment.ID, "edited"); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("comment update by non-author: expected ErrNotOwner, got %v", err)
	}
	if err := svc.DeleteComment(ctx, "u1", comment.ID); !errors.Is(err, ErrNotOwner) {
		t.Fatalf("comment delete by non-author: expected ErrNotOwner, got %v", err)
	}
}

func TestContentServiceCommentsRequireExistingPost(t *testing.T) {
	ctx := context.Background()
	svc := newContentServiceForTest(t)

	if _, err := svc.CreateComment(ctx, "u1", "missing-post", "hi"); !errors.Is(err, repository.ErrPostNotFound) {
		t.Fatalf("comment on missing post: expected ErrPostNotFound, got %v", err)
	}
	if _, err := svc.ListComments(ctx, "missing-post", repository.PageRequest{}); !errors.Is(err, repository.ErrPostNotFound) {
		t.Fatalf("list for missing post: expected ErrPostNotFound, got %v", err)
	}
}

func TestContentServiceListPostsPaged(t *testing.T) {
	ctx := context.Background()
	svc := newContentServiceForTest(t)

	for i := 0; i < 25; i++ {
		if _, err := svc.CreatePost(ctx, "u1", fmt.Sprintf("post %02d", i), "body"); err != nil {
			t.Fatalf("create post %d: %v", i, err)
		}
	}

	page, err := svc.ListPosts(ctx, repository.PageRequest{Page: 2, PageSize: 10})
	if err != nil {
		t.Fatalf("list posts: %v", err)
	}
	if len(page.Items) != 10 {
		t.Fatalf("page size = %d, want 10", len(page.Items))
	}
	if page.TotalCount != 25 {
		t.Fatalf("total count = %d, want 25", page.TotalCount)
	}
	if page.TotalPages != 3 {
		t.Fatalf("total pages = %d, want 3", page.TotalPages)
	}
}
