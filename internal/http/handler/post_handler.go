package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/inkpress/content-platform/internal/http/middleware"
	"github.com/inkpress/content-platform/internal/http/response"
	"github.com/inkpress/content-platform/internal/repository"
	"github.com/inkpress/content-platform/internal/service"
)

type PostHandler struct {
	content *service.ContentService
}

func NewPostHandler(content *service.ContentService) *PostHandler {
	return &PostHandler{content: content}
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (h *PostHandler) List(w http.ResponseWriter, r *http.Request) {
	result, err := h.content.ListPosts(r.Context(), pageRequest(r))
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not list posts", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

func (h *PostHandler) Get(w http.ResponseWriter, r *http.Request) {
	post, err := h.content.GetPost(r.Context(), chi.URLParam(r, "postId"))
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not load post", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, post)
}

func (h *PostHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if details := validatePost(req); len(details) > 0 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "invalid post fields", details)
		return
	}
	post, err := h.content.CreatePost(r.Context(), userID, req.Title, req.Content)
	if err != nil {
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not create post", nil)
		return
	}
	response.JSON(w, r, http.StatusCreated, post)
}

func (h *PostHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req postRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if details := validatePost(req); len(details) > 0 {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "invalid post fields", details)
		return
	}
	post, err := h.content.UpdatePost(r.Context(), userID, chi.URLParam(r, "postId"), req.Title, req.Content)
	if err != nil {
		writeContentError(w, r, err, "post")
		return
	}
	response.JSON(w, r, http.StatusOK, post)
}

func (h *PostHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	if err := h.content.DeletePost(r.Context(), userID, chi.URLParam(r, "postId")); err != nil {
		writeContentError(w, r, err, "post")
		return
	}
	response.NoContent(w)
}

func writeContentError(w http.ResponseWriter, r *http.Request, err error, entity string) {
	switch {
	case errors.Is(err, repository.ErrPostNotFound), errors.Is(err, repository.ErrCommentNotFound):
		response.Error(w, r, http.StatusNotFound, "NOT_FOUND", entity+" not found", nil)
	case errors.Is(err, service.ErrNotOwner):
		response.Error(w, r, http.StatusForbidden, "FORBIDDEN", "only the author may modify this "+entity, nil)
	default:
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "operation failed", nil)
	}
}

func pageRequest(r *http.Request) repository.PageRequest {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	size, _ := strconv.Atoi(q.Get("page_size"))
	return repository.PageRequest{Page: page, PageSize: size}
}

func validatePost(req postRequest) map[string]string {
	details := map[string]string{}
	if t := strings.TrimSpace(req.Title); len(t) < 1 || len(t) > 255 {
		details["title"] = "must be 1-255 characters"
	}
	if strings.TrimSpace(req.Content) == "" {
		details["content"] = "must not be empty"
	}
	if len(details) == 0 {
		return nil
	}
	return details
}
