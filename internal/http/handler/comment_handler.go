package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/inkpress/content-platform/internal/http/middleware"
	"github.com/inkpress/content-platform/internal/http/response"
	"github.com/inkpress/content-platform/internal/repository"
	"github.com/inkpress/content-platform/internal/service"
)

type CommentHandler struct {
	content *service.ContentService
}

func NewCommentHandler(content *service.ContentService) *CommentHandler {
	return &CommentHandler{content: content}
}

type commentRequest struct {
	Content string `json:"content"`
}

func (h *CommentHandler) ListForPost(w http.ResponseWriter, r *http.Request) {
	result, err := h.content.ListComments(r.Context(), chi.URLParam(r, "postId"), pageRequest(r))
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not list comments", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, result)
}

func (h *CommentHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "invalid comment fields", map[string]string{"content": "must not be empty"})
		return
	}
	comment, err := h.content.CreateComment(r.Context(), userID, chi.URLParam(r, "postId"), req.Content)
	if err != nil {
		if errors.Is(err, repository.ErrPostNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "post not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not create comment", nil)
		return
	}
	response.JSON(w, r, http.StatusCreated, comment)
}

func (h *CommentHandler) Get(w http.ResponseWriter, r *http.Request) {
	comment, err := h.content.GetComment(r.Context(), chi.URLParam(r, "commentId"))
	if err != nil {
		if errors.Is(err, repository.ErrCommentNotFound) {
			response.Error(w, r, http.StatusNotFound, "NOT_FOUND", "comment not found", nil)
			return
		}
		response.Error(w, r, http.StatusInternalServerError, "INTERNAL", "could not load comment", nil)
		return
	}
	response.JSON(w, r, http.StatusOK, comment)
}

func (h *CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Error(w, r, http.StatusBadRequest, "BAD_REQUEST", "invalid json body", nil)
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		response.Error(w, r, http.StatusBadRequest, "VALIDATION_FAILED", "invalid comment fields", map[string]string{"content": "must not be empty"})
		return
	}
	comment, err := h.content.UpdateComment(r.Context(), userID, chi.URLParam(r, "commentId"), req.Content)
	if err != nil {
		writeContentError(w, r, err, "comment")
		return
	}
	response.JSON(w, r, http.StatusOK, comment)
}

func (h *CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.UserIDFromContext(r.Context())
	if err := h.content.DeleteComment(r.Context(), userID, chi.URLParam(r, "commentId")); err != nil {
		writeContentError(w, r, err, "comment")
		return
	}
	response.NoContent(w)
}
