package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skills-arena/internal/service"
)

// CommentHandler mantiene dependencias para endpoints de comentarios.
type CommentHandler struct {
	logger   *zap.Logger
	comments *service.CommentService
}

func NewCommentHandler(logger *zap.Logger, comments *service.CommentService) *CommentHandler {
	return &CommentHandler{
		logger:   logger,
		comments: comments,
	}
}

// Add maneja POST /skills/:id/comments.
func (h *CommentHandler) Add(c *gin.Context) {
	var req struct {
		Content         string `json:"content" binding:"required"`
		ParentCommentID string `json:"parent_comment_id"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.comments.AddComment(c.Request.Context(), c.Param("id"), CallerToken(c), req.Content, req.ParentCommentID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmptyComment):
			c.JSON(http.StatusBadRequest, gin.H{"error": "comment content cannot be empty"})
		case errors.Is(err, service.ErrSkillNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "skill not found"})
		case errors.Is(err, service.ErrParentNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "parent comment not found"})
		default:
			h.logger.Error("add comment failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not add comment"})
		}
		return
	}

	status := http.StatusCreated
	if !result.Success {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// List maneja GET /skills/:id/comments.
func (h *CommentHandler) List(c *gin.Context) {
	comments, err := h.comments.ListComments(c.Request.Context(), c.Param("id"), intQuery(c, "limit", 0), intQuery(c, "offset", 0))
	if err != nil {
		h.logger.Error("list comments failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list comments"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"comments": comments})
}
