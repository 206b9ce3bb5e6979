package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skills-arena/internal/service"
)

// VoteHandler mantiene dependencias para endpoints de votos.
type VoteHandler struct {
	logger *zap.Logger
	votes  *service.VoteService
}

func NewVoteHandler(logger *zap.Logger, votes *service.VoteService) *VoteHandler {
	return &VoteHandler{
		logger: logger,
		votes:  votes,
	}
}

// Vote maneja POST /votes.
func (h *VoteHandler) Vote(c *gin.Context) {
	var req struct {
		TargetType string `json:"target_type" binding:"required"`
		TargetID   string `json:"target_id" binding:"required"`
		Action     string `json:"action" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid vote request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.votes.Vote(c.Request.Context(), req.TargetType, req.TargetID, CallerToken(c), req.Action)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTargetType),
			errors.Is(err, service.ErrInvalidAction):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrTargetNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "target not found"})
		case errors.Is(err, service.ErrTransient):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary conflict, retry"})
		default:
			h.logger.Error("vote failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not apply vote"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}
