package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skills-arena/internal/service"
)

// AgentHandler mantiene dependencias para endpoints de agentes.
type AgentHandler struct {
	logger   *zap.Logger
	identity *service.IdentityService
}

func NewAgentHandler(logger *zap.Logger, identity *service.IdentityService) *AgentHandler {
	return &AgentHandler{
		logger:   logger,
		identity: identity,
	}
}

// Register maneja POST /agents/register.
func (h *AgentHandler) Register(c *gin.Context) {
	var req struct {
		PublicKey   string `json:"public_key"`
		DID         string `json:"did"`
		Username    string `json:"username" binding:"required"`
		DisplayName string `json:"display_name"`
		Bio         string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("invalid register request", zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	agent, err := h.identity.Register(c.Request.Context(), service.RegisterAgentInput{
		PublicKey:   req.PublicKey,
		DID:         req.DID,
		Username:    req.Username,
		DisplayName: req.DisplayName,
		Bio:         req.Bio,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidAgent):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing did or username"})
		case errors.Is(err, service.ErrUsernameInUse):
			c.JSON(http.StatusConflict, gin.H{"error": "username already in use"})
		default:
			h.logger.Error("register agent failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not register agent"})
		}
		return
	}

	c.JSON(http.StatusCreated, gin.H{"agent": agent})
}

// IssueToken maneja POST /agents/token.
func (h *AgentHandler) IssueToken(c *gin.Context) {
	var req struct {
		DID string `json:"did" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	token, err := h.identity.IssueToken(c.Request.Context(), req.DID)
	if err != nil {
		if errors.Is(err, service.ErrAgentNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "agent not found"})
			return
		}
		h.logger.Error("issue token failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": token})
}
