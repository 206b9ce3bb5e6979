package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"skills-arena/internal/repository"
	"skills-arena/internal/service"
)

// SkillHandler mantiene dependencias para endpoints de skills: publish,
// lectura, uso y reviews.
type SkillHandler struct {
	logger  *zap.Logger
	skills  repository.SkillRepository
	uploads *service.UploadService
	usage   *service.UsageService
	reviews *service.ReviewService
}

func NewSkillHandler(
	logger *zap.Logger,
	skills repository.SkillRepository,
	uploads *service.UploadService,
	usage *service.UsageService,
	reviews *service.ReviewService,
) *SkillHandler {
	return &SkillHandler{
		logger:  logger,
		skills:  skills,
		uploads: uploads,
		usage:   usage,
		reviews: reviews,
	}
}

// Upload maneja POST /skills/upload (multipart con el bundle y metadata).
func (h *SkillHandler) Upload(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}
	defer file.Close()
	content, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable file"})
		return
	}

	result, err := h.uploads.Publish(c.Request.Context(), CallerToken(c), service.SkillUploadInput{
		Name:        c.PostForm("name"),
		Description: c.PostForm("description"),
		Version:     c.PostForm("version"),
		Community:   c.PostForm("community"),
		Content:     content,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSkill):
			c.JSON(http.StatusBadRequest, gin.H{"error": "missing skill name or content"})
		case errors.Is(err, service.ErrVersionConflict):
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrAgentNotFound), errors.Is(err, service.ErrInvalidToken):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown agent"})
		default:
			h.logger.Error("skill upload failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not publish skill"})
		}
		return
	}

	status := http.StatusCreated
	if result.Status == service.UploadStatusDuplicate {
		status = http.StatusOK
	}
	c.JSON(status, result)
}

// Get maneja GET /skills/:id.
func (h *SkillHandler) Get(c *gin.Context) {
	skill, err := h.skills.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			c.JSON(http.StatusNotFound, gin.H{"error": "skill not found"})
			return
		}
		h.logger.Error("get skill failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not load skill"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"skill": skill})
}

// RecordUsage maneja POST /skills/:id/usage.
func (h *SkillHandler) RecordUsage(c *gin.Context) {
	var req struct {
		UsageCount      int     `json:"usage_count"`
		TotalTime       float64 `json:"total_time"`
		AvgResponseTime float64 `json:"avg_response_time"`
		SuccessRate     float64 `json:"success_rate"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.usage.RecordUsage(c.Request.Context(), c.Param("id"), CallerToken(c), service.UsageInput{
		UsageCount:      req.UsageCount,
		TotalTime:       req.TotalTime,
		AvgResponseTime: req.AvgResponseTime,
		SuccessRate:     req.SuccessRate,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidUsage):
			c.JSON(http.StatusBadRequest, gin.H{"error": "usage counts must be non-negative"})
		case errors.Is(err, service.ErrSkillNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "skill not found"})
		case errors.Is(err, service.ErrAgentNotFound), errors.Is(err, service.ErrInvalidToken):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown agent"})
		default:
			h.logger.Error("record usage failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not record usage"})
		}
		return
	}

	c.JSON(http.StatusOK, result)
}

// SubmitReview maneja POST /skills/:id/review.
func (h *SkillHandler) SubmitReview(c *gin.Context) {
	var req struct {
		Rating  float64 `json:"rating"`
		Comment string  `json:"comment"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	result, err := h.reviews.SubmitReview(c.Request.Context(), c.Param("id"), CallerToken(c), req.Rating, req.Comment)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidRating):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrSkillNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "skill not found"})
		case errors.Is(err, service.ErrInsufficientUsage):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		case errors.Is(err, service.ErrDuplicateReview):
			c.JSON(http.StatusConflict, gin.H{"error": "already reviewed this skill"})
		case errors.Is(err, service.ErrAgentNotFound), errors.Is(err, service.ErrInvalidToken):
			c.JSON(http.StatusUnauthorized, gin.H{"error": "unknown agent"})
		case errors.Is(err, service.ErrTransient):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "temporary conflict, retry"})
		default:
			h.logger.Error("submit review failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "could not submit review"})
		}
		return
	}

	c.JSON(http.StatusCreated, result)
}
