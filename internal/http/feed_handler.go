package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"skills-arena/internal/repository"
	"skills-arena/internal/service"
)

// FeedHandler mantiene dependencias para feeds, leaderboards y el refresh
// batch de hot scores.
type FeedHandler struct {
	logger  *zap.Logger
	feeds   *service.FeedService
	ranking *service.RankingService
	stats   repository.StatsRepository
}

func NewFeedHandler(logger *zap.Logger, feeds *service.FeedService, ranking *service.RankingService, stats repository.StatsRepository) *FeedHandler {
	return &FeedHandler{
		logger:  logger,
		feeds:   feeds,
		ranking: ranking,
		stats:   stats,
	}
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	val, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return val
}

// Feed maneja GET /feed.
func (h *FeedHandler) Feed(c *gin.Context) {
	sortKey := c.DefaultQuery("sort", "hot")
	items, err := h.feeds.ComposeFeed(
		c.Request.Context(),
		sortKey,
		c.Query("community"),
		intQuery(c, "limit", 0),
		intQuery(c, "offset", 0),
	)
	if err != nil {
		if errors.Is(err, service.ErrInvalidSortKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("compose feed failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compose feed"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"sort": sortKey, "feed": items})
}

// Leaderboard maneja GET /leaderboards/:category.
func (h *FeedHandler) Leaderboard(c *gin.Context) {
	category := c.Param("category")
	items, err := h.feeds.ComposeLeaderboard(c.Request.Context(), category, intQuery(c, "limit", 0))
	if err != nil {
		if errors.Is(err, service.ErrInvalidSortKey) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		h.logger.Error("compose leaderboard failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not compose leaderboard"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category, "leaderboard": items})
}

// RefreshHotScores maneja POST /rankings/refresh. Pensado para el
// scheduler interno o una invocación operativa manual.
func (h *FeedHandler) RefreshHotScores(c *gin.Context) {
	updated, err := h.ranking.RefreshHotScores(c.Request.Context())
	if err != nil {
		h.logger.Error("hot score refresh failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "refresh failed", "updated_count": updated})
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated_count": updated})
}

// Health maneja GET /health.
func (h *FeedHandler) Health(c *gin.Context) {
	stats, err := h.stats.Totals(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "statistics": stats})
}
