package http

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	agentH *AgentHandler,
	skillH *SkillHandler,
	voteH *VoteHandler,
	commentH *CommentHandler,
	feedH *FeedHandler,
) *gin.Engine {
	r := gin.New()

	// Middlewares básicos: logging, recovery y extracción de identidad.
	r.Use(zapLoggerMiddleware(logger), gin.Recovery(), IdentityTokenMiddleware())

	r.GET("/health", feedH.Health)

	agents := r.Group("/agents")
	agents.POST("/register", agentH.Register)
	agents.POST("/token", agentH.IssueToken)

	skills := r.Group("/skills")
	skills.POST("/upload", skillH.Upload)
	skills.GET("/:id", skillH.Get)
	skills.POST("/:id/usage", skillH.RecordUsage)
	skills.POST("/:id/review", skillH.SubmitReview)
	skills.POST("/:id/comments", commentH.Add)
	skills.GET("/:id/comments", commentH.List)

	r.POST("/votes", voteH.Vote)

	r.GET("/feed", feedH.Feed)
	r.GET("/leaderboards/:category", feedH.Leaderboard)
	r.POST("/rankings/refresh", feedH.RefreshHotScores)

	return r
}

// zapLoggerMiddleware crea un middleware simple de logging con zap.
func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		latency := time.Since(start)
		logger.Info("request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
		)
	}
}
