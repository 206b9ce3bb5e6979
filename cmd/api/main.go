package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"skills-arena/internal/config"
	"skills-arena/internal/db"
	apihttp "skills-arena/internal/http"
	"skills-arena/internal/repository"
	"skills-arena/internal/service"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := godotenv.Load(); err != nil {
		log.Printf("warning: loading .env: %v", err)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		panic(err)
	}

	logger, _ := zap.NewProduction()
	defer logger.Sync()

	pool, err := db.NewPool(ctx, cfg)
	if err != nil {
		logger.Fatal("db connect", zap.Error(err))
	}
	defer pool.Close()

	agentRepo := repository.NewPgAgentRepository(pool)
	skillRepo := repository.NewPgSkillRepository(pool)
	commentRepo := repository.NewPgCommentRepository(pool)
	voteRepo := repository.NewPgVoteRepository(pool)
	reviewRepo := repository.NewPgReviewRepository(pool)
	usageRepo := repository.NewPgUsageRepository(pool)
	rankingRepo := repository.NewPgRankingRepository(pool)
	statsRepo := repository.NewPgStatsRepository(pool)

	var feedCache service.FeedCache
	if cfg.RedisAddr != "" {
		redisClient := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		ctxPing, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Ping(ctxPing).Err(); err != nil {
			logger.Warn("redis ping failed, feed cache disabled", zap.Error(err))
		} else {
			feedCache = service.NewRedisFeedCache(redisClient, time.Duration(cfg.FeedCacheTTLSeconds)*time.Second)
		}
		cancel()
	}

	jwtSvc := service.NewJWTService(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)
	if cfg.JWTSecret == "" {
		logger.Warn("jwt secret not configured, only raw DID headers will resolve")
	}

	identitySvc := service.NewIdentityService(logger, agentRepo, jwtSvc)
	voteSvc := service.NewVoteService(logger, identitySvc, voteRepo)
	reviewSvc := service.NewReviewService(logger, identitySvc, skillRepo, reviewRepo, usageRepo)
	usageSvc := service.NewUsageService(logger, identitySvc, usageRepo)
	uploadSvc := service.NewUploadService(logger, identitySvc, skillRepo, voteSvc)
	commentSvc := service.NewCommentService(logger, identitySvc, skillRepo, commentRepo)
	rankingSvc := service.NewRankingService(logger, rankingRepo)
	feedSvc := service.NewFeedService(logger, skillRepo, feedCache)

	agentHandler := apihttp.NewAgentHandler(logger, identitySvc)
	skillHandler := apihttp.NewSkillHandler(logger, skillRepo, uploadSvc, usageSvc, reviewSvc)
	voteHandler := apihttp.NewVoteHandler(logger, voteSvc)
	commentHandler := apihttp.NewCommentHandler(logger, commentSvc)
	feedHandler := apihttp.NewFeedHandler(logger, feedSvc, rankingSvc, statsRepo)

	router := apihttp.NewRouter(logger, agentHandler, skillHandler, voteHandler, commentHandler, feedHandler)

	// Refresh periódico de hot scores: el cadence se tunea independiente
	// del throughput de votos.
	refreshEvery := time.Duration(cfg.HotRefreshMinutes) * time.Minute
	if refreshEvery <= 0 {
		refreshEvery = 5 * time.Minute
	}
	go func() {
		ticker := time.NewTicker(refreshEvery)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := rankingSvc.RefreshHotScores(ctx); err != nil {
					logger.Error("scheduled hot score refresh failed", zap.Error(err))
				}
			}
		}
	}()

	server := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("starting server", zap.String("port", cfg.HTTPPort))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", zap.Error(err))
	}
}
