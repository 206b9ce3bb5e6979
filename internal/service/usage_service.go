package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"skills-arena/internal/domain"
	"skills-arena/internal/repository"
)

// UsageService registra el log append-only de uso que habilita y pondera
// las reviews.
type UsageService struct {
	logger   *zap.Logger
	identity identityResolver
	usage    repository.UsageRepository
	now      func() time.Time
}

func NewUsageService(logger *zap.Logger, identity identityResolver, usage repository.UsageRepository) *UsageService {
	return &UsageService{
		logger:   logger,
		identity: identity,
		usage:    usage,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var ErrInvalidUsage = errors.New("invalid usage data")

type UsageInput struct {
	UsageCount      int
	TotalTime       float64
	AvgResponseTime float64
	SuccessRate     float64
}

type UsageResult struct {
	RecordID string                      `json:"record_id"`
	Totals   repository.SkillUsageTotals `json:"skill_usage"`
}

// RecordUsage valida y apendea un registro de uso, actualizando los
// acumulados del skill.
func (s *UsageService) RecordUsage(ctx context.Context, skillID, token string, input UsageInput) (UsageResult, error) {
	if input.UsageCount < 0 || input.TotalTime < 0 {
		return UsageResult{}, ErrInvalidUsage
	}

	agent, err := s.identity.Resolve(ctx, token)
	if err != nil {
		return UsageResult{}, err
	}

	rec := domain.UsageRecord{
		ID:              uuid.NewString(),
		SkillID:         skillID,
		AgentID:         agent.ID,
		UsageCount:      input.UsageCount,
		TotalTime:       input.TotalTime,
		AvgResponseTime: input.AvgResponseTime,
		SuccessRate:     input.SuccessRate,
		CreatedAt:       s.now(),
	}

	totals, err := s.usage.Append(ctx, rec)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return UsageResult{}, ErrSkillNotFound
		}
		return UsageResult{}, err
	}

	return UsageResult{RecordID: rec.ID, Totals: totals}, nil
}
