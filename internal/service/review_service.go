package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"skills-arena/internal/domain"
	"skills-arena/internal/repository"
)

// Parámetros anti-abuso de reviews.
const (
	// MinUsageForReview es el uso total mínimo para poder evaluar un skill.
	MinUsageForReview = 5

	// burstReviewCount y burstWindow definen la detección de ráfagas: si
	// las últimas burstReviewCount reviews del agente (contando la que se
	// está enviando) tienen todos sus gaps consecutivos bajo burstWindow,
	// el peso se multiplica por burstDampingFactor. Un falso positivo solo
	// diluye influencia, no niega el servicio.
	burstReviewCount   = 3
	burstWindow        = time.Minute
	burstDampingFactor = 0.1
)

// ReviewService aplica las capas de defensa de reviews: gate de uso, peso
// proporcional al uso y damping de ráfagas, y mantiene el rating agregado.
type ReviewService struct {
	logger   *zap.Logger
	identity identityResolver
	skills   repository.SkillRepository
	reviews  repository.ReviewRepository
	usage    repository.UsageRepository
	now      func() time.Time
}

func NewReviewService(
	logger *zap.Logger,
	identity identityResolver,
	skills repository.SkillRepository,
	reviews repository.ReviewRepository,
	usage repository.UsageRepository,
) *ReviewService {
	return &ReviewService{
		logger:   logger,
		identity: identity,
		skills:   skills,
		reviews:  reviews,
		usage:    usage,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

var (
	ErrSkillNotFound     = errors.New("skill not found")
	ErrInvalidRating     = errors.New("rating out of range")
	ErrInsufficientUsage = errors.New("insufficient usage to review")
	ErrDuplicateReview   = errors.New("review already submitted for this skill")
)

// ReviewResult es el resultado de un submit aceptado.
type ReviewResult struct {
	ReviewID     string  `json:"review_id"`
	Weight       float64 `json:"weight"`
	SkillRating  float64 `json:"skill_rating"`
	ReviewsCount int     `json:"reviews_count"`
}

// ReviewWeight es la tabla de confianza proporcional al uso. Bandas
// monótonas: manipular el rating exige uso real acumulado.
func ReviewWeight(totalUsage int) float64 {
	switch {
	case totalUsage < MinUsageForReview:
		return 0
	case totalUsage < 20:
		return 1.0
	case totalUsage < 50:
		return 1.5
	case totalUsage < 100:
		return 2.0
	default:
		return 3.0
	}
}

// isReviewBurst evalúa la lectura estricta de "pairwise": todos los gaps
// consecutivos entre las timestamps (más recientes primero) bajo el
// umbral de la ventana.
func isReviewBurst(times []time.Time) bool {
	if len(times) < burstReviewCount {
		return false
	}
	for i := 0; i < burstReviewCount-1; i++ {
		if times[i].Sub(times[i+1]) >= burstWindow {
			return false
		}
	}
	return true
}

// SubmitReview valida, pondera y persiste una review, recalculando el
// rating público del skill. No es idempotente a propósito: un reintento
// tras un submit exitoso se rechaza como duplicado, nunca se duplica.
func (s *ReviewService) SubmitReview(ctx context.Context, skillID, token string, rating float64, comment string) (ReviewResult, error) {
	if rating < 0 || rating > 100 {
		return ReviewResult{}, fmt.Errorf("%w: %.2f", ErrInvalidRating, rating)
	}

	agent, err := s.identity.Resolve(ctx, token)
	if err != nil {
		return ReviewResult{}, err
	}

	if _, err := s.skills.GetByID(ctx, skillID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ReviewResult{}, ErrSkillNotFound
		}
		return ReviewResult{}, err
	}

	totalUsage, err := s.usage.TotalForAgent(ctx, skillID, agent.ID)
	if err != nil {
		return ReviewResult{}, err
	}
	if totalUsage < MinUsageForReview {
		return ReviewResult{}, fmt.Errorf("%w: need %d uses, have %d", ErrInsufficientUsage, MinUsageForReview, totalUsage)
	}

	exists, err := s.reviews.ExistsForAgent(ctx, skillID, agent.ID)
	if err != nil {
		return ReviewResult{}, err
	}
	if exists {
		return ReviewResult{}, ErrDuplicateReview
	}

	weight := ReviewWeight(totalUsage)

	// La ventana de ráfaga mira las reviews recientes del agente sobre
	// todos los skills, no solo este.
	now := s.now()
	recent, err := s.reviews.RecentTimesByAgent(ctx, agent.ID, burstReviewCount-1)
	if err != nil {
		return ReviewResult{}, err
	}
	if isReviewBurst(append([]time.Time{now}, recent...)) {
		weight *= burstDampingFactor
		s.logger.Warn("review burst detected, damping weight",
			zap.String("agent_id", agent.ID),
			zap.Float64("weight", weight),
		)
	}

	review := domain.Review{
		ID:         uuid.NewString(),
		SkillID:    skillID,
		AgentID:    agent.ID,
		Rating:     rating,
		Comment:    comment,
		UsageCount: totalUsage,
		Weight:     weight,
		CreatedAt:  now,
	}

	aggregate, err := s.reviews.Submit(ctx, review)
	if err != nil {
		switch {
		case repository.IsUniqueViolation(err):
			// Carrera entre el pre-check y el insert: el constraint manda.
			return ReviewResult{}, ErrDuplicateReview
		case errors.Is(err, pgx.ErrNoRows):
			return ReviewResult{}, ErrSkillNotFound
		case repository.IsTransient(err):
			return ReviewResult{}, ErrTransient
		default:
			return ReviewResult{}, err
		}
	}

	return ReviewResult{
		ReviewID:     review.ID,
		Weight:       weight,
		SkillRating:  aggregate.Rating,
		ReviewsCount: aggregate.ReviewsCount,
	}, nil
}
