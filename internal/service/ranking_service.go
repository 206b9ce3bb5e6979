package service

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"skills-arena/internal/repository"
)

// gravity controla la velocidad del decaimiento temporal del ranking: un
// diferencial fijo de votos pierde importancia relativa a razón de
// Δhoras/1.8 por hora transcurrida.
const gravity = 1.8

const refreshConcurrency = 8

// RankingService calcula el hot score estilo Reddit y corre el refresh
// batch. El score nunca se recalcula en el camino del voto: la frescura
// del ranking se desacopla de la latencia de escritura.
type RankingService struct {
	logger  *zap.Logger
	targets repository.RankingRepository
	now     func() time.Time
}

func NewRankingService(logger *zap.Logger, targets repository.RankingRepository) *RankingService {
	return &RankingService{
		logger:  logger,
		targets: targets,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// HotScore calcula round(log10(max(|score|,1)) + horas/gravity, 4). El
// signo del score se descarta adrede: hot mide actividad, no aprobación.
func HotScore(upvotes, downvotes int, createdAt, now time.Time) float64 {
	score := upvotes - downvotes
	if score < 0 {
		score = -score
	}
	if score < 1 {
		score = 1
	}
	order := math.Log10(float64(score))
	ageHours := now.Sub(createdAt).Hours()
	return math.Round((order+ageHours/gravity)*10000) / 10000
}

// RefreshHotScores recalcula y persiste el hot score de todos los targets
// visibles. Pensado para correr en un cadence fijo (cada pocos minutos).
// Devuelve cuántos targets se actualizaron.
func (s *RankingService) RefreshHotScores(ctx context.Context) (int, error) {
	targets, err := s.targets.ListVisibleTargets(ctx)
	if err != nil {
		return 0, err
	}

	now := s.now()
	var updated atomic.Int64

	p := pool.New().WithErrors().WithMaxGoroutines(refreshConcurrency)
	for _, target := range targets {
		p.Go(func() error {
			score := HotScore(target.Upvotes, target.Downvotes, target.CreatedAt, now)
			if err := s.targets.UpdateHotScore(ctx, target.TargetType, target.TargetID, score); err != nil {
				return err
			}
			updated.Add(1)
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		s.logger.Error("hot score refresh incomplete",
			zap.Int64("updated", updated.Load()),
			zap.Error(err),
		)
		return int(updated.Load()), err
	}

	s.logger.Info("hot scores refreshed", zap.Int64("updated", updated.Load()))
	return int(updated.Load()), nil
}
