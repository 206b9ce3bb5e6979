package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"skills-arena/internal/domain"
	"skills-arena/internal/repository"
)

const (
	defaultFeedLimit = 50
	maxFeedLimit     = 100
)

// FeedService compone feeds y leaderboards ordenados y paginados sobre los
// agregados ya refrescados. Solo lee; ningún contador muta por acá.
type FeedService struct {
	logger *zap.Logger
	skills repository.SkillRepository
	cache  FeedCache
}

// FeedCache es un read-cache opcional de páginas compuestas. La
// implementación nula es válida: sin cache, todo va a la base.
type FeedCache interface {
	Get(ctx context.Context, key string) ([]domain.SkillSummary, bool)
	Set(ctx context.Context, key string, items []domain.SkillSummary)
}

func NewFeedService(logger *zap.Logger, skills repository.SkillRepository, cache FeedCache) *FeedService {
	return &FeedService{
		logger: logger,
		skills: skills,
		cache:  cache,
	}
}

var ErrInvalidSortKey = errors.New("invalid sort key")

// OverallScore es la mezcla acotada del leaderboard "overall": 50% rating,
// 30% uso normalizado a 1000, 20% reviews normalizadas a 50. Los caps
// evitan que una dimensión saturada domine al resto.
func OverallScore(rating float64, usageCount, reviewsCount int) float64 {
	usageNorm := math.Min(float64(usageCount)/1000, 1)
	reviewsNorm := math.Min(float64(reviewsCount)/50, 1)
	return 0.5*rating + 0.3*usageNorm*100 + 0.2*reviewsNorm*100
}

var feedSortKeys = map[string]struct{}{
	"hot": {}, "new": {}, "top": {},
	"rating": {}, "usage": {}, "reviews": {}, "uploaders": {},
}

var leaderboardCategories = map[string]struct{}{
	"overall": {}, "rating": {}, "usage": {}, "reviews": {}, "uploaders": {},
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = defaultFeedLimit
	}
	if limit > maxFeedLimit {
		limit = maxFeedLimit
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// ComposeFeed devuelve una página ordenada de skills públicos. "hot"
// requiere un refresh reciente para ser significativo.
func (s *FeedService) ComposeFeed(ctx context.Context, sortKey, community string, limit, offset int) ([]domain.SkillSummary, error) {
	if _, ok := feedSortKeys[sortKey]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortKey, sortKey)
	}
	limit, offset = clampPage(limit, offset)

	cacheKey := fmt.Sprintf("feed:%s:%s:%d:%d", sortKey, community, limit, offset)
	if s.cache != nil {
		if items, ok := s.cache.Get(ctx, cacheKey); ok {
			return items, nil
		}
	}

	items, err := s.skills.Feed(ctx, repository.FeedQuery{
		SortBy:    sortKey,
		Community: community,
		Limit:     limit,
		Offset:    offset,
	})
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, items)
	}
	return items, nil
}

// ComposeLeaderboard devuelve el top de una categoría con ranks asignados.
// "overall" usa la mezcla acotada 50/30/20 calculada en el storage.
func (s *FeedService) ComposeLeaderboard(ctx context.Context, category string, limit int) ([]domain.SkillSummary, error) {
	if _, ok := leaderboardCategories[category]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortKey, category)
	}
	limit, _ = clampPage(limit, 0)

	cacheKey := fmt.Sprintf("leaderboard:%s:%d", category, limit)
	if s.cache != nil {
		if items, ok := s.cache.Get(ctx, cacheKey); ok {
			return items, nil
		}
	}

	items, err := s.skills.Leaderboard(ctx, category, limit)
	if err != nil {
		return nil, err
	}
	for i := range items {
		items[i].Rank = i + 1
		if category == "overall" {
			items[i].OverallScore = OverallScore(items[i].Rating, items[i].UsageCount, items[i].ReviewsCount)
		}
	}

	if s.cache != nil {
		s.cache.Set(ctx, cacheKey, items)
	}
	return items, nil
}
