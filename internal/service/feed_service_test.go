package service

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"go.uber.org/zap"

	"skills-arena/internal/domain"
)

func TestComposeFeed_InvalidSortKey(t *testing.T) {
	svc := NewFeedService(zap.NewNop(), newMockSkillRepo(), nil)
	if _, err := svc.ComposeFeed(context.Background(), "spicy", "", 10, 0); !errors.Is(err, ErrInvalidSortKey) {
		t.Fatalf("expected ErrInvalidSortKey, got %v", err)
	}
}

func TestComposeFeed_ClampsPagination(t *testing.T) {
	skills := newMockSkillRepo()
	cache := newMapFeedCache()
	svc := NewFeedService(zap.NewNop(), skills, cache)

	// limit fuera de rango y offset negativo quedan normalizados, visible
	// en la clave de cache.
	if _, err := svc.ComposeFeed(context.Background(), "hot", "", 9999, -5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cache.pages["feed:hot::100:0"]; !ok {
		t.Fatalf("expected clamped cache key, got %v", keysOf(cache.pages))
	}

	if _, err := svc.ComposeFeed(context.Background(), "new", "", 0, 0); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := cache.pages["feed:new::50:0"]; !ok {
		t.Fatalf("expected default limit cache key, got %v", keysOf(cache.pages))
	}
}

func keysOf(m map[string][]domain.SkillSummary) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestComposeFeed_CacheHitSkipsStorage(t *testing.T) {
	skills := newMockSkillRepo()
	skills.feedItems = []domain.SkillSummary{{ID: "skill-1"}}
	cache := newMapFeedCache()
	svc := NewFeedService(zap.NewNop(), skills, cache)

	ctx := context.Background()
	if _, err := svc.ComposeFeed(ctx, "hot", "dev", 10, 0); err != nil {
		t.Fatalf("first call: %v", err)
	}
	if _, err := svc.ComposeFeed(ctx, "hot", "dev", 10, 0); err != nil {
		t.Fatalf("second call: %v", err)
	}
	if skills.feedCalls != 1 {
		t.Fatalf("expected a single storage read, got %d", skills.feedCalls)
	}
	if cache.hits != 1 {
		t.Fatalf("expected one cache hit, got %d", cache.hits)
	}
}

func TestComposeLeaderboard_AssignsRanks(t *testing.T) {
	skills := newMockSkillRepo()
	skills.feedItems = []domain.SkillSummary{
		{ID: "skill-a", Rating: 95},
		{ID: "skill-b", Rating: 80},
		{ID: "skill-c", Rating: 60},
	}
	svc := NewFeedService(zap.NewNop(), skills, nil)

	items, err := svc.ComposeLeaderboard(context.Background(), "rating", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i, item := range items {
		if item.Rank != i+1 {
			t.Fatalf("item %d: expected rank %d, got %d", i, i+1, item.Rank)
		}
	}
}

func TestComposeLeaderboard_InvalidCategory(t *testing.T) {
	svc := NewFeedService(zap.NewNop(), newMockSkillRepo(), nil)
	if _, err := svc.ComposeLeaderboard(context.Background(), "hot", 10); !errors.Is(err, ErrInvalidSortKey) {
		t.Fatalf("hot is a feed sort, not a leaderboard category; got %v", err)
	}
}

func TestOverallScore_BoundedBlend(t *testing.T) {
	// Dimensiones saturadas: 50 + 30 + 20 = 100.
	if got := OverallScore(100, 2000, 100); math.Abs(got-100.0) > 1e-9 {
		t.Fatalf("expected 100, got %.2f", got)
	}

	// Rating alto con poca adopción pierde contra adopción real.
	nicheOnly := OverallScore(90, 10, 1)
	adopted := OverallScore(100, 2000, 100)
	if nicheOnly >= adopted {
		t.Fatalf("expected adoption to beat raw rating: %.2f vs %.2f", nicheOnly, adopted)
	}

	// Componente de uso capado en 1000.
	capped := OverallScore(0, 1000, 0)
	beyond := OverallScore(0, 50000, 0)
	if capped != beyond || math.Abs(capped-30.0) > 1e-9 {
		t.Fatalf("expected usage component capped at 30, got %.2f and %.2f", capped, beyond)
	}
}

func TestComposeLeaderboard_OverallSetsBlendedScore(t *testing.T) {
	skills := newMockSkillRepo()
	skills.feedItems = []domain.SkillSummary{
		{ID: "skill-adopted", Rating: 100, UsageCount: 2000, ReviewsCount: 100, CreatedAt: time.Now()},
		{ID: "skill-niche", Rating: 90, UsageCount: 10, ReviewsCount: 1, CreatedAt: time.Now()},
	}
	svc := NewFeedService(zap.NewNop(), skills, nil)

	items, err := svc.ComposeLeaderboard(context.Background(), "overall", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(items[0].OverallScore-100.0) > 1e-9 {
		t.Fatalf("expected blended score 100 for the adopted skill, got %.2f", items[0].OverallScore)
	}
	if items[1].OverallScore >= items[0].OverallScore {
		t.Fatalf("expected adopted skill ahead: %.2f vs %.2f", items[0].OverallScore, items[1].OverallScore)
	}
}
