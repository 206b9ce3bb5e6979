package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// RankableTarget es lo mínimo que necesita el refresh batch de hot scores.
type RankableTarget struct {
	TargetType string
	TargetID   string
	Upvotes    int
	Downvotes  int
	CreatedAt  time.Time
}

// RankingRepository respalda el refresh batch de hot scores.
type RankingRepository interface {
	ListVisibleTargets(ctx context.Context) ([]RankableTarget, error)
	UpdateHotScore(ctx context.Context, targetType, targetID string, score float64) error
}

// PgRankingRepository implementa RankingRepository usando pgxpool.
type PgRankingRepository struct {
	pool *pgxpool.Pool
}

func NewPgRankingRepository(pool *pgxpool.Pool) *PgRankingRepository {
	return &PgRankingRepository{pool: pool}
}

// ListVisibleTargets devuelve todos los targets visibles: skills públicos y
// todos los comentarios.
func (r *PgRankingRepository) ListVisibleTargets(ctx context.Context) ([]RankableTarget, error) {
	const query = `
		SELECT 'skill', skill_id, upvotes, downvotes, created_at
		FROM skills
		WHERE visibility = 'public'
		UNION ALL
		SELECT 'comment', comment_id, upvotes, downvotes, created_at
		FROM comments
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var targets []RankableTarget
	for rows.Next() {
		var t RankableTarget
		if err := rows.Scan(&t.TargetType, &t.TargetID, &t.Upvotes, &t.Downvotes, &t.CreatedAt); err != nil {
			return nil, err
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

func (r *PgRankingRepository) UpdateHotScore(ctx context.Context, targetType, targetID string, score float64) error {
	table, idColumn, err := targetTable(targetType)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`UPDATE %s SET hot_score = $2 WHERE %s = $1`, table, idColumn)
	_, err = r.pool.Exec(ctx, query, targetID, score)
	return err
}

// ArenaStats son los totales que expone el health check.
type ArenaStats struct {
	TotalSkills       int `json:"total_skills"`
	TotalReviews      int `json:"total_reviews"`
	TotalUsageRecords int `json:"total_usage_records"`
}

// StatsRepository expone totales agregados del arena.
type StatsRepository interface {
	Totals(ctx context.Context) (ArenaStats, error)
}

// PgStatsRepository implementa StatsRepository usando pgxpool.
type PgStatsRepository struct {
	pool *pgxpool.Pool
}

func NewPgStatsRepository(pool *pgxpool.Pool) *PgStatsRepository {
	return &PgStatsRepository{pool: pool}
}

func (r *PgStatsRepository) Totals(ctx context.Context) (ArenaStats, error) {
	const query = `
		SELECT
			(SELECT COUNT(*) FROM skills),
			(SELECT COUNT(*) FROM reviews),
			(SELECT COUNT(*) FROM usage_records)
	`
	var stats ArenaStats
	err := r.pool.QueryRow(ctx, query).Scan(&stats.TotalSkills, &stats.TotalReviews, &stats.TotalUsageRecords)
	return stats, err
}
