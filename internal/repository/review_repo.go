package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skills-arena/internal/domain"
)

// ReviewRepository define el contrato de persistencia para reviews.
type ReviewRepository interface {
	Submit(ctx context.Context, review domain.Review) (domain.SkillRating, error)
	ExistsForAgent(ctx context.Context, skillID, agentID string) (bool, error)
	RecentTimesByAgent(ctx context.Context, agentID string, limit int) ([]time.Time, error)
}

// PgReviewRepository implementa ReviewRepository usando pgxpool.
type PgReviewRepository struct {
	pool *pgxpool.Pool
}

func NewPgReviewRepository(pool *pgxpool.Pool) *PgReviewRepository {
	return &PgReviewRepository{pool: pool}
}

// Submit inserta la review y recalcula el rating agregado del skill en la
// misma transacción, con la fila del skill bloqueada. El constraint UNIQUE
// sobre (skill_id, agent_id) respalda la invariante de una review por par
// aun bajo submits concurrentes.
func (r *PgReviewRepository) Submit(ctx context.Context, review domain.Review) (domain.SkillRating, error) {
	var rating domain.SkillRating

	err := withTransientRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		const lockQuery = `
			SELECT skill_id FROM skills WHERE skill_id = $1 FOR UPDATE
		`
		var skillID string
		if err := tx.QueryRow(ctx, lockQuery, review.SkillID).Scan(&skillID); err != nil {
			return err
		}

		const insertQuery = `
			INSERT INTO reviews (review_id, skill_id, agent_id, rating, comment, usage_count, weight, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		if _, err := tx.Exec(ctx, insertQuery,
			review.ID,
			review.SkillID,
			review.AgentID,
			review.Rating,
			review.Comment,
			review.UsageCount,
			review.Weight,
			review.CreatedAt,
		); err != nil {
			return err
		}

		// Media ponderada por peso sobre todas las reviews del skill. El
		// volumen por skill es acotado, así que el scan completo alcanza;
		// si dejara de serlo habría que mantener sum/weight incrementales.
		const aggregateQuery = `
			SELECT
				ROUND(COALESCE(SUM(rating * weight) / NULLIF(SUM(weight), 0), 0)::numeric, 2),
				COUNT(*)
			FROM reviews
			WHERE skill_id = $1
		`
		if err := tx.QueryRow(ctx, aggregateQuery, review.SkillID).Scan(
			&rating.Rating,
			&rating.ReviewsCount,
		); err != nil {
			return err
		}

		const updateQuery = `
			UPDATE skills SET rating = $2, reviews_count = $3 WHERE skill_id = $1
		`
		if _, err := tx.Exec(ctx, updateQuery, review.SkillID, rating.Rating, rating.ReviewsCount); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return domain.SkillRating{}, err
	}
	return rating, nil
}

func (r *PgReviewRepository) ExistsForAgent(ctx context.Context, skillID, agentID string) (bool, error) {
	const query = `
		SELECT 1 FROM reviews WHERE skill_id = $1 AND agent_id = $2
	`
	var one int
	err := r.pool.QueryRow(ctx, query, skillID, agentID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RecentTimesByAgent devuelve los timestamps de las reviews más recientes
// del agente sobre todos los skills, más nuevas primero.
func (r *PgReviewRepository) RecentTimesByAgent(ctx context.Context, agentID string, limit int) ([]time.Time, error) {
	const query = `
		SELECT created_at
		FROM reviews
		WHERE agent_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, agentID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var ts time.Time
		if err := rows.Scan(&ts); err != nil {
			return nil, err
		}
		times = append(times, ts)
	}
	return times, rows.Err()
}
