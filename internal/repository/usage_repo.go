package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"skills-arena/internal/domain"
)

// SkillUsageTotals son los acumulados denormalizados de uso de un skill.
type SkillUsageTotals struct {
	UsageCount      int     `json:"total_usage_count"`
	TotalTime       float64 `json:"total_usage_time"`
	AvgResponseTime float64 `json:"avg_response_time"`
}

// UsageRepository persiste el log append-only de uso. Los registros nunca
// se mutan ni se borran.
type UsageRepository interface {
	Append(ctx context.Context, rec domain.UsageRecord) (SkillUsageTotals, error)
	TotalForAgent(ctx context.Context, skillID, agentID string) (int, error)
}

// PgUsageRepository implementa UsageRepository usando pgxpool.
type PgUsageRepository struct {
	pool *pgxpool.Pool
}

func NewPgUsageRepository(pool *pgxpool.Pool) *PgUsageRepository {
	return &PgUsageRepository{pool: pool}
}

// Append inserta el registro y actualiza los acumulados del skill en la
// misma transacción.
func (r *PgUsageRepository) Append(ctx context.Context, rec domain.UsageRecord) (SkillUsageTotals, error) {
	var totals SkillUsageTotals

	err := withTransientRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		const insertQuery = `
			INSERT INTO usage_records (id, skill_id, agent_id, usage_count, total_time, avg_response_time, success_rate, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`
		if _, err := tx.Exec(ctx, insertQuery,
			rec.ID,
			rec.SkillID,
			rec.AgentID,
			rec.UsageCount,
			rec.TotalTime,
			rec.AvgResponseTime,
			rec.SuccessRate,
			rec.CreatedAt,
		); err != nil {
			return err
		}

		const updateQuery = `
			UPDATE skills
			SET usage_count = usage_count + $2,
				total_usage_time = total_usage_time + $3
			WHERE skill_id = $1
			RETURNING usage_count, total_usage_time,
				CASE WHEN usage_count > 0 THEN total_usage_time / usage_count ELSE 0 END
		`
		if err := tx.QueryRow(ctx, updateQuery, rec.SkillID, rec.UsageCount, rec.TotalTime).Scan(
			&totals.UsageCount,
			&totals.TotalTime,
			&totals.AvgResponseTime,
		); err != nil {
			return err
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return SkillUsageTotals{}, err
	}
	return totals, nil
}

// TotalForAgent suma el uso registrado de un agente para un skill; es lo
// que habilita y pondera sus reviews.
func (r *PgUsageRepository) TotalForAgent(ctx context.Context, skillID, agentID string) (int, error) {
	const query = `
		SELECT COALESCE(SUM(usage_count), 0)
		FROM usage_records
		WHERE skill_id = $1 AND agent_id = $2
	`
	var total int
	err := r.pool.QueryRow(ctx, query, skillID, agentID).Scan(&total)
	return total, err
}
