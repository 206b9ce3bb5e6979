package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skills-arena/internal/domain"
)

// VoteRepository aplica transiciones de voto de forma atómica: la fila del
// ledger y los contadores del target se escriben en la misma transacción.
type VoteRepository interface {
	ApplyTransition(ctx context.Context, agentID, targetType, targetID, action string) (domain.TargetCounts, domain.VoteTransition, error)
}

// PgVoteRepository implementa VoteRepository usando pgxpool.
type PgVoteRepository struct {
	pool *pgxpool.Pool
}

func NewPgVoteRepository(pool *pgxpool.Pool) *PgVoteRepository {
	return &PgVoteRepository{pool: pool}
}

// targetTable resuelve tabla y columna id para un target_type ya validado.
func targetTable(targetType string) (table, idColumn string, err error) {
	switch targetType {
	case domain.TargetSkill:
		return "skills", "skill_id", nil
	case domain.TargetComment:
		return "comments", "comment_id", nil
	default:
		return "", "", fmt.Errorf("unknown target_type %q", targetType)
	}
}

// ApplyTransition serializa "leer voto actual → transición → escribir ledger
// → escribir contadores" bloqueando la fila del target con FOR UPDATE. Los
// conflictos de serialización se reintentan de forma acotada.
func (r *PgVoteRepository) ApplyTransition(ctx context.Context, agentID, targetType, targetID, action string) (domain.TargetCounts, domain.VoteTransition, error) {
	table, idColumn, err := targetTable(targetType)
	if err != nil {
		return domain.TargetCounts{}, domain.VoteTransition{}, err
	}

	var (
		counts     domain.TargetCounts
		transition domain.VoteTransition
	)

	err = withTransientRetry(ctx, func() error {
		tx, err := r.pool.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		// El lock sobre la fila del target serializa votos concurrentes
		// al mismo target sin bloquear targets distintos.
		lockQuery := fmt.Sprintf(`
			SELECT upvotes, downvotes, vote_score
			FROM %s
			WHERE %s = $1
			FOR UPDATE
		`, table, idColumn)
		if err := tx.QueryRow(ctx, lockQuery, targetID).Scan(
			&counts.Upvotes,
			&counts.Downvotes,
			&counts.VoteScore,
		); err != nil {
			return err
		}

		const currentQuery = `
			SELECT vote_type
			FROM votes
			WHERE agent_id = $1 AND target_type = $2 AND target_id = $3
		`
		current := domain.VoteNone
		err = tx.QueryRow(ctx, currentQuery, agentID, targetType, targetID).Scan(&current)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return err
		}

		transition = domain.ApplyVoteAction(current, action)

		if !transition.NoOp {
			if err := r.writeLedger(ctx, tx, agentID, targetType, targetID, current, transition.Next); err != nil {
				return err
			}

			counterQuery := fmt.Sprintf(`
				UPDATE %s
				SET upvotes = upvotes + $2,
					downvotes = downvotes + $3,
					vote_score = vote_score + $4
				WHERE %s = $1
			`, table, idColumn)
			if _, err := tx.Exec(ctx, counterQuery, targetID,
				transition.Delta.Upvotes,
				transition.Delta.Downvotes,
				transition.Delta.Score,
			); err != nil {
				return err
			}

			counts.Upvotes += transition.Delta.Upvotes
			counts.Downvotes += transition.Delta.Downvotes
			counts.VoteScore += transition.Delta.Score
		}

		return tx.Commit(ctx)
	})
	if err != nil {
		return domain.TargetCounts{}, domain.VoteTransition{}, err
	}
	return counts, transition, nil
}

// writeLedger mantiene la invariante "como máximo un voto por (agente, target)".
func (r *PgVoteRepository) writeLedger(ctx context.Context, tx pgx.Tx, agentID, targetType, targetID string, current, next domain.VoteState) error {
	switch {
	case current == domain.VoteNone:
		const insertQuery = `
			INSERT INTO votes (agent_id, target_type, target_id, vote_type, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $5)
		`
		_, err := tx.Exec(ctx, insertQuery, agentID, targetType, targetID, next, time.Now().UTC())
		return err
	case next == domain.VoteNone:
		const deleteQuery = `
			DELETE FROM votes
			WHERE agent_id = $1 AND target_type = $2 AND target_id = $3
		`
		_, err := tx.Exec(ctx, deleteQuery, agentID, targetType, targetID)
		return err
	default:
		const updateQuery = `
			UPDATE votes
			SET vote_type = $4, updated_at = $5
			WHERE agent_id = $1 AND target_type = $2 AND target_id = $3
		`
		_, err := tx.Exec(ctx, updateQuery, agentID, targetType, targetID, next, time.Now().UTC())
		return err
	}
}
