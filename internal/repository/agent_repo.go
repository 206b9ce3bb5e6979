package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skills-arena/internal/domain"
)

// AgentRepository define el contrato de persistencia para agentes.
type AgentRepository interface {
	Create(ctx context.Context, agent domain.Agent) error
	GetByDID(ctx context.Context, did string) (domain.Agent, error)
	TouchLastActive(ctx context.Context, did string, at time.Time) error
}

// PgAgentRepository implementa AgentRepository usando pgxpool.
type PgAgentRepository struct {
	pool *pgxpool.Pool
}

func NewPgAgentRepository(pool *pgxpool.Pool) *PgAgentRepository {
	return &PgAgentRepository{pool: pool}
}

func (r *PgAgentRepository) Create(ctx context.Context, agent domain.Agent) error {
	const query = `
		INSERT INTO agents (agent_id, did, username, display_name, bio, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.pool.Exec(ctx, query,
		agent.ID,
		agent.DID,
		agent.Username,
		agent.DisplayName,
		agent.Bio,
		agent.CreatedAt,
	)
	return err
}

func (r *PgAgentRepository) GetByDID(ctx context.Context, did string) (domain.Agent, error) {
	const query = `
		SELECT agent_id, did, username, display_name, bio, created_at, last_active_at
		FROM agents
		WHERE did = $1
	`
	var a domain.Agent
	err := r.pool.QueryRow(ctx, query, did).Scan(
		&a.ID,
		&a.DID,
		&a.Username,
		&a.DisplayName,
		&a.Bio,
		&a.CreatedAt,
		&a.LastActiveAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Agent{}, err
	}
	return a, err
}

func (r *PgAgentRepository) TouchLastActive(ctx context.Context, did string, at time.Time) error {
	const query = `
		UPDATE agents SET last_active_at = $2 WHERE did = $1
	`
	_, err := r.pool.Exec(ctx, query, did, at)
	return err
}
