package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skills-arena/internal/domain"
)

// FeedQuery son los parámetros ya validados de una página de feed.
type FeedQuery struct {
	SortBy    string
	Community string
	Limit     int
	Offset    int
}

// SkillRepository define el contrato de persistencia para skills.
type SkillRepository interface {
	Create(ctx context.Context, skill domain.Skill) error
	GetByID(ctx context.Context, id string) (domain.Skill, error)
	GetByHash(ctx context.Context, contentHash string) (domain.Skill, error)
	ExistsNameVersion(ctx context.Context, name, version string) (string, bool, error)
	AddUploader(ctx context.Context, skillID, uploaderDID string) (int, error)
	Feed(ctx context.Context, q FeedQuery) ([]domain.SkillSummary, error)
	Leaderboard(ctx context.Context, category string, limit int) ([]domain.SkillSummary, error)
}

// PgSkillRepository implementa SkillRepository usando pgxpool.
type PgSkillRepository struct {
	pool *pgxpool.Pool
}

func NewPgSkillRepository(pool *pgxpool.Pool) *PgSkillRepository {
	return &PgSkillRepository{pool: pool}
}

func (r *PgSkillRepository) Create(ctx context.Context, skill domain.Skill) error {
	const query = `
		INSERT INTO skills (
			skill_id, name, description, version, content_hash,
			uploader_did, uploaders, uploader_count, community, visibility,
			status, file_size, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.pool.Exec(ctx, query,
		skill.ID,
		skill.Name,
		skill.Description,
		skill.Version,
		skill.ContentHash,
		skill.UploaderDID,
		skill.Uploaders,
		skill.UploaderCount,
		skill.Community,
		skill.Visibility,
		skill.Status,
		skill.FileSize,
		skill.CreatedAt,
	)
	return err
}

const skillColumns = `
	skill_id, name, description, version, content_hash,
	uploader_did, uploaders, uploader_count, community, visibility,
	status, file_size, upvotes, downvotes, vote_score, hot_score,
	rating, reviews_count, usage_count, total_usage_time, created_at
`

func scanSkill(row pgx.Row) (domain.Skill, error) {
	var s domain.Skill
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Description,
		&s.Version,
		&s.ContentHash,
		&s.UploaderDID,
		&s.Uploaders,
		&s.UploaderCount,
		&s.Community,
		&s.Visibility,
		&s.Status,
		&s.FileSize,
		&s.Upvotes,
		&s.Downvotes,
		&s.VoteScore,
		&s.HotScore,
		&s.Rating,
		&s.ReviewsCount,
		&s.UsageCount,
		&s.TotalTime,
		&s.CreatedAt,
	)
	return s, err
}

func (r *PgSkillRepository) GetByID(ctx context.Context, id string) (domain.Skill, error) {
	query := fmt.Sprintf(`SELECT %s FROM skills WHERE skill_id = $1`, skillColumns)
	skill, err := scanSkill(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Skill{}, err
	}
	return skill, err
}

func (r *PgSkillRepository) GetByHash(ctx context.Context, contentHash string) (domain.Skill, error) {
	query := fmt.Sprintf(`SELECT %s FROM skills WHERE content_hash = $1`, skillColumns)
	skill, err := scanSkill(r.pool.QueryRow(ctx, query, contentHash))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Skill{}, err
	}
	return skill, err
}

// ExistsNameVersion devuelve el skill_id existente para un par
// (nombre, versión), si lo hay.
func (r *PgSkillRepository) ExistsNameVersion(ctx context.Context, name, version string) (string, bool, error) {
	const query = `
		SELECT skill_id FROM skills WHERE name = $1 AND version = $2
	`
	var id string
	err := r.pool.QueryRow(ctx, query, name, version).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return id, true, nil
}

// AddUploader agrega un uploader a la lista del skill si todavía no está,
// en un solo statement para no perder updates concurrentes. Devuelve el
// uploader_count resultante.
func (r *PgSkillRepository) AddUploader(ctx context.Context, skillID, uploaderDID string) (int, error) {
	const query = `
		UPDATE skills
		SET uploaders = array_append(uploaders, $2),
			uploader_count = uploader_count + 1
		WHERE skill_id = $1 AND NOT ($2 = ANY(uploaders))
		RETURNING uploader_count
	`
	var count int
	err := r.pool.QueryRow(ctx, query, skillID, uploaderDID).Scan(&count)
	if errors.Is(err, pgx.ErrNoRows) {
		// Ya estaba en la lista: devolver el count actual.
		const current = `SELECT uploader_count FROM skills WHERE skill_id = $1`
		err = r.pool.QueryRow(ctx, current, skillID).Scan(&count)
	}
	return count, err
}

// feedOrder mapea sort keys validadas a expresiones ORDER BY. El desempate
// por skill_id mantiene la paginación por OFFSET determinística.
func feedOrder(sortBy string) (string, error) {
	switch sortBy {
	case "hot":
		return "s.hot_score DESC, s.skill_id", nil
	case "new":
		return "s.created_at DESC, s.skill_id", nil
	case "top":
		return "s.vote_score DESC, s.skill_id", nil
	case "rating":
		return "s.rating DESC, s.skill_id", nil
	case "usage":
		return "s.usage_count DESC, s.skill_id", nil
	case "reviews":
		return "s.reviews_count DESC, s.skill_id", nil
	case "uploaders":
		return "s.uploader_count DESC, s.skill_id", nil
	case "overall":
		// Mezcla acotada: 50% rating + 30% uso normalizado + 20% reviews
		// normalizadas; los caps evitan que una dimensión saturada domine.
		return `(0.5 * s.rating
			+ 0.3 * LEAST(s.usage_count / 1000.0, 1) * 100
			+ 0.2 * LEAST(s.reviews_count / 50.0, 1) * 100) DESC, s.skill_id`, nil
	default:
		return "", fmt.Errorf("unknown sort key %q", sortBy)
	}
}

func (r *PgSkillRepository) Feed(ctx context.Context, q FeedQuery) ([]domain.SkillSummary, error) {
	orderBy, err := feedOrder(q.SortBy)
	if err != nil {
		return nil, err
	}

	query := fmt.Sprintf(`
		SELECT
			s.skill_id, s.name, s.description, s.version, s.community,
			s.upvotes, s.downvotes, s.vote_score, s.hot_score,
			s.rating, s.reviews_count, s.usage_count, s.uploader_count,
			COALESCE(a.username, ''), s.created_at
		FROM skills s
		LEFT JOIN agents a ON s.uploader_did = a.did
		WHERE s.visibility = 'public'
			AND ($1 = '' OR s.community = $1)
		ORDER BY %s
		LIMIT $2 OFFSET $3
	`, orderBy)

	rows, err := r.pool.Query(ctx, query, q.Community, q.Limit, q.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []domain.SkillSummary
	for rows.Next() {
		var s domain.SkillSummary
		if err := rows.Scan(
			&s.ID,
			&s.Name,
			&s.Description,
			&s.Version,
			&s.Community,
			&s.Upvotes,
			&s.Downvotes,
			&s.VoteScore,
			&s.HotScore,
			&s.Rating,
			&s.ReviewsCount,
			&s.UsageCount,
			&s.UploaderCount,
			&s.UploaderName,
			&s.CreatedAt,
		); err != nil {
			return nil, err
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// Leaderboard reusa las mismas expresiones de orden que el feed, sin
// paginación por offset.
func (r *PgSkillRepository) Leaderboard(ctx context.Context, category string, limit int) ([]domain.SkillSummary, error) {
	return r.Feed(ctx, FeedQuery{SortBy: category, Limit: limit})
}
