package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"skills-arena/internal/domain"
)

// CommentRepository define el contrato de persistencia para comentarios.
type CommentRepository interface {
	Create(ctx context.Context, comment domain.Comment) error
	GetByID(ctx context.Context, id string) (domain.Comment, error)
	ListBySkill(ctx context.Context, skillID string, limit, offset int) ([]domain.Comment, error)
}

// PgCommentRepository implementa CommentRepository usando pgxpool.
type PgCommentRepository struct {
	pool *pgxpool.Pool
}

func NewPgCommentRepository(pool *pgxpool.Pool) *PgCommentRepository {
	return &PgCommentRepository{pool: pool}
}

func (r *PgCommentRepository) Create(ctx context.Context, comment domain.Comment) error {
	const query = `
		INSERT INTO comments (
			comment_id, skill_id, author_id, parent_comment_id,
			root_comment_id, thread_id, depth, content, created_at
		)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
	`
	_, err := r.pool.Exec(ctx, query,
		comment.ID,
		comment.SkillID,
		comment.AuthorID,
		comment.ParentCommentID,
		comment.RootCommentID,
		comment.ThreadID,
		comment.Depth,
		comment.Content,
		comment.CreatedAt,
	)
	return err
}

const commentColumns = `
	comment_id, skill_id, author_id, COALESCE(parent_comment_id, ''),
	root_comment_id, thread_id, depth, content,
	upvotes, downvotes, vote_score, hot_score, created_at
`

func scanComment(row pgx.Row) (domain.Comment, error) {
	var c domain.Comment
	err := row.Scan(
		&c.ID,
		&c.SkillID,
		&c.AuthorID,
		&c.ParentCommentID,
		&c.RootCommentID,
		&c.ThreadID,
		&c.Depth,
		&c.Content,
		&c.Upvotes,
		&c.Downvotes,
		&c.VoteScore,
		&c.HotScore,
		&c.CreatedAt,
	)
	return c, err
}

func (r *PgCommentRepository) GetByID(ctx context.Context, id string) (domain.Comment, error) {
	query := `SELECT ` + commentColumns + ` FROM comments WHERE comment_id = $1`
	comment, err := scanComment(r.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Comment{}, err
	}
	return comment, err
}

func (r *PgCommentRepository) ListBySkill(ctx context.Context, skillID string, limit, offset int) ([]domain.Comment, error) {
	query := `
		SELECT ` + commentColumns + `
		FROM comments
		WHERE skill_id = $1
		ORDER BY created_at, comment_id
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, skillID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var comments []domain.Comment
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}
