package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"skills-arena/internal/domain"
	"skills-arena/internal/repository"
)

// CommentService crea comentarios y replies planos con bookkeeping de
// parent/root/thread/depth. Los comentarios son targets votables.
type CommentService struct {
	logger   *zap.Logger
	identity identityResolver
	skills   repository.SkillRepository
	comments repository.CommentRepository
}

func NewCommentService(logger *zap.Logger, identity identityResolver, skills repository.SkillRepository, comments repository.CommentRepository) *CommentService {
	return &CommentService{
		logger:   logger,
		identity: identity,
		skills:   skills,
		comments: comments,
	}
}

var (
	ErrEmptyComment   = errors.New("comment content cannot be empty")
	ErrParentNotFound = errors.New("parent comment not found")
)

type CommentResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	CommentID string `json:"comment_id,omitempty"`
	Depth     int    `json:"depth"`
}

// AddComment agrega un comentario o reply a un skill. Igual que los votos,
// una identidad no resuelta degrada a soft-fail.
func (s *CommentService) AddComment(ctx context.Context, skillID, token, content, parentCommentID string) (CommentResult, error) {
	if strings.TrimSpace(content) == "" {
		return CommentResult{}, ErrEmptyComment
	}

	agent, err := s.identity.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrAgentNotFound) || errors.Is(err, ErrInvalidToken) {
			return CommentResult{Success: false, Message: "Agent not found"}, nil
		}
		return CommentResult{}, err
	}

	if _, err := s.skills.GetByID(ctx, skillID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return CommentResult{}, ErrSkillNotFound
		}
		return CommentResult{}, err
	}

	comment := domain.Comment{
		ID:        "comment-" + uuid.NewString(),
		SkillID:   skillID,
		AuthorID:  agent.ID,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	}

	if parentCommentID != "" {
		parent, err := s.comments.GetByID(ctx, parentCommentID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return CommentResult{}, ErrParentNotFound
			}
			return CommentResult{}, err
		}
		comment.ParentCommentID = parent.ID
		comment.Depth = parent.Depth + 1
		comment.RootCommentID = parent.RootCommentID
		comment.ThreadID = parent.ThreadID
	} else {
		// Top-level: el comment encabeza su propio thread.
		comment.RootCommentID = comment.ID
		comment.ThreadID = comment.ID
	}

	if err := s.comments.Create(ctx, comment); err != nil {
		return CommentResult{}, err
	}

	return CommentResult{
		Success:   true,
		Message:   "Comment added",
		CommentID: comment.ID,
		Depth:     comment.Depth,
	}, nil
}

// ListComments devuelve los comentarios de un skill en orden de creación.
func (s *CommentService) ListComments(ctx context.Context, skillID string, limit, offset int) ([]domain.Comment, error) {
	limit, offset = clampPage(limit, offset)
	return s.comments.ListBySkill(ctx, skillID, limit, offset)
}
