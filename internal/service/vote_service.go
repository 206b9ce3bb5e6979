package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"skills-arena/internal/domain"
	"skills-arena/internal/repository"
)

// VoteService orquesta la máquina de estados de votos sobre skills y
// comentarios. La atomicidad ledger+contadores vive en el repositorio;
// acá van validación, resolución de identidad y traducción de errores.
type VoteService struct {
	logger   *zap.Logger
	identity identityResolver
	votes    repository.VoteRepository
}

// identityResolver es lo único que el voto necesita del resolver.
type identityResolver interface {
	Resolve(ctx context.Context, token string) (domain.Agent, error)
}

func NewVoteService(logger *zap.Logger, identity identityResolver, votes repository.VoteRepository) *VoteService {
	return &VoteService{
		logger:   logger,
		identity: identity,
		votes:    votes,
	}
}

var (
	ErrInvalidTargetType = errors.New("invalid target type")
	ErrInvalidAction     = errors.New("invalid vote action")
	ErrTargetNotFound    = errors.New("target not found")
	ErrTransient         = errors.New("transient storage conflict")
)

// VoteResult es el resultado de una operación de voto. Success=false sin
// error significa el soft-fail deliberado por identidad no resuelta: un
// voto de un caller no registrado no rompe el flujo que lo dispara.
type VoteResult struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Upvotes   int    `json:"upvotes"`
	Downvotes int    `json:"downvotes"`
	VoteScore int    `json:"vote_score"`
}

// Vote aplica una acción de voto de un agente sobre un target. Las
// transiciones son idempotentes: repetir la misma acción es un no-op que
// reporta su resultado sin tocar contadores.
func (s *VoteService) Vote(ctx context.Context, targetType, targetID, token, action string) (VoteResult, error) {
	if !domain.ValidTargetType(targetType) {
		return VoteResult{}, ErrInvalidTargetType
	}
	if !domain.ValidVoteAction(action) {
		return VoteResult{}, ErrInvalidAction
	}

	agent, err := s.identity.Resolve(ctx, token)
	if err != nil {
		if errors.Is(err, ErrAgentNotFound) || errors.Is(err, ErrInvalidToken) {
			return VoteResult{Success: false, Message: "Agent not found"}, nil
		}
		return VoteResult{}, err
	}

	counts, transition, err := s.votes.ApplyTransition(ctx, agent.ID, targetType, targetID, action)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return VoteResult{}, ErrTargetNotFound
		}
		if repository.IsTransient(err) {
			s.logger.Warn("vote transaction conflict exhausted retries",
				zap.String("target_id", targetID), zap.Error(err))
			return VoteResult{}, ErrTransient
		}
		return VoteResult{}, err
	}

	return VoteResult{
		Success:   true,
		Message:   transition.Message,
		Upvotes:   counts.Upvotes,
		Downvotes: counts.Downvotes,
		VoteScore: counts.VoteScore,
	}, nil
}

// HandleDuplicateUpload convierte una re-subida del mismo contenido en un
// upvote automático al skill canónico, reusando la misma máquina de
// estados. Así la re-subida cuenta como prueba social en vez de perderse.
func (s *VoteService) HandleDuplicateUpload(ctx context.Context, skillID, token string) (VoteResult, error) {
	return s.Vote(ctx, domain.TargetSkill, skillID, token, domain.VoteActionUpvote)
}
