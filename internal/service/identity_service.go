package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"skills-arena/internal/domain"
	"skills-arena/internal/repository"
)

// IdentityService resuelve tokens opacos a agentes registrados y maneja
// el alta de agentes con su DID.
type IdentityService struct {
	logger *zap.Logger
	agents repository.AgentRepository
	jwt    *JWTService
}

func NewIdentityService(logger *zap.Logger, agents repository.AgentRepository, jwt *JWTService) *IdentityService {
	return &IdentityService{
		logger: logger,
		agents: agents,
		jwt:    jwt,
	}
}

var (
	ErrAgentNotFound = errors.New("agent not found")
	ErrInvalidAgent  = errors.New("invalid agent data")
	ErrUsernameInUse = errors.New("username already in use")
	ErrInvalidToken  = errors.New("invalid identity token")
)

const didPrefix = "did:openclaw:"

// GenerateDID deriva el DID estable de una clave pública: sha256 en hex,
// truncado a 32 caracteres.
func GenerateDID(publicKey string) string {
	sum := sha256.Sum256([]byte(publicKey))
	return didPrefix + hex.EncodeToString(sum[:])[:32]
}

type RegisterAgentInput struct {
	PublicKey   string
	DID         string
	Username    string
	DisplayName string
	Bio         string
}

// Register da de alta un agente. Es idempotente sobre el DID: registrar un
// DID ya existente devuelve el agente registrado.
func (s *IdentityService) Register(ctx context.Context, input RegisterAgentInput) (domain.Agent, error) {
	did := strings.TrimSpace(input.DID)
	if did == "" && input.PublicKey != "" {
		did = GenerateDID(input.PublicKey)
	}
	username := strings.TrimSpace(input.Username)
	if did == "" || username == "" {
		return domain.Agent{}, ErrInvalidAgent
	}

	existing, err := s.agents.GetByDID(ctx, did)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return domain.Agent{}, err
	}

	agent := domain.Agent{
		ID:          uuid.NewString(),
		DID:         did,
		Username:    username,
		DisplayName: strings.TrimSpace(input.DisplayName),
		Bio:         strings.TrimSpace(input.Bio),
		CreatedAt:   time.Now().UTC(),
	}
	if err := s.agents.Create(ctx, agent); err != nil {
		if repository.IsUniqueViolation(err) {
			return domain.Agent{}, ErrUsernameInUse
		}
		return domain.Agent{}, err
	}

	s.logger.Info("agent registered",
		zap.String("did", agent.DID),
		zap.String("username", agent.Username),
	)
	return agent, nil
}

// IssueToken emite un bearer token para un agente ya registrado.
func (s *IdentityService) IssueToken(ctx context.Context, did string) (string, error) {
	agent, err := s.agents.GetByDID(ctx, did)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrAgentNotFound
		}
		return "", err
	}
	if s.jwt == nil {
		return "", fmt.Errorf("jwt service not configured")
	}
	return s.jwt.GenerateToken(agent)
}

// Resolve mapea un token opaco a un agente. Acepta un DID crudo (header
// X-Agent-DID, como el protocolo original) o un JWT firmado.
func (s *IdentityService) Resolve(ctx context.Context, token string) (domain.Agent, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return domain.Agent{}, ErrInvalidToken
	}

	did := token
	if !strings.HasPrefix(token, "did:") {
		if s.jwt == nil {
			return domain.Agent{}, ErrInvalidToken
		}
		claims, err := s.jwt.ParseToken(token)
		if err != nil {
			return domain.Agent{}, ErrInvalidToken
		}
		did = claims.DID
	}

	agent, err := s.agents.GetByDID(ctx, did)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Agent{}, ErrAgentNotFound
		}
		return domain.Agent{}, err
	}

	if err := s.agents.TouchLastActive(ctx, did, time.Now().UTC()); err != nil {
		s.logger.Warn("touch last active failed", zap.Error(err))
	}
	return agent, nil
}
