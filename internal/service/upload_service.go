package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"skills-arena/internal/domain"
	"skills-arena/internal/repository"
)

// UploadService registra skills deduplicando por hash de contenido. Una
// re-subida del mismo contenido por otra identidad suma al uploader y
// dispara el upvote automático al skill canónico.
type UploadService struct {
	logger   *zap.Logger
	identity identityResolver
	skills   repository.SkillRepository
	votes    *VoteService
}

func NewUploadService(logger *zap.Logger, identity identityResolver, skills repository.SkillRepository, votes *VoteService) *UploadService {
	return &UploadService{
		logger:   logger,
		identity: identity,
		skills:   skills,
		votes:    votes,
	}
}

var (
	ErrInvalidSkill    = errors.New("invalid skill metadata")
	ErrVersionConflict = errors.New("same name and version already exists with different content")
)

// Estados de un publish.
const (
	UploadStatusCreated   = "created"
	UploadStatusDuplicate = "duplicate"
)

type SkillUploadInput struct {
	Name        string
	Description string
	Version     string
	Community   string
	Content     []byte
}

type UploadResult struct {
	SkillID       string      `json:"skill_id"`
	Status        string      `json:"status"`
	ContentHash   string      `json:"hash"`
	UploaderCount int         `json:"uploader_count"`
	Vote          *VoteResult `json:"vote,omitempty"`
}

// ContentHash calcula el SHA-256 del bundle, la clave de deduplicación.
func ContentHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

// slugify normaliza el nombre para usarlo en el ID del skill, que viaja
// como path parameter: minúsculas y guiones, nada de espacios ni barras.
func slugify(name string) string {
	var b strings.Builder
	lastDash := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

// Publish registra un skill nuevo o resuelve la re-subida de uno existente.
func (s *UploadService) Publish(ctx context.Context, token string, input SkillUploadInput) (UploadResult, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || len(input.Content) == 0 {
		return UploadResult{}, ErrInvalidSkill
	}
	version := strings.TrimSpace(input.Version)
	if version == "" {
		version = "1.0.0"
	}

	agent, err := s.identity.Resolve(ctx, token)
	if err != nil {
		return UploadResult{}, err
	}

	hash := ContentHash(input.Content)

	existing, err := s.skills.GetByHash(ctx, hash)
	if err == nil {
		return s.handleDuplicate(ctx, existing, agent.DID, token)
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return UploadResult{}, err
	}

	// Mismo nombre y versión con contenido distinto es un conflicto que el
	// uploader tiene que resolver subiendo otra versión.
	if conflictID, found, err := s.skills.ExistsNameVersion(ctx, name, version); err != nil {
		return UploadResult{}, err
	} else if found {
		return UploadResult{}, fmt.Errorf("%w: %s", ErrVersionConflict, conflictID)
	}

	skill := domain.Skill{
		ID:            fmt.Sprintf("skill-%s-%s", slugify(name), hash[:8]),
		Name:          name,
		Description:   strings.TrimSpace(input.Description),
		Version:       version,
		ContentHash:   hash,
		UploaderDID:   agent.DID,
		Uploaders:     []string{agent.DID},
		UploaderCount: 1,
		Community:     strings.TrimSpace(input.Community),
		Visibility:    domain.VisibilityPublic,
		Status:        domain.SkillStatusPendingValidation,
		FileSize:      int64(len(input.Content)),
		CreatedAt:     time.Now().UTC(),
	}
	if err := s.skills.Create(ctx, skill); err != nil {
		if repository.IsUniqueViolation(err) {
			// Otro uploader ganó la carrera con el mismo contenido.
			if existing, getErr := s.skills.GetByHash(ctx, hash); getErr == nil {
				return s.handleDuplicate(ctx, existing, agent.DID, token)
			}
		}
		return UploadResult{}, err
	}

	s.logger.Info("skill published",
		zap.String("skill_id", skill.ID),
		zap.String("uploader_did", agent.DID),
	)
	return UploadResult{
		SkillID:       skill.ID,
		Status:        UploadStatusCreated,
		ContentHash:   hash,
		UploaderCount: 1,
	}, nil
}

func (s *UploadService) handleDuplicate(ctx context.Context, existing domain.Skill, uploaderDID, token string) (UploadResult, error) {
	count, err := s.skills.AddUploader(ctx, existing.ID, uploaderDID)
	if err != nil {
		return UploadResult{}, err
	}

	// La re-subida se traduce en prueba social por la misma máquina de
	// estados de votos; su soft-fail también aplica acá.
	vote, err := s.votes.HandleDuplicateUpload(ctx, existing.ID, token)
	if err != nil {
		return UploadResult{}, err
	}

	return UploadResult{
		SkillID:       existing.ID,
		Status:        UploadStatusDuplicate,
		ContentHash:   existing.ContentHash,
		UploaderCount: count,
		Vote:          &vote,
	}, nil
}
