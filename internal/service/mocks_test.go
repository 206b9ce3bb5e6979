package service

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"skills-arena/internal/domain"
	"skills-arena/internal/repository"
)

// Mocks en memoria compartidos por los tests del paquete.

type mockIdentity struct {
	agents map[string]domain.Agent // token -> agente
}

func newMockIdentity() *mockIdentity {
	return &mockIdentity{agents: make(map[string]domain.Agent)}
}

func (m *mockIdentity) add(token string, agent domain.Agent) {
	m.agents[token] = agent
}

func (m *mockIdentity) Resolve(_ context.Context, token string) (domain.Agent, error) {
	agent, ok := m.agents[token]
	if !ok {
		return domain.Agent{}, ErrAgentNotFound
	}
	return agent, nil
}

// memVoteRepo replica la semántica del repositorio de votos sobre mapas:
// ledger por (agente, target) y contadores por target.
type memVoteRepo struct {
	targets map[string]bool
	states  map[string]domain.VoteState
	counts  map[string]domain.TargetCounts
}

func newMemVoteRepo() *memVoteRepo {
	return &memVoteRepo{
		targets: make(map[string]bool),
		states:  make(map[string]domain.VoteState),
		counts:  make(map[string]domain.TargetCounts),
	}
}

func (m *memVoteRepo) addTarget(targetType, targetID string) {
	m.targets[targetType+"|"+targetID] = true
}

func (m *memVoteRepo) ApplyTransition(_ context.Context, agentID, targetType, targetID, action string) (domain.TargetCounts, domain.VoteTransition, error) {
	targetKey := targetType + "|" + targetID
	if !m.targets[targetKey] {
		return domain.TargetCounts{}, domain.VoteTransition{}, pgx.ErrNoRows
	}

	ledgerKey := agentID + "|" + targetKey
	transition := domain.ApplyVoteAction(m.states[ledgerKey], action)
	if !transition.NoOp {
		if transition.Next == domain.VoteNone {
			delete(m.states, ledgerKey)
		} else {
			m.states[ledgerKey] = transition.Next
		}
		counts := m.counts[targetKey]
		counts.Upvotes += transition.Delta.Upvotes
		counts.Downvotes += transition.Delta.Downvotes
		counts.VoteScore += transition.Delta.Score
		m.counts[targetKey] = counts
	}
	return m.counts[targetKey], transition, nil
}

// mockSkillRepo respalda upload, feed y leaderboard sin base de datos.
type mockSkillRepo struct {
	skills    map[string]domain.Skill // por ID
	byHash    map[string]string       // hash -> ID
	feedItems []domain.SkillSummary
	feedErr   error
	feedCalls int
}

func newMockSkillRepo() *mockSkillRepo {
	return &mockSkillRepo{
		skills: make(map[string]domain.Skill),
		byHash: make(map[string]string),
	}
}

func (m *mockSkillRepo) add(skill domain.Skill) {
	m.skills[skill.ID] = skill
	m.byHash[skill.ContentHash] = skill.ID
}

func (m *mockSkillRepo) Create(_ context.Context, skill domain.Skill) error {
	if _, ok := m.byHash[skill.ContentHash]; ok {
		return &pgconn.PgError{Code: "23505", ConstraintName: "skills_content_hash_key"}
	}
	m.add(skill)
	return nil
}

func (m *mockSkillRepo) GetByID(_ context.Context, id string) (domain.Skill, error) {
	skill, ok := m.skills[id]
	if !ok {
		return domain.Skill{}, pgx.ErrNoRows
	}
	return skill, nil
}

func (m *mockSkillRepo) GetByHash(_ context.Context, contentHash string) (domain.Skill, error) {
	id, ok := m.byHash[contentHash]
	if !ok {
		return domain.Skill{}, pgx.ErrNoRows
	}
	return m.skills[id], nil
}

func (m *mockSkillRepo) ExistsNameVersion(_ context.Context, name, version string) (string, bool, error) {
	for id, skill := range m.skills {
		if skill.Name == name && skill.Version == version {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (m *mockSkillRepo) AddUploader(_ context.Context, skillID, uploaderDID string) (int, error) {
	skill, ok := m.skills[skillID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	for _, did := range skill.Uploaders {
		if did == uploaderDID {
			return skill.UploaderCount, nil
		}
	}
	skill.Uploaders = append(skill.Uploaders, uploaderDID)
	skill.UploaderCount = len(skill.Uploaders)
	m.skills[skillID] = skill
	return skill.UploaderCount, nil
}

func (m *mockSkillRepo) Feed(_ context.Context, q repository.FeedQuery) ([]domain.SkillSummary, error) {
	m.feedCalls++
	if m.feedErr != nil {
		return nil, m.feedErr
	}
	return m.feedItems, nil
}

func (m *mockSkillRepo) Leaderboard(_ context.Context, category string, limit int) ([]domain.SkillSummary, error) {
	m.feedCalls++
	if m.feedErr != nil {
		return nil, m.feedErr
	}
	if limit > len(m.feedItems) {
		limit = len(m.feedItems)
	}
	return m.feedItems[:limit], nil
}

// mockReviewRepo mantiene reviews por (skill, agente) y recalcula la media
// ponderada con redondeo a 2 decimales, igual que el SQL.
type mockReviewRepo struct {
	reviews map[string]domain.Review // skillID|agentID
	times   []time.Time              // más recientes primero
}

func newMockReviewRepo() *mockReviewRepo {
	return &mockReviewRepo{reviews: make(map[string]domain.Review)}
}

func (m *mockReviewRepo) Submit(_ context.Context, review domain.Review) (domain.SkillRating, error) {
	key := review.SkillID + "|" + review.AgentID
	if _, ok := m.reviews[key]; ok {
		return domain.SkillRating{}, &pgconn.PgError{Code: "23505", ConstraintName: "reviews_skill_id_agent_id_key"}
	}
	m.reviews[key] = review

	var weighted, total float64
	var count int
	for _, r := range m.reviews {
		if r.SkillID != review.SkillID {
			continue
		}
		weighted += r.Rating * r.Weight
		total += r.Weight
		count++
	}
	rating := 0.0
	if total > 0 {
		rating = math.Round(weighted/total*100) / 100
	}
	return domain.SkillRating{Rating: rating, ReviewsCount: count}, nil
}

func (m *mockReviewRepo) ExistsForAgent(_ context.Context, skillID, agentID string) (bool, error) {
	_, ok := m.reviews[skillID+"|"+agentID]
	return ok, nil
}

func (m *mockReviewRepo) RecentTimesByAgent(_ context.Context, _ string, limit int) ([]time.Time, error) {
	if limit > len(m.times) {
		limit = len(m.times)
	}
	return m.times[:limit], nil
}

// mockUsageRepo acumula uso por (skill, agente).
type mockUsageRepo struct {
	totals  map[string]int // skillID|agentID
	records []domain.UsageRecord
	skills  map[string]bool
}

func newMockUsageRepo() *mockUsageRepo {
	return &mockUsageRepo{
		totals: make(map[string]int),
		skills: make(map[string]bool),
	}
}

func (m *mockUsageRepo) setTotal(skillID, agentID string, total int) {
	m.skills[skillID] = true
	m.totals[skillID+"|"+agentID] = total
}

func (m *mockUsageRepo) Append(_ context.Context, rec domain.UsageRecord) (repository.SkillUsageTotals, error) {
	if !m.skills[rec.SkillID] {
		return repository.SkillUsageTotals{}, pgx.ErrNoRows
	}
	m.records = append(m.records, rec)
	m.totals[rec.SkillID+"|"+rec.AgentID] += rec.UsageCount

	var totals repository.SkillUsageTotals
	for _, r := range m.records {
		if r.SkillID != rec.SkillID {
			continue
		}
		totals.UsageCount += r.UsageCount
		totals.TotalTime += r.TotalTime
	}
	if totals.UsageCount > 0 {
		totals.AvgResponseTime = totals.TotalTime / float64(totals.UsageCount)
	}
	return totals, nil
}

func (m *mockUsageRepo) TotalForAgent(_ context.Context, skillID, agentID string) (int, error) {
	return m.totals[skillID+"|"+agentID], nil
}

// mockRankingRepo registra los scores que persiste el refresh. El refresh
// escribe desde varias goroutines, así que el mapa va bajo mutex.
type mockRankingRepo struct {
	targets []repository.RankableTarget
	listErr error

	mu     sync.Mutex
	scores map[string]float64
}

func newMockRankingRepo() *mockRankingRepo {
	return &mockRankingRepo{scores: make(map[string]float64)}
}

func (m *mockRankingRepo) ListVisibleTargets(_ context.Context) ([]repository.RankableTarget, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.targets, nil
}

func (m *mockRankingRepo) UpdateHotScore(_ context.Context, targetType, targetID string, score float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.scores[targetType+"|"+targetID] = score
	return nil
}

func (m *mockRankingRepo) score(targetType, targetID string) (float64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	got, ok := m.scores[targetType+"|"+targetID]
	return got, ok
}

// mockAgentRepo respalda registro y resolución de agentes.
type mockAgentRepo struct {
	byDID     map[string]domain.Agent
	usernames map[string]bool
}

func newMockAgentRepo() *mockAgentRepo {
	return &mockAgentRepo{
		byDID:     make(map[string]domain.Agent),
		usernames: make(map[string]bool),
	}
}

func (m *mockAgentRepo) Create(_ context.Context, agent domain.Agent) error {
	if m.usernames[agent.Username] {
		return &pgconn.PgError{Code: "23505", ConstraintName: "agents_username_key"}
	}
	m.byDID[agent.DID] = agent
	m.usernames[agent.Username] = true
	return nil
}

func (m *mockAgentRepo) GetByDID(_ context.Context, did string) (domain.Agent, error) {
	agent, ok := m.byDID[did]
	if !ok {
		return domain.Agent{}, pgx.ErrNoRows
	}
	return agent, nil
}

func (m *mockAgentRepo) TouchLastActive(_ context.Context, did string, at time.Time) error {
	if agent, ok := m.byDID[did]; ok {
		agent.LastActiveAt = &at
		m.byDID[did] = agent
	}
	return nil
}

// mockCommentRepo guarda comentarios por ID y por skill.
type mockCommentRepo struct {
	comments map[string]domain.Comment
	order    []string
}

func newMockCommentRepo() *mockCommentRepo {
	return &mockCommentRepo{comments: make(map[string]domain.Comment)}
}

func (m *mockCommentRepo) Create(_ context.Context, comment domain.Comment) error {
	m.comments[comment.ID] = comment
	m.order = append(m.order, comment.ID)
	return nil
}

func (m *mockCommentRepo) GetByID(_ context.Context, id string) (domain.Comment, error) {
	comment, ok := m.comments[id]
	if !ok {
		return domain.Comment{}, pgx.ErrNoRows
	}
	return comment, nil
}

func (m *mockCommentRepo) ListBySkill(_ context.Context, skillID string, limit, offset int) ([]domain.Comment, error) {
	var out []domain.Comment
	for _, id := range m.order {
		if c := m.comments[id]; c.SkillID == skillID {
			out = append(out, c)
		}
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// mapFeedCache es un FeedCache determinista para tests.
type mapFeedCache struct {
	pages map[string][]domain.SkillSummary
	hits  int
	sets  int
}

func newMapFeedCache() *mapFeedCache {
	return &mapFeedCache{pages: make(map[string][]domain.SkillSummary)}
}

func (m *mapFeedCache) Get(_ context.Context, key string) ([]domain.SkillSummary, bool) {
	items, ok := m.pages[key]
	if ok {
		m.hits++
	}
	return items, ok
}

func (m *mapFeedCache) Set(_ context.Context, key string, items []domain.SkillSummary) {
	m.sets++
	m.pages[key] = items
}
