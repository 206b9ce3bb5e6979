package domain

import "time"

// Review es inmutable una vez creada: como máximo una por (agente, skill).
// Weight queda congelado con el uso registrado al momento de la review.
type Review struct {
	ID         string    `json:"review_id"`
	SkillID    string    `json:"skill_id"`
	AgentID    string    `json:"agent_id"`
	Rating     float64   `json:"rating"`
	Comment    string    `json:"comment,omitempty"`
	UsageCount int       `json:"usage_count"`
	Weight     float64   `json:"weight"`
	CreatedAt  time.Time `json:"timestamp"`
}

// UsageRecord es una entrada append-only del log de uso de un skill por un
// agente. Nunca se muta ni se borra; la suma de UsageCount por
// (agente, skill) es el uso total que habilita y pondera reviews.
type UsageRecord struct {
	ID              string    `json:"id"`
	SkillID         string    `json:"skill_id"`
	AgentID         string    `json:"agent_id"`
	UsageCount      int       `json:"usage_count"`
	TotalTime       float64   `json:"total_time"`
	AvgResponseTime float64   `json:"avg_response_time"`
	SuccessRate     float64   `json:"success_rate"`
	CreatedAt       time.Time `json:"timestamp"`
}

// SkillRating es el agregado público de reviews de un skill.
type SkillRating struct {
	Rating       float64 `json:"rating"`
	ReviewsCount int     `json:"reviews_count"`
}
