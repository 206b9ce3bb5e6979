package domain

import "time"

const (
	SkillStatusPendingValidation = "pending_validation"
	SkillStatusValidated         = "validated"

	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// Skill es el registro canónico de un bundle subido, deduplicado por hash
// de contenido. Los contadores (upvotes, downvotes, vote_score, rating,
// reviews_count, usage_count) son denormalizados y solo mutan dentro de la
// transacción que escribe el voto/review/uso que los dispara.
type Skill struct {
	ID            string    `json:"skill_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Version       string    `json:"version"`
	ContentHash   string    `json:"hash"`
	UploaderDID   string    `json:"uploader_did,omitempty"`
	Uploaders     []string  `json:"uploaders"`
	UploaderCount int       `json:"uploader_count"`
	Community     string    `json:"community,omitempty"`
	Visibility    string    `json:"visibility"`
	Status        string    `json:"status"`
	FileSize      int64     `json:"file_size"`
	Upvotes       int       `json:"upvotes"`
	Downvotes     int       `json:"downvotes"`
	VoteScore     int       `json:"vote_score"`
	HotScore      float64   `json:"hot_score"`
	Rating        float64   `json:"rating"`
	ReviewsCount  int       `json:"reviews_count"`
	UsageCount    int       `json:"usage_count"`
	TotalTime     float64   `json:"total_usage_time"`
	CreatedAt     time.Time `json:"created_at"`
}

// SkillSummary es la vista que devuelven feeds y leaderboards.
type SkillSummary struct {
	ID            string    `json:"skill_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Version       string    `json:"version"`
	Community     string    `json:"community,omitempty"`
	Upvotes       int       `json:"upvotes"`
	Downvotes     int       `json:"downvotes"`
	VoteScore     int       `json:"vote_score"`
	HotScore      float64   `json:"hot_score"`
	Rating        float64   `json:"rating"`
	ReviewsCount  int       `json:"reviews_count"`
	UsageCount    int       `json:"usage_count"`
	UploaderCount int       `json:"uploader_count"`
	UploaderName  string    `json:"uploader_name,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	Rank          int       `json:"rank,omitempty"`
	OverallScore  float64   `json:"overall_score,omitempty"`
}
