package domain

import "time"

// Comment es un comentario plano con referencias parent/root/thread,
// votable igual que un Skill.
type Comment struct {
	ID              string    `json:"comment_id"`
	SkillID         string    `json:"skill_id"`
	AuthorID        string    `json:"author_id"`
	ParentCommentID string    `json:"parent_comment_id,omitempty"`
	RootCommentID   string    `json:"root_comment_id"`
	ThreadID        string    `json:"thread_id"`
	Depth           int       `json:"depth"`
	Content         string    `json:"content"`
	Upvotes         int       `json:"upvotes"`
	Downvotes       int       `json:"downvotes"`
	VoteScore       int       `json:"vote_score"`
	HotScore        float64   `json:"hot_score"`
	CreatedAt       time.Time `json:"created_at"`
}
