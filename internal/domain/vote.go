package domain

import "time"

// Tipos de target votables.
const (
	TargetSkill   = "skill"
	TargetComment = "comment"
)

// Acciones de voto aceptadas.
const (
	VoteActionUpvote   = "upvote"
	VoteActionDownvote = "downvote"
	VoteActionCancel   = "cancel"
)

// VoteState es el estado actual de un (agente, target) en el ledger.
type VoteState string

const (
	VoteNone      VoteState = ""
	VoteUpvoted   VoteState = "upvote"
	VoteDownvoted VoteState = "downvote"
)

// Vote es la fila del ledger: como máximo una por (agente, target).
type Vote struct {
	AgentID    string    `json:"agent_id"`
	TargetType string    `json:"target_type"`
	TargetID   string    `json:"target_id"`
	VoteType   VoteState `json:"vote_type"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// VoteDelta es el ajuste de contadores que produce una transición.
// Siempre cumple Score == Upvotes - Downvotes.
type VoteDelta struct {
	Upvotes   int
	Downvotes int
	Score     int
}

// VoteTransition describe el resultado de aplicar una acción sobre el
// estado actual del ledger.
type VoteTransition struct {
	Next    VoteState
	Delta   VoteDelta
	NoOp    bool
	Message string
}

// ApplyVoteAction resuelve la máquina de estados de votos. Es pura: el
// aggregator la ejecuta dentro de la transacción que serializa ledger y
// contadores. Las transiciones no-op (repetir el mismo voto, cancelar sin
// voto previo) devuelven delta cero y un mensaje informativo.
func ApplyVoteAction(current VoteState, action string) VoteTransition {
	switch action {
	case VoteActionUpvote:
		switch current {
		case VoteUpvoted:
			return VoteTransition{Next: VoteUpvoted, NoOp: true, Message: "Already upvoted"}
		case VoteDownvoted:
			return VoteTransition{
				Next:    VoteUpvoted,
				Delta:   VoteDelta{Upvotes: 1, Downvotes: -1, Score: 2},
				Message: "Changed from downvote to upvote",
			}
		default:
			return VoteTransition{
				Next:    VoteUpvoted,
				Delta:   VoteDelta{Upvotes: 1, Score: 1},
				Message: "Successfully upvoted",
			}
		}
	case VoteActionDownvote:
		switch current {
		case VoteDownvoted:
			return VoteTransition{Next: VoteDownvoted, NoOp: true, Message: "Already downvoted"}
		case VoteUpvoted:
			return VoteTransition{
				Next:    VoteDownvoted,
				Delta:   VoteDelta{Upvotes: -1, Downvotes: 1, Score: -2},
				Message: "Changed from upvote to downvote",
			}
		default:
			return VoteTransition{
				Next:    VoteDownvoted,
				Delta:   VoteDelta{Downvotes: 1, Score: -1},
				Message: "Successfully downvoted",
			}
		}
	default: // cancel
		switch current {
		case VoteUpvoted:
			return VoteTransition{
				Next:    VoteNone,
				Delta:   VoteDelta{Upvotes: -1, Score: -1},
				Message: "Vote cancelled",
			}
		case VoteDownvoted:
			return VoteTransition{
				Next:    VoteNone,
				Delta:   VoteDelta{Downvotes: -1, Score: 1},
				Message: "Vote cancelled",
			}
		default:
			return VoteTransition{Next: VoteNone, NoOp: true, Message: "No vote to cancel"}
		}
	}
}

// ValidTargetType reporta si el tipo de target es votable.
func ValidTargetType(targetType string) bool {
	return targetType == TargetSkill || targetType == TargetComment
}

// ValidVoteAction reporta si la acción de voto es conocida.
func ValidVoteAction(action string) bool {
	return action == VoteActionUpvote || action == VoteActionDownvote || action == VoteActionCancel
}

// TargetCounts son los contadores denormalizados de un target después de
// aplicar una transición.
type TargetCounts struct {
	Upvotes   int `json:"upvotes"`
	Downvotes int `json:"downvotes"`
	VoteScore int `json:"vote_score"`
}
