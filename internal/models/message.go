package models

import (
	"time"

	"github.com/google/uuid"
)

// MessageRole identifies who produced a message. Maps to the generation
// provider's own role vocabulary at the AI gateway boundary, not here.
type MessageRole string

const (
	RoleUser   MessageRole = "user"
	RoleAi     MessageRole = "ai"
	RoleSystem MessageRole = "system"
)

// Message is one turn of chat history, belonging to exactly one chatmate.
// Append-only; history is always read back in ascending timestamp order.
type Message struct {
	ID         uuid.UUID   `db:"id"`
	ChatmateID uuid.UUID   `db:"chatmate_id"`
	Role       MessageRole `db:"role"`
	Content    string      `db:"content"`
	CreatedAt  time.Time   `db:"created_at"`
}
