package models

import "time"

// Message roles understood by the orchestrator. Any other value is stored
// as-is but left out of the prompt.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single entry in a chat's history.
// Order within a chat is (CreatedAt, Sequence) ascending; Sequence is
// assigned per chat at insert time and breaks timestamp ties.
type Message struct {
	ID        string    `json:"id" db:"id"`
	ChatID    string    `json:"chat_id" db:"chat_id"`
	Sequence  int64     `json:"sequence" db:"sequence"`
	Role      string    `json:"role" db:"role"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
