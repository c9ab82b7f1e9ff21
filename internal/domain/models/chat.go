package models

import "time"

// Chat is a conversation within a project
type Chat struct {
	ID        string    `json:"id" db:"id"`
	ProjectID string    `json:"project_id" db:"project_id"`
	Title     string    `json:"title" db:"title"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// ChatWithMessages is a chat plus its ordered history
type ChatWithMessages struct {
	Chat
	Messages []Message `json:"messages"`
}

// Conversation is everything the orchestrator needs for one call:
// the chat, its project (for base instructions) and its ordered history.
type Conversation struct {
	Chat     *Chat
	Project  *Project
	Messages []Message
}
