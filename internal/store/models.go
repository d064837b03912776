package store

import "time"

const (
	RoleUser  = "user"
	RoleModel = "model"
)

type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	CreatedAt    time.Time `json:"created_at"`
}

// Message is one entry in a conversation's log. Messages are append-only,
// never edited or removed.
type Message struct {
	Role  string   `json:"role"` // "user" or "model"
	Parts []string `json:"parts"`
}

type Conversation struct {
	ID        string    `json:"id"` // UUID
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ConversationSummary is the id/title projection used by the list view.
type ConversationSummary struct {
	ID    string `json:"id"`
	Title string `json:"title"`
}
