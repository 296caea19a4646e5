package db

import "time"

// AiSenderName is the sentinel sender identity for messages produced by
// the text-generation service.
const AiSenderName = "AI"

// AiMessagePrefix marks a message body as markdown-rendered AI content.
// This is a content convention, not a distinct message type.
const AiMessagePrefix = "**AI**:"

type ChatMessage struct {
	ID        int       `db:"id" json:"id"`
	ProjectID int       `db:"project_id" json:"project_id"`

	// UserID is nil for messages sent by the AI participant.
	UserID *int `db:"user_id" json:"user_id,omitempty"`

	// Sender is the display identity: the sender's email, or AiSenderName.
	Sender  string    `db:"sender" json:"sender"`
	Body    string    `db:"body" json:"body"`
	Created time.Time `db:"created" json:"created"`
}

func (message *ChatMessage) Validate() error {
	if message.Body == "" {
		return &ValidationError{"message body can not be empty"}
	}
	return nil
}
