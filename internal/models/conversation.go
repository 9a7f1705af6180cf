package models

import (
	"database/sql"
	"time"
)

// Sender roles. Every message and unread counter is keyed by one of these.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// OpposingRole returns the other side of a two-party conversation.
func OpposingRole(role string) string {
	if role == RoleAdmin {
		return RoleUser
	}
	return RoleAdmin
}

// SnippetLimit bounds the denormalized last-message preview.
const SnippetLimit = 100

// Snippet truncates message content for the conversation summary.
func Snippet(content string) string {
	runes := []rune(content)
	if len(runes) <= SnippetLimit {
		return content
	}
	return string(runes[:SnippetLimit])
}

// Conversation pairs exactly one guest with the admin pool. The
// participant uniqueness constraint in the schema enforces the 1:1
// invariant. Unread counters count messages the other role has not yet
// acknowledged via a read event.
type Conversation struct {
	ID                 string         `db:"id"`
	ParticipantID      string         `db:"participant_id"`
	LastMessageContent sql.NullString `db:"last_message_content"`
	LastMessageAt      sql.NullTime   `db:"last_message_at"`
	LastMessageSender  sql.NullString `db:"last_message_sender"`
	UnreadAdmin        int            `db:"unread_admin"`
	UnreadUser         int            `db:"unread_user"`
	IsActive           bool           `db:"is_active"`
	CreatedAt          time.Time      `db:"created_at"`
	UpdatedAt          time.Time      `db:"updated_at"`
}
