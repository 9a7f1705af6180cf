package protocol

import (
	"time"

	"support-chat-service/internal/models"
)

// UserJoinPayload authenticates a guest connection.
type UserJoinPayload struct {
	SessionToken string `json:"sessionToken"`
}

// AdminJoinPayload authenticates a staff connection.
type AdminJoinPayload struct {
	Token string `json:"token"`
}

// SendMessagePayload creates a message in a conversation.
type SendMessagePayload struct {
	ConversationID string               `json:"conversationId"`
	Content        string               `json:"content"`
	Media          *models.MessageMedia `json:"media,omitempty"`
}

// ReactPayload toggles the sender's emoji reaction on a message.
type ReactPayload struct {
	MessageID string `json:"messageId"`
	Emoji     string `json:"emoji"`
}

// UserJoinAck answers user:join.
type UserJoinAck struct {
	Success bool               `json:"success"`
	User    *models.PublicUser `json:"user,omitempty"`
	Error   string             `json:"error,omitempty"`
}

// AdminJoinAck answers admin:join. It deliberately carries no identity
// payload.
type AdminJoinAck struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// SendAck answers message:send.
type SendAck struct {
	Success bool                `json:"success"`
	Message *models.MessageView `json:"message,omitempty"`
	Error   string              `json:"error,omitempty"`
}

// ReactAck answers message:react with the full resulting reaction list.
type ReactAck struct {
	Success   bool              `json:"success"`
	Reactions []models.Reaction `json:"reactions,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// UserStatusPayload announces presence changes to admins. LastSeen is
// only set on the offline transition.
type UserStatusPayload struct {
	UserID   string     `json:"userId"`
	LastSeen *time.Time `json:"lastSeen,omitempty"`
}

// TypingPayload relays a typing indicator inside a conversation.
type TypingPayload struct {
	ConversationID string `json:"conversationId"`
	UserID         string `json:"userId"`
	UserName       string `json:"userName"`
}

// MessageReadPayload announces that one side caught up on a
// conversation.
type MessageReadPayload struct {
	ConversationID string `json:"conversationId"`
	ReadBy         string `json:"readBy"`
	ReadByType     string `json:"readByType"`
}

// ReactionPayload carries the full reaction state of a message after a
// toggle.
type ReactionPayload struct {
	MessageID string            `json:"messageId"`
	Reactions []models.Reaction `json:"reactions"`
}
