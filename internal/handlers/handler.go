package handlers

import (
	"support-chat-service/internal/auth"
	"support-chat-service/internal/presence"
	"support-chat-service/internal/repositories"
	"support-chat-service/internal/telemetry"
	"support-chat-service/internal/ws"
)

// ChatHandler implements ws.EventHandler on top of the repositories,
// the presence tracker and the hub.
type ChatHandler struct {
	users         repositories.UserRepository
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	verifier      auth.TokenVerifier
	presence      *presence.Tracker
	hub           *ws.Hub
	audit         *telemetry.AuditEmitter
}

func NewChatHandler(
	users repositories.UserRepository,
	conversations repositories.ConversationRepository,
	messages repositories.MessageRepository,
	verifier auth.TokenVerifier,
	presence *presence.Tracker,
	hub *ws.Hub,
	audit *telemetry.AuditEmitter,
) *ChatHandler {
	return &ChatHandler{
		users:         users,
		conversations: conversations,
		messages:      messages,
		verifier:      verifier,
		presence:      presence,
		hub:           hub,
		audit:         audit,
	}
}

var _ ws.EventHandler = (*ChatHandler)(nil)
