package handlers

import (
	"context"

	"support-chat-service/internal/protocol"
	"support-chat-service/internal/ws"
)

// typingName resolves the display name broadcast with a typing start.
// Guests fall back to a generic label when the lookup fails.
func (h *ChatHandler) typingName(ctx context.Context, sess *ws.Session) string {
	if sess.Identity.Role == ws.RoleAdmin {
		return "Admin"
	}
	user, err := h.users.FindByID(ctx, sess.Identity.UserID)
	if err != nil || user.Name == "" {
		return "User"
	}
	return user.Name
}

// TypingStart relays a typing indicator to everyone else in the
// conversation. Indicators are transient and never persisted.
func (h *ChatHandler) TypingStart(ctx context.Context, c ws.Conn, conversationID string) {
	sess := c.Session()
	if !sess.Authenticated() {
		return
	}
	h.hub.Publish(ws.ConversationChannel(conversationID), protocol.EventUserTyping, protocol.TypingPayload{
		ConversationID: conversationID,
		UserID:         sess.Identity.UserID,
		UserName:       h.typingName(ctx, sess),
	}, c)
}

// TypingStop relays the stop signal. The name field stays empty; stop
// events identify the typist by id alone.
func (h *ChatHandler) TypingStop(ctx context.Context, c ws.Conn, conversationID string) {
	sess := c.Session()
	if !sess.Authenticated() {
		return
	}
	h.hub.Publish(ws.ConversationChannel(conversationID), protocol.EventUserStopTyping, protocol.TypingPayload{
		ConversationID: conversationID,
		UserID:         sess.Identity.UserID,
	}, c)
}
