package handlers

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"support-chat-service/internal/protocol"
	"support-chat-service/internal/repositories"
	"support-chat-service/internal/ws"
)

// UserJoin authenticates a guest by session token, marks it online and
// announces presence to the admin room.
func (h *ChatHandler) UserJoin(ctx context.Context, c ws.Conn, p protocol.UserJoinPayload) protocol.UserJoinAck {
	user, err := h.users.FindBySessionToken(ctx, p.SessionToken)
	if err != nil {
		if errors.Is(err, repositories.ErrUserNotFound) {
			return protocol.UserJoinAck{Error: "Invalid session token"}
		}
		zap.S().Errorw("user join failed", "conn_id", c.ID(), "error", err)
		return protocol.UserJoinAck{Error: "Failed to join"}
	}

	seenAt, err := h.presence.MarkOnline(ctx, user.ID, c.ID())
	if err != nil {
		zap.S().Errorw("user join failed", "conn_id", c.ID(), "user_id", user.ID, "error", err)
		return protocol.UserJoinAck{Error: "Failed to join"}
	}

	sess := c.Session()
	sess.Identity = ws.Identity{Role: ws.RoleUser, UserID: user.ID}
	sess.SessionToken = p.SessionToken
	h.hub.Subscribe(ws.UserChannel(user.ID), c)

	h.hub.Publish(ws.AdminRoom, protocol.EventUserOnline, protocol.UserStatusPayload{UserID: user.ID}, c)
	h.audit.Emit(ctx, "user_join", c.ID(), &user.ID, nil)
	zap.S().Infow("user joined", "conn_id", c.ID(), "user_id", user.ID)

	public := user.Public()
	public.IsOnline = true
	public.LastSeen = seenAt
	return protocol.UserJoinAck{Success: true, User: &public}
}

// AdminJoin authenticates an operator token and subscribes the
// connection to the admin room.
func (h *ChatHandler) AdminJoin(ctx context.Context, c ws.Conn, p protocol.AdminJoinPayload) protocol.AdminJoinAck {
	identity, err := h.verifier.Verify(p.Token)
	if err != nil {
		return protocol.AdminJoinAck{Error: "Invalid or expired token"}
	}

	subject := identity.Subject
	if subject == "" {
		subject = "admin"
	}

	sess := c.Session()
	sess.Identity = ws.Identity{Role: ws.RoleAdmin, UserID: subject}
	h.hub.Subscribe(ws.AdminRoom, c)

	h.audit.Emit(ctx, "admin_join", c.ID(), &subject, nil)
	zap.S().Infow("admin joined", "conn_id", c.ID(), "admin_id", subject)
	return protocol.AdminJoinAck{Success: true}
}

// ConversationJoin subscribes the connection to a conversation
// channel. Any connection may join; joining again does not drop the
// previous channel.
func (h *ChatHandler) ConversationJoin(ctx context.Context, c ws.Conn, conversationID string) {
	h.hub.Subscribe(ws.ConversationChannel(conversationID), c)
	c.Session().CurrentConversation = conversationID
}

// ConversationLeave unsubscribes from the conversation channel and
// clears the tracked conversation regardless of which one it was.
func (h *ChatHandler) ConversationLeave(ctx context.Context, c ws.Conn, conversationID string) {
	h.hub.Unsubscribe(ws.ConversationChannel(conversationID), c)
	c.Session().CurrentConversation = ""
}

// Disconnect marks guests offline and announces the transition to the
// admin room. Admin departures carry no presence announcement.
func (h *ChatHandler) Disconnect(ctx context.Context, c ws.Conn) {
	sess := c.Session()
	if sess.Identity.Role != ws.RoleUser {
		return
	}

	lastSeen, err := h.presence.MarkOffline(ctx, sess.Identity.UserID)
	if err != nil {
		zap.S().Errorw("mark offline failed", "user_id", sess.Identity.UserID, "error", err)
		return
	}
	h.hub.Publish(ws.AdminRoom, protocol.EventUserOffline, protocol.UserStatusPayload{
		UserID:   sess.Identity.UserID,
		LastSeen: &lastSeen,
	}, c)
}
