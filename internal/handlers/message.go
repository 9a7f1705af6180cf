package handlers

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	"support-chat-service/internal/models"
	"support-chat-service/internal/observability"
	"support-chat-service/internal/protocol"
	"support-chat-service/internal/repositories"
	"support-chat-service/internal/ws"
)

// MessageSend persists a message, updates the conversation summary and
// unread counter, and fans it out to the conversation channel. Messages
// from guests are additionally announced to the admin room so operators
// outside the conversation see activity.
func (h *ChatHandler) MessageSend(ctx context.Context, c ws.Conn, p protocol.SendMessagePayload) protocol.SendAck {
	sess := c.Session()
	if !sess.Authenticated() {
		return protocol.SendAck{Error: "Not authenticated"}
	}

	content := strings.TrimSpace(p.Content)
	if content == "" || len([]rune(content)) > models.MaxContentLength {
		return protocol.SendAck{Error: "Failed to send message"}
	}

	if _, err := h.conversations.Get(ctx, p.ConversationID); err != nil {
		if !errors.Is(err, repositories.ErrConversationNotFound) {
			zap.S().Errorw("load conversation failed", "conversation_id", p.ConversationID, "error", err)
		}
		return protocol.SendAck{Error: "Failed to send message"}
	}

	msg, err := h.messages.Create(ctx, models.Message{
		ConversationID: p.ConversationID,
		SenderID:       sess.Identity.UserID,
		SenderType:     sess.SenderType(),
		Content:        content,
		Media:          p.Media,
	})
	if err != nil {
		zap.S().Errorw("create message failed", "conversation_id", p.ConversationID, "error", err)
		return protocol.SendAck{Error: "Failed to send message"}
	}

	if err := h.conversations.ApplyLastMessage(ctx, p.ConversationID, models.Snippet(content), msg.CreatedAt, msg.SenderType); err != nil {
		zap.S().Errorw("update conversation summary failed", "conversation_id", p.ConversationID, "error", err)
		return protocol.SendAck{Error: "Failed to send message"}
	}

	view := msg.View()
	h.hub.PublishAll(ws.ConversationChannel(p.ConversationID), protocol.EventMessageNew, view)
	if msg.SenderType == models.RoleUser {
		h.hub.Publish(ws.AdminRoom, protocol.EventMessageNew, view, c)
	}
	observability.IncMessageSent(msg.SenderType)
	h.audit.Emit(ctx, "message_send", c.ID(), &msg.SenderID, map[string]any{
		"conversation_id": msg.ConversationID,
		"message_id":      msg.ID,
		"sender_type":     msg.SenderType,
	})

	return protocol.SendAck{Success: true, Message: &view}
}

// MessageRead stamps the counterpart's unread messages and zeroes the
// reader's counter. The event carries no ack; failures are logged and
// the broadcast is skipped.
func (h *ChatHandler) MessageRead(ctx context.Context, c ws.Conn, conversationID string) {
	sess := c.Session()
	if !sess.Authenticated() {
		return
	}

	now := time.Now().UTC()
	readerRole := sess.SenderType()
	if err := h.messages.MarkConversationRead(ctx, conversationID, models.OpposingRole(readerRole), now); err != nil {
		zap.S().Errorw("mark read failed", "conversation_id", conversationID, "error", err)
		return
	}
	if err := h.conversations.ResetUnread(ctx, conversationID, readerRole); err != nil {
		zap.S().Errorw("reset unread failed", "conversation_id", conversationID, "error", err)
		return
	}

	h.hub.PublishAll(ws.ConversationChannel(conversationID), protocol.EventMessageRead, protocol.MessageReadPayload{
		ConversationID: conversationID,
		ReadBy:         sess.Identity.UserID,
		ReadByType:     readerRole,
	})
}

// MessageReact toggles the caller's emoji on a message and broadcasts
// the resulting reaction list to the message's conversation channel.
func (h *ChatHandler) MessageReact(ctx context.Context, c ws.Conn, p protocol.ReactPayload) protocol.ReactAck {
	sess := c.Session()
	if !sess.Authenticated() {
		return protocol.ReactAck{Error: "Not authenticated"}
	}

	conversationID, reactions, err := h.messages.ToggleReaction(ctx, p.MessageID, sess.Identity.UserID, p.Emoji)
	if err != nil {
		if errors.Is(err, repositories.ErrMessageNotFound) {
			return protocol.ReactAck{Error: "Message not found"}
		}
		zap.S().Errorw("toggle reaction failed", "message_id", p.MessageID, "error", err)
		return protocol.ReactAck{Error: "Failed to add reaction"}
	}

	h.hub.PublishAll(ws.ConversationChannel(conversationID), protocol.EventMessageReaction, protocol.ReactionPayload{
		MessageID: p.MessageID,
		Reactions: reactions,
	})
	return protocol.ReactAck{Success: true, Reactions: reactions}
}
