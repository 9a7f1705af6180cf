package handlers

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"support-chat-service/internal/mocks"
	"support-chat-service/internal/models"
	"support-chat-service/internal/presence"
	"support-chat-service/internal/protocol"
	"support-chat-service/internal/repositories"
	"support-chat-service/internal/ws"
)

func TestMessageSendRequiresAuth(t *testing.T) {
	f := newFixture()
	c := &fakeConn{id: "conn-1"}

	ack := f.handler.MessageSend(context.Background(), c, protocol.SendMessagePayload{
		ConversationID: "c1", Content: "hi",
	})

	assert.False(t, ack.Success)
	assert.Equal(t, "Not authenticated", ack.Error)
	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMessageSendRejectsEmptyContent(t *testing.T) {
	f := newFixture()
	c := guestConn("conn-1", "u1")

	ack := f.handler.MessageSend(context.Background(), c, protocol.SendMessagePayload{
		ConversationID: "c1", Content: "   ",
	})

	assert.Equal(t, "Failed to send message", ack.Error)
}

func TestMessageSendRejectsOversizedContent(t *testing.T) {
	f := newFixture()
	c := guestConn("conn-1", "u1")

	ack := f.handler.MessageSend(context.Background(), c, protocol.SendMessagePayload{
		ConversationID: "c1", Content: strings.Repeat("x", models.MaxContentLength+1),
	})

	assert.Equal(t, "Failed to send message", ack.Error)
}

func TestMessageSendUnknownConversation(t *testing.T) {
	f := newFixture()
	c := guestConn("conn-1", "u1")

	f.conversations.On("Get", mock.Anything, "missing").
		Return(models.Conversation{}, repositories.ErrConversationNotFound).Once()

	ack := f.handler.MessageSend(context.Background(), c, protocol.SendMessagePayload{
		ConversationID: "missing", Content: "hi",
	})

	assert.Equal(t, "Failed to send message", ack.Error)
	f.messages.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestMessageSendGuestFansOut(t *testing.T) {
	f := newFixture()
	sender := guestConn("conn-1", "u1")
	peer := adminConn("conn-2", "a1")
	outsideAdmin := adminConn("conn-3", "a2")

	f.hub.Subscribe(ws.ConversationChannel("c1"), sender)
	f.hub.Subscribe(ws.ConversationChannel("c1"), peer)
	f.hub.Subscribe(ws.AdminRoom, outsideAdmin)

	createdAt := time.Now().UTC()
	f.conversations.On("Get", mock.Anything, "c1").Return(models.Conversation{ID: "c1"}, nil).Once()
	f.messages.On("Create", mock.Anything, mock.MatchedBy(func(msg models.Message) bool {
		return msg.ConversationID == "c1" && msg.SenderID == "u1" && msg.SenderType == "user" && msg.Content == "hello"
	})).Return(models.Message{
		ID: "m1", ConversationID: "c1", SenderID: "u1", SenderType: "user",
		Content: "hello", CreatedAt: createdAt,
	}, nil).Once()
	f.conversations.On("ApplyLastMessage", mock.Anything, "c1", "hello", createdAt, "user").Return(nil).Once()

	ack := f.handler.MessageSend(context.Background(), sender, protocol.SendMessagePayload{
		ConversationID: "c1", Content: "hello",
	})

	require.True(t, ack.Success)
	require.NotNil(t, ack.Message)
	assert.Equal(t, "m1", ack.Message.ID)

	senderEvents := peer.events(t)
	require.Len(t, senderEvents, 1)
	assert.Equal(t, protocol.EventMessageNew, senderEvents[0].Event)

	// conversation members get the broadcast including the sender
	require.Len(t, sender.events(t), 1)

	// a guest message also reaches admins outside the conversation
	adminEvents := outsideAdmin.events(t)
	require.Len(t, adminEvents, 1)
	assert.Equal(t, protocol.EventMessageNew, adminEvents[0].Event)

	f.conversations.AssertExpectations(t)
	f.messages.AssertExpectations(t)
}

func TestMessageSendAdminSkipsAdminRoom(t *testing.T) {
	f := newFixture()
	sender := adminConn("conn-1", "a1")
	outsideAdmin := adminConn("conn-2", "a2")
	f.hub.Subscribe(ws.ConversationChannel("c1"), sender)
	f.hub.Subscribe(ws.AdminRoom, outsideAdmin)

	createdAt := time.Now().UTC()
	f.conversations.On("Get", mock.Anything, "c1").Return(models.Conversation{ID: "c1"}, nil).Once()
	f.messages.On("Create", mock.Anything, mock.Anything).Return(models.Message{
		ID: "m1", ConversationID: "c1", SenderID: "a1", SenderType: "admin",
		Content: "hello", CreatedAt: createdAt,
	}, nil).Once()
	f.conversations.On("ApplyLastMessage", mock.Anything, "c1", "hello", createdAt, "admin").Return(nil).Once()

	ack := f.handler.MessageSend(context.Background(), sender, protocol.SendMessagePayload{
		ConversationID: "c1", Content: "hello",
	})

	require.True(t, ack.Success)
	assert.Empty(t, outsideAdmin.frames)
}

func TestMessageSendSnippetTruncated(t *testing.T) {
	f := newFixture()
	sender := guestConn("conn-1", "u1")
	content := strings.Repeat("y", 300)
	createdAt := time.Now().UTC()

	f.conversations.On("Get", mock.Anything, "c1").Return(models.Conversation{ID: "c1"}, nil).Once()
	f.messages.On("Create", mock.Anything, mock.Anything).Return(models.Message{
		ID: "m1", ConversationID: "c1", SenderID: "u1", SenderType: "user",
		Content: content, CreatedAt: createdAt,
	}, nil).Once()
	f.conversations.On("ApplyLastMessage", mock.Anything, "c1", strings.Repeat("y", models.SnippetLimit), createdAt, "user").
		Return(nil).Once()

	ack := f.handler.MessageSend(context.Background(), sender, protocol.SendMessagePayload{
		ConversationID: "c1", Content: content,
	})

	require.True(t, ack.Success)
	f.conversations.AssertExpectations(t)
}

func TestMessageReadMarksOpposingRole(t *testing.T) {
	f := newFixture()
	reader := adminConn("conn-1", "a1")
	peer := guestConn("conn-2", "u1")
	f.hub.Subscribe(ws.ConversationChannel("c1"), reader)
	f.hub.Subscribe(ws.ConversationChannel("c1"), peer)

	f.messages.On("MarkConversationRead", mock.Anything, "c1", "user", mock.Anything).Return(nil).Once()
	f.conversations.On("ResetUnread", mock.Anything, "c1", "admin").Return(nil).Once()

	f.handler.MessageRead(context.Background(), reader, "c1")

	events := peer.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, protocol.EventMessageRead, events[0].Event)
	payload := peer.payload(t, 0)
	assert.Equal(t, "c1", payload["conversationId"])
	assert.Equal(t, "a1", payload["readBy"])
	assert.Equal(t, "admin", payload["readByType"])

	f.messages.AssertExpectations(t)
	f.conversations.AssertExpectations(t)
}

func TestMessageReadUnauthenticatedIsIgnored(t *testing.T) {
	f := newFixture()
	c := &fakeConn{id: "conn-1"}

	f.handler.MessageRead(context.Background(), c, "c1")

	f.messages.AssertNotCalled(t, "MarkConversationRead", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestMessageReactToggle(t *testing.T) {
	f := newFixture()
	reactor := guestConn("conn-1", "u1")
	peer := adminConn("conn-2", "a1")
	f.hub.Subscribe(ws.ConversationChannel("c1"), peer)

	result := []models.Reaction{{Emoji: "👍", UserIDs: []string{"u1"}}}
	f.messages.On("ToggleReaction", mock.Anything, "m1", "u1", "👍").Return("c1", result, nil).Once()

	ack := f.handler.MessageReact(context.Background(), reactor, protocol.ReactPayload{MessageID: "m1", Emoji: "👍"})

	require.True(t, ack.Success)
	assert.Equal(t, result, ack.Reactions)

	events := peer.events(t)
	require.Len(t, events, 1)
	assert.Equal(t, protocol.EventMessageReaction, events[0].Event)
	payload := peer.payload(t, 0)
	assert.Equal(t, "m1", payload["messageId"])
}

func TestMessageReactNotFound(t *testing.T) {
	f := newFixture()
	c := guestConn("conn-1", "u1")

	f.messages.On("ToggleReaction", mock.Anything, "missing", "u1", "👍").
		Return("", nil, repositories.ErrMessageNotFound).Once()

	ack := f.handler.MessageReact(context.Background(), c, protocol.ReactPayload{MessageID: "missing", Emoji: "👍"})

	assert.False(t, ack.Success)
	assert.Equal(t, "Message not found", ack.Error)
}

func TestMessageReactRequiresAuth(t *testing.T) {
	f := newFixture()
	c := &fakeConn{id: "conn-1"}

	ack := f.handler.MessageReact(context.Background(), c, protocol.ReactPayload{MessageID: "m1", Emoji: "👍"})

	assert.Equal(t, "Not authenticated", ack.Error)
	f.messages.AssertNotCalled(t, "ToggleReaction", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

// memConversations applies the same counter arithmetic as the SQL
// statement so the unread bookkeeping can be checked across a whole
// exchange.
type memConversations struct {
	mu   sync.Mutex
	conv models.Conversation
}

func (m *memConversations) Get(ctx context.Context, id string) (models.Conversation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.conv.ID != id {
		return models.Conversation{}, repositories.ErrConversationNotFound
	}
	return m.conv, nil
}

func (m *memConversations) ApplyLastMessage(ctx context.Context, id, snippet string, at time.Time, senderRole string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.conv.LastMessageContent.String = snippet
	m.conv.LastMessageContent.Valid = true
	if senderRole == models.RoleUser {
		m.conv.UnreadAdmin++
	} else {
		m.conv.UnreadUser++
	}
	return nil
}

func (m *memConversations) ResetUnread(ctx context.Context, id, role string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if role == models.RoleAdmin {
		m.conv.UnreadAdmin = 0
	} else {
		m.conv.UnreadUser = 0
	}
	return nil
}

func TestUnreadCountersAcrossExchange(t *testing.T) {
	users := new(mocks.UserRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	conversations := &memConversations{conv: models.Conversation{ID: "c1"}}
	hub := ws.NewHub()
	handler := NewChatHandler(users, conversations, messages, nil, presence.NewTracker(users), hub, nil)

	now := time.Now().UTC()
	messages.On("Create", mock.Anything, mock.MatchedBy(func(msg models.Message) bool {
		return msg.SenderType == models.RoleUser
	})).Return(models.Message{ID: "m", ConversationID: "c1", SenderType: models.RoleUser, Content: "three", CreatedAt: now}, nil)
	messages.On("Create", mock.Anything, mock.MatchedBy(func(msg models.Message) bool {
		return msg.SenderType == models.RoleAdmin
	})).Return(models.Message{ID: "m", ConversationID: "c1", SenderType: models.RoleAdmin, Content: "three", CreatedAt: now}, nil)
	messages.On("MarkConversationRead", mock.Anything, "c1", mock.Anything, mock.Anything).Return(nil)

	guest := guestConn("conn-1", "u1")
	admin := adminConn("conn-2", "a1")
	ctx := context.Background()

	// guest sends twice, admin once
	require.True(t, handler.MessageSend(ctx, guest, protocol.SendMessagePayload{ConversationID: "c1", Content: "one"}).Success)
	require.True(t, handler.MessageSend(ctx, guest, protocol.SendMessagePayload{ConversationID: "c1", Content: "two"}).Success)
	require.True(t, handler.MessageSend(ctx, admin, protocol.SendMessagePayload{ConversationID: "c1", Content: "three"}).Success)

	assert.Equal(t, 2, conversations.conv.UnreadAdmin)
	assert.Equal(t, 1, conversations.conv.UnreadUser)

	// admin catches up, guest counter untouched
	handler.MessageRead(ctx, admin, "c1")
	assert.Equal(t, 0, conversations.conv.UnreadAdmin)
	assert.Equal(t, 1, conversations.conv.UnreadUser)

	handler.MessageRead(ctx, guest, "c1")
	assert.Equal(t, 0, conversations.conv.UnreadUser)

	assert.Equal(t, "three", conversations.conv.LastMessageContent.String)
}
