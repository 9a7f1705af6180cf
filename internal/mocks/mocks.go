package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"support-chat-service/internal/auth"
	"support-chat-service/internal/models"
	"support-chat-service/internal/repositories"
)

type UserRepositoryMock struct {
	mock.Mock
}

var _ repositories.UserRepository = (*UserRepositoryMock)(nil)

func (m *UserRepositoryMock) FindBySessionToken(ctx context.Context, token string) (models.ChatUser, error) {
	args := m.Called(ctx, token)
	var user models.ChatUser
	if val := args.Get(0); val != nil {
		user = val.(models.ChatUser)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) FindByID(ctx context.Context, id string) (models.ChatUser, error) {
	args := m.Called(ctx, id)
	var user models.ChatUser
	if val := args.Get(0); val != nil {
		user = val.(models.ChatUser)
	}
	return user, args.Error(1)
}

func (m *UserRepositoryMock) SetOnline(ctx context.Context, id, connID string, at time.Time) error {
	args := m.Called(ctx, id, connID, at)
	return args.Error(0)
}

func (m *UserRepositoryMock) SetOffline(ctx context.Context, id string, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)

func (m *ConversationRepositoryMock) Get(ctx context.Context, id string) (models.Conversation, error) {
	args := m.Called(ctx, id)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) ApplyLastMessage(ctx context.Context, id, snippet string, at time.Time, senderRole string) error {
	args := m.Called(ctx, id, snippet, at, senderRole)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) ResetUnread(ctx context.Context, id, role string) error {
	args := m.Called(ctx, id, role)
	return args.Error(0)
}

type MessageRepositoryMock struct {
	mock.Mock
}

var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)

func (m *MessageRepositoryMock) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	args := m.Called(ctx, msg)
	var out models.Message
	if val := args.Get(0); val != nil {
		out = val.(models.Message)
	}
	return out, args.Error(1)
}

func (m *MessageRepositoryMock) MarkConversationRead(ctx context.Context, conversationID, senderType string, at time.Time) error {
	args := m.Called(ctx, conversationID, senderType, at)
	return args.Error(0)
}

func (m *MessageRepositoryMock) ToggleReaction(ctx context.Context, messageID, userID, emoji string) (string, []models.Reaction, error) {
	args := m.Called(ctx, messageID, userID, emoji)
	var reactions []models.Reaction
	if val := args.Get(1); val != nil {
		reactions = val.([]models.Reaction)
	}
	return args.String(0), reactions, args.Error(2)
}

type TokenVerifierMock struct {
	mock.Mock
}

var _ auth.TokenVerifier = (*TokenVerifierMock)(nil)

func (m *TokenVerifierMock) Verify(token string) (auth.Identity, error) {
	args := m.Called(token)
	var identity auth.Identity
	if val := args.Get(0); val != nil {
		identity = val.(auth.Identity)
	}
	return identity, args.Error(1)
}
