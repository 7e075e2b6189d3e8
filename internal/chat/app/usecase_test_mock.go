package app

import (
	"context"
	"time"

	"support_chat_service/internal/chat/domain"

	"github.com/stretchr/testify/mock"
)

// MockConversationRepository Mock ConversationRepository
type MockConversationRepository struct {
	mock.Mock
}

// Create moke create conversation
func (m *MockConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	args := m.Called(ctx, conv)
	return args.Error(0)
}

// FindByID moke find conversation by id
func (m *MockConversationRepository) FindByID(ctx context.Context, convID string) (*domain.Conversation, error) {
	args := m.Called(ctx, convID)
	if args.Get(0) != nil {
		return args.Get(0).(*domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// List moke list conversations
func (m *MockConversationRepository) List(ctx context.Context, limit int) ([]domain.Conversation, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.Conversation), args.Error(1)
	}
	return nil, args.Error(1)
}

// UpdatePreview moke update last message summary
func (m *MockConversationRepository) UpdatePreview(ctx context.Context, convID, lastText string, lastTime int64, status domain.ConversationStatus, incrementUnread bool) error {
	args := m.Called(ctx, convID, lastText, lastTime, status, incrementUnread)
	return args.Error(0)
}

// ResetUnread moke reset unread count
func (m *MockConversationRepository) ResetUnread(ctx context.Context, convID string) error {
	args := m.Called(ctx, convID)
	return args.Error(0)
}

// UpdateStatus moke update conversation status
func (m *MockConversationRepository) UpdateStatus(ctx context.Context, convID string, status domain.ConversationStatus) error {
	args := m.Called(ctx, convID, status)
	return args.Error(0)
}

// MockMessageRepository Mock MessageRepository
type MockMessageRepository struct {
	mock.Mock
}

// Insert moke insert message
func (m *MockMessageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

// FindByConversation moke find thread history
func (m *MockMessageRepository) FindByConversation(ctx context.Context, convID string) ([]domain.ChatMessage, error) {
	args := m.Called(ctx, convID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ChatMessage), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkConversationRead moke mark whole conversation read
func (m *MockMessageRepository) MarkConversationRead(ctx context.Context, convID string) error {
	args := m.Called(ctx, convID)
	return args.Error(0)
}

// UpdateStatus moke update message status
func (m *MockMessageRepository) UpdateStatus(ctx context.Context, msgID string, status domain.MessageStatus) error {
	args := m.Called(ctx, msgID, status)
	return args.Error(0)
}

// MockPresenceRepository Mock PresenceRepository
type MockPresenceRepository struct {
	mock.Mock
}

// SetOnline moke set presence key
func (m *MockPresenceRepository) SetOnline(ctx context.Context, convID string, ttl time.Duration) error {
	args := m.Called(ctx, convID, ttl)
	return args.Error(0)
}

// SetOffline moke remove presence key
func (m *MockPresenceRepository) SetOffline(ctx context.Context, convID string) error {
	args := m.Called(ctx, convID)
	return args.Error(0)
}

// IsOnline moke check presence
func (m *MockPresenceRepository) IsOnline(ctx context.Context, convID string) (bool, error) {
	args := m.Called(ctx, convID)
	return args.Bool(0), args.Error(1)
}

// MockEventPubSub Mock EventPubSub
type MockEventPubSub struct {
	mock.Mock
}

// Publish moke publisher
func (m *MockEventPubSub) Publish(channel string, env domain.Envelope) error {
	args := m.Called(channel, env)
	return args.Error(0)
}

// Subscribe moke subscriber
func (m *MockEventPubSub) Subscribe(ctx context.Context, channel string, handler func(env domain.Envelope)) error {
	args := m.Called(ctx, channel, handler)
	return args.Error(0)
}
