package app

import (
	"context"

	"support_chat_service/internal/admin/domain"
	"support_chat_service/internal/admin/repository"

	"github.com/stretchr/testify/mock"
)

// MockChatAPI Mock repository.ChatAPI
type MockChatAPI struct {
	mock.Mock
}

// ListConversations moke list conversations
func (m *MockChatAPI) ListConversations(ctx context.Context, limit int) ([]domain.ConversationRecord, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.ConversationRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

// GetMessages moke thread history
func (m *MockChatAPI) GetMessages(ctx context.Context, convID string) ([]domain.MessageRecord, error) {
	args := m.Called(ctx, convID)
	if args.Get(0) != nil {
		return args.Get(0).([]domain.MessageRecord), args.Error(1)
	}
	return nil, args.Error(1)
}

// SendMessage moke send message
func (m *MockChatAPI) SendMessage(ctx context.Context, req repository.SendMessageRequest) (*repository.SendMessageResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) != nil {
		return args.Get(0).(*repository.SendMessageResult), args.Error(1)
	}
	return nil, args.Error(1)
}

// MarkRead moke mark conversation read
func (m *MockChatAPI) MarkRead(ctx context.Context, convID string) error {
	args := m.Called(ctx, convID)
	return args.Error(0)
}

// UpdateStatus moke update conversation status
func (m *MockChatAPI) UpdateStatus(ctx context.Context, convID, status string) error {
	args := m.Called(ctx, convID, status)
	return args.Error(0)
}
