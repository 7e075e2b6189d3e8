package app

import (
	"context"
	"time"

	"support_chat_service/internal/chat/domain"
	"support_chat_service/internal/chat/repository"
	"support_chat_service/pkg"
	errprocess "support_chat_service/pkg/err"
	"support_chat_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	defaultListLimit = 50
	maxListLimit     = 100
)

// ConversationUseCase 負責 conversation 查詢與狀態
type ConversationUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	presence repository.PresenceRepository
}

// NewConversationUseCase init conversation use case
func NewConversationUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	presence repository.PresenceRepository,
) *ConversationUseCase {
	return &ConversationUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		presence: presence,
	}
}

// List conversation 摘要，由新到舊，補上 presence
func (uc *ConversationUseCase) List(ctx context.Context, limit int) ([]domain.ConversationView, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	convs, err := uc.convRepo.List(ctx, limit)
	if err != nil {
		return nil, err
	}

	views := make([]domain.ConversationView, 0, len(convs))
	for _, conv := range convs {
		view := domain.ConversationView{Conversation: conv}
		if uc.presence != nil {
			online, err := uc.presence.IsOnline(ctx, conv.ID)
			if err != nil {
				// presence 失敗不影響列表
				logger.Log.Warn("presence lookup err", zap.String("conversation_id", conv.ID))
			} else {
				view.IsOnline = online
			}
		}
		views = append(views, view)
	}
	return views, nil
}

// GetThread whole message history for one conversation
func (uc *ConversationUseCase) GetThread(ctx context.Context, convID string) ([]domain.ChatMessage, error) {
	if _, err := uc.convRepo.FindByID(ctx, convID); err != nil {
		return nil, errprocess.Set("conversation not found")
	}
	return uc.msgRepo.FindByConversation(ctx, convID)
}

// UpdateStatus admin 標記 conversation 狀態 (例如 resolved)
func (uc *ConversationUseCase) UpdateStatus(ctx context.Context, convID string, status domain.ConversationStatus) error {
	valid := []string{
		string(domain.StatusActive),
		string(domain.StatusWaiting),
		string(domain.StatusResolved),
	}
	if !pkg.Contains(valid, string(status)) {
		return errprocess.Set("unknown conversation status")
	}
	return uc.convRepo.UpdateStatus(ctx, convID, status)
}

// EnsureConversation 使用者端 socket 接入時，找不到就建立
func (uc *ConversationUseCase) EnsureConversation(ctx context.Context, convID, name, email string) (*domain.Conversation, error) {
	if convID != "" {
		conv, err := uc.convRepo.FindByID(ctx, convID)
		if err == nil {
			return conv, nil
		}
	}

	conv := &domain.Conversation{
		ID:        convID,
		UserName:  name,
		UserEmail: email,
		Status:    domain.StatusWaiting,
		CreatedAt: time.Now().Unix(),
		UpdatedAt: time.Now().Unix(),
	}
	if conv.ID == "" {
		conv.ID = uuid.New().String()
	}
	if err := uc.convRepo.Create(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}
