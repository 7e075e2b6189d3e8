package app

import (
	"context"
	"time"

	"support_chat_service/internal/chat/domain"
	"support_chat_service/internal/chat/repository"
	errprocess "support_chat_service/pkg/err"
	"support_chat_service/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SendMessageUseCase 負責處理聊天訊息
type SendMessageUseCase struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	pubSub   repository.EventPubSub
}

// NewSendMessageUseCase init create message use case
func NewSendMessageUseCase(
	convRepo repository.ConversationRepository,
	msgRepo repository.MessageRepository,
	pubSub repository.EventPubSub,
) *SendMessageUseCase {
	return &SendMessageUseCase{
		convRepo: convRepo,
		msgRepo:  msgRepo,
		pubSub:   pubSub,
	}
}

// SendCommand send message input
type SendCommand struct {
	ConversationID string
	SenderType     domain.SenderType
	Text           string
	MessageType    string
	FileURL        string
	// TempID 發送端的樂觀 id，只原樣帶回事件，不落地
	TempID string
}

// Execute send message
func (uc *SendMessageUseCase) Execute(ctx context.Context, cmd SendCommand) (*domain.ChatMessage, error) {
	// 1. 檢查 conversation 是否存在
	_, err := uc.convRepo.FindByID(ctx, cmd.ConversationID)
	if err != nil {
		return nil, errprocess.Set("conversation not found")
	}

	if cmd.MessageType == "" {
		cmd.MessageType = "text"
	}

	// 2. 建立訊息
	newMsg := &domain.ChatMessage{
		ID:             uuid.New().String(),
		ConversationID: cmd.ConversationID,
		SenderType:     cmd.SenderType,
		Content:        cmd.Text,
		MessageType:    cmd.MessageType,
		FileURL:        cmd.FileURL,
		CreatedAt:      time.Now().Unix(),
	}
	if cmd.SenderType == domain.SenderAdmin {
		newMsg.Status = domain.MessageSent
	}

	if err := uc.msgRepo.Insert(ctx, newMsg); err != nil {
		return nil, err
	}

	// 3. 更新 conversation 摘要
	// 使用者留言 → waiting 並累計未讀；admin 回覆 → active
	status := domain.StatusActive
	incrementUnread := false
	if cmd.SenderType == domain.SenderUser {
		status = domain.StatusWaiting
		incrementUnread = true
	}
	if err := uc.convRepo.UpdatePreview(ctx, cmd.ConversationID, cmd.Text, newMsg.CreatedAt, status, incrementUnread); err != nil {
		return nil, err
	}

	// 4. pubSub 同步給 admin feed 與使用者端
	env := domain.Envelope{
		Event: string(domain.EventReceiveMessage),
		Data: domain.ReceiveMessagePayload{
			ConversationID: newMsg.ConversationID,
			ID:             newMsg.ID,
			SenderType:     string(newMsg.SenderType),
			MessageText:    newMsg.Content,
			CreatedAt:      newMsg.CreatedAt,
			TempID:         cmd.TempID,
			FileURL:        newMsg.FileURL,
			Status:         string(newMsg.Status),
		},
	}
	uc.publish(repository.AdminChannel, env)
	uc.publish(repository.ConversationChannel(cmd.ConversationID), env)

	return newMsg, nil
}

// MarkRead 將整個 conversation 標記為已讀
func (uc *SendMessageUseCase) MarkRead(ctx context.Context, convID string) error {
	if err := uc.msgRepo.MarkConversationRead(ctx, convID); err != nil {
		return err
	}
	if err := uc.convRepo.ResetUnread(ctx, convID); err != nil {
		return err
	}

	env := domain.Envelope{
		Event: string(domain.EventMessagesRead),
		Data:  domain.MessagesReadPayload{ConversationID: convID},
	}
	uc.publish(repository.AdminChannel, env)
	uc.publish(repository.ConversationChannel(convID), env)
	return nil
}

// publish best effort，失敗只記 log
func (uc *SendMessageUseCase) publish(channel string, env domain.Envelope) {
	if uc.pubSub == nil {
		return
	}
	if err := uc.pubSub.Publish(channel, env); err != nil {
		logger.Log.Error("publish event err",
			zap.String("channel", channel),
			zap.String("event", env.Event),
			zap.String("err", err.Error()),
		)
	}
}
