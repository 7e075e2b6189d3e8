package repository

import (
	"context"

	"support_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MessageRepository definition message store
type MessageRepository interface {
	Insert(ctx context.Context, msg *domain.ChatMessage) error
	// FindByConversation 整個 thread 由舊到新
	FindByConversation(ctx context.Context, convID string) ([]domain.ChatMessage, error)
	// MarkConversationRead 將 conversation 內所有訊息標記為已讀
	MarkConversationRead(ctx context.Context, convID string) error
	UpdateStatus(ctx context.Context, msgID string, status domain.MessageStatus) error
}

type chatMessageRepository struct {
	coll *mongo.Collection
}

// NewMongoChatMessageRepository create a MessageRepository
func NewMongoChatMessageRepository(db *mongo.Database) MessageRepository {
	return &chatMessageRepository{
		coll: db.Collection("chat_messages"),
	}
}

// Insert 寫入一筆聊天訊息
func (r *chatMessageRepository) Insert(ctx context.Context, msg *domain.ChatMessage) error {
	_, err := r.coll.InsertOne(ctx, msg)
	return err
}

// FindByConversation thread history, oldest first
func (r *chatMessageRepository) FindByConversation(ctx context.Context, convID string) ([]domain.ChatMessage, error) {
	opts := options.Find()
	opts.SetSort(bson.M{"created_at": 1})

	cur, err := r.coll.Find(ctx, bson.M{"conversation_id": convID}, opts)
	if err != nil {
		return nil, err
	}

	var messages []domain.ChatMessage
	if err := cur.All(ctx, &messages); err != nil {
		return nil, err
	}
	return messages, nil
}

// MarkConversationRead mark whole conversation read
func (r *chatMessageRepository) MarkConversationRead(ctx context.Context, convID string) error {
	filter := bson.M{
		"conversation_id": convID,
		"status":          bson.M{"$ne": domain.MessageRead},
	}
	update := bson.M{"$set": bson.M{"status": domain.MessageRead}}
	_, err := r.coll.UpdateMany(ctx, filter, update)
	return err
}

// UpdateStatus update one message delivery status
func (r *chatMessageRepository) UpdateStatus(ctx context.Context, msgID string, status domain.MessageStatus) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"id": msgID},
		bson.M{"$set": bson.M{"status": status}},
	)
	return err
}
