package repository

import (
	"context"
	"time"

	"support_chat_service/internal/chat/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ConversationRepository definition conversation store
type ConversationRepository interface {
	Create(ctx context.Context, conv *domain.Conversation) error
	FindByID(ctx context.Context, convID string) (*domain.Conversation, error)
	// List 依 updated_at 由新到舊，最多 limit 筆
	List(ctx context.Context, limit int) ([]domain.Conversation, error)
	// UpdatePreview 寫入最後訊息摘要並更新 updated_at；incrementUnread 時 unread_count +1
	UpdatePreview(ctx context.Context, convID, lastText string, lastTime int64, status domain.ConversationStatus, incrementUnread bool) error
	ResetUnread(ctx context.Context, convID string) error
	UpdateStatus(ctx context.Context, convID string, status domain.ConversationStatus) error
}

type conversationRepository struct {
	coll *mongo.Collection
}

// NewMongoConversationRepository create a ConversationRepository
func NewMongoConversationRepository(db *mongo.Database) ConversationRepository {
	return &conversationRepository{
		coll: db.Collection("conversations"),
	}
}

// Create create conversation
func (r *conversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	now := time.Now().Unix()
	if conv.CreatedAt == 0 {
		conv.CreatedAt = now
	}
	if conv.UpdatedAt == 0 {
		conv.UpdatedAt = now
	}
	_, err := r.coll.InsertOne(ctx, conv)
	return err
}

// FindByID find conversation by id
func (r *conversationRepository) FindByID(ctx context.Context, convID string) (*domain.Conversation, error) {
	var conv domain.Conversation
	err := r.coll.FindOne(ctx, bson.M{"_id": convID}).Decode(&conv)
	if err != nil {
		return nil, err
	}
	return &conv, nil
}

// List newest updated first
func (r *conversationRepository) List(ctx context.Context, limit int) ([]domain.Conversation, error) {
	opts := options.Find()
	opts.SetSort(bson.M{"updated_at": -1})
	opts.SetLimit(int64(limit))

	cur, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}

	var convs []domain.Conversation
	if err := cur.All(ctx, &convs); err != nil {
		return nil, err
	}
	return convs, nil
}

// UpdatePreview update last message summary
func (r *conversationRepository) UpdatePreview(ctx context.Context, convID, lastText string, lastTime int64, status domain.ConversationStatus, incrementUnread bool) error {
	update := bson.M{
		"$set": bson.M{
			"last_message_text": lastText,
			"last_message_time": lastTime,
			"status":            status,
			"updated_at":        time.Now().Unix(),
		},
	}
	if incrementUnread {
		update["$inc"] = bson.M{"unread_count": 1}
	}
	_, err := r.coll.UpdateOne(ctx, bson.M{"_id": convID}, update)
	return err
}

// ResetUnread set unread_count back to 0
func (r *conversationRepository) ResetUnread(ctx context.Context, convID string) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": convID},
		bson.M{"$set": bson.M{"unread_count": 0}},
	)
	return err
}

// UpdateStatus update conversation status
func (r *conversationRepository) UpdateStatus(ctx context.Context, convID string, status domain.ConversationStatus) error {
	_, err := r.coll.UpdateOne(ctx,
		bson.M{"_id": convID},
		bson.M{"$set": bson.M{"status": status, "updated_at": time.Now().Unix()}},
	)
	return err
}
