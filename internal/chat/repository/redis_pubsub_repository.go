package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"support_chat_service/internal/chat/domain"
	"support_chat_service/pkg/logger"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	// AdminChannel 所有 admin feed 共用的 channel
	AdminChannel = "chat:admin"
)

// ConversationChannel 單一 conversation 的使用者端 channel
func ConversationChannel(convID string) string {
	return "chat:conv:" + convID
}

// EventPubSub definition event fanout
type EventPubSub interface {
	Publish(channel string, env domain.Envelope) error
	Subscribe(ctx context.Context, channel string, handler func(env domain.Envelope)) error
}

// RedisPubSub definition redis pub/sub
type RedisPubSub struct {
	client *redis.Client
}

// NewRedisPubSub create RedisPubSub
func NewRedisPubSub(client *redis.Client) *RedisPubSub {
	return &RedisPubSub{
		client: client,
	}
}

// Publish 將 envelope 序列化後，發布到指定 channel
func (r *RedisPubSub) Publish(channel string, env domain.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return err
	}
	return r.client.Publish(context.Background(), channel, data).Err()
}

// Subscribe 訂閱 channel，收到訊息後呼叫 handler 處理
func (r *RedisPubSub) Subscribe(ctx context.Context, channel string, handler func(env domain.Envelope)) error {
	sub := r.client.Subscribe(context.Background(), channel)
	go func() {
		ch := sub.Channel()

		for {
			select {
			case m, ok := <-ch:
				if !ok {
					return
				}

				var env domain.Envelope
				if err := json.Unmarshal([]byte(m.Payload), &env); err != nil {
					logger.Log.Error("pubsub payload unmarshal err", zap.String("err", err.Error()))
					continue
				}
				handler(env)
			case <-ctx.Done():
				logger.Log.Info(fmt.Sprintf("%s , sub close", channel))
				// 當 ctx 被取消時，退出循環並關閉訂閱
				sub.Close()
				return
			}
		}
	}()
	return nil
}
