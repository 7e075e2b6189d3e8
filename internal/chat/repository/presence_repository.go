package repository

import (
	"context"
	"time"

	"github.com/go-redis/redis/v8"
)

const presenceKeyPrefix = "chat:presence:"

// PresenceRepository definition user online state
type PresenceRepository interface {
	SetOnline(ctx context.Context, convID string, ttl time.Duration) error
	SetOffline(ctx context.Context, convID string) error
	IsOnline(ctx context.Context, convID string) (bool, error)
}

type redisPresenceRepository struct {
	client *redis.Client
}

// NewRedisPresenceRepository create PresenceRepository
func NewRedisPresenceRepository(client *redis.Client) PresenceRepository {
	return &redisPresenceRepository{client: client}
}

// SetOnline key 帶 TTL，socket 斷線未清除時也會自動過期
func (r *redisPresenceRepository) SetOnline(ctx context.Context, convID string, ttl time.Duration) error {
	return r.client.Set(ctx, presenceKeyPrefix+convID, "1", ttl).Err()
}

// SetOffline remove presence key
func (r *redisPresenceRepository) SetOffline(ctx context.Context, convID string) error {
	return r.client.Del(ctx, presenceKeyPrefix+convID).Err()
}

// IsOnline check presence key exist
func (r *redisPresenceRepository) IsOnline(ctx context.Context, convID string) (bool, error) {
	n, err := r.client.Exists(ctx, presenceKeyPrefix+convID).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
