package redisstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
)

// RedisSessionRepository 是 SessionRepository 接口的 Redis 实现。
// 会话以 JSON 存储，key 的 TTL 与会话过期时间一致。
type RedisSessionRepository struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSessionRepository 创建 RedisSessionRepository 实例
func NewRedisSessionRepository(client *redis.Client, keyPrefix string) *RedisSessionRepository {
	if client == nil {
		panic("redis client cannot be nil for RedisSessionRepository")
	}
	if keyPrefix == "" {
		keyPrefix = "blog:"
	}
	return &RedisSessionRepository{client: client, keyPrefix: keyPrefix}
}

func (r *RedisSessionRepository) sessionKey(id string) string {
	return fmt.Sprintf("%ssession:%s", r.keyPrefix, id)
}

func (r *RedisSessionRepository) Save(ctx context.Context, session *domain.Session) error {
	ttl := time.Until(session.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("redis: refusing to save already expired session %s", session.ID)
	}
	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal session %s: %w", session.ID, err)
	}
	key := r.sessionKey(session.ID)
	if err := r.client.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("redis: failed to save session on key %s: %w", key, err)
	}
	return nil
}

func (r *RedisSessionRepository) FindByID(ctx context.Context, id string) (*domain.Session, error) {
	key := r.sessionKey(id)
	raw, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrSessionNotFound
		}
		return nil, fmt.Errorf("redis: failed to get session from %s: %w", key, err)
	}
	var session domain.Session
	if err := json.Unmarshal([]byte(raw), &session); err != nil {
		return nil, fmt.Errorf("redis: failed to unmarshal session from %s: %w", key, err)
	}
	return &session, nil
}

func (r *RedisSessionRepository) Delete(ctx context.Context, id string) error {
	key := r.sessionKey(id)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: failed to delete session key %s: %w", key, err)
	}
	return nil
}
