package redisstate

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"minimal-blog/internal/domain"
)

// RedisNotificationPublisher 将新通知发布到 Redis 频道，供 Hub 推送给在线用户。
// 发布经过熔断器，Redis 故障时快速失败，不拖慢通知扇出。
type RedisNotificationPublisher struct {
	client  *redis.Client
	channel string
	breaker *gobreaker.CircuitBreaker
}

// NotificationChannel returns the pub/sub channel name for a key prefix.
func NotificationChannel(keyPrefix string) string {
	if keyPrefix == "" {
		keyPrefix = "blog:"
	}
	return keyPrefix + "notifications"
}

func NewRedisNotificationPublisher(client *redis.Client, keyPrefix string) *RedisNotificationPublisher {
	if client == nil {
		panic("redis client cannot be nil for RedisNotificationPublisher")
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "notification-publisher",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logrus.WithField("breaker", name).Infof("Circuit breaker state changed from %s to %s", from.String(), to.String())
		},
	})
	return &RedisNotificationPublisher{
		client:  client,
		channel: NotificationChannel(keyPrefix),
		breaker: breaker,
	}
}

// Publish 发布一条通知。
func (p *RedisNotificationPublisher) Publish(ctx context.Context, notification domain.Notification) error {
	payload, err := json.Marshal(notification)
	if err != nil {
		return fmt.Errorf("redis: failed to marshal notification %d: %w", notification.ID, err)
	}
	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.client.Publish(ctx, p.channel, payload).Err()
	})
	if err != nil {
		return fmt.Errorf("redis: failed to publish notification %d to channel %s: %w", notification.ID, p.channel, err)
	}
	return nil
}
