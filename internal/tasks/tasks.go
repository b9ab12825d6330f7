package tasks

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"minimal-blog/internal/domain"
)

// 任务类型常量
const (
	TypeNotificationFanout = "notification:fanout" // 关注者通知扇出
)

// QueueNotifications 是扇出任务所在的队列。
const QueueNotifications = "default"

// FanoutPayload 是扇出任务的数据。
// FollowerIDs 为空表示通知作者的全部关注者；重试时只携带上次失败的关注者。
type FanoutPayload struct {
	PostID      uint   `json:"post_id"`
	AuthorID    uint   `json:"author_id"`
	FollowerIDs []uint `json:"follower_ids,omitempty"`
	Attempt     int    `json:"attempt"`
}

// NewFanoutTask 创建扇出任务。
// asynq 自身的重试只处理整体失败，部分失败由 worker 重新入队。
func NewFanoutTask(payload FanoutPayload) (*asynq.Task, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal fanout payload: %w", err)
	}
	return asynq.NewTask(TypeNotificationFanout, payloadBytes,
		asynq.Queue(QueueNotifications),
		asynq.MaxRetry(3),
		asynq.Timeout(2*time.Minute),
	), nil
}

// ParseFanoutPayload 解析扇出任务数据。
func ParseFanoutPayload(t *asynq.Task) (FanoutPayload, error) {
	var payload FanoutPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return payload, fmt.Errorf("failed to unmarshal fanout payload: %w", err)
	}
	return payload, nil
}

// Enqueuer 由 *asynq.Client 实现。
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// AsyncDispatcher 把通知扇出放到 asynq 队列中，由 worker 执行。
type AsyncDispatcher struct {
	enqueuer Enqueuer
}

func NewAsyncDispatcher(enqueuer Enqueuer) *AsyncDispatcher {
	if enqueuer == nil {
		panic("Enqueuer cannot be nil for AsyncDispatcher")
	}
	return &AsyncDispatcher{enqueuer: enqueuer}
}

// Dispatch 为新文章入队一个扇出任务。
func (d *AsyncDispatcher) Dispatch(ctx context.Context, post domain.Post) error {
	task, err := NewFanoutTask(FanoutPayload{PostID: post.ID, AuthorID: post.AuthorID, Attempt: 1})
	if err != nil {
		return err
	}
	if _, err := d.enqueuer.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue fanout task for post %d: %w", post.ID, err)
	}
	return nil
}
