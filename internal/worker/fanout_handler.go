package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/sirupsen/logrus"

	"minimal-blog/internal/service"
	"minimal-blog/internal/tasks"
)

// DefaultMaxFanoutAttempts 是部分失败的扇出最多执行的轮数。
const DefaultMaxFanoutAttempts = 3

// Fanouter 执行一次通知扇出，由 *service.NotificationService 实现。
type Fanouter interface {
	FanOut(ctx context.Context, req service.FanoutRequest) (*service.FanoutReport, error)
}

// FanoutHandler 处理通知扇出任务
type FanoutHandler struct {
	fanouter    Fanouter
	enqueuer    tasks.Enqueuer
	maxAttempts int
	retryDelay  time.Duration
}

// NewFanoutHandler 创建 Handler 实例
func NewFanoutHandler(fanouter Fanouter, enqueuer tasks.Enqueuer, maxAttempts int) *FanoutHandler {
	if fanouter == nil {
		panic("Fanouter cannot be nil for FanoutHandler")
	}
	if enqueuer == nil {
		panic("Enqueuer cannot be nil for FanoutHandler")
	}
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxFanoutAttempts
	}
	return &FanoutHandler{
		fanouter:    fanouter,
		enqueuer:    enqueuer,
		maxAttempts: maxAttempts,
		retryDelay:  30 * time.Second,
	}
}

// ProcessTask 实现 asynq.Handler 接口
func (h *FanoutHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	taskID := ""
	if rw := t.ResultWriter(); rw != nil {
		taskID = rw.TaskID()
	}
	logCtx := logrus.WithFields(logrus.Fields{
		"task_id":   taskID,
		"task_type": t.Type(),
	})

	payload, err := tasks.ParseFanoutPayload(t)
	if err != nil {
		logCtx.WithError(err).Error("Failed to unmarshal task payload")
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	logCtx = logCtx.WithFields(logrus.Fields{
		"post_id": payload.PostID,
		"attempt": payload.Attempt,
	})
	logCtx.Info("Processing notification fan-out task...")

	report, err := h.fanouter.FanOut(ctx, service.FanoutRequest{
		PostID:      payload.PostID,
		AuthorID:    payload.AuthorID,
		FollowerIDs: payload.FollowerIDs,
	})
	if err != nil {
		// 文章或作者已被删除，重试没有意义
		if errors.Is(err, service.ErrPostNotFound) || errors.Is(err, service.ErrUserNotFound) {
			logCtx.WithError(err).Warn("Fan-out target no longer exists, dropping task")
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		logCtx.WithError(err).Error("Notification fan-out failed")
		return err
	}

	h.writeResult(t, report, logCtx)

	if report.Complete() {
		logCtx.WithField("notified", len(report.Succeeded)).Info("Notification fan-out task processed successfully")
		return nil
	}
	if payload.Attempt >= h.maxAttempts {
		logCtx.WithField("failed_followers", report.Failed).Error("Fan-out attempts exhausted, some followers were not notified")
		return nil
	}

	retry := tasks.FanoutPayload{
		PostID:      payload.PostID,
		AuthorID:    payload.AuthorID,
		FollowerIDs: report.Failed,
		Attempt:     payload.Attempt + 1,
	}
	task, err := tasks.NewFanoutTask(retry)
	if err != nil {
		logCtx.WithError(err).Error("Failed to build retry task for failed followers")
		return nil
	}
	if _, err := h.enqueuer.EnqueueContext(ctx, task, asynq.ProcessIn(h.retryDelay)); err != nil {
		logCtx.WithError(err).Error("Failed to enqueue retry for failed followers")
		return nil
	}
	logCtx.WithField("failed_followers", len(report.Failed)).Warn("Fan-out partially failed, retry enqueued")
	return nil
}

func (h *FanoutHandler) writeResult(t *asynq.Task, report *service.FanoutReport, logCtx *logrus.Entry) {
	rw := t.ResultWriter()
	if rw == nil {
		return
	}
	data, err := json.Marshal(report)
	if err != nil {
		return
	}
	if _, err := rw.Write(data); err != nil {
		logCtx.WithError(err).Debug("Failed to write fan-out report to task result")
	}
}
