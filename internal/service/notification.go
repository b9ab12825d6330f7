package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
)

// DefaultFanoutBatchSize 是每次批量写入通知的最大条数。
const DefaultFanoutBatchSize = 100

// NotificationPublisher 把已保存的通知推送给在线的接收者。
type NotificationPublisher interface {
	Publish(ctx context.Context, notification domain.Notification) error
}

// FanoutRequest 描述一次通知扇出。
// FollowerIDs 为空时通知作者的全部关注者，否则只通知列出的用户（用于重试失败的部分）。
type FanoutRequest struct {
	PostID      uint   `json:"post_id"`
	AuthorID    uint   `json:"author_id"`
	FollowerIDs []uint `json:"follower_ids,omitempty"`
}

// FanoutReport 记录扇出结果，按关注者区分成功与失败。
type FanoutReport struct {
	PostID    uint   `json:"post_id"`
	Succeeded []uint `json:"succeeded"`
	Failed    []uint `json:"failed"`
}

// Complete reports whether every follower received a notification.
func (r *FanoutReport) Complete() bool {
	return len(r.Failed) == 0
}

// NotificationService 负责通知扇出和通知列表。
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	followRepo       repository.FollowRepository
	userRepo         repository.UserRepository
	postRepo         repository.PostRepository
	publisher        NotificationPublisher // 可选
	batchSize        int
	now              func() time.Time
}

// NewNotificationService 创建 NotificationService 实例。publisher 可以为 nil。
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	followRepo repository.FollowRepository,
	userRepo repository.UserRepository,
	postRepo repository.PostRepository,
	publisher NotificationPublisher,
	batchSize int,
) *NotificationService {
	if notificationRepo == nil || followRepo == nil || userRepo == nil || postRepo == nil {
		panic("All repositories must be non-nil for NotificationService")
	}
	if batchSize <= 0 {
		batchSize = DefaultFanoutBatchSize
	}
	return &NotificationService{
		notificationRepo: notificationRepo,
		followRepo:       followRepo,
		userRepo:         userRepo,
		postRepo:         postRepo,
		publisher:        publisher,
		batchSize:        batchSize,
		now:              time.Now,
	}
}

// FanOut 加载作者与文章后执行扇出，供异步任务使用。
func (s *NotificationService) FanOut(ctx context.Context, req FanoutRequest) (*FanoutReport, error) {
	logCtx := logrus.WithFields(logrus.Fields{"post_id": req.PostID, "author_id": req.AuthorID})

	author, err := s.userRepo.FindByID(ctx, req.AuthorID)
	if err != nil {
		logCtx.WithError(err).Warn("FanOut: failed to load author")
		return nil, mapRepoError(err, ErrUserNotFound)
	}
	post, err := s.postRepo.FindByID(ctx, req.PostID)
	if err != nil {
		logCtx.WithError(err).Warn("FanOut: failed to load post")
		return nil, mapRepoError(err, ErrPostNotFound)
	}
	return s.NotifyFollowers(ctx, author, post, req.FollowerIDs)
}

// NotifyFollowers 为每个关注者写入一条通知。
// 按批写入，某批失败时逐条重试，从而精确报告成功和失败的关注者。
// 不去重，不在整个扇出外包事务。
func (s *NotificationService) NotifyFollowers(ctx context.Context, author *domain.User, post *domain.Post, recipients []uint) (*FanoutReport, error) {
	logCtx := logrus.WithFields(logrus.Fields{"post_id": post.ID, "author_id": author.ID})

	followerIDs := recipients
	if len(followerIDs) == 0 {
		ids, err := s.followRepo.ListFollowerIDs(ctx, author.ID)
		if err != nil {
			logCtx.WithError(err).Error("NotifyFollowers: failed to list followers")
			return nil, ErrInternalServer
		}
		followerIDs = ids
	}

	report := &FanoutReport{PostID: post.ID, Succeeded: []uint{}, Failed: []uint{}}
	message := domain.NewPostMessage(author.Username, post.Title)
	timestamp := s.now().UTC()

	for start := 0; start < len(followerIDs); start += s.batchSize {
		end := start + s.batchSize
		if end > len(followerIDs) {
			end = len(followerIDs)
		}
		batch := make([]domain.Notification, 0, end-start)
		for _, followerID := range followerIDs[start:end] {
			batch = append(batch, domain.Notification{UserID: followerID, Message: message, Timestamp: timestamp})
		}

		created := s.storeBatch(ctx, batch, report)
		for _, n := range created {
			s.publish(ctx, n)
		}
	}

	logCtx.WithFields(logrus.Fields{
		"succeeded": len(report.Succeeded),
		"failed":    len(report.Failed),
	}).Info("Follower notification fan-out finished")
	return report, nil
}

// storeBatch 写入一批通知并更新报告，返回已保存的通知。
func (s *NotificationService) storeBatch(ctx context.Context, batch []domain.Notification, report *FanoutReport) []domain.Notification {
	err := s.notificationRepo.CreateBatch(ctx, batch)
	if err == nil {
		for _, n := range batch {
			report.Succeeded = append(report.Succeeded, n.UserID)
		}
		return batch
	}

	logrus.WithError(err).WithField("batch_size", len(batch)).Warn("Notification batch insert failed, retrying one by one")
	created := make([]domain.Notification, 0, len(batch))
	for _, n := range batch {
		n.ID = 0
		if err := s.notificationRepo.Create(ctx, &n); err != nil {
			logrus.WithError(err).WithField("user_id", n.UserID).Error("Failed to store notification")
			report.Failed = append(report.Failed, n.UserID)
			continue
		}
		report.Succeeded = append(report.Succeeded, n.UserID)
		created = append(created, n)
	}
	return created
}

func (s *NotificationService) publish(ctx context.Context, n domain.Notification) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, n); err != nil {
		logrus.WithError(err).WithField("notification_id", n.ID).Debug("Live notification push skipped")
	}
}

// ListNotifications 按时间倒序返回当前用户的通知，不修改任何状态。
func (s *NotificationService) ListNotifications(ctx context.Context, session *domain.Session) ([]domain.Notification, error) {
	if session == nil {
		return nil, ErrUnauthenticated
	}
	notifications, err := s.notificationRepo.ListByUser(ctx, session.UserID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", session.UserID).Error("Failed to list notifications")
		return nil, ErrInternalServer
	}
	return notifications, nil
}

// InlineDispatcher 在发布请求中同步执行扇出。
type InlineDispatcher struct {
	notifications *NotificationService
}

func NewInlineDispatcher(notifications *NotificationService) *InlineDispatcher {
	if notifications == nil {
		panic("NotificationService cannot be nil for InlineDispatcher")
	}
	return &InlineDispatcher{notifications: notifications}
}

func (d *InlineDispatcher) Dispatch(ctx context.Context, post domain.Post) error {
	report, err := d.notifications.FanOut(ctx, FanoutRequest{PostID: post.ID, AuthorID: post.AuthorID})
	if err != nil {
		return err
	}
	if !report.Complete() {
		return fmt.Errorf("%w: %d of %d followers not notified", ErrFanoutIncomplete, len(report.Failed), len(report.Failed)+len(report.Succeeded))
	}
	return nil
}
