package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
)

// FollowService 管理用户之间的关注关系。
type FollowService struct {
	followRepo repository.FollowRepository
	userRepo   repository.UserRepository
}

func NewFollowService(followRepo repository.FollowRepository, userRepo repository.UserRepository) *FollowService {
	if followRepo == nil || userRepo == nil {
		panic("FollowRepository and UserRepository must be non-nil for FollowService")
	}
	return &FollowService{followRepo: followRepo, userRepo: userRepo}
}

// Follow 让当前用户关注 username。重复关注不报错。
func (s *FollowService) Follow(ctx context.Context, session *domain.Session, username string) (*domain.User, error) {
	target, err := s.target(ctx, session, username)
	if err != nil {
		return nil, err
	}
	logCtx := logrus.WithFields(logrus.Fields{"follower_id": session.UserID, "followee_id": target.ID})

	err = s.followRepo.Create(ctx, &domain.Follow{FollowerID: session.UserID, FolloweeID: target.ID})
	if err != nil && !errors.Is(err, repository.ErrDuplicateEntry) {
		logCtx.WithError(err).Error("Failed to save follow")
		return nil, ErrInternalServer
	}
	logCtx.Info("User followed")
	return target, nil
}

// Unfollow 取消关注，未关注时同样成功。
func (s *FollowService) Unfollow(ctx context.Context, session *domain.Session, username string) (*domain.User, error) {
	target, err := s.target(ctx, session, username)
	if err != nil {
		return nil, err
	}
	if err := s.followRepo.Delete(ctx, session.UserID, target.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
		logrus.WithError(err).WithField("followee_id", target.ID).Error("Failed to delete follow")
		return nil, ErrInternalServer
	}
	return target, nil
}

func (s *FollowService) ListFollowers(ctx context.Context, userID uint) ([]domain.User, error) {
	users, err := s.followRepo.ListFollowers(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to list followers")
		return nil, ErrInternalServer
	}
	return users, nil
}

func (s *FollowService) ListFollowing(ctx context.Context, userID uint) ([]domain.User, error) {
	users, err := s.followRepo.ListFollowing(ctx, userID)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to list followed users")
		return nil, ErrInternalServer
	}
	return users, nil
}

// target 解析被关注的用户，不允许关注自己。
func (s *FollowService) target(ctx context.Context, session *domain.Session, username string) (*domain.User, error) {
	if session == nil {
		return nil, ErrUnauthenticated
	}
	if username == "" {
		return nil, fmt.Errorf("%w: username is required", ErrValidation)
	}
	user, err := s.userRepo.FindByUsername(ctx, username)
	if err != nil {
		mapped := mapRepoError(err, ErrUserNotFound)
		if mapped == ErrInternalServer {
			logrus.WithError(err).WithField("username", username).Error("Failed to look up user")
		}
		return nil, mapped
	}
	if user.ID == session.UserID {
		return nil, fmt.Errorf("%w: you cannot follow yourself", ErrValidation)
	}
	return user, nil
}
