package service

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
)

// ProfileInput 是可编辑的个人资料字段。DateOfBirth 为空表示清除。
type ProfileInput struct {
	Name        string
	Email       string
	DateOfBirth string
}

// ProfileService 读取和更新当前用户的个人资料。
type ProfileService struct {
	userRepo repository.UserRepository
}

func NewProfileService(userRepo repository.UserRepository) *ProfileService {
	if userRepo == nil {
		panic("UserRepository cannot be nil for ProfileService")
	}
	return &ProfileService{userRepo: userRepo}
}

// GetProfile 返回当前用户，密码哈希已清除。
func (s *ProfileService) GetProfile(ctx context.Context, session *domain.Session) (*domain.User, error) {
	if session == nil {
		return nil, ErrUnauthenticated
	}
	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		mapped := mapRepoError(err, ErrUserNotFound)
		if mapped == ErrInternalServer {
			logrus.WithError(err).WithField("user_id", session.UserID).Error("GetProfile: repository error")
		}
		return nil, mapped
	}
	user.Password = ""
	return user, nil
}

// UpdateProfile 覆盖姓名、邮箱和出生日期。
func (s *ProfileService) UpdateProfile(ctx context.Context, session *domain.Session, input ProfileInput) (*domain.User, error) {
	if session == nil {
		return nil, ErrUnauthenticated
	}
	var dob *time.Time
	if input.DateOfBirth != "" {
		d, err := time.ParseInLocation(DateLayout, input.DateOfBirth, time.UTC)
		if err != nil {
			return nil, fmt.Errorf("%w: date of birth must be formatted as YYYY-MM-DD", ErrValidation)
		}
		dob = &d
	}

	user, err := s.userRepo.FindByID(ctx, session.UserID)
	if err != nil {
		mapped := mapRepoError(err, ErrUserNotFound)
		if mapped == ErrInternalServer {
			logrus.WithError(err).WithField("user_id", session.UserID).Error("UpdateProfile: repository error")
		}
		return nil, mapped
	}
	user.Name = input.Name
	user.Email = input.Email
	user.DateOfBirth = dob
	if err := s.userRepo.Save(ctx, user); err != nil {
		logrus.WithError(err).WithField("user_id", session.UserID).Error("Failed to save profile")
		return nil, ErrInternalServer
	}
	logrus.WithField("user_id", user.ID).Info("Profile updated")
	user.Password = ""
	return user, nil
}
