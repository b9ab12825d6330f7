package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
)

// CommentService 管理文章下的评论。
type CommentService struct {
	commentRepo repository.CommentRepository
	postRepo    repository.PostRepository
}

func NewCommentService(commentRepo repository.CommentRepository, postRepo repository.PostRepository) *CommentService {
	if commentRepo == nil || postRepo == nil {
		panic("CommentRepository and PostRepository must be non-nil for CommentService")
	}
	return &CommentService{commentRepo: commentRepo, postRepo: postRepo}
}

// AddComment 以当前用户身份在文章下添加评论。
func (s *CommentService) AddComment(ctx context.Context, session *domain.Session, postID uint, text string) (*domain.Comment, error) {
	if session == nil {
		return nil, ErrUnauthenticated
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: comment text is required", ErrValidation)
	}
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}

	comment := &domain.Comment{Text: text, PostID: postID, AuthorID: session.UserID}
	if err := s.commentRepo.Create(ctx, comment); err != nil {
		logrus.WithError(err).WithField("post_id", postID).Error("Failed to save comment")
		return nil, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"post_id": postID, "comment_id": comment.ID, "user_id": session.UserID}).Info("Comment added")
	return comment, nil
}

// ListComments 返回文章的评论，按发布先后排序。
func (s *CommentService) ListComments(ctx context.Context, postID uint) ([]domain.Comment, error) {
	if err := s.ensurePost(ctx, postID); err != nil {
		return nil, err
	}
	comments, err := s.commentRepo.ListByPost(ctx, postID)
	if err != nil {
		logrus.WithError(err).WithField("post_id", postID).Error("Failed to list comments")
		return nil, ErrInternalServer
	}
	return comments, nil
}

// DeleteComment 删除评论，只有评论作者可以删除。
func (s *CommentService) DeleteComment(ctx context.Context, session *domain.Session, commentID uint) error {
	if session == nil {
		return ErrUnauthenticated
	}
	logCtx := logrus.WithFields(logrus.Fields{"comment_id": commentID, "user_id": session.UserID})

	comment, err := s.commentRepo.FindByID(ctx, commentID)
	if err != nil {
		mapped := mapRepoError(err, ErrCommentNotFound)
		if mapped == ErrInternalServer {
			logCtx.WithError(err).Error("DeleteComment: repository error")
		}
		return mapped
	}
	if !comment.IsOwnedBy(session.UserID) {
		logCtx.Warn("DeleteComment: user is not the comment author")
		return ErrForbidden
	}
	if err := s.commentRepo.Delete(ctx, commentID); err != nil {
		mapped := mapRepoError(err, ErrCommentNotFound)
		if mapped == ErrInternalServer {
			logCtx.WithError(err).Error("Failed to delete comment")
		}
		return mapped
	}
	logCtx.Info("Comment deleted")
	return nil
}

func (s *CommentService) ensurePost(ctx context.Context, postID uint) error {
	if _, err := s.postRepo.FindByID(ctx, postID); err != nil {
		mapped := mapRepoError(err, ErrPostNotFound)
		if mapped == ErrInternalServer {
			logrus.WithError(err).WithField("post_id", postID).Error("Failed to look up post")
		}
		return mapped
	}
	return nil
}
