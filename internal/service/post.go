package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
)

// NotificationDispatcher 在文章发布后触发对关注者的通知扇出。
type NotificationDispatcher interface {
	Dispatch(ctx context.Context, post domain.Post) error
}

// PostInput 是创建文章时提交的字段。
type PostInput struct {
	Title    string
	Content  string
	Tags     string
	Category string
}

// PostService 负责文章的创建、修改、删除与作者权限校验。
type PostService struct {
	postRepo   repository.PostRepository
	dispatcher NotificationDispatcher
}

// NewPostService 创建 PostService 实例。
func NewPostService(postRepo repository.PostRepository, dispatcher NotificationDispatcher) *PostService {
	if postRepo == nil {
		panic("PostRepository cannot be nil for PostService")
	}
	if dispatcher == nil {
		panic("NotificationDispatcher cannot be nil for PostService")
	}
	return &PostService{postRepo: postRepo, dispatcher: dispatcher}
}

// CreatePost 保存文章后分发通知。
// 分发失败只记录日志，文章已经提交，不回滚。
func (s *PostService) CreatePost(ctx context.Context, session *domain.Session, input PostInput) (*domain.Post, error) {
	if session == nil {
		return nil, ErrUnauthenticated
	}
	logCtx := logrus.WithField("author_id", session.UserID)

	if strings.TrimSpace(input.Title) == "" || strings.TrimSpace(input.Content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}

	post := &domain.Post{
		Title:    input.Title,
		Content:  input.Content,
		Tags:     input.Tags,
		Category: input.Category,
		AuthorID: session.UserID,
	}
	if err := s.postRepo.Create(ctx, post); err != nil {
		logCtx.WithError(err).Error("Failed to save new post")
		return nil, ErrInternalServer
	}
	logCtx = logCtx.WithField("post_id", post.ID)

	if err := s.dispatcher.Dispatch(ctx, *post); err != nil {
		logCtx.WithError(err).Error("Failed to dispatch follower notifications")
	}

	logCtx.Info("Post created successfully")
	return post, nil
}

// GetPost 根据 ID 查找文章。
func (s *PostService) GetPost(ctx context.Context, postID uint) (*domain.Post, error) {
	post, err := s.postRepo.FindByID(ctx, postID)
	if err != nil {
		mapped := mapRepoError(err, ErrPostNotFound)
		if mapped == ErrInternalServer {
			logrus.WithError(err).WithField("post_id", postID).Error("GetPost: repository error")
		}
		return nil, mapped
	}
	return post, nil
}

// EditPost 覆盖标题和内容，ID 与作者保持不变。
func (s *PostService) EditPost(ctx context.Context, session *domain.Session, postID uint, title, content string) (*domain.Post, error) {
	post, err := s.ownedPost(ctx, session, postID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("%w: title and content are required", ErrValidation)
	}

	post.Title = title
	post.Content = content
	if err := s.postRepo.Update(ctx, post); err != nil {
		logrus.WithError(err).WithField("post_id", postID).Error("Failed to update post")
		return nil, ErrInternalServer
	}
	logrus.WithFields(logrus.Fields{"post_id": postID, "user_id": session.UserID}).Info("Post updated successfully")
	return post, nil
}

// DeletePost 永久删除文章及其评论。
func (s *PostService) DeletePost(ctx context.Context, session *domain.Session, postID uint) error {
	if _, err := s.ownedPost(ctx, session, postID); err != nil {
		return err
	}
	if err := s.postRepo.Delete(ctx, postID); err != nil {
		// 并发删除时另一请求可能已经删掉
		mapped := mapRepoError(err, ErrPostNotFound)
		if mapped == ErrInternalServer {
			logrus.WithError(err).WithField("post_id", postID).Error("Failed to delete post")
		}
		return mapped
	}
	logrus.WithFields(logrus.Fields{"post_id": postID, "user_id": session.UserID}).Info("Post deleted successfully")
	return nil
}

// ListPostsByAuthor 按插入顺序返回作者的文章。
func (s *PostService) ListPostsByAuthor(ctx context.Context, authorID uint) ([]domain.Post, error) {
	posts, err := s.postRepo.ListByAuthor(ctx, authorID)
	if err != nil {
		logrus.WithError(err).WithField("author_id", authorID).Error("Failed to list posts by author")
		return nil, ErrInternalServer
	}
	return posts, nil
}

// ownedPost 加载文章并校验当前会话用户是否为作者。
func (s *PostService) ownedPost(ctx context.Context, session *domain.Session, postID uint) (*domain.Post, error) {
	if session == nil {
		return nil, ErrUnauthenticated
	}
	post, err := s.GetPost(ctx, postID)
	if err != nil {
		return nil, err
	}
	if !post.IsOwnedBy(session.UserID) {
		logrus.WithFields(logrus.Fields{
			"post_id":   postID,
			"author_id": post.AuthorID,
			"user_id":   session.UserID,
		}).Warn("Rejected post mutation by non-author")
		return nil, ErrForbidden
	}
	return post, nil
}

// GetPostForEdit 返回可由当前用户编辑的文章。
func (s *PostService) GetPostForEdit(ctx context.Context, session *domain.Session, postID uint) (*domain.Post, error) {
	return s.ownedPost(ctx, session, postID)
}
