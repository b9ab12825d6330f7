package service_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/repository"
	"minimal-blog/internal/repository/mocks"
	"minimal-blog/internal/service"
)

// mockDispatcher 记录 Dispatch 调用
type mockDispatcher struct {
	mock.Mock
}

func (m *mockDispatcher) Dispatch(ctx context.Context, post domain.Post) error {
	return m.Called(ctx, post).Error(0)
}

func newPostService(t *testing.T) (*service.PostService, *mocks.PostRepository, *mockDispatcher) {
	postRepo := mocks.NewPostRepository(t)
	dispatcher := &mockDispatcher{}
	dispatcher.Test(t)
	t.Cleanup(func() { dispatcher.AssertExpectations(t) })
	return service.NewPostService(postRepo, dispatcher), postRepo, dispatcher
}

var (
	aliceSession = &domain.Session{ID: "alice-session", UserID: 1}
	bobSession   = &domain.Session{ID: "bob-session", UserID: 2}
)

func TestPostService_CreatePost_DispatchesNotifications(t *testing.T) {
	postService, postRepo, dispatcher := newPostService(t)

	postRepo.On("Create", mock.Anything, mock.MatchedBy(func(p *domain.Post) bool {
		return p.Title == "Hello" && p.Content == "World" && p.AuthorID == 1 && p.Category == "news"
	})).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Post).ID = 10 }).
		Return(nil).
		Once()
	dispatcher.On("Dispatch", mock.Anything, mock.MatchedBy(func(p domain.Post) bool {
		return p.ID == 10 && p.AuthorID == 1
	})).Return(nil).Once()

	post, err := postService.CreatePost(context.Background(), aliceSession, service.PostInput{
		Title: "Hello", Content: "World", Tags: "go", Category: "news",
	})

	require.NoError(t, err)
	assert.Equal(t, uint(10), post.ID)
	assert.Equal(t, uint(1), post.AuthorID)
}

func TestPostService_CreatePost_DispatchFailureKeepsPost(t *testing.T) {
	postService, postRepo, dispatcher := newPostService(t)

	postRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { args.Get(1).(*domain.Post).ID = 11 }).
		Return(nil).
		Once()
	dispatcher.On("Dispatch", mock.Anything, mock.Anything).
		Return(service.ErrFanoutIncomplete).
		Once()

	post, err := postService.CreatePost(context.Background(), aliceSession, service.PostInput{Title: "T", Content: "C"})

	require.NoError(t, err, "文章已提交，通知失败不影响结果")
	assert.Equal(t, uint(11), post.ID)
}

func TestPostService_CreatePost_Validation(t *testing.T) {
	postService, _, _ := newPostService(t)

	_, err := postService.CreatePost(context.Background(), aliceSession, service.PostInput{Title: "  ", Content: "C"})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = postService.CreatePost(context.Background(), aliceSession, service.PostInput{Title: "T"})
	assert.ErrorIs(t, err, service.ErrValidation)

	_, err = postService.CreatePost(context.Background(), nil, service.PostInput{Title: "T", Content: "C"})
	assert.ErrorIs(t, err, service.ErrUnauthenticated)
}

func TestPostService_EditPost_ByAuthor(t *testing.T) {
	postService, postRepo, _ := newPostService(t)

	postRepo.On("FindByID", mock.Anything, uint(10)).
		Return(&domain.Post{ID: 10, Title: "Old", Content: "Old", AuthorID: 1, Tags: "t"}, nil).
		Once()
	postRepo.On("Update", mock.Anything, mock.MatchedBy(func(p *domain.Post) bool {
		return p.ID == 10 && p.AuthorID == 1 && p.Title == "New" && p.Content == "Body" && p.Tags == "t"
	})).Return(nil).Once()

	post, err := postService.EditPost(context.Background(), aliceSession, 10, "New", "Body")

	require.NoError(t, err)
	assert.Equal(t, "New", post.Title)
	assert.Equal(t, uint(1), post.AuthorID, "编辑不会改变作者")
}

func TestPostService_EditPost_ByOtherUserIsForbidden(t *testing.T) {
	postService, postRepo, _ := newPostService(t)

	postRepo.On("FindByID", mock.Anything, uint(10)).
		Return(&domain.Post{ID: 10, Title: "Old", Content: "Old", AuthorID: 1}, nil).
		Once()

	post, err := postService.EditPost(context.Background(), bobSession, 10, "Hacked", "Hacked")

	assert.Nil(t, post)
	assert.ErrorIs(t, err, service.ErrForbidden)
	postRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestPostService_EditPost_NotFound(t *testing.T) {
	postService, postRepo, _ := newPostService(t)

	postRepo.On("FindByID", mock.Anything, uint(99)).Return(nil, repository.ErrPostNotFound).Once()

	_, err := postService.EditPost(context.Background(), aliceSession, 99, "T", "C")
	assert.ErrorIs(t, err, service.ErrPostNotFound)
}

func TestPostService_DeletePost(t *testing.T) {
	t.Run("author deletes", func(t *testing.T) {
		postService, postRepo, _ := newPostService(t)
		postRepo.On("FindByID", mock.Anything, uint(10)).Return(&domain.Post{ID: 10, AuthorID: 1}, nil).Once()
		postRepo.On("Delete", mock.Anything, uint(10)).Return(nil).Once()

		assert.NoError(t, postService.DeletePost(context.Background(), aliceSession, 10))
	})

	t.Run("other user is forbidden", func(t *testing.T) {
		postService, postRepo, _ := newPostService(t)
		postRepo.On("FindByID", mock.Anything, uint(10)).Return(&domain.Post{ID: 10, AuthorID: 1}, nil).Once()

		err := postService.DeletePost(context.Background(), bobSession, 10)
		assert.ErrorIs(t, err, service.ErrForbidden)
		postRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("missing post", func(t *testing.T) {
		postService, postRepo, _ := newPostService(t)
		postRepo.On("FindByID", mock.Anything, uint(10)).Return(nil, repository.ErrPostNotFound).Once()

		assert.ErrorIs(t, postService.DeletePost(context.Background(), aliceSession, 10), service.ErrPostNotFound)
	})

	t.Run("repository failure", func(t *testing.T) {
		postService, postRepo, _ := newPostService(t)
		postRepo.On("FindByID", mock.Anything, uint(10)).Return(&domain.Post{ID: 10, AuthorID: 1}, nil).Once()
		postRepo.On("Delete", mock.Anything, uint(10)).Return(errors.New("disk full")).Once()

		assert.ErrorIs(t, postService.DeletePost(context.Background(), aliceSession, 10), service.ErrInternalServer)
	})
}

func TestPostService_GetPostForEdit(t *testing.T) {
	postService, postRepo, _ := newPostService(t)
	postRepo.On("FindByID", mock.Anything, uint(10)).Return(&domain.Post{ID: 10, AuthorID: 1}, nil).Twice()

	post, err := postService.GetPostForEdit(context.Background(), aliceSession, 10)
	require.NoError(t, err)
	assert.Equal(t, uint(10), post.ID)

	_, err = postService.GetPostForEdit(context.Background(), bobSession, 10)
	assert.ErrorIs(t, err, service.ErrForbidden)
}

func TestPostService_ListPostsByAuthor(t *testing.T) {
	postService, postRepo, _ := newPostService(t)
	posts := []domain.Post{{ID: 1, AuthorID: 1}, {ID: 3, AuthorID: 1}}
	postRepo.On("ListByAuthor", mock.Anything, uint(1)).Return(posts, nil).Once()

	got, err := postService.ListPostsByAuthor(context.Background(), 1)
	require.NoError(t, err)
	assert.Equal(t, posts, got)
}
