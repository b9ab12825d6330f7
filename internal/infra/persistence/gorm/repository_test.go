package gormpersistence

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"minimal-blog/internal/domain"
	"minimal-blog/internal/infra/setup"
	"minimal-blog/internal/repository"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := setup.InitDB(setup.DBOptions{Driver: "sqlite", Path: ":memory:", LogLevel: logger.Silent})
	require.NoError(t, err)
	require.NoError(t, setup.MigrateDB(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func createUser(t *testing.T, repo *GormUserRepository, username string) *domain.User {
	t.Helper()
	user := &domain.User{Username: username, Password: "hash"}
	require.NoError(t, repo.Save(context.Background(), user))
	return user
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormUserRepository(newTestDB(t))

	alice := createUser(t, repo, "alice")
	assert.NotZero(t, alice.ID)

	found, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, found.ID)

	_, err = repo.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	_, err = repo.FindByID(ctx, 999)
	assert.ErrorIs(t, err, repository.ErrUserNotFound)

	err = repo.Save(ctx, &domain.User{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)
}

func TestPostRepository_DeleteCascadesToComments(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	posts := NewGormPostRepository(db)
	comments := NewGormCommentRepository(db)

	alice := createUser(t, users, "alice")
	post := &domain.Post{Title: "T", Content: "C", AuthorID: alice.ID}
	require.NoError(t, posts.Create(ctx, post))
	other := &domain.Post{Title: "Other", Content: "C", AuthorID: alice.ID}
	require.NoError(t, posts.Create(ctx, other))

	require.NoError(t, comments.Create(ctx, &domain.Comment{Text: "first", PostID: post.ID, AuthorID: alice.ID}))
	require.NoError(t, comments.Create(ctx, &domain.Comment{Text: "second", PostID: post.ID, AuthorID: alice.ID}))
	require.NoError(t, comments.Create(ctx, &domain.Comment{Text: "keep", PostID: other.ID, AuthorID: alice.ID}))

	require.NoError(t, posts.Delete(ctx, post.ID))

	_, err := posts.FindByID(ctx, post.ID)
	assert.ErrorIs(t, err, repository.ErrPostNotFound)

	var remaining int64
	require.NoError(t, db.Model(&domain.Comment{}).Where("post_id = ?", post.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)

	kept, err := comments.ListByPost(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, kept, 1)

	assert.ErrorIs(t, posts.Delete(ctx, post.ID), repository.ErrPostNotFound)
}

func TestPostRepository_UpdateKeepsIdentity(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	posts := NewGormPostRepository(db)
	alice := createUser(t, NewGormUserRepository(db), "alice")

	post := &domain.Post{Title: "Old", Content: "Old", Tags: "go", AuthorID: alice.ID}
	require.NoError(t, posts.Create(ctx, post))

	post.Title = "New"
	post.Content = "Body"
	require.NoError(t, posts.Update(ctx, post))

	got, err := posts.FindByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Title)
	assert.Equal(t, "Body", got.Content)
	assert.Equal(t, "go", got.Tags)
	assert.Equal(t, alice.ID, got.AuthorID)
}

func TestPostRepository_SearchCandidatesEscapesWildcards(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	posts := NewGormPostRepository(db)
	alice := createUser(t, NewGormUserRepository(db), "alice")

	for _, p := range []domain.Post{
		{Title: "100% Go", Content: "c"},
		{Title: "1000 Go", Content: "c"},
		{Title: "snake_case", Content: "c"},
		{Title: "snakeXcase", Content: "c"},
		{Title: "other", Content: "c", Tags: "100%"},
	} {
		p.AuthorID = alice.ID
		require.NoError(t, posts.Create(ctx, &p))
	}

	found, err := posts.SearchCandidates(ctx, "100%")
	require.NoError(t, err)
	assert.Equal(t, []string{"100% Go", "other"}, titles(found))

	found, err = posts.SearchCandidates(ctx, "snake_")
	require.NoError(t, err)
	assert.Equal(t, []string{"snake_case"}, titles(found))

	found, err = posts.SearchCandidates(ctx, "")
	require.NoError(t, err)
	assert.Len(t, found, 5)
}

func TestPostRepository_FilterByCategoryAndDay(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	posts := NewGormPostRepository(db)
	alice := createUser(t, NewGormUserRepository(db), "alice")

	day := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	for _, p := range []domain.Post{
		{Title: "early", Category: "news", CreatedAt: day},
		{Title: "late", Category: "news", CreatedAt: day.Add(23*time.Hour + 59*time.Minute)},
		{Title: "next day", Category: "news", CreatedAt: day.Add(24 * time.Hour)},
		{Title: "other category", Category: "tech", CreatedAt: day.Add(time.Hour)},
	} {
		p.AuthorID = alice.ID
		p.Content = "c"
		require.NoError(t, posts.Create(ctx, &p))
	}

	found, err := posts.Filter(ctx, repository.PostFilter{Category: "news", From: day, To: day.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late"}, titles(found))

	found, err = posts.Filter(ctx, repository.PostFilter{From: day, To: day.Add(24 * time.Hour)})
	require.NoError(t, err)
	assert.Equal(t, []string{"early", "late", "other category"}, titles(found))

	found, err = posts.Filter(ctx, repository.PostFilter{Category: "tech"})
	require.NoError(t, err)
	assert.Equal(t, []string{"other category"}, titles(found))
}

func TestFollowRepository(t *testing.T) {
	ctx := context.Background()
	db := newTestDB(t)
	users := NewGormUserRepository(db)
	follows := NewGormFollowRepository(db)

	alice := createUser(t, users, "alice")
	bob := createUser(t, users, "bob")
	carol := createUser(t, users, "carol")

	require.NoError(t, follows.Create(ctx, &domain.Follow{FollowerID: bob.ID, FolloweeID: alice.ID}))
	require.NoError(t, follows.Create(ctx, &domain.Follow{FollowerID: carol.ID, FolloweeID: alice.ID}))
	err := follows.Create(ctx, &domain.Follow{FollowerID: bob.ID, FolloweeID: alice.ID})
	assert.ErrorIs(t, err, repository.ErrDuplicateEntry)

	ids, err := follows.ListFollowerIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{bob.ID, carol.ID}, ids)

	followers, err := follows.ListFollowers(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, followers, 2)
	assert.Equal(t, "bob", followers[0].Username)

	following, err := follows.ListFollowing(ctx, bob.ID)
	require.NoError(t, err)
	require.Len(t, following, 1)
	assert.Equal(t, "alice", following[0].Username)

	require.NoError(t, follows.Delete(ctx, bob.ID, alice.ID))
	require.NoError(t, follows.Delete(ctx, bob.ID, alice.ID), "重复取消关注不报错")

	ids, err = follows.ListFollowerIDs(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, []uint{carol.ID}, ids)
}

func TestNotificationRepository_NewestFirst(t *testing.T) {
	ctx := context.Background()
	repo := NewGormNotificationRepository(newTestDB(t))

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.CreateBatch(ctx, []domain.Notification{
		{UserID: 2, Message: "old", Timestamp: base},
		{UserID: 3, Message: "for carol", Timestamp: base},
	}))
	require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: 2, Message: "new", Timestamp: base.Add(time.Minute)}))
	require.NoError(t, repo.Create(ctx, &domain.Notification{UserID: 2, Message: "same time, later id", Timestamp: base.Add(time.Minute)}))
	require.NoError(t, repo.CreateBatch(ctx, nil))

	list, err := repo.ListByUser(ctx, 2)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "same time, later id", list[0].Message)
	assert.Equal(t, "new", list[1].Message)
	assert.Equal(t, "old", list[2].Message)

	empty, err := repo.ListByUser(ctx, 42)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewGormSessionRepository(newTestDB(t))

	now := time.Now().UTC()
	session := &domain.Session{ID: "0b7c1f3e-session", UserID: 1, CreatedAt: now, ExpiresAt: now.Add(time.Hour)}
	require.NoError(t, repo.Save(ctx, session))

	found, err := repo.FindByID(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(1), found.UserID)
	assert.WithinDuration(t, session.ExpiresAt, found.ExpiresAt, time.Millisecond)

	require.NoError(t, repo.Delete(ctx, session.ID))
	require.NoError(t, repo.Delete(ctx, session.ID))

	_, err = repo.FindByID(ctx, session.ID)
	assert.ErrorIs(t, err, repository.ErrSessionNotFound)
}

func titles(posts []domain.Post) []string {
	out := make([]string, 0, len(posts))
	for _, p := range posts {
		out = append(out, p.Title)
	}
	return out
}
