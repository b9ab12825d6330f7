package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewPostMessage(t *testing.T) {
	assert.Equal(t, "New post from alice: Hello", NewPostMessage("alice", "Hello"))
}

func TestSessionExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s := &Session{ExpiresAt: now}

	assert.False(t, s.Expired(now.Add(-time.Second)))
	assert.True(t, s.Expired(now))
	assert.True(t, s.Expired(now.Add(time.Second)))
}

func TestIsOwnedBy(t *testing.T) {
	post := &Post{AuthorID: 1}
	assert.True(t, post.IsOwnedBy(1))
	assert.False(t, post.IsOwnedBy(2))

	var nilPost *Post
	assert.False(t, nilPost.IsOwnedBy(1))

	comment := &Comment{AuthorID: 2}
	assert.True(t, comment.IsOwnedBy(2))
	assert.False(t, comment.IsOwnedBy(1))
}
