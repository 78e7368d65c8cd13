package domain

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestFollowUnfollow_Symmetric(t *testing.T) {
	a := &User{ID: uuid.New(), Username: "a"}
	b := &User{ID: uuid.New(), Username: "b"}

	Follow(a, b)
	assert.True(t, a.IsFollowing(b.ID))
	assert.True(t, b.IsFollowedBy(a.ID))

	Follow(a, b)
	assert.Len(t, a.Following, 1)
	assert.Len(t, b.Followers, 1)

	Unfollow(a, b)
	assert.False(t, a.IsFollowing(b.ID))
	assert.False(t, b.IsFollowedBy(a.ID))
}

func TestPublic_OmitsPrivateFields(t *testing.T) {
	u := &User{ID: uuid.New(), Username: "a", Email: "a@b.c", PasswordHash: "x"}
	p := u.Public()

	assert.Equal(t, u.ID, p.ID)
	assert.NotNil(t, p.Followers)
	assert.NotNil(t, p.Following)
}

func TestPostLikes(t *testing.T) {
	p := &Post{ID: uuid.New()}
	u := uuid.New()

	p.Like(u)
	p.Like(u)
	assert.Len(t, p.Likes, 1)
	assert.True(t, p.IsLikedBy(u))

	p.Unlike(u)
	assert.False(t, p.IsLikedBy(u))
	assert.Empty(t, p.Likes)
}
