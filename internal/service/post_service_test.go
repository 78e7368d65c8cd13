package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/domain"
	"github.com/parentingo/parentingo/internal/events"
)

func TestPostService_Create(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	g := e.group(t, alice, "general", bob)

	post, err := e.posts.Create(ctx, bob, g.ID.String(), CreatePostInput{Title: " First ", Text: "hello"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "First", post.Title)
	assert.Equal(t, bob.ID, post.AuthorID)
	assert.Equal(t, g.ID, post.GroupID)
	assert.Empty(t, post.Likes)
	assert.Nil(t, post.Image)

	stored, err := e.store.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, []events.Type{events.MemberJoined, events.PostCreated}, e.events.Types())

	_, err = e.posts.Create(ctx, bob, g.ID.String(), CreatePostInput{Title: "", Text: "hello"}, nil)
	assertAppError(t, err, apperror.KindValidation, msgInvalidInput)
	e2, _ := apperror.As(err)
	assert.Equal(t, "Title required", e2.Fields["title"])

	// membership is checked before the body
	_, err = e.posts.Create(ctx, carol, g.ID.String(), CreatePostInput{}, nil)
	assertAppError(t, err, apperror.KindForbidden, "carol is not a member of general group")

	_, err = e.posts.Create(ctx, nil, g.ID.String(), CreatePostInput{Title: "t", Text: "t"}, nil)
	assertAppError(t, err, apperror.KindUnauthenticated, msgAuthRequired)
}

func TestPostService_CreateWithImage(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	g := e.group(t, alice, "general")
	input := CreatePostInput{Title: "pic", Text: "look"}

	post, err := e.posts.Create(ctx, alice, g.ID.String(), input, image(512))
	require.NoError(t, err)
	require.NotNil(t, post.Image)
	assert.Contains(t, *post.Image, "posts/")
	assert.True(t, strings.HasSuffix(*post.Image, ".png"), *post.Image)
	obj, ok := e.blobs.Get(*post.Image)
	require.True(t, ok)
	assert.Len(t, obj.Data, 512)
	assert.Equal(t, "image/png", obj.ContentType)

	big := image(1)
	big.Size = MaxUploadSize + 1
	_, err = e.posts.Create(ctx, alice, g.ID.String(), input, big)
	assertAppError(t, err, apperror.KindTooLarge, "File too large (10MB max)")

	doc := image(10)
	doc.ContentType = "application/pdf"
	_, err = e.posts.Create(ctx, alice, g.ID.String(), input, doc)
	require.NoError(t, err, "detected type wins over the declared one")

	body := []byte("%PDF-1.4 not a picture")
	disguised := &Upload{Filename: "cat.png", ContentType: "image/png", Size: int64(len(body)), Body: bytes.NewReader(body)}
	_, err = e.posts.Create(ctx, alice, g.ID.String(), input, disguised)
	assertAppError(t, err, apperror.KindValidation, msgInvalidInput)
	e2, _ := apperror.As(err)
	assert.Equal(t, "Only image files are allowed", e2.Fields["image"])

	assert.Equal(t, 2, e.blobs.Len())
}

func TestPostService_ListAndCount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, carol := e.user(t, "alice"), e.user(t, "carol")
	g := e.group(t, alice, "general")
	other := e.group(t, alice, "other")

	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	for i, title := range []string{"one", "two", "three"} {
		require.NoError(t, e.store.Posts.Create(ctx, &domain.Post{
			ID: uuid.New(), AuthorID: alice.ID, GroupID: g.ID, Title: title, Text: title,
			Likes: []uuid.UUID{}, CreatedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}
	e.post(t, alice, other, "elsewhere")

	list, err := e.posts.List(ctx, alice, g.ID.String(), ListQuery{})
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "one", list[0].Title)

	list, err = e.posts.List(ctx, alice, g.ID.String(), ListQuery{Sort: "newest", Limit: "2"})
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "three", list[0].Title)
	assert.Equal(t, "two", list[1].Title)

	list, err = e.posts.List(ctx, alice, g.ID.String(), ListQuery{Skip: "2"})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "three", list[0].Title)

	_, err = e.posts.List(ctx, alice, g.ID.String(), ListQuery{Sort: "sideways"})
	assert.ErrorIs(t, err, apperror.ErrValidation)

	// reads only need an account
	res, err := e.posts.Count(ctx, carol, g.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "3 posts found", res.Message)
	require.NotNil(t, res.Count)
	assert.Equal(t, 3, *res.Count)
}

func TestPostService_Get(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice := e.user(t, "alice")
	g := e.group(t, alice, "general")
	other := e.group(t, alice, "other")
	post := e.post(t, alice, g, "hello")

	got, err := e.posts.Get(ctx, alice, g.ID.String(), post.ID.String())
	require.NoError(t, err)
	assert.Equal(t, post.ID, got.ID)

	_, err = e.posts.Get(ctx, alice, other.ID.String(), post.ID.String())
	assertAppError(t, err, apperror.KindNotFound, "No post found with id "+post.ID.String())

	_, err = e.posts.Get(ctx, alice, g.ID.String(), "123")
	assertAppError(t, err, apperror.KindValidation, "Invalid post id")
}

func TestPostService_Likes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	g := e.group(t, alice, "general", bob)
	post := e.post(t, alice, g, "hello")
	gid, pid := g.ID.String(), post.ID.String()

	res, err := e.posts.Like(ctx, bob, gid, pid)
	require.NoError(t, err)
	assert.Equal(t, "Post liked", res.Message)

	_, err = e.posts.Like(ctx, bob, gid, pid)
	assertAppError(t, err, apperror.KindForbidden, "Can only like a post once")

	_, err = e.posts.Like(ctx, carol, gid, pid)
	assertAppError(t, err, apperror.KindForbidden, "carol is not a member of general group")

	stored, err := e.store.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{bob.ID}, stored.Likes)

	res, err = e.posts.Unlike(ctx, bob, gid, pid)
	require.NoError(t, err)
	assert.Equal(t, "Post unliked", res.Message)

	_, err = e.posts.Unlike(ctx, bob, gid, pid)
	assertAppError(t, err, apperror.KindForbidden, "Post not liked")

	stored, err = e.store.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Empty(t, stored.Likes)
}

func TestPostService_ConcurrentLikes(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	admin := e.user(t, "admin")
	members := make([]*domain.User, 10)
	for i := range members {
		members[i] = e.user(t, fmt.Sprintf("member%d", i))
	}
	g := e.group(t, admin, "general", members...)
	post := e.post(t, admin, g, "hello")

	var wg sync.WaitGroup
	for _, m := range members {
		wg.Add(1)
		go func(u *domain.User) {
			defer wg.Done()
			_, err := e.posts.Like(ctx, u, g.ID.String(), post.ID.String())
			assert.NoError(t, err)
		}(m)
	}
	wg.Wait()

	stored, err := e.store.Posts.GetByID(ctx, post.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Likes, len(members))
}

func TestPostService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, carol, dave := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol"), e.user(t, "dave")
	g := e.group(t, alice, "general", bob, carol, dave)
	gid := g.ID.String()
	for _, mod := range []*domain.User{bob, dave} {
		_, err := e.groups.Promote(ctx, alice, gid, mod.ID.String())
		require.NoError(t, err)
	}

	byAdmin, err := e.posts.Create(ctx, alice, gid, CreatePostInput{Title: "rules", Text: "be nice"}, image(64))
	require.NoError(t, err)
	byMod := e.post(t, dave, g, "mod post")
	byBob := e.post(t, bob, g, "own post")
	byMember := e.post(t, carol, g, "question")
	_, err = e.comments.Create(ctx, carol, gid, byAdmin.ID.String(), CreateCommentInput{Text: "ok"})
	require.NoError(t, err)

	_, err = e.posts.Delete(ctx, carol, gid, byMember.ID.String())
	assertAppError(t, err, apperror.KindForbidden, "Only group admin or mod can make this request")

	_, err = e.posts.Delete(ctx, bob, gid, byAdmin.ID.String())
	assertAppError(t, err, apperror.KindForbidden, "Mod cannot delete posts by admin or another mod")
	_, err = e.posts.Delete(ctx, bob, gid, byMod.ID.String())
	assertAppError(t, err, apperror.KindForbidden, "Mod cannot delete posts by admin or another mod")

	for _, p := range []*domain.Post{byBob, byMember} {
		res, err := e.posts.Delete(ctx, bob, gid, p.ID.String())
		require.NoError(t, err)
		assert.Equal(t, "Post deleted", res.Message)
	}

	require.Equal(t, 1, e.blobs.Len())
	_, err = e.posts.Delete(ctx, alice, gid, byAdmin.ID.String())
	require.NoError(t, err)
	assert.Equal(t, 0, e.blobs.Len())

	n, err := e.store.Comments.CountByPost(ctx, byAdmin.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	n, err = e.store.Posts.CountByGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
