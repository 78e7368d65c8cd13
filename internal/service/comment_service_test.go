package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/events"
)

func TestCommentService_CreateAndCount(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	g := e.group(t, alice, "general", bob)
	post := e.post(t, alice, g, "hello")
	gid, pid := g.ID.String(), post.ID.String()

	c, err := e.comments.Create(ctx, bob, gid, pid, CreateCommentInput{Text: " hi "})
	require.NoError(t, err)
	assert.Equal(t, "hi", c.Text)
	assert.Equal(t, post.ID, c.PostID)

	res, err := e.comments.Count(ctx, carol, gid, pid)
	require.NoError(t, err)
	assert.Equal(t, "Post has 1 comment", res.Message)
	assert.Equal(t, 1, *res.Count)

	_, err = e.comments.Create(ctx, alice, gid, pid, CreateCommentInput{Text: "welcome"})
	require.NoError(t, err)

	res, err = e.comments.Count(ctx, bob, gid, pid)
	require.NoError(t, err)
	assert.Equal(t, "Post has 2 comments", res.Message)

	list, err := e.comments.List(ctx, bob, gid, pid, ListQuery{Sort: "newest"})
	require.NoError(t, err)
	require.Len(t, list, 2)

	_, err = e.comments.Create(ctx, carol, gid, pid, CreateCommentInput{Text: "me too"})
	assertAppError(t, err, apperror.KindForbidden, "carol is not a member of general group")

	_, err = e.comments.Create(ctx, bob, gid, pid, CreateCommentInput{Text: "  "})
	assertAppError(t, err, apperror.KindValidation, msgInvalidInput)

	assert.Equal(t, events.CommentCreated, e.events.Types()[len(e.events.Types())-1])
}

func TestCommentService_Delete(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	alice, bob, carol := e.user(t, "alice"), e.user(t, "bob"), e.user(t, "carol")
	g := e.group(t, alice, "general", bob, carol)
	gid := g.ID.String()
	_, err := e.groups.Promote(ctx, alice, gid, bob.ID.String())
	require.NoError(t, err)

	post := e.post(t, carol, g, "question")
	other := e.post(t, carol, g, "another")
	pid := post.ID.String()

	fromAdmin, err := e.comments.Create(ctx, alice, gid, pid, CreateCommentInput{Text: "answer"})
	require.NoError(t, err)
	fromCarol, err := e.comments.Create(ctx, carol, gid, pid, CreateCommentInput{Text: "thanks"})
	require.NoError(t, err)

	_, err = e.comments.Delete(ctx, carol, gid, pid, fromCarol.ID.String())
	assertAppError(t, err, apperror.KindForbidden, "Only group admin or mod can make this request")

	_, err = e.comments.Delete(ctx, bob, gid, pid, fromAdmin.ID.String())
	assertAppError(t, err, apperror.KindForbidden, "Mod cannot delete comments by admin or another mod")

	_, err = e.comments.Delete(ctx, bob, gid, other.ID.String(), fromCarol.ID.String())
	assertAppError(t, err, apperror.KindNotFound, "No comment found with id "+fromCarol.ID.String())

	res, err := e.comments.Delete(ctx, bob, gid, pid, fromCarol.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "Comment deleted", res.Message)

	n, err := e.store.Comments.CountByPost(ctx, post.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
