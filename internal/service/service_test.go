package service

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/blob"
	"github.com/parentingo/parentingo/internal/domain"
	"github.com/parentingo/parentingo/internal/events"
	"github.com/parentingo/parentingo/internal/repository"
	"github.com/parentingo/parentingo/internal/repository/memory"
)

type env struct {
	store    repository.Store
	blobs    *blob.MemoryStore
	events   *events.Recorder
	groups   *GroupService
	posts    *PostService
	comments *CommentService
	users    *UserService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	return newEnvWithStore(t, memory.New().Repositories())
}

func newEnvWithStore(t *testing.T, store repository.Store) *env {
	t.Helper()
	e := &env{
		store:  store,
		blobs:  blob.NewMemoryStore(),
		events: &events.Recorder{},
	}
	deps := Deps{Store: store, Blobs: e.blobs, Events: e.events}
	e.groups = NewGroupService(deps)
	e.posts = NewPostService(deps)
	e.comments = NewCommentService(deps)
	e.users = NewUserService(deps)
	return e
}

// user stores a new account and returns it.
func (e *env) user(t *testing.T, username string) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:        uuid.New(),
		Username:  username,
		Email:     username + "@example.com",
		Name:      strings.ToUpper(username[:1]) + username[1:],
		Followers: []uuid.UUID{},
		Following: []uuid.UUID{},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, e.store.Users.Create(context.Background(), u))
	return u
}

// fresh reloads u the way request authentication does.
func (e *env) fresh(t *testing.T, u *domain.User) *domain.User {
	t.Helper()
	got, err := e.store.Users.GetByID(context.Background(), u.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got
}

func (e *env) loadGroup(t *testing.T, id uuid.UUID) *domain.Group {
	t.Helper()
	g, err := e.store.Groups.GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, g)
	return g
}

// group creates a group administered by admin and joined by members.
func (e *env) group(t *testing.T, admin *domain.User, name string, members ...*domain.User) *domain.Group {
	t.Helper()
	ctx := context.Background()
	g, err := e.groups.Create(ctx, admin, CreateGroupInput{Name: name, Description: name + " talk"})
	require.NoError(t, err)
	for _, m := range members {
		_, err := e.groups.Join(ctx, m, g.ID.String())
		require.NoError(t, err)
	}
	return e.loadGroup(t, g.ID)
}

func (e *env) post(t *testing.T, author *domain.User, g *domain.Group, title string) *domain.Post {
	t.Helper()
	p, err := e.posts.Create(context.Background(), author, g.ID.String(), CreatePostInput{Title: title, Text: title + " body"}, nil)
	require.NoError(t, err)
	return p
}

func assertAppError(t *testing.T, err error, kind apperror.Kind, msg string) {
	t.Helper()
	require.Error(t, err)
	e, ok := apperror.As(err)
	require.True(t, ok, "expected *apperror.Error, got %T: %v", err, err)
	assert.Equal(t, kind, e.Kind)
	assert.Equal(t, msg, e.Message)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n")

// image returns a PNG-signed upload of size bytes.
func image(size int) *Upload {
	data := append([]byte{}, pngHeader...)
	if size > len(data) {
		data = append(data, bytes.Repeat([]byte{0xff}, size-len(data))...)
	}
	data = data[:size]
	return &Upload{Filename: "photo.PNG", ContentType: "image/png", Size: int64(size), Body: bytes.NewReader(data)}
}

func TestListQuery_Options(t *testing.T) {
	opts, err := ListQuery{}.options()
	require.NoError(t, err)
	assert.Equal(t, domain.ListOptions{Limit: 20}, opts)

	opts, err = ListQuery{Sort: "newest", Skip: "5", Limit: "500"}.options()
	require.NoError(t, err)
	assert.Equal(t, domain.ListOptions{Newest: true, Skip: 5, Limit: 100}, opts)

	for _, q := range []ListQuery{{Sort: "best"}, {Skip: "-1"}, {Skip: "x"}, {Limit: "0"}} {
		_, err := q.options()
		assert.ErrorIs(t, err, apperror.ErrValidation, "%+v", q)
	}
}

func TestRun_RequiresActor(t *testing.T) {
	e := newEnv(t)

	_, err := e.groups.List(context.Background(), nil)
	assertAppError(t, err, apperror.KindUnauthenticated, "User authentication required")
}
