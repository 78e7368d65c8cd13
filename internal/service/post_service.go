package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/domain"
	"github.com/parentingo/parentingo/internal/events"
	"github.com/parentingo/parentingo/internal/policy"
	"github.com/parentingo/parentingo/pkg/validator"
)

type PostService struct {
	base
}

func NewPostService(d Deps) *PostService {
	return &PostService{base: newBase(d)}
}

type CreatePostInput struct {
	Title string `json:"title"`
	Text  string `json:"text"`
}

// Create publishes a post in a group the actor belongs to. image is
// optional.
func (s *PostService) Create(ctx context.Context, actor *domain.User, groupID string, input CreatePostInput, image *Upload) (post *domain.Post, err error) {
	defer func() { s.observe(policy.ActionCreatePost, err) }()

	rc, err := s.run(ctx, actor, s.group(groupID))
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.ActionCreatePost, rc.Actor, policy.Subject{Group: rc.Group}); err != nil {
		return nil, err
	}

	if errs := validator.ValidatePost(input.Title, input.Text); errs.HasErrors() {
		return nil, apperror.ValidationFields(msgInvalidInput, errs)
	}
	if image != nil {
		if err := checkUpload(image, "image"); err != nil {
			return nil, err
		}
	}

	post = &domain.Post{
		ID:        uuid.New(),
		AuthorID:  rc.Actor.ID,
		GroupID:   rc.Group.ID,
		Title:     strings.TrimSpace(input.Title),
		Text:      strings.TrimSpace(input.Text),
		Likes:     []uuid.UUID{},
		CreatedAt: time.Now().UTC(),
	}

	if image != nil {
		url, err := s.storeImage(ctx, "posts", image)
		if err != nil {
			return nil, err
		}
		post.Image = &url
	}

	if err := s.store.Posts.Create(ctx, post); err != nil {
		if post.Image != nil {
			s.dropImage(ctx, *post.Image)
		}
		return nil, fmt.Errorf("creating post: %w", err)
	}

	s.publish(ctx, events.New(events.PostCreated, &rc.Group.ID, rc.Actor.ID, post.ID, post.Title))
	return post, nil
}

func (s *PostService) List(ctx context.Context, actor *domain.User, groupID string, q ListQuery) ([]domain.Post, error) {
	rc, err := s.run(ctx, actor, s.group(groupID))
	if err != nil {
		return nil, err
	}
	opts, err := q.options()
	if err != nil {
		return nil, err
	}
	return s.store.Posts.ListByGroup(ctx, rc.Group.ID, opts)
}

func (s *PostService) Count(ctx context.Context, actor *domain.User, groupID string) (*Result, error) {
	rc, err := s.run(ctx, actor, s.group(groupID))
	if err != nil {
		return nil, err
	}
	n, err := s.store.Posts.CountByGroup(ctx, rc.Group.ID)
	if err != nil {
		return nil, fmt.Errorf("counting posts: %w", err)
	}
	res := message("%d posts found", n)
	res.Count = &n
	return res, nil
}

func (s *PostService) Get(ctx context.Context, actor *domain.User, groupID, postID string) (*domain.Post, error) {
	rc, err := s.run(ctx, actor, s.group(groupID), s.post(postID))
	if err != nil {
		return nil, err
	}
	return rc.Post, nil
}

func (s *PostService) Like(ctx context.Context, actor *domain.User, groupID, postID string) (*Result, error) {
	return s.toggleLike(ctx, policy.ActionLike, actor, groupID, postID)
}

func (s *PostService) Unlike(ctx context.Context, actor *domain.User, groupID, postID string) (*Result, error) {
	return s.toggleLike(ctx, policy.ActionUnlike, actor, groupID, postID)
}

func (s *PostService) toggleLike(ctx context.Context, action policy.Action, actor *domain.User, groupID, postID string) (res *Result, err error) {
	defer func() { s.observe(action, err) }()

	rc, err := s.run(ctx, actor, s.group(groupID), s.post(postID))
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(action, rc.Actor, policy.Subject{Group: rc.Group, Post: rc.Post}); err != nil {
		return nil, err
	}

	liked := action == policy.ActionLike
	evt := events.PostLiked
	res = message("Post liked")
	if !liked {
		res = message("Post unliked")
		evt = events.PostUnliked
	}

	if err := s.store.Posts.SetLike(ctx, rc.Post.ID, rc.Actor.ID, liked); err != nil {
		return nil, fmt.Errorf("saving likes: %w", err)
	}

	s.publish(ctx, events.New(evt, &rc.Group.ID, rc.Actor.ID, rc.Post.ID, res.Message))
	return res, nil
}

// Delete removes a post, its comments and its image.
func (s *PostService) Delete(ctx context.Context, actor *domain.User, groupID, postID string) (res *Result, err error) {
	defer func() { s.observe(policy.ActionDeletePost, err) }()

	rc, err := s.run(ctx, actor, s.group(groupID), s.post(postID))
	if err != nil {
		return nil, err
	}
	subject := policy.Subject{Group: rc.Group, Post: rc.Post, Owner: rc.Post.AuthorID}
	if err := policy.Authorize(policy.ActionDeletePost, rc.Actor, subject); err != nil {
		return nil, err
	}

	if err := s.store.Posts.Delete(ctx, rc.Post.ID); err != nil {
		return nil, fmt.Errorf("deleting post: %w", err)
	}
	if rc.Post.Image != nil {
		s.dropImage(ctx, *rc.Post.Image)
	}

	res = message("Post deleted")
	s.publish(ctx, events.New(events.PostDeleted, &rc.Group.ID, rc.Actor.ID, rc.Post.ID, res.Message))
	return res, nil
}
