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

type CommentService struct {
	base
}

func NewCommentService(d Deps) *CommentService {
	return &CommentService{base: newBase(d)}
}

type CreateCommentInput struct {
	Text string `json:"text"`
}

func (s *CommentService) Create(ctx context.Context, actor *domain.User, groupID, postID string, input CreateCommentInput) (c *domain.Comment, err error) {
	defer func() { s.observe(policy.ActionCreateComment, err) }()

	rc, err := s.run(ctx, actor, s.group(groupID), s.post(postID))
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(policy.ActionCreateComment, rc.Actor, policy.Subject{Group: rc.Group, Post: rc.Post}); err != nil {
		return nil, err
	}

	if errs := validator.ValidateComment(input.Text); errs.HasErrors() {
		return nil, apperror.ValidationFields(msgInvalidInput, errs)
	}

	c = &domain.Comment{
		ID:        uuid.New(),
		AuthorID:  rc.Actor.ID,
		PostID:    rc.Post.ID,
		Text:      strings.TrimSpace(input.Text),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.Comments.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("creating comment: %w", err)
	}

	s.publish(ctx, events.New(events.CommentCreated, &rc.Group.ID, rc.Actor.ID, c.ID, "Comment added"))
	return c, nil
}

func (s *CommentService) List(ctx context.Context, actor *domain.User, groupID, postID string, q ListQuery) ([]domain.Comment, error) {
	rc, err := s.run(ctx, actor, s.group(groupID), s.post(postID))
	if err != nil {
		return nil, err
	}
	opts, err := q.options()
	if err != nil {
		return nil, err
	}
	return s.store.Comments.ListByPost(ctx, rc.Post.ID, opts)
}

func (s *CommentService) Count(ctx context.Context, actor *domain.User, groupID, postID string) (*Result, error) {
	rc, err := s.run(ctx, actor, s.group(groupID), s.post(postID))
	if err != nil {
		return nil, err
	}
	n, err := s.store.Comments.CountByPost(ctx, rc.Post.ID)
	if err != nil {
		return nil, fmt.Errorf("counting comments: %w", err)
	}

	noun := "comments"
	if n == 1 {
		noun = "comment"
	}
	res := message("Post has %d %s", n, noun)
	res.Count = &n
	return res, nil
}

func (s *CommentService) Delete(ctx context.Context, actor *domain.User, groupID, postID, commentID string) (res *Result, err error) {
	defer func() { s.observe(policy.ActionDeleteComment, err) }()

	rc, err := s.run(ctx, actor, s.group(groupID), s.post(postID), s.comment(commentID))
	if err != nil {
		return nil, err
	}
	subject := policy.Subject{Group: rc.Group, Post: rc.Post, Owner: rc.Comment.AuthorID}
	if err := policy.Authorize(policy.ActionDeleteComment, rc.Actor, subject); err != nil {
		return nil, err
	}

	if err := s.store.Comments.Delete(ctx, rc.Comment.ID); err != nil {
		return nil, fmt.Errorf("deleting comment: %w", err)
	}

	res = message("Comment deleted")
	s.publish(ctx, events.New(events.CommentDeleted, &rc.Group.ID, rc.Actor.ID, rc.Comment.ID, res.Message))
	return res, nil
}
