package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/domain"
	"github.com/parentingo/parentingo/internal/repository"
)

const (
	msgAuthRequired = "User authentication required"
	msgStaleGroup   = "Group was modified by another request, try again"
)

// RequestContext holds the documents a request acts on, loaded fresh from
// the store in a fixed order. Fields are nil unless a step filled them.
type RequestContext struct {
	Actor   *domain.User
	Group   *domain.Group
	Post    *domain.Post
	Comment *domain.Comment
	Target  *domain.User
}

type step func(ctx context.Context, rc *RequestContext) error

type pipeline struct {
	store repository.Store
}

// run requires an authenticated actor, then executes steps in order and
// stops at the first failure: a malformed id (400) is reported before the
// document behind it is looked up (404).
func (p pipeline) run(ctx context.Context, actor *domain.User, steps ...step) (*RequestContext, error) {
	if actor == nil {
		return nil, apperror.Unauthenticated(msgAuthRequired)
	}

	rc := &RequestContext{Actor: actor}
	for _, s := range steps {
		if err := s(ctx, rc); err != nil {
			return nil, err
		}
	}
	return rc, nil
}

func parseID(raw, kind string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperror.Validation("Invalid %s id", kind)
	}
	return id, nil
}

func notFound(kind, raw string) error {
	return apperror.NotFound("No %s found with id %s", kind, raw)
}

func (p pipeline) group(raw string) step {
	return func(ctx context.Context, rc *RequestContext) error {
		id, err := parseID(raw, "group")
		if err != nil {
			return err
		}
		g, err := p.store.Groups.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load group: %w", err)
		}
		if g == nil {
			return notFound("group", raw)
		}
		rc.Group = g
		return nil
	}
}

// post loads a post of rc.Group; a post of another group is not found.
func (p pipeline) post(raw string) step {
	return func(ctx context.Context, rc *RequestContext) error {
		id, err := parseID(raw, "post")
		if err != nil {
			return err
		}
		post, err := p.store.Posts.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load post: %w", err)
		}
		if post == nil || (rc.Group != nil && post.GroupID != rc.Group.ID) {
			return notFound("post", raw)
		}
		rc.Post = post
		return nil
	}
}

func (p pipeline) comment(raw string) step {
	return func(ctx context.Context, rc *RequestContext) error {
		id, err := parseID(raw, "comment")
		if err != nil {
			return err
		}
		c, err := p.store.Comments.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load comment: %w", err)
		}
		if c == nil || (rc.Post != nil && c.PostID != rc.Post.ID) {
			return notFound("comment", raw)
		}
		rc.Comment = c
		return nil
	}
}

// self replaces the actor snapshot taken at authentication with the stored
// document.
func (p pipeline) self() step {
	return func(ctx context.Context, rc *RequestContext) error {
		u, err := p.store.Users.GetByID(ctx, rc.Actor.ID)
		if err != nil {
			return fmt.Errorf("load actor: %w", err)
		}
		if u == nil {
			return apperror.Unauthenticated(msgAuthRequired)
		}
		rc.Actor = u
		return nil
	}
}

func (p pipeline) target(raw string) step {
	return func(ctx context.Context, rc *RequestContext) error {
		id, err := parseID(raw, "user")
		if err != nil {
			return err
		}
		u, err := p.store.Users.GetByID(ctx, id)
		if err != nil {
			return fmt.Errorf("load user: %w", err)
		}
		if u == nil {
			return notFound("user", raw)
		}
		rc.Target = u
		return nil
	}
}

// saveGroup persists a membership change, reporting a concurrent write as
// a conflict.
func (p pipeline) saveGroup(ctx context.Context, g *domain.Group) error {
	err := p.store.Groups.UpdateMembership(ctx, g)
	if errors.Is(err, repository.ErrStaleGroup) {
		return apperror.Conflict(msgStaleGroup)
	}
	if err != nil {
		return fmt.Errorf("save group %s: %w", g.ID, err)
	}
	return nil
}
