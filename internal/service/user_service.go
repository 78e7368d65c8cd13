package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/domain"
	"github.com/parentingo/parentingo/internal/events"
	"github.com/parentingo/parentingo/internal/policy"
	"github.com/parentingo/parentingo/pkg/validator"
)

type UserService struct {
	base
}

func NewUserService(d Deps) *UserService {
	return &UserService{base: newBase(d)}
}

// ProfileInput is a partial profile update; nil fields are left as they
// are.
type ProfileInput struct {
	Name *string `json:"name"`
	Bio  *string `json:"bio"`
}

func (s *UserService) Current(ctx context.Context, actor *domain.User) (*domain.User, error) {
	rc, err := s.run(ctx, actor)
	if err != nil {
		return nil, err
	}
	return rc.Actor, nil
}

func (s *UserService) Get(ctx context.Context, actor *domain.User, userID string) (*domain.PublicUser, error) {
	rc, err := s.run(ctx, actor, s.target(userID))
	if err != nil {
		return nil, err
	}
	pub := rc.Target.Public()
	return &pub, nil
}

// UpdateProfile changes name, bio and avatar of the actor. A replaced
// avatar is removed from blob storage once the new one is saved.
func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.User, input ProfileInput, avatar *Upload) (*Result, error) {
	rc, err := s.run(ctx, actor)
	if err != nil {
		return nil, err
	}

	if errs := validator.ValidateProfile(input.Name, input.Bio); errs.HasErrors() {
		return nil, apperror.ValidationFields(msgInvalidInput, errs)
	}
	if avatar != nil {
		if err := checkUpload(avatar, "avatar"); err != nil {
			return nil, err
		}
	}

	user := rc.Actor
	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}
	if input.Bio != nil {
		bio := strings.TrimSpace(*input.Bio)
		user.Bio = &bio
	}

	old := user.Avatar
	if avatar != nil {
		url, err := s.storeImage(ctx, "avatars", avatar)
		if err != nil {
			return nil, err
		}
		user.Avatar = &url
	}

	if err := s.store.Users.UpdateProfile(ctx, user); err != nil {
		if avatar != nil {
			s.dropImage(ctx, *user.Avatar)
		}
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if avatar != nil && old != nil {
		s.dropImage(ctx, *old)
	}

	return message("User info updated"), nil
}

func (s *UserService) Follow(ctx context.Context, actor *domain.User, userID string) (*Result, error) {
	return s.follow(ctx, policy.ActionFollow, actor, userID)
}

func (s *UserService) Unfollow(ctx context.Context, actor *domain.User, userID string) (*Result, error) {
	return s.follow(ctx, policy.ActionUnfollow, actor, userID)
}

// follow adds or removes the edge actor -> target on both users at once.
func (s *UserService) follow(ctx context.Context, action policy.Action, actor *domain.User, userID string) (res *Result, err error) {
	defer func() { s.observe(action, err) }()

	rc, err := s.run(ctx, actor, s.target(userID), s.self())
	if err != nil {
		return nil, err
	}
	if err := policy.Authorize(action, rc.Actor, policy.Subject{Target: rc.Target}); err != nil {
		return nil, err
	}

	following := action == policy.ActionFollow
	evt := events.UserFollowed
	res = message("User is now following %s", rc.Target.Username)
	if !following {
		res = message("User is no longer following %s", rc.Target.Username)
		evt = events.UserUnfollowed
	}

	if err := s.store.Users.SetFollow(ctx, rc.Actor.ID, rc.Target.ID, following); err != nil {
		return nil, fmt.Errorf("saving follow: %w", err)
	}

	s.publish(ctx, events.New(evt, nil, rc.Actor.ID, rc.Target.ID, res.Message))
	return res, nil
}
