package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/domain"
	"github.com/parentingo/parentingo/internal/events"
	"github.com/parentingo/parentingo/internal/policy"
	"github.com/parentingo/parentingo/internal/repository"
	"github.com/parentingo/parentingo/pkg/validator"
)

const msgInvalidInput = "Invalid input - check each field for errors"

type GroupService struct {
	base
}

func NewGroupService(d Deps) *GroupService {
	return &GroupService{base: newBase(d)}
}

type CreateGroupInput struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// GroupView is a group as seen by one user, with that user's derived role.
type GroupView struct {
	domain.Group
	Role domain.Role `json:"role"`
}

func (s *GroupService) Create(ctx context.Context, actor *domain.User, input CreateGroupInput) (*domain.Group, error) {
	if _, err := s.run(ctx, actor); err != nil {
		return nil, err
	}

	if errs := validator.ValidateGroup(input.Name, input.Description); errs.HasErrors() {
		return nil, apperror.ValidationFields(msgInvalidInput, errs)
	}

	existing, err := s.store.Groups.GetByName(ctx, input.Name)
	if err != nil {
		return nil, fmt.Errorf("lookup group name: %w", err)
	}
	if existing != nil {
		return nil, nameTaken()
	}

	g := domain.NewGroup(input.Name, input.Description, actor.ID)
	g.CreatedAt = time.Now().UTC()
	if err := s.store.Groups.Create(ctx, g); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, nameTaken()
		}
		return nil, fmt.Errorf("creating group: %w", err)
	}

	return g, nil
}

func nameTaken() error {
	return apperror.ValidationFields(msgInvalidInput, map[string]string{"name": "Group name already taken"})
}

func (s *GroupService) List(ctx context.Context, actor *domain.User) ([]domain.Group, error) {
	if _, err := s.run(ctx, actor); err != nil {
		return nil, err
	}
	return s.store.Groups.List(ctx)
}

// ListOwned lists the groups actor administers.
func (s *GroupService) ListOwned(ctx context.Context, actor *domain.User) ([]domain.Group, error) {
	if _, err := s.run(ctx, actor); err != nil {
		return nil, err
	}
	return s.store.Groups.ListByAdmin(ctx, actor.ID)
}

func (s *GroupService) ListMember(ctx context.Context, actor *domain.User) ([]domain.Group, error) {
	if _, err := s.run(ctx, actor); err != nil {
		return nil, err
	}
	return s.store.Groups.ListByMember(ctx, actor.ID)
}

func (s *GroupService) Get(ctx context.Context, actor *domain.User, groupID string) (*GroupView, error) {
	rc, err := s.run(ctx, actor, s.group(groupID))
	if err != nil {
		return nil, err
	}
	return &GroupView{Group: *rc.Group, Role: domain.RoleOf(rc.Group, actor.ID)}, nil
}

// CanSubscribe reports whether userID may follow the live feed of groupID.
func (s *GroupService) CanSubscribe(ctx context.Context, userID, groupID uuid.UUID) error {
	g, err := s.store.Groups.GetByID(ctx, groupID)
	if err != nil {
		return fmt.Errorf("load group: %w", err)
	}
	if g == nil {
		return notFound("group", groupID.String())
	}
	if !g.IsMember(userID) {
		return apperror.Forbidden("User is not a member of %s group", g.Name)
	}
	return nil
}

// membershipChange describes one moderation action on a group document.
type membershipChange struct {
	action policy.Action
	event  events.Type
	// onActor is true when the actor changes their own membership.
	onActor bool
	apply   func(g *domain.Group, id uuid.UUID) error
	// success is formatted with the subject's username and the group name.
	success string
}

var (
	joinChange = membershipChange{
		action:  policy.ActionJoin,
		event:   events.MemberJoined,
		onActor: true,
		apply:   (*domain.Group).AddMember,
		success: "%s joined %s group",
	}
	leaveChange = membershipChange{
		action:  policy.ActionLeave,
		event:   events.MemberLeft,
		onActor: true,
		apply:   (*domain.Group).RemoveMember,
		success: "%s left %s group",
	}
	promoteChange = membershipChange{
		action:  policy.ActionPromote,
		event:   events.ModPromoted,
		apply:   (*domain.Group).AddMod,
		success: "%s is now a mod of %s group",
	}
	demoteChange = membershipChange{
		action:  policy.ActionDemote,
		event:   events.ModDemoted,
		apply:   (*domain.Group).RemoveMod,
		success: "%s is no longer a mod of %s group",
	}
	banChange = membershipChange{
		action:  policy.ActionBan,
		event:   events.MemberBanned,
		apply:   (*domain.Group).Ban,
		success: "%s has been banned from %s group",
	}
	unbanChange = membershipChange{
		action: policy.ActionUnban,
		event:  events.MemberUnbanned,
		apply: func(g *domain.Group, id uuid.UUID) error {
			g.Unban(id)
			return nil
		},
		success: "%s has been unbanned from %s group",
	}
)

func (s *GroupService) Join(ctx context.Context, actor *domain.User, groupID string) (*Result, error) {
	return s.change(ctx, joinChange, actor, groupID, "")
}

func (s *GroupService) Leave(ctx context.Context, actor *domain.User, groupID string) (*Result, error) {
	return s.change(ctx, leaveChange, actor, groupID, "")
}

func (s *GroupService) Promote(ctx context.Context, actor *domain.User, groupID, userID string) (*Result, error) {
	return s.change(ctx, promoteChange, actor, groupID, userID)
}

func (s *GroupService) Demote(ctx context.Context, actor *domain.User, groupID, userID string) (*Result, error) {
	return s.change(ctx, demoteChange, actor, groupID, userID)
}

func (s *GroupService) Ban(ctx context.Context, actor *domain.User, groupID, userID string) (*Result, error) {
	return s.change(ctx, banChange, actor, groupID, userID)
}

func (s *GroupService) Unban(ctx context.Context, actor *domain.User, groupID, userID string) (*Result, error) {
	return s.change(ctx, unbanChange, actor, groupID, userID)
}

// change loads the group (and target), consults the policy, applies exactly
// one mutation and saves it. Nothing is written on denial.
func (s *GroupService) change(ctx context.Context, c membershipChange, actor *domain.User, groupID, userID string) (res *Result, err error) {
	defer func() { s.observe(c.action, err) }()

	steps := []step{s.group(groupID)}
	if !c.onActor {
		steps = append(steps, s.target(userID))
	}
	rc, err := s.run(ctx, actor, steps...)
	if err != nil {
		return nil, err
	}

	subject := rc.Target
	if c.onActor {
		subject = rc.Actor
	}

	if err := policy.Authorize(c.action, rc.Actor, policy.Subject{Group: rc.Group, Target: rc.Target}); err != nil {
		return nil, err
	}

	if err := c.apply(rc.Group, subject.ID); err != nil {
		return nil, fmt.Errorf("%s: %w", c.action, err)
	}
	if err := s.saveGroup(ctx, rc.Group); err != nil {
		return nil, err
	}

	res = message(c.success, subject.Username, rc.Group.Name)
	s.publish(ctx, events.New(c.event, &rc.Group.ID, rc.Actor.ID, subject.ID, res.Message))
	return res, nil
}
