// Package policy decides whether an actor may perform an action on a group
// resource. Decisions are pure: the caller loads documents, the policy only
// reads them. A denial is an *apperror.Error whose message is part of the
// API contract.
//
// Guards run in a fixed order so that only one reason is ever reported:
// membership/role of the actor, then self-action, then the target's role,
// then state (already a member, already liked, ...). Existence and
// authentication are checked before the policy is consulted.
package policy

import (
	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/domain"
)

type Action string

const (
	ActionJoin          Action = "join"
	ActionLeave         Action = "leave"
	ActionPromote       Action = "promote"
	ActionDemote        Action = "demote"
	ActionBan           Action = "ban"
	ActionUnban         Action = "unban"
	ActionCreatePost    Action = "create_post"
	ActionDeletePost    Action = "delete_post"
	ActionCreateComment Action = "create_comment"
	ActionDeleteComment Action = "delete_comment"
	ActionLike          Action = "like"
	ActionUnlike        Action = "unlike"
	ActionFollow        Action = "follow"
	ActionUnfollow      Action = "unfollow"
)

// Subject carries the resources an action is evaluated against. Only the
// fields relevant to the action need to be set.
type Subject struct {
	Group *domain.Group
	// Target is the user acted upon (promote, demote, ban, unban, follow).
	Target *domain.User
	// Owner is the author of the post or comment being deleted.
	Owner uuid.UUID
	Post  *domain.Post
}

const (
	msgAdminOnly    = "Only group admin can make this request"
	msgAdminOrMod   = "Only group admin or mod can make this request"
	msgModPosts     = "Mod cannot delete posts by admin or another mod"
	msgModComments  = "Mod cannot delete comments by admin or another mod"
	msgLikeOnce     = "Can only like a post once"
	msgNotLiked     = "Post not liked"
	msgAdminLeave   = "Group admin cannot leave the group"
	msgAdminDemote  = "Group admin cannot be demoted"
	msgAdminBan     = "Group admin cannot be banned"
	msgSelfBan      = "User cannot ban themselves"
	msgModBan       = "Only admin can ban mods"
	msgSelfFollow   = "User cannot follow themselves"
	msgSelfUnfollow = "User cannot unfollow themselves"
)

type guard func() error

func evaluate(guards ...guard) error {
	for _, g := range guards {
		if err := g(); err != nil {
			return err
		}
	}
	return nil
}

// Authorize returns nil when actor may perform action on s, or the denial.
func Authorize(action Action, actor *domain.User, s Subject) error {
	switch action {
	case ActionJoin:
		return evaluate(
			notBanned(actor, s.Group),
			notMember(actor, s.Group),
		)
	case ActionLeave:
		return evaluate(
			isMember(actor, s.Group),
			notAdminLeaving(actor, s.Group),
		)
	case ActionPromote:
		return evaluate(
			isAdmin(actor, s.Group),
			isMember(s.Target, s.Group),
			notMod(s.Target, s.Group),
		)
	case ActionDemote:
		return evaluate(
			isAdmin(actor, s.Group),
			targetNotAdmin(s.Target, s.Group, msgAdminDemote),
			isMod(s.Target, s.Group),
		)
	case ActionBan:
		return evaluate(
			canModerate(actor, s.Group),
			notSelf(actor, s.Target, msgSelfBan),
			targetNotAdmin(s.Target, s.Group, msgAdminBan),
			modCannotBanMod(actor, s.Target, s.Group),
			notBannedYet(s.Target, s.Group),
			isMember(s.Target, s.Group),
		)
	case ActionUnban:
		return evaluate(
			canModerate(actor, s.Group),
			isBanned(s.Target, s.Group),
		)
	case ActionCreatePost, ActionCreateComment:
		return isMember(actor, s.Group)()
	case ActionDeletePost:
		return evaluate(
			canModerate(actor, s.Group),
			outranksOwner(actor, s.Owner, s.Group, msgModPosts),
		)
	case ActionDeleteComment:
		return evaluate(
			canModerate(actor, s.Group),
			outranksOwner(actor, s.Owner, s.Group, msgModComments),
		)
	case ActionLike:
		return evaluate(
			isMember(actor, s.Group),
			notLiked(actor, s.Post),
		)
	case ActionUnlike:
		return evaluate(
			isMember(actor, s.Group),
			liked(actor, s.Post),
		)
	case ActionFollow:
		return evaluate(
			notSelf(actor, s.Target, msgSelfFollow),
			notFollowing(actor, s.Target),
		)
	case ActionUnfollow:
		return evaluate(
			notSelf(actor, s.Target, msgSelfUnfollow),
			following(actor, s.Target),
		)
	default:
		return apperror.Forbidden("Unknown action %q", action)
	}
}
