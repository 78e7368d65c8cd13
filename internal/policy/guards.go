package policy

import (
	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/apperror"
	"github.com/parentingo/parentingo/internal/domain"
)

func isMember(u *domain.User, g *domain.Group) guard {
	return func() error {
		if !g.IsMember(u.ID) {
			return apperror.Forbidden("%s is not a member of %s group", u.Username, g.Name)
		}
		return nil
	}
}

func notMember(u *domain.User, g *domain.Group) guard {
	return func() error {
		if g.IsMember(u.ID) {
			return apperror.Conflict("%s is already a member of %s group", u.Username, g.Name)
		}
		return nil
	}
}

func notBanned(u *domain.User, g *domain.Group) guard {
	return func() error {
		if g.IsBanned(u.ID) {
			return apperror.Forbidden("%s is banned from %s group", u.Username, g.Name)
		}
		return nil
	}
}

func notBannedYet(u *domain.User, g *domain.Group) guard {
	return func() error {
		if g.IsBanned(u.ID) {
			return apperror.Conflict("%s is already banned from %s group", u.Username, g.Name)
		}
		return nil
	}
}

func isBanned(u *domain.User, g *domain.Group) guard {
	return func() error {
		if !g.IsBanned(u.ID) {
			return apperror.Forbidden("%s is not banned from %s group", u.Username, g.Name)
		}
		return nil
	}
}

func isAdmin(u *domain.User, g *domain.Group) guard {
	return func() error {
		if !g.IsAdmin(u.ID) {
			return apperror.Forbidden(msgAdminOnly)
		}
		return nil
	}
}

func canModerate(u *domain.User, g *domain.Group) guard {
	return func() error {
		if !domain.RoleOf(g, u.ID).CanModerate() {
			return apperror.Forbidden(msgAdminOrMod)
		}
		return nil
	}
}

func isMod(u *domain.User, g *domain.Group) guard {
	return func() error {
		if !g.IsMod(u.ID) {
			return apperror.Forbidden("%s is not a mod of %s group", u.Username, g.Name)
		}
		return nil
	}
}

func notMod(u *domain.User, g *domain.Group) guard {
	return func() error {
		if g.IsMod(u.ID) {
			return apperror.Conflict("%s is already a mod of %s group", u.Username, g.Name)
		}
		return nil
	}
}

func notAdminLeaving(u *domain.User, g *domain.Group) guard {
	return func() error {
		if g.IsAdmin(u.ID) {
			return apperror.Forbidden(msgAdminLeave)
		}
		return nil
	}
}

func targetNotAdmin(u *domain.User, g *domain.Group, msg string) guard {
	return func() error {
		if g.IsAdmin(u.ID) {
			return apperror.Forbidden(msg)
		}
		return nil
	}
}

func notSelf(actor, target *domain.User, msg string) guard {
	return func() error {
		if actor.ID == target.ID {
			return apperror.Forbidden(msg)
		}
		return nil
	}
}

// modCannotBanMod: only the admin may ban a mod.
func modCannotBanMod(actor, target *domain.User, g *domain.Group) guard {
	return func() error {
		if domain.RoleOf(g, actor.ID) == domain.RoleMod && domain.RoleOf(g, target.ID) == domain.RoleMod {
			return apperror.Forbidden(msgModBan)
		}
		return nil
	}
}

// outranksOwner lets a mod delete their own content and content by plain
// members, former members and outsiders, but never the admin's or another
// mod's. The admin may delete anything.
func outranksOwner(actor *domain.User, owner uuid.UUID, g *domain.Group, msg string) guard {
	return func() error {
		if domain.RoleOf(g, actor.ID) == domain.RoleAdmin || owner == actor.ID {
			return nil
		}
		if domain.RoleOf(g, owner).CanModerate() {
			return apperror.Forbidden(msg)
		}
		return nil
	}
}

func notLiked(u *domain.User, p *domain.Post) guard {
	return func() error {
		if p.IsLikedBy(u.ID) {
			return apperror.Forbidden(msgLikeOnce)
		}
		return nil
	}
}

func liked(u *domain.User, p *domain.Post) guard {
	return func() error {
		if !p.IsLikedBy(u.ID) {
			return apperror.Forbidden(msgNotLiked)
		}
		return nil
	}
}

func notFollowing(actor, target *domain.User) guard {
	return func() error {
		if actor.IsFollowing(target.ID) {
			return apperror.Conflict("User already following %s", target.Username)
		}
		return nil
	}
}

func following(actor, target *domain.User) guard {
	return func() error {
		if !actor.IsFollowing(target.ID) {
			return apperror.Forbidden("User is not following %s", target.Username)
		}
		return nil
	}
}
