package domain

import "github.com/google/uuid"

// Role is the derived standing of a user within a group. It is computed
// from the group's sets on every request and never stored.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleMod      Role = "mod"
	RoleMember   Role = "member"
	RoleBanned   Role = "banned"
	RoleOutsider Role = "outsider"
)

var roleRank = map[Role]int{
	RoleAdmin:    3,
	RoleMod:      2,
	RoleMember:   1,
	RoleOutsider: 0,
	RoleBanned:   -1,
}

// RoleOf reports the most senior role id holds in g.
func RoleOf(g *Group, id uuid.UUID) Role {
	switch {
	case g.IsAdmin(id):
		return RoleAdmin
	case g.IsMod(id):
		return RoleMod
	case g.IsMember(id):
		return RoleMember
	case g.IsBanned(id):
		return RoleBanned
	default:
		return RoleOutsider
	}
}

// AtLeast reports whether r carries the powers of other (admin implies mod
// implies member).
func (r Role) AtLeast(other Role) bool {
	return roleRank[r] >= roleRank[other]
}

// CanModerate is true for admins and mods.
func (r Role) CanModerate() bool {
	return r.AtLeast(RoleMod)
}
