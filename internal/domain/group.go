package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

var ErrGroupInvariant = errors.New("group invariant violated")

// Group is the unit of mutation for membership changes. Admin is fixed for
// the lifetime of the group and is always present in Mods and Members.
type Group struct {
	ID          uuid.UUID   `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Admin       uuid.UUID   `json:"admin"`
	Mods        []uuid.UUID `json:"mods"`
	Members     []uuid.UUID `json:"members"`
	Banned      []uuid.UUID `json:"banned"`
	CreatedAt   time.Time   `json:"created"`
	Version     int         `json:"-"`
}

// NewGroup creates a group whose creator is admin, mod and member at once.
func NewGroup(name, description string, creator uuid.UUID) *Group {
	return &Group{
		ID:          uuid.New(),
		Name:        name,
		Description: description,
		Admin:       creator,
		Mods:        []uuid.UUID{creator},
		Members:     []uuid.UUID{creator},
		Banned:      []uuid.UUID{},
		CreatedAt:   time.Now(),
	}
}

func (g *Group) IsAdmin(id uuid.UUID) bool  { return g.Admin == id }
func (g *Group) IsMod(id uuid.UUID) bool    { return contains(g.Mods, id) }
func (g *Group) IsMember(id uuid.UUID) bool { return contains(g.Members, id) }
func (g *Group) IsBanned(id uuid.UUID) bool { return contains(g.Banned, id) }

// AddMember makes id a plain member.
func (g *Group) AddMember(id uuid.UUID) error {
	if g.IsBanned(id) {
		return fmt.Errorf("%w: banned user cannot become a member", ErrGroupInvariant)
	}
	g.Members = add(g.Members, id)
	return nil
}

// RemoveMember drops id from members and mods.
func (g *Group) RemoveMember(id uuid.UUID) error {
	if g.IsAdmin(id) {
		return fmt.Errorf("%w: admin cannot be removed", ErrGroupInvariant)
	}
	g.Members = remove(g.Members, id)
	g.Mods = remove(g.Mods, id)
	return nil
}

// AddMod promotes an existing member.
func (g *Group) AddMod(id uuid.UUID) error {
	if !g.IsMember(id) {
		return fmt.Errorf("%w: mod must be a member", ErrGroupInvariant)
	}
	g.Mods = add(g.Mods, id)
	return nil
}

// RemoveMod demotes a mod; membership is kept.
func (g *Group) RemoveMod(id uuid.UUID) error {
	if g.IsAdmin(id) {
		return fmt.Errorf("%w: admin cannot be demoted", ErrGroupInvariant)
	}
	g.Mods = remove(g.Mods, id)
	return nil
}

// Ban strips membership and mod status and adds id to banned in one step.
func (g *Group) Ban(id uuid.UUID) error {
	if g.IsAdmin(id) {
		return fmt.Errorf("%w: admin cannot be banned", ErrGroupInvariant)
	}
	g.Members = remove(g.Members, id)
	g.Mods = remove(g.Mods, id)
	g.Banned = add(g.Banned, id)
	return nil
}

// Unban lifts a ban; the user is left an outsider.
func (g *Group) Unban(id uuid.UUID) {
	g.Banned = remove(g.Banned, id)
}

// CheckInvariants verifies the membership invariants of the group.
func (g *Group) CheckInvariants() error {
	if g.Admin == uuid.Nil {
		return fmt.Errorf("%w: group has no admin", ErrGroupInvariant)
	}
	if !g.IsMember(g.Admin) || !g.IsMod(g.Admin) {
		return fmt.Errorf("%w: admin must be member and mod", ErrGroupInvariant)
	}
	if g.IsBanned(g.Admin) {
		return fmt.Errorf("%w: admin is banned", ErrGroupInvariant)
	}
	for _, m := range g.Mods {
		if !g.IsMember(m) {
			return fmt.Errorf("%w: mod %s is not a member", ErrGroupInvariant, m)
		}
	}
	for _, b := range g.Banned {
		if g.IsMember(b) {
			return fmt.Errorf("%w: %s is both member and banned", ErrGroupInvariant, b)
		}
	}
	return nil
}

// Clone returns a deep copy so stores never share slices with callers.
func (g *Group) Clone() *Group {
	c := *g
	c.Mods = clone(g.Mods)
	c.Members = clone(g.Members)
	c.Banned = clone(g.Banned)
	return &c
}
