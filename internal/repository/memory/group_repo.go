package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/domain"
	"github.com/parentingo/parentingo/internal/repository"
)

type GroupRepo struct {
	s *Store
}

func (r *GroupRepo) Create(ctx context.Context, group *domain.Group) error {
	if err := group.CheckInvariants(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, g := range r.s.groups {
		if g.Name == group.Name {
			return repository.ErrDuplicate
		}
	}
	group.Version = 1
	r.s.groups[group.ID] = *group.Clone()
	return nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	g, ok := r.s.groups[id]
	if !ok {
		return nil, nil
	}
	return g.Clone(), nil
}

func (r *GroupRepo) GetByName(ctx context.Context, name string) (*domain.Group, error) {
	list := r.filter(func(g *domain.Group) bool { return g.Name == name })
	if len(list) == 0 {
		return nil, nil
	}
	return &list[0], nil
}

func (r *GroupRepo) List(ctx context.Context) ([]domain.Group, error) {
	return r.filter(func(*domain.Group) bool { return true }), nil
}

func (r *GroupRepo) ListByAdmin(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	return r.filter(func(g *domain.Group) bool { return g.IsAdmin(userID) }), nil
}

func (r *GroupRepo) ListByMember(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	return r.filter(func(g *domain.Group) bool { return g.IsMember(userID) }), nil
}

func (r *GroupRepo) filter(match func(*domain.Group) bool) []domain.Group {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	out := []domain.Group{}
	for _, g := range r.s.groups {
		if match(&g) {
			out = append(out, *g.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (r *GroupRepo) UpdateMembership(ctx context.Context, group *domain.Group) error {
	if err := group.CheckInvariants(); err != nil {
		return err
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.groups[group.ID]
	if !ok {
		return fmt.Errorf("group %s: %w", group.ID, repository.ErrStaleGroup)
	}
	if current.Version != group.Version {
		return repository.ErrStaleGroup
	}
	group.Version++
	r.s.groups[group.ID] = *group.Clone()
	return nil
}
