package memory

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/domain"
	"github.com/parentingo/parentingo/internal/repository"
)

type UserRepo struct {
	s *Store
}

func cloneUser(u domain.User) *domain.User {
	u.Followers = cloneIDs(u.Followers)
	u.Following = cloneIDs(u.Following)
	return &u
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for _, u := range r.s.users {
		if strings.EqualFold(u.Email, user.Email) || u.Username == user.Username {
			return repository.ErrDuplicate
		}
	}
	r.s.users[user.ID] = *cloneUser(*user)
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, nil
	}
	return cloneUser(u), nil
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return strings.EqualFold(u.Email, email) })
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.find(func(u domain.User) bool { return u.Username == username })
}

func (r *UserRepo) find(match func(domain.User) bool) (*domain.User, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, u := range r.s.users {
		if match(u) {
			return cloneUser(u), nil
		}
	}
	return nil, nil
}

func (r *UserRepo) UpdateProfile(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[user.ID]
	if !ok {
		return nil
	}
	u.Name = user.Name
	u.Bio = user.Bio
	u.Avatar = user.Avatar
	r.s.users[user.ID] = u
	return nil
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, user *domain.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if u, ok := r.s.users[user.ID]; ok {
		u.LastLogin = user.LastLogin
		r.s.users[user.ID] = u
	}
	return nil
}

func (r *UserRepo) SetFollow(ctx context.Context, followerID, followeeID uuid.UUID, following bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	a, okA := r.s.users[followerID]
	b, okB := r.s.users[followeeID]
	if !okA || !okB {
		return nil
	}
	a, b = *cloneUser(a), *cloneUser(b)
	if following {
		domain.Follow(&a, &b)
	} else {
		domain.Unfollow(&a, &b)
	}
	r.s.users[a.ID] = a
	r.s.users[b.ID] = b
	return nil
}
