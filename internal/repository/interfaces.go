package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/domain"
)

var (
	// ErrDuplicate is returned when a unique field (username, email, group
	// name) is already taken.
	ErrDuplicate = errors.New("duplicate key")
	// ErrStaleGroup is returned when a group was saved by someone else
	// between load and update.
	ErrStaleGroup = errors.New("group was modified concurrently")
)

// Lookups return (nil, nil) when the document does not exist.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdateProfile(ctx context.Context, user *domain.User) error
	TouchLastLogin(ctx context.Context, user *domain.User) error
	// SetFollow adds (following=true) or removes the edge follower ->
	// followee on both documents at once. Other edges are left untouched.
	SetFollow(ctx context.Context, followerID, followeeID uuid.UUID, following bool) error
}

type GroupRepository interface {
	Create(ctx context.Context, group *domain.Group) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error)
	GetByName(ctx context.Context, name string) (*domain.Group, error)
	List(ctx context.Context) ([]domain.Group, error)
	ListByAdmin(ctx context.Context, userID uuid.UUID) ([]domain.Group, error)
	ListByMember(ctx context.Context, userID uuid.UUID) ([]domain.Group, error)
	// UpdateMembership saves admin/mods/members/banned. It fails with
	// ErrStaleGroup when group.Version no longer matches the stored version
	// and bumps group.Version on success.
	UpdateMembership(ctx context.Context, group *domain.Group) error
}

type PostRepository interface {
	Create(ctx context.Context, post *domain.Post) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error)
	ListByGroup(ctx context.Context, groupID uuid.UUID, opts domain.ListOptions) ([]domain.Post, error)
	CountByGroup(ctx context.Context, groupID uuid.UUID) (int, error)
	// SetLike adds or removes one user in the likes of a post.
	SetLike(ctx context.Context, postID, userID uuid.UUID, liked bool) error
	// Delete removes the post and all of its comments.
	Delete(ctx context.Context, id uuid.UUID) error
}

type CommentRepository interface {
	Create(ctx context.Context, comment *domain.Comment) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error)
	ListByPost(ctx context.Context, postID uuid.UUID, opts domain.ListOptions) ([]domain.Comment, error)
	CountByPost(ctx context.Context, postID uuid.UUID) (int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// Store bundles the repositories of one backend.
type Store struct {
	Users    UserRepository
	Groups   GroupRepository
	Posts    PostRepository
	Comments CommentRepository
}
