package domain

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	ID           uuid.UUID   `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	PasswordHash string      `json:"-"`
	Name         string      `json:"name"`
	Bio          *string     `json:"bio,omitempty"`
	Avatar       *string     `json:"avatar,omitempty"`
	Followers    []uuid.UUID `json:"followers"`
	Following    []uuid.UUID `json:"following"`
	CreatedAt    time.Time   `json:"created"`
	LastLogin    time.Time   `json:"last_login"`
}

// PublicUser is the projection of a User visible to other users.
type PublicUser struct {
	ID        uuid.UUID   `json:"id"`
	Username  string      `json:"username"`
	Name      string      `json:"name"`
	Bio       *string     `json:"bio,omitempty"`
	Avatar    *string     `json:"avatar,omitempty"`
	Followers []uuid.UUID `json:"followers"`
	Following []uuid.UUID `json:"following"`
	CreatedAt time.Time   `json:"created"`
}

func (u *User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Name:      u.Name,
		Bio:       u.Bio,
		Avatar:    u.Avatar,
		Followers: nonNil(u.Followers),
		Following: nonNil(u.Following),
		CreatedAt: u.CreatedAt,
	}
}

func (u *User) IsFollowing(id uuid.UUID) bool {
	return contains(u.Following, id)
}

func (u *User) IsFollowedBy(id uuid.UUID) bool {
	return contains(u.Followers, id)
}

// Follow records the edge follower -> followee on both documents. Callers
// persist both users in one store transaction.
func Follow(follower, followee *User) {
	follower.Following = add(follower.Following, followee.ID)
	followee.Followers = add(followee.Followers, follower.ID)
}

// Unfollow removes the edge follower -> followee from both documents.
func Unfollow(follower, followee *User) {
	follower.Following = remove(follower.Following, followee.ID)
	followee.Followers = remove(followee.Followers, follower.ID)
}
