package domain

import (
	"time"

	"github.com/google/uuid"
)

type Post struct {
	ID        uuid.UUID   `json:"id"`
	AuthorID  uuid.UUID   `json:"author"`
	GroupID   uuid.UUID   `json:"group"`
	Title     string      `json:"title"`
	Text      string      `json:"text"`
	Image     *string     `json:"image,omitempty"`
	Likes     []uuid.UUID `json:"likes"`
	CreatedAt time.Time   `json:"timestamp"`
}

func (p *Post) IsLikedBy(id uuid.UUID) bool {
	return contains(p.Likes, id)
}

func (p *Post) Like(id uuid.UUID) {
	p.Likes = add(p.Likes, id)
}

func (p *Post) Unlike(id uuid.UUID) {
	p.Likes = remove(p.Likes, id)
}

type Comment struct {
	ID        uuid.UUID `json:"id"`
	AuthorID  uuid.UUID `json:"author"`
	PostID    uuid.UUID `json:"post"`
	Text      string    `json:"text"`
	CreatedAt time.Time `json:"timestamp"`
}

// ListOptions controls ordering and paging of post and comment listings.
type ListOptions struct {
	Newest bool
	Skip   int
	Limit  int
}
