package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/domain"
)

type PostRepo struct {
	s *Store
}

func clonePost(p domain.Post) *domain.Post {
	p.Likes = cloneIDs(p.Likes)
	return &p
}

func (r *PostRepo) Create(ctx context.Context, post *domain.Post) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.posts[post.ID] = *clonePost(*post)
	return nil
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.posts[id]
	if !ok {
		return nil, nil
	}
	return clonePost(p), nil
}

func (r *PostRepo) ListByGroup(ctx context.Context, groupID uuid.UUID, opts domain.ListOptions) ([]domain.Post, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	posts := []domain.Post{}
	for _, p := range r.s.posts {
		if p.GroupID == groupID {
			posts = append(posts, *clonePost(p))
		}
	}
	sortByTime(posts, func(p domain.Post) int64 { return p.CreatedAt.UnixNano() }, opts.Newest)
	return page(posts, opts), nil
}

func (r *PostRepo) CountByGroup(ctx context.Context, groupID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, p := range r.s.posts {
		if p.GroupID == groupID {
			n++
		}
	}
	return n, nil
}

func (r *PostRepo) SetLike(ctx context.Context, postID, userID uuid.UUID, liked bool) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.posts[postID]
	if !ok {
		return nil
	}
	p = *clonePost(p)
	if liked {
		p.Like(userID)
	} else {
		p.Unlike(userID)
	}
	r.s.posts[postID] = p
	return nil
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	for cid, c := range r.s.comments {
		if c.PostID == id {
			delete(r.s.comments, cid)
		}
	}
	delete(r.s.posts, id)
	return nil
}
