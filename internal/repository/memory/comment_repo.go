package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/parentingo/parentingo/internal/domain"
)

type CommentRepo struct {
	s *Store
}

func (r *CommentRepo) Create(ctx context.Context, comment *domain.Comment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.comments[comment.ID] = *comment
	return nil
}

func (r *CommentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	c, ok := r.s.comments[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID uuid.UUID, opts domain.ListOptions) ([]domain.Comment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	comments := []domain.Comment{}
	for _, c := range r.s.comments {
		if c.PostID == postID {
			comments = append(comments, c)
		}
	}
	sortByTime(comments, func(c domain.Comment) int64 { return c.CreatedAt.UnixNano() }, opts.Newest)
	return page(comments, opts), nil
}

func (r *CommentRepo) CountByPost(ctx context.Context, postID uuid.UUID) (int, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	n := 0
	for _, c := range r.s.comments {
		if c.PostID == postID {
			n++
		}
	}
	return n, nil
}

func (r *CommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.comments, id)
	return nil
}
