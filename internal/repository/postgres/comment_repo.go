package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parentingo/parentingo/internal/domain"
)

type CommentRepo struct {
	pool *pgxpool.Pool
}

func NewCommentRepo(pool *pgxpool.Pool) *CommentRepo {
	return &CommentRepo{pool: pool}
}

func (r *CommentRepo) Create(ctx context.Context, c *domain.Comment) error {
	query := `
		INSERT INTO comments (id, author_id, post_id, text, created_at)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := r.pool.Exec(ctx, query, c.ID, c.AuthorID, c.PostID, c.Text, c.CreatedAt)
	return err
}

func (r *CommentRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Comment, error) {
	query := `SELECT id, author_id, post_id, text, created_at FROM comments WHERE id = $1`
	var c domain.Comment
	err := r.pool.QueryRow(ctx, query, id).Scan(&c.ID, &c.AuthorID, &c.PostID, &c.Text, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CommentRepo) ListByPost(ctx context.Context, postID uuid.UUID, opts domain.ListOptions) ([]domain.Comment, error) {
	query := `
		SELECT id, author_id, post_id, text, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY ` + orderBy(opts) + `
		OFFSET $2 LIMIT $3`

	rows, err := r.pool.Query(ctx, query, postID, opts.Skip, limit(opts))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.AuthorID, &c.PostID, &c.Text, &c.CreatedAt); err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (r *CommentRepo) CountByPost(ctx context.Context, postID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM comments WHERE post_id = $1`, postID).Scan(&n)
	return n, err
}

func (r *CommentRepo) Delete(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id)
	return err
}
