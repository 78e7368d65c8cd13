package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parentingo/parentingo/internal/domain"
)

const postColumns = `id, author_id, group_id, title, text, image, likes, created_at`

type PostRepo struct {
	pool *pgxpool.Pool
}

func NewPostRepo(pool *pgxpool.Pool) *PostRepo {
	return &PostRepo{pool: pool}
}

func (r *PostRepo) Create(ctx context.Context, p *domain.Post) error {
	query := `
		INSERT INTO posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	_, err := r.pool.Exec(ctx, query,
		p.ID, p.AuthorID, p.GroupID, p.Title, p.Text, p.Image, ids(p.Likes), p.CreatedAt,
	)
	return err
}

func (r *PostRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Post, error) {
	var p domain.Post
	err := r.pool.QueryRow(ctx, "SELECT "+postColumns+" FROM posts WHERE id = $1", id).Scan(
		&p.ID, &p.AuthorID, &p.GroupID, &p.Title, &p.Text, &p.Image, &p.Likes, &p.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *PostRepo) ListByGroup(ctx context.Context, groupID uuid.UUID, opts domain.ListOptions) ([]domain.Post, error) {
	query := "SELECT " + postColumns + " FROM posts WHERE group_id = $1 ORDER BY " + orderBy(opts) + " OFFSET $2 LIMIT $3"

	rows, err := r.pool.Query(ctx, query, groupID, opts.Skip, limit(opts))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []domain.Post{}
	for rows.Next() {
		var p domain.Post
		if err := rows.Scan(&p.ID, &p.AuthorID, &p.GroupID, &p.Title, &p.Text, &p.Image, &p.Likes, &p.CreatedAt); err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

func (r *PostRepo) CountByGroup(ctx context.Context, groupID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT count(*) FROM posts WHERE group_id = $1`, groupID).Scan(&n)
	return n, err
}

func (r *PostRepo) SetLike(ctx context.Context, postID, userID uuid.UUID, liked bool) error {
	query := `UPDATE posts SET likes = array_append(array_remove(likes, $2), $2) WHERE id = $1`
	if !liked {
		query = `UPDATE posts SET likes = array_remove(likes, $2) WHERE id = $1`
	}
	_, err := r.pool.Exec(ctx, query, postID, userID)
	return err
}

func (r *PostRepo) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin delete tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM comments WHERE post_id = $1`, id); err != nil {
		return fmt.Errorf("delete comments: %w", err)
	}
	if _, err := tx.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	return tx.Commit(ctx)
}

func orderBy(opts domain.ListOptions) string {
	if opts.Newest {
		return "created_at DESC, id"
	}
	return "created_at ASC, id"
}

// limit maps a zero limit onto NULL, which postgres reads as no limit.
func limit(opts domain.ListOptions) *int {
	if opts.Limit <= 0 {
		return nil
	}
	return &opts.Limit
}
