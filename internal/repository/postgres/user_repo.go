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

const userColumns = `id, username, email, password_hash, name, bio, avatar, followers, following, created_at, last_login`

type UserRepo struct {
	pool *pgxpool.Pool
}

func NewUserRepo(pool *pgxpool.Pool) *UserRepo {
	return &UserRepo{pool: pool}
}

func (r *UserRepo) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (` + userColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.Name,
		user.Bio, user.Avatar, ids(user.Followers), ids(user.Following),
		user.CreatedAt, user.LastLogin,
	)
	return mapErr(err)
}

func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
}

func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE lower(email) = lower($1)", email)
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.scanUser(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username)
}

func (r *UserRepo) UpdateProfile(ctx context.Context, user *domain.User) error {
	query := `UPDATE users SET name = $1, bio = $2, avatar = $3 WHERE id = $4`
	_, err := r.pool.Exec(ctx, query, user.Name, user.Bio, user.Avatar, user.ID)
	return err
}

func (r *UserRepo) TouchLastLogin(ctx context.Context, user *domain.User) error {
	_, err := r.pool.Exec(ctx, `UPDATE users SET last_login = $1 WHERE id = $2`, user.LastLogin, user.ID)
	return err
}

// Edge updates change one element of each array in place.
const (
	addFollowing    = `UPDATE users SET following = array_append(array_remove(following, $2), $2) WHERE id = $1`
	addFollower     = `UPDATE users SET followers = array_append(array_remove(followers, $2), $2) WHERE id = $1`
	removeFollowing = `UPDATE users SET following = array_remove(following, $2) WHERE id = $1`
	removeFollower  = `UPDATE users SET followers = array_remove(followers, $2) WHERE id = $1`
)

func (r *UserRepo) SetFollow(ctx context.Context, followerID, followeeID uuid.UUID, following bool) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin follow tx: %w", err)
	}
	defer tx.Rollback(ctx)

	followingQuery, followersQuery := addFollowing, addFollower
	if !following {
		followingQuery, followersQuery = removeFollowing, removeFollower
	}
	if _, err := tx.Exec(ctx, followingQuery, followerID, followeeID); err != nil {
		return fmt.Errorf("update following: %w", err)
	}
	if _, err := tx.Exec(ctx, followersQuery, followeeID, followerID); err != nil {
		return fmt.Errorf("update followers: %w", err)
	}
	return tx.Commit(ctx)
}

func (r *UserRepo) scanUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var u domain.User
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Name,
		&u.Bio, &u.Avatar, &u.Followers, &u.Following,
		&u.CreatedAt, &u.LastLogin,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ids keeps empty sets as '{}' rather than NULL.
func ids(set []uuid.UUID) []uuid.UUID {
	if set == nil {
		return []uuid.UUID{}
	}
	return set
}
