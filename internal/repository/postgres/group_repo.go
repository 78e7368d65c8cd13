package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parentingo/parentingo/internal/domain"
	"github.com/parentingo/parentingo/internal/repository"
)

const groupColumns = `id, name, description, admin_id, mods, members, banned, created_at, version`

type GroupRepo struct {
	pool *pgxpool.Pool
}

func NewGroupRepo(pool *pgxpool.Pool) *GroupRepo {
	return &GroupRepo{pool: pool}
}

func (r *GroupRepo) Create(ctx context.Context, g *domain.Group) error {
	if err := g.CheckInvariants(); err != nil {
		return err
	}

	query := `
		INSERT INTO groups (` + groupColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1)`

	_, err := r.pool.Exec(ctx, query,
		g.ID, g.Name, g.Description, g.Admin,
		ids(g.Mods), ids(g.Members), ids(g.Banned), g.CreatedAt,
	)
	if err != nil {
		return mapErr(err)
	}
	g.Version = 1
	return nil
}

func (r *GroupRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Group, error) {
	return r.scanGroup(ctx, "SELECT "+groupColumns+" FROM groups WHERE id = $1", id)
}

func (r *GroupRepo) GetByName(ctx context.Context, name string) (*domain.Group, error) {
	return r.scanGroup(ctx, "SELECT "+groupColumns+" FROM groups WHERE name = $1", name)
}

func (r *GroupRepo) List(ctx context.Context) ([]domain.Group, error) {
	return r.list(ctx, "SELECT "+groupColumns+" FROM groups ORDER BY name")
}

func (r *GroupRepo) ListByAdmin(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	return r.list(ctx, "SELECT "+groupColumns+" FROM groups WHERE admin_id = $1 ORDER BY name", userID)
}

func (r *GroupRepo) ListByMember(ctx context.Context, userID uuid.UUID) ([]domain.Group, error) {
	return r.list(ctx, "SELECT "+groupColumns+" FROM groups WHERE $1 = ANY(members) ORDER BY name", userID)
}

func (r *GroupRepo) UpdateMembership(ctx context.Context, g *domain.Group) error {
	if err := g.CheckInvariants(); err != nil {
		return err
	}

	query := `
		UPDATE groups SET mods = $1, members = $2, banned = $3, version = version + 1
		WHERE id = $4 AND version = $5`

	tag, err := r.pool.Exec(ctx, query, ids(g.Mods), ids(g.Members), ids(g.Banned), g.ID, g.Version)
	if err != nil {
		return fmt.Errorf("update group %s: %w", g.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrStaleGroup
	}
	g.Version++
	return nil
}

func (r *GroupRepo) list(ctx context.Context, query string, args ...any) ([]domain.Group, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	groups := []domain.Group{}
	for rows.Next() {
		var g domain.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Admin, &g.Mods, &g.Members, &g.Banned, &g.CreatedAt, &g.Version); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (r *GroupRepo) scanGroup(ctx context.Context, query string, arg any) (*domain.Group, error) {
	var g domain.Group
	err := r.pool.QueryRow(ctx, query, arg).Scan(
		&g.ID, &g.Name, &g.Description, &g.Admin,
		&g.Mods, &g.Members, &g.Banned, &g.CreatedAt, &g.Version,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}
