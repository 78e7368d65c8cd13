package postgres

import (
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/parentingo/parentingo/internal/repository"
)

func NewStore(pool *pgxpool.Pool) repository.Store {
	return repository.Store{
		Users:    NewUserRepo(pool),
		Groups:   NewGroupRepo(pool),
		Posts:    NewPostRepo(pool),
		Comments: NewCommentRepo(pool),
	}
}
