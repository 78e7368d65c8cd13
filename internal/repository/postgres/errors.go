package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/parentingo/parentingo/internal/repository"
)

const uniqueViolation = "23505"

func mapErr(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return repository.ErrDuplicate
	}
	return err
}
