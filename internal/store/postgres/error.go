package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// ErrPgCode refers to https://www.postgresql.org/docs/current/errcodes-appendix.html
type ErrPgCode string

const (
	ErrPgCodeUniqueConstraints     ErrPgCode = "23505"
	ErrPgCodeForeignKeyConstraints ErrPgCode = "23503"
)

// ErrorCodeEqual reports whether err carries the given postgres error code.
func ErrorCodeEqual(err error, code ErrPgCode) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == string(code)
}
