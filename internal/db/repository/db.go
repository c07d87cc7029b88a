package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolation = "23505"

// DB is the subset of *pgxpool.Pool the repositories use.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Store bundles every repository behind one value so it can be handed to services
// that each depend on a narrow interface.
type Store struct {
	*QuizRepository
	*ResultRepository
	*UserRepository
}

// NewStore builds all repositories on one connection pool.
func NewStore(db DB) *Store {
	return &Store{
		QuizRepository:   NewQuizRepository(db),
		ResultRepository: NewResultRepository(db),
		UserRepository:   NewUserRepository(db),
	}
}

// isUniqueViolation reports whether err is a unique-constraint failure on the named constraint.
// An empty constraint matches any unique violation.
func isUniqueViolation(err error, constraint string) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) || pgErr.Code != uniqueViolation {
		return false
	}
	return constraint == "" || pgErr.ConstraintName == constraint
}
