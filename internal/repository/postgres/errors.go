package postgres

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"bookora/internal/domain"
)

// SQLSTATE codes that mean another writer got there first
const (
	uniqueViolation      = "23505"
	serializationFailure = "40001"
)

// translate maps driver errors onto the DocumentStore contract:
// missing rows become domain.ErrNotFound, lost races become a conflict.
func translate(op, path string, err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			return conflict(path, "document already exists")
		case serializationFailure:
			return conflict(path, "concurrent update")
		}
	}
	return fmt.Errorf("%s document %s: %w", op, path, err)
}
