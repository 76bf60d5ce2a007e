package repository

import (
	"errors"

	domainRepo "medminion/internal/domain/repository"

	"github.com/jackc/pgx/v5/pgconn"
)

// isDuplicateKeyError checks if the error is a PostgreSQL unique constraint violation
func isDuplicateKeyError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// translateCreateError maps unique violations to the domain error
func translateCreateError(err error) error {
	if isDuplicateKeyError(err) {
		return errors.Join(domainRepo.ErrDuplicateKey, err)
	}
	return err
}
