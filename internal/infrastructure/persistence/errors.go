package persistence

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pluvyt/backend/internal/domain/shared"
	"gorm.io/gorm"
)

const pgUniqueViolation = "23505"

// isDuplicateKey reports a unique constraint violation. gorm translates
// it when TranslateError is on; the pgconn check covers raw driver errors.
func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// translate maps store errors to domain errors. duplicate is returned for
// unique violations and may be nil when none are expected.
func translate(err error, notFound, duplicate *shared.DomainError) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		if notFound != nil {
			return notFound
		}
		return shared.ErrNotFound
	case duplicate != nil && isDuplicateKey(err):
		return duplicate
	}
	return err
}
