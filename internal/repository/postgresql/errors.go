package postgresql

import (
	"errors"

	"github.com/jackc/pgconn"
)

const uniqueViolationCode = "23505"

// isUniqueViolation detects a unique-index clash, which the managers treat
// as a conflict (duplicate contact identity, generated id collision).
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}
