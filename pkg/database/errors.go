package database

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

func pgCode(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	return ""
}

func IsUniqueViolation(err error) bool {
	return pgCode(err) == pgerrcode.UniqueViolation
}

// IsExclusionViolation matches the bookings_no_overlap constraint firing.
func IsExclusionViolation(err error) bool {
	return pgCode(err) == pgerrcode.ExclusionViolation
}

func IsSerializationFailure(err error) bool {
	return pgCode(err) == pgerrcode.SerializationFailure
}
