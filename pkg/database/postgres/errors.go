package pg

import (
	"database/sql"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	"github.com/pkg/errors"
)

// CheckNoRows maps sql.ErrNoRows to outErr, passing any other error through
func CheckNoRows(inErr, outErr error) error {
	if IsNoRows(inErr) {
		return outErr
	}
	return inErr
}

func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsSerializationFailure reports whether a transaction was aborted due to a
// concurrent conflicting write, in which case it's safe to retry from the start.
func IsSerializationFailure(err error) bool {
	return hasCode(err, pgerrcode.SerializationFailure) || hasCode(err, pgerrcode.DeadlockDetected)
}

func hasCode(err error, code string) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == code
}
