package repository

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"surveybridge/internal/errs"
	"surveybridge/internal/ports"
)

// classifyWriteError maps driver failures to the port-level taxonomy so
// callers never sniff storage-engine error codes themselves.
func classifyWriteError(err error, msg string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", msg, ports.ErrDuplicateSurvey)
	}
	if isLockConflict(err) {
		return fmt.Errorf("%s: %w: %s", msg, ports.ErrTransientConflict, err.Error())
	}
	return errs.Wrap(err, msg)
}

func isLockConflict(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03": // serialization, deadlock, lock_not_available
			return true
		}
		return false
	}

	// glebarez/sqlite surfaces SQLITE_BUSY/SQLITE_LOCKED as plain strings.
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "database is locked") ||
		strings.Contains(text, "database table is locked") ||
		strings.Contains(text, "sqlite_busy")
}
