package sqlite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"

	"github.com/jhoicas/backoffice-api/internal/domain"
)

// uniqueOn indica si err es una violación UNIQUE sobre la columna table.column.
func uniqueOn(err error, column string) bool {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return strings.Contains(sqliteErr.Error(), column)
	}
	return false
}

// wrapErr envuelve err; base ocupada o bloqueada sale como domain.TransientError.
func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) && (sqliteErr.Code == sqlite3.ErrBusy || sqliteErr.Code == sqlite3.ErrLocked) {
		return domain.Transient(op, err)
	}
	return fmt.Errorf("%s: %w", op, err)
}
