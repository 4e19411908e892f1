package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sqlitedrv "modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/sakif/skill-sangam/internal/apperror"
)

// errorKind is what a driver error means to the layers above.
type errorKind int

const (
	kindOther errorKind = iota
	kindUnique
	kindForeignKey
	kindCheck
	kindBusy
)

// classify reads the extended result code when the driver provides one and
// falls back to the message text otherwise.
func classify(err error) errorKind {
	var se *sqlitedrv.Error
	if errors.As(err, &se) {
		code := se.Code()
		switch code {
		case sqlitelib.SQLITE_CONSTRAINT_UNIQUE, sqlitelib.SQLITE_CONSTRAINT_PRIMARYKEY:
			return kindUnique
		case sqlitelib.SQLITE_CONSTRAINT_FOREIGNKEY:
			return kindForeignKey
		case sqlitelib.SQLITE_CONSTRAINT_CHECK, sqlitelib.SQLITE_CONSTRAINT_NOTNULL:
			return kindCheck
		}
		switch code & 0xff {
		case sqlitelib.SQLITE_BUSY, sqlitelib.SQLITE_LOCKED:
			return kindBusy
		}
	}

	msg := err.Error()
	switch {
	case strings.Contains(msg, "UNIQUE constraint failed"):
		return kindUnique
	case strings.Contains(msg, "FOREIGN KEY constraint failed"):
		return kindForeignKey
	case strings.Contains(msg, "CHECK constraint failed"), strings.Contains(msg, "NOT NULL constraint failed"):
		return kindCheck
	case strings.Contains(msg, "database is locked"), strings.Contains(msg, "database table is locked"),
		strings.Contains(msg, "SQLITE_BUSY"):
		return kindBusy
	}
	return kindOther
}

// dbError translates err into an apperror kind for resource, or wraps it
// with the operation name when it has no domain meaning.
func dbError(op string, err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return apperror.NotFound(resource, id)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	switch classify(err) {
	case kindUnique:
		return apperror.AlreadyExists(resource, uniqueColumns(err.Error()))
	case kindForeignKey:
		return apperror.ForeignKeyViolation(resource, "referenced record")
	case kindCheck:
		return apperror.ValidationFailed("", fmt.Sprintf("%s violates a table constraint: %s", resource, err))
	case kindBusy:
		return apperror.Transient("sqlite: "+op, err)
	}
	return fmt.Errorf("sqlite: %s: %w", op, err)
}

// deleteError is dbError for DELETE statements, where a foreign key failure
// means a RESTRICT reference is still pointing at the row.
func deleteError(op string, err error, resource, id string) error {
	if err != nil && classify(err) == kindForeignKey {
		return apperror.StillReferenced(resource, id)
	}
	return dbError(op, err, resource, id)
}

// uniqueColumns extracts "email" from
// "UNIQUE constraint failed: users.email" and joins composite keys with "+".
func uniqueColumns(msg string) string {
	const marker = "UNIQUE constraint failed: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return "key"
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexAny(rest, "(\n"); j >= 0 {
		rest = rest[:j]
	}

	parts := strings.Split(rest, ",")
	cols := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if dot := strings.LastIndex(p, "."); dot >= 0 {
			p = p[dot+1:]
		}
		if p != "" {
			cols = append(cols, p)
		}
	}
	if len(cols) == 0 {
		return "key"
	}
	return strings.Join(cols, "+")
}
