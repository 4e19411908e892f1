package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/sakif/skill-sangam/internal/apperror"
)

// SQLSTATE codes the repositories care about.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeCheckViolation      = "23514"
	codeNotNullViolation    = "23502"
	codeStringTooLong       = "22001"
	codeSerialization       = "40001"
	codeDeadlock            = "40P01"
	codeLockNotAvailable    = "55P03"
)

// dbError translates err into an apperror kind for resource, or wraps it
// with the operation name when it has no domain meaning.
func dbError(op string, err error, resource, id string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperror.NotFound(resource, id)
	}
	var appErr *apperror.AppError
	if errors.As(err, &appErr) {
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperror.AlreadyExists(resource, constraintField(pgErr.ConstraintName, pgErr.TableName))
		case codeForeignKeyViolation:
			return apperror.ForeignKeyViolation(resource, "referenced record")
		case codeCheckViolation, codeNotNullViolation, codeStringTooLong:
			return apperror.ValidationFailed(pgErr.ColumnName,
				fmt.Sprintf("%s violates a table constraint: %s", resource, pgErr.Message))
		case codeSerialization, codeDeadlock, codeLockNotAvailable:
			return apperror.Transient("postgres: "+op, err)
		}
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "duplicate key value"):
		return apperror.AlreadyExists(resource, "key")
	case strings.Contains(msg, "deadlock detected"),
		strings.Contains(msg, "could not serialize access"):
		return apperror.Transient("postgres: "+op, err)
	}
	return fmt.Errorf("postgres: %s: %w", op, err)
}

// deleteError is dbError for DELETE statements, where a foreign key failure
// means a RESTRICT reference is still pointing at the row.
func deleteError(op string, err error, resource, id string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation {
		return apperror.StillReferenced(resource, id)
	}
	return dbError(op, err, resource, id)
}

// constraintField recovers the column list from a Postgres default
// constraint name such as "users_email_key".
func constraintField(constraint, table string) string {
	name := strings.TrimSuffix(constraint, "_key")
	if table != "" {
		name = strings.TrimPrefix(name, table+"_")
	}
	if name == "" || name == constraint {
		return "key"
	}
	return name
}
