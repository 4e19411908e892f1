package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/sakif/skill-sangam/internal/apperror"
)

func TestUniqueColumns(t *testing.T) {
	tests := []struct{ msg, want string }{
		{"constraint failed: UNIQUE constraint failed: users.email (2067)", "email"},
		{"UNIQUE constraint failed: skills.name", "name"},
		{"UNIQUE constraint failed: user_skills.user_id, user_skills.skill_id (2067)", "user_id+skill_id"},
		{"something else entirely", "key"},
	}
	for _, tt := range tests {
		if got := uniqueColumns(tt.msg); got != tt.want {
			t.Errorf("uniqueColumns(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}
}

func TestDBError_Mapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want error
	}{
		{"no rows", sql.ErrNoRows, apperror.ErrNotFound},
		{"busy by message", errors.New("database is locked (5) (SQLITE_BUSY)"), apperror.ErrTransient},
		{"check by message", errors.New("CHECK constraint failed: rating"), apperror.ErrValidation},
		{"fk by message", errors.New("FOREIGN KEY constraint failed"), apperror.ErrForeignKey},
		{"already mapped passes through", apperror.Forbidden("nope"), apperror.ErrForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := dbError("op", tt.err, "thing", "1"); !errors.Is(got, tt.want) {
				t.Errorf("dbError() = %v, want %v", got, tt.want)
			}
		})
	}

	plain := errors.New("disk I/O error")
	got := dbError("writing", plain, "thing", "1")
	if !errors.Is(got, plain) || got.Error() != fmt.Sprintf("sqlite: writing: %v", plain) {
		t.Errorf("unmapped error = %v, want wrapped original", got)
	}
	if dbError("op", nil, "thing", "1") != nil {
		t.Error("dbError(nil) != nil")
	}
}

func TestDeleteError_ForeignKeyMeansStillReferenced(t *testing.T) {
	err := deleteError("deleting user", errors.New("FOREIGN KEY constraint failed"), "user", "u1")
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("deleteError() = %v, want ErrConflict", err)
	}
}
