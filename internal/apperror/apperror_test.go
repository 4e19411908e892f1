package apperror

import (
	"errors"
	"testing"
)

// TABLE-DRIVEN TESTS:
// One slice of cases, one loop. Adding a case is adding one struct literal,
// and every case shows up by name in `go test -v` output.

func TestErrorsIs(t *testing.T) {
	busy := errors.New("database is locked")

	tests := []struct {
		name      string
		err       error
		target    error
		wantMatch bool
	}{
		{
			name:      "NotFound wraps ErrNotFound",
			err:       NotFound("skill", "42"),
			target:    ErrNotFound,
			wantMatch: true,
		},
		{
			name:      "ValidationFailed wraps ErrValidation",
			err:       ValidationFailed("rating", "rating must be between 1 and 5"),
			target:    ErrValidation,
			wantMatch: true,
		},
		{
			name:      "Conflict wraps ErrConflict",
			err:       Conflict("user", "u1"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "AlreadyExists wraps ErrConflict",
			err:       AlreadyExists("skill", "name"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "StillReferenced wraps ErrConflict",
			err:       StillReferenced("user", "u1"),
			target:    ErrConflict,
			wantMatch: true,
		},
		{
			name:      "ForeignKeyViolation wraps ErrForeignKey",
			err:       ForeignKeyViolation("content", "skill"),
			target:    ErrForeignKey,
			wantMatch: true,
		},
		{
			name:      "Transient wraps ErrTransient",
			err:       Transient("creating rating", busy),
			target:    ErrTransient,
			wantMatch: true,
		},
		{
			name:      "Transient keeps the cause in the chain",
			err:       Transient("creating rating", busy),
			target:    busy,
			wantMatch: true,
		},
		{
			name:      "NotFound does NOT match ErrValidation",
			err:       NotFound("skill", "42"),
			target:    ErrValidation,
			wantMatch: false,
		},
		{
			name:      "ForeignKeyViolation does NOT match ErrConflict",
			err:       ForeignKeyViolation("rating", "rated user"),
			target:    ErrConflict,
			wantMatch: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := errors.Is(tt.err, tt.target)
			if got != tt.wantMatch {
				t.Errorf("errors.Is(%v, %v) = %v, want %v", tt.err, tt.target, got, tt.wantMatch)
			}
		})
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name        string
		err         *AppError
		wantMessage string
	}{
		{
			name:        "NotFound message includes resource and id",
			err:         NotFound("content", "7"),
			wantMessage: "content not found with id 7",
		},
		{
			name:        "ValidationFailed uses custom message",
			err:         ValidationFailed("title", "title is required"),
			wantMessage: "title is required",
		},
		{
			name:        "Conflict message includes resource and id",
			err:         Conflict("user", "u1"),
			wantMessage: "user conflict with id u1",
		},
		{
			name:        "AlreadyExists names the field",
			err:         AlreadyExists("user", "username"),
			wantMessage: "user with this username already exists",
		},
		{
			name:        "StillReferenced names the target",
			err:         StillReferenced("skill", "3"),
			wantMessage: "skill 3 is still referenced by other records",
		},
		{
			name:        "ForeignKeyViolation names the reference",
			err:         ForeignKeyViolation("content", "author"),
			wantMessage: "content references a author that does not exist",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.wantMessage {
				t.Errorf("Error() = %q, want %q", got, tt.wantMessage)
			}
		})
	}
}

func TestUnwrap(t *testing.T) {
	err := NotFound("skill", "42")
	unwrapped := err.Unwrap()

	if unwrapped != ErrNotFound {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, ErrNotFound)
	}
}

func TestValidationFailedField(t *testing.T) {
	err := ValidationFailed("username", "username must be 80 characters or less")

	if err.Field != "username" {
		t.Errorf("Field = %q, want %q", err.Field, "username")
	}
}

func TestIsRetryable(t *testing.T) {
	if !IsRetryable(Transient("op", errors.New("busy"))) {
		t.Error("IsRetryable(Transient) = false, want true")
	}
	if IsRetryable(Conflict("user", "u1")) {
		t.Error("IsRetryable(Conflict) = true, want false")
	}
	if IsRetryable(nil) {
		t.Error("IsRetryable(nil) = true, want false")
	}
}
