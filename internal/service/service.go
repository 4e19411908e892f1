// Package service contains the business rules that sit on top of the
// repositories.
//
// THE LAYERS:
//
//	Caller (CLI, future HTTP)  → parses input, renders output
//	Service (this package)     → validates, enforces ownership, retries
//	Repository                 → reads/writes one backend, keeps aggregates
//
// Services take repository interfaces, never a concrete backend, so the
// same code runs on SQLite and Postgres and is tested against either.
//
// Every write goes through withRetry: a transient storage failure (busy
// database, serialization failure, deadlock) is retried with exponential
// backoff; every other error is returned on the first attempt.
package service

import (
	"log/slog"
	"strings"

	"github.com/sakif/skill-sangam/internal/repository"
)

// page clamps caller supplied pagination the same way everywhere.
func page(limit, offset int) repository.ListOptions {
	return repository.ListOptions{Limit: limit, Offset: offset}.Normalize()
}

// trimPtr trims *s in place and maps a blank value to nil.
func trimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func errAttr(err error) slog.Attr {
	return slog.String("error", err.Error())
}
