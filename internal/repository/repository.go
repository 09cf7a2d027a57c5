// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/vinovest/sqlx"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	// ErrNotFound is returned when a record is not found
	ErrNotFound = errors.New("record not found")
	// ErrDuplicateEmail is returned when an account with the email exists
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrInvalidField is returned when a value does not fit its column
	ErrInvalidField = errors.New("invalid field value")
	// ErrNoActiveCode is returned when no attempt can be spent on the stored code
	ErrNoActiveCode = errors.New("no active code")
	// ErrUnknownShip is returned when a cruise names a ship outside the catalog
	ErrUnknownShip = errors.New("unknown ship")
	// ErrCodeConsumed is returned when the code changed before it could be consumed
	ErrCodeConsumed = errors.New("code already consumed")
)

// FieldError describes a value rejected by column validation.
type FieldError struct {
	Field string
	Max   int
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("invalid %s: must be at most %d characters", e.Field, e.Max)
}

func (e *FieldError) Unwrap() error {
	return ErrInvalidField
}

// Repository is the SQLite-backed account store.
type Repository struct {
	db         *sqlx.DB
	retryDelay time.Duration
	now        func() time.Time
}

// New creates a new Repository instance
func New(db *sqlx.DB) *Repository {
	return &Repository{
		db:         db,
		retryDelay: 50 * time.Millisecond,
		now:        time.Now,
	}
}

// DB returns the underlying connection pool.
func (r *Repository) DB() *sqlx.DB {
	return r.db
}

// Ping checks that the database is reachable.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// do runs fn, retrying once when the database reports a transient failure.
func (r *Repository) do(ctx context.Context, fn func(ctx context.Context) error) error {
	_, err := doValue(ctx, r, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}

func doValue[T any](ctx context.Context, r *Repository, fn func(ctx context.Context) (T, error)) (T, error) {
	backoff := retry.WithMaxRetries(1, retry.NewConstant(r.retryDelay))
	return retry.DoValue(ctx, backoff, func(ctx context.Context) (T, error) {
		v, err := fn(ctx)
		if isTransient(err) {
			return v, retry.RetryableError(err)
		}
		return v, err
	})
}

// isTransient reports whether err is worth a second attempt.
func isTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, driver.ErrBadConn) {
		return true
	}
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return true
		}
	}
	return false
}

func isUniqueViolation(err error) bool {
	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
			sqliteErr.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// wrapError converts driver errors to repository errors
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

func checkLength(field, value string, maxLen int) error {
	if value == "" || len([]rune(value)) > maxLen {
		return &FieldError{Field: field, Max: maxLen}
	}
	return nil
}

// checkOptionalLength is checkLength for columns that may be cleared.
func checkOptionalLength(field, value string, maxLen int) error {
	if len([]rune(value)) > maxLen {
		return &FieldError{Field: field, Max: maxLen}
	}
	return nil
}
