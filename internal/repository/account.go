// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"codeberg.org/typecode/accounts/internal/models"
)

// Column limits enforced before anything reaches the database.
const (
	MaxNameLength   = 50
	MaxEmailLength  = 60
	MaxHashLength   = 255
	MaxCodeLength   = 16
	MaxBioLength    = 500
	MaxSocialLength = 100
	birthDateLength = 10
)

const accountColumns = `id, first_name, last_name, email, password_hash, email_verified,
	email_code, email_code_expires_at, email_code_attempts, profile_done, birth_date, bio,
	instagram, snapchat, tiktok, twitter, facebook, created_at, updated_at`

// NormalizeEmail returns the stored form of an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// CreateAccount inserts a new account and sets its ID and timestamps.
func (r *Repository) CreateAccount(ctx context.Context, a *models.Account) error {
	a.Email = NormalizeEmail(a.Email)
	if err := errors.Join(
		checkLength("firstName", a.FirstName, MaxNameLength),
		checkLength("lastName", a.LastName, MaxNameLength),
		checkLength("email", a.Email, MaxEmailLength),
		checkLength("passwordHash", a.PasswordHash, MaxHashLength),
		checkOptionalLength("emailCode", a.EmailCode, MaxCodeLength),
	); err != nil {
		return err
	}

	now := r.now().Unix()
	id, err := doValue(ctx, r, func(ctx context.Context) (int64, error) {
		res, err := r.db.ExecContext(ctx,
			`INSERT INTO accounts (first_name, last_name, email, password_hash, email_verified,
				email_code, email_code_expires_at, email_code_attempts, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			a.FirstName, a.LastName, a.Email, a.PasswordHash, a.EmailVerified,
			a.EmailCode, a.EmailCodeExpiresAt, a.EmailCodeAttempts, now, now)
		if err != nil {
			return 0, err
		}
		return res.LastInsertId()
	})
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert account: %w", err)
	}

	a.ID = id
	a.CreatedAt = now
	a.UpdatedAt = now
	return nil
}

// GetAccountByID retrieves an account by its ID.
func (r *Repository) GetAccountByID(ctx context.Context, id int64) (*models.Account, error) {
	return doValue(ctx, r, func(ctx context.Context) (*models.Account, error) {
		var a models.Account
		err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE id = ?`, id)
		if err != nil {
			return nil, wrapError(err)
		}
		return &a, nil
	})
}

// GetAccountByEmail retrieves an account by email, ignoring case.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	email = NormalizeEmail(email)
	return doValue(ctx, r, func(ctx context.Context) (*models.Account, error) {
		var a models.Account
		err := r.db.GetContext(ctx, &a, `SELECT `+accountColumns+` FROM accounts WHERE email = ?`, email)
		if err != nil {
			return nil, wrapError(err)
		}
		return &a, nil
	})
}

// UpdateAccount applies the non-nil fields of patch to the account.
func (r *Repository) UpdateAccount(ctx context.Context, id int64, patch models.AccountPatch) error {
	sets, args, err := patchAssignments(patch)
	if err != nil {
		return err
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, r.now().Unix(), id)
	query := `UPDATE accounts SET ` + strings.Join(sets, ", ") + ` WHERE id = ?`

	return r.do(ctx, func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to update account: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// DeleteAccount removes the account row. Dependent records must be gone
// before, the foreign keys reject the delete otherwise.
func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	return r.do(ctx, func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
		if err != nil {
			return fmt.Errorf("failed to delete account: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrNotFound
		}
		return nil
	})
}

// CodeState is the code bookkeeping after an attempt was spent.
type CodeState struct {
	Code      string `db:"email_code"`
	ExpiresAt int64  `db:"email_code_expires_at"`
	Attempts  int    `db:"email_code_attempts"`
}

// IncrementCodeAttempts spends one attempt on the stored code in a single
// statement. It fails with ErrNoActiveCode when the attempts are used up
// or the code expired before now.
func (r *Repository) IncrementCodeAttempts(ctx context.Context, id int64, maxAttempts int, now time.Time) (*CodeState, error) {
	return doValue(ctx, r, func(ctx context.Context) (*CodeState, error) {
		var st CodeState
		err := r.db.GetContext(ctx, &st,
			`UPDATE accounts
			SET email_code_attempts = email_code_attempts + 1, updated_at = ?
			WHERE id = ? AND email_code_attempts < ? AND email_code_expires_at >= ?
			RETURNING email_code, email_code_expires_at, email_code_attempts`,
			now.Unix(), id, maxAttempts, now.Unix())
		if err != nil {
			if errors.Is(wrapError(err), ErrNotFound) {
				return nil, ErrNoActiveCode
			}
			return nil, fmt.Errorf("failed to increment code attempts: %w", err)
		}
		return &st, nil
	})
}

// ConsumeCode applies patch only while the stored code still equals code,
// so a code can be consumed once.
func (r *Repository) ConsumeCode(ctx context.Context, id int64, code string, patch models.AccountPatch) error {
	if code == "" {
		return ErrCodeConsumed
	}
	sets, args, err := patchAssignments(patch)
	if err != nil {
		return err
	}

	sets = append(sets, "updated_at = ?")
	args = append(args, r.now().Unix(), id, code)
	query := `UPDATE accounts SET ` + strings.Join(sets, ", ") + ` WHERE id = ? AND email_code = ?`

	return r.do(ctx, func(ctx context.Context) error {
		res, err := r.db.ExecContext(ctx, query, args...)
		if err != nil {
			return fmt.Errorf("failed to consume code: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		if n == 0 {
			return ErrCodeConsumed
		}
		return nil
	})
}

// patchAssignments validates patch and turns it into SET clauses.
func patchAssignments(p models.AccountPatch) ([]string, []any, error) {
	var (
		sets []string
		args []any
		errs []error
	)
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if p.FirstName != nil {
		errs = append(errs, checkLength("firstName", *p.FirstName, MaxNameLength))
		set("first_name", *p.FirstName)
	}
	if p.LastName != nil {
		errs = append(errs, checkLength("lastName", *p.LastName, MaxNameLength))
		set("last_name", *p.LastName)
	}
	if p.PasswordHash != nil {
		errs = append(errs, checkLength("passwordHash", *p.PasswordHash, MaxHashLength))
		set("password_hash", *p.PasswordHash)
	}
	if p.EmailVerified != nil {
		set("email_verified", *p.EmailVerified)
	}
	if p.EmailCode != nil {
		errs = append(errs, checkOptionalLength("emailCode", *p.EmailCode, MaxCodeLength))
		set("email_code", *p.EmailCode)
	}
	if p.EmailCodeExpiresAt != nil {
		set("email_code_expires_at", *p.EmailCodeExpiresAt)
	}
	if p.EmailCodeAttempts != nil {
		set("email_code_attempts", *p.EmailCodeAttempts)
	}
	if p.ProfileDone != nil {
		set("profile_done", *p.ProfileDone)
	}
	if p.BirthDate != nil {
		errs = append(errs, checkOptionalLength("birthDate", *p.BirthDate, birthDateLength))
		set("birth_date", *p.BirthDate)
	}
	if p.Bio != nil {
		errs = append(errs, checkOptionalLength("bio", *p.Bio, MaxBioLength))
		set("bio", *p.Bio)
	}
	for _, social := range []struct {
		field, column string
		value         *string
	}{
		{"instagram", "instagram", p.Instagram},
		{"snapchat", "snapchat", p.Snapchat},
		{"tiktok", "tiktok", p.TikTok},
		{"twitter", "twitter", p.Twitter},
		{"facebook", "facebook", p.Facebook},
	} {
		if social.value != nil {
			errs = append(errs, checkOptionalLength(social.field, *social.value, MaxSocialLength))
			set(social.column, *social.value)
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, nil, err
	}
	return sets, args, nil
}
