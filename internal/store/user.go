package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/studentrecords/apiserver/types"
)

const userColumns = `id, name, email, password, verified, verification_token,
		       reset_password_token, reset_password_expires, created_at`

// UserRepository handles persistence for users and their credential state.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	const query = `
		INSERT INTO users (name, email, password, verification_token)
		VALUES ($1, $2, $3, $4)
		RETURNING id, verified, created_at`
	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.VerificationToken,
	).Scan(&user.ID, &user.Verified, &user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, err
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int) (types.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (types.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *UserRepository) GetByVerificationToken(ctx context.Context, token string) (types.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE verification_token = $1`, token)
}

// GetByResetToken returns the user holding token only while its expiry is after now.
func (r *UserRepository) GetByResetToken(ctx context.Context, token string, now time.Time) (types.User, error) {
	const query = `SELECT ` + userColumns + `
		FROM users
		WHERE reset_password_token = $1 AND reset_password_expires > $2`
	return r.getOne(ctx, query, token, now)
}

// MarkVerified flips verified and clears the verification token, provided
// the row still carries token.
func (r *UserRepository) MarkVerified(ctx context.Context, id int, token string) error {
	const query = `
		UPDATE users
		SET verified = TRUE,
			verification_token = NULL
		WHERE id = $1 AND verification_token = $2`
	return execOne(ctx, r.db, query, id, token)
}

// SetResetToken stores a reset token and its expiry for a verified user.
// A newer call overwrites any pending token.
func (r *UserRepository) SetResetToken(ctx context.Context, email, token string, expires time.Time) error {
	const query = `
		UPDATE users
		SET reset_password_token = $1,
			reset_password_expires = $2
		WHERE email = $3 AND verified = TRUE`
	return execOne(ctx, r.db, query, token, expires, email)
}

// ResetPassword replaces the password and clears the reset pair, provided
// the row still carries token.
func (r *UserRepository) ResetPassword(ctx context.Context, id int, token, passwordHash string) error {
	const query = `
		UPDATE users
		SET password = $1,
			reset_password_token = NULL,
			reset_password_expires = NULL
		WHERE id = $2 AND reset_password_token = $3`
	return execOne(ctx, r.db, query, passwordHash, id, token)
}

func (r *UserRepository) UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error {
	const query = `UPDATE users SET password = $1 WHERE id = $2`
	return execOne(ctx, r.db, query, passwordHash, id)
}

func (r *UserRepository) Delete(ctx context.Context, id int) error {
	const query = `DELETE FROM users WHERE id = $1`
	return execOne(ctx, r.db, query, id)
}

func (r *UserRepository) getOne(ctx context.Context, query string, args ...any) (types.User, error) {
	var (
		user         types.User
		verification sql.NullString
		reset        sql.NullString
		resetExpires sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Verified,
		&verification,
		&reset,
		&resetExpires,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.User{}, ErrNotFound
		}
		return types.User{}, err
	}

	if verification.Valid {
		user.VerificationToken = &verification.String
	}
	if reset.Valid {
		user.ResetToken = &reset.String
	}
	if resetExpires.Valid {
		user.ResetTokenExpiry = &resetExpires.Time
	}
	return user, nil
}

// execOne runs a statement and reports ErrNotFound when it affected no rows.
func execOne(ctx context.Context, db *sql.DB, query string, args ...any) error {
	result, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
