package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/studentrecords/apiserver/types"
)

var userRowColumns = []string{
	"id", "name", "email", "password", "verified", "verification_token",
	"reset_password_token", "reset_password_expires", "created_at",
}

func newUserRepo(t *testing.T) (*UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		assert.NoError(t, mock.ExpectationsWereMet())
		_ = db.Close()
	})
	return NewUserRepository(db), mock
}

func TestUserRepository_Create(t *testing.T) {
	repo, mock := newUserRepo(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	token := "verify-token"

	mock.ExpectQuery(`INSERT INTO users \(name, email, password, verification_token\)`).
		WithArgs("Ana", "ana@x.com", "hash", "verify-token").
		WillReturnRows(sqlmock.NewRows([]string{"id", "verified", "created_at"}).AddRow(7, false, created))

	user, err := repo.Create(context.Background(), types.User{
		Name:              "Ana",
		Email:             "ana@x.com",
		PasswordHash:      "hash",
		VerificationToken: &token,
	})
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.False(t, user.Verified)
	assert.Equal(t, created, user.CreatedAt)
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery(`INSERT INTO users`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	_, err := repo.Create(context.Background(), types.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_Create_OtherError(t *testing.T) {
	repo, mock := newUserRepo(t)
	boom := errors.New("connection reset")

	mock.ExpectQuery(`INSERT INTO users`).WillReturnError(boom)

	_, err := repo.Create(context.Background(), types.User{Name: "Ana", Email: "ana@x.com", PasswordHash: "hash"})
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestUserRepository_GetByEmail(t *testing.T) {
	repo, mock := newUserRepo(t)
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	expires := created.Add(time.Hour)

	mock.ExpectQuery(`FROM users WHERE email = \$1`).
		WithArgs("ana@x.com").
		WillReturnRows(sqlmock.NewRows(userRowColumns).
			AddRow(7, "Ana", "ana@x.com", "hash", true, nil, "reset", expires, created))

	user, err := repo.GetByEmail(context.Background(), "ana@x.com")
	require.NoError(t, err)
	assert.Equal(t, 7, user.ID)
	assert.True(t, user.Verified)
	assert.Nil(t, user.VerificationToken)
	require.NotNil(t, user.ResetToken)
	assert.Equal(t, "reset", *user.ResetToken)
	require.NotNil(t, user.ResetTokenExpiry)
	assert.Equal(t, expires, *user.ResetTokenExpiry)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectQuery(`FROM users WHERE id = \$1`).
		WithArgs(42).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByID(context.Background(), 42)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_GetByResetToken_PassesNow(t *testing.T) {
	repo, mock := newUserRepo(t)
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`WHERE reset_password_token = \$1 AND reset_password_expires > \$2`).
		WithArgs("tok", now).
		WillReturnError(sql.ErrNoRows)

	_, err := repo.GetByResetToken(context.Background(), "tok", now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestUserRepository_MarkVerified(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(`UPDATE users\s+SET verified = TRUE,\s+verification_token = NULL\s+WHERE id = \$1 AND verification_token = \$2`).
		WithArgs(7, "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkVerified(context.Background(), 7, "tok"))
}

func TestUserRepository_MarkVerified_ZeroRows(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(`UPDATE users`).
		WithArgs(7, "tok").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.MarkVerified(context.Background(), 7, "tok"), ErrNotFound)
}

func TestUserRepository_SetResetToken_OnlyVerified(t *testing.T) {
	repo, mock := newUserRepo(t)
	expires := time.Date(2026, 5, 1, 13, 0, 0, 0, time.UTC)

	mock.ExpectExec(`WHERE email = \$3 AND verified = TRUE`).
		WithArgs("tok", expires, "ana@x.com").
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.ErrorIs(t, repo.SetResetToken(context.Background(), "ana@x.com", "tok", expires), ErrNotFound)
}

func TestUserRepository_ResetPassword(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(`reset_password_token = NULL,\s+reset_password_expires = NULL\s+WHERE id = \$2 AND reset_password_token = \$3`).
		WithArgs("newhash", 7, "tok").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.ResetPassword(context.Background(), 7, "tok", "newhash"))
}

func TestUserRepository_UpdatePasswordHashAndDelete(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec(`UPDATE users SET password = \$1 WHERE id = \$2`).
		WithArgs("newhash", 7).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`DELETE FROM users WHERE id = \$1`).
		WithArgs(7).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePasswordHash(context.Background(), 7, "newhash"))
	require.NoError(t, repo.Delete(context.Background(), 7))
}
