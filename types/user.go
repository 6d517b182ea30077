package types

import "time"

// User represents an account in the system.
// It carries identity, credential and email-verification state.
type User struct {
	// ID is the unique identifier of the user.
	ID int `json:"id" db:"id"`

	// Name is the user's display or full name.
	Name string `json:"name" db:"name"`

	// Email is the user's email address. It is unique across users.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt digest of the user's password.
	// Rows created before hashing was introduced may still hold plaintext
	// until the next successful login. This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password"`

	// Verified reports whether the user confirmed their email address.
	Verified bool `json:"verified" db:"verified"`

	// VerificationToken is present while an email verification is pending.
	VerificationToken *string `json:"-" db:"verification_token"`

	// ResetToken is present while a password reset is pending.
	ResetToken *string `json:"-" db:"reset_password_token"`

	// ResetTokenExpiry is paired with ResetToken; the reset is valid only before it.
	ResetTokenExpiry *time.Time `json:"-" db:"reset_password_expires"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
