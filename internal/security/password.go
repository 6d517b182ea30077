package security

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for every stored password.
const PasswordCost = 10

// bcryptHashLen is the length of every bcrypt digest regardless of cost.
const bcryptHashLen = 60

// BcryptHasher hashes and verifies passwords with a fixed cost.
type BcryptHasher struct {
	cost int
}

func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: PasswordCost}
}

func (h *BcryptHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Verify reports whether password matches digest. A malformed digest is a
// mismatch, not an error.
func (h *BcryptHasher) Verify(password, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(password)) == nil
}

// IsHashed tells stored bcrypt digests apart from legacy plaintext values.
func (h *BcryptHasher) IsHashed(stored string) bool {
	return len(stored) == bcryptHashLen
}
