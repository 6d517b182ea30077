package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/oops"

	"github.com/studentrecords/apiserver/internal/metrics"
	"github.com/studentrecords/apiserver/internal/security"
	"github.com/studentrecords/apiserver/internal/store"
	"github.com/studentrecords/apiserver/types"
)

const defaultResetTokenTTL = time.Hour

// UserRepository defines persistence operations for users.
type UserRepository interface {
	Create(ctx context.Context, user types.User) (types.User, error)
	GetByID(ctx context.Context, id int) (types.User, error)
	GetByEmail(ctx context.Context, email string) (types.User, error)
	GetByVerificationToken(ctx context.Context, token string) (types.User, error)
	GetByResetToken(ctx context.Context, token string, now time.Time) (types.User, error)
	MarkVerified(ctx context.Context, id int, token string) error
	SetResetToken(ctx context.Context, email, token string, expires time.Time) error
	ResetPassword(ctx context.Context, id int, token, passwordHash string) error
	UpdatePasswordHash(ctx context.Context, id int, passwordHash string) error
	Delete(ctx context.Context, id int) error
}

type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, digest string) bool
	IsHashed(stored string) bool
}

type SessionIssuer interface {
	Issue(userID int) (string, error)
}

// Notifier delivers account emails carrying single-use tokens.
type Notifier interface {
	SendVerification(ctx context.Context, email, token string) error
	SendPasswordReset(ctx context.Context, email, token string) error
}

// AuthRecorder observes auth operation outcomes.
type AuthRecorder interface {
	AuthOperation(operation, result string)
}

// AuthOptions tunes AuthService behaviour.
type AuthOptions struct {
	// LegacyPlaintextMigration lets rows holding a plaintext password log in
	// once, after which the password is stored hashed.
	LegacyPlaintextMigration bool
	ResetTokenTTL            time.Duration
	Recorder                 AuthRecorder
}

// LoginResult is a session token and the user it was issued for.
type LoginResult struct {
	Token string
	User  types.User
}

// AuthService implements registration, verification, login and password
// recovery.
type AuthService struct {
	users    UserRepository
	hasher   PasswordHasher
	sessions SessionIssuer
	notifier Notifier
	opts     AuthOptions
	lg       zerolog.Logger

	now      func() time.Time
	newToken func() (string, error)
}

func NewAuthService(
	users UserRepository,
	hasher PasswordHasher,
	sessions SessionIssuer,
	notifier Notifier,
	opts AuthOptions,
	lg zerolog.Logger,
) *AuthService {
	if opts.ResetTokenTTL <= 0 {
		opts.ResetTokenTTL = defaultResetTokenTTL
	}
	return &AuthService{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
		notifier: notifier,
		opts:     opts,
		lg:       lg.With().Str("component", "auth_service").Logger(),
		now:      time.Now,
		newToken: security.NewOpaqueToken,
	}
}

// Register creates an unverified user and emails the verification link.
// If the email cannot be sent the user is removed again.
func (s *AuthService) Register(ctx context.Context, name, email, password string) (_ types.User, err error) {
	defer s.record("register", &err)

	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	if name == "" || email == "" || password == "" {
		return types.User{}, fmt.Errorf("%w: name, email and password are required", ErrValidation)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return types.User{}, internal("HASH_FAILED", "hash password", err)
	}
	token, err := s.newToken()
	if err != nil {
		return types.User{}, internal("TOKEN_FAILED", "generate verification token", err)
	}

	user, err := s.users.Create(ctx, types.User{
		Name:              name,
		Email:             email,
		PasswordHash:      hash,
		VerificationToken: &token,
	})
	if err != nil {
		if errors.Is(err, store.ErrDuplicateEmail) {
			return types.User{}, ErrDuplicateEmail
		}
		return types.User{}, internal("STORE_FAILED", "create user", err)
	}

	if err := s.notifier.SendVerification(ctx, user.Email, token); err != nil {
		s.removeUnverified(ctx, user.ID)
		return types.User{}, notificationFailed("send verification", err)
	}

	s.lg.Info().Int("user_id", user.ID).Msg("user registered")
	return user, nil
}

// removeUnverified deletes a just-created user. It runs even if the
// request was cancelled.
func (s *AuthService) removeUnverified(ctx context.Context, id int) {
	if err := s.users.Delete(context.WithoutCancel(ctx), id); err != nil {
		s.lg.Error().Err(err).Int("user_id", id).Msg("failed to remove user after notification failure")
	}
}

// VerifyEmail consumes a verification token.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) (err error) {
	defer s.record("verify_email", &err)

	if strings.TrimSpace(token) == "" {
		return ErrInvalidToken
	}

	user, err := s.users.GetByVerificationToken(ctx, token)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return internal("STORE_FAILED", "find user by verification token", err)
	}

	if err := s.users.MarkVerified(ctx, user.ID, token); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidToken
		}
		return internal("STORE_FAILED", "mark user verified", err)
	}

	s.lg.Info().Int("user_id", user.ID).Msg("email verified")
	return nil
}

// Login checks credentials and issues a session token. Unknown emails and
// wrong passwords fail the same way.
func (s *AuthService) Login(ctx context.Context, email, password string) (_ LoginResult, err error) {
	defer s.record("login", &err)

	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return LoginResult{}, fmt.Errorf("%w: email and password are required", ErrValidation)
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return LoginResult{}, ErrInvalidCredentials
		}
		return LoginResult{}, internal("STORE_FAILED", "find user by email", err)
	}

	if !user.Verified {
		return LoginResult{}, ErrEmailNotVerified
	}

	ok, err := s.checkPassword(ctx, &user, password)
	if err != nil {
		return LoginResult{}, err
	}
	if !ok {
		return LoginResult{}, ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return LoginResult{}, internal("TOKEN_FAILED", "issue session token", err)
	}

	return LoginResult{Token: token, User: user}, nil
}

// checkPassword verifies password against the stored value, upgrading a
// legacy plaintext value to a hash on a successful match.
func (s *AuthService) checkPassword(ctx context.Context, user *types.User, password string) (bool, error) {
	if s.hasher.IsHashed(user.PasswordHash) {
		return s.hasher.Verify(password, user.PasswordHash), nil
	}
	if !s.opts.LegacyPlaintextMigration {
		return false, nil
	}
	if subtle.ConstantTimeCompare([]byte(password), []byte(user.PasswordHash)) != 1 {
		return false, nil
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return false, internal("HASH_FAILED", "hash legacy password", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		return false, internal("STORE_FAILED", "persist migrated password", err)
	}
	user.PasswordHash = hash

	s.lg.Info().Int("user_id", user.ID).Msg("migrated plaintext password")
	return true, nil
}

// ForgotPassword starts a reset for a verified account. Callers get the
// same result whether or not the email belongs to one.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) (err error) {
	defer s.record("forgot_password", &err)

	email = strings.TrimSpace(email)
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrValidation)
	}

	token, err := s.newToken()
	if err != nil {
		return internal("TOKEN_FAILED", "generate reset token", err)
	}

	expires := s.now().Add(s.opts.ResetTokenTTL)
	if err := s.users.SetResetToken(ctx, email, token, expires); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		return internal("STORE_FAILED", "store reset token", err)
	}

	if err := s.notifier.SendPasswordReset(ctx, email, token); err != nil {
		return notificationFailed("send password reset", err)
	}
	return nil
}

// ResetPassword consumes a reset token and replaces the password.
func (s *AuthService) ResetPassword(ctx context.Context, token, password string) (err error) {
	defer s.record("reset_password", &err)

	if password == "" {
		return fmt.Errorf("%w: password is required", ErrValidation)
	}
	if strings.TrimSpace(token) == "" {
		return ErrInvalidOrExpiredToken
	}

	user, err := s.users.GetByResetToken(ctx, token, s.now())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return internal("STORE_FAILED", "find user by reset token", err)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return internal("HASH_FAILED", "hash password", err)
	}

	if err := s.users.ResetPassword(ctx, user.ID, token, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrInvalidOrExpiredToken
		}
		return internal("STORE_FAILED", "reset password", err)
	}

	s.lg.Info().Int("user_id", user.ID).Msg("password reset")
	return nil
}

// ChangePassword replaces the password of an authenticated user who knows
// the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID int, current, next string) (err error) {
	defer s.record("change_password", &err)

	if current == "" || next == "" {
		return fmt.Errorf("%w: current and new password are required", ErrValidation)
	}

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return internal("STORE_FAILED", "find user by id", err)
	}

	ok, err := s.checkPassword(ctx, &user, current)
	if err != nil {
		return err
	}
	if !ok {
		return ErrIncorrectPassword
	}

	hash, err := s.hasher.Hash(next)
	if err != nil {
		return internal("HASH_FAILED", "hash password", err)
	}
	if err := s.users.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrUserNotFound
		}
		return internal("STORE_FAILED", "update password", err)
	}

	s.lg.Info().Int("user_id", user.ID).Msg("password changed")
	return nil
}

func (s *AuthService) record(operation string, err *error) {
	if s.opts.Recorder == nil {
		return
	}
	result := metrics.OutcomeSuccess
	if *err != nil {
		result = metrics.OutcomeFailure
	}
	s.opts.Recorder.AuthOperation(operation, result)
}

func internal(code, operation string, err error) error {
	return oops.Code(code).With("operation", operation).Wrap(err)
}

func notificationFailed(operation string, err error) error {
	return oops.Code("NOTIFICATION_FAILED").With("operation", operation).Wrap(fmt.Errorf("%w: %w", ErrNotificationFailed, err))
}
