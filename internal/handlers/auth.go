package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/studentrecords/apiserver/internal/services"
	"github.com/studentrecords/apiserver/types"
)

const (
	msgRegistered    = "user registered, please verify your email"
	msgVerified      = "email verified successfully"
	msgResetSent     = "if a verified account exists for this email, a reset link has been sent"
	msgPasswordReset = "password updated successfully"
	msgPasswordMatch = "passwords do not match"
)

// AuthService is the account lifecycle used by the auth endpoints.
type AuthService interface {
	Register(ctx context.Context, name, email, password string) (types.User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (services.LoginResult, error)
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, password string) error
	ChangePassword(ctx context.Context, userID int, current, next string) error
}

// AuthHandler provides registration, login and password recovery endpoints.
type AuthHandler struct {
	auth AuthService
	lg   zerolog.Logger
}

// NewAuthHandler constructs an AuthHandler with the provided dependencies.
func NewAuthHandler(auth AuthService, lg zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		lg:   lg.With().Str("component", "auth_handler").Logger(),
	}
}

// AuthRouter registers auth routes on the given router. change-password
// is wrapped with authMiddleware.
func AuthRouter(r chi.Router, auth AuthService, authMiddleware func(http.Handler) http.Handler, lg zerolog.Logger) {
	handler := NewAuthHandler(auth, lg)

	r.Post("/register", handler.Register)
	r.Get("/verify/{token}", handler.VerifyEmail)
	r.Post("/login", handler.Login)
	r.Post("/forgot-password", handler.ForgotPassword)
	r.Post("/reset-password/{token}", handler.ResetPassword)
	r.With(authMiddleware).Post("/change-password", handler.ChangePassword)
}

// Register creates an unverified account and sends the verification email.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := h.auth.Register(r.Context(), req.Name, req.Email, req.Password); err != nil {
		writeServiceError(w, h.lg, err, "failed to register user")
		return
	}

	writeMessage(w, http.StatusOK, msgRegistered)
}

func (h *AuthHandler) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	if err := h.auth.VerifyEmail(r.Context(), chi.URLParam(r, "token")); err != nil {
		writeServiceError(w, h.lg, err, "failed to verify email")
		return
	}
	writeMessage(w, http.StatusOK, msgVerified)
}

// Login verifies credentials and returns a session token.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeServiceError(w, h.lg, err, "failed to authenticate")
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token:  result.Token,
		UserID: result.User.ID,
		Name:   result.User.Name,
		Email:  result.User.Email,
	})
}

// ForgotPassword answers identically whether or not the account exists.
func (h *AuthHandler) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.auth.ForgotPassword(r.Context(), req.Email); err != nil {
		writeServiceError(w, h.lg, err, "failed to start password reset")
		return
	}
	writeMessage(w, http.StatusOK, msgResetSent)
}

func (h *AuthHandler) ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ConfirmPassword != nil && *req.ConfirmPassword != req.Password {
		writeError(w, http.StatusBadRequest, msgPasswordMatch)
		return
	}

	if err := h.auth.ResetPassword(r.Context(), chi.URLParam(r, "token"), req.Password); err != nil {
		writeServiceError(w, h.lg, err, "failed to reset password")
		return
	}
	writeMessage(w, http.StatusOK, msgPasswordReset)
}

func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, errBadToken.Error())
		return
	}

	var req ChangePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ConfirmPassword != nil && *req.ConfirmPassword != req.NewPassword {
		writeError(w, http.StatusBadRequest, msgPasswordMatch)
		return
	}

	if err := h.auth.ChangePassword(r.Context(), userID, req.CurrentPassword, req.NewPassword); err != nil {
		writeServiceError(w, h.lg, err, "failed to change password")
		return
	}
	writeMessage(w, http.StatusOK, msgPasswordReset)
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type ResetPasswordRequest struct {
	Password        string  `json:"password" validate:"required"`
	ConfirmPassword *string `json:"confirmPassword,omitempty"`
}

type ChangePasswordRequest struct {
	CurrentPassword string  `json:"currentPassword" validate:"required"`
	NewPassword     string  `json:"newPassword" validate:"required"`
	ConfirmPassword *string `json:"confirmPassword,omitempty"`
}

type LoginResponse struct {
	Token  string `json:"token"`
	UserID int    `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
}

