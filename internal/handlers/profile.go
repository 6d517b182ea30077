package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/studentrecords/apiserver/internal/services"
	"github.com/studentrecords/apiserver/types"
)

// ProfileService loads the signed-in user's profile.
type ProfileService interface {
	Profile(ctx context.Context, userID int) (services.Profile, error)
}

type ProfileHandler struct {
	profiles ProfileService
	lg       zerolog.Logger
}

func NewProfileHandler(profiles ProfileService, lg zerolog.Logger) *ProfileHandler {
	return &ProfileHandler{
		profiles: profiles,
		lg:       lg.With().Str("component", "profile_handler").Logger(),
	}
}

// ProfileRouter registers /profile behind authMiddleware.
func ProfileRouter(r chi.Router, profiles ProfileService, authMiddleware func(http.Handler) http.Handler, lg zerolog.Logger) {
	handler := NewProfileHandler(profiles, lg)
	r.With(authMiddleware).Get("/profile", handler.Profile)
}

func (h *ProfileHandler) Profile(w http.ResponseWriter, r *http.Request) {
	userID, err := userIDFromContext(r.Context())
	if err != nil {
		writeError(w, http.StatusUnauthorized, errBadToken.Error())
		return
	}

	profile, err := h.profiles.Profile(r.Context(), userID)
	if err != nil {
		writeServiceError(w, h.lg, err, "failed to load profile")
		return
	}

	writeJSON(w, http.StatusOK, ProfileResponse{
		ID:        profile.User.ID,
		Email:     profile.User.Email,
		CreatedAt: profile.User.CreatedAt,
		Students:  profile.Students,
	})
}

type ProfileResponse struct {
	ID        int             `json:"id"`
	Email     string          `json:"email"`
	CreatedAt time.Time       `json:"created_at"`
	Students  []types.Student `json:"students"`
}
