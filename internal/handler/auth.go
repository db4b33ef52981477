package handler

import (
	"log/slog"
	"net/http"

	"bookora/internal/domain/services"
	"bookora/internal/httputil"
)

// AuthHandler handles registration, login and the signed-in user's profile
type AuthHandler struct {
	authService services.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService services.AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// Register creates an account and signs it in
// POST /api/auth/register
// Returns 201, or 409 if the email is taken
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req services.RegisterRequest
	if !parseBody(w, r, &req) {
		return
	}

	result, err := h.authService.Register(r.Context(), &req)
	respond(w, http.StatusCreated, result, err)
}

// Login checks credentials
// POST /api/auth/login
// Returns 401 for an unknown email or a wrong password
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req services.LoginRequest
	if !parseBody(w, r, &req) {
		return
	}

	result, err := h.authService.Login(r.Context(), &req)
	if err != nil {
		handleError(w, err)
		return
	}
	if !result.Authenticated {
		httputil.RespondError(w, http.StatusUnauthorized, "invalid email or password")
		return
	}
	httputil.RespondJSON(w, http.StatusOK, result)
}

// Logout acknowledges a sign-out. Tokens are dropped client side.
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if email := httputil.GetUserEmail(r); email != "" {
		h.logger.Info("user signed out", "email", email)
	}
	httputil.RespondJSON(w, http.StatusOK, map[string]string{"status": "signed out"})
}

// Me returns the signed-in user
// GET /api/users/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.authService.GetUser(r.Context(), httputil.GetUserEmail(r))
	respond(w, http.StatusOK, user, err)
}

// UpdateProfile changes the username and optionally the password
// PATCH /api/users/me
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req services.UpdateProfileRequest
	if !parseBody(w, r, &req) {
		return
	}

	user, err := h.authService.UpdateProfile(r.Context(), httputil.GetUserEmail(r), &req)
	respond(w, http.StatusOK, user, err)
}

// FavoriteResponse reports a book's favorite state after a toggle
type FavoriteResponse struct {
	BookID   string `json:"bookId"`
	Favorite bool   `json:"favorite"`
}

// ToggleFavorite adds or removes a book from the user's favorites
// POST /api/users/me/favorites/{id}
func (h *AuthHandler) ToggleFavorite(w http.ResponseWriter, r *http.Request) {
	bookID := r.PathValue("id")
	favorite, err := h.authService.ToggleFavorite(r.Context(), httputil.GetUserEmail(r), bookID)
	respond(w, http.StatusOK, FavoriteResponse{BookID: bookID, Favorite: favorite}, err)
}
