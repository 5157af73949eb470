package handlers

import (
	"errors"
	"net/http"

	"ecolearn/internal/models"
	"ecolearn/internal/service"
)

// AuthHandler serves registration, login and profile endpoints
type AuthHandler struct {
	authService *service.AuthService
	userService *service.UserService
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(authService *service.AuthService, userService *service.UserService) *AuthHandler {
	return &AuthHandler{authService: authService, userService: userService}
}

type authResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in service.RegisterInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	user, token, err := h.authService.Register(in)
	if err != nil {
		if errors.Is(err, service.ErrDuplicateAccount) || errors.Is(err, service.ErrUnknownClassCode) {
			respondServiceError(w, err)
			return
		}
		// validation failures carry a user-facing message
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}
	identifier := in.Username
	if identifier == "" {
		identifier = in.Email
	}

	user, token, err := h.authService.Login(identifier, in.Password)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Me handles GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, CurrentUser(r))
}

// UpdateProfile handles PUT /api/auth/me
func (h *AuthHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	user := CurrentUser(r)
	var in struct {
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Avatar    string `json:"avatar"`
	}
	if err := decodeJSON(w, r, &in); err != nil {
		respondError(w, http.StatusBadRequest, err.Error(), nil)
		return
	}

	updated, err := h.userService.UpdateProfile(user.ID, in.FirstName, in.LastName, in.Avatar)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
