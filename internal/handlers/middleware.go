package handlers

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"ecolearn/internal/models"
	"ecolearn/internal/service"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// UserContextKey carries the authenticated *models.User
const UserContextKey ContextKey = "user"

// Middleware holds dependencies for middleware functions
type Middleware struct {
	authService *service.AuthService
}

// NewMiddleware creates a new middleware instance
func NewMiddleware(authService *service.AuthService) *Middleware {
	return &Middleware{authService: authService}
}

// RequireAuth validates the bearer token and loads the user into context
func (m *Middleware) RequireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(w, http.StatusUnauthorized, "missing bearer token", nil)
			return
		}

		claims, err := m.authService.Verify(token)
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}
		userID, err := claims.UserID()
		if err != nil {
			respondError(w, http.StatusUnauthorized, "invalid or expired token", nil)
			return
		}

		user, err := m.authService.GetUser(userID)
		if err != nil {
			respondError(w, http.StatusInternalServerError, "internal server error", err)
			return
		}
		if user == nil {
			respondError(w, http.StatusUnauthorized, "account no longer exists", nil)
			return
		}

		ctx := context.WithValue(r.Context(), UserContextKey, user)
		next(w, r.WithContext(ctx))
	}
}

// RequireRole gates a handler to one account role, implying RequireAuth
func (m *Middleware) RequireRole(role string, next http.HandlerFunc) http.HandlerFunc {
	return m.RequireAuth(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r)
		if user == nil || user.Role != role {
			respondError(w, http.StatusForbidden, "insufficient permissions", nil)
			return
		}
		next(w, r)
	})
}

// CurrentUser returns the authenticated user from the request context
func CurrentUser(r *http.Request) *models.User {
	user, _ := r.Context().Value(UserContextKey).(*models.User)
	return user
}

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return ""
}

// Logging middleware logs HTTP requests
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.Printf("%s %s %s %v", r.RemoteAddr, r.Method, r.URL.Path, time.Since(start))
	})
}
