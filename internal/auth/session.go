package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"habitual/internal/core"
	"habitual/internal/storage"
)

const (
	// SessionCookie is the name of the session cookie.
	SessionCookie = "habitual_session"

	// StateCookie carries the OAuth CSRF state between login and callback.
	StateCookie = "habitual_oauth_state"

	sessionTTL = 30 * 24 * time.Hour
)

type contextKey string

const userContextKey contextKey = "user"

// NewToken returns a 256-bit random token in hex.
func NewToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// CreateSession stores a new session and returns its token and expiry.
func (s *Service) CreateSession(ctx context.Context, userID string) (string, time.Time, error) {
	token, err := NewToken()
	if err != nil {
		return "", time.Time{}, err
	}
	expiresAt := time.Now().UTC().Add(sessionTTL)
	if err := s.repo.CreateSession(ctx, token, userID, expiresAt); err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// DestroySession removes a session by token. Unknown tokens are a no-op.
func (s *Service) DestroySession(ctx context.Context, token string) error {
	return s.repo.DeleteSession(ctx, token)
}

// SetSessionCookie writes the session cookie on the response.
func SetSessionCookie(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// RequireUser resolves the session cookie to a user and stores it in the
// request context, rejecting unauthenticated requests with 401.
func (s *Service) RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(SessionCookie)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		ctx := r.Context()
		userID, err := s.repo.GetSessionUser(ctx, cookie.Value, time.Now().UTC())
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				ClearSessionCookie(w)
				writeAuthError(w, http.StatusUnauthorized, "authentication required")
				return
			}
			writeAuthError(w, http.StatusInternalServerError, "internal error")
			return
		}

		user, err := s.repo.GetUser(ctx, userID)
		if err != nil {
			writeAuthError(w, http.StatusUnauthorized, "authentication required")
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUser(ctx, user)))
	})
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

// WithUser returns a context carrying the authenticated user.
func WithUser(ctx context.Context, user core.User) context.Context {
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext extracts the authenticated user set by RequireUser.
func UserFromContext(ctx context.Context) (core.User, bool) {
	user, ok := ctx.Value(userContextKey).(core.User)
	return user, ok
}
