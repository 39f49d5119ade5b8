package http

import (
	"net/http"
	"time"

	"habitual/internal/auth"
	"habitual/internal/log"
)

const stateCookieTTL = 10 * time.Minute

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if !s.cfg.GoogleEnabled() {
		writeError(w, http.StatusServiceUnavailable, "sign-in is not configured")
		return
	}

	state, err := auth.NewToken()
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookie,
		Value:    state,
		Path:     "/",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.auth.LoginURL(state), http.StatusFound)
}

func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	stateCookie, err := r.Cookie(auth.StateCookie)
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		writeError(w, http.StatusBadRequest, "invalid oauth state")
		return
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.StateCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, http.StatusBadRequest, "missing authorization code")
		return
	}

	ctx := r.Context()
	user, err := s.auth.HandleCallback(ctx, code)
	if err != nil {
		log.FromContext(ctx).ErrorContext(ctx, "OAuth callback failed", log.FieldError, err)
		writeError(w, http.StatusBadGateway, "sign-in failed")
		return
	}

	token, expiresAt, err := s.auth.CreateSession(ctx, user.ID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}
	auth.SetSessionCookie(w, token, expiresAt)
	http.Redirect(w, r, s.cfg.AppURL, http.StatusFound)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if cookie, err := r.Cookie(auth.SessionCookie); err == nil {
		if err := s.auth.DestroySession(r.Context(), cookie.Value); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Session cleanup failed", log.FieldError, err)
		}
	}
	auth.ClearSessionCookie(w)
	w.WriteHeader(http.StatusNoContent)
}
