// Package http exposes the JSON API: habits, entries, goals, friends,
// insights, the dashboard and billing, behind cookie-session auth.
package http

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"habitual/internal/auth"
	"habitual/internal/billing"
	"habitual/internal/cache"
	"habitual/internal/config"
	"habitual/internal/log"
	"habitual/internal/services"
	"habitual/internal/storage"
)

const (
	dashboardCacheSize = 500
	dashboardCacheTTL  = 2 * time.Minute
)

type Server struct {
	http.Server

	cfg      *config.Config
	repo     *storage.Repository
	auth     *auth.Service
	entries  *services.EntryService
	habits   *services.HabitService
	friends  *services.FriendService
	insights *services.InsightService
	billing  *billing.Client

	logger      *log.Logger
	metrics     *metrics
	rateLimiter *rateLimiter

	dashboardCache *cache.LRUCache[dashboardResponse]
	shutdownOnce   sync.Once
}

type Deps struct {
	Repo     *storage.Repository
	Auth     *auth.Service
	Entries  *services.EntryService
	Habits   *services.HabitService
	Friends  *services.FriendService
	Insights *services.InsightService
	Billing  *billing.Client
	Cache    *cache.Manager
	Logger   *log.Logger
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(cfg *config.Config, deps Deps) *Server {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:              ":" + cfg.Port,
			ReadHeaderTimeout: 10 * time.Second,
		},
		cfg:            cfg,
		repo:           deps.Repo,
		auth:           deps.Auth,
		entries:        deps.Entries,
		habits:         deps.Habits,
		friends:        deps.Friends,
		insights:       deps.Insights,
		billing:        deps.Billing,
		logger:         deps.Logger.WithComponent(log.ComponentHTTP),
		metrics:        newMetrics(),
		rateLimiter:    newRateLimiter(),
		dashboardCache: cache.NewLRUCache[dashboardResponse](dashboardCacheSize, dashboardCacheTTL),
	}
	if deps.Cache != nil {
		deps.Cache.Register(s.dashboardCache)
	}

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /auth/login", s.handleLogin)
	mux.HandleFunc("GET /auth/callback", s.handleCallback)
	mux.HandleFunc("POST /auth/logout", s.handleLogout)

	// The webhook authenticates by signature, not by session.
	mux.HandleFunc("POST /api/billing/webhook", s.handleBillingWebhook)

	api := http.NewServeMux()
	api.HandleFunc("GET /api/user", s.handleGetUser)
	api.HandleFunc("PATCH /api/user", s.handleUpdateUser)

	api.HandleFunc("GET /api/habits", s.handleListHabits)
	api.HandleFunc("POST /api/habits", s.handleCreateHabit)
	api.HandleFunc("GET /api/habits/{id}", s.handleGetHabit)
	api.HandleFunc("PATCH /api/habits/{id}", s.handleUpdateHabit)
	api.HandleFunc("DELETE /api/habits/{id}", s.handleDeleteHabit)

	api.HandleFunc("GET /api/entries", s.handleListEntries)
	api.HandleFunc("POST /api/entries", s.handleCreateEntry)
	api.HandleFunc("DELETE /api/entries/{id}", s.handleDeleteEntry)

	api.HandleFunc("GET /api/goals", s.handleListGoals)
	api.HandleFunc("POST /api/goals", s.handleCreateGoal)
	api.HandleFunc("GET /api/goals/{id}", s.handleGetGoal)
	api.HandleFunc("PATCH /api/goals/{id}", s.handleUpdateGoal)
	api.HandleFunc("DELETE /api/goals/{id}", s.handleDeleteGoal)

	api.HandleFunc("GET /api/friends", s.handleListFriends)
	api.HandleFunc("POST /api/friends", s.handleRequestFriend)
	api.HandleFunc("PATCH /api/friends/{id}", s.handleRespondFriend)
	api.HandleFunc("DELETE /api/friends/{id}", s.handleRemoveFriend)

	api.HandleFunc("GET /api/insights", s.handleListInsights)
	api.HandleFunc("POST /api/insights", s.handleGenerateInsights)
	api.HandleFunc("POST /api/insights/{id}/feedback", s.handleInsightFeedback)

	api.HandleFunc("GET /api/dashboard", s.handleDashboard)

	api.HandleFunc("POST /api/billing/checkout", s.handleBillingCheckout)
	api.HandleFunc("POST /api/billing/portal", s.handleBillingPortal)

	mux.Handle("/api/", s.auth.RequireUser(api))

	s.Server.Handler = s.withMiddleware(mux)
	return s
}

// Shutdown stops the HTTP server and the rate limiter cleanup goroutine.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.stop()
		err = s.Server.Shutdown(ctx)
	})
	return err
}

// withMiddleware wraps the mux with request ID assignment, structured
// request logs, security headers and per-IP rate limiting on writes.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := uuid.NewString()

		logger := s.logger.With(log.FieldRequestID, requestID)
		ctx := log.WithLogger(r.Context(), logger)
		r = r.WithContext(ctx)
		w.Header().Set("X-Request-ID", requestID)

		if isMutating(r.Method) && !s.rateLimiter.allow(clientIP) {
			logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP,
				log.FieldMethod, r.Method,
				log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.metrics.record(rw.statusCode)
		logger.InfoContext(ctx, "HTTP request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatusCode, rw.statusCode,
			log.FieldDuration, time.Since(start).Milliseconds(),
			log.FieldClientIP, clientIP)
	})
}

func isMutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPatch, http.MethodPut, http.MethodDelete:
		return true
	}
	return false
}

// extractClientIP honors proxy headers before falling back to the peer address.
func extractClientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		if i := strings.IndexByte(fwd, ','); i >= 0 {
			return strings.TrimSpace(fwd[:i])
		}
		return strings.TrimSpace(fwd)
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	return r.RemoteAddr
}

// responseWriter captures the status code for logging and metrics.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.Ping(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, "database unavailable")
		return
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
