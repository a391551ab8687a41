package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"omifemcuts/internal/ratelimit"
	"omifemcuts/internal/util"
	"omifemcuts/pkg/domain"
	"omifemcuts/services/shop/internal/app"
)

const (
	serviceName      = "shop"
	maxJSONBodyBytes = 1 << 20
	multipartMemory  = 32 << 20
)

// Config wires required dependencies for the HTTP server.
type Config struct {
	App *app.App
	// PublicBaseURL is the storefront origin used in shared style links.
	PublicBaseURL string

	RedisAddr     string
	RedisPassword string

	CORSOrigins    []string
	TrustedProxies []string

	SignupRateLimitPerMinute   int
	LoginRateLimitPerMinute    int
	LikeRateLimitPerMinute     int
	FeedbackRateLimitPerMinute int
	ContactRateLimitPerMinute  int
}

// Server exposes the shop HTTP API.
type Server struct {
	app           *app.App
	mux           *http.ServeMux
	publicBaseURL string
	corsOrigins   []string
	trusted       *util.TrustedProxies

	signupLimiter   ratelimit.Limiter
	loginLimiter    ratelimit.Limiter
	likeLimiter     ratelimit.Limiter
	feedbackLimiter ratelimit.Limiter
	contactLimiter  ratelimit.Limiter
}

// New constructs the server with routes configured. Rate limits are shared
// through Redis when an address is configured and kept in-process otherwise.
func New(cfg Config) (*Server, error) {
	if cfg.App == nil {
		return nil, fmt.Errorf("app required")
	}
	trusted, err := util.NewTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return nil, err
	}
	newLimiter := func(name string, limit, fallback int) (ratelimit.Limiter, error) {
		if limit <= 0 {
			limit = fallback
		}
		prefix := "omifemcuts:shop:ratelimit:" + name
		limiter, err := ratelimit.New(cfg.RedisAddr, cfg.RedisPassword, prefix, ratelimit.Config{Limit: limit, Window: time.Minute})
		if err != nil {
			return nil, fmt.Errorf("init %s limiter: %w", name, err)
		}
		return limiter, nil
	}
	s := &Server{
		app:           cfg.App,
		mux:           http.NewServeMux(),
		publicBaseURL: strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/"),
		corsOrigins:   cfg.CORSOrigins,
		trusted:       trusted,
	}
	if s.signupLimiter, err = newLimiter("signup", cfg.SignupRateLimitPerMinute, 5); err != nil {
		return nil, err
	}
	if s.loginLimiter, err = newLimiter("login", cfg.LoginRateLimitPerMinute, 10); err != nil {
		return nil, err
	}
	if s.likeLimiter, err = newLimiter("like", cfg.LikeRateLimitPerMinute, 60); err != nil {
		return nil, err
	}
	if s.feedbackLimiter, err = newLimiter("feedback", cfg.FeedbackRateLimitPerMinute, 3); err != nil {
		return nil, err
	}
	if s.contactLimiter, err = newLimiter("contact", cfg.ContactRateLimitPerMinute, 3); err != nil {
		return nil, err
	}
	s.routes()
	return s, nil
}

// Router returns the configured handler wrapped in the middleware chain.
func (s *Server) Router() http.Handler {
	return util.WithRequestID(util.WithRequestLog(serviceName, util.WithSecurityHeaders(util.WithCORS(s.corsOrigins, s.mux))))
}

func (s *Server) routes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)

	// auth
	s.mux.HandleFunc("/api/auth/register", s.handleRegister)
	s.mux.HandleFunc("/api/auth/login", s.handleLogin)
	s.mux.HandleFunc("/api/auth/google", s.handleFederatedLogin)
	s.mux.HandleFunc("/api/auth/logout", s.handleLogout)
	s.mux.Handle("/api/auth/me", s.authenticated(s.handleMe))

	// catalog & engagement
	s.mux.HandleFunc("/api/home", s.handleHome)
	s.mux.HandleFunc("/api/styles", s.handleStyles)
	s.mux.HandleFunc("/api/styles/", s.handleStyleByID)
	s.mux.HandleFunc("/api/feedback", s.handleFeedback)
	s.mux.HandleFunc("/api/contact", s.handleContact)
	s.mux.HandleFunc("/api/contact/links", s.handleContactLinks)

	// admin
	s.mux.Handle("/api/admin/dashboard", s.adminOnly(s.handleAdminDashboard))
	s.mux.Handle("/api/admin/users", s.adminOnly(s.handleAdminUsers))
	s.mux.Handle("/api/admin/users/", s.adminOnly(s.handleAdminUserByID))
	s.mux.Handle("/api/admin/styles", s.adminOnly(s.handleAdminStyles))
	s.mux.Handle("/api/admin/styles/", s.adminOnly(s.handleAdminStyleByID))
	s.mux.Handle("/api/admin/feedback", s.adminOnly(s.handleAdminFeedback))
	s.mux.Handle("/api/admin/feedback/", s.adminOnly(s.handleAdminFeedbackByID))
	s.mux.Handle("/api/admin/contact-messages", s.adminOnly(s.handleAdminContactMessages))
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// auth wrappers
type authHandler func(http.ResponseWriter, *http.Request, domain.User)

func (s *Server) authenticated(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "shop.authorize", "fail")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r, user)
	})
}

// adminOnly reads the role from the store on every request, so a demoted
// admin loses access with their next call.
func (s *Server) adminOnly(next authHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := s.authorize(r)
		if !ok {
			s.audit(r, "shop.admin.authorize", "fail", "reason", "unauthenticated")
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		if !user.IsAdmin() {
			s.audit(r, "shop.admin.authorize", "fail", "user_id", user.ID, "reason", "forbidden")
			writeError(w, http.StatusForbidden, "forbidden")
			return
		}
		s.audit(r, "shop.admin.authorize", "success", "user_id", user.ID)
		next(w, r, user)
	})
}

func (s *Server) authorize(r *http.Request) (domain.User, bool) {
	token, ok := bearerToken(r)
	if !ok {
		return domain.User{}, false
	}
	return s.app.UserFromToken(r.Context(), token)
}

func (s *Server) audit(r *http.Request, event, outcome string, attrs ...any) {
	logAttrs := []any{
		"event", event,
		"outcome", outcome,
		"path", r.URL.Path,
		"method", r.Method,
		"ip", util.ClientIP(r, s.trusted),
	}
	logAttrs = append(logAttrs, attrs...)
	logger := util.LoggerFromContext(r.Context())
	if outcome == "success" {
		logger.Info("security_event", logAttrs...)
		return
	}
	logger.Warn("security_event", logAttrs...)
}

// allowRate spends one unit of the caller's quota. key defaults to the client IP.
func (s *Server) allowRate(w http.ResponseWriter, r *http.Request, limiter ratelimit.Limiter, scope, key, msg string) bool {
	if key == "" {
		key = util.ClientIP(r, s.trusted)
	}
	if limiter.Allow(scope + "|" + key) {
		return true
	}
	w.Header().Set("Retry-After", "60")
	writeError(w, http.StatusTooManyRequests, msg)
	return false
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

// decodeJSON reads a bounded JSON body and answers 400 on failure.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBodyBytes)).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// confirmed enforces ?confirm=true on destructive requests.
func confirmed(w http.ResponseWriter, r *http.Request) bool {
	if strings.EqualFold(r.URL.Query().Get("confirm"), "true") {
		return true
	}
	writeError(w, http.StatusPreconditionRequired, "confirmation required")
	return false
}

// pathID extracts {id} (and an optional single sub-resource) from prefix/{id}[/{sub}].
func pathID(path, prefix string) (id, sub string, ok bool) {
	rest := strings.TrimPrefix(path, prefix)
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1 && parts[0] != "":
		return parts[0], "", true
	case len(parts) == 2 && parts[0] != "" && parts[1] != "":
		return parts[0], parts[1], true
	default:
		return "", "", false
	}
}

func bearerToken(r *http.Request) (string, bool) {
	authHeader := r.Header.Get("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		return "", false
	}
	token := strings.TrimSpace(strings.TrimPrefix(authHeader, "Bearer "))
	if token == "" {
		return "", false
	}
	return token, true
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeList[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": items,
		"count": len(items),
	})
}
