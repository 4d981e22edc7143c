// Copyright 2026 The Schoolplane Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/schoolplane/schoolplane/internal/audit"
	"github.com/schoolplane/schoolplane/internal/circular"
	"github.com/schoolplane/schoolplane/internal/identity"
	"github.com/schoolplane/schoolplane/internal/observability/logger"
	"github.com/schoolplane/schoolplane/internal/platform"
	"github.com/schoolplane/schoolplane/internal/report"
	"github.com/schoolplane/schoolplane/internal/school"
	"github.com/schoolplane/schoolplane/internal/session"
	"github.com/schoolplane/schoolplane/internal/sharelink"
	"github.com/schoolplane/schoolplane/internal/subscription"
	"github.com/schoolplane/schoolplane/internal/ticket"
)

// Handler holds HTTP handlers and dependencies
type Handler struct {
	identityService     *identity.Service
	sessionService      *session.Service
	platformService     *platform.Service
	schoolService       *school.Service
	circularService     *circular.Service
	reportService       *report.Service
	subscriptionService *subscription.Service
	ticketService       *ticket.Service
	shareIssuer         *sharelink.Issuer
	auditLogger         audit.Logger
	sessionConfig       SessionConfig
}

// SessionConfig holds session cookie configuration
type SessionConfig struct {
	CookieName     string
	CookieDomain   string
	CookiePath     string
	CookieSecure   bool
	CookieHTTPOnly bool
	CookieSameSite http.SameSite
}

// NewHandler creates a new HTTP handler
func NewHandler(
	identityService *identity.Service,
	sessionService *session.Service,
	platformService *platform.Service,
	schoolService *school.Service,
	circularService *circular.Service,
	reportService *report.Service,
	subscriptionService *subscription.Service,
	ticketService *ticket.Service,
	shareIssuer *sharelink.Issuer,
	auditLogger audit.Logger,
	sessionConfig SessionConfig,
) *Handler {
	return &Handler{
		identityService:     identityService,
		sessionService:      sessionService,
		platformService:     platformService,
		schoolService:       schoolService,
		circularService:     circularService,
		reportService:       reportService,
		subscriptionService: subscriptionService,
		ticketService:       ticketService,
		shareIssuer:         shareIssuer,
		auditLogger:         auditLogger,
		sessionConfig:       sessionConfig,
	}
}

// NewRouter creates a new HTTP router. Every authenticated route passes
// through RequireRoute under its registered name; a handler wired without
// it would bypass the allowlist, so additions here must name a registry
// entry.
func NewRouter(h *Handler, rateLimiter *RateLimiter) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(RateLimitMiddleware(rateLimiter))
	r.Use(func(handler http.Handler) http.Handler {
		return otelhttp.NewHandler(handler, "http_request",
			otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
				return r.Method + " " + r.URL.Path
			}),
		)
	})
	r.Use(LoggingMiddleware())
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Public routes
	r.Get("/health", h.HealthCheck)
	r.Get("/", h.Landing)
	r.Get("/sw.js", h.ServiceWorker)
	r.Post("/auth/login", h.Login)

	// Public signed share links
	r.Get("/shared/reports/{token}", h.ViewSharedReport)

	// Authenticated routes. Cookie-authenticated state changes additionally
	// require the custom CSRF header.
	r.Group(func(r chi.Router) {
		r.Use(h.AuthMiddleware)
		r.Use(h.CSRFMiddleware)

		r.With(h.RequireRoute(platform.RouteLogout)).Post("/auth/logout", h.Logout)
		r.With(h.RequireRoute(platform.RouteMyProfile)).Get("/auth/me", h.GetCurrentUser)

		r.Route("/api/v1", func(r chi.Router) {
			r.With(h.RequireRoute(platform.RouteUnreadCount)).
				Get("/notifications/unread-count", h.UnreadCount)

			r.With(h.RequireRoute(platform.RouteCircularsList)).
				Get("/circulars", h.ListCirculars)
			r.With(h.RequireRoute(platform.RouteCircularCreate)).
				Post("/circulars", h.CreateCircular)
			r.With(h.RequireRoute(platform.RouteCircularMarkRead)).
				Post("/circulars/{circularID}/read", h.MarkCircularRead)

			r.With(h.RequireRoute(platform.RouteReportShare)).
				Post("/reports/{reportID}/share", h.ShareReport)

			r.Route("/platform", func(r chi.Router) {
				r.With(h.RequireRoute(platform.RouteSchoolsDirectory)).
					Get("/schools", h.SchoolsDirectory)
				r.With(h.RequireRoute(platform.RouteEnterSchool)).
					Post("/schools/{schoolID}/enter", h.EnterSchool)
				r.With(h.RequireRoute(platform.RouteLeaveSchool)).
					Post("/school/leave", h.LeaveSchool)

				r.With(h.RequireRoute(platform.RouteSchoolDashboard)).
					Get("/school", h.SchoolDashboard)
				r.With(h.RequireRoute(platform.RouteSchoolReports)).
					Get("/school/reports", h.SchoolReports)
				r.With(h.RequireRoute(platform.RouteSchoolTickets)).
					Get("/school/tickets", h.SchoolTickets)
				r.With(h.RequireRoute(platform.RouteSchoolNotify)).
					Post("/school/notify", h.NotifySchool)

				r.With(h.RequireRoute(platform.RouteSubscriptionsList)).
					Get("/subscriptions", h.ListSubscriptions)
			})
		})
	})

	return r
}

// HealthCheck returns the health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "schoolplane",
	})
}

// Landing is the post-login entry point: it tells the client which surface
// the principal belongs on.
func (h *Handler) Landing(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"service": "schoolplane",
	})
}

// ServiceWorker serves the (empty) service worker script so browsers stop
// retrying the registration.
func (h *Handler) ServiceWorker(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/javascript")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("// no-op service worker\n"))
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles user login
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.identityService.Authenticate(r.Context(), req.Email, req.Password)
	if err != nil {
		h.auditLogger.Log(r.Context(), audit.Event{
			Type:      audit.TypeLoginFailed,
			Resource:  req.Email,
			IPAddress: getIPAddress(r),
			UserAgent: r.UserAgent(),
			Metadata:  map[string]any{audit.AttrReason: "invalid_credentials"},
		})
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	// Create session; the active school starts unset.
	sess, err := h.sessionService.Create(r.Context(), user.ID, getIPAddress(r), r.UserAgent())
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to create session", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to create session")
		return
	}

	h.setSessionCookie(w, sess.ID)

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypeLoginSuccess,
		ActorID:   user.ID,
		Resource:  "session",
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
	})

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"role":    user.Role,
	})
}

// Logout destroys the current session. The active school dies with it.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	sess := GetSession(r.Context())
	principal := GetPrincipal(r.Context())

	h.auditLogger.Log(r.Context(), audit.Event{
		Type:      audit.TypeLogout,
		ActorID:   principal.ID,
		Resource:  "session",
		IPAddress: getIPAddress(r),
		UserAgent: r.UserAgent(),
	})
	h.sessionService.Destroy(r.Context(), sess.ID)

	h.clearSessionCookie(w)

	respondJSON(w, http.StatusOK, map[string]string{
		"message": "logged out successfully",
	})
}

// GetCurrentUser returns the current authenticated user identity
func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())
	sess := GetSession(r.Context())

	respondJSON(w, http.StatusOK, map[string]any{
		"user_id":          principal.ID,
		"email":            principal.Email,
		"full_name":        principal.FullName,
		"role":             principal.Role,
		"active_school_id": sess.ActiveSchool(),
	})
}

// UnreadCount returns the unread circular count for the badge.
func (h *Handler) UnreadCount(w http.ResponseWriter, r *http.Request) {
	principal := GetPrincipal(r.Context())

	count, err := h.circularService.UnreadCount(r.Context(), principal.ID)
	if err != nil {
		slog.ErrorContext(r.Context(), "failed to count unread circulars", logger.Error(err))
		respondError(w, http.StatusInternalServerError, "failed to count notifications")
		return
	}

	respondJSON(w, http.StatusOK, map[string]int{"unread": count})
}

// Helper functions
func (h *Handler) setSessionCookie(w http.ResponseWriter, sessionID string) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.sessionConfig.CookieName,
		Value:    sessionID,
		Path:     h.sessionConfig.CookiePath,
		Domain:   h.sessionConfig.CookieDomain,
		Secure:   h.sessionConfig.CookieSecure,
		HttpOnly: h.sessionConfig.CookieHTTPOnly,
		SameSite: h.sessionConfig.CookieSameSite,
		MaxAge:   86400, // 24 hours
	})
}

func (h *Handler) clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:   h.sessionConfig.CookieName,
		Value:  "",
		Path:   h.sessionConfig.CookiePath,
		Domain: h.sessionConfig.CookieDomain,
		MaxAge: -1,
	})
}

func (h *Handler) getSessionFromCookie(r *http.Request) string {
	cookie, err := r.Cookie(h.sessionConfig.CookieName)
	if err != nil {
		return ""
	}
	return cookie.Value
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{
		"error": message,
	})
}

func getIPAddress(r *http.Request) string {
	// Check X-Forwarded-For header first
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	// Check X-Real-IP header
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
