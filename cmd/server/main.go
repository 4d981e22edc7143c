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

package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schoolplane/schoolplane/internal/audit"
	"github.com/schoolplane/schoolplane/internal/circular"
	"github.com/schoolplane/schoolplane/internal/config"
	"github.com/schoolplane/schoolplane/internal/identity"
	"github.com/schoolplane/schoolplane/internal/observability/logger"
	"github.com/schoolplane/schoolplane/internal/observability/metrics"
	"github.com/schoolplane/schoolplane/internal/observability/tracing"
	"github.com/schoolplane/schoolplane/internal/platform"
	"github.com/schoolplane/schoolplane/internal/report"
	"github.com/schoolplane/schoolplane/internal/school"
	"github.com/schoolplane/schoolplane/internal/session"
	"github.com/schoolplane/schoolplane/internal/sharelink"
	"github.com/schoolplane/schoolplane/internal/store/postgres"
	"github.com/schoolplane/schoolplane/internal/subscription"
	"github.com/schoolplane/schoolplane/internal/ticket"
	transportHTTP "github.com/schoolplane/schoolplane/internal/transport/http"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger.InitLogger(logger.Config{
		Level:       cfg.Observability.LogLevel,
		Format:      cfg.Observability.LogFormat,
		ServiceName: cfg.Observability.ServiceName,
	})
	slog.Info("starting schoolplane platform")

	// Initialize context
	ctx := context.Background()

	// Initialize tracer
	tracer, err := tracing.New(ctx, tracing.Config{
		Enabled:        cfg.Observability.OTELEnabled,
		ServiceName:    cfg.Observability.ServiceName,
		ServiceVersion: cfg.Observability.ServiceVersion,
		SamplingRate:   1.0,
	})
	if err != nil {
		slog.Error("failed to initialize tracer", logger.Error(err))
	}
	defer tracer.Shutdown(ctx)

	// Initialize meter
	meter, err := metrics.New(ctx, metrics.Config{
		Enabled: cfg.Observability.OTELEnabled,
	}, cfg.Observability.ServiceName)
	if err != nil {
		slog.Error("failed to initialize meter", logger.Error(err))
	}

	// Initialize database
	db, err := postgres.New(ctx, postgres.Config{
		Host:         cfg.Database.Host,
		Port:         cfg.Database.Port,
		User:         cfg.Database.User,
		Password:     cfg.Database.Password,
		Database:     cfg.Database.Database,
		SSLMode:      cfg.Database.SSLMode,
		MaxOpenConns: cfg.Database.MaxOpenConns,
		MaxIdleConns: cfg.Database.MaxIdleConns,
	})
	if err != nil {
		slog.Error("failed to connect to database", logger.Error(err))
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("connected to database")

	// Initialize repositories
	userRepo := postgres.NewUserRepository(db)
	sessionRepo := postgres.NewSessionRepository(db)
	scopeRepo := postgres.NewScopeRepository(db)
	schoolRepo := postgres.NewSchoolRepository(db)
	circularRepo := postgres.NewCircularRepository(db)
	reportRepo := postgres.NewReportRepository(db)
	subscriptionRepo := postgres.NewSubscriptionRepository(db)
	ticketRepo := postgres.NewTicketRepository(db)

	// Initialize helpers
	auditLogger := audit.NewSlogLogger()
	passwordHasher := identity.NewPasswordHasher(
		cfg.Security.Argon2Memory,
		cfg.Security.Argon2Iterations,
		cfg.Security.Argon2Parallelism,
		cfg.Security.Argon2SaltLength,
		cfg.Security.Argon2KeyLength,
	)

	// Initialize services
	identityService := identity.NewService(
		userRepo,
		passwordHasher,
		auditLogger,
		cfg.Security.LockoutMaxAttempts,
		cfg.Security.LockoutDuration,
	)
	sessionService := session.NewService(sessionRepo, cfg.Session.Lifetime, cfg.Session.IdleTimeout)

	// Access-decision counter; falls back to the no-op recorder when the
	// meter is disabled.
	var recorder platform.DecisionRecorder = platform.NopRecorder{}
	if meter != nil {
		counter, err := metrics.NewDecisionCounter(meter)
		if err != nil {
			slog.Error("failed to create decision counter", logger.Error(err))
		} else {
			recorder = counter
		}
	}

	platformService := platform.NewService(
		platform.NewScopeResolver(scopeRepo),
		platform.NewAllowlistGuard(platform.DefaultRouteRegistry()),
		sessionService,
		auditLogger,
		recorder,
	)

	schoolService := school.NewService(schoolRepo)
	circularService := circular.NewService(circularRepo, auditLogger)
	reportService := report.NewService(reportRepo)
	subscriptionService := subscription.NewService(subscriptionRepo)
	ticketService := ticket.NewService(ticketRepo)

	shareIssuer, err := sharelink.NewIssuer([]byte(cfg.ShareLink.Secret), cfg.ShareLink.TTL)
	if err != nil {
		slog.Error("failed to initialize share-link issuer", logger.Error(err))
		os.Exit(1)
	}

	// Seed the initial superuser (ENV driven)
	bootstrapService := identity.NewBootstrapService(identityService, auditLogger)
	if err := bootstrapService.Bootstrap(ctx); err != nil {
		slog.Error("bootstrap failed", logger.Error(err))
	}

	// Rate Limiter
	rateLimiter := transportHTTP.NewRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)

	// Configure SameSite mode
	sameSite := http.SameSiteLaxMode
	switch cfg.Session.CookieSameSite {
	case "Strict":
		sameSite = http.SameSiteStrictMode
	case "None":
		sameSite = http.SameSiteNoneMode
	}

	// Initialize HTTP handler
	handler := transportHTTP.NewHandler(
		identityService,
		sessionService,
		platformService,
		schoolService,
		circularService,
		reportService,
		subscriptionService,
		ticketService,
		shareIssuer,
		auditLogger,
		transportHTTP.SessionConfig{
			CookieName:     cfg.Session.CookieName,
			CookieDomain:   cfg.Session.CookieDomain,
			CookiePath:     cfg.Session.CookiePath,
			CookieSecure:   cfg.Session.CookieSecure,
			CookieHTTPOnly: cfg.Session.CookieHTTPOnly,
			CookieSameSite: sameSite,
		},
	)

	// Create router
	router := transportHTTP.NewRouter(handler, rateLimiter)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start session cleanup goroutine
	go func() {
		ticker := time.NewTicker(1 * time.Hour)
		defer ticker.Stop()
		for range ticker.C {
			if err := sessionService.CleanupExpired(ctx); err != nil {
				slog.ErrorContext(ctx, "failed to cleanup expired sessions", logger.Error(err))
			}
		}
	}()

	// Start server
	go func() {
		slog.Info("starting http server", logger.Component("server"), logger.Operation("listen"))
		slog.Info(fmt.Sprintf("listening on %s", addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", logger.Error(err))
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down server")

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", logger.Error(err))
	}

	slog.Info("server stopped")
}
