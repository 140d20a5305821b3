package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/william165-bot/net-hunter/internal/auth"
	"github.com/william165-bot/net-hunter/internal/background"
	"github.com/william165-bot/net-hunter/internal/config"
	"github.com/william165-bot/net-hunter/internal/database"
	"github.com/william165-bot/net-hunter/internal/handlers"
	"github.com/william165-bot/net-hunter/internal/metrics"
	middlewareCustom "github.com/william165-bot/net-hunter/internal/middleware"
	"github.com/william165-bot/net-hunter/internal/repositories"
	"github.com/william165-bot/net-hunter/internal/routes"
	"github.com/william165-bot/net-hunter/internal/services"
	pkghttp "github.com/william165-bot/net-hunter/pkg/http"
	pkglogger "github.com/william165-bot/net-hunter/pkg/logger"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: parseLevel(cfg.Server.LogLevel)}))
	slog.SetDefault(logger)
	logger.Info("configuration loaded",
		slog.String("env", cfg.Server.Env),
		slog.String("store", cfg.Store.Backend))

	// Initialize account store
	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		logger.Error("failed to open account store", slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStore()

	ips, err := pkghttp.NewIPResolver(cfg.Server.TrustedProxies)
	if err != nil {
		logger.Error("invalid TRUSTED_PROXIES", slog.Any("error", err))
		os.Exit(1)
	}

	appMetrics := metrics.New()
	auditLogger := pkglogger.NewAuditLogger(logger)

	tokenManager := auth.NewTokenManager(
		cfg.Auth.JWTSecret,
		cfg.Auth.UserTokenExpiry,
		cfg.Auth.AdminTokenExpiry,
	)

	// Timing delay for auth security
	timingDelay := auth.NewTimingDelay(auth.TimingConfig{
		Base:   cfg.Auth.TimingDelayBase,
		Random: cfg.Auth.TimingDelayRandom,
	})

	adminAuthenticator := auth.NewAdminAuthenticator(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.TOTPSecret)
	if !adminAuthenticator.TOTPRequired() {
		logger.Warn("ADMIN_TOTP_SECRET not set, admin login is password only")
	}

	notifier, err := newNotifier(cfg, logger)
	if err != nil {
		logger.Error("failed to initialize email notifier", slog.Any("error", err))
		os.Exit(1)
	}

	// Initialize services
	accountService := services.NewAccountService(store, tokenManager, timingDelay, appMetrics, logger, auditLogger,
		cfg.Entitlement.AllowedEmailDomain)
	adminService := services.NewAdminService(store, tokenManager, adminAuthenticator, timingDelay, appMetrics, logger, auditLogger,
		cfg.Entitlement.AdminGrantDefaultDays)
	paymentService := services.NewPaymentService(store, notifier, appMetrics, logger, auditLogger,
		cfg.Entitlement.PremiumUnlockDays, cfg.Entitlement.PaymentViaTag)
	extractionService := services.NewExtractionService(store, appMetrics, logger, services.ExtractionLimits{
		Trial:   cfg.Entitlement.ExtractTrialLimit,
		Premium: cfg.Entitlement.ExtractPremiumLimit,
	})
	censusManager := background.NewCensusManager(store, appMetrics, logger, cfg.Entitlement.CensusInterval)

	// Setup router
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middlewareCustom.SecurityHeaders(middlewareCustom.SecurityHeadersConfig{Env: cfg.Server.Env}))
	router.Use(middlewareCustom.CORS(middlewareCustom.DefaultCORSConfig(cfg.Server.AllowedOrigins)))
	router.Use(middlewareCustom.SecureLogger(logger, ips))
	router.Use(middlewareCustom.Metrics(appMetrics))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Timeout(60 * time.Second))

	routes.RegisterRoutes(router, routes.Dependencies{
		AccountHandler:    handlers.NewAccountHandler(accountService, logger),
		AdminHandler:      handlers.NewAdminHandler(adminService, logger),
		PaymentHandler:    handlers.NewPaymentHandler(paymentService, logger),
		ExtractionHandler: handlers.NewExtractionHandler(extractionService, logger),
		HealthHandler:     handlers.NewHealthHandler(store, cfg.Store.Backend, logger),
		TokenManager:      tokenManager,
		Metrics:           appMetrics,
		IPResolver:        ips,
		AuthRateLimit:     middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Auth.AuthRateLimitPerMinute},
		UserRateLimit:     middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Auth.UserRateLimitPerMinute},
		ExtractRateLimit:  middlewareCustom.RateLimitConfig{RequestsPerMinute: cfg.Auth.ExtractRateLimitPerMinute},
	})

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start census task
	censusCtx, censusCancel := context.WithCancel(context.Background())
	defer censusCancel()

	go censusManager.Start(censusCtx)

	// Start server
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sigChan:
		logger.Info("shutdown signal received")
	case err := <-serverErr:
		logger.Error("server error", slog.Any("error", err))
	}

	censusCancel()
	censusManager.Stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.Any("error", err))
		return
	}

	logger.Info("server stopped gracefully")
}

// openStore connects the configured backend. The returned func releases it.
func openStore(cfg *config.Config, logger *slog.Logger) (services.AccountStore, func(), error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	switch cfg.Store.Backend {
	case config.StoreRedis:
		client, err := repositories.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("connected to redis", slog.String("addr", cfg.Redis.Addr))
		return repositories.NewRedisAccountRepository(client).WithLogger(logger), func() { _ = client.Close() }, nil

	case config.StorePostgres:
		db, err := database.NewConnection(&cfg.Database, logger)
		if err != nil {
			return nil, nil, err
		}
		if cfg.Store.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				db.Close()
				return nil, nil, err
			}
		}
		return repositories.NewPostgresAccountRepository(db), db.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}

func newNotifier(cfg *config.Config, logger *slog.Logger) (services.Notifier, error) {
	if !cfg.Email.Enabled {
		return services.NoopNotifier{}, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return services.NewSESNotifier(ctx, cfg.Email.AWSRegion, cfg.Email.FromAddress, cfg.Email.AppBaseURL, logger)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
