// Package server sets up the HTTP server with all routes
package server

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/aegispay/aegispay/internal/analytics"
	"github.com/aegispay/aegispay/internal/appstate"
	"github.com/aegispay/aegispay/internal/auth"
	"github.com/aegispay/aegispay/internal/config"
	"github.com/aegispay/aegispay/internal/feed"
	"github.com/aegispay/aegispay/internal/health"
	"github.com/aegispay/aegispay/internal/holds"
	"github.com/aegispay/aegispay/internal/logging"
	"github.com/aegispay/aegispay/internal/metrics"
	"github.com/aegispay/aegispay/internal/ratelimit"
	"github.com/aegispay/aegispay/internal/realtime"
	"github.com/aegispay/aegispay/internal/retry"
	"github.com/aegispay/aegispay/internal/risk"
	"github.com/aegispay/aegispay/internal/security"
	"github.com/aegispay/aegispay/internal/settings"
	"github.com/aegispay/aegispay/internal/validation"
)

// -----------------------------------------------------------------------------
// Server
// -----------------------------------------------------------------------------

// Server wraps the HTTP server and dependencies
type Server struct {
	cfg           *config.Config
	store         *appstate.Store
	settingsStore settings.Store
	engine        *risk.Engine
	settingsSvc   *settings.Service
	authSvc       *auth.Service
	analyticsSvc  *analytics.Service
	feeder        *feed.Feeder
	sweeper       *holds.Sweeper
	hub           *realtime.Hub
	checks        *health.Registry
	rateLimiter   *ratelimit.Limiter
	db            *sql.DB // nil if using in-memory settings
	router        *gin.Engine
	httpSrv       *http.Server
	logger        *slog.Logger
	cancelRunCtx  context.CancelFunc // cancels background goroutines started in Run

	// Health state
	ready   atomic.Bool
	healthy atomic.Bool
}

// Option configures the server
type Option func(*Server)

// WithLogger sets a custom logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithSettingsStore sets a custom settings store (for testing)
func WithSettingsStore(store settings.Store) Option {
	return func(s *Server) {
		s.settingsStore = store
	}
}

// New creates a new server instance
func New(cfg *config.Config, opts ...Option) (*Server, error) {
	s := &Server{
		cfg:    cfg,
		logger: logging.New(cfg.LogLevel, "json"),
	}

	// Apply options first (may set logger/settings store)
	for _, opt := range opts {
		opt(s)
	}

	ctx := context.Background()

	// Settings persistence (Postgres if DATABASE_URL set, otherwise in-memory)
	if s.settingsStore == nil {
		if cfg.DatabaseURL != "" {
			db, err := sql.Open("postgres", cfg.DatabaseURL)
			if err != nil {
				return nil, fmt.Errorf("failed to open database: %w", err)
			}

			db.SetMaxOpenConns(25)
			db.SetMaxIdleConns(5)
			db.SetConnMaxLifetime(5 * time.Minute)

			// The database may still be starting up alongside us.
			if err := retry.Do(ctx, 5, time.Second, db.Ping); err != nil {
				return nil, fmt.Errorf("failed to connect to database: %w", err)
			}

			s.db = db
			s.settingsStore = settings.NewPostgresStore(db)
			s.logger.Info("using PostgreSQL settings storage", "url", maskDSN(cfg.DatabaseURL))
		} else {
			s.settingsStore = settings.NewMemoryStore()
			s.logger.Info("using in-memory settings (will not persist)")
		}
	}

	settingsSvc, err := settings.NewService(ctx, s.settingsStore)
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	s.settingsSvc = settingsSvc

	// Risk engine, configured from the persisted settings
	current := settingsSvc.Get()
	engine, err := risk.NewEngine(current.Thresholds, time.Duration(current.HoldTimerSeconds)*time.Second)
	if err != nil {
		return nil, fmt.Errorf("invalid persisted thresholds: %w", err)
	}
	s.engine = engine

	// App state store, seeded from settings; theme changes write back through
	s.store = appstate.New(
		appstate.WithSettings(current),
		appstate.WithTheme(settingsSvc.Theme()),
		appstate.OnThemeChange(func(theme string) {
			if err := settingsSvc.SetTheme(context.Background(), theme); err != nil {
				s.logger.Warn("failed to persist theme", "error", err)
			}
		}),
	)

	// Auth, analytics, live feed, hold sweeper
	s.authSvc = auth.NewService(s.store, auth.Credentials{
		AdminID:       cfg.AdminID,
		AdminPassword: cfg.AdminPassword,
	}, s.logger)
	s.analyticsSvc = analytics.NewService(s.store)

	s.hub = realtime.NewHub(s.logger)
	s.logger.Info("realtime streaming enabled")

	gen := feed.NewGenerator(engine)
	s.feeder = feed.NewFeeder(s.store, gen, s.hub, s.logger).WithInterval(cfg.FeedInterval)
	s.sweeper = holds.NewSweeper(s.store, s.hub, s.logger).WithInterval(cfg.SweepInterval)

	s.checks = health.NewRegistry()
	if s.db != nil {
		s.checks.Register("database", func(ctx context.Context) health.Status {
			st := health.Status{Name: "database", Healthy: true}
			if err := s.db.PingContext(ctx); err != nil {
				st.Healthy = false
				st.Detail = err.Error()
			}
			return st
		})
	}
	s.checks.Register("feed", func(ctx context.Context) health.Status {
		return health.Status{Name: "feed", Healthy: true, Detail: runningDetail(s.feeder.Running())}
	})
	s.checks.Register("sweeper", func(ctx context.Context) health.Status {
		return health.Status{Name: "sweeper", Healthy: true, Detail: runningDetail(s.sweeper.Running())}
	})

	// Configure gin
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	s.router = gin.New()
	s.setupMiddleware()
	s.setupRoutes()

	s.healthy.Store(true)

	return s, nil
}

// maskDSN hides password in connection string for logging
func maskDSN(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "***"
	}
	if u.User != nil {
		u.User = url.UserPassword(u.User.Username(), "***")
	}
	return u.String()
}

// -----------------------------------------------------------------------------
// Middleware
// -----------------------------------------------------------------------------

func (s *Server) setupMiddleware() {
	// Recovery with logging
	s.router.Use(gin.CustomRecovery(func(c *gin.Context, recovered interface{}) {
		logging.L(c.Request.Context()).Error("panic recovered",
			"error", recovered,
			"path", c.Request.URL.Path,
		)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "An unexpected error occurred",
		})
	}))

	// Security headers
	s.router.Use(security.HeadersMiddleware())

	// CORS (allow all origins for demo - restrict in production)
	s.router.Use(security.CORSMiddleware([]string{"*"}))

	// Request size limit (1MB)
	s.router.Use(validation.RequestSizeMiddleware(validation.MaxRequestSize))

	// Rate limiting
	limiterCfg := ratelimit.DefaultConfig()
	limiterCfg.RequestsPerMinute = s.cfg.RateLimitRPS
	s.rateLimiter = ratelimit.New(limiterCfg)
	s.router.Use(s.rateLimiter.Middleware())

	// Prometheus metrics
	s.router.Use(metrics.Middleware())

	// Request ID
	s.router.Use(s.requestIDMiddleware())

	// Logging
	s.router.Use(s.loggingMiddleware())
}

func (s *Server) requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		// Check for existing request ID (from load balancer, etc.)
		requestID := c.GetHeader("X-Request-ID")
		if requestID == "" {
			requestID = generateRequestID()
		}

		// Add to context
		ctx := logging.WithRequestID(c.Request.Context(), requestID)
		ctx = logging.WithLogger(ctx, s.logger)
		c.Request = c.Request.WithContext(ctx)

		// Set response header
		c.Header("X-Request-ID", requestID)

		c.Next()
	}
}

func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		logger := logging.L(c.Request.Context())

		// Log level based on status code
		switch {
		case status >= 500:
			logger.Error("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
				"client_ip", c.ClientIP(),
			)
		case status >= 400:
			logger.Warn("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		default:
			logger.Info("request completed",
				"method", c.Request.Method,
				"path", path,
				"status", status,
				"latency_ms", latency.Milliseconds(),
			)
		}
	}
}

func generateRequestID() string {
	b := make([]byte, 8)
	if _, err := rand.Read(b); err != nil {
		return "unknown"
	}
	return hex.EncodeToString(b)
}

// -----------------------------------------------------------------------------
// Routes
// -----------------------------------------------------------------------------

func (s *Server) setupRoutes() {
	// Health & metrics endpoints
	s.router.GET("/health", s.healthHandler)
	s.router.GET("/health/live", s.livenessHandler)
	s.router.GET("/health/ready", s.readinessHandler)
	s.router.GET("/metrics", metrics.Handler())

	// WebSocket for the live feed
	s.router.GET("/ws", func(c *gin.Context) {
		s.hub.HandleWebSocket(c.Writer, c.Request)
	})

	// API info
	s.router.GET("/api", s.infoHandler)

	// V1 API group
	v1 := s.router.Group("/v1")
	v1.Use(validation.IDParamMiddleware("id"))

	// Auth flows
	v1.POST("/auth/login", s.publicLoginHandler)
	v1.POST("/auth/admin/login", s.adminLoginHandler)
	v1.POST("/auth/otp/verify", s.otpVerifyHandler)
	v1.POST("/auth/logout", s.logoutHandler)

	// Pay flow (consumer surface)
	v1.POST("/pay", s.payHandler)
	v1.POST("/pay/:id/verify", s.payVerifyHandler)
	v1.POST("/pay/:id/override", s.payOverrideHandler)

	// Transactions (admin surface)
	v1.GET("/transactions", s.listTransactionsHandler)
	v1.GET("/transactions/:id", s.getTransactionHandler)
	v1.POST("/transactions/:id/action", s.transactionActionHandler)

	// Alerts
	v1.GET("/alerts", s.listAlertsHandler)
	v1.POST("/alerts/:id/resolve", s.resolveAlertHandler)

	// Dashboards
	v1.GET("/kpis", s.kpisHandler)
	v1.GET("/analytics", s.analyticsHandler)
	v1.GET("/model/insights", s.modelInsightsHandler)

	// Settings
	v1.GET("/settings", s.getSettingsHandler)
	v1.PUT("/settings", s.updateSettingsHandler)
	v1.GET("/settings/export", s.exportSettingsHandler)
	v1.PUT("/settings/theme", s.themeHandler)

	// Attack simulator
	v1.GET("/simulate/scenarios", s.listScenariosHandler)
	v1.POST("/simulate", s.startSimulationHandler)
	v1.DELETE("/simulate", s.stopSimulationHandler)

	// Users & bank linking
	v1.GET("/users/:id", s.getUserHandler)
	v1.POST("/users/:id/bank", s.linkBankHandler)

	// Feed stats (ops)
	v1.GET("/feed/stats", s.feedStatsHandler)
}

// -----------------------------------------------------------------------------
// Ops handlers
// -----------------------------------------------------------------------------

func (s *Server) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
	defer cancel()

	healthy, statuses := s.checks.CheckAll(ctx)

	status := "healthy"
	httpStatus := http.StatusOK
	if !healthy {
		status = "degraded"
		httpStatus = http.StatusServiceUnavailable
	}

	c.JSON(httpStatus, gin.H{
		"status":    status,
		"version":   "0.1.0",
		"checks":    statuses,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func runningDetail(running bool) string {
	if running {
		return "running"
	}
	return "stopped"
}

func (s *Server) livenessHandler(c *gin.Context) {
	if !s.healthy.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "alive"})
}

func (s *Server) readinessHandler(c *gin.Context) {
	if !s.ready.Load() {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}

func (s *Server) infoHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"name":        "AegisPay",
		"description": "Fraud-detection demo platform (all data is mocked)",
		"version":     "0.1.0",
		"currency":    "INR",
		"mockMode":    s.settingsSvc.Get().MockMode,
	})
}

func (s *Server) feedStatsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"feed":      gin.H{"running": s.feeder.Running()},
		"sweeper":   gin.H{"running": s.sweeper.Running()},
		"websocket": s.hub.Stats(),
	})
}

// -----------------------------------------------------------------------------
// Lifecycle
// -----------------------------------------------------------------------------

// Run starts the HTTP server with graceful shutdown
func (s *Server) Run(ctx context.Context) error {
	// Create a cancellable context for background goroutines so Shutdown() can stop them.
	runCtx, cancel := context.WithCancel(ctx)
	s.cancelRunCtx = cancel

	s.httpSrv = &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// Channel to catch server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		s.logger.Info("starting server", "port", s.cfg.Port, "env", s.cfg.Env)
		if err := s.httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Start realtime hub
	go s.hub.Run(runCtx)

	// Start the synthetic live feed
	go s.feeder.Start(runCtx)

	// Start the hold sweeper
	go s.sweeper.Start(runCtx)

	// Sample DB pool stats into Prometheus
	if s.db != nil {
		go metrics.StartDBStatsCollector(runCtx, s.db, 15*time.Second)
	}

	// Mark as ready once the background loops are actually running
	go func() {
		for !(s.feeder.Running() && s.sweeper.Running()) {
			select {
			case <-runCtx.Done():
				return
			case <-time.After(10 * time.Millisecond):
			}
		}
		s.ready.Store(true)
		s.logger.Info("server ready")
	}()

	// Wait for shutdown signal or error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		s.logger.Info("shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		s.logger.Info("context cancelled")
	}

	return s.Shutdown()
}

// Shutdown gracefully stops the server and background workers
func (s *Server) Shutdown() error {
	s.ready.Store(false)
	s.logger.Info("starting graceful shutdown")

	// Cancel the context for all background goroutines (hub, feed, sweeper)
	if s.cancelRunCtx != nil {
		s.cancelRunCtx()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if s.httpSrv != nil {
		if err := s.httpSrv.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	s.feeder.Stop()
	s.sweeper.Stop()

	// Stop rate limiter cleanup goroutine
	if s.rateLimiter != nil {
		s.rateLimiter.Stop()
	}

	// Close database connection pool
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("database close error", "error", err)
		} else {
			s.logger.Info("database connection closed")
		}
	}

	s.logger.Info("server stopped")
	return nil
}

// Router exposes the gin engine for tests
func (s *Server) Router() *gin.Engine {
	return s.router
}
