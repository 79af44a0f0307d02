// Package server
//
// @title CarePoint API
// @version 1.0
// @description Healthcare portal API (accounts and sessions)
// @host localhost:8080
// @BasePath /
package server

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/carepoint-health/carepoint/internal/assert"
	"github.com/carepoint-health/carepoint/internal/auth"
	"github.com/carepoint-health/carepoint/internal/config"
	"github.com/carepoint-health/carepoint/internal/models"
	"github.com/carepoint-health/carepoint/internal/revocation"
	"github.com/carepoint-health/carepoint/internal/roles"
)

// Enqueuer is the subset of the Asynq client the server needs
type Enqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// Server represents the HTTP server
type Server struct {
	router      *gin.Engine
	db          *gorm.DB
	config      *config.Config
	logger      zerolog.Logger
	issuer      *auth.Issuer
	revocations revocation.Store
	redis       *redis.Client
	asynqClient *asynq.Client
	enqueuer    Enqueuer
	version     string
}

// New creates a new server instance
func New(cfg *config.Config, zlog zerolog.Logger, version string) (*Server, error) {
	// Initialize database with production settings
	db, err := initDatabase(cfg, zlog)
	if err != nil {
		return nil, err
	}

	// Run database migrations
	if err := models.AutoMigrate(db); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	secret, err := loadJWTSecret(db, cfg, zlog)
	if err != nil {
		return nil, err
	}

	server := &Server{
		db:      db,
		config:  cfg,
		logger:  zlog,
		issuer:  auth.NewIssuer(secret, cfg.Auth.TokenTTL),
		version: version,
	}

	// Revocation backend
	switch cfg.Auth.RevocationBackend {
	case "redis":
		client, err := revocation.OpenRedis(context.Background(), cfg.Redis.Address)
		if err != nil {
			return nil, err
		}
		server.redis = client
		server.revocations = revocation.NewRedisStore(client)
	default:
		server.revocations = revocation.NewGormStore(db)
	}

	// Task queue is optional: without Redis, registration simply skips the welcome task
	if cfg.Redis.Address != "" {
		server.asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr: cfg.Redis.Address,
		})
		server.enqueuer = server.asynqClient
	} else {
		zlog.Info().Msg("REDIS_ADDRESS not set - background tasks disabled")
	}

	if err := bootstrapAdmin(db, cfg, zlog); err != nil {
		return nil, err
	}

	registerValidators()

	// Setup router
	server.setupRouter()

	return server, nil
}

// initDatabase initializes the database connection with production settings
func initDatabase(cfg *config.Config, zlog zerolog.Logger) (*gorm.DB, error) {
	const (
		maxOpenConns    = 8    // Reduced for SQLite efficiency
		maxIdleConns    = 4    // Reduced proportionally
		connMaxLifetime = 300  // 5 minutes
		busyTimeout     = 5000 // 5 seconds
	)

	// Open database connection
	db, err := gorm.Open(sqlite.Open(cfg.Database.URL), &gorm.Config{
		Logger: logger.New(
			log.New(os.Stdout, "\r\n", log.LstdFlags),
			logger.Config{
				LogLevel:                  logger.Error,
				IgnoreRecordNotFoundError: true,
				SlowThreshold:             200 * time.Millisecond,
			},
		),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Get underlying sql.DB to configure connection pool
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(maxOpenConns)
	sqlDB.SetMaxIdleConns(maxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(connMaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// WAL must be set first
	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		fmt.Sprintf("PRAGMA busy_timeout=%d", busyTimeout),
		"PRAGMA foreign_keys=1",
	}

	for _, pragma := range pragmas {
		if err := db.Exec(pragma).Error; err != nil {
			zlog.Warn().Str("pragma", pragma).Err(err).Msg("Failed to apply pragma")
		}
	}

	return db, nil
}

// loadJWTSecret prefers JWT_SECRET, otherwise reads (or creates) the persisted secret
func loadJWTSecret(db *gorm.DB, cfg *config.Config, zlog zerolog.Logger) (string, error) {
	if cfg.Auth.JWTSecret != "" {
		return cfg.Auth.JWTSecret, nil
	}

	var settings models.Settings
	err := db.First(&settings).Error
	if err == nil {
		zlog.Debug().Msg("Loaded JWT secret from database")
		return settings.JWTSecret, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return "", fmt.Errorf("failed to load settings: %w", err)
	}

	// Generate JWT secret (64 hex characters = 32 bytes of randomness)
	secretBytes := make([]byte, 32)
	if _, err := rand.Read(secretBytes); err != nil {
		return "", fmt.Errorf("failed to generate JWT secret: %w", err)
	}
	settings.JWTSecret = hex.EncodeToString(secretBytes)
	assert.Length(settings.JWTSecret, 64) // 64-char secret, fits the settings column

	if err := db.Create(&settings).Error; err != nil {
		return "", fmt.Errorf("failed to persist JWT secret: %w", err)
	}

	zlog.Info().Msg("Generated new JWT secret")
	return settings.JWTSecret, nil
}

// bootstrapAdmin creates the first admin from ADMIN_EMAIL/ADMIN_PASSWORD.
// Admins cannot self-register, so this is the only way in on a fresh database.
func bootstrapAdmin(db *gorm.DB, cfg *config.Config, zlog zerolog.Logger) error {
	if cfg.Auth.AdminEmail == "" || cfg.Auth.AdminPassword == "" {
		return nil
	}

	var count int64
	if err := db.Model(&models.User{}).Where("role = ?", roles.Admin).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to count admins: %w", err)
	}
	if count > 0 {
		return nil
	}

	passwordHash, err := auth.HashPassword(cfg.Auth.AdminPassword)
	if err != nil {
		return err
	}

	admin := &models.User{
		Email:        cfg.Auth.AdminEmail,
		PasswordHash: passwordHash,
		FirstName:    "Admin",
		Role:         roles.Admin,
	}
	if err := db.Create(admin).Error; err != nil {
		return fmt.Errorf("failed to create admin user: %w", err)
	}

	zlog.Info().Str("user_id", admin.ID).Str("email", admin.Email).Msg("Bootstrap admin created")
	return nil
}

// setupRouter configures the Gin router with routes and middleware
func (s *Server) setupRouter() {
	gin.SetMode(gin.ReleaseMode)

	s.router = gin.New()

	// Add middleware
	s.router.Use(gin.Recovery())
	s.router.Use(requestIDMiddleware())
	s.router.Use(s.loggingMiddleware())

	// CORS middleware (the portal SPA runs on a different origin)
	if len(s.config.HTTP.CORSOrigins) > 0 {
		s.router.Use(cors.New(cors.Config{
			AllowOrigins:     s.config.HTTP.CORSOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "HEAD", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Length", "Content-Type", "Authorization", requestIDHeader},
			ExposeHeaders:    []string{"Content-Length", requestIDHeader},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}

	// Health check endpoint (no auth required)
	s.router.GET("/health", s.healthCheck)

	// Public auth endpoints (no auth required)
	s.router.POST("/api/auth/register", s.register)
	s.router.POST("/api/auth/login", s.login)

	// Authenticated API routes (JWT required)
	api := s.router.Group("/api")
	api.Use(JWTAuthMiddleware(s.issuer, s.revocations, s.db, s.logger))
	{
		// Auth endpoints
		api.GET("/auth/me", s.getCurrentUser)
		api.POST("/auth/logout", s.logout)
		api.PATCH("/auth/profile", s.updateProfile)
		api.PUT("/auth/profile", s.updateProfile)

		// User management (admin only)
		userRoutes := api.Group("/users")
		userRoutes.Use(AdminOnlyMiddleware(s.logger))
		{
			userRoutes.GET("", s.listUsers)
		}
	}
}

// loggingMiddleware creates a custom logging middleware using zerolog
func (s *Server) loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start)

		s.logger.Info().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Str("request_id", c.GetString(requestIDKey)).
			Msg("HTTP request")
	}
}

// @Router /health [get]
// @Success 200 {object} map[string]interface{}
func (s *Server) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "online",
		"timestamp": time.Now().UTC(),
		"service":   "carepoint-api",
		"version":   s.version,
	})
}

// Handler exposes the router, mostly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// GetDB returns the database connection for use by workers
func (s *Server) GetDB() *gorm.DB {
	return s.db
}

// SetEnqueuer overrides the task enqueuer
func (s *Server) SetEnqueuer(e Enqueuer) {
	s.enqueuer = e
}

// Close releases the database, Redis and Asynq connections
func (s *Server) Close() error {
	var errs []error
	if s.asynqClient != nil {
		if err := s.asynqClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close asynq client: %w", err))
		}
	}
	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close redis: %w", err))
		}
	}
	// Close database connection to flush WAL writes
	if sqlDB, err := s.db.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Start starts the HTTP server and blocks until SIGINT/SIGTERM
func (s *Server) Start() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	srv := &http.Server{
		Addr:              s.config.HTTP.ListenAddr,
		Handler:           s.router,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", srv.Addr).Msg("Starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case err := <-errChan:
		s.logger.Error().Err(err).Msg("HTTP server error")
		return err
	case <-sigChan:
		s.logger.Info().Msg("Received shutdown signal, shutting down gracefully...")
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		s.logger.Error().Err(err).Msg("Error shutting down HTTP server")
		return err
	}

	if err := s.Close(); err != nil {
		s.logger.Warn().Err(err).Msg("Error releasing resources")
	}

	s.logger.Info().Msg("Server shutdown complete")
	return nil
}
