package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"
	_ "github.com/go-sql-driver/mysql"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/librarium/backend/docs"
	"github.com/librarium/backend/internal/config"
	"github.com/librarium/backend/internal/handlers"
	"github.com/librarium/backend/internal/jobs"
	"github.com/librarium/backend/internal/logger"
	appMiddleware "github.com/librarium/backend/internal/middleware"
	"github.com/librarium/backend/internal/models"
	"github.com/librarium/backend/internal/repositories"
	"github.com/librarium/backend/internal/services"
	"github.com/librarium/backend/internal/session"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title Librarium API
// @version 1.0
// @description Library management backend: member signup/login, session-based role authorization, inventory and loan tracking.

// @host localhost:8080
// @BasePath /
func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v\n", err)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level); err != nil {
		log.Fatalf("Failed to initialize logger: %v\n", err)
	}
	defer logger.Sync()

	logger.Logger.Info("Starting Librarium backend")

	// Connect to database
	db, err := connectDB(cfg.DSN())
	if err != nil {
		logger.Logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	// Run migrations
	if err := runMigrations(db); err != nil {
		logger.Logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	// Initialize session store
	sessions := session.NewManager([]byte(cfg.Session.Secret), cfg.Session.TTL)

	// Initialize repositories
	userRepo := repositories.NewUserRepository(db, logger.Logger)
	bookRepo := repositories.NewBookRepository(db, logger.Logger)
	loanRepo := repositories.NewLoanRepository(db, logger.Logger)
	fineRepo := repositories.NewFineRepository(db, logger.Logger)

	// Initialize services
	authService := services.NewAuthService(userRepo, sessions, logger.Logger)
	adminService := services.NewAdminService(userRepo, bookRepo, loanRepo, fineRepo, logger.Logger)
	memberService := services.NewMemberService(loanRepo)
	loanService := services.NewLoanService(loanRepo, fineRepo, logger.Logger)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService, sessions, logger.Logger)
	adminHandler := handlers.NewAdminHandler(adminService, loanService, logger.Logger)
	memberHandler := handlers.NewMemberHandler(memberService, logger.Logger)

	// Initialize role guards
	adminOnly := appMiddleware.RequireRole(sessions, models.RoleAdmin)
	memberOnly := appMiddleware.RequireRole(sessions, models.RoleMember)

	// Start the overdue-fine sweeper
	sweeper := jobs.NewFineSweeper(loanRepo, logger.Logger, time.Hour)
	sweeper.Start()
	defer sweeper.Stop()

	// Setup router
	r := chi.NewRouter()

	// Apply middleware
	r.Use(appMiddleware.RequestID)
	r.Use(appMiddleware.Logging(logger.Logger))
	r.Use(appMiddleware.Recovery(logger.Logger))
	r.Use(appMiddleware.CORS(cfg.CORS.AllowedOrigins))
	r.Use(httprate.LimitByIP(100, time.Minute))
	r.Use(appMiddleware.RequestSizeLimit(1 * 1024 * 1024)) // 1MB

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(fmt.Sprintf("http://localhost:%d/swagger/doc.json", cfg.Server.Port)),
	))

	// Register root and auth routes
	authHandler.RegisterRoutes(r)

	// Register admin routes with the ADMIN role guard
	r.Route("/admin", func(r chi.Router) {
		r.Use(adminOnly)
		adminHandler.RegisterRoutes(r)
	})

	// Register member routes with the MEMBER role guard
	r.Route("/member", func(r chi.Router) {
		r.Use(memberOnly)
		memberHandler.RegisterRoutes(r)
	})

	// Start server
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		logger.Logger.Info("Server starting", zap.Int("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("Shutting down server...")

	// Graceful shutdown
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Logger.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Logger.Info("Server exited")
}

// connectDB connects to the database
func connectDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// runMigrations runs database migrations
func runMigrations(db *sql.DB) error {
	driver, err := mysql.WithInstance(db, &mysql.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	// Use the migrations folder relative to the working directory, falling
	// back to the parent when running from cmd
	migrationPath := "file://migrations"
	if _, err := os.Stat("migrations"); os.IsNotExist(err) {
		if _, err := os.Stat("../migrations"); err == nil {
			migrationPath = "file://../migrations"
		}
	}

	m, err := migrate.NewWithDatabaseInstance(
		migrationPath,
		"mysql",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	return nil
}
