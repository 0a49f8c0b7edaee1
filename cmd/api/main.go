package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"contactbook/internal/auth"
	"contactbook/internal/config"
	"contactbook/internal/contact"
	"contactbook/internal/database"
	httpServer "contactbook/internal/http"
	"contactbook/internal/logging"
	"contactbook/internal/metrics"
	"contactbook/internal/ratelimit"
	"contactbook/internal/sms"
	"contactbook/internal/storage"
	"contactbook/internal/user"
)

// @title           Contact Book API
// @version         1.0
// @description     A REST API for managing personal contacts with phone numbers, authentication, and image uploads.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Initialize logger
	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	// Initialize database connection and apply migrations
	db, sqlDB, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := database.RunMigrations(context.Background(), sqlDB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// Initialize Redis connection
	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	// Initialize object storage
	imageStore, err := storage.NewService(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize object storage: %w", err)
	}
	if err := imageStore.EnsureBucket(context.Background()); err != nil {
		return fmt.Errorf("failed to ensure storage bucket: %w", err)
	}

	// Initialize repositories
	userRepo := user.NewRepository(db)
	refreshTokenRepo := auth.NewRedisRefreshTokenRepository(redisClient)
	resetCodeRepo := auth.NewRedisResetCodeRepository(redisClient)

	// Initialize rate limiter
	rateLimiter := ratelimit.NewLimiter(redisClient)

	// Initialize PASETO service
	pasetoService, err := auth.NewPasetoService(cfg.Auth.PasetoKey)
	if err != nil {
		return fmt.Errorf("failed to initialize PASETO service: %w", err)
	}

	// Initialize SMS sender
	smsSender := sms.NewSender(cfg.SMS, logger)

	// Initialize services
	authService := auth.NewService(
		userRepo,
		refreshTokenRepo,
		resetCodeRepo,
		pasetoService,
		smsSender,
		logger,
		cfg.Auth.AccessTokenDuration,
		cfg.Auth.RefreshTokenDuration,
		cfg.Auth.ResetCodeTTL,
	)
	userService := user.NewService(userRepo)
	contactService := contact.NewService(db)

	// Initialize HTTP handlers
	authHandler := auth.NewHandler(authService, rateLimiter, logger)
	userHandler := user.NewHandler(userService, imageStore)
	contactHandler := contact.NewHandler(contactService, imageStore)
	authMiddleware := auth.NewMiddleware(pasetoService)

	// Initialize metrics
	m := metrics.New()

	// Initialize router
	router := httpServer.NewRouter(cfg, authHandler, userHandler, contactHandler, authMiddleware, m, logger)

	// Initialize HTTP server
	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
	)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		log.Printf("Received signal: %v", sig)

		// Graceful shutdown with timeout
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB opens the database connection and returns both the Bun wrapper and
// the raw *sql.DB (the migrator wants the latter).
func initDB(cfg config.DatabaseConfig) (*bun.DB, *sql.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Verify connection
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Set connection pool settings
	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), sqlDB, nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// Verify connection
	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}
