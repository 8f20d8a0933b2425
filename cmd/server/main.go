package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"clicker/internal/api"
	"clicker/internal/config"
	"clicker/internal/geo"
	"clicker/internal/handler"
	"clicker/internal/live"
	"clicker/internal/middleware"
	"clicker/internal/repository"
	"clicker/internal/repository/dynamo"
	"clicker/internal/repository/memory"
	"clicker/internal/repository/postgres"
	"clicker/internal/service"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	tele "gopkg.in/telebot.v3"
)

type repositories struct {
	leaderboard repository.LeaderboardRepository
	users       repository.UserRepository
	tokens      repository.EmailTokenRepository
}

func main() {
	// Initialize logger
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting clicker server")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	logger.Info("Configuration loaded successfully", zap.String("storage", cfg.Storage))

	var db *sql.DB
	if cfg.UsesPostgres() {
		// Connect to database with retries
		db, err = connectDatabase(cfg.DSN(), logger)
		if err != nil {
			logger.Fatal("Failed to connect to database", zap.Error(err))
		}
		defer db.Close()

		logger.Info("Database connection established")

		// Run migrations
		if err := runMigrations(db, cfg.MigrationsPath, logger); err != nil {
			logger.Fatal("Failed to run migrations", zap.Error(err))
		}

		logger.Info("Database migrations completed")
	}

	// Initialize repositories
	repos, err := newRepositories(cfg, db)
	if err != nil {
		logger.Fatal("Failed to initialize storage", zap.Error(err))
	}

	// Initialize services
	leaderboardService := service.NewLeaderboardService(repos.leaderboard, logger, cfg.Database.QueryTimeout)
	authService := service.NewAuthService(repos.users, repos.tokens, service.NewLogMailer(logger), logger, service.AuthConfig{
		JWTSecret:      []byte(cfg.Auth.JWTSecret),
		AccessTokenTTL: cfg.Auth.AccessTokenTTL,
		EmailTokenTTL:  cfg.Auth.EmailTokenTTL,
		PublicURL:      cfg.PublicURL,
	})

	hub := live.NewHub(logger)
	leaderboardService.SetNotifier(hub)

	router := api.NewRouter(api.Deps{
		Leaderboard: leaderboardService,
		Auth:        authService,
		Geo:         geo.NewHTTPResolver(cfg.GeoLookupURL, logger),
		Live:        hub,
		JWTSecret:   []byte(cfg.Auth.JWTSecret),
		PublicURL:   cfg.PublicURL,
		Logger:      logger,
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		IdleTimeout:       10 * time.Minute,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return hub.Run(ctx)
	})

	// Start cleanup job in background
	g.Go(func() error {
		runCleanupJob(ctx, authService, logger)
		return nil
	})

	g.Go(func() error {
		logger.Info("HTTP server listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("Shutdown signal received, stopping server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.BotToken != "" {
		bot, err := newBot(cfg.BotToken, leaderboardService, logger)
		if err != nil {
			logger.Fatal("Failed to create bot", zap.Error(err))
		}

		g.Go(func() error {
			logger.Info("Bot started successfully")
			bot.Start()
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			bot.Stop()
			logger.Info("Bot stopped gracefully")
			return nil
		})
	} else {
		logger.Info("BOT_TOKEN not set, Telegram bot disabled")
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal("Server stopped with error", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}

// newRepositories wires the configured storage backend
func newRepositories(cfg *config.Config, db *sql.DB) (*repositories, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		return &repositories{
			leaderboard: memory.NewLeaderboardRepo(),
			users:       memory.NewUserRepo(),
			tokens:      memory.NewEmailTokenRepo(),
		}, nil
	case config.StorageDynamo:
		sess, err := dynamo.NewSession(cfg.Dynamo.Region, cfg.Dynamo.Endpoint)
		if err != nil {
			return nil, fmt.Errorf("failed to create aws session: %w", err)
		}
		return &repositories{
			leaderboard: dynamo.NewLeaderboardRepo(sess, cfg.Dynamo.Table),
			users:       postgres.NewUserRepo(db),
			tokens:      postgres.NewEmailTokenRepo(db),
		}, nil
	default:
		return &repositories{
			leaderboard: postgres.NewLeaderboardRepo(db),
			users:       postgres.NewUserRepo(db),
			tokens:      postgres.NewEmailTokenRepo(db),
		}, nil
	}
}

func newBot(token string, leaderboard handler.LeaderboardService, logger *zap.Logger) (*tele.Bot, error) {
	bot, err := tele.NewBot(tele.Settings{
		Token:  token,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
	})
	if err != nil {
		return nil, err
	}

	logger.Info("Telegram bot initialized")

	bot.Use(middleware.BotLogger(logger))

	// Initialize handler
	h := handler.NewHandler(bot, leaderboard, logger)
	h.RegisterHandlers()

	logger.Info("Handlers registered")

	return bot, nil
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		// Test connection
		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations applies pending schema migrations
func runMigrations(db *sql.DB, sourceURL string, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(sourceURL, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}

	return nil
}

// runCleanupJob deletes expired verification tokens once a day
func runCleanupJob(ctx context.Context, authService *service.AuthService, logger *zap.Logger) {
	// Run cleanup once at startup
	if err := authService.CleanupExpiredTokens(ctx); err != nil {
		logger.Error("Failed to run initial cleanup", zap.Error(err))
	}

	ticker := time.NewTicker(24 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Cleanup job stopped")
			return
		case <-ticker.C:
			logger.Info("Running scheduled cleanup")
			if err := authService.CleanupExpiredTokens(ctx); err != nil {
				logger.Error("Failed to run scheduled cleanup", zap.Error(err))
			}
		}
	}
}
