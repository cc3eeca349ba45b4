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

	"github.com/Dosada05/tournament-engine/config"
	"github.com/Dosada05/tournament-engine/db"
	"github.com/Dosada05/tournament-engine/handlers"
	"github.com/Dosada05/tournament-engine/middleware"
	"github.com/Dosada05/tournament-engine/models"
	api "github.com/Dosada05/tournament-engine/routes"
	"github.com/Dosada05/tournament-engine/services"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
)

func main() {
	cliApp := &cli.App{
		Name:  "tournament-engine",
		Usage: "multi-round tournament progression service",
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			tokenCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "migrate", Usage: "apply the schema before serving (postgres only)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			logger := newLogger(cfg.LogLevel)
			slog.SetDefault(logger)
			logger.Info("configuration loaded",
				slog.Int("port", cfg.ServerPort),
				slog.String("store", cfg.StoreDriver))

			return serve(c.Context, cfg, logger, c.Bool("migrate"))
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, logger *slog.Logger, migrate bool) error {
	built, err := buildApp(ctx, cfg, logger, migrate)
	if err != nil {
		return err
	}
	defer built.Close()

	deps := built.deps
	advancer := services.NewStageAdvancer(deps, services.AdvancerConfig{
		KnockoutSize: cfg.KnockoutSize,
		ByePoints:    cfg.ByePoints,
	})
	tournamentService := services.NewTournamentService(deps, advancer)
	matchService := services.NewMatchService(deps)
	gameService := services.NewMatchGameService(deps, advancer)
	adminService := services.NewAdminService(deps, advancer)
	singleGameService := services.NewSingleGameService(deps)
	logger.Info("services initialized")

	// Инициализация обработчиков HTTP
	tournamentHandler := handlers.NewTournamentHandler(tournamentService, matchService)
	matchHandler := handlers.NewMatchHandler(matchService)
	gameHandler := handlers.NewMatchGameHandler(gameService)
	adminHandler := handlers.NewAdminHandler(adminService)
	singleGameHandler := handlers.NewSingleGameHandler(singleGameService)

	router := chi.NewRouter()
	api.SetupRoutes(router, api.Options{
		Auth:           middleware.NewAuthenticator(cfg.JWTSecretKey),
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst),
		AllowedOrigins: cfg.CORSAllowedOrigins,
		Metrics:        deps.Metrics.Handler(),
	}, tournamentHandler, matchHandler, gameHandler, adminHandler, singleGameHandler)
	logger.Info("routes configured")

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		logger.Info("shutting down server", slog.Duration("timeout", 15*time.Second))
		if err := server.Shutdown(shutdownCtx); err != nil {
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		logger.Info("server shutdown complete")
	}
	logger.Info("application exited")
	return nil
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "apply the database schema",
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}
			if cfg.StoreDriver != config.StoreDriverPostgres {
				return fmt.Errorf("migrate requires STORE_DRIVER=%s", config.StoreDriverPostgres)
			}
			logger := newLogger(cfg.LogLevel)

			conn, err := db.Connect(cfg.DatabaseURL, 5*time.Second, logger)
			if err != nil {
				return fmt.Errorf("failed to connect to database: %w", err)
			}
			defer conn.Close()

			if err := db.Migrate(c.Context, conn); err != nil {
				return err
			}
			logger.Info("schema applied")
			return nil
		},
	}
}

// tokenCommand mints a bearer token for local testing. Real tokens come from the identity provider.
func tokenCommand() *cli.Command {
	return &cli.Command{
		Name:  "token",
		Usage: "issue a development bearer token",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "user", Usage: "user UUID (random when empty)"},
			&cli.StringFlag{Name: "role", Value: string(models.RolePlayer), Usage: "ADMIN or PLAYER"},
			&cli.DurationFlag{Name: "ttl", Value: 24 * time.Hour},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			userID := uuid.New()
			if raw := c.String("user"); raw != "" {
				if userID, err = uuid.Parse(raw); err != nil {
					return fmt.Errorf("invalid --user: %w", err)
				}
			}
			role := models.UserRole(strings.ToUpper(c.String("role")))
			if !role.Valid() {
				return fmt.Errorf("invalid --role %q", c.String("role"))
			}

			token, err := middleware.NewAuthenticator(cfg.JWTSecretKey).
				IssueToken(models.Actor{UserID: userID, Role: role}, c.Duration("ttl"))
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "user: %s\nrole: %s\ntoken: %s\n", userID, role, token)
			return nil
		},
	}
}
