package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jonboulle/clockwork"

	"github.com/dog-face/snake-game-be/internal/auth"
	"github.com/dog-face/snake-game-be/internal/broadcast"
	"github.com/dog-face/snake-game-be/internal/config"
	"github.com/dog-face/snake-game-be/internal/database"
	"github.com/dog-face/snake-game-be/internal/logging"
	"github.com/dog-face/snake-game-be/internal/server"
	"github.com/dog-face/snake-game-be/internal/session"
	"github.com/dog-face/snake-game-be/internal/watch"
)

func setupConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		// Use log before slog is initialized
		log.Fatalf("Failed to load config: %v", err)
	}
	return cfg
}

func setupDB(cfg *config.Config) *pgxpool.Pool {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}

	if err := database.RunMigrations(ctx, pool); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	return pool
}

func runGracefulShutdown(srv *server.Server, reaper *session.Reaper, hub *broadcast.Hub) <-chan struct{} {
	done := make(chan struct{})
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sigChan
		slog.Info("Shutdown signal received, cleaning up...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("Server shutdown error", "error", err)
		}

		reaper.Stop()
		hub.Stop()

		close(done)
	}()

	return done
}

func main() {
	clock := clockwork.NewRealClock()

	cfg := setupConfig()

	logging.InitLogger(cfg.LogLevel, cfg.LogFormat)
	slog.Info("Application starting", "env", cfg.AppEnv, "port", cfg.Port)

	pool := setupDB(cfg)
	defer pool.Close()

	userRepo := database.NewUserRepo(pool)
	leaderboardRepo := database.NewLeaderboardRepo(pool)

	store := session.NewStore(clock)
	hub := broadcast.NewHub(clock, cfg.MaxSpectatorClients)
	watchSvc := watch.NewService(store, leaderboardRepo, hub, clock)

	reaper := session.NewReaper(store, watchSvc, clock, cfg.ReaperInterval, cfg.SessionTimeout)
	reaper.Start()

	tokens := auth.NewTokenService(cfg.JWTSecret, cfg.TokenExpiry, clock)

	srv := server.NewServer(cfg, watchSvc, store, hub, userRepo, leaderboardRepo, tokens, pool)

	done := runGracefulShutdown(srv, reaper, hub)

	slog.Info("Server starting", "port", cfg.Port)
	if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}

	<-done
}
