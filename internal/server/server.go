// Package server wires the HTTP API: routing, middleware, request
// decoding, and translation of domain errors to transport responses.
package server

import (
	"context"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/dog-face/snake-game-be/internal/auth"
	"github.com/dog-face/snake-game-be/internal/broadcast"
	"github.com/dog-face/snake-game-be/internal/config"
	"github.com/dog-face/snake-game-be/internal/domain"
	apperrors "github.com/dog-face/snake-game-be/internal/errors"
)

// activeIndex is the read-only spectator view over the session store.
type activeIndex interface {
	ListActive() []domain.Session
	GetByOwnerOrSession(id uuid.UUID) (domain.Session, error)
}

type Server struct {
	echo        *echo.Echo
	config      *config.Config
	watch       domain.WatchService
	sessions    activeIndex
	hub         *broadcast.Hub
	users       domain.UserRepository
	leaderboard domain.LeaderboardStore
	tokens      *auth.TokenService
	pool        *pgxpool.Pool
}

func NewServer(cfg *config.Config, watch domain.WatchService, sessions activeIndex, hub *broadcast.Hub, users domain.UserRepository, leaderboard domain.LeaderboardStore, tokens *auth.TokenService, pool *pgxpool.Pool) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowCredentials: true,
	}))
	e.Use(apperrors.Middleware())

	srv := &Server{
		echo:        e,
		config:      cfg,
		watch:       watch,
		sessions:    sessions,
		hub:         hub,
		users:       users,
		leaderboard: leaderboard,
		tokens:      tokens,
		pool:        pool,
	}

	srv.registerRoutes()

	return srv
}

func (s *Server) Start() error {
	return s.echo.Start(fmt.Sprintf(":%s", s.config.Port))
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}
