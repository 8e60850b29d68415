package server

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) registerRoutes() {
	// Observability endpoints (no auth required)
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/health/live", s.handleLiveness)
	s.echo.GET("/health/ready", s.handleReadiness)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := s.echo.Group("/api/v1")

	// Auth
	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)
	api.POST("/auth/logout", s.handleLogout, s.requireAuth)
	api.GET("/auth/me", s.handleMe, s.requireAuth)

	// Leaderboard
	api.GET("/leaderboard", s.handleGetLeaderboard)
	api.POST("/leaderboard", s.handleSubmitScore, s.requireAuth)

	// Watch: active session queries are public, lifecycle mutations are
	// owner-only.
	api.GET("/watch/active", s.handleGetActivePlayers)
	api.GET("/watch/active/:playerId", s.handleGetActivePlayer)
	api.POST("/watch/start", s.handleStartSession, s.requireAuth)
	api.PUT("/watch/update/:sessionId", s.handleUpdateSession, s.requireAuth)
	api.POST("/watch/end/:sessionId", s.handleEndSession, s.requireAuth)

	// Spectator stream (no auth: spectators only observe)
	api.GET("/ws", s.handleWebSocket)
}
