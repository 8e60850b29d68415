package server

import (
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "github.com/dog-face/snake-game-be/internal/errors"
)

// requireAuth verifies the bearer token and stores the caller's user ID
// in the request context under "userID".
func (s *Server) requireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		if header == "" {
			return apperrors.UnauthorizedError("missing authorization header")
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok {
			return apperrors.UnauthorizedError("authorization header must use the Bearer scheme")
		}

		userID, err := s.tokens.Verify(token)
		if err != nil {
			return apperrors.UnauthorizedError("invalid or expired token")
		}

		c.Set("userID", userID)
		return next(c)
	}
}
