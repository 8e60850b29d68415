package server

import (
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/dog-face/snake-game-be/internal/auth"
	"github.com/dog-face/snake-game-be/internal/domain"
	apperrors "github.com/dog-face/snake-game-be/internal/errors"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

type signupRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type userView struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"created_at"`
}

type authResponse struct {
	User  userView `json:"user"`
	Token string   `json:"token"`
}

func toUserView(user *domain.User) userView {
	return userView{
		ID:        user.ID.String(),
		Email:     user.Email,
		Username:  user.Username,
		CreatedAt: user.CreatedAt,
	}
}

func validateSignup(req signupRequest) error {
	if !strings.Contains(req.Email, "@") {
		return apperrors.ValidationError("invalid email address")
	}
	if len(req.Username) < 3 || len(req.Username) > 20 {
		return apperrors.ValidationError("username must be between 3 and 20 characters")
	}
	if !usernamePattern.MatchString(req.Username) {
		return apperrors.ValidationError("username can only contain alphanumeric characters and underscores")
	}
	if len(req.Password) < 8 {
		return apperrors.ValidationError("password must be at least 8 characters long")
	}
	return nil
}

func (s *Server) handleSignup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}
	if err := validateSignup(req); err != nil {
		return err
	}

	ctx := c.Request().Context()

	// Distinct conflict messages for email and username, like separate
	// uniqueness checks would give.
	if _, err := s.users.GetByEmail(ctx, req.Email); err == nil {
		return apperrors.ConflictError("email already registered")
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.InternalError("failed to check email", err)
	}
	if _, err := s.users.GetByUsername(ctx, req.Username); err == nil {
		return apperrors.ConflictError("username already taken")
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.InternalError("failed to check username", err)
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return apperrors.InternalError("failed to hash password", err)
	}

	user, err := s.users.Create(ctx, req.Email, req.Username, hash)
	if err != nil {
		return apperrors.InternalError("failed to create user", err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return apperrors.InternalError("failed to issue token", err)
	}

	return c.JSON(201, authResponse{User: toUserView(user), Token: token})
}

func (s *Server) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return apperrors.ValidationError("invalid request body")
	}

	ctx := c.Request().Context()

	user, err := s.users.GetByUsername(ctx, req.Username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.UnauthorizedError("invalid username or password")
	}
	if err != nil {
		return apperrors.InternalError("failed to load user", err)
	}

	if !auth.CheckPassword(req.Password, user.PasswordHash) {
		return apperrors.UnauthorizedError("invalid username or password")
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return apperrors.InternalError("failed to issue token", err)
	}

	return c.JSON(200, authResponse{User: toUserView(user), Token: token})
}

func (s *Server) handleLogout(c echo.Context) error {
	// Tokens are stateless; logout is client-side token disposal.
	return c.JSON(200, map[string]string{"message": "Logged out successfully"})
}

func (s *Server) handleMe(c echo.Context) error {
	userID, ok := c.Get("userID").(uuid.UUID)
	if !ok {
		return apperrors.InternalError("invalid user ID in context", nil)
	}

	user, err := s.users.GetByID(c.Request().Context(), userID)
	if errors.Is(err, domain.ErrUserNotFound) {
		return apperrors.NotFoundError("user not found")
	}
	if err != nil {
		return apperrors.InternalError("failed to load user", err)
	}

	return c.JSON(200, toUserView(user))
}
