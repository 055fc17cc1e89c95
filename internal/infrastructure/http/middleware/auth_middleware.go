package middleware

import (
	"context"
	stdErrors "errors"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/johnquangdev/meeting-taskflow/errors"
	"github.com/johnquangdev/meeting-taskflow/internal/domain/entities"
	ucerrors "github.com/johnquangdev/meeting-taskflow/internal/usecase/errors"
)

const (
	// UserContextKey is the echo context key for the authenticated user
	UserContextKey = "user"
	// TokenContextKey is the echo context key for the raw access token
	TokenContextKey = "access_token"
)

// SessionValidator resolves an access token to its user
type SessionValidator interface {
	ValidateSession(ctx context.Context, token string) (*entities.User, error)
}

// EchoAuth returns an Echo middleware that validates the access token and sets
// "user" (*entities.User) and "user_id" (uuid.UUID) into the echo context
func EchoAuth(sessions SessionValidator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token := ExtractToken(c)
			if token == "" {
				return errors.ErrUnauthenticated()
			}

			user, err := sessions.ValidateSession(c.Request().Context(), token)
			if err != nil {
				if stdErrors.Is(err, ucerrors.ErrTokenExpired) {
					return errors.ErrTokenExpired()
				}
				return errors.ErrInvalidToken()
			}

			c.Set(UserContextKey, user)
			c.Set("user_id", user.ID)
			c.Set(TokenContextKey, token)

			return next(c)
		}
	}
}

// RequireRole rejects users whose role is not listed with a ROLE_VIOLATION error
func RequireRole(roles ...entities.UserRole) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, ok := GetUser(c)
			if !ok {
				return errors.ErrUnauthenticated()
			}
			for _, role := range roles {
				if user.Role == role {
					return next(c)
				}
			}
			return errors.ErrRoleViolation("access this endpoint")
		}
	}
}

// GetUser retrieves the authenticated user from the echo context
func GetUser(c echo.Context) (*entities.User, bool) {
	user, ok := c.Get(UserContextKey).(*entities.User)
	return user, ok && user != nil
}

// ExtractToken reads the bearer token from the Authorization header, falling back to the access_token cookie
func ExtractToken(c echo.Context) string {
	authHeader := c.Request().Header.Get(echo.HeaderAuthorization)
	if authHeader != "" {
		parts := strings.Split(authHeader, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
	}
	if cookie, err := c.Cookie("access_token"); err == nil {
		return cookie.Value
	}
	return ""
}
