package auth

import (
	"strings"

	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// UserContextKey is where RequireAuth stores the authenticated user.
const UserContextKey = "user"

// RequireAuth verifies the bearer token on the REST surface and stores the
// resolved user in the request context.
func RequireAuth(um UserManagement) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := ExtractBearerToken(c.Get("Authorization"))
		if err != nil {
			return handleAuthError(c, err)
		}

		user, result := um.AuthenticateJWT(c.Context(), token)
		switch result {
		case models.Authenticated:
			c.Locals(UserContextKey, &user)
			return c.Next()
		case models.Unauthenticated:
			return handleAuthError(c, errors.New(errors.ErrUnauthorized, "invalid or expired token"))
		default:
			return handleAuthError(c, errors.New(errors.ErrUnknown, "unable to verify token"))
		}
	}
}

// ExtractBearerToken pulls the token out of an "Authorization: Bearer ..." header.
func ExtractBearerToken(header string) (string, error) {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return "", errors.New(errors.ErrUnauthorized, "missing bearer token")
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, prefix))
	if token == "" {
		return "", errors.New(errors.ErrUnauthorized, "empty bearer token")
	}
	return token, nil
}

// GetUserFromContext retrieves the authenticated user stored by RequireAuth.
func GetUserFromContext(c *fiber.Ctx) (*models.User, error) {
	user, ok := c.Locals(UserContextKey).(*models.User)
	if !ok || user == nil {
		return nil, errors.New(errors.ErrUnauthorized, "user not authenticated")
	}
	return user, nil
}

func handleAuthError(c *fiber.Ctx, err error) error {
	if appErr, ok := errors.IsAppError(err); ok {
		return c.Status(appErr.StatusCode()).JSON(fiber.Map{
			"error":   appErr.Code,
			"message": appErr.Message,
		})
	}
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"error":   errors.ErrUnauthorized,
		"message": "authentication required",
	})
}
