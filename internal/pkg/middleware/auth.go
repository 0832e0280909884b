package middleware

import (
	"strconv"

	jwtware "github.com/gofiber/contrib/jwt"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/learnhubhq/learnhub/app/models"
	"github.com/learnhubhq/learnhub/app/repository"
	"github.com/learnhubhq/learnhub/internal/pkg/env"
	"github.com/learnhubhq/learnhub/internal/pkg/usercontext"
)

// JWTProtected validates the bearer token. The identity provider issuing
// these tokens is an external collaborator; this service only consumes the
// verified identity.
func JWTProtected() fiber.Handler {
	return jwtware.New(jwtware.Config{
		SigningKey: jwtware.SigningKey{Key: []byte(env.GetEnv("JWT_SECRET", ""))},
		ContextKey: usercontext.KeyJWTToken,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error":   "unauthorized",
				"message": "Missing or invalid bearer token",
			})
		},
	})
}

// LoadUserContext resolves the validated token to a local user and stores
// it as the request's user context. Runs after JWTProtected.
func LoadUserContext(c *fiber.Ctx) error {
	token, ok := c.Locals(usercontext.KeyJWTToken).(*jwt.Token)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Missing token context",
		})
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Malformed token claims",
		})
	}

	sub, _ := claims["sub"].(string)
	userID, err := strconv.ParseUint(sub, 10, 64)
	if err != nil || userID == 0 {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Malformed subject claim",
		})
	}

	user, err := repository.GetGlobalFactory().GetUserRepository().GetByID(uint(userID))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error":   "unauthorized",
			"message": "Unknown user",
		})
	}

	usercontext.SetUserContext(c, usercontext.UserContext{
		UserID:     user.ID,
		Email:      user.Email,
		IsLoggedIn: true,
		IsAdmin:    user.Role == models.ROLE_ADMIN,
	})
	return c.Next()
}
