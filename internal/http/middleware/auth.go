package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/keyauth"

	"labops/internal/domain"
	"labops/internal/tokens"
)

// Auth validates the optional X-API-Key header against the token cache
// and stores the key under "api_key" for the limiters and scope checks.
// Requests without a key pass through as public traffic.
func Auth(tc *tokens.Cache) fiber.Handler {
	return keyauth.New(keyauth.Config{
		KeyLookup:  "header:X-API-Key",
		ContextKey: "api_key",
		Validator: func(c *fiber.Ctx, key string) (bool, error) {
			// Provide a clear signal when the token store is not loaded yet.
			if tc == nil || !tc.Ready() {
				return false, domain.ErrTokenStoreNotReady
			}
			if _, ok := tc.Lookup(key); !ok {
				return false, domain.ErrInvalidAPIKey
			}
			return true, nil
		},
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions || c.Get("X-API-Key") == ""
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Keyauth can call ErrorHandler with a nil error.
			status := fiber.StatusUnauthorized
			if err == nil {
				err = fiber.ErrUnauthorized
			}
			if err == domain.ErrTokenStoreNotReady {
				status = fiber.StatusServiceUnavailable
			}
			return c.Status(status).JSON(fiber.Map{
				"error": fiber.Map{
					"code":    status,
					"message": err.Error(),
				},
			})
		},
	})
}

// RequireScope guards privileged routes: the request must be token
// authenticated and the token must grant the named scope.
func RequireScope(tc *tokens.Cache, scope string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, _ := c.Locals("api_key").(string)
		if token == "" {
			return fiber.NewError(fiber.StatusUnauthorized, "API key required")
		}
		if tc == nil {
			return fiber.NewError(fiber.StatusServiceUnavailable, domain.ErrTokenStoreNotReady.Error())
		}
		entry, ok := tc.Lookup(token)
		if !ok || !entry.Allows(scope) {
			return fiber.NewError(fiber.StatusForbidden, "Token lacks scope "+scope)
		}
		return c.Next()
	}
}
