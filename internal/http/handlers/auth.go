package handlers

import "github.com/gofiber/fiber/v2"

// ExtAuthzOK answers auth probes from the edge proxy. The auth chain ran
// before this handler, so reaching it means the request is allowed; the
// header tells public traffic apart from token-authenticated traffic.
func ExtAuthzOK(c *fiber.Ctx) error {
	mode := "public"
	if token, ok := c.Locals("api_key").(string); ok && token != "" {
		mode = "token"
	}
	c.Set("X-Auth-Mode", mode)
	return c.SendStatus(fiber.StatusOK)
}
