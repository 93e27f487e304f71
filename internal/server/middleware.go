package server

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"github.com/rackwatch/rackwatch/pkg/models"
)

const tokenHeader = "X-API-Token"

func tokenMatches(provided, expected string) bool {
	if expected == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(provided), []byte(expected)) == 1
}

// requireToken accepts either the read token or the admin token. When no
// tokens are configured the API is open; production deployments are
// expected to set both.
func (s *Server) requireToken(c *fiber.Ctx) error {
	if s.config.Server.APIToken == "" && s.config.Server.AdminToken == "" {
		return c.Next()
	}
	provided := c.Get(tokenHeader)
	if provided == "" {
		return SendErrorWithType(c, fiber.StatusUnauthorized, "Missing API token", models.AuthErrorType)
	}
	if tokenMatches(provided, s.config.Server.APIToken) || tokenMatches(provided, s.config.Server.AdminToken) {
		return c.Next()
	}
	return SendErrorWithType(c, fiber.StatusUnauthorized, "Invalid API token", models.AuthErrorType)
}

// requireAdmin gates mutating endpoints and manual evaluation behind the
// admin token.
func (s *Server) requireAdmin(c *fiber.Ctx) error {
	if s.config.Server.APIToken == "" && s.config.Server.AdminToken == "" {
		return c.Next()
	}
	provided := c.Get(tokenHeader)
	if provided == "" {
		return SendErrorWithType(c, fiber.StatusUnauthorized, "Missing API token", models.AuthErrorType)
	}
	if tokenMatches(provided, s.config.Server.AdminToken) {
		return c.Next()
	}
	if tokenMatches(provided, s.config.Server.APIToken) {
		return SendErrorWithType(c, fiber.StatusForbidden, "Admin token required", models.AuthErrorType)
	}
	return SendErrorWithType(c, fiber.StatusUnauthorized, "Invalid API token", models.AuthErrorType)
}

// actorName is the identity recorded on mutations. With static tokens the
// best available identity is the token tier.
func (s *Server) actorName(c *fiber.Ctx) string {
	if tokenMatches(c.Get(tokenHeader), s.config.Server.AdminToken) {
		return "admin"
	}
	return "api"
}
