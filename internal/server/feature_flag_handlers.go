package server

import (
	"murmur/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetFeatureFlags returns the known flags and their state for the current user.
// @Summary Feature flags for the caller
// @Tags users
// @Produce json
// @Success 200 {object} object{flags=[]string,evaluated=map[string]bool}
// @Security BearerAuth
// @Router /me/feature-flags [get]
func (s *Server) GetFeatureFlags(c *fiber.Ctx) error {
	if s.featureFlags == nil {
		return c.JSON(fiber.Map{
			"flags":     []string{},
			"evaluated": map[string]bool{},
		})
	}

	return c.JSON(fiber.Map{
		"flags":     s.featureFlags.Names(),
		"evaluated": s.featureFlags.Snapshot(middleware.Actor(c).UserID),
	})
}
