package server

import (
	"murmur/internal/middleware"

	"github.com/gofiber/fiber/v2"
)

// GetNotifications handles GET /api/notifications
// @Summary Notification inbox
// @Description The caller's notifications, newest first.
// @Tags notifications
// @Produce json
// @Param limit query int false "Page size (default 20, max 100)"
// @Param offset query int false "Rows to skip"
// @Success 200 {array} models.Notification
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications [get]
func (s *Server) GetNotifications(c *fiber.Ctx) error {
	page := parsePagination(c, 20)

	list, err := s.notificationSvc.List(c.UserContext(), middleware.Actor(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// MarkNotificationsRead handles POST /api/notifications/read. An empty or
// missing ids list marks the whole inbox read.
// @Summary Mark notifications read
// @Tags notifications
// @Accept json
// @Produce json
// @Param request body object{ids=[]int} false "Notification ids"
// @Success 200 {object} object{success=bool,updated=int}
// @Failure 401 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /notifications/read [post]
func (s *Server) MarkNotificationsRead(c *fiber.Ctx) error {
	var req struct {
		IDs []uint `json:"ids"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}

	n, err := s.notificationSvc.MarkRead(c.UserContext(), middleware.Actor(c), req.IDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "updated": n})
}
