package server

import (
	"context"

	"murmur/internal/identity"
	"murmur/internal/models"
	"murmur/internal/observability"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// requestContextLocal carries the authenticated user context across the
// upgrade. Only string-keyed locals are copied onto the websocket conn.
const requestContextLocal = "request_ctx"

// WebsocketHandler upgrades the request and registers the connection with the
// notification hub. The actor is resolved by Authenticate before the upgrade.
// @Summary Realtime stream
// @Description Websocket carrying notification_created and view_invalidated events.
// @Tags realtime
// @Param token query string false "Session token when headers cannot be set"
// @Success 101
// @Failure 401 {object} models.ErrorResponse
// @Failure 426 {object} models.ErrorResponse
// @Security BearerAuth
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	upgrade := websocket.New(func(conn *websocket.Conn) {
		reqCtx, ok := conn.Locals(requestContextLocal).(context.Context)
		if !ok {
			reqCtx = context.Background()
		}
		actor := identity.FromContext(reqCtx)
		if !actor.Authenticated() {
			_ = conn.Close()
			return
		}
		uid := actor.UserID
		ctx := observability.WithCorrelationID(reqCtx, observability.GenerateCorrelationID())

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			s.wsLog.LogError(ctx, uid, err, "register")
			_ = conn.WriteJSON(models.ErrorResponse{Error: err.Error(), Code: "REALTIME_UNAVAILABLE"})
			_ = conn.Close()
			return
		}
		s.wsLog.LogConnect(ctx, uid)
		defer s.wsLog.LogDisconnect(ctx, uid, "closed")
		defer s.hub.UnregisterClient(client)

		go client.WritePump()
		client.ReadPump()
	})

	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.Status(fiber.StatusUpgradeRequired).JSON(models.ErrorResponse{
				Error: "websocket upgrade required",
				Code:  "UPGRADE_REQUIRED",
			})
		}
		c.Locals(requestContextLocal, c.UserContext())
		return upgrade(c)
	}
}
