package controller

import (
	internalWS "github.com/clairexuu/SWAG-Golf/internal/websocket"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

type IEventsController interface {
	RegisterRoutes(r fiber.Router)
	Feed(ctx *fiber.Ctx) error
}

type eventsController struct {
	hub *internalWS.Hub
}

func NewEventsController(hub *internalWS.Hub) IEventsController {
	return &eventsController{
		hub: hub,
	}
}

func (c *eventsController) RegisterRoutes(r fiber.Router) {
	r.Get("/ws/events", c.Feed)
}

// Feed upgrades the connection and attaches it to the lifecycle event hub.
func (c *eventsController) Feed(ctx *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(ctx) {
		return websocket.New(func(conn *websocket.Conn) {
			internalWS.ServeWs(c.hub, conn)
		})(ctx)
	}
	return fiber.ErrUpgradeRequired
}
