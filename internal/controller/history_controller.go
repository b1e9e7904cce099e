package controller

import (
	"github.com/clairexuu/SWAG-Golf/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IHistoryController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type historyController struct {
	historyService service.IHistoryService
}

func NewHistoryController(historyService service.IHistoryService) IHistoryController {
	return &historyController{
		historyService: historyService,
	}
}

func (c *historyController) RegisterRoutes(r fiber.Router) {
	r.Get("/generations", c.List)
}

func (c *historyController) List(ctx *fiber.Ctx) error {
	res, err := c.historyService.List(ctx.Context(), ctx.Query("styleId"))
	if err != nil {
		return err
	}

	return ctx.JSON(res)
}
