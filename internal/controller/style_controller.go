package controller

import (
	"github.com/clairexuu/SWAG-Golf/internal/dto"
	"github.com/clairexuu/SWAG-Golf/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IStyleController interface {
	RegisterRoutes(r fiber.Router)
	List(ctx *fiber.Ctx) error
}

type styleController struct {
	styleService service.IStyleService
}

func NewStyleController(styleService service.IStyleService) IStyleController {
	return &styleController{
		styleService: styleService,
	}
}

func (c *styleController) RegisterRoutes(r fiber.Router) {
	r.Get("/styles", c.List)
}

func (c *styleController) List(ctx *fiber.Ctx) error {
	styles, err := c.styleService.GetAll(ctx.Context())
	if err != nil {
		return err
	}

	return ctx.JSON(dto.StylesResponse{Success: true, Styles: styles})
}
