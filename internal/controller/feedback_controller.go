package controller

import (
	"github.com/clairexuu/SWAG-Golf/internal/dto"
	"github.com/clairexuu/SWAG-Golf/internal/pkg/serverutils"
	"github.com/clairexuu/SWAG-Golf/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IFeedbackController interface {
	RegisterRoutes(r fiber.Router)
	Submit(ctx *fiber.Ctx) error
	Summarize(ctx *fiber.Ctx) error
}

type feedbackController struct {
	feedbackService service.IFeedbackService
}

func NewFeedbackController(feedbackService service.IFeedbackService) IFeedbackController {
	return &feedbackController{
		feedbackService: feedbackService,
	}
}

func (c *feedbackController) RegisterRoutes(r fiber.Router) {
	r.Post("/feedback", c.Submit)
	r.Post("/feedback/summarize", c.Summarize)
}

func (c *feedbackController) Submit(ctx *fiber.Ctx) error {
	var req dto.FeedbackRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.feedbackService.AddFeedback(ctx.Context(), &req)
	if err != nil {
		if isClientFault(err) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return ctx.JSON(serverutils.ErrorResponse("FEEDBACK_ERROR", err.Error()))
	}

	return ctx.JSON(res)
}

func (c *feedbackController) Summarize(ctx *fiber.Ctx) error {
	var req dto.SummarizeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	summary, err := c.feedbackService.SummarizeFeedback(ctx.Context(), req.SessionId, req.StyleId)
	if err != nil {
		if isClientFault(err) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return ctx.JSON(serverutils.ErrorResponse("SUMMARIZE_ERROR", err.Error()))
	}

	// A session with no accumulated feedback summarizes to null, not "".
	res := dto.SummarizeResponse{Success: true}
	if summary != "" {
		res.Summary = &summary
	}
	return ctx.JSON(res)
}
