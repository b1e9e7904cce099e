package controller

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/clairexuu/SWAG-Golf/internal/dto"
	"github.com/clairexuu/SWAG-Golf/internal/pkg/serverutils"
	"github.com/clairexuu/SWAG-Golf/internal/repository/contract"
	"github.com/clairexuu/SWAG-Golf/internal/service"
	"github.com/clairexuu/SWAG-Golf/pkg/imagegen"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"
)

type IGenerationController interface {
	RegisterRoutes(r fiber.Router)
	Generate(ctx *fiber.Ctx) error
	GenerateStream(ctx *fiber.Ctx) error
	Refine(ctx *fiber.Ctx) error
	RefineStream(ctx *fiber.Ctx) error
}

type generationController struct {
	generationService service.IGenerationService
}

func NewGenerationController(generationService service.IGenerationService) IGenerationController {
	return &generationController{
		generationService: generationService,
	}
}

func (c *generationController) RegisterRoutes(r fiber.Router) {
	r.Post("/generate", c.Generate)
	r.Post("/generate-stream", c.GenerateStream)
	r.Post("/refine", c.Refine)
	r.Post("/refine-stream", c.RefineStream)
}

// isClientFault reports whether err should surface as HTTP 400 instead of
// the in-band {success: false} envelope: unknown style, a selected image
// that does not exist, or a batch size outside the allowed range.
func isClientFault(err error) bool {
	var styleErr *contract.StyleNotFoundError
	var imageErr *service.ImageNotFoundError
	return errors.As(err, &styleErr) ||
		errors.As(err, &imageErr) ||
		errors.Is(err, imagegen.ErrInvalidConfig)
}

func setStreamHeaders(ctx *fiber.Ctx) {
	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")
}

// sseEmitter adapts a buffered response writer into the pipeline's emit
// callback. Every frame is flushed immediately; a flush failure means the
// client hung up, and returning the error cancels the batch upstream.
func sseEmitter(w *bufio.Writer) service.StreamEmitter {
	return func(event string, data interface{}) error {
		payload, err := json.Marshal(data)
		if err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload); err != nil {
			return err
		}
		return w.Flush()
	}
}

func (c *generationController) Generate(ctx *fiber.Ctx) error {
	var req dto.GenerateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	data, err := c.generationService.Generate(ctx.Context(), &req)
	if err != nil {
		if isClientFault(err) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return ctx.JSON(serverutils.ErrorResponse("GENERATION_ERROR", err.Error()))
	}

	return ctx.JSON(dto.GenerateResponse{Success: true, Data: data})
}

func (c *generationController) GenerateStream(ctx *fiber.Ctx) error {
	var req dto.GenerateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	setStreamHeaders(ctx)

	svc := c.generationService
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		// The fiber ctx is recycled once the handler returns, so the
		// stream runs on its own context. Client disconnects surface as
		// flush errors inside the emitter.
		emit := sseEmitter(w)
		if err := svc.GenerateStream(context.Background(), &req, emit); err != nil {
			_ = emit("error", dto.StreamError{Message: err.Error()})
		}
	}))

	return nil
}

func (c *generationController) Refine(ctx *fiber.Ctx) error {
	var req dto.RefineRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	data, err := c.generationService.Refine(ctx.Context(), &req)
	if err != nil {
		if isClientFault(err) {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		return ctx.JSON(serverutils.ErrorResponse("REFINE_ERROR", err.Error()))
	}

	return ctx.JSON(dto.GenerateResponse{Success: true, Data: data})
}

func (c *generationController) RefineStream(ctx *fiber.Ctx) error {
	var req dto.RefineRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	setStreamHeaders(ctx)

	svc := c.generationService
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		emit := sseEmitter(w)
		if err := svc.RefineStream(context.Background(), &req, emit); err != nil {
			_ = emit("error", dto.StreamError{Message: err.Error()})
		}
	}))

	return nil
}
