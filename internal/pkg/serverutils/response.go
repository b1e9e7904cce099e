package serverutils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorBody is the error half of the API envelope.
type ErrorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse builds the {success: false, error: {code, message}} envelope
// every endpoint returns on failure.
func ErrorResponse(code, message string) fiber.Map {
	return fiber.Map{
		"success": false,
		"error":   ErrorBody{Code: code, Message: message},
	}
}

// ErrorHandlerMiddleware converts errors escaping a handler into the JSON
// error envelope. Handlers that need endpoint-specific error codes map their
// errors before returning; this is the fallback for everything else.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse("REQUEST_ERROR", fiberErr.Message))
		}

		var validationErrs validator.ValidationErrors
		if errors.As(err, &validationErrs) {
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse("VALIDATION_ERROR", validationErrs.Error()))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse("INTERNAL_ERROR", err.Error()))
	}
}
