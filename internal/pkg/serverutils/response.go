package serverutils

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"bant-agent-be/pkg/bant"
	"bant-agent-be/pkg/llm"
)

type Response[T any] struct {
	Success bool   `json:"success"`
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data,omitempty"`
}

func SuccessResponse[T any](message string, data T) Response[T] {
	return Response[T]{
		Success: true,
		Code:    fiber.StatusOK,
		Message: message,
		Data:    data,
	}
}

var validate = validator.New()

// ValidateRequest checks struct tags and converts violations into a
// 400 the error middleware can render.
func ValidateRequest(req interface{}) error {
	if err := validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			first := verrs[0]
			return fiber.NewError(fiber.StatusBadRequest,
				"field '"+first.Field()+"' failed on '"+first.Tag()+"' validation")
		}
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

// ErrorHandlerMiddleware turns errors bubbling out of handlers into a
// uniform JSON envelope. Domain error types carry their own status:
// schema violations are unprocessable, model transport failures are
// upstream unavailability.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		code := fiber.StatusInternalServerError
		message := err.Error()

		var fiberErr *fiber.Error
		var schemaErr *bant.SchemaViolationError
		var transportErr *llm.TransportError
		switch {
		case errors.As(err, &fiberErr):
			code = fiberErr.Code
			message = fiberErr.Message
		case errors.As(err, &schemaErr):
			code = fiber.StatusUnprocessableEntity
		case errors.As(err, &transportErr):
			code = fiber.StatusServiceUnavailable
			message = "language model backend unavailable"
		}

		return ctx.Status(code).JSON(Response[any]{
			Success: false,
			Code:    code,
			Message: message,
		})
	}
}
