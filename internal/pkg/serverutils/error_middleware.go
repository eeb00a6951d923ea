package serverutils

import (
	"github.com/gofiber/fiber/v2"

	"github.com/zhusanqiang2025/ZhiRong-LawAssist-V2-sub001/internal/pkg/apperror"
)

// ErrorHandlerMiddleware maps service errors to the response envelope.
// AppError carries its own status code; anything else is a 500 with the
// detail kept out of the body.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		if appErr := apperror.From(err); appErr != nil {
			return ctx.Status(appErr.Code).JSON(ErrorResponse(appErr.Code, appErr.Message))
		}

		if fiberErr, ok := err.(*fiber.Error); ok {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).
			JSON(ErrorResponse(fiber.StatusInternalServerError, "internal server error"))
	}
}
