package middleware

import (
	"log/slog"
	"time"

	"epis-realtime/server/internal/errors"
	"epis-realtime/server/internal/models"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandler is the centralized fiber error handler: every handler
// returns an *errors.AppError (or lets a fiber.Error bubble up) and this is
// the one place that turns it into a JSON body and a status code.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		requestID, _ := c.Locals("requestID").(string)
		if requestID == "" {
			requestID = c.Get("X-Request-ID")
		}

		slog.Error("request failed",
			"error", err,
			"method", c.Method(),
			"path", c.Path(),
			"request_id", requestID,
		)

		if appErr, ok := errors.IsAppError(err); ok {
			return c.Status(appErr.StatusCode()).JSON(models.ErrorResponse{
				Error:     string(appErr.Code),
				Message:   appErr.Message,
				Code:      appErr.StatusCode(),
				Timestamp: appErr.Timestamp,
				RequestID: requestID,
			})
		}

		if fiberErr, ok := err.(*fiber.Error); ok {
			code := errors.ErrUnknown
			switch fiberErr.Code {
			case fiber.StatusBadRequest:
				code = errors.ErrValidation
			case fiber.StatusUnauthorized:
				code = errors.ErrUnauthorized
			case fiber.StatusNotFound:
				code = errors.ErrNotFound
			}
			return c.Status(fiberErr.Code).JSON(models.ErrorResponse{
				Error:     string(code),
				Message:   fiberErr.Message,
				Code:      fiberErr.Code,
				Timestamp: time.Now(),
				RequestID: requestID,
			})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(models.ErrorResponse{
			Error:     string(errors.ErrUnknown),
			Message:   "an unexpected error occurred",
			Code:      fiber.StatusInternalServerError,
			Timestamp: time.Now(),
			RequestID: requestID,
		})
	}
}
