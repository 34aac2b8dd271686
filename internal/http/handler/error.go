package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"clinicapi/internal/http/middleware"
	"clinicapi/internal/result"
)

type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	if s, ok := c.Locals(middleware.RequestIDLocalKey).(string); ok {
		return s
	}
	return ""
}

// writeError writes the standard error body. message must be safe to show
// to clients.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error:     errorEnvelope{Code: code, Message: message},
	})
}

// statusOf maps a result error kind onto an HTTP status.
func statusOf(k result.Kind) int {
	switch k {
	case result.NotFound:
		return fiber.StatusNotFound
	case result.Conflict:
		return fiber.StatusConflict
	case result.Validation:
		return fiber.StatusUnprocessableEntity
	default:
		return fiber.StatusInternalServerError
	}
}

// ErrorHandler renders errors returned by handlers. Repository errors keep
// their catalog code; failures never expose their description or cause.
// The operational routes never return a result.Error; that branch serves
// handlers mounted on the same app that call the repositories.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var re result.Error
		if errors.As(err, &re) {
			status := statusOf(re.Kind)
			if status == fiber.StatusInternalServerError {
				return writeError(c, status, "INTERNAL_ERROR", "internal server error")
			}
			return writeError(c, status, re.Code, re.Description)
		}

		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		default:
			return writeError(c, status, "INTERNAL_ERROR", "internal server error")
		}
	}
}
