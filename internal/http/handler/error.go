package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"efactura/internal/anaf"
	"efactura/internal/artifact"
	"efactura/internal/http/middleware"
	"efactura/internal/service"
)

// errorPayload is the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// writeError writes a standardized JSON error response. Internal error details
// never leak into the body.
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// translateError maps service-layer errors onto HTTP responses.
func translateError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, service.ErrCompanyNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "company not found")
	case errors.Is(err, service.ErrInvoiceNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "invoice not found")
	case errors.Is(err, service.ErrSyncDisabled):
		return writeError(c, fiber.StatusConflict, "SYNC_DISABLED", "automatic sync is disabled for this company")
	case errors.Is(err, anaf.ErrProtocol):
		return writeError(c, fiber.StatusBadGateway, "PROVIDER_ERROR", "invoice provider error")
	case errors.Is(err, artifact.ErrArtifactNotFound):
		return writeError(c, fiber.StatusNotFound, "ARTIFACT_NOT_FOUND", "invoice artifact not found")
	default:
		return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

// ErrorHandler returns the Fiber global error handler producing standardized
// error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		if e, ok := err.(*fiber.Error); ok {
			status = e.Code
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
