package server

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/nicholasgasior/docconv-go"
)

// apiError is an error with the HTTP status it maps to. Message is shown to
// the client; Err is only logged.
type apiError struct {
	Code    int
	Message string
	Err     error
}

func newAPIError(code int, message string, err error) *apiError {
	return &apiError{Code: code, Message: message, Err: err}
}

func (e *apiError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *apiError) Unwrap() error {
	return e.Err
}

// classify maps converter errors to HTTP statuses.
func classify(err error) *apiError {
	var renderErr *docconv.RenderError
	switch {
	case docconv.IsMissingPart(err), docconv.IsUnsupportedFormat(err):
		return newAPIError(fiber.StatusBadRequest, err.Error(), err)
	case errors.As(err, &renderErr):
		return newAPIError(fiber.StatusInternalServerError, "conversion to "+string(renderErr.Format)+" failed", err)
	default:
		return newAPIError(fiber.StatusInternalServerError, "internal server error", err)
	}
}

// errorHandler writes {"error": message} with the mapped status.
func (s *Server) errorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "internal server error"

	var ae *apiError
	var fe *fiber.Error
	switch {
	case errors.As(err, &ae):
		code, message = ae.Code, ae.Message
	case errors.As(err, &fe):
		code, message = fe.Code, fe.Message
	}

	if code >= fiber.StatusInternalServerError {
		s.logger.Error("request failed",
			"request_id", c.GetRespHeader(fiber.HeaderXRequestID),
			"method", c.Method(),
			"path", c.Path(),
			"status", code,
			"error", err,
		)
	}
	return c.Status(code).JSON(fiber.Map{"error": message})
}
