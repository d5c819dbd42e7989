package errors

import (
	"log"
	"net/http"

	"github.com/getsentry/sentry-go"
	"github.com/labstack/echo/v4"

	"github.com/leadgridhq/leadgrid/pkg/domain"
	"github.com/leadgridhq/leadgrid/pkg/models"
)

// Respond maps a domain error onto the HTTP error envelope. Unexpected errors
// are logged and reported but never exposed to the caller.
func Respond(c echo.Context, err error) error {
	switch {
	case domain.IsValidation(err):
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Message: "Validation failed",
			Errors:  domain.ValidationFields(err),
		})
	case domain.IsConflict(err):
		// duplicates report 400, matching the create/update contract
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Message: domain.Message(err),
		})
	case domain.IsNotFound(err):
		return c.JSON(http.StatusNotFound, models.ErrorResponse{
			Message: domain.Message(err),
		})
	case domain.IsUnauthorized(err):
		return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
			Message: domain.Message(err),
		})
	default:
		log.Printf("[INTERNAL ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)
		if hub := sentry.CurrentHub(); hub.Client() != nil {
			hub.CaptureException(err)
		}
		return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Message: "Internal server error",
		})
	}
}

// Validation responds with a batch of field errors directly.
func Validation(c echo.Context, fields []domain.FieldError) error {
	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Message: "Validation failed",
		Errors:  fields,
	})
}

// Unauthorized responds with 401 and the given reason.
func Unauthorized(c echo.Context, message string) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Message: message,
	})
}
