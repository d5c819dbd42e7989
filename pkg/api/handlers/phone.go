package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/leadgridhq/leadgrid/pkg/models"
	"github.com/leadgridhq/leadgrid/pkg/phone"
)

// PhoneHandler exposes phone validation for the lead forms.
type PhoneHandler struct{}

// NewPhoneHandler creates a new phone handler.
func NewPhoneHandler() *PhoneHandler {
	return &PhoneHandler{}
}

type phoneRequest struct {
	Phone       string `json:"phone"`
	CountryCode string `json:"countryCode"`
}

// Validate parses a phone number and reports its formats.
func (h *PhoneHandler) Validate(c echo.Context) error {
	var req phoneRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}

	result, err := phone.Validate(req.Phone, req.CountryCode)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, result)
}

// Normalize converts a phone number to E.164.
func (h *PhoneHandler) Normalize(c echo.Context) error {
	var req phoneRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: "Invalid request body"})
	}

	normalized, err := phone.Normalize(req.Phone, req.CountryCode)
	if err != nil {
		return c.JSON(http.StatusBadRequest, models.ErrorResponse{Message: err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"phone": normalized})
}
