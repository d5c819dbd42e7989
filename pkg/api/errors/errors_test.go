package errors

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leadgridhq/leadgrid/pkg/domain"
)

func respond(t *testing.T, err error) (int, map[string]any) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)

	require.NoError(t, Respond(c, err))

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return rec.Code, body
}

func TestRespondMessagesCarryNoCodePrefix(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{
			name:    "not found",
			err:     domain.NewNotFoundError("Lead"),
			status:  http.StatusNotFound,
			message: "Lead not found",
		},
		{
			name:    "conflict",
			err:     domain.NewConflictError("A lead with this email already exists"),
			status:  http.StatusBadRequest,
			message: "A lead with this email already exists",
		},
		{
			name:    "unauthorized",
			err:     domain.NewUnauthorizedError("Invalid email or password"),
			status:  http.StatusUnauthorized,
			message: "Invalid email or password",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := respond(t, tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.message, body["message"])
		})
	}
}

func TestRespondValidationCarriesFieldBatch(t *testing.T) {
	err := domain.NewValidationError([]domain.FieldError{
		{Field: "score", Message: "score must be a number"},
		{Field: "source", Message: "source must be one of: website"},
	})

	status, body := respond(t, err)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "Validation failed", body["message"])
	assert.Len(t, body["errors"], 2)
}

func TestRespondHidesInternalDetail(t *testing.T) {
	status, body := respond(t, domain.NewInternalError(fmt.Errorf("dial tcp: connection refused")))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["message"])

	status, body = respond(t, fmt.Errorf("raw failure"))
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, "Internal server error", body["message"])
}
