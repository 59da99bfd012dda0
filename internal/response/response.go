package response

import (
	"errors"
	"net/http"

	"donation-portal/internal/models"
	"donation-portal/internal/services"
	"donation-portal/pkg/logging"

	"github.com/gin-gonic/gin"
)

// Response represents a standard API response
type Response struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// ErrorBody is the body of every failed request
type ErrorBody struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}

// Success returns a success response
func Success(data interface{}) Response {
	return Response{
		Success: true,
		Data:    data,
	}
}

// JSON sends a JSON response
func JSON(c *gin.Context, statusCode int, body interface{}) {
	c.JSON(statusCode, body)
}

// SuccessJSON sends a success JSON response
func SuccessJSON(c *gin.Context, data interface{}) {
	JSON(c, http.StatusOK, Success(data))
}

// ErrorJSON sends an error JSON response
func ErrorJSON(c *gin.Context, statusCode int, message string) {
	JSON(c, statusCode, ErrorBody{Success: false, Error: message})
}

// AbortWithError sends an error JSON response and stops the handler chain
func AbortWithError(c *gin.Context, statusCode int, message string) {
	c.AbortWithStatusJSON(statusCode, ErrorBody{Success: false, Error: message})
}

// FromError maps a service error to its HTTP status.
// notFound and fallback are the client-facing messages for missing resources and unexpected failures.
func FromError(c *gin.Context, err error, notFound, fallback string) {
	var validation *services.ValidationError

	switch {
	case errors.As(err, &validation):
		ErrorJSON(c, http.StatusBadRequest, validation.Error())
	case errors.Is(err, services.ErrValidation):
		ErrorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrCapacityExceeded):
		ErrorJSON(c, http.StatusBadRequest, "Event is full")
	case errors.Is(err, services.ErrNotFound):
		ErrorJSON(c, http.StatusNotFound, notFound)
	case errors.Is(err, services.ErrUnauthorized):
		ErrorJSON(c, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, services.ErrForbidden):
		ErrorJSON(c, http.StatusForbidden, "Admin access required")
	case errors.Is(err, models.ErrInvalidTransition):
		ErrorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrGatewayNotConfigured):
		logging.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		JSON(c, http.StatusInternalServerError, ErrorBody{Error: fallback, Message: "IPN URL not configured"})
	case errors.Is(err, services.ErrGateway):
		logging.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		JSON(c, http.StatusInternalServerError, ErrorBody{Error: fallback, Message: err.Error()})
	default:
		logging.Errorf("%s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		ErrorJSON(c, http.StatusInternalServerError, fallback)
	}
}
