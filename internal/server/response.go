package server

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rackwatch/rackwatch/pkg/models"
)

// APIResponse is the envelope every JSON endpoint returns.
type APIResponse struct {
	Status    string           `json:"status"`
	Data      interface{}      `json:"data,omitempty"`
	Message   string           `json:"message,omitempty"`
	ErrorType models.ErrorType `json:"error_type,omitempty"`
}

// SendSuccess writes a success envelope with the given payload.
func SendSuccess(c *fiber.Ctx, status int, data interface{}) error {
	return c.Status(status).JSON(APIResponse{
		Status: "success",
		Data:   data,
	})
}

// SendError writes an error envelope with the general error type.
func SendError(c *fiber.Ctx, status int, message string) error {
	return SendErrorWithType(c, status, message, models.GeneralErrorType)
}

// SendErrorWithType writes an error envelope with an explicit error type
// so clients can branch without parsing messages.
func SendErrorWithType(c *fiber.Ctx, status int, message string, errorType models.ErrorType) error {
	return c.Status(status).JSON(APIResponse{
		Status:    "error",
		Message:   message,
		ErrorType: errorType,
	})
}
