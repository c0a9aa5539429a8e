package handlerUtil

import (
	"ForestWatch/pkg/log"
	"ForestWatch/pkg/response"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

// Handle is installed as the fiber ErrorHandler. Domain errors keep their
// status code, fiber errors (404, 405) keep theirs, everything else is a 500.
func (h *ErrorHandler) Handle(c *fiber.Ctx, err error) error {
	requestID, _ := c.Locals("X-Request-ID").(string)
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       c.Path(),
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		h.logger.WithFields(fields).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(ErrorResponse{Error: err.Error(), RequestID: requestID})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		h.logger.WithFields(fields).Debug(utils.StatusMessage(fiberErr.Code))
		return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: fiberErr.Message, RequestID: requestID})
	}

	h.logger.WithFields(fields).Error("Unexpected error")
	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:     "An unexpected error occurred",
		RequestID: requestID,
	})
}
