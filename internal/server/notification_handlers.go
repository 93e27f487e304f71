package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/rackwatch/rackwatch/internal/core"
	"github.com/rackwatch/rackwatch/pkg/models"
)

func (s *Server) handleListNotifications(c *fiber.Ctx) error {
	limit := s.config.Alerts.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return SendErrorWithType(c, fiber.StatusBadRequest, "Invalid limit", models.ValidationErrorType)
		}
		limit = parsed
	}

	notifications, err := core.ListInAppNotifications(c.Context(), s.sqlite, limit)
	if err != nil {
		s.log.Error("failed to list notifications", "error", err)
		return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to list notifications", models.GeneralErrorType)
	}
	return SendSuccess(c, fiber.StatusOK, notifications)
}

func (s *Server) handleMarkNotificationRead(c *fiber.Ctx) error {
	notificationID, err := strconv.ParseInt(c.Params("notificationID"), 10, 64)
	if err != nil {
		return SendErrorWithType(c, fiber.StatusBadRequest, "Invalid notification ID", models.ValidationErrorType)
	}

	if err := core.MarkInAppNotificationRead(c.Context(), s.sqlite, notificationID); err != nil {
		if errors.Is(err, core.ErrNotificationNotFound) {
			return SendErrorWithType(c, fiber.StatusNotFound, "Notification not found", models.NotFoundErrorType)
		}
		s.log.Error("failed to mark notification read", "notification_id", notificationID, "error", err)
		return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to mark notification read", models.GeneralErrorType)
	}
	return SendSuccess(c, fiber.StatusOK, fiber.Map{"message": "Notification marked read"})
}
