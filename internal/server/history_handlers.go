package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/rackwatch/rackwatch/internal/core"
	"github.com/rackwatch/rackwatch/pkg/models"
)

func (s *Server) handleListAlertHistory(c *fiber.Ctx) error {
	limit := s.config.Alerts.HistoryLimit
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			return SendErrorWithType(c, fiber.StatusBadRequest, "Invalid limit", models.ValidationErrorType)
		}
		limit = parsed
	}

	history, err := core.ListAlertHistory(c.Context(), s.sqlite, limit)
	if err != nil {
		s.log.Error("failed to list alert history", "error", err)
		return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to list alert history", models.GeneralErrorType)
	}
	return SendSuccess(c, fiber.StatusOK, history)
}

func (s *Server) handleAcknowledgeAlert(c *fiber.Ctx) error {
	historyID, err := strconv.ParseInt(c.Params("historyID"), 10, 64)
	if err != nil {
		return SendErrorWithType(c, fiber.StatusBadRequest, "Invalid history ID", models.ValidationErrorType)
	}

	updated, err := core.AcknowledgeAlertHistory(c.Context(), s.sqlite, s.log, historyID, s.actorName(c))
	if err != nil {
		switch {
		case errors.Is(err, core.ErrHistoryNotFound):
			return SendErrorWithType(c, fiber.StatusNotFound, "Alert not found", models.NotFoundErrorType)
		case errors.Is(err, core.ErrAlreadyAcknowledged):
			return SendErrorWithType(c, fiber.StatusConflict, "Alert already acknowledged", models.ConflictErrorType)
		default:
			s.log.Error("failed to acknowledge alert", "history_id", historyID, "error", err)
			return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to acknowledge alert", models.GeneralErrorType)
		}
	}
	return SendSuccess(c, fiber.StatusOK, updated)
}
