package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/rackwatch/rackwatch/internal/core"
	"github.com/rackwatch/rackwatch/pkg/models"
)

func (s *Server) parseRuleID(c *fiber.Ctx) (int64, error) {
	ruleID, err := strconv.ParseInt(c.Params("ruleID"), 10, 64)
	if err != nil {
		return 0, SendErrorWithType(c, fiber.StatusBadRequest, "Invalid rule ID", models.ValidationErrorType)
	}
	return ruleID, nil
}

func (s *Server) handleListAlertRules(c *fiber.Ctx) error {
	rules, err := core.ListAlertRules(c.Context(), s.sqlite)
	if err != nil {
		s.log.Error("failed to list alert rules", "error", err)
		return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to list alert rules", models.GeneralErrorType)
	}
	return SendSuccess(c, fiber.StatusOK, rules)
}

func (s *Server) handleCreateAlertRule(c *fiber.Ctx) error {
	var req models.CreateAlertRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return SendErrorWithType(c, fiber.StatusBadRequest, "Invalid request body", models.ValidationErrorType)
	}

	rule, err := core.CreateAlertRule(c.Context(), s.sqlite, s.log, s.actorName(c), &req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidRuleConfiguration) {
			return SendErrorWithType(c, fiber.StatusBadRequest, err.Error(), models.ValidationErrorType)
		}
		s.log.Error("failed to create alert rule", "error", err)
		return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to create alert rule", models.GeneralErrorType)
	}
	return SendSuccess(c, fiber.StatusCreated, rule)
}

func (s *Server) handleGetAlertRule(c *fiber.Ctx) error {
	ruleID, err := s.parseRuleID(c)
	if err != nil {
		return err
	}

	rule, err := core.GetAlertRule(c.Context(), s.sqlite, ruleID)
	if err != nil {
		if errors.Is(err, core.ErrRuleNotFound) {
			return SendErrorWithType(c, fiber.StatusNotFound, "Alert rule not found", models.NotFoundErrorType)
		}
		s.log.Error("failed to get alert rule", "rule_id", ruleID, "error", err)
		return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to retrieve alert rule", models.GeneralErrorType)
	}
	return SendSuccess(c, fiber.StatusOK, rule)
}

func (s *Server) handleUpdateAlertRule(c *fiber.Ctx) error {
	ruleID, err := s.parseRuleID(c)
	if err != nil {
		return err
	}

	var req models.UpdateAlertRuleRequest
	if err := c.BodyParser(&req); err != nil {
		return SendErrorWithType(c, fiber.StatusBadRequest, "Invalid request body", models.ValidationErrorType)
	}

	updated, err := core.UpdateAlertRule(c.Context(), s.sqlite, s.log, ruleID, &req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidRuleConfiguration):
			return SendErrorWithType(c, fiber.StatusBadRequest, err.Error(), models.ValidationErrorType)
		case errors.Is(err, core.ErrRuleNotFound):
			return SendErrorWithType(c, fiber.StatusNotFound, "Alert rule not found", models.NotFoundErrorType)
		default:
			s.log.Error("failed to update alert rule", "rule_id", ruleID, "error", err)
			return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to update alert rule", models.GeneralErrorType)
		}
	}
	return SendSuccess(c, fiber.StatusOK, updated)
}

func (s *Server) handleDeleteAlertRule(c *fiber.Ctx) error {
	ruleID, err := s.parseRuleID(c)
	if err != nil {
		return err
	}

	if err := core.DeleteAlertRule(c.Context(), s.sqlite, s.log, ruleID); err != nil {
		if errors.Is(err, core.ErrRuleNotFound) {
			return SendErrorWithType(c, fiber.StatusNotFound, "Alert rule not found", models.NotFoundErrorType)
		}
		s.log.Error("failed to delete alert rule", "rule_id", ruleID, "error", err)
		return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to delete alert rule", models.GeneralErrorType)
	}
	return SendSuccess(c, fiber.StatusOK, fiber.Map{"message": "Alert rule deleted"})
}
