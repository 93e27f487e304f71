package server

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/rackwatch/rackwatch/internal/alerts"
	"github.com/rackwatch/rackwatch/pkg/models"
)

// EvaluateResponse is the payload returned by manual evaluation. Alerts
// holds exactly the history records written during this run; Failures
// lists rules whose evaluation or persistence failed.
type EvaluateResponse struct {
	Message  string                 `json:"message"`
	Count    int                    `json:"count"`
	Alerts   []*models.AlertHistory `json:"alerts"`
	Failures []alerts.RuleFailure   `json:"failures,omitempty"`
	RunID    string                 `json:"run_id"`
}

func (s *Server) handleEvaluateAlerts(c *fiber.Ctx) error {
	result, err := s.engine.EvaluateAll(c.Context())
	if err != nil {
		s.log.Error("alert evaluation failed", "error", err)
		return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to evaluate alert rules", models.GeneralErrorType)
	}

	alertsWritten := result.Alerts
	if alertsWritten == nil {
		alertsWritten = []*models.AlertHistory{}
	}
	resp := EvaluateResponse{
		Message:  fmt.Sprintf("%d new alert(s) triggered", len(alertsWritten)),
		Count:    len(alertsWritten),
		Alerts:   alertsWritten,
		Failures: result.Failures(),
		RunID:    result.RunID,
	}
	return SendSuccess(c, fiber.StatusOK, resp)
}
