package server

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/rackwatch/rackwatch/internal/core"
	"github.com/rackwatch/rackwatch/pkg/models"
)

func (s *Server) parseChannelID(c *fiber.Ctx) (int64, error) {
	channelID, err := strconv.ParseInt(c.Params("channelID"), 10, 64)
	if err != nil {
		return 0, SendErrorWithType(c, fiber.StatusBadRequest, "Invalid channel ID", models.ValidationErrorType)
	}
	return channelID, nil
}

func (s *Server) handleListChannels(c *fiber.Ctx) error {
	channels, err := core.ListChannels(c.Context(), s.sqlite)
	if err != nil {
		s.log.Error("failed to list notification channels", "error", err)
		return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to list notification channels", models.GeneralErrorType)
	}
	return SendSuccess(c, fiber.StatusOK, channels)
}

func (s *Server) handleCreateChannel(c *fiber.Ctx) error {
	var req models.CreateChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return SendErrorWithType(c, fiber.StatusBadRequest, "Invalid request body", models.ValidationErrorType)
	}

	channel, err := core.CreateChannel(c.Context(), s.sqlite, s.log, &req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidChannelConfiguration) {
			return SendErrorWithType(c, fiber.StatusBadRequest, err.Error(), models.ValidationErrorType)
		}
		s.log.Error("failed to create notification channel", "error", err)
		return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to create notification channel", models.GeneralErrorType)
	}
	return SendSuccess(c, fiber.StatusCreated, channel)
}

func (s *Server) handleGetChannel(c *fiber.Ctx) error {
	channelID, err := s.parseChannelID(c)
	if err != nil {
		return err
	}

	channel, err := core.GetChannel(c.Context(), s.sqlite, channelID)
	if err != nil {
		if errors.Is(err, core.ErrChannelNotFound) {
			return SendErrorWithType(c, fiber.StatusNotFound, "Notification channel not found", models.NotFoundErrorType)
		}
		s.log.Error("failed to get notification channel", "channel_id", channelID, "error", err)
		return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to retrieve notification channel", models.GeneralErrorType)
	}
	return SendSuccess(c, fiber.StatusOK, channel)
}

func (s *Server) handleUpdateChannel(c *fiber.Ctx) error {
	channelID, err := s.parseChannelID(c)
	if err != nil {
		return err
	}

	var req models.UpdateChannelRequest
	if err := c.BodyParser(&req); err != nil {
		return SendErrorWithType(c, fiber.StatusBadRequest, "Invalid request body", models.ValidationErrorType)
	}

	updated, err := core.UpdateChannel(c.Context(), s.sqlite, s.log, channelID, &req)
	if err != nil {
		switch {
		case errors.Is(err, core.ErrInvalidChannelConfiguration):
			return SendErrorWithType(c, fiber.StatusBadRequest, err.Error(), models.ValidationErrorType)
		case errors.Is(err, core.ErrChannelNotFound):
			return SendErrorWithType(c, fiber.StatusNotFound, "Notification channel not found", models.NotFoundErrorType)
		default:
			s.log.Error("failed to update notification channel", "channel_id", channelID, "error", err)
			return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to update notification channel", models.GeneralErrorType)
		}
	}
	return SendSuccess(c, fiber.StatusOK, updated)
}

func (s *Server) handleDeleteChannel(c *fiber.Ctx) error {
	channelID, err := s.parseChannelID(c)
	if err != nil {
		return err
	}

	if err := core.DeleteChannel(c.Context(), s.sqlite, s.log, channelID); err != nil {
		if errors.Is(err, core.ErrChannelNotFound) {
			return SendErrorWithType(c, fiber.StatusNotFound, "Notification channel not found", models.NotFoundErrorType)
		}
		s.log.Error("failed to delete notification channel", "channel_id", channelID, "error", err)
		return SendErrorWithType(c, fiber.StatusInternalServerError, "Failed to delete notification channel", models.GeneralErrorType)
	}
	return SendSuccess(c, fiber.StatusOK, fiber.Map{"message": "Notification channel deleted"})
}
