// Package server exposes the HTTP API: rule and channel management, alert
// history, the in-app notification feed, and on-demand evaluation.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/rackwatch/rackwatch/internal/alerts"
	"github.com/rackwatch/rackwatch/internal/config"
	"github.com/rackwatch/rackwatch/internal/sqlite"
)

// Server wires the fiber app to the store and the evaluation engine.
type Server struct {
	app    *fiber.App
	config *config.Config
	sqlite *sqlite.DB
	engine *alerts.Engine
	log    *slog.Logger

	version string
}

// Options configures a Server.
type Options struct {
	Config  *config.Config
	DB      *sqlite.DB
	Engine  *alerts.Engine
	Logger  *slog.Logger
	Version string
}

// New builds the fiber app and registers all routes.
func New(opts Options) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "rackwatch",
		ReadTimeout:  opts.Config.Server.ReadTimeout,
		WriteTimeout: opts.Config.Server.WriteTimeout,
		// Handlers return explicit envelopes; this catches errors escaping
		// fiber itself.
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return SendError(c, code, err.Error())
		},
	})

	s := &Server{
		app:     app,
		config:  opts.Config,
		sqlite:  opts.DB,
		engine:  opts.Engine,
		log:     opts.Logger.With("component", "server"),
		version: opts.Version,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.app.Use(recover.New())

	s.app.Get("/health", s.handleHealth)
	s.app.Get("/metrics", func(c *fiber.Ctx) error {
		c.Set(fiber.HeaderContentType, "text/plain; charset=utf-8")
		metrics.WritePrometheus(c.Context(), true)
		return nil
	})

	api := s.app.Group("/api/v1", s.requireToken)

	rules := api.Group("/alerts/rules")
	rules.Get("/", s.handleListAlertRules)
	rules.Post("/", s.requireAdmin, s.handleCreateAlertRule)
	rules.Get("/:ruleID", s.handleGetAlertRule)
	rules.Put("/:ruleID", s.requireAdmin, s.handleUpdateAlertRule)
	rules.Delete("/:ruleID", s.requireAdmin, s.handleDeleteAlertRule)

	channels := api.Group("/alerts/channels")
	channels.Get("/", s.handleListChannels)
	channels.Post("/", s.requireAdmin, s.handleCreateChannel)
	channels.Get("/:channelID", s.handleGetChannel)
	channels.Put("/:channelID", s.requireAdmin, s.handleUpdateChannel)
	channels.Delete("/:channelID", s.requireAdmin, s.handleDeleteChannel)

	api.Get("/alerts/history", s.handleListAlertHistory)
	api.Patch("/alerts/history/:historyID/acknowledge", s.handleAcknowledgeAlert)

	api.Post("/alerts/evaluate", s.requireAdmin, s.handleEvaluateAlerts)

	api.Get("/notifications", s.handleListNotifications)
	api.Patch("/notifications/:notificationID/read", s.handleMarkNotificationRead)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return SendSuccess(c, fiber.StatusOK, fiber.Map{
		"status":  "ok",
		"version": s.version,
		"time":    time.Now().UTC(),
	})
}

// Start blocks serving HTTP until Shutdown is called.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.Host, s.config.Server.Port)
	s.log.Info("starting HTTP server", "addr", addr)
	return s.app.Listen(addr)
}

// Shutdown gracefully drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}
