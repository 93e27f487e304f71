package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/rackwatch/rackwatch/internal/app"
	"github.com/rackwatch/rackwatch/internal/core"
	"github.com/rackwatch/rackwatch/pkg/models"
)

// seedCommand loads a small demo inventory with rules and channels so a
// fresh install has something to evaluate.
func (a *App) seedCommand() *cli.Command {
	return &cli.Command{
		Name:  "seed",
		Usage: "load demo inventory, rules, and channels into the database",
		Action: func(ctx context.Context, cmd *cli.Command) error {
			instance, err := app.New(app.Options{
				ConfigPath: a.ConfigPath,
				Version:    a.Version,
			})
			if err != nil {
				return err
			}
			if err := instance.Initialize(ctx); err != nil {
				return fmt.Errorf("failed to initialize: %w", err)
			}
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				_ = instance.Shutdown(shutdownCtx)
			}()

			if err := seedDemoData(ctx, instance); err != nil {
				return err
			}
			fmt.Println(successStyle.Render("demo data loaded"))
			return nil
		},
	}
}

func seedDemoData(ctx context.Context, instance *app.App) error {
	db := instance.SQLite
	log := instance.Logger

	rackA := &models.Rack{Name: "rack-a01", Site: "dc-east", UHeight: 42}
	rackB := &models.Rack{Name: "rack-b03", Site: "dc-east", UHeight: 48}
	for _, rack := range []*models.Rack{rackA, rackB} {
		if err := db.InsertRack(ctx, rack); err != nil {
			return fmt.Errorf("failed to seed rack %s: %w", rack.Name, err)
		}
	}

	soon := time.Now().AddDate(0, 0, 20)
	later := time.Now().AddDate(2, 0, 0)
	expired := time.Now().AddDate(0, 0, -10)
	devices := []*models.Device{
		{Name: "sw-core-01", RackID: &rackA.ID, UHeight: 1, WarrantyExpiresAt: &soon},
		{Name: "srv-db-01", RackID: &rackA.ID, UHeight: 2, WarrantyExpiresAt: &later},
		{Name: "srv-app-07", RackID: &rackB.ID, UHeight: 2, WarrantyExpiresAt: &expired},
		{Name: "srv-batch-02", RackID: &rackB.ID, UHeight: 4},
	}
	for _, device := range devices {
		if err := db.InsertDevice(ctx, device); err != nil {
			return fmt.Errorf("failed to seed device %s: %w", device.Name, err)
		}
	}

	feedA := &models.PowerFeed{Name: "feed-a01-primary", RackID: &rackA.ID, RatedKW: 10}
	feedB := &models.PowerFeed{Name: "feed-b03-primary", RackID: &rackB.ID, RatedKW: 12}
	for _, feed := range []*models.PowerFeed{feedA, feedB} {
		if err := db.InsertPowerFeed(ctx, feed); err != nil {
			return fmt.Errorf("failed to seed power feed %s: %w", feed.Name, err)
		}
	}
	readings := []*models.PowerReading{
		{FeedID: feedA.ID, PowerKW: 9.2, RecordedAt: time.Now()},
		{FeedID: feedB.ID, PowerKW: 4.1, RecordedAt: time.Now()},
	}
	for _, reading := range readings {
		if err := db.InsertPowerReading(ctx, reading); err != nil {
			return fmt.Errorf("failed to seed power reading: %w", err)
		}
	}

	channel, err := core.CreateChannel(ctx, db, log, &models.CreateChannelRequest{
		Name:        "ops-feed",
		ChannelType: models.ChannelInApp,
		Enabled:     true,
	})
	if err != nil {
		return fmt.Errorf("failed to seed channel: %w", err)
	}

	rules := []*models.CreateAlertRuleRequest{
		{
			Name:                 "Power feed above 90%",
			RuleType:             models.RuleTypePowerThreshold,
			ConditionField:       "usage_percent",
			ConditionOperator:    models.OperatorGreaterThan,
			ThresholdValue:       "90",
			Severity:             models.SeverityCritical,
			Enabled:              true,
			NotificationChannels: []int64{channel.ID},
			CooldownMinutes:      60,
		},
		{
			Name:                 "Warranty expiring within 30 days",
			RuleType:             models.RuleTypeWarrantyExpiry,
			ConditionField:       "days_remaining",
			ConditionOperator:    models.OperatorLessThanOrEqual,
			ThresholdValue:       "30",
			Severity:             models.SeverityWarning,
			Enabled:              true,
			NotificationChannels: []int64{channel.ID},
			CooldownMinutes:      1440,
		},
		{
			Name:                 "Rack over 80% occupied",
			RuleType:             models.RuleTypeRackCapacity,
			ConditionField:       "occupied_percent",
			ConditionOperator:    models.OperatorGreaterThanOrEqual,
			ThresholdValue:       "80",
			Severity:             models.SeverityInfo,
			Enabled:              true,
			NotificationChannels: []int64{channel.ID},
			CooldownMinutes:      0,
		},
	}
	for _, req := range rules {
		if _, err := core.CreateAlertRule(ctx, db, log, "seed", req); err != nil {
			return fmt.Errorf("failed to seed rule %s: %w", req.Name, err)
		}
	}
	return nil
}
