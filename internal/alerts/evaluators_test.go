package alerts

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

type fakePowerProvider struct {
	feeds    []*models.PowerFeed
	readings map[int64]*models.PowerReading
	err      error
}

func (f *fakePowerProvider) ListPowerFeeds(ctx context.Context) ([]*models.PowerFeed, error) {
	return f.feeds, f.err
}

func (f *fakePowerProvider) LatestPowerReading(ctx context.Context, feedID int64) (*models.PowerReading, error) {
	reading, ok := f.readings[feedID]
	if !ok {
		return nil, models.ErrNotFound
	}
	return reading, nil
}

type fakeDeviceProvider struct {
	devices []*models.Device
	err     error
}

func (f *fakeDeviceProvider) ListDevicesWithWarranty(ctx context.Context) ([]*models.Device, error) {
	return f.devices, f.err
}

type fakeRackProvider struct {
	racks []*models.RackOccupancy
	err   error
}

func (f *fakeRackProvider) ListRackOccupancy(ctx context.Context) ([]*models.RackOccupancy, error) {
	return f.racks, f.err
}

func powerRule(operator models.ConditionOperator) *models.AlertRule {
	return &models.AlertRule{
		ID:                1,
		Name:              "power usage",
		RuleType:          models.RuleTypePowerThreshold,
		ConditionOperator: operator,
	}
}

func TestPowerEvaluator(t *testing.T) {
	provider := &fakePowerProvider{
		feeds: []*models.PowerFeed{
			{ID: 1, Name: "feed-a", RatedKW: 8},  // 7.5 kW -> 93.75%
			{ID: 2, Name: "feed-b", RatedKW: 16}, // 4 kW -> 25%
			{ID: 3, Name: "feed-c", RatedKW: 0},  // invalid capacity, skipped
			{ID: 4, Name: "feed-d", RatedKW: 10}, // no reading, skipped
		},
		readings: map[int64]*models.PowerReading{
			1: {FeedID: 1, PowerKW: 7.5},
			2: {FeedID: 2, PowerKW: 4},
			3: {FeedID: 3, PowerKW: 1},
		},
	}
	evaluator := NewPowerEvaluator(provider)

	candidates, err := evaluator.Evaluate(context.Background(), powerRule(models.OperatorGreaterThan), 90)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.ResourceType != ResourcePowerFeed || c.ResourceID != 1 || c.ResourceName != "feed-a" {
		t.Errorf("unexpected candidate resource: %+v", c)
	}
	if c.ActualValue != "93.75" {
		t.Errorf("ActualValue = %q, want %q", c.ActualValue, "93.75")
	}
	if !strings.Contains(c.Message, "feed-a") || !strings.Contains(c.Message, "utilization") {
		t.Errorf("unexpected message: %q", c.Message)
	}
}

func TestPowerEvaluatorNoMatches(t *testing.T) {
	provider := &fakePowerProvider{
		feeds:    []*models.PowerFeed{{ID: 1, Name: "feed-a", RatedKW: 10}},
		readings: map[int64]*models.PowerReading{1: {FeedID: 1, PowerKW: 2}},
	}
	candidates, err := NewPowerEvaluator(provider).Evaluate(context.Background(), powerRule(models.OperatorGreaterThan), 90)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(candidates) != 0 {
		t.Fatalf("expected no candidates, got %d", len(candidates))
	}
}

func TestPowerEvaluatorProviderError(t *testing.T) {
	provider := &fakePowerProvider{err: errors.New("db down")}
	if _, err := NewPowerEvaluator(provider).Evaluate(context.Background(), powerRule(models.OperatorGreaterThan), 90); err == nil {
		t.Fatal("expected error from provider")
	}
}

func TestWarrantyEvaluator(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiresIn := func(days int) *time.Time {
		ts := now.Add(time.Duration(days) * 24 * time.Hour)
		return &ts
	}

	provider := &fakeDeviceProvider{
		devices: []*models.Device{
			{ID: 1, Name: "sw-core-01", WarrantyExpiresAt: expiresIn(5)},
			{ID: 2, Name: "srv-db-01", WarrantyExpiresAt: expiresIn(200)},
			{ID: 3, Name: "srv-app-07", WarrantyExpiresAt: expiresIn(-3)},
		},
	}
	evaluator := NewWarrantyEvaluator(provider)
	evaluator.now = func() time.Time { return now }

	rule := &models.AlertRule{
		ID:                2,
		Name:              "warranty watch",
		RuleType:          models.RuleTypeWarrantyExpiry,
		ConditionOperator: models.OperatorLessThanOrEqual,
	}
	candidates, err := evaluator.Evaluate(context.Background(), rule, 30)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(candidates) != 2 {
		t.Fatalf("expected 2 candidates, got %d", len(candidates))
	}

	byID := map[int64]Candidate{}
	for _, c := range candidates {
		byID[c.ResourceID] = c
	}

	expiring, ok := byID[1]
	if !ok {
		t.Fatal("device 1 missing from candidates")
	}
	if expiring.ActualValue != "5" {
		t.Errorf("device 1 ActualValue = %q, want %q", expiring.ActualValue, "5")
	}
	if !strings.Contains(expiring.Message, "expires in 5 days") {
		t.Errorf("device 1 message = %q, want it to contain %q", expiring.Message, "expires in 5 days")
	}

	expired, ok := byID[3]
	if !ok {
		t.Fatal("device 3 missing from candidates")
	}
	if expired.ActualValue != "-3" {
		t.Errorf("device 3 ActualValue = %q, want %q", expired.ActualValue, "-3")
	}
	if !strings.Contains(expired.Message, "expired 3 days ago") {
		t.Errorf("device 3 message = %q, want it to contain %q", expired.Message, "expired 3 days ago")
	}
}

func TestWarrantyEvaluatorExpiresToday(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	expiry := now.Add(6 * time.Hour)
	provider := &fakeDeviceProvider{
		devices: []*models.Device{{ID: 1, Name: "sw-edge-02", WarrantyExpiresAt: &expiry}},
	}
	evaluator := NewWarrantyEvaluator(provider)
	evaluator.now = func() time.Time { return now }

	rule := &models.AlertRule{ConditionOperator: models.OperatorLessThanOrEqual}
	candidates, err := evaluator.Evaluate(context.Background(), rule, 30)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	if candidates[0].ActualValue != "0" {
		t.Errorf("ActualValue = %q, want %q", candidates[0].ActualValue, "0")
	}
	if !strings.Contains(candidates[0].Message, "expires in 0 days") {
		t.Errorf("message = %q, want it to contain %q", candidates[0].Message, "expires in 0 days")
	}
}

func TestRackEvaluator(t *testing.T) {
	provider := &fakeRackProvider{
		racks: []*models.RackOccupancy{
			{Rack: models.Rack{ID: 1, Name: "rack-a01", UHeight: 42}, OccupiedUnits: 40}, // ~95.2%
			{Rack: models.Rack{ID: 2, Name: "rack-b03", UHeight: 48}, OccupiedUnits: 10}, // ~20.8%
			{Rack: models.Rack{ID: 3, Name: "rack-bad", UHeight: 0}, OccupiedUnits: 5},   // skipped
		},
	}
	rule := &models.AlertRule{
		ID:                3,
		Name:              "rack capacity",
		RuleType:          models.RuleTypeRackCapacity,
		ConditionOperator: models.OperatorGreaterThanOrEqual,
	}
	candidates, err := NewRackEvaluator(provider).Evaluate(context.Background(), rule, 80)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	c := candidates[0]
	if c.ResourceType != ResourceRack || c.ResourceName != "rack-a01" {
		t.Errorf("unexpected candidate: %+v", c)
	}
	if !strings.Contains(c.Message, "40 of 42 U occupied") {
		t.Errorf("unexpected message: %q", c.Message)
	}
}

func TestRackEvaluatorExactBoundary(t *testing.T) {
	provider := &fakeRackProvider{
		racks: []*models.RackOccupancy{
			{Rack: models.Rack{ID: 1, Name: "rack-c02", UHeight: 40}, OccupiedUnits: 32}, // exactly 80%
		},
	}
	rule := &models.AlertRule{ConditionOperator: models.OperatorGreaterThanOrEqual}
	candidates, err := NewRackEvaluator(provider).Evaluate(context.Background(), rule, 80)
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("gte should match the exact boundary, got %d candidates", len(candidates))
	}
	if candidates[0].ActualValue != "80" {
		t.Errorf("ActualValue = %q, want %q", candidates[0].ActualValue, "80")
	}
}
