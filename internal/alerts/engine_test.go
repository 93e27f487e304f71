package alerts

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rackwatch/rackwatch/pkg/models"
)

type fakeRuleStore struct {
	rules []*models.AlertRule
	err   error
}

func (f *fakeRuleStore) ListEnabledAlertRules(ctx context.Context) ([]*models.AlertRule, error) {
	return f.rules, f.err
}

type fakeEvaluator struct {
	candidates []Candidate
	err        error
	calls      int
}

func (f *fakeEvaluator) Evaluate(ctx context.Context, rule *models.AlertRule, threshold float64) ([]Candidate, error) {
	f.calls++
	return f.candidates, f.err
}

func testRule(id int64, ruleType models.AlertRuleType, threshold string, cooldownMinutes int) *models.AlertRule {
	return &models.AlertRule{
		ID:                id,
		Name:              "test rule",
		RuleType:          ruleType,
		ConditionOperator: models.OperatorGreaterThan,
		ThresholdValue:    threshold,
		Severity:          models.SeverityWarning,
		Enabled:           true,
		CooldownMinutes:   cooldownMinutes,
	}
}

func newTestEngine(rules *fakeRuleStore, history *fakeHistoryStore, evaluators map[models.AlertRuleType]Evaluator) *Engine {
	return NewEngine(EngineOptions{
		Rules:      rules,
		History:    history,
		Evaluators: evaluators,
	})
}

func TestEngineWritesTriggeredAlerts(t *testing.T) {
	history := &fakeHistoryStore{}
	evaluator := &fakeEvaluator{candidates: []Candidate{
		{ResourceType: ResourcePowerFeed, ResourceID: 1, ResourceName: "feed-a", ActualValue: "93.75", Message: "feed-a hot"},
		{ResourceType: ResourcePowerFeed, ResourceID: 2, ResourceName: "feed-b", ActualValue: "95", Message: "feed-b hot"},
	}}
	engine := newTestEngine(
		&fakeRuleStore{rules: []*models.AlertRule{testRule(1, models.RuleTypePowerThreshold, "90", 60)}},
		history,
		map[models.AlertRuleType]Evaluator{models.RuleTypePowerThreshold: evaluator},
	)

	result, err := engine.EvaluateAll(context.Background())
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if len(result.Alerts) != 2 {
		t.Fatalf("expected 2 alerts, got %d", len(result.Alerts))
	}
	if len(history.entries) != 2 {
		t.Fatalf("expected 2 persisted entries, got %d", len(history.entries))
	}
	for i, alert := range result.Alerts {
		if alert != history.entries[i] {
			t.Errorf("alert %d is not the persisted record", i)
		}
		if alert.RuleID == nil || *alert.RuleID != 1 {
			t.Errorf("alert %d has wrong rule id: %v", i, alert.RuleID)
		}
		if alert.Severity != models.SeverityWarning {
			t.Errorf("alert %d severity = %q", i, alert.Severity)
		}
		if alert.ThresholdValue != "90" {
			t.Errorf("alert %d threshold snapshot = %q", i, alert.ThresholdValue)
		}
	}
	if result.RunID == "" {
		t.Error("expected a run id")
	}
}

func TestEngineSkipsBadThreshold(t *testing.T) {
	evaluator := &fakeEvaluator{}
	history := &fakeHistoryStore{}
	engine := newTestEngine(
		&fakeRuleStore{rules: []*models.AlertRule{
			testRule(1, models.RuleTypePowerThreshold, "not-a-number", 0),
			testRule(2, models.RuleTypePowerThreshold, "NaN", 0),
			testRule(3, models.RuleTypePowerThreshold, "+Inf", 0),
		}},
		history,
		map[models.AlertRuleType]Evaluator{models.RuleTypePowerThreshold: evaluator},
	)

	result, err := engine.EvaluateAll(context.Background())
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if evaluator.calls != 0 {
		t.Errorf("evaluator should not run for unparseable thresholds, got %d calls", evaluator.calls)
	}
	for _, r := range result.Results {
		if r.Skipped != SkipBadThreshold {
			t.Errorf("rule %d Skipped = %q, want %q", r.RuleID, r.Skipped, SkipBadThreshold)
		}
		if r.Err != nil {
			t.Errorf("a skipped rule is not a failed rule: %v", r.Err)
		}
	}
	if len(result.Failures()) != 0 {
		t.Errorf("skips must not appear as failures")
	}
}

func TestEngineSkipsUnknownRuleType(t *testing.T) {
	history := &fakeHistoryStore{}
	engine := newTestEngine(
		&fakeRuleStore{rules: []*models.AlertRule{testRule(1, models.AlertRuleType("disk_usage"), "90", 0)}},
		history,
		map[models.AlertRuleType]Evaluator{},
	)

	result, err := engine.EvaluateAll(context.Background())
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if result.Results[0].Skipped != SkipUnknownType {
		t.Errorf("Skipped = %q, want %q", result.Results[0].Skipped, SkipUnknownType)
	}
	if len(result.Alerts) != 0 {
		t.Errorf("unknown rule types must not trigger alerts")
	}
}

func TestEngineIsolatesRuleFailures(t *testing.T) {
	history := &fakeHistoryStore{}
	failing := &fakeEvaluator{err: errors.New("inventory query failed")}
	working := &fakeEvaluator{candidates: []Candidate{
		{ResourceType: ResourceRack, ResourceID: 5, ResourceName: "rack-a01", ActualValue: "95", Message: "rack-a01 full"},
	}}
	engine := newTestEngine(
		&fakeRuleStore{rules: []*models.AlertRule{
			testRule(1, models.RuleTypePowerThreshold, "90", 0),
			testRule(2, models.RuleTypeRackCapacity, "80", 0),
		}},
		history,
		map[models.AlertRuleType]Evaluator{
			models.RuleTypePowerThreshold: failing,
			models.RuleTypeRackCapacity:   working,
		},
	)

	result, err := engine.EvaluateAll(context.Background())
	if err != nil {
		t.Fatalf("a single failing rule must not abort the batch: %v", err)
	}
	if working.calls != 1 {
		t.Errorf("second rule should still run, got %d calls", working.calls)
	}
	if len(result.Alerts) != 1 {
		t.Fatalf("expected 1 alert from the working rule, got %d", len(result.Alerts))
	}
	failures := result.Failures()
	if len(failures) != 1 {
		t.Fatalf("expected 1 failure, got %d", len(failures))
	}
	if failures[0].RuleID != 1 {
		t.Errorf("failure attributed to rule %d, want 1", failures[0].RuleID)
	}
}

func TestEngineCooldownSuppressesRepeat(t *testing.T) {
	history := &fakeHistoryStore{}
	evaluator := &fakeEvaluator{candidates: []Candidate{
		{ResourceType: ResourcePowerFeed, ResourceID: 1, ResourceName: "feed-a", ActualValue: "93", Message: "feed-a hot"},
	}}
	engine := newTestEngine(
		&fakeRuleStore{rules: []*models.AlertRule{testRule(1, models.RuleTypePowerThreshold, "90", 60)}},
		history,
		map[models.AlertRuleType]Evaluator{models.RuleTypePowerThreshold: evaluator},
	)

	first, err := engine.EvaluateAll(context.Background())
	if err != nil {
		t.Fatalf("first EvaluateAll: %v", err)
	}
	if len(first.Alerts) != 1 {
		t.Fatalf("first run should trigger, got %d alerts", len(first.Alerts))
	}

	// The condition still holds on the next run; cooldown holds it back.
	second, err := engine.EvaluateAll(context.Background())
	if err != nil {
		t.Fatalf("second EvaluateAll: %v", err)
	}
	if len(second.Alerts) != 0 {
		t.Fatalf("second run inside cooldown should not trigger, got %d alerts", len(second.Alerts))
	}
	if second.Results[0].Suppressed != 1 {
		t.Errorf("Suppressed = %d, want 1", second.Results[0].Suppressed)
	}
	if len(history.entries) != 1 {
		t.Errorf("history should hold a single record, got %d", len(history.entries))
	}
}

func TestEngineZeroCooldownAlwaysTriggers(t *testing.T) {
	history := &fakeHistoryStore{}
	evaluator := &fakeEvaluator{candidates: []Candidate{
		{ResourceType: ResourcePowerFeed, ResourceID: 1, ResourceName: "feed-a", ActualValue: "93", Message: "feed-a hot"},
	}}
	engine := newTestEngine(
		&fakeRuleStore{rules: []*models.AlertRule{testRule(1, models.RuleTypePowerThreshold, "90", 0)}},
		history,
		map[models.AlertRuleType]Evaluator{models.RuleTypePowerThreshold: evaluator},
	)

	for i := 0; i < 3; i++ {
		result, err := engine.EvaluateAll(context.Background())
		if err != nil {
			t.Fatalf("EvaluateAll run %d: %v", i, err)
		}
		if len(result.Alerts) != 1 {
			t.Fatalf("run %d: expected 1 alert, got %d", i, len(result.Alerts))
		}
	}
	if len(history.entries) != 3 {
		t.Errorf("expected 3 history records, got %d", len(history.entries))
	}
}

func TestEngineHistoryWriteFailure(t *testing.T) {
	history := &fakeHistoryStore{insertErr: errors.New("disk full")}
	evaluator := &fakeEvaluator{candidates: []Candidate{
		{ResourceType: ResourcePowerFeed, ResourceID: 1, ResourceName: "feed-a", ActualValue: "93", Message: "feed-a hot"},
	}}
	engine := newTestEngine(
		&fakeRuleStore{rules: []*models.AlertRule{testRule(1, models.RuleTypePowerThreshold, "90", 0)}},
		history,
		map[models.AlertRuleType]Evaluator{models.RuleTypePowerThreshold: evaluator},
	)

	result, err := engine.EvaluateAll(context.Background())
	if err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if len(result.Alerts) != 0 {
		t.Errorf("unpersisted triggers must not be reported, got %d", len(result.Alerts))
	}
	if len(result.Failures()) != 1 {
		t.Errorf("expected the write failure on the rule result")
	}
}

func TestEngineRuleStoreError(t *testing.T) {
	engine := newTestEngine(
		&fakeRuleStore{err: errors.New("db down")},
		&fakeHistoryStore{},
		map[models.AlertRuleType]Evaluator{},
	)
	if _, err := engine.EvaluateAll(context.Background()); err == nil {
		t.Fatal("expected an error when rules cannot be listed")
	}
}

func TestEngineSerializesInvocations(t *testing.T) {
	block := make(chan struct{})
	started := make(chan struct{})
	history := &fakeHistoryStore{}
	var calls int32
	blocking := evaluatorFunc(func(ctx context.Context, rule *models.AlertRule, threshold float64) ([]Candidate, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			close(started)
			<-block
		}
		return nil, nil
	})

	engine := newTestEngine(
		&fakeRuleStore{rules: []*models.AlertRule{testRule(1, models.RuleTypePowerThreshold, "90", 0)}},
		history,
		map[models.AlertRuleType]Evaluator{models.RuleTypePowerThreshold: blocking},
	)

	done := make(chan struct{})
	go func() {
		_, _ = engine.EvaluateAll(context.Background())
		close(done)
	}()
	<-started

	secondDone := make(chan struct{})
	go func() {
		_, _ = engine.EvaluateAll(context.Background())
		close(secondDone)
	}()

	select {
	case <-secondDone:
		t.Fatal("second invocation finished while the first was still running")
	case <-time.After(50 * time.Millisecond):
	}

	close(block)
	<-done
	<-secondDone
}

type evaluatorFunc func(ctx context.Context, rule *models.AlertRule, threshold float64) ([]Candidate, error)

func (f evaluatorFunc) Evaluate(ctx context.Context, rule *models.AlertRule, threshold float64) ([]Candidate, error) {
	return f(ctx, rule, threshold)
}

func TestEnginePrunesHistoryAfterBatch(t *testing.T) {
	history := &fakeHistoryStore{}
	evaluator := &fakeEvaluator{candidates: []Candidate{
		{ResourceType: ResourcePowerFeed, ResourceID: 1, ResourceName: "feed-a", ActualValue: "95", Message: "feed-a hot"},
	}}
	engine := NewEngine(EngineOptions{
		Rules:        &fakeRuleStore{rules: []*models.AlertRule{testRule(1, models.RuleTypePowerThreshold, "90", 0)}},
		History:      history,
		Evaluators:   map[models.AlertRuleType]Evaluator{models.RuleTypePowerThreshold: evaluator},
		HistoryLimit: 500,
	})

	if _, err := engine.EvaluateAll(context.Background()); err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if len(history.pruneCalls) != 1 || history.pruneCalls[0] != 500 {
		t.Fatalf("expected one prune at limit 500, got %v", history.pruneCalls)
	}

	// A batch with nothing written leaves history untouched.
	evaluator.candidates = nil
	if _, err := engine.EvaluateAll(context.Background()); err != nil {
		t.Fatalf("EvaluateAll: %v", err)
	}
	if len(history.pruneCalls) != 1 {
		t.Fatalf("expected no additional prune, got %v", history.pruneCalls)
	}
}
