package alerts

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"sync"
	"time"

	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"

	"github.com/rackwatch/rackwatch/pkg/models"
)

var (
	evaluationsTotal = metrics.NewCounter("rackwatch_evaluations_total")
	alertsTriggered  = metrics.NewCounter("rackwatch_alerts_triggered_total")
	alertsSuppressed = metrics.NewCounter("rackwatch_alerts_suppressed_total")
	ruleFailures     = metrics.NewCounter("rackwatch_rule_failures_total")
)

// Engine orchestrates one batch evaluation: list enabled rules, run the
// matching evaluator, filter through cooldown, persist accepted triggers,
// and fan out notifications. It holds no state between invocations; all
// memory of prior triggers lives in the history store.
type Engine struct {
	rules      RuleStore
	history    HistoryStore
	evaluators map[models.AlertRuleType]Evaluator
	cooldown   *CooldownFilter
	dispatcher *Dispatcher
	// historyLimit bounds retained history rows; 0 keeps everything.
	historyLimit int
	log          *slog.Logger

	// mu serializes invocations. The cooldown check and the history write
	// are a check-then-act pair; two concurrent batches could both read
	// "no recent trigger" and double-fire inside the window.
	mu sync.Mutex
}

// EngineOptions configures an Engine.
type EngineOptions struct {
	Rules      RuleStore
	History    HistoryStore
	Evaluators map[models.AlertRuleType]Evaluator
	Dispatcher *Dispatcher
	// HistoryLimit caps retained history rows after each batch; 0 disables
	// pruning.
	HistoryLimit int
	Logger       *slog.Logger
}

// NewEngine constructs the rule evaluation engine.
func NewEngine(opts EngineOptions) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{
		rules:        opts.Rules,
		history:      opts.History,
		evaluators:   opts.Evaluators,
		cooldown:     NewCooldownFilter(opts.History),
		dispatcher:   opts.Dispatcher,
		historyLimit: opts.HistoryLimit,
		log:          logger.With("component", "alert_engine"),
	}
}

// DefaultEvaluators wires the three built-in evaluators against a
// provider set. Adding a rule type is one more map entry.
func DefaultEvaluators(power PowerProvider, devices DeviceProvider, racks RackProvider) map[models.AlertRuleType]Evaluator {
	return map[models.AlertRuleType]Evaluator{
		models.RuleTypePowerThreshold: NewPowerEvaluator(power),
		models.RuleTypeWarrantyExpiry: NewWarrantyEvaluator(devices),
		models.RuleTypeRackCapacity:   NewRackEvaluator(racks),
	}
}

// EvaluateAll runs one batch over every enabled rule and returns the
// summary. The returned Alerts slice contains exactly the history records
// written during this invocation. A failure in one rule never aborts the
// batch; it is recorded on that rule's result.
func (e *Engine) EvaluateAll(ctx context.Context) (*BatchResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	evaluationsTotal.Inc()

	batch := &BatchResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now(),
	}
	log := e.log.With("run_id", batch.RunID)

	rules, err := e.rules.ListEnabledAlertRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list enabled rules: %w", err)
	}
	log.Debug("starting evaluation batch", "rules", len(rules))

	for _, rule := range rules {
		result := e.evaluateRule(ctx, log, rule)
		if result.Err != nil {
			ruleFailures.Inc()
			log.Error("rule evaluation failed", "rule_id", rule.ID, "rule_name", rule.Name, "error", result.Err)
		}
		batch.Results = append(batch.Results, result)
		batch.Alerts = append(batch.Alerts, result.Written...)
	}

	if e.historyLimit > 0 && len(batch.Alerts) > 0 {
		if err := e.history.PruneAlertHistory(ctx, e.historyLimit); err != nil {
			log.Warn("failed to prune alert history", "limit", e.historyLimit, "error", err)
		}
	}

	batch.Duration = time.Since(batch.StartedAt)
	log.Info("evaluation batch complete",
		"rules", len(rules),
		"triggered", len(batch.Alerts),
		"failures", len(batch.Failures()),
		"duration", batch.Duration)
	return batch, nil
}

func (e *Engine) evaluateRule(ctx context.Context, log *slog.Logger, rule *models.AlertRule) RuleResult {
	result := RuleResult{RuleID: rule.ID, RuleName: rule.Name}

	threshold, err := strconv.ParseFloat(rule.ThresholdValue, 64)
	if err != nil || math.IsNaN(threshold) || math.IsInf(threshold, 0) {
		log.Warn("skipping rule with unparseable threshold", "rule_id", rule.ID, "threshold", rule.ThresholdValue)
		result.Skipped = SkipBadThreshold
		return result
	}

	evaluator, ok := e.evaluators[rule.RuleType]
	if !ok {
		log.Warn("skipping rule with unknown type", "rule_id", rule.ID, "rule_type", rule.RuleType)
		result.Skipped = SkipUnknownType
		return result
	}

	candidates, err := evaluator.Evaluate(ctx, rule, threshold)
	if err != nil {
		result.Err = fmt.Errorf("evaluator failed: %w", err)
		return result
	}
	result.Candidates = len(candidates)

	for _, candidate := range candidates {
		suppressed, err := e.cooldown.Suppressed(ctx, rule.ID, candidate.ResourceType, candidate.ResourceID, rule.CooldownMinutes)
		if err != nil {
			result.Err = err
			return result
		}
		if suppressed {
			alertsSuppressed.Inc()
			result.Suppressed++
			log.Debug("candidate suppressed by cooldown",
				"rule_id", rule.ID, "resource_type", candidate.ResourceType, "resource_id", candidate.ResourceID)
			continue
		}

		ruleID := rule.ID
		entry := &models.AlertHistory{
			RuleID:         &ruleID,
			Severity:       rule.Severity,
			Message:        candidate.Message,
			ResourceType:   candidate.ResourceType,
			ResourceID:     candidate.ResourceID,
			ResourceName:   candidate.ResourceName,
			ThresholdValue: rule.ThresholdValue,
			ActualValue:    candidate.ActualValue,
		}
		if err := e.history.InsertAlertHistory(ctx, entry); err != nil {
			// The trigger was never recorded, so notifications for it
			// must not go out either.
			result.Err = fmt.Errorf("failed to write history: %w", err)
			return result
		}
		alertsTriggered.Inc()
		result.Written = append(result.Written, entry)

		if e.dispatcher != nil {
			e.dispatcher.Dispatch(ctx, rule, entry)
		}
	}
	return result
}
