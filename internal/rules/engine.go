package rules

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/mailsift/mailsift/internal/classifier"
	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

// Config holds configuration options for the rule engine.
type Config struct {
	// Clock supplies the current time; tests override it.
	Clock func() time.Time
	// TestWindow bounds how many recent messages a dry run examines.
	TestWindow int
	// ProviderTimeout caps each individual provider call.
	ProviderTimeout time.Duration
	// Categories is the set of definitions categorize actions may target.
	// Nil falls back to the compiled-in defaults.
	Categories []model.CategoryDefinition
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		TestWindow:      500,
		ProviderTimeout: 10 * time.Second,
		Clock:           time.Now,
	}
}

// Engine evaluates stored automation rules against messages and executes
// matched actions through the store and provider gateway.
type Engine struct {
	store       service.EmailStore
	gateway     service.ProviderGateway
	clock       func() time.Time
	config      Config
	categoryIDs map[string]bool
}

// New creates a rule engine with the default configuration.
func New(store service.EmailStore, gateway service.ProviderGateway) *Engine {
	return NewWithConfig(store, gateway, DefaultConfig())
}

// NewWithConfig creates a rule engine with custom configuration.
func NewWithConfig(store service.EmailStore, gateway service.ProviderGateway, config Config) *Engine {
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.TestWindow <= 0 {
		config.TestWindow = 500
	}
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = 10 * time.Second
	}
	if config.Categories == nil {
		config.Categories = classifier.DefaultCategories()
	}

	categoryIDs := make(map[string]bool, len(config.Categories)+1)
	categoryIDs[model.CategoryUncategorized] = true
	for _, def := range config.Categories {
		categoryIDs[strings.ToLower(strings.TrimSpace(def.ID))] = true
	}

	return &Engine{
		store:       store,
		gateway:     gateway,
		clock:       config.Clock,
		config:      config,
		categoryIDs: categoryIDs,
	}
}

// ApplyToMessage evaluates every enabled rule against the message in
// descending priority order and executes the actions of each match
// immediately. Evaluation never short-circuits after the first match, and a
// failed action does not stop the remaining actions or rules: the caller
// receives one ActionResult per attempted action.
func (e *Engine) ApplyToMessage(ctx context.Context, msg model.Message) ([]ActionResult, error) {
	rules, err := e.store.GetRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load rules: %w", err)
	}

	enabled := make([]model.Rule, 0, len(rules))
	for _, rule := range rules {
		if rule.Enabled {
			enabled = append(enabled, rule)
		}
	}

	// Stable sort: equal priorities keep creation order.
	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Priority > enabled[j].Priority
	})

	var results []ActionResult
	for i := range enabled {
		rule := enabled[i]
		if !ruleMatches(rule, msg) {
			continue
		}

		e.recordHit(ctx, &rule)

		for _, action := range rule.Actions {
			result := ActionResult{
				RuleID:   rule.ID,
				RuleName: rule.Name,
				Action:   action,
			}
			if err := e.executeAction(ctx, action, msg); err != nil {
				result.Err = err
				slog.Error("Rule action failed",
					"rule", rule.Name,
					"action", action.Type,
					"message_id", msg.ID,
					"error", err)
			}
			results = append(results, result)
		}
	}

	return results, nil
}

// recordHit bumps the rule's hit count and last-hit timestamp. Persistence
// failures are logged, not fatal: the action run proceeds regardless.
func (e *Engine) recordHit(ctx context.Context, rule *model.Rule) {
	now := e.clock()
	rule.HitCount++
	rule.LastHit = &now
	if err := e.store.SaveRule(ctx, rule); err != nil {
		slog.Error("Failed to record rule hit",
			"rule", rule.Name,
			"error", err)
	}
}

// TestResult reports a dry run of a rule over recent messages.
type TestResult struct {
	// Matches holds up to ten sample matching messages.
	Matches []model.Message
	// Total counts every match in the examined window.
	Total int
}

// testSampleLimit bounds the sample size a dry run returns.
const testSampleLimit = 10

// TestRule dry-runs a rule's conditions over a bounded window of recent
// messages. Actions are never executed and the hit count is untouched.
func (e *Engine) TestRule(ctx context.Context, id int64) (*TestResult, error) {
	rule, err := e.store.GetRule(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load rule %d: %w", id, err)
	}
	if rule == nil {
		return nil, fmt.Errorf("%w: %d", common.ErrRuleNotFound, id)
	}

	msgs, err := e.store.GetMessages(ctx, service.MessageFilter{Limit: e.config.TestWindow})
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	result := &TestResult{}
	for _, msg := range msgs {
		if !ruleMatches(*rule, msg) {
			continue
		}
		result.Total++
		if len(result.Matches) < testSampleLimit {
			result.Matches = append(result.Matches, msg)
		}
	}

	return result, nil
}

// CreateRule validates and persists a new rule.
func (e *Engine) CreateRule(ctx context.Context, rule *model.Rule) error {
	if err := e.validateRule(rule); err != nil {
		return err
	}

	now := e.clock()
	rule.ID = 0
	rule.HitCount = 0
	rule.LastHit = nil
	rule.CreatedAt = now
	rule.UpdatedAt = now

	if err := e.store.SaveRule(ctx, rule); err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	slog.Info("Created rule", "rule", rule.Name, "id", rule.ID)
	return nil
}

// UpdateRule validates and persists changes to an existing rule. The hit
// count is preserved from the stored rule; only the engine increments it.
func (e *Engine) UpdateRule(ctx context.Context, rule *model.Rule) error {
	if err := e.validateRule(rule); err != nil {
		return err
	}

	existing, err := e.store.GetRule(ctx, rule.ID)
	if err != nil {
		return fmt.Errorf("failed to load rule %d: %w", rule.ID, err)
	}
	if existing == nil {
		return fmt.Errorf("%w: %d", common.ErrRuleNotFound, rule.ID)
	}

	rule.HitCount = existing.HitCount
	rule.LastHit = existing.LastHit
	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = e.clock()

	if err := e.store.SaveRule(ctx, rule); err != nil {
		return fmt.Errorf("failed to save rule: %w", err)
	}

	return nil
}

// DeleteRule removes a rule permanently.
func (e *Engine) DeleteRule(ctx context.Context, id int64) error {
	existing, err := e.store.GetRule(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to load rule %d: %w", id, err)
	}
	if existing == nil {
		return fmt.Errorf("%w: %d", common.ErrRuleNotFound, id)
	}

	if err := e.store.DeleteRule(ctx, id); err != nil {
		return fmt.Errorf("failed to delete rule %d: %w", id, err)
	}

	slog.Info("Deleted rule", "rule", existing.Name, "id", id)
	return nil
}

// validateRule ensures a rule is well-formed enough to store. Condition
// fields and operators are not rejected here: unrecognized ones simply fail
// closed at evaluation, which keeps deserialized rules from newer versions
// loadable. Categorize targets are checked against the configured category
// set so stored categories stay within it.
func (e *Engine) validateRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule is nil", common.ErrInvalidConfig)
	}
	if rule.Name == "" {
		return fmt.Errorf("%w: rule name is required", common.ErrInvalidConfig)
	}
	if len(rule.Conditions) == 0 {
		return fmt.Errorf("%w: rule needs at least one condition", common.ErrInvalidConfig)
	}
	if len(rule.Actions) == 0 {
		return fmt.Errorf("%w: rule needs at least one action", common.ErrInvalidConfig)
	}
	for _, action := range rule.Actions {
		if action.Type != model.ActionCategorize {
			continue
		}
		if !e.categoryIDs[strings.ToLower(strings.TrimSpace(action.Value))] {
			return fmt.Errorf("%w: unknown category %q", common.ErrInvalidConfig, action.Value)
		}
	}
	return nil
}
