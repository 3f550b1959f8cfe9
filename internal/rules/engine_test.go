package rules

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/testutil"
)

func newTestEngine(t *testing.T) (*Engine, *testutil.MemoryStore, *testutil.RecordingGateway) {
	t.Helper()
	store := testutil.NewMemoryStore()
	gateway := testutil.NewRecordingGateway()
	engine := NewWithConfig(store, gateway, Config{
		Clock:           func() time.Time { return time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC) },
		ProviderTimeout: time.Second,
	})
	return engine, store, gateway
}

func bankRule(name string, priority int) *model.Rule {
	return &model.Rule{
		Name:     name,
		Priority: priority,
		Enabled:  true,
		Conditions: []model.Condition{
			{Field: model.FieldFrom, Operator: model.OpContains, Value: "@bank.com"},
		},
		Actions: []model.Action{
			{Type: model.ActionCategorize, Value: "financial"},
		},
	}
}

func TestApplyToMessage(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	rule := bankRule("file bank mail", 0)
	require.NoError(t, engine.CreateRule(ctx, rule))
	store.AddMessages(model.Message{
		ID:          "m1",
		FromAddress: "alerts@bank.com",
		Subject:     "Statement ready",
	})

	msg, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)

	results, err := engine.ApplyToMessage(ctx, *msg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Succeeded())
	assert.Equal(t, rule.ID, results[0].RuleID)

	// The categorize action lands in the store.
	updated, err := store.GetMessage(ctx, "m1")
	require.NoError(t, err)
	assert.Equal(t, "financial", updated.Category)

	// The hit is recorded once.
	stored, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.HitCount)
	require.NotNil(t, stored.LastHit)
	assert.Equal(t, time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC), *stored.LastHit)
}

func TestApplyToMessagePriorityOrder(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	low := bankRule("low", 1)
	high := bankRule("high", 5)
	require.NoError(t, engine.CreateRule(ctx, low))
	require.NoError(t, engine.CreateRule(ctx, high))

	msg := model.Message{ID: "m1", FromAddress: "a@bank.com"}
	store.AddMessages(msg)

	results, err := engine.ApplyToMessage(ctx, msg)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "high", results[0].RuleName)
	assert.Equal(t, "low", results[1].RuleName)
}

func TestApplyToMessageEqualPriorityKeepsCreationOrder(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	first := bankRule("first", 3)
	second := bankRule("second", 3)
	require.NoError(t, engine.CreateRule(ctx, first))
	require.NoError(t, engine.CreateRule(ctx, second))

	msg := model.Message{ID: "m1", FromAddress: "a@bank.com"}
	store.AddMessages(msg)

	results, err := engine.ApplyToMessage(ctx, msg)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "first", results[0].RuleName)
	assert.Equal(t, "second", results[1].RuleName)
}

func TestApplyToMessageSkipsDisabledRules(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	rule := bankRule("disabled", 0)
	rule.Enabled = false
	require.NoError(t, engine.CreateRule(ctx, rule))

	msg := model.Message{ID: "m1", FromAddress: "a@bank.com"}
	store.AddMessages(msg)

	results, err := engine.ApplyToMessage(ctx, msg)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestApplyToMessageFailedActionDoesNotStopOthers(t *testing.T) {
	ctx := context.Background()
	engine, store, gateway := newTestEngine(t)

	rule := &model.Rule{
		Name:    "archive and file",
		Enabled: true,
		Conditions: []model.Condition{
			{Field: model.FieldFrom, Operator: model.OpContains, Value: "@bank.com"},
		},
		Actions: []model.Action{
			{Type: model.ActionArchive},
			{Type: model.ActionCategorize, Value: "financial"},
		},
	}
	require.NoError(t, engine.CreateRule(ctx, rule))
	gateway.FailOn("archive")

	msg := model.Message{ID: "m1", FromAddress: "a@bank.com"}
	store.AddMessages(msg)

	results, err := engine.ApplyToMessage(ctx, msg)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Error(t, results[0].Err)
	assert.NoError(t, results[1].Err)

	succeeded, failed := CountResults(results)
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, failed)
}

func TestApplyToMessageSnapshotIsStable(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	// Rule 1 categorizes; rule 2 matches on the category the message had
	// when the pass started, not the one rule 1 just wrote.
	categorize := bankRule("categorize", 2)
	require.NoError(t, engine.CreateRule(ctx, categorize))

	followUp := &model.Rule{
		Name:     "follow up",
		Priority: 1,
		Enabled:  true,
		Conditions: []model.Condition{
			{Field: model.FieldCategory, Operator: model.OpEquals, Value: "financial"},
		},
		Actions: []model.Action{{Type: model.ActionMarkRead}},
	}
	require.NoError(t, engine.CreateRule(ctx, followUp))

	msg := model.Message{ID: "m1", FromAddress: "a@bank.com", Category: model.CategoryUncategorized}
	store.AddMessages(msg)

	results, err := engine.ApplyToMessage(ctx, msg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "categorize", results[0].RuleName)
}

func TestTestRule(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	rule := bankRule("dry run", 0)
	require.NoError(t, engine.CreateRule(ctx, rule))

	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 15; i++ {
		store.AddMessages(model.Message{
			ID:          string(rune('a' + i)),
			FromAddress: "alerts@bank.com",
			Date:        now.Add(time.Duration(i) * time.Hour),
		})
	}
	store.AddMessages(model.Message{ID: "other", FromAddress: "x@other.example", Date: now})

	result, err := engine.TestRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 15, result.Total)
	assert.Len(t, result.Matches, 10)

	// Dry runs never touch the hit count.
	stored, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.HitCount)
}

func TestTestRuleNotFound(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.TestRule(context.Background(), 999)
	assert.ErrorIs(t, err, common.ErrRuleNotFound)
}

func TestCreateRuleValidation(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	cond := model.Condition{Field: model.FieldFrom, Operator: model.OpContains, Value: "x"}
	action := model.Action{Type: model.ActionArchive}

	tests := []struct {
		name string
		rule *model.Rule
	}{
		{name: "nil rule", rule: nil},
		{name: "missing name", rule: &model.Rule{Conditions: []model.Condition{cond}, Actions: []model.Action{action}}},
		{name: "no conditions", rule: &model.Rule{Name: "r", Actions: []model.Action{action}}},
		{name: "no actions", rule: &model.Rule{Name: "r", Conditions: []model.Condition{cond}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, engine.CreateRule(ctx, tt.rule), common.ErrInvalidConfig)
		})
	}
}

func TestCreateRuleCategorizeValidation(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name  string
		value string
		ok    bool
	}{
		{name: "known id", value: "financial", ok: true},
		{name: "mixed case", value: "Financial", ok: true},
		{name: "uncategorized sentinel", value: model.CategoryUncategorized, ok: true},
		{name: "unknown id", value: "nonsense", ok: false},
		{name: "empty value", value: "", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, _, _ := newTestEngine(t)
			rule := bankRule(tt.name, 0)
			rule.Actions = []model.Action{{Type: model.ActionCategorize, Value: tt.value}}

			err := engine.CreateRule(ctx, rule)
			if tt.ok {
				require.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, common.ErrInvalidConfig)
			}
		})
	}
}

func TestCreateRuleCustomCategorySet(t *testing.T) {
	ctx := context.Background()
	engine := NewWithConfig(testutil.NewMemoryStore(), testutil.NewRecordingGateway(), Config{
		Categories: []model.CategoryDefinition{{ID: "receipts", Name: "Receipts"}},
	})

	rule := bankRule("file receipts", 0)
	rule.Actions = []model.Action{{Type: model.ActionCategorize, Value: "receipts"}}
	require.NoError(t, engine.CreateRule(ctx, rule))

	// Configured definitions replace the defaults, not extend them.
	other := bankRule("default id", 0)
	other.Actions = []model.Action{{Type: model.ActionCategorize, Value: "financial"}}
	assert.ErrorIs(t, engine.CreateRule(ctx, other), common.ErrInvalidConfig)
}

func TestUpdateRulePreservesHitCount(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	rule := bankRule("original", 0)
	require.NoError(t, engine.CreateRule(ctx, rule))

	msg := model.Message{ID: "m1", FromAddress: "a@bank.com"}
	store.AddMessages(msg)
	_, err := engine.ApplyToMessage(ctx, msg)
	require.NoError(t, err)

	update := bankRule("renamed", 7)
	update.ID = rule.ID
	update.HitCount = 99 // caller-supplied counts are ignored
	require.NoError(t, engine.UpdateRule(ctx, update))

	stored, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "renamed", stored.Name)
	assert.Equal(t, 7, stored.Priority)
	assert.Equal(t, 1, stored.HitCount)
}

func TestUpdateRuleNotFound(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	rule := bankRule("ghost", 0)
	rule.ID = 404
	assert.ErrorIs(t, engine.UpdateRule(context.Background(), rule), common.ErrRuleNotFound)
}

func TestDeleteRule(t *testing.T) {
	ctx := context.Background()
	engine, store, _ := newTestEngine(t)

	rule := bankRule("doomed", 0)
	require.NoError(t, engine.CreateRule(ctx, rule))
	require.NoError(t, engine.DeleteRule(ctx, rule.ID))

	stored, err := store.GetRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Nil(t, stored)

	assert.ErrorIs(t, engine.DeleteRule(ctx, rule.ID), common.ErrRuleNotFound)
}
