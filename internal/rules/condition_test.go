package rules

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/mailsift/mailsift/internal/model"
)

func TestConditionMatches(t *testing.T) {
	date := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	msg := model.Message{
		ID:          "m1",
		FromAddress: "Alerts@Bank.com",
		To:          []string{"me@home.example"},
		Subject:     "Your March Statement",
		Snippet:     "Balance: $1,204.33",
		Category:    "financial",
		Date:        date,
		Size:        2048,
		Attachments: []model.Attachment{{ID: "a1", Size: 100}},
	}

	tests := []struct {
		name string
		cond model.Condition
		want bool
	}{
		{
			name: "from contains is case insensitive",
			cond: model.Condition{Field: model.FieldFrom, Operator: model.OpContains, Value: "@BANK.com"},
			want: true,
		},
		{
			name: "from startsWith",
			cond: model.Condition{Field: model.FieldFrom, Operator: model.OpStartsWith, Value: "alerts"},
			want: true,
		},
		{
			name: "from endsWith",
			cond: model.Condition{Field: model.FieldFrom, Operator: model.OpEndsWith, Value: ".com"},
			want: true,
		},
		{
			name: "subject equals requires full match",
			cond: model.Condition{Field: model.FieldSubject, Operator: model.OpEquals, Value: "your march statement"},
			want: true,
		},
		{
			name: "subject equals rejects partial",
			cond: model.Condition{Field: model.FieldSubject, Operator: model.OpEquals, Value: "march"},
			want: false,
		},
		{
			name: "to joins recipients",
			cond: model.Condition{Field: model.FieldTo, Operator: model.OpContains, Value: "me@home"},
			want: true,
		},
		{
			name: "body falls back to snippet",
			cond: model.Condition{Field: model.FieldBody, Operator: model.OpContains, Value: "balance"},
			want: true,
		},
		{
			name: "category equals",
			cond: model.Condition{Field: model.FieldCategory, Operator: model.OpEquals, Value: "Financial"},
			want: true,
		},
		{
			name: "subject regex",
			cond: model.Condition{Field: model.FieldSubject, Operator: model.OpRegex, Value: `march\s+statement`},
			want: true,
		},
		{
			name: "malformed regex never matches",
			cond: model.Condition{Field: model.FieldSubject, Operator: model.OpRegex, Value: `[unclosed`},
			want: false,
		},
		{
			name: "date before with bare date",
			cond: model.Condition{Field: model.FieldDate, Operator: model.OpBefore, Value: "2026-04-01"},
			want: true,
		},
		{
			name: "date after with RFC3339",
			cond: model.Condition{Field: model.FieldDate, Operator: model.OpAfter, Value: "2026-01-01T00:00:00Z"},
			want: true,
		},
		{
			name: "date before rejects earlier target",
			cond: model.Condition{Field: model.FieldDate, Operator: model.OpBefore, Value: "2026-01-01"},
			want: false,
		},
		{
			name: "size greaterThan",
			cond: model.Condition{Field: model.FieldSize, Operator: model.OpGreaterThan, Value: "1024"},
			want: true,
		},
		{
			name: "size lessThan",
			cond: model.Condition{Field: model.FieldSize, Operator: model.OpLessThan, Value: "1024"},
			want: false,
		},
		{
			name: "size with non-numeric target fails closed",
			cond: model.Condition{Field: model.FieldSize, Operator: model.OpGreaterThan, Value: "big"},
			want: false,
		},
		{
			name: "hasAttachment equals true",
			cond: model.Condition{Field: model.FieldHasAttachment, Operator: model.OpEquals, Value: "true"},
			want: true,
		},
		{
			name: "hasAttachment equals false",
			cond: model.Condition{Field: model.FieldHasAttachment, Operator: model.OpEquals, Value: "false"},
			want: false,
		},
		{
			name: "hasAttachment with garbage value fails closed",
			cond: model.Condition{Field: model.FieldHasAttachment, Operator: model.OpEquals, Value: "maybe"},
			want: false,
		},
		{
			name: "numeric operator on text field fails closed",
			cond: model.Condition{Field: model.FieldSubject, Operator: model.OpGreaterThan, Value: "5"},
			want: false,
		},
		{
			name: "unknown field fails closed",
			cond: model.Condition{Field: model.ConditionField("header"), Operator: model.OpContains, Value: "x"},
			want: false,
		},
		{
			name: "unknown operator fails closed",
			cond: model.Condition{Field: model.FieldFrom, Operator: model.ConditionOperator("matches"), Value: "x"},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, conditionMatches(tt.cond, msg))
		})
	}
}

func TestRuleMatches(t *testing.T) {
	msg := model.Message{
		ID:          "m1",
		FromAddress: "news@shop.example",
		Subject:     "Weekly deals",
	}

	t.Run("all conditions must hold", func(t *testing.T) {
		rule := model.Rule{
			Conditions: []model.Condition{
				{Field: model.FieldFrom, Operator: model.OpContains, Value: "@shop.example"},
				{Field: model.FieldSubject, Operator: model.OpContains, Value: "deals"},
			},
		}
		assert.True(t, ruleMatches(rule, msg))

		rule.Conditions[1].Value = "invoice"
		assert.False(t, ruleMatches(rule, msg))
	})

	t.Run("no conditions never matches", func(t *testing.T) {
		assert.False(t, ruleMatches(model.Rule{}, msg))
	})
}

func TestParseConditionTime(t *testing.T) {
	if _, ok := parseConditionTime("2026-03-15T10:00:00Z"); !ok {
		t.Fatal("expected RFC3339 to parse")
	}
	if _, ok := parseConditionTime("2026-03-15"); !ok {
		t.Fatal("expected bare date to parse")
	}
	if _, ok := parseConditionTime("last tuesday"); ok {
		t.Fatal("expected free text to be rejected")
	}
}
