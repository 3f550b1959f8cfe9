package model

import (
	"time"
)

// ConditionField identifies the message attribute a condition tests.
type ConditionField string

// Condition field constants.
const (
	FieldFrom          ConditionField = "from"
	FieldTo            ConditionField = "to"
	FieldSubject       ConditionField = "subject"
	FieldBody          ConditionField = "body"
	FieldCategory      ConditionField = "category"
	FieldDate          ConditionField = "date"
	FieldHasAttachment ConditionField = "hasAttachment"
	FieldSize          ConditionField = "size"
	FieldUnknown       ConditionField = ""
)

// ParseConditionField maps a stored field name to its typed constant.
// Unrecognized names map to FieldUnknown, which fails closed at evaluation.
func ParseConditionField(s string) ConditionField {
	switch ConditionField(s) {
	case FieldFrom, FieldTo, FieldSubject, FieldBody, FieldCategory,
		FieldDate, FieldHasAttachment, FieldSize:
		return ConditionField(s)
	default:
		return FieldUnknown
	}
}

// ConditionOperator identifies the comparison a condition performs.
type ConditionOperator string

// Condition operator constants.
const (
	OpContains    ConditionOperator = "contains"
	OpStartsWith  ConditionOperator = "startsWith"
	OpEndsWith    ConditionOperator = "endsWith"
	OpEquals      ConditionOperator = "equals"
	OpRegex       ConditionOperator = "regex"
	OpBefore      ConditionOperator = "before"
	OpAfter       ConditionOperator = "after"
	OpGreaterThan ConditionOperator = "greaterThan"
	OpLessThan    ConditionOperator = "lessThan"
	OpUnknown     ConditionOperator = ""
)

// ParseConditionOperator maps a stored operator name to its typed constant.
// Unrecognized names map to OpUnknown, which fails closed at evaluation.
func ParseConditionOperator(s string) ConditionOperator {
	switch ConditionOperator(s) {
	case OpContains, OpStartsWith, OpEndsWith, OpEquals, OpRegex,
		OpBefore, OpAfter, OpGreaterThan, OpLessThan:
		return ConditionOperator(s)
	default:
		return OpUnknown
	}
}

// Condition is a single (field, operator, value) test against one message
// attribute. A rule's conditions combine with AND semantics.
type Condition struct {
	Field    ConditionField    `json:"field"`
	Operator ConditionOperator `json:"operator"`
	Value    string            `json:"value"`
}

// ActionType identifies the side effect an action requests.
type ActionType string

// Action type constants.
const (
	ActionMove       ActionType = "move"
	ActionArchive    ActionType = "archive"
	ActionDelete     ActionType = "delete"
	ActionMarkRead   ActionType = "markRead"
	ActionMarkUnread ActionType = "markUnread"
	ActionCategorize ActionType = "categorize"
	ActionLabel      ActionType = "label"
	ActionUnknown    ActionType = ""
)

// ParseActionType maps a stored action name to its typed constant.
// Unrecognized names map to ActionUnknown, which executes as a no-op.
func ParseActionType(s string) ActionType {
	switch ActionType(s) {
	case ActionMove, ActionArchive, ActionDelete, ActionMarkRead,
		ActionMarkUnread, ActionCategorize, ActionLabel:
		return ActionType(s)
	default:
		return ActionUnknown
	}
}

// Action is a single side effect a rule requests when it matches,
// with an optional value (folder name, category, label).
type Action struct {
	Type  ActionType `json:"type"`
	Value string     `json:"value,omitempty"`
}

// Rule is a named, prioritized set of AND-combined conditions plus an
// ordered list of actions. HitCount is monotonically non-decreasing and is
// only incremented by the rule engine, once per message per matching
// evaluation.
type Rule struct {
	CreatedAt  time.Time   `json:"created_at"`
	UpdatedAt  time.Time   `json:"updated_at"`
	LastHit    *time.Time  `json:"last_hit,omitempty"`
	Name       string      `json:"name"`
	Conditions []Condition `json:"conditions"`
	Actions    []Action    `json:"actions"`
	ID         int64       `json:"id"`
	Priority   int         `json:"priority"`
	HitCount   int         `json:"hit_count"`
	Enabled    bool        `json:"enabled"`
}

// RuleSuggestion is a proposed, unsaved rule mined from message history.
// Suggestions are ephemeral and regenerated on each request.
type RuleSuggestion struct {
	ID         string    `json:"id"`
	Reason     string    `json:"reason"`
	Rule       Rule      `json:"rule"`
	Samples    []Message `json:"samples,omitempty"`
	Confidence float64   `json:"confidence"`
}
