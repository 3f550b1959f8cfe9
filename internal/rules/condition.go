// Package rules matches user-authored automation rules against messages,
// executes matched actions, and mines message history for rule suggestions.
package rules

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/mailsift/mailsift/internal/model"
)

// ruleMatches reports whether every condition of the rule matches the
// message. Conditions combine with AND semantics; a rule with no conditions
// never matches.
func ruleMatches(rule model.Rule, msg model.Message) bool {
	if len(rule.Conditions) == 0 {
		return false
	}
	for _, cond := range rule.Conditions {
		if !conditionMatches(cond, msg) {
			return false
		}
	}
	return true
}

// conditionMatches evaluates a single condition against a message.
// Unknown fields and operators fail closed; malformed regex patterns are
// treated as "does not match" and never surface an error.
func conditionMatches(cond model.Condition, msg model.Message) bool {
	switch cond.Field {
	case model.FieldFrom, model.FieldTo, model.FieldSubject,
		model.FieldBody, model.FieldCategory:
		return stringConditionMatches(cond, stringFieldValue(cond.Field, msg))
	case model.FieldDate:
		return dateConditionMatches(cond, msg.Date)
	case model.FieldHasAttachment:
		return boolConditionMatches(cond, msg.HasAttachments())
	case model.FieldSize:
		return numericConditionMatches(cond, float64(msg.Size))
	case model.FieldUnknown:
		return false
	default:
		return false
	}
}

// stringFieldValue extracts the lower-cased text a string condition tests.
func stringFieldValue(field model.ConditionField, msg model.Message) string {
	switch field {
	case model.FieldFrom:
		return strings.ToLower(msg.FromAddress)
	case model.FieldTo:
		return strings.ToLower(strings.Join(msg.To, " "))
	case model.FieldSubject:
		return strings.ToLower(msg.Subject)
	case model.FieldBody:
		if msg.Body != "" {
			return strings.ToLower(msg.Body)
		}
		return strings.ToLower(msg.Snippet)
	case model.FieldCategory:
		return strings.ToLower(msg.Category)
	default:
		return ""
	}
}

func stringConditionMatches(cond model.Condition, value string) bool {
	target := strings.ToLower(cond.Value)

	switch cond.Operator {
	case model.OpContains:
		return strings.Contains(value, target)
	case model.OpStartsWith:
		return strings.HasPrefix(value, target)
	case model.OpEndsWith:
		return strings.HasSuffix(value, target)
	case model.OpEquals:
		return value == target
	case model.OpRegex:
		return regexMatches(cond.Value, value)
	case model.OpGreaterThan, model.OpLessThan:
		// Coerce the field to a number; non-numeric fields never satisfy
		// numeric operators.
		f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
		if err != nil {
			return false
		}
		return numericConditionMatches(cond, f)
	default:
		return false
	}
}

// regexMatches compiles the raw condition value case-insensitively and
// matches it against the field string. A malformed pattern never matches.
func regexMatches(pattern, value string) bool {
	if !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return false
	}
	return re.MatchString(value)
}

// dateConditionMatches compares the message date against the condition
// value. Values that parse as RFC 3339 or as a plain date compare as real
// timestamps; anything else falls back to a lexicographic comparison of the
// zero-padded ISO-8601 rendering, which preserves ordering for that format.
func dateConditionMatches(cond model.Condition, date time.Time) bool {
	switch cond.Operator {
	case model.OpBefore, model.OpAfter:
	case model.OpEquals:
		return date.UTC().Format(time.RFC3339) == cond.Value
	default:
		return false
	}

	if target, ok := parseConditionTime(cond.Value); ok {
		if cond.Operator == model.OpBefore {
			return date.Before(target)
		}
		return date.After(target)
	}

	rendered := date.UTC().Format(time.RFC3339)
	if cond.Operator == model.OpBefore {
		return rendered < cond.Value
	}
	return rendered > cond.Value
}

// parseConditionTime accepts RFC 3339 timestamps and bare dates.
func parseConditionTime(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, true
	}
	return time.Time{}, false
}

func boolConditionMatches(cond model.Condition, value bool) bool {
	if cond.Operator != model.OpEquals {
		return false
	}
	target, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(cond.Value)))
	if err != nil {
		return false
	}
	return value == target
}

func numericConditionMatches(cond model.Condition, value float64) bool {
	target, err := strconv.ParseFloat(strings.TrimSpace(cond.Value), 64)
	if err != nil {
		return false
	}

	switch cond.Operator {
	case model.OpGreaterThan:
		return value > target
	case model.OpLessThan:
		return value < target
	case model.OpEquals:
		return value == target
	default:
		return false
	}
}
