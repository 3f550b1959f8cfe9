package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mailsift/mailsift/internal/model"
)

// SaveRule inserts a new rule or updates an existing one. New rules receive
// their assigned id on return.
func (s *Store) SaveRule(ctx context.Context, rule *model.Rule) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateStoredRule(rule); err != nil {
		return err
	}

	conditions, err := json.Marshal(rule.Conditions)
	if err != nil {
		return fmt.Errorf("failed to encode conditions: %w", err)
	}
	actions, err := json.Marshal(rule.Actions)
	if err != nil {
		return fmt.Errorf("failed to encode actions: %w", err)
	}

	now := time.Now().UTC()
	if rule.ID == 0 {
		if rule.CreatedAt.IsZero() {
			rule.CreatedAt = now
		}
		if rule.UpdatedAt.IsZero() {
			rule.UpdatedAt = now
		}

		result, err := s.db.ExecContext(ctx, `
			INSERT INTO rules (name, conditions, actions, priority, hit_count, last_hit, enabled, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rule.Name, string(conditions), string(actions), rule.Priority,
			rule.HitCount, nullableTime(rule.LastHit), rule.Enabled,
			rule.CreatedAt, rule.UpdatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert rule: %w", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return fmt.Errorf("failed to get rule id: %w", err)
		}
		rule.ID = id
		return nil
	}

	rule.UpdatedAt = now
	_, err = s.db.ExecContext(ctx, `
		UPDATE rules
		SET name = ?, conditions = ?, actions = ?, priority = ?,
			hit_count = ?, last_hit = ?, enabled = ?, updated_at = ?
		WHERE id = ?`,
		rule.Name, string(conditions), string(actions), rule.Priority,
		rule.HitCount, nullableTime(rule.LastHit), rule.Enabled, rule.UpdatedAt,
		rule.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update rule %d: %w", rule.ID, err)
	}
	return nil
}

const ruleColumns = `id, name, conditions, actions, priority, hit_count, last_hit, enabled, created_at, updated_at`

// GetRule returns a single rule by id, or nil when absent.
func (s *Store) GetRule(ctx context.Context, id int64) (*model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+ruleColumns+` FROM rules WHERE id = ?`, id)

	rule, err := scanRule(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return rule, nil
}

// GetRules returns all rules in creation order. The rule engine relies on
// this ordering: equal priorities evaluate in creation order.
func (s *Store) GetRules(ctx context.Context) ([]model.Rule, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+ruleColumns+` FROM rules ORDER BY id ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to query rules: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var rules []model.Rule
	for rows.Next() {
		rule, err := scanRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rules: %w", err)
	}

	return rules, nil
}

// DeleteRule removes a rule permanently.
func (s *Store) DeleteRule(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM rules WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete rule %d: %w", id, err)
	}
	return nil
}

func scanRule(row rowScanner) (*model.Rule, error) {
	var rule model.Rule
	var conditions, actions string
	var lastHit sql.NullTime

	err := row.Scan(
		&rule.ID, &rule.Name, &conditions, &actions, &rule.Priority,
		&rule.HitCount, &lastHit, &rule.Enabled, &rule.CreatedAt, &rule.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan rule: %w", err)
	}

	if err := json.Unmarshal([]byte(conditions), &rule.Conditions); err != nil {
		return nil, fmt.Errorf("failed to decode conditions for rule %d: %w", rule.ID, err)
	}
	if err := json.Unmarshal([]byte(actions), &rule.Actions); err != nil {
		return nil, fmt.Errorf("failed to decode actions for rule %d: %w", rule.ID, err)
	}
	if lastHit.Valid {
		t := lastHit.Time
		rule.LastHit = &t
	}

	// Unknown fields, operators, and action types from newer versions stay
	// as-is; they fail closed at evaluation.
	for i := range rule.Conditions {
		rule.Conditions[i].Field = model.ParseConditionField(string(rule.Conditions[i].Field))
		rule.Conditions[i].Operator = model.ParseConditionOperator(string(rule.Conditions[i].Operator))
	}
	for i := range rule.Actions {
		rule.Actions[i].Type = model.ParseActionType(string(rule.Actions[i].Type))
	}

	return &rule, nil
}

func nullableTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC()
}
