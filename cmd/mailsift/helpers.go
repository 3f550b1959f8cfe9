package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/viper"

	"github.com/mailsift/mailsift/internal/classifier"
	"github.com/mailsift/mailsift/internal/config"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/storage"
)

const defaultDBPath = "~/.local/share/mailsift/mailsift.db"

// openStore opens the configured SQLite store and brings its schema up to
// date. Migration is idempotent, so running it on every open is safe.
func openStore() (*storage.Store, error) {
	path := viper.GetString("database.path")
	if path == "" {
		path = defaultDBPath
	}

	store, err := storage.New(config.ExpandPath(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	if err := store.Migrate(context.Background()); err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to migrate store: %w", err)
	}
	return store, nil
}

// categoryDefinitions loads category definitions from the config, falling
// back to the compiled-in defaults.
func categoryDefinitions() ([]model.CategoryDefinition, error) {
	defs, err := config.CategoryDefinitions()
	if err != nil {
		return nil, err
	}
	if len(defs) == 0 {
		defs = classifier.DefaultCategories()
	}
	return defs, nil
}

// newClassifier builds a classifier from the configured category definitions.
func newClassifier() (*classifier.Classifier, error) {
	defs, err := categoryDefinitions()
	if err != nil {
		return nil, err
	}
	return classifier.New(defs), nil
}

// parseConditionFlag parses a repeatable "field:operator:value" flag.
func parseConditionFlag(raw string) (model.Condition, error) {
	parts := strings.SplitN(raw, ":", 3)
	if len(parts) != 3 {
		return model.Condition{}, fmt.Errorf("condition %q must be field:operator:value", raw)
	}

	field := model.ParseConditionField(parts[0])
	if field == model.FieldUnknown {
		return model.Condition{}, fmt.Errorf("unknown condition field %q", parts[0])
	}
	op := model.ParseConditionOperator(parts[1])
	if op == model.OpUnknown {
		return model.Condition{}, fmt.Errorf("unknown condition operator %q", parts[1])
	}

	return model.Condition{Field: field, Operator: op, Value: parts[2]}, nil
}

// parseActionFlag parses a repeatable "type" or "type:value" flag.
func parseActionFlag(raw string) (model.Action, error) {
	parts := strings.SplitN(raw, ":", 2)

	actionType := model.ParseActionType(parts[0])
	if actionType == model.ActionUnknown {
		return model.Action{}, fmt.Errorf("unknown action type %q", parts[0])
	}

	action := model.Action{Type: actionType}
	if len(parts) == 2 {
		action.Value = parts[1]
	}
	return action, nil
}
