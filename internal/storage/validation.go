package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mailsift/mailsift/internal/model"
)

// Validation errors.
var (
	ErrNilContext    = errors.New("context cannot be nil")
	ErrEmptyString   = errors.New("string parameter cannot be empty")
	ErrNilParameter  = errors.New("parameter cannot be nil")
	ErrEmptySlice    = errors.New("slice cannot be empty")
	ErrInvalidRule   = errors.New("invalid rule")
	ErrInvalidRange  = errors.New("invalid importance: must be between 0 and 1")
	ErrInvalidFilter = errors.New("invalid message filter")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateMessages validates a slice of messages.
func validateMessages(msgs []model.Message) error {
	if msgs == nil {
		return fmt.Errorf("%w: messages", ErrNilParameter)
	}
	if len(msgs) == 0 {
		return fmt.Errorf("%w: messages", ErrEmptySlice)
	}
	for i := range msgs {
		if err := validateMessage(&msgs[i]); err != nil {
			return fmt.Errorf("message at index %d: %w", i, err)
		}
	}
	return nil
}

// validateMessage validates a single message.
func validateMessage(msg *model.Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message", ErrNilParameter)
	}
	if msg.ID == "" {
		return fmt.Errorf("%w: missing ID", ErrNilParameter)
	}
	if msg.AccountID == "" {
		return fmt.Errorf("%w: missing account ID", ErrNilParameter)
	}
	if msg.Date.IsZero() {
		return fmt.Errorf("%w: missing date", ErrNilParameter)
	}
	return nil
}

// validateStoredRule validates a rule before persistence.
func validateStoredRule(rule *model.Rule) error {
	if rule == nil {
		return fmt.Errorf("%w: rule", ErrNilParameter)
	}
	if strings.TrimSpace(rule.Name) == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRule)
	}
	return nil
}
