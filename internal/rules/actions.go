package rules

import (
	"context"
	"log/slog"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

// ActionResult records the outcome of one executed action. Execution is
// best-effort, not atomic: a batch reports per-action results instead of
// failing as a whole.
type ActionResult struct {
	Err      error
	RuleName string
	Action   model.Action
	RuleID   int64
}

// Succeeded reports whether the action completed without error.
func (r ActionResult) Succeeded() bool {
	return r.Err == nil
}

// CountResults splits results into succeeded and failed counts.
func CountResults(results []ActionResult) (succeeded, failed int) {
	for _, r := range results {
		if r.Succeeded() {
			succeeded++
		} else {
			failed++
		}
	}
	return succeeded, failed
}

// executeAction dispatches a single action. Provider-facing actions run
// under a per-call timeout with retry on transient failures; the message
// snapshot itself is never mutated, so later rules in the same pass evaluate
// against the state the pass started with.
func (e *Engine) executeAction(ctx context.Context, action model.Action, msg model.Message) error {
	switch action.Type {
	case model.ActionMove:
		return e.callProvider(ctx, func(ctx context.Context) error {
			return e.gateway.Move(ctx, msg.AccountID, msg.ID, action.Value)
		})
	case model.ActionArchive:
		return e.callProvider(ctx, func(ctx context.Context) error {
			return e.gateway.Archive(ctx, msg.AccountID, msg.ID)
		})
	case model.ActionDelete:
		return e.callProvider(ctx, func(ctx context.Context) error {
			return e.gateway.Delete(ctx, msg.AccountID, msg.ID)
		})
	case model.ActionMarkRead:
		return e.store.MarkRead(ctx, []string{msg.ID}, true)
	case model.ActionMarkUnread:
		return e.store.MarkRead(ctx, []string{msg.ID}, false)
	case model.ActionCategorize:
		return e.store.UpdateCategory(ctx, msg.ID, action.Value)
	case model.ActionLabel:
		// Declared but not implemented; providers expose no portable label API.
		slog.Debug("Label action is a no-op", "message_id", msg.ID, "label", action.Value)
		return nil
	case model.ActionUnknown:
		return nil
	default:
		return nil
	}
}

// callProvider wraps a provider call with a timeout and transient-failure
// retry. Cancellation leaves the batch partially applied; already-issued
// actions are not rolled back.
func (e *Engine) callProvider(ctx context.Context, call func(context.Context) error) error {
	return common.WithRetry(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, e.config.ProviderTimeout)
		defer cancel()
		return call(callCtx)
	}, service.RetryOptions{MaxAttempts: 3})
}
