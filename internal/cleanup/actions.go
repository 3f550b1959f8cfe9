package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

// ActionType identifies a bulk cleanup operation.
type ActionType string

// Cleanup action constants.
const (
	ActionArchive     ActionType = "archive"
	ActionDelete      ActionType = "delete"
	ActionMarkRead    ActionType = "mark_read"
	ActionUnsubscribe ActionType = "unsubscribe"
)

// Action is a bulk operation over a set of message ids, typically taken
// from a CleanupSuggestion.
type Action struct {
	Type     ActionType `json:"type"`
	EmailIDs []string   `json:"email_ids"`
}

// ActionReport aggregates the outcome of a bulk operation. Per-item
// failures are counted, not fatal: the operation legitimately succeeds for
// some ids and fails for others.
type ActionReport struct {
	Affected int `json:"affected"`
	Failed   int `json:"failed"`
}

// ExecuteAction dispatches a bulk cleanup operation. archive and delete
// iterate per message through the provider gateway; mark_read batches
// through the store; unsubscribe delegates to BulkUnsubscribe.
func (e *Engine) ExecuteAction(ctx context.Context, action Action) (*ActionReport, error) {
	switch action.Type {
	case ActionArchive:
		return e.forEachMessage(ctx, action.EmailIDs, e.gateway.Archive)
	case ActionDelete:
		return e.forEachMessage(ctx, action.EmailIDs, e.gateway.Delete)
	case ActionMarkRead:
		if err := e.store.MarkRead(ctx, action.EmailIDs, true); err != nil {
			return &ActionReport{Failed: len(action.EmailIDs)}, fmt.Errorf("failed to mark read: %w", err)
		}
		return &ActionReport{Affected: len(action.EmailIDs)}, nil
	case ActionUnsubscribe:
		result, err := e.BulkUnsubscribe(ctx, action.EmailIDs)
		if result == nil {
			return nil, err
		}
		return &ActionReport{Affected: result.Processed, Failed: result.Skipped}, err
	default:
		return nil, fmt.Errorf("unsupported cleanup action: %s", action.Type)
	}
}

// forEachMessage applies a provider call per message, looking up each
// message's owning account first. Individual failures are logged and
// counted; they never abort the batch.
func (e *Engine) forEachMessage(ctx context.Context, ids []string, call func(ctx context.Context, accountID, messageID string) error) (*ActionReport, error) {
	report := &ActionReport{}

	for _, id := range ids {
		select {
		case <-ctx.Done():
			// Cancelled batches are partially applied; nothing is rolled back.
			return report, ctx.Err()
		default:
		}

		msg, err := e.store.GetMessage(ctx, id)
		if err != nil || msg == nil {
			report.Failed++
			slog.Warn("Skipping unknown message", "message_id", id, "error", err)
			continue
		}

		if err := e.callProvider(ctx, func(ctx context.Context) error {
			return call(ctx, msg.AccountID, msg.ID)
		}); err != nil {
			report.Failed++
			slog.Error("Cleanup action failed", "message_id", id, "error", err)
			continue
		}
		report.Affected++
	}

	return report, nil
}

// BulkUnsubscribe opens the unsubscribe link of each message that has one.
// Messages without a link are skipped; Processed + Skipped always equals
// the number of requested ids. A fixed delay spaces out invocations so the
// external handler is not overwhelmed.
func (e *Engine) BulkUnsubscribe(ctx context.Context, ids []string) (*model.UnsubscribeResult, error) {
	result := &model.UnsubscribeResult{}

	for i, id := range ids {
		msg, err := e.store.GetMessage(ctx, id)
		if err != nil || msg == nil || !msg.HasUnsubscribeLink() {
			result.Skipped++
			continue
		}

		if err := e.callProvider(ctx, func(ctx context.Context) error {
			return e.gateway.OpenExternalLink(ctx, msg.UnsubscribeURL)
		}); err != nil {
			slog.Error("Failed to open unsubscribe link",
				"message_id", id,
				"url", msg.UnsubscribeURL,
				"error", err)
		}
		result.Processed++
		result.Links = append(result.Links, msg.UnsubscribeURL)

		if i < len(ids)-1 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(e.config.UnsubscribeDelay):
			}
		}
	}

	return result, nil
}

// callProvider wraps a provider call with a timeout and transient-failure
// retry.
func (e *Engine) callProvider(ctx context.Context, call func(context.Context) error) error {
	return common.WithRetry(ctx, func() error {
		callCtx, cancel := context.WithTimeout(ctx, e.config.ProviderTimeout)
		defer cancel()
		return call(callCtx)
	}, service.RetryOptions{MaxAttempts: 3})
}
