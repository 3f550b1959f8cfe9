package cleanup

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

const (
	// spamVolumeMin is the marketing message count above which a bulk
	// cleanup suggestion is generated.
	spamVolumeMin = 50
	// oldTransactionalDays is the age threshold for shopping mail.
	oldTransactionalDays = 365
)

// GetSuggestions composes the corpus scans into ranked cleanup suggestions.
// Ordering is high before medium before low; ties preserve generation
// order. Suggestions are ephemeral and recomputed from a fresh snapshot on
// each call.
func (e *Engine) GetSuggestions(ctx context.Context, accountID string) ([]model.CleanupSuggestion, error) {
	msgs, err := e.store.GetMessages(ctx, service.MessageFilter{AccountID: accountID})
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	var suggestions []model.CleanupSuggestion
	if s := e.duplicateSuggestion(msgs); s != nil {
		suggestions = append(suggestions, *s)
	}
	suggestions = append(suggestions, e.inactiveSubscriptionSuggestions(msgs)...)
	if s := e.largeAttachmentSuggestion(msgs); s != nil {
		suggestions = append(suggestions, *s)
	}
	if s := e.spamSuggestion(msgs); s != nil {
		suggestions = append(suggestions, *s)
	}
	if s := e.oldTransactionalSuggestion(msgs); s != nil {
		suggestions = append(suggestions, *s)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Priority.Rank() < suggestions[j].Priority.Rank()
	})

	return suggestions, nil
}

// duplicateSuggestion aggregates all removal candidates (everything but the
// canonical newest member of each group).
func (e *Engine) duplicateSuggestion(msgs []model.Message) *model.CleanupSuggestion {
	groups := e.FindDuplicates(msgs)
	if len(groups) == 0 {
		return nil
	}

	var ids []string
	var bytes int64
	for _, group := range groups {
		for _, msg := range group.Messages[1:] {
			ids = append(ids, msg.ID)
			bytes += msg.Size
		}
	}

	return &model.CleanupSuggestion{
		ID:    uuid.NewString(),
		Type:  model.CleanupDuplicate,
		Title: fmt.Sprintf("Remove %d duplicate messages", len(ids)),
		Description: fmt.Sprintf("%d groups of duplicate messages were found; the newest copy of each is kept",
			len(groups)),
		EmailIDs:       ids,
		EstimatedBytes: bytes,
		Priority:       model.PriorityHigh,
	}
}

// inactiveSubscriptionSuggestions proposes unsubscribing from each dormant
// marketing domain.
func (e *Engine) inactiveSubscriptionSuggestions(msgs []model.Message) []model.CleanupSuggestion {
	var suggestions []model.CleanupSuggestion
	for _, newest := range e.FindInactiveSubscriptions(msgs) {
		domain := newest.SenderDomain()

		var ids []string
		for _, msg := range msgs {
			if msg.Category == "marketing" && msg.SenderDomain() == domain {
				ids = append(ids, msg.ID)
			}
		}

		suggestions = append(suggestions, model.CleanupSuggestion{
			ID:    uuid.NewString(),
			Type:  model.CleanupInactiveSubscription,
			Title: fmt.Sprintf("Unsubscribe from %s", domain),
			Description: fmt.Sprintf("All %d messages from %s are unread and the newest is over %d days old",
				len(ids), domain, inactiveAfterDays),
			EmailIDs: ids,
			Priority: model.PriorityMedium,
		})
	}
	return suggestions
}

// largeAttachmentSuggestion aggregates messages with oversized attachments.
func (e *Engine) largeAttachmentSuggestion(msgs []model.Message) *model.CleanupSuggestion {
	large := e.FindLargeAttachments(0, msgs)
	if len(large) == 0 {
		return nil
	}

	var ids []string
	var bytes int64
	for _, msg := range large {
		ids = append(ids, msg.ID)
		bytes += msg.AttachmentBytes()
	}

	return &model.CleanupSuggestion{
		ID:    uuid.NewString(),
		Type:  model.CleanupLargeAttachment,
		Title: fmt.Sprintf("Review %d messages with large attachments", len(ids)),
		Description: fmt.Sprintf("These messages carry attachments of %d bytes or more",
			e.config.LargeAttachmentMin),
		EmailIDs:       ids,
		EstimatedBytes: bytes,
		Priority:       model.PriorityMedium,
	}
}

// spamSuggestion triggers on sheer marketing volume.
func (e *Engine) spamSuggestion(msgs []model.Message) *model.CleanupSuggestion {
	var ids []string
	for _, msg := range msgs {
		if msg.Category == "marketing" {
			ids = append(ids, msg.ID)
		}
	}
	if len(ids) <= spamVolumeMin {
		return nil
	}

	return &model.CleanupSuggestion{
		ID:          uuid.NewString(),
		Type:        model.CleanupSpam,
		Title:       fmt.Sprintf("Archive %d marketing messages", len(ids)),
		Description: "Marketing mail has piled up; archiving it in bulk keeps the inbox lean",
		EmailIDs:    ids,
		Priority:    model.PriorityLow,
	}
}

// oldTransactionalSuggestion flags shopping mail past its useful life.
func (e *Engine) oldTransactionalSuggestion(msgs []model.Message) *model.CleanupSuggestion {
	cutoff := e.clock().AddDate(0, 0, -oldTransactionalDays)

	var ids []string
	var bytes int64
	for _, msg := range msgs {
		if msg.Category == "shopping" && msg.Date.Before(cutoff) {
			ids = append(ids, msg.ID)
			bytes += msg.Size
		}
	}
	if len(ids) == 0 {
		return nil
	}

	return &model.CleanupSuggestion{
		ID:   uuid.NewString(),
		Type: model.CleanupOldTransactional,
		Title: fmt.Sprintf("Delete %d old order confirmations", len(ids)),
		Description: fmt.Sprintf("Shopping messages older than %d days are unlikely to be needed again",
			oldTransactionalDays),
		EmailIDs:       ids,
		EstimatedBytes: bytes,
		Priority:       model.PriorityLow,
	}
}
