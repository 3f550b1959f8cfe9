package model

import "time"

// CleanupType tags the kind of remediation a cleanup suggestion proposes.
type CleanupType string

// Cleanup suggestion type constants.
const (
	CleanupDuplicate            CleanupType = "duplicate"
	CleanupInactiveSubscription CleanupType = "inactive_subscription"
	CleanupSpam                 CleanupType = "spam"
	CleanupLargeAttachment      CleanupType = "large_attachment"
	CleanupOldTransactional     CleanupType = "old_transactional"
	CleanupUnreadNewsletters    CleanupType = "unread_newsletters"
)

// CleanupPriority orders suggestions for presentation.
type CleanupPriority string

// Cleanup priority constants.
const (
	PriorityHigh   CleanupPriority = "high"
	PriorityMedium CleanupPriority = "medium"
	PriorityLow    CleanupPriority = "low"
)

// Rank returns a sortable weight for the priority; lower sorts first.
func (p CleanupPriority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// CleanupSuggestion is an ephemeral, actionable finding over the message
// corpus: what to clean up, which messages it affects, and how much space
// acting on it would reclaim.
type CleanupSuggestion struct {
	ID             string          `json:"id"`
	Type           CleanupType     `json:"type"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	EmailIDs       []string        `json:"email_ids"`
	EstimatedBytes int64           `json:"estimated_bytes,omitempty"`
	Priority       CleanupPriority `json:"priority"`
}

// DuplicateGroup holds messages sharing a duplicate key, ordered newest
// first. The first member is the canonical survivor; the rest are removal
// candidates.
type DuplicateGroup struct {
	Key      string    `json:"key"`
	Messages []Message `json:"messages"`
}

// SubscriptionInfo summarizes one sender domain's marketing mail.
// A domain is active when more than 20% of its messages have been read.
type SubscriptionInfo struct {
	LastDate       time.Time `json:"last_date"`
	Domain         string    `json:"domain"`
	Count          int       `json:"count"`
	ReadRate       float64   `json:"read_rate"`
	HasUnsubscribe bool      `json:"has_unsubscribe"`
	Active         bool      `json:"active"`
}

// UnsubscribeResult reports the outcome of a bulk unsubscribe run.
// Processed + Skipped always equals the number of requested ids.
type UnsubscribeResult struct {
	Links     []string `json:"links"`
	Processed int      `json:"processed"`
	Skipped   int      `json:"skipped"`
}
