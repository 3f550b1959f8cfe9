// Package cleanup scans the message corpus for duplicates, dormant
// subscriptions, and oversized or aged mail, and turns findings into ranked,
// actionable suggestions.
package cleanup

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

const (
	// DefaultLargeAttachmentMin is the attachment size threshold (5 MiB).
	DefaultLargeAttachmentMin int64 = 5 * 1024 * 1024
	// inactiveAfterDays marks a subscription dormant when its newest
	// message is older than this.
	inactiveAfterDays = 90
	// duplicateSnippetPrefix bounds the snippet character prefix used in
	// the duplicate grouping key.
	duplicateSnippetPrefix = 50
)

// Config holds configuration options for the cleanup engine.
type Config struct {
	// Clock supplies the current time; tests override it.
	Clock func() time.Time
	// UnsubscribeDelay spaces out bulk unsubscribe invocations. This is a
	// rate limit for the external link handler, not a correctness
	// requirement.
	UnsubscribeDelay time.Duration
	// LargeAttachmentMin is the attachment size threshold in bytes.
	LargeAttachmentMin int64
	// ProviderTimeout caps each individual provider call.
	ProviderTimeout time.Duration
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Clock:              time.Now,
		UnsubscribeDelay:   time.Second,
		LargeAttachmentMin: DefaultLargeAttachmentMin,
		ProviderTimeout:    10 * time.Second,
	}
}

// Engine identifies duplicate, inactive, and low-value mail and performs
// bulk remediation through the store and provider gateway.
type Engine struct {
	store   service.EmailStore
	gateway service.ProviderGateway
	clock   func() time.Time
	config  Config
}

// New creates a cleanup engine with the default configuration.
func New(store service.EmailStore, gateway service.ProviderGateway) *Engine {
	return NewWithConfig(store, gateway, DefaultConfig())
}

// NewWithConfig creates a cleanup engine with custom configuration.
func NewWithConfig(store service.EmailStore, gateway service.ProviderGateway, config Config) *Engine {
	if config.Clock == nil {
		config.Clock = time.Now
	}
	if config.UnsubscribeDelay <= 0 {
		config.UnsubscribeDelay = time.Second
	}
	if config.LargeAttachmentMin <= 0 {
		config.LargeAttachmentMin = DefaultLargeAttachmentMin
	}
	if config.ProviderTimeout <= 0 {
		config.ProviderTimeout = 10 * time.Second
	}
	return &Engine{
		store:   store,
		gateway: gateway,
		clock:   config.Clock,
		config:  config,
	}
}

// FindDuplicates groups messages by (subject, sender, snippet prefix) and
// returns the groups with more than one member. Within each group messages
// are ordered newest first, so index 0 is the canonical survivor. The
// operation is pure: identical input yields identical groups.
func (e *Engine) FindDuplicates(msgs []model.Message) []model.DuplicateGroup {
	byKey := make(map[string][]model.Message)
	var order []string

	for _, msg := range msgs {
		key := duplicateKey(msg)
		if _, ok := byKey[key]; !ok {
			order = append(order, key)
		}
		byKey[key] = append(byKey[key], msg)
	}

	var groups []model.DuplicateGroup
	for _, key := range order {
		members := byKey[key]
		if len(members) < 2 {
			continue
		}
		sort.SliceStable(members, func(i, j int) bool {
			return members[i].Date.After(members[j].Date)
		})
		groups = append(groups, model.DuplicateGroup{Key: key, Messages: members})
	}

	return groups
}

// duplicateKey builds the grouping triple for duplicate detection.
func duplicateKey(msg model.Message) string {
	snippet := common.TruncatePrefix(strings.ToLower(msg.Snippet), duplicateSnippetPrefix)
	return fmt.Sprintf("%s|%s|%s",
		strings.ToLower(strings.TrimSpace(msg.Subject)),
		strings.ToLower(msg.FromAddress),
		snippet)
}

// FindInactiveSubscriptions flags marketing domains whose messages are all
// unread and whose most recent message is older than 90 days. The newest
// message per flagged domain is returned; it carries the representative
// unsubscribe link.
func (e *Engine) FindInactiveSubscriptions(msgs []model.Message) []model.Message {
	type domainState struct {
		newest  model.Message
		anyRead bool
		seen    bool
	}
	domains := make(map[string]*domainState)
	var order []string

	for _, msg := range msgs {
		if msg.Category != "marketing" || !msg.HasUnsubscribeLink() {
			continue
		}
		domain := msg.SenderDomain()
		if domain == "" {
			continue
		}
		state, ok := domains[domain]
		if !ok {
			state = &domainState{}
			domains[domain] = state
			order = append(order, domain)
		}
		if msg.IsRead {
			state.anyRead = true
		}
		if !state.seen || msg.Date.After(state.newest.Date) {
			state.newest = msg
		}
		state.seen = true
	}
	sort.Strings(order)

	cutoff := e.clock().AddDate(0, 0, -inactiveAfterDays)
	var inactive []model.Message
	for _, domain := range order {
		state := domains[domain]
		if state.anyRead {
			continue
		}
		if state.newest.Date.Before(cutoff) {
			inactive = append(inactive, state.newest)
		}
	}

	return inactive
}

// FindLargeAttachments returns messages whose summed attachment sizes meet
// or exceed the threshold. A non-positive threshold uses the configured
// default.
func (e *Engine) FindLargeAttachments(minSizeBytes int64, msgs []model.Message) []model.Message {
	if minSizeBytes <= 0 {
		minSizeBytes = e.config.LargeAttachmentMin
	}

	var large []model.Message
	for _, msg := range msgs {
		if msg.AttachmentBytes() >= minSizeBytes {
			large = append(large, msg)
		}
	}
	return large
}
