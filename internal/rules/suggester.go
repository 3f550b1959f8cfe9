package rules

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mailsift/mailsift/internal/model"
	"github.com/mailsift/mailsift/internal/service"
)

const (
	// suggestionDomainMin is the minimum message volume before a domain is
	// considered for an auto-categorize suggestion.
	suggestionDomainMin = 5
	// suggestionShareMin is the dominance ratio the dominant category must
	// exceed.
	suggestionShareMin = 0.8
	// marketingVolumeMin is the volume above which an archive-old-marketing
	// rule is additionally proposed.
	marketingVolumeMin = 20
	// financialVolumeMin is the corpus-wide financial message count above
	// which the bank-statement filing rule is proposed.
	financialVolumeMin = 10
	// suggestionLimit caps the returned list.
	suggestionLimit = 10
	// suggestionSampleLimit caps sample messages per suggestion.
	suggestionSampleLimit = 3
	// archiveAfterDays is the age threshold in the proposed
	// archive-old-marketing rule.
	archiveAfterDays = 180
)

// GetSuggestions mines the message corpus for rule-worthy patterns and
// returns up to ten proposals ranked by confidence. Suggestions are
// ephemeral: each call recomputes them from a fresh snapshot.
func (e *Engine) GetSuggestions(ctx context.Context) ([]model.RuleSuggestion, error) {
	msgs, err := e.store.GetMessages(ctx, service.MessageFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load messages: %w", err)
	}

	var suggestions []model.RuleSuggestion
	suggestions = append(suggestions, e.domainSuggestions(msgs)...)
	if s := e.financialSuggestion(msgs); s != nil {
		suggestions = append(suggestions, *s)
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].Confidence > suggestions[j].Confidence
	})
	if len(suggestions) > suggestionLimit {
		suggestions = suggestions[:suggestionLimit]
	}

	return suggestions, nil
}

// domainSuggestions proposes auto-categorize rules for sender domains whose
// dominant category dominates, plus archive rules for high-volume marketing
// domains.
func (e *Engine) domainSuggestions(msgs []model.Message) []model.RuleSuggestion {
	type domainStats struct {
		byCategory map[string]int
		samples    []model.Message
		total      int
	}
	domains := make(map[string]*domainStats)
	var order []string

	for _, msg := range msgs {
		domain := msg.SenderDomain()
		if domain == "" {
			continue
		}
		stats, ok := domains[domain]
		if !ok {
			stats = &domainStats{byCategory: make(map[string]int)}
			domains[domain] = stats
			order = append(order, domain)
		}
		stats.byCategory[msg.Category]++
		stats.total++
		if len(stats.samples) < suggestionSampleLimit {
			stats.samples = append(stats.samples, msg)
		}
	}
	sort.Strings(order)

	var suggestions []model.RuleSuggestion
	for _, domain := range order {
		stats := domains[domain]
		if stats.total < suggestionDomainMin {
			continue
		}

		category, count := dominantCategory(stats.byCategory)
		share := float64(count) / float64(stats.total)
		if share <= suggestionShareMin || category == model.CategoryUncategorized || category == "" {
			continue
		}

		suggestions = append(suggestions, model.RuleSuggestion{
			ID: uuid.NewString(),
			Rule: model.Rule{
				Name: fmt.Sprintf("Categorize %s as %s", domain, category),
				Conditions: []model.Condition{
					{Field: model.FieldFrom, Operator: model.OpContains, Value: "@" + domain},
				},
				Actions: []model.Action{
					{Type: model.ActionCategorize, Value: category},
				},
				Enabled: true,
			},
			Confidence: share,
			Reason: fmt.Sprintf("%d of %d messages from %s are categorized as %s",
				count, stats.total, domain, category),
			Samples: stats.samples,
		})

		if category == "marketing" && stats.total > marketingVolumeMin {
			cutoff := e.clock().AddDate(0, 0, -archiveAfterDays).UTC().Format(time.RFC3339)
			suggestions = append(suggestions, model.RuleSuggestion{
				ID: uuid.NewString(),
				Rule: model.Rule{
					Name: fmt.Sprintf("Archive old marketing from %s", domain),
					Conditions: []model.Condition{
						{Field: model.FieldFrom, Operator: model.OpContains, Value: "@" + domain},
						{Field: model.FieldDate, Operator: model.OpBefore, Value: cutoff},
					},
					Actions: []model.Action{
						{Type: model.ActionArchive},
					},
					Enabled: true,
				},
				Confidence: 0.9,
				Reason: fmt.Sprintf("%s sends a high volume of marketing mail (%d messages); archiving mail older than %d days keeps the inbox lean",
					domain, stats.total, archiveAfterDays),
				Samples: stats.samples,
			})
		}
	}

	return suggestions
}

// financialSuggestion proposes a fixed bank-statement filing rule once
// enough financial mail exists.
func (e *Engine) financialSuggestion(msgs []model.Message) *model.RuleSuggestion {
	domains := make(map[string]bool)
	var count int
	var samples []model.Message

	for _, msg := range msgs {
		if msg.Category != "financial" {
			continue
		}
		count++
		if domain := msg.SenderDomain(); domain != "" {
			domains[domain] = true
		}
		if len(samples) < suggestionSampleLimit &&
			strings.Contains(strings.ToLower(msg.Subject), "statement") {
			samples = append(samples, msg)
		}
	}

	if count <= financialVolumeMin || len(domains) == 0 {
		return nil
	}

	return &model.RuleSuggestion{
		ID: uuid.NewString(),
		Rule: model.Rule{
			Name: "File bank statements",
			Conditions: []model.Condition{
				{Field: model.FieldCategory, Operator: model.OpEquals, Value: "financial"},
				{Field: model.FieldSubject, Operator: model.OpContains, Value: "statement"},
			},
			Actions: []model.Action{
				{Type: model.ActionMove, Value: "Finance"},
				{Type: model.ActionMarkRead},
			},
			Enabled: true,
		},
		Confidence: 0.85,
		Reason: fmt.Sprintf("%d financial messages from %d senders; statements can be filed automatically",
			count, len(domains)),
		Samples: samples,
	}
}

// dominantCategory returns the most frequent category and its count.
// Ties break lexicographically for determinism.
func dominantCategory(byCategory map[string]int) (string, int) {
	var best string
	var bestCount int
	for category, count := range byCategory {
		if count > bestCount || (count == bestCount && category < best) {
			best = category
			bestCount = count
		}
	}
	return best, bestCount
}
