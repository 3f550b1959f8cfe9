// Package classifier assigns categories, importance scores, and keyword tags
// to email messages using configurable pattern tables.
package classifier

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/mailsift/mailsift/internal/common"
	"github.com/mailsift/mailsift/internal/model"
)

const (
	// bodyPrefixLimit bounds how many body characters are examined per
	// message.
	bodyPrefixLimit = 2000
	// confidenceNorm converts a winning score into a [0,1] confidence.
	confidenceNorm = 10.0
	// unsubscribeBonus is added to the marketing score when a message
	// carries an unsubscribe link. Applied after the generic scoring pass.
	unsubscribeBonus = 4.0
	// keywordCap bounds the keyword tag output.
	keywordCap = 10
	// highScoreThreshold marks a confident win worth an importance boost.
	highScoreThreshold = 5.0
	// baseImportance is the neutral starting importance.
	baseImportance = 0.5
)

// marketingCategoryID receives the unsubscribe-link bonus when configured.
const marketingCategoryID = "marketing"

// importanceByCategory holds the fixed per-category importance adjustments.
var importanceByCategory = map[string]float64{
	"important": 0.3,
	"financial": 0.15,
	"bills":     0.1,
	"travel":    0.1,
	"marketing": -0.2,
	"social":    -0.1,
}

// urgencyPatterns each add 0.2 to importance when present in the subject or
// snippet. Each pattern fires at most once, not per occurrence.
var urgencyPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\burgent\b`),
	regexp.MustCompile(`(?i)\basap\b`),
	regexp.MustCompile(`(?i)\bdeadline\b`),
	regexp.MustCompile(`(?i)\baction\s*required\b`),
	regexp.MustCompile(`(?i)\bimmediately\b`),
	regexp.MustCompile(`(?i)\bexpir(es|ing)\s+(today|soon|tomorrow)\b`),
}

// compiledCategory holds a category definition with its patterns
// pre-compiled. Malformed patterns are dropped at construction and score as
// non-matching.
type compiledCategory struct {
	def      model.CategoryDefinition
	content  []*regexp.Regexp
	sender   []*regexp.Regexp
	keywords []string
}

// Classifier assigns a category, importance, and keyword tags to one message
// at a time. It has no dependencies and holds no mutable state, so a single
// instance is safe for concurrent use.
type Classifier struct {
	categories []compiledCategory
}

// New creates a classifier from an explicit set of category definitions.
// Definition order is preserved; ties between equal scores keep the
// first-seen definition.
func New(defs []model.CategoryDefinition) *Classifier {
	categories := make([]compiledCategory, 0, len(defs))

	for _, def := range defs {
		cc := compiledCategory{def: def}
		for _, p := range def.ContentPatterns {
			if re := compilePattern(p); re != nil {
				cc.content = append(cc.content, re)
			}
		}
		for _, p := range def.SenderPatterns {
			if re := compilePattern(p); re != nil {
				cc.sender = append(cc.sender, re)
			}
		}
		for _, kw := range def.Keywords {
			kw = strings.ToLower(strings.TrimSpace(kw))
			if kw != "" {
				cc.keywords = append(cc.keywords, kw)
			}
		}
		categories = append(categories, cc)
	}

	return &Classifier{categories: categories}
}

// compilePattern compiles a pattern case-insensitively, returning nil for
// malformed input.
func compilePattern(pattern string) *regexp.Regexp {
	if pattern == "" {
		return nil
	}
	if !strings.HasPrefix(pattern, "(?i)") {
		pattern = "(?i)" + pattern
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil
	}
	return re
}

// Classify assigns a category, confidence, importance, and keyword tags to a
// single message. Absent fields are treated as empty strings; this operation
// never fails.
func (c *Classifier) Classify(msg model.Message) model.ClassificationResult {
	content := strings.ToLower(contentText(msg))
	sender := strings.ToLower(strings.TrimSpace(msg.FromAddress + " " + msg.FromName))

	scores := make(map[string]float64, len(c.categories))
	var keywords []string
	seenKeyword := make(map[string]bool)

	for _, cc := range c.categories {
		var score float64
		for _, re := range cc.content {
			if re.MatchString(content) {
				score += 2 * cc.def.Weight
			}
		}
		for _, re := range cc.sender {
			if re.MatchString(sender) {
				score += 3 * cc.def.Weight
			}
		}
		for _, kw := range cc.keywords {
			if strings.Contains(content, kw) {
				score += 0.5 * cc.def.Weight
				if !seenKeyword[kw] {
					seenKeyword[kw] = true
					keywords = append(keywords, kw)
				}
			}
		}
		scores[cc.def.ID] = score
	}

	// An unsubscribe header is strong marketing evidence. The bonus lands
	// after the generic pass so it stacks on whatever marketing scored.
	if msg.HasUnsubscribeLink() {
		if _, ok := scores[marketingCategoryID]; ok {
			scores[marketingCategoryID] += unsubscribeBonus
		}
	}

	category := model.CategoryUncategorized
	var winning float64
	for _, cc := range c.categories {
		if scores[cc.def.ID] > winning {
			winning = scores[cc.def.ID]
			category = cc.def.ID
		}
	}

	confidence := winning / confidenceNorm
	if confidence > 1 {
		confidence = 1
	}
	if len(keywords) > keywordCap {
		keywords = keywords[:keywordCap]
	}

	return model.ClassificationResult{
		Category:   category,
		Confidence: confidence,
		Importance: c.importance(msg, category, winning),
		Keywords:   keywords,
	}
}

// contentText concatenates the fields examined for content matching,
// truncating the body to a bounded character prefix.
func contentText(msg model.Message) string {
	body := common.TruncatePrefix(msg.Body, bodyPrefixLimit)
	return strings.TrimSpace(msg.Subject + " " + msg.Snippet + " " + body)
}

// importance computes the final importance score, clamped to [0,1].
func (c *Classifier) importance(msg model.Message, category string, winningScore float64) float64 {
	importance := baseImportance

	urgencyText := msg.Subject + " " + msg.Snippet
	for _, re := range urgencyPatterns {
		if re.MatchString(urgencyText) {
			importance += 0.2
		}
	}

	importance += importanceByCategory[category]

	if winningScore > highScoreThreshold {
		importance += 0.1
	}

	if importance < 0 {
		return 0
	}
	if importance > 1 {
		return 1
	}
	return importance
}

// ClassifyBatch classifies each message independently. There is no
// cross-message state; the context is checked between messages so large
// batches cancel promptly.
func (c *Classifier) ClassifyBatch(ctx context.Context, msgs []model.Message) (map[string]model.ClassificationResult, error) {
	results := make(map[string]model.ClassificationResult, len(msgs))

	for _, msg := range msgs {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
			results[msg.ID] = c.Classify(msg)
		}
	}

	return results, nil
}

const (
	// senderRuleMinShare is the dominance ratio a domain's majority
	// category must exceed before a sender rule is suggested.
	senderRuleMinShare = 0.8
	// senderRuleMinCount is the minimum majority size for a suggestion.
	senderRuleMinCount = 3
)

// SuggestSenderRules groups already-categorized messages by sender domain
// and proposes a categorize-by-sender pattern for each domain whose majority
// category dominates. Confidence is the majority share.
func (c *Classifier) SuggestSenderRules(msgs []model.Message) []model.SenderRuleSuggestion {
	type domainStats struct {
		byCategory map[string]int
		total      int
	}
	domains := make(map[string]*domainStats)

	for _, msg := range msgs {
		domain := msg.SenderDomain()
		if domain == "" {
			continue
		}
		stats, ok := domains[domain]
		if !ok {
			stats = &domainStats{byCategory: make(map[string]int)}
			domains[domain] = stats
		}
		stats.byCategory[msg.Category]++
		stats.total++
	}

	var suggestions []model.SenderRuleSuggestion
	for domain, stats := range domains {
		category, count := majorityCategory(stats.byCategory)
		if category == "" || category == model.CategoryUncategorized {
			continue
		}
		share := float64(count) / float64(stats.total)
		if share > senderRuleMinShare && count >= senderRuleMinCount {
			suggestions = append(suggestions, model.SenderRuleSuggestion{
				Pattern:    fmt.Sprintf("@%s", domain),
				Category:   category,
				Confidence: share,
			})
		}
	}

	// Deterministic output for reproducible suggestion runs.
	sort.Slice(suggestions, func(i, j int) bool {
		if suggestions[i].Confidence != suggestions[j].Confidence {
			return suggestions[i].Confidence > suggestions[j].Confidence
		}
		return suggestions[i].Pattern < suggestions[j].Pattern
	})

	return suggestions
}

// majorityCategory returns the most frequent category and its count.
// Ties break lexicographically for determinism.
func majorityCategory(byCategory map[string]int) (string, int) {
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
