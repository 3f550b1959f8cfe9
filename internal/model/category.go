package model

// CategoryDefinition describes one category the classifier can assign.
// Definitions are static configuration: loaded once at construction and
// immutable for the lifetime of a classification run. Order matters; ties
// between equal scores keep the first-seen definition.
type CategoryDefinition struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	ContentPatterns []string `json:"content_patterns"`
	SenderPatterns  []string `json:"sender_patterns"`
	Keywords        []string `json:"keywords"`
	Weight          float64  `json:"weight"`
}

// ClassificationResult is the outcome of classifying a single message.
type ClassificationResult struct {
	Category   string   `json:"category"`
	Keywords   []string `json:"keywords"`
	Confidence float64  `json:"confidence"`
	Importance float64  `json:"importance"`
}

// SenderRuleSuggestion proposes categorizing a sender domain based on the
// dominant category observed among its messages.
type SenderRuleSuggestion struct {
	Pattern    string  `json:"pattern"`
	Category   string  `json:"category"`
	Confidence float64 `json:"confidence"`
}
